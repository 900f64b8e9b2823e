// /home/krylon/go/src/github.com/blicero/binsched/scheduler/scheduler.go
// -*- mode: go; coding: utf-8; -*-
// Created on 06. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-15 14:48:02 krylon>

// Package scheduler turns a collection schedule into reminder requests
// and hands them to the notification subsystem.
package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/blicero/binsched/common"
	"github.com/blicero/binsched/logdomain"
	"github.com/blicero/binsched/objects"
	"github.com/jmhodges/clock"
)

// Defaults for the reminder window and the size of the notification queue.
const (
	DefaultWindowDays = 60
	DefaultLimit      = 64
)

// Notifier is the part of the notification subsystem the Scheduler
// talks to.
type Notifier interface {
	ClearPending() error
	Submit(r *objects.ReminderRequest) error
}

// SubmitError is logged when the notification subsystem rejects a single
// reminder. It does not abort a reconciliation pass.
type SubmitError struct {
	Reminder *objects.ReminderRequest
	Err      error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("Cannot submit reminder for %s: %s",
		e.Reminder.FireAt.In(common.ReferenceZone).Format(common.TimestampFormatMinute),
		e.Err)
} // func (e *SubmitError) Error() string

func (e *SubmitError) Unwrap() error {
	return e.Err
} // func (e *SubmitError) Unwrap() error

// Scheduler computes when reminders should go off.
type Scheduler struct {
	log        *log.Logger
	notifier   Notifier
	clk        clock.Clock
	WindowDays int
	Limit      int
}

// New creates a Scheduler. If clk is nil, the system clock is used.
func New(n Notifier, clk clock.Clock) (*Scheduler, error) {
	var (
		err error
		s   = &Scheduler{
			notifier:   n,
			clk:        clk,
			WindowDays: DefaultWindowDays,
			Limit:      DefaultLimit,
		}
	)

	if s.clk == nil {
		s.clk = clock.New()
	}

	if s.log, err = common.GetLogger(logdomain.Scheduler); err != nil {
		return nil, err
	}

	return s, nil
} // func New(n Notifier, clk clock.Clock) (*Scheduler, error)

// FireTime returns the instant a reminder for a collection on the given
// day should go off: the preceding calendar day at tod, wall-clock time in
// the reference zone.
func FireTime(day time.Time, tod objects.TimeOfDay) time.Time {
	return tod.On(objects.AddDays(day, -1))
} // func FireTime(day time.Time, tod objects.TimeOfDay) time.Time

// Select returns the events dated no earlier than now and no later than
// windowDays calendar days after now, in ascending order, at most limit
// of them. events must already be sorted.
func Select(events []objects.CollectionEvent, now time.Time, windowDays, limit int) []objects.CollectionEvent {
	if limit <= 0 {
		return nil
	}

	var (
		end    = now.In(common.ReferenceZone).AddDate(0, 0, windowDays)
		result = make([]objects.CollectionEvent, 0, limit)
	)

	for _, ev := range events {
		if len(result) >= limit {
			break
		} else if ev.Date.Before(now) {
			continue
		} else if ev.Date.After(end) {
			break
		}

		result = append(result, ev)
	}

	return result
} // func Select(...) []objects.CollectionEvent

// Clear removes all pending reminders.
func (s *Scheduler) Clear() error {
	var err error

	if err = s.notifier.ClearPending(); err != nil {
		s.log.Printf("[ERROR] Cannot clear pending reminders: %s\n",
			err.Error())
		return err
	}

	s.log.Println("[DEBUG] Cleared pending reminders")
	return nil
} // func (s *Scheduler) Clear() error

// Reconcile replaces all pending reminders with a fresh batch for the
// given events. It returns the number of reminders that were submitted.
// If the pending reminders cannot be cleared, nothing is submitted.
func (s *Scheduler) Reconcile(events []objects.CollectionEvent, location string, tod objects.TimeOfDay) (int, error) {
	var (
		err      error
		cnt      int
		now      = s.clk.Now()
		selected []objects.CollectionEvent
	)

	if err = s.Clear(); err != nil {
		return 0, fmt.Errorf("Cannot reconcile reminders for %s: %w",
			location,
			err)
	}

	selected = Select(events, now, s.WindowDays, s.Limit)

	for i := range selected {
		var (
			ev     = &selected[i]
			fireAt = FireTime(ev.Date, tod)
			req    *objects.ReminderRequest
		)

		if !fireAt.After(now) {
			s.log.Printf("[TRACE] Skip reminder for %s, %s has passed already\n",
				objects.FormatDay(ev.Date),
				fireAt.Format(common.TimestampFormatMinute))
			continue
		}

		req = objects.NewReminderRequest(ev, location, fireAt)

		if err = s.notifier.Submit(req); err != nil {
			var serr = &SubmitError{Reminder: req, Err: err}
			s.log.Printf("[ERROR] %s\n", serr.Error())
			continue
		}

		cnt++
	}

	s.log.Printf("[INFO] Scheduled %d reminders for %s (%d events in window)\n",
		cnt,
		location,
		len(selected))

	return cnt, nil
} // func (s *Scheduler) Reconcile(...) (int, error)
