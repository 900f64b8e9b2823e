// /home/krylon/go/src/github.com/blicero/binsched/objects/timeofday.go
// -*- mode: go; coding: utf-8; -*-
// Created on 06. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-10 18:55:23 krylon>

package objects

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/blicero/binsched/common"
)

// TimeOfDay is a wall-clock time in the reference zone, used to determine
// when on the day before a collection the reminder should go off.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// DefaultReminderTime is used if the user has not picked a time.
var DefaultReminderTime = TimeOfDay{Hour: 15}

// ParseTimeOfDay parses a time of day in HH:MM format.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var (
		err   error
		tod   TimeOfDay
		parts = strings.Split(strings.TrimSpace(s), ":")
	)

	if len(parts) != 2 {
		return tod, fmt.Errorf("Invalid time of day %q, expected HH:MM", s)
	} else if tod.Hour, err = validateInt(parts[0], 0, 23); err != nil {
		return tod, fmt.Errorf("Invalid hour in %q: %w", s, err)
	} else if tod.Minute, err = validateInt(parts[1], 0, 59); err != nil {
		return tod, fmt.Errorf("Invalid minute in %q: %w", s, err)
	}

	return tod, nil
} // func ParseTimeOfDay(s string) (TimeOfDay, error)

func validateInt(s string, lo, hi int) (int, error) {
	var (
		err error
		n   int
	)

	if n, err = strconv.Atoi(s); err != nil {
		return 0, err
	} else if n < lo || n > hi {
		return 0, fmt.Errorf("%d is out of range [%d, %d]", n, lo, hi)
	}

	return n, nil
} // func validateInt(s string, lo, hi int) (int, error)

// Valid returns true if Hour and Minute are within their ranges.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
} // func (t TimeOfDay) Valid() bool

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
} // func (t TimeOfDay) String() string

// On returns the instant at which the wall clock in the reference zone
// shows the receiver's time on the given day.
func (t TimeOfDay) On(day time.Time) time.Time {
	var y, m, d = day.In(common.ReferenceZone).Date()

	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, common.ReferenceZone)
} // func (t TimeOfDay) On(day time.Time) time.Time
