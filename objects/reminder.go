// /home/krylon/go/src/github.com/blicero/binsched/objects/reminder.go
// -*- mode: go; coding: utf-8; -*-
// Created on 07. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-15 15:21:37 krylon>

package objects

import (
	"fmt"
	"time"

	"github.com/blicero/binsched/common"
)

// ReminderRequest is a single notification handed to the notification
// subsystem, to be displayed at FireAt.
type ReminderRequest struct {
	ID       int64
	UUID     string
	FireAt   time.Time
	Title    string
	Body     string
	Location string
	Fired    bool
}

// NewReminderRequest creates a ReminderRequest for the given collection
// event, going off at the given time.
func NewReminderRequest(ev *CollectionEvent, location string, fireAt time.Time) *ReminderRequest {
	return &ReminderRequest{
		UUID:     common.GetUUID(),
		FireAt:   fireAt,
		Title:    fmt.Sprintf("Bin Collection in %s", location),
		Body:     fmt.Sprintf("Tomorrow's collection: %s", ev.BinNames()),
		Location: location,
	}
} // func NewReminderRequest(ev *CollectionEvent, location string, fireAt time.Time) *ReminderRequest

// Due returns the time the Reminder should go off.
func (r *ReminderRequest) Due() time.Time {
	return r.FireAt
} // func (r *ReminderRequest) Due() time.Time

// Payload returns the Reminder's Title and Body.
func (r *ReminderRequest) Payload() (string, string) {
	return r.Title, r.Body
} // func (r *ReminderRequest) Payload() (string, string)

func (r *ReminderRequest) String() string {
	return fmt.Sprintf("ReminderRequest{ UUID: %s, FireAt: %s, Title: %q }",
		r.UUID,
		r.FireAt.In(common.ReferenceZone).Format(common.TimestampFormatMinute),
		r.Title)
} // func (r *ReminderRequest) String() string
