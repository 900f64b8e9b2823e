// /home/krylon/go/src/github.com/blicero/binsched/objects/day.go
// -*- mode: go; coding: utf-8; -*-
// Created on 03. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-12 21:30:19 krylon>

package objects

import (
	"time"

	"github.com/blicero/binsched/common"
)

// A day is represented as a time.Time at midnight in the reference zone.
// Two days compare equal with time.Time.Equal iff they are the same
// calendar date.

// ParseDay parses a date in yyyy-mm-dd format as a calendar day in the
// reference zone.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(common.TimestampFormatDate, s, common.ReferenceZone)
} // func ParseDay(s string) (time.Time, error)

// DayOf returns the calendar day the given instant falls on, as seen in
// the reference zone.
func DayOf(t time.Time) time.Time {
	var y, m, d = t.In(common.ReferenceZone).Date()

	return time.Date(y, m, d, 0, 0, 0, 0, common.ReferenceZone)
} // func DayOf(t time.Time) time.Time

// FormatDay renders a day in yyyy-mm-dd format.
func FormatDay(day time.Time) string {
	return day.In(common.ReferenceZone).Format(common.TimestampFormatDate)
} // func FormatDay(day time.Time) string

// AddDays moves a day forward (or backward, for negative n) by n calendar
// days. The result is midnight again, even across a DST transition.
func AddDays(day time.Time, n int) time.Time {
	var y, m, d = day.In(common.ReferenceZone).Date()

	return time.Date(y, m, d+n, 0, 0, 0, 0, common.ReferenceZone)
} // func AddDays(day time.Time, n int) time.Time

// DaySuffix returns the English ordinal suffix for the day of the month,
// e.g. "st" for the 1st or "rd" for the 23rd.
func DaySuffix(day time.Time) string {
	switch day.In(common.ReferenceZone).Day() {
	case 1, 21, 31:
		return "st"
	case 2, 22:
		return "nd"
	case 3, 23:
		return "rd"
	default:
		return "th"
	}
} // func DaySuffix(day time.Time) string
