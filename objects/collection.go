// /home/krylon/go/src/github.com/blicero/binsched/objects/collection.go
// -*- mode: go; coding: utf-8; -*-
// Created on 03. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-15 16:08:51 krylon>

package objects

import (
	"fmt"
	"sort"
	"time"

	"github.com/blicero/binsched/common"
)

// CollectionEvent is one day on which one or more bins are collected.
//
// ID is minted locally whenever a CollectionEvent is created or decoded.
// It is only meant to tell apart list items in a frontend and must not
// be relied upon across reloads. It is never persisted.
type CollectionEvent struct {
	ID   string
	Date time.Time
	Bins []BinCategory
}

// NewCollectionEvent creates a CollectionEvent with a fresh ID.
func NewCollectionEvent(day time.Time, bins []BinCategory) CollectionEvent {
	var b = make([]BinCategory, len(bins))
	copy(b, bins)

	return CollectionEvent{
		ID:   common.GetUUID(),
		Date: DayOf(day),
		Bins: b,
	}
} // func NewCollectionEvent(day time.Time, bins []BinCategory) CollectionEvent

// Has returns true if the given category is collected on the event's day.
func (c *CollectionEvent) Has(cat BinCategory) bool {
	for _, b := range c.Bins {
		if b == cat {
			return true
		}
	}

	return false
} // func (c *CollectionEvent) Has(cat BinCategory) bool

// BinNames returns the display names of the event's bins, comma-separated.
func (c *CollectionEvent) BinNames() string {
	return JoinDisplayNames(c.Bins)
} // func (c *CollectionEvent) BinNames() string

// SameDay returns true if both events fall on the same calendar day.
func (c *CollectionEvent) SameDay(other *CollectionEvent) bool {
	return c.Date.Equal(other.Date)
} // func (c *CollectionEvent) SameDay(other *CollectionEvent) bool

// DayLabel returns "today" or "tomorrow" if the event falls on either of
// these days relative to now, otherwise the name of the weekday.
func (c *CollectionEvent) DayLabel(now time.Time) string {
	var today = DayOf(now)

	switch {
	case c.Date.Equal(today):
		return "today"
	case c.Date.Equal(AddDays(today, 1)):
		return "tomorrow"
	default:
		return c.Date.In(common.ReferenceZone).Weekday().String()
	}
} // func (c *CollectionEvent) DayLabel(now time.Time) string

func (c *CollectionEvent) String() string {
	return fmt.Sprintf("CollectionEvent{ Date: %s, Bins: %v }",
		FormatDay(c.Date),
		c.Bins)
} // func (c *CollectionEvent) String() string

// Collector accumulates (category, day) pairs and merges them into
// CollectionEvents, one per distinct day.
// The zero value is ready to use.
type Collector struct {
	days map[int64]*collectedDay
}

type collectedDay struct {
	day  time.Time
	bins []BinCategory
}

// Add records that the given category is collected on the given day.
// Adding the same pair twice has no effect.
func (c *Collector) Add(day time.Time, cat BinCategory) {
	if c.days == nil {
		c.days = make(map[int64]*collectedDay)
	}

	day = DayOf(day)

	var (
		key    = day.Unix()
		cd, ok = c.days[key]
	)

	if !ok {
		cd = &collectedDay{day: day}
		c.days[key] = cd
	}

	for _, b := range cd.bins {
		if b == cat {
			return
		}
	}

	cd.bins = append(cd.bins, cat)
} // func (c *Collector) Add(day time.Time, cat BinCategory)

// Len returns the number of distinct days collected so far.
func (c *Collector) Len() int {
	return len(c.days)
} // func (c *Collector) Len() int

// Events returns one freshly minted CollectionEvent per distinct day,
// sorted by date in ascending order. Within each event, the categories
// appear in the order they were first added.
func (c *Collector) Events() []CollectionEvent {
	var events = make([]CollectionEvent, 0, len(c.days))

	for _, cd := range c.days {
		events = append(events, NewCollectionEvent(cd.day, cd.bins))
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})

	return events
} // func (c *Collector) Events() []CollectionEvent

// Upcoming returns up to limit events that fall on the same calendar day
// as ref or later. events must be sorted in ascending order.
func Upcoming(events []CollectionEvent, ref time.Time, limit int) []CollectionEvent {
	if limit <= 0 {
		return []CollectionEvent{}
	}

	var (
		today  = DayOf(ref)
		result = make([]CollectionEvent, 0, limit)
	)

	for _, e := range events {
		if len(result) >= limit {
			break
		} else if e.Date.Before(today) {
			continue
		}

		result = append(result, e)
	}

	return result
} // func Upcoming(events []CollectionEvent, ref time.Time, limit int) []CollectionEvent
