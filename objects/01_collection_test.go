// /home/krylon/go/src/github.com/blicero/binsched/objects/01_collection_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 09. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-15 16:12:30 krylon>

package objects

import (
	"strings"
	"testing"
	"time"

	"github.com/blicero/binsched/common"
)

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()

	var (
		err error
		day time.Time
	)

	if day, err = ParseDay(s); err != nil {
		t.Fatalf("Cannot parse day %q: %s", s, err.Error())
	}

	return day
} // func mustDay(t *testing.T, s string) time.Time

func TestBinCategoryText(t *testing.T) {
	for _, cat := range AllBinCategories {
		var (
			err  error
			txt  []byte
			back BinCategory
		)

		if txt, err = cat.MarshalText(); err != nil {
			t.Errorf("Cannot marshal %s: %s", cat, err.Error())
		} else if string(txt) != strings.ToLower(cat.DisplayName()) {
			t.Errorf("Unexpected text for %s: %q", cat, txt)
		} else if err = back.UnmarshalText(txt); err != nil {
			t.Errorf("Cannot unmarshal %q: %s", txt, err.Error())
		} else if back != cat {
			t.Errorf("Round trip changed %s into %s", cat, back)
		}
	}

	if _, err := ParseBinCategory("purple"); err == nil {
		t.Error("ParseBinCategory accepted an unknown key")
	} else if _, err = ParseBinCategory("Blue"); err == nil {
		t.Error("ParseBinCategory should be case-sensitive")
	}
} // func TestBinCategoryText(t *testing.T)

func TestCollectorMerge(t *testing.T) {
	var c Collector

	c.Add(mustDay(t, "2025-03-10"), Grey)
	c.Add(mustDay(t, "2025-03-03"), Blue)
	c.Add(mustDay(t, "2025-03-03"), Green)
	c.Add(mustDay(t, "2025-03-03"), Blue)
	c.Add(mustDay(t, "2025-02-24"), Brown)

	var events = c.Events()

	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}

	for i := 1; i < len(events); i++ {
		if !events[i-1].Date.Before(events[i].Date) {
			t.Errorf("Events are not strictly ascending at index %d: %s >= %s",
				i,
				FormatDay(events[i-1].Date),
				FormatDay(events[i].Date))
		}
	}

	var merged = events[1]

	if FormatDay(merged.Date) != "2025-03-03" {
		t.Fatalf("Unexpected date for merged event: %s", FormatDay(merged.Date))
	} else if len(merged.Bins) != 2 || merged.Bins[0] != Blue || merged.Bins[1] != Green {
		t.Errorf("Unexpected bins for merged event: %v", merged.Bins)
	} else if merged.BinNames() != "Blue, Green" {
		t.Errorf("Unexpected bin names: %q", merged.BinNames())
	}

	var seen = make(map[string]bool)
	for _, e := range events {
		if e.ID == "" {
			t.Errorf("Event %s has no ID", e.String())
		} else if seen[e.ID] {
			t.Errorf("Duplicate ID %s", e.ID)
		}
		seen[e.ID] = true
	}

	// Every call mints new identities.
	var again = c.Events()
	if again[0].ID == events[0].ID {
		t.Error("Events() reused an ID from a previous call")
	}
} // func TestCollectorMerge(t *testing.T)

func TestUpcoming(t *testing.T) {
	var c Collector

	c.Add(mustDay(t, "2025-02-24"), Brown)
	c.Add(mustDay(t, "2025-03-03"), Blue)
	c.Add(mustDay(t, "2025-03-10"), Grey)

	var (
		events = c.Events()
		ref    = time.Date(2025, 3, 3, 0, 0, 0, 0, common.ReferenceZone)
		up     = Upcoming(events, ref, 4)
	)

	if len(up) != 2 {
		t.Fatalf("Expected 2 upcoming events, got %d", len(up))
	} else if FormatDay(up[0].Date) != "2025-03-03" || FormatDay(up[1].Date) != "2025-03-10" {
		t.Errorf("Unexpected upcoming events: %s, %s",
			FormatDay(up[0].Date),
			FormatDay(up[1].Date))
	}

	// Late in the evening, today's collection still counts.
	ref = time.Date(2025, 3, 3, 23, 30, 0, 0, common.ReferenceZone)
	if up = Upcoming(events, ref, 4); len(up) != 2 {
		t.Errorf("Expected 2 upcoming events late in the day, got %d", len(up))
	}

	if up = Upcoming(events, ref, 1); len(up) != 1 {
		t.Errorf("Limit was not honored: got %d events", len(up))
	}

	if up = Upcoming(events, ref, 0); len(up) != 0 {
		t.Errorf("Limit 0 should yield no events, got %d", len(up))
	}

	if up = Upcoming(nil, ref, 4); len(up) != 0 {
		t.Errorf("Empty input should yield no events, got %d", len(up))
	}
} // func TestUpcoming(t *testing.T)

func TestParseTimeOfDay(t *testing.T) {
	type testCase struct {
		input  string
		expect TimeOfDay
		err    bool
	}

	var cases = []testCase{
		{input: "15:00", expect: TimeOfDay{Hour: 15}},
		{input: "07:45", expect: TimeOfDay{Hour: 7, Minute: 45}},
		{input: " 0:05 ", expect: TimeOfDay{Minute: 5}},
		{input: "24:00", err: true},
		{input: "12:60", err: true},
		{input: "noon", err: true},
		{input: "12:30:00", err: true},
	}

	for _, c := range cases {
		var tod, err = ParseTimeOfDay(c.input)

		if c.err {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q) should have failed, got %s",
					c.input,
					tod)
			}
		} else if err != nil {
			t.Errorf("ParseTimeOfDay(%q) failed: %s", c.input, err.Error())
		} else if tod != c.expect {
			t.Errorf("ParseTimeOfDay(%q) = %s, expected %s",
				c.input,
				tod,
				c.expect)
		}
	}
} // func TestParseTimeOfDay(t *testing.T)

func TestDayLabel(t *testing.T) {
	var (
		now = time.Date(2025, 3, 3, 18, 0, 0, 0, common.ReferenceZone) // Monday
		ev  = NewCollectionEvent(mustDay(t, "2025-03-03"), []BinCategory{Blue})
	)

	if lbl := ev.DayLabel(now); lbl != "today" {
		t.Errorf("Expected today, got %q", lbl)
	}

	ev = NewCollectionEvent(mustDay(t, "2025-03-04"), []BinCategory{Blue})
	if lbl := ev.DayLabel(now); lbl != "tomorrow" {
		t.Errorf("Expected tomorrow, got %q", lbl)
	}

	ev = NewCollectionEvent(mustDay(t, "2025-03-07"), []BinCategory{Blue})
	if lbl := ev.DayLabel(now); lbl != "Friday" {
		t.Errorf("Expected Friday, got %q", lbl)
	}

	for day, suffix := range map[string]string{
		"2025-03-01": "st",
		"2025-03-02": "nd",
		"2025-03-03": "rd",
		"2025-03-11": "th",
		"2025-03-22": "nd",
		"2025-03-31": "st",
	} {
		if s := DaySuffix(mustDay(t, day)); s != suffix {
			t.Errorf("DaySuffix(%s) = %q, expected %q", day, s, suffix)
		}
	}
} // func TestDayLabel(t *testing.T)

func TestLocations(t *testing.T) {
	if !IsKnownLocation("bridge of  weir") {
		t.Error("Bridge of Weir should be a known location")
	} else if IsKnownLocation("Paisley") {
		t.Error("Paisley is not in the catalog")
	}

	if name, ok := CanonicalLocation("NAPIER grove"); !ok || name != "Napier Grove" {
		t.Errorf("Unexpected canonical location %q", name)
	}

	if key := NormalizeLocation("Merchiston\tDrive "); key != "merchistondrive" {
		t.Errorf("Unexpected normalized location %q", key)
	}

	var link = OtherLocationMailto("PA11 3AB")

	if !strings.HasPrefix(link, "mailto:"+OtherLocationAddress+"?") {
		t.Errorf("Unexpected mailto link: %s", link)
	} else if !strings.Contains(link, "PA11%203AB") {
		t.Errorf("Details are missing from mailto link: %s", link)
	}
} // func TestLocations(t *testing.T)

func TestReminderRequest(t *testing.T) {
	var (
		n      Notification
		day    = mustDay(t, "2025-03-04")
		ev     = NewCollectionEvent(day, []BinCategory{Blue, Green})
		fireAt = DefaultReminderTime.On(AddDays(day, -1))
		r      = NewReminderRequest(&ev, "Houston", fireAt)
	)

	n = r

	if !n.Due().Equal(fireAt) {
		t.Errorf("Unexpected due time %s", n.Due())
	}

	if title, body := n.Payload(); title != "Bin Collection in Houston" {
		t.Errorf("Unexpected title %q", title)
	} else if body != "Tomorrow's collection: Blue, Green" {
		t.Errorf("Unexpected body %q", body)
	} else if r.UUID == "" {
		t.Error("ReminderRequest has no UUID")
	}
} // func TestReminderRequest(t *testing.T)
