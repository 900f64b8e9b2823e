// /home/krylon/go/src/github.com/blicero/binsched/cmd/01_show_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 15. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-16 13:10:02 krylon>

package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/blicero/binsched/common"
	"github.com/blicero/binsched/objects"
	"github.com/blicero/binsched/objects/state"
)

func TestPrintSchedule(t *testing.T) {
	var (
		buf    bytes.Buffer
		now    = time.Date(2025, 3, 3, 9, 0, 0, 0, common.ReferenceZone)
		events = []objects.CollectionEvent{
			objects.NewCollectionEvent(now, []objects.BinCategory{objects.Blue, objects.Green}),
			objects.NewCollectionEvent(now.AddDate(0, 0, 1), []objects.BinCategory{objects.Grey}),
			objects.NewCollectionEvent(now.AddDate(0, 0, 19), []objects.BinCategory{objects.Brown}),
		}
	)

	printSchedule(&buf, "Houston", state.Synced, events, now)

	var (
		out   = buf.String()
		lines = strings.Split(strings.TrimSpace(out), "\n")
	)

	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines of output, got %d:\n%s", len(lines), out)
	} else if !strings.Contains(lines[0], "Houston") {
		t.Errorf("Location is missing from header: %q", lines[0])
	} else if !strings.Contains(lines[1], "today") || !strings.Contains(lines[1], "3rd March") ||
		!strings.Contains(lines[1], "Blue, Green") {
		t.Errorf("Unexpected line for today: %q", lines[1])
	} else if !strings.Contains(lines[2], "tomorrow") || !strings.Contains(lines[2], "4th March") {
		t.Errorf("Unexpected line for tomorrow: %q", lines[2])
	} else if !strings.Contains(lines[3], "Saturday") || !strings.Contains(lines[3], "22nd March") {
		t.Errorf("Unexpected line for 22 March: %q", lines[3])
	}

	buf.Reset()
	printSchedule(&buf, "Houston", state.SyncFailed, nil, now)

	if out = buf.String(); !strings.Contains(out, "Could not reach the server") {
		t.Errorf("Sync failure is not reported:\n%s", out)
	} else if !strings.Contains(out, "No upcoming collections") {
		t.Errorf("Empty schedule is not reported:\n%s", out)
	}
} // func TestPrintSchedule(t *testing.T)
