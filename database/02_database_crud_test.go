// /home/krylon/go/src/github.com/blicero/binsched/database/02_database_crud_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 10. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-15 18:44:09 krylon>

package database

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/blicero/binsched/common"
	"github.com/blicero/binsched/objects"
)

const (
	itemCnt   = 32
	firedCnt  = 4
	maxOffset = time.Hour * 168
)

var (
	items []*objects.ReminderRequest
	now   = time.Now()
)

func mkReminder(i int) *objects.ReminderRequest {
	return &objects.ReminderRequest{
		UUID:     common.GetUUID(),
		FireAt:   now.Add(time.Minute + time.Duration(rand.Int63n(int64(maxOffset)))),
		Title:    "Bin Collection in Houston",
		Body:     fmt.Sprintf("Tomorrow's collection: Blue (test #%03d)", i),
		Location: "Houston",
	}
} // func mkReminder(i int) *objects.ReminderRequest

func init() {
	items = make([]*objects.ReminderRequest, itemCnt)

	for i := range items {
		items[i] = mkReminder(i)
	}
}

func TestSubmit(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	for _, r := range items {
		var err error

		if err = db.Submit(r); err != nil {
			t.Fatalf("Cannot submit reminder %s: %s",
				r.UUID,
				err.Error())
		} else if r.ID == 0 {
			t.Errorf("ID of reminder %s is 0", r.UUID)
		}
	}

	if cnt, err := db.ReminderCountPending(); err != nil {
		t.Fatalf("Cannot count pending reminders: %s", err.Error())
	} else if cnt != itemCnt {
		t.Errorf("Unexpected number of pending reminders: %d (expected %d)",
			cnt,
			itemCnt)
	}
} // func TestSubmit(t *testing.T)

func TestGetPending(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err  error
		list []objects.ReminderRequest
	)

	if list, err = db.ReminderGetPending(); err != nil {
		t.Fatalf("Cannot load pending reminders: %s", err.Error())
	} else if len(list) != itemCnt {
		t.Fatalf("Unexpected number of pending reminders: %d (expected %d)",
			len(list),
			itemCnt)
	}

	for i := 1; i < len(list); i++ {
		if list[i].FireAt.Before(list[i-1].FireAt) {
			t.Errorf("Reminders are not ordered by due time at index %d", i)
		}
	}

	if list, err = db.ReminderGetDue(now.Add(-time.Hour)); err != nil {
		t.Fatalf("Cannot load due reminders: %s", err.Error())
	} else if len(list) != 0 {
		t.Errorf("%d reminders are due an hour ago", len(list))
	}

	if list, err = db.ReminderGetDue(now.Add(maxOffset * 2)); err != nil {
		t.Fatalf("Cannot load due reminders: %s", err.Error())
	} else if len(list) != itemCnt {
		t.Errorf("Expected %d due reminders, got %d", itemCnt, len(list))
	}
} // func TestGetPending(t *testing.T)

func TestSetFired(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	for _, r := range items[:firedCnt] {
		var (
			err error
			rem *objects.ReminderRequest
		)

		if err = db.ReminderSetFired(r); err != nil {
			t.Errorf("Cannot mark reminder %s as fired: %s",
				r.UUID,
				err.Error())
		} else if !r.Fired {
			t.Errorf("Reminder %s should be marked as fired", r.UUID)
		} else if rem, err = db.ReminderGetByUUID(r.UUID); err != nil {
			t.Errorf("Cannot look up reminder %s: %s", r.UUID, err.Error())
		} else if rem == nil {
			t.Errorf("Reminder %s was not found", r.UUID)
		} else if !rem.Fired || rem.ID != r.ID || rem.FireAt.Unix() != r.FireAt.Unix() {
			t.Errorf("Unexpected reminder from database: %s", rem)
		}
	}

	if cnt, err := db.ReminderCountPending(); err != nil {
		t.Fatalf("Cannot count pending reminders: %s", err.Error())
	} else if cnt != itemCnt-firedCnt {
		t.Errorf("Unexpected number of pending reminders: %d (expected %d)",
			cnt,
			itemCnt-firedCnt)
	}

	if rem, err := db.ReminderGetByUUID(common.GetUUID()); err != nil {
		t.Errorf("Looking up an unknown reminder failed: %s", err.Error())
	} else if rem != nil {
		t.Errorf("Found a reminder that does not exist: %s", rem)
	}
} // func TestSetFired(t *testing.T)

func TestQueueFull(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err     error
		pending = itemCnt - firedCnt
	)

	for i := pending; i < MaxPending; i++ {
		if err = db.Submit(mkReminder(i)); err != nil {
			t.Fatalf("Cannot submit reminder #%d: %s", i, err.Error())
		}
	}

	var r = mkReminder(MaxPending)

	if err = db.Submit(r); err == nil {
		t.Fatal("Submit should fail when the queue is full")
	} else if !errors.Is(err, ErrQueueFull) {
		t.Errorf("Unexpected error: %s", err.Error())
	} else if rem, _ := db.ReminderGetByUUID(r.UUID); rem != nil {
		t.Errorf("Rejected reminder was stored: %s", rem)
	}
} // func TestQueueFull(t *testing.T)

func TestClearPending(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var err error

	if err = db.ClearPending(); err != nil {
		t.Fatalf("Cannot clear pending reminders: %s", err.Error())
	} else if cnt, _ := db.ReminderCountPending(); cnt != 0 {
		t.Errorf("%d reminders are still pending", cnt)
	} else if rem, _ := db.ReminderGetByUUID(items[0].UUID); rem == nil {
		t.Error("Reminders that went off should not be cleared")
	}

	// Once cleared, there is room again.
	if err = db.Submit(mkReminder(0)); err != nil {
		t.Errorf("Cannot submit reminder after clearing: %s", err.Error())
	}
} // func TestClearPending(t *testing.T)

func TestPurgeFired(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err error
		cnt int64
	)

	if cnt, err = db.ReminderPurgeFired(now.Add(maxOffset * 2)); err != nil {
		t.Fatalf("Cannot purge reminders: %s", err.Error())
	} else if cnt != firedCnt {
		t.Errorf("Purged %d reminders, expected %d", cnt, firedCnt)
	} else if pending, _ := db.ReminderCountPending(); pending != 1 {
		t.Errorf("Purge removed pending reminders, %d left", pending)
	}
} // func TestPurgeFired(t *testing.T)
