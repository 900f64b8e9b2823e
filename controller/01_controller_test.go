// /home/krylon/go/src/github.com/blicero/binsched/controller/01_controller_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 09. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-16 12:20:07 krylon>

package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/blicero/binsched/common"
	"github.com/blicero/binsched/objects"
	"github.com/blicero/binsched/objects/state"
	"github.com/blicero/binsched/settings"
	"github.com/jmhodges/clock"
)

const timeout = time.Second * 5

func TestMain(m *testing.M) {
	var (
		err     error
		result  int
		baseDir = filepath.Join(
			os.TempDir(),
			fmt.Sprintf("binsched_controller_test_%s",
				time.Now().Format("20060102_150405")))
	)

	if err = common.SetBaseDir(baseDir); err != nil {
		fmt.Printf("Cannot set base directory to %s: %s\n",
			baseDir,
			err.Error())
		os.Exit(1)
	} else if result = m.Run(); result == 0 {
		os.RemoveAll(baseDir) // nolint: errcheck
	}

	os.Exit(result)
} // func TestMain(m *testing.M)

///////////////////////////////////////////////////////////////////////////
// Fakes //////////////////////////////////////////////////////////////////
///////////////////////////////////////////////////////////////////////////

type fakeCache struct {
	lock  sync.Mutex
	data  map[string][]objects.CollectionEvent
	saved []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]objects.CollectionEvent)}
} // func newFakeCache() *fakeCache

func (f *fakeCache) Save(loc string, events []objects.CollectionEvent) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.data[loc] = events
	f.saved = append(f.saved, loc)
	return nil
} // func (f *fakeCache) Save(loc string, events []objects.CollectionEvent) error

func (f *fakeCache) Load(loc string) ([]objects.CollectionEvent, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	var events, ok = f.data[loc]
	return events, ok
} // func (f *fakeCache) Load(loc string) ([]objects.CollectionEvent, bool)

func (f *fakeCache) savedLocations() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.saved...)
} // func (f *fakeCache) savedLocations() []string

type fakeFetcher struct {
	lock  sync.Mutex
	docs  map[string]string
	gates map[string]chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		docs:  make(map[string]string),
		gates: make(map[string]chan struct{}),
	}
} // func newFakeFetcher() *fakeFetcher

func (f *fakeFetcher) gate(loc string) chan struct{} {
	f.lock.Lock()
	defer f.lock.Unlock()
	var g = make(chan struct{})
	f.gates[loc] = g
	return g
} // func (f *fakeFetcher) gate(loc string) chan struct{}

func (f *fakeFetcher) Fetch(ctx context.Context, loc string) ([]byte, error) {
	f.lock.Lock()
	var (
		g       = f.gates[loc]
		doc, ok = f.docs[loc]
	)
	f.lock.Unlock()

	if g != nil {
		select {
		case <-g:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if !ok {
		return nil, fmt.Errorf("no schedule for %s", loc)
	}

	return []byte(doc), nil
} // func (f *fakeFetcher) Fetch(ctx context.Context, loc string) ([]byte, error)

type reconcileCall struct {
	location string
	tod      objects.TimeOfDay
	events   int
}

type fakeReconciler struct {
	calls  chan reconcileCall
	clears chan struct{}
}

func newFakeReconciler() *fakeReconciler {
	return &fakeReconciler{
		calls:  make(chan reconcileCall, 16),
		clears: make(chan struct{}, 16),
	}
} // func newFakeReconciler() *fakeReconciler

func (f *fakeReconciler) Reconcile(events []objects.CollectionEvent, loc string, tod objects.TimeOfDay) (int, error) {
	f.calls <- reconcileCall{location: loc, tod: tod, events: len(events)}
	return len(events), nil
} // func (f *fakeReconciler) Reconcile(...) (int, error)

func (f *fakeReconciler) Clear() error {
	f.clears <- struct{}{}
	return nil
} // func (f *fakeReconciler) Clear() error

type outcome struct {
	location string
	applied  bool
}

type fixture struct {
	cache   *fakeCache
	fetcher *fakeFetcher
	sched   *fakeReconciler
	results chan outcome
}

func newFixture() *fixture {
	return &fixture{
		cache:   newFakeCache(),
		fetcher: newFakeFetcher(),
		sched:   newFakeReconciler(),
		results: make(chan outcome, 16),
	}
} // func newFixture() *fixture

func (fx *fixture) controller(t *testing.T, cfg Config) *Controller {
	t.Helper()

	var (
		err error
		c   *Controller
	)

	if cfg.ReminderTime == (objects.TimeOfDay{}) {
		cfg.ReminderTime = objects.DefaultReminderTime
	}

	if c, err = newController(cfg, fx.cache, fx.fetcher, fx.sched); err != nil {
		t.Fatalf("Cannot create Controller: %s", err.Error())
	}

	c.resultHook = func(loc string, applied bool) {
		fx.results <- outcome{location: loc, applied: applied}
	}

	return c
} // func (fx *fixture) controller(t *testing.T, cfg Config) *Controller

func (fx *fixture) waitResult(t *testing.T) outcome {
	t.Helper()

	select {
	case o := <-fx.results:
		return o
	case <-time.After(timeout):
		t.Fatal("Timed out waiting for fetch result")
	}

	return outcome{}
} // func (fx *fixture) waitResult(t *testing.T) outcome

func (fx *fixture) waitReconcile(t *testing.T) reconcileCall {
	t.Helper()

	select {
	case c := <-fx.sched.calls:
		return c
	case <-time.After(timeout):
		t.Fatal("Timed out waiting for reconciliation")
	}

	return reconcileCall{}
} // func (fx *fixture) waitReconcile(t *testing.T) reconcileCall

func schedule(t *testing.T, days ...string) []objects.CollectionEvent {
	t.Helper()

	var c objects.Collector

	for _, s := range days {
		var day, err = objects.ParseDay(s)
		if err != nil {
			t.Fatalf("Cannot parse day %q: %s", s, err.Error())
		}
		c.Add(day, objects.Grey)
	}

	return c.Events()
} // func schedule(t *testing.T, days ...string) []objects.CollectionEvent

func dates(events []objects.CollectionEvent) string {
	var s = make([]string, len(events))
	for i, e := range events {
		s[i] = objects.FormatDay(e.Date)
	}
	return fmt.Sprint(s)
} // func dates(events []objects.CollectionEvent) string

///////////////////////////////////////////////////////////////////////////
// Tests //////////////////////////////////////////////////////////////////
///////////////////////////////////////////////////////////////////////////

func TestCacheFirst(t *testing.T) {
	var (
		fx     = newFixture()
		cached = schedule(t, "2025-03-03", "2025-03-10")
	)

	fx.cache.data["Houston"] = cached
	fx.fetcher.gate("Houston")

	var c = fx.controller(t, Config{Location: "Houston"})

	if s := c.State(); s != state.CacheLoaded {
		t.Errorf("Expected state %s, got %s", state.CacheLoaded, s)
	} else if d := dates(c.Events()); d != dates(cached) {
		t.Errorf("Expected cached events %s, got %s", dates(cached), d)
	}

	c.start()
	defer c.Close()

	if s := c.State(); s != state.Syncing {
		t.Errorf("Expected state %s once the fetch is started, got %s",
			state.Syncing,
			s)
	} else if d := dates(c.Events()); d != dates(cached) {
		t.Errorf("Cached events are gone during sync: %s", d)
	}
} // func TestCacheFirst(t *testing.T)

func TestColdStart(t *testing.T) {
	var (
		fx = newFixture()
		c  = fx.controller(t, Config{Location: "Houston"})
	)

	if s := c.State(); s != state.Uninitialized {
		t.Errorf("Expected state %s, got %s", state.Uninitialized, s)
	} else if up := c.UpcomingCollections(time.Now(), 4); len(up) != 0 {
		t.Errorf("Expected no upcoming events before first load, got %d", len(up))
	}

	fx.fetcher.docs["Houston"] = `[{"blue": "2025-03-03"}, {"green": "2025-03-03", "grey": "2025-03-10"}]`

	c.start()
	defer c.Close()

	if o := fx.waitResult(t); !o.applied {
		t.Fatal("Fetch result was not applied")
	}

	var events = c.Events()

	if s := c.State(); s != state.Synced {
		t.Errorf("Expected state %s, got %s", state.Synced, s)
	} else if d := dates(events); d != "[2025-03-03 2025-03-10]" {
		t.Errorf("Unexpected events %s", d)
	} else if events[0].BinNames() != "Blue, Green" {
		t.Errorf("Unexpected bins %s", events[0].BinNames())
	} else if saved := fx.cache.savedLocations(); len(saved) != 1 || saved[0] != "Houston" {
		t.Errorf("Schedule was not cached: %v", saved)
	} else if c.LastSync().IsZero() {
		t.Error("LastSync was not set")
	}

	if call := fx.waitReconcile(t); call.location != "Houston" || call.events != 2 {
		t.Errorf("Unexpected reconciliation: %+v", call)
	} else if call.tod != objects.DefaultReminderTime {
		t.Errorf("Reconciled with wrong reminder time %s", call.tod)
	}
} // func TestColdStart(t *testing.T)

func TestEmptyUpdateGuard(t *testing.T) {
	for _, doc := range []string{`[]`, `[{"purple": "2025-03-03"}, {"blue": "yesterday"}]`} {
		var (
			fx     = newFixture()
			cached = schedule(t, "2025-03-03", "2025-03-10", "2025-03-17")
		)

		fx.cache.data["Kilbarchan"] = cached
		fx.fetcher.docs["Kilbarchan"] = doc

		var c = fx.controller(t, Config{Location: "Kilbarchan"})
		c.start()

		if o := fx.waitResult(t); !o.applied {
			t.Errorf("Fetch result for %s was discarded", doc)
		} else if d := dates(c.Events()); d != dates(cached) {
			t.Errorf("Document %s replaced cached events: %s", doc, d)
		} else if s := c.State(); s != state.Synced {
			t.Errorf("Expected state %s, got %s", state.Synced, s)
		} else if saved := fx.cache.savedLocations(); len(saved) != 0 {
			t.Errorf("Empty schedule was cached: %v", saved)
		} else if len(fx.sched.calls) != 0 {
			t.Error("Reminders were reconciled for an empty schedule")
		}

		c.Close()
	}
} // func TestEmptyUpdateGuard(t *testing.T)

func TestFetchFailure(t *testing.T) {
	var (
		fx     = newFixture()
		cached = schedule(t, "2025-03-03")
	)

	fx.cache.data["Langbank"] = cached

	var c = fx.controller(t, Config{Location: "Langbank"})
	c.start()
	defer c.Close()

	if o := fx.waitResult(t); !o.applied {
		t.Fatal("Fetch result was discarded")
	} else if s := c.State(); s != state.SyncFailed {
		t.Errorf("Expected state %s, got %s", state.SyncFailed, s)
	} else if d := dates(c.Events()); d != dates(cached) {
		t.Errorf("Cached events were lost: %s", d)
	}

	// Malformed documents fail the same way.
	fx.fetcher.lock.Lock()
	fx.fetcher.docs["Langbank"] = `{"blue": "2025-03-03"}`
	fx.fetcher.lock.Unlock()

	c.Refresh()

	if o := fx.waitResult(t); !o.applied {
		t.Fatal("Fetch result was discarded")
	} else if s := c.State(); s != state.SyncFailed {
		t.Errorf("Expected state %s, got %s", state.SyncFailed, s)
	} else if d := dates(c.Events()); d != dates(cached) {
		t.Errorf("Cached events were lost: %s", d)
	}
} // func TestFetchFailure(t *testing.T)

func TestStaleFetchDiscard(t *testing.T) {
	var (
		fx = newFixture()
		c  = fx.controller(t, Config{})
		ga = fx.fetcher.gate("Houston")
	)

	fx.fetcher.docs["Houston"] = `[{"blue": "2025-04-01"}]`
	fx.fetcher.docs["Inchinnan"] = `[{"brown": "2025-04-02"}, {"grey": "2025-04-09"}]`

	c.start()
	defer c.Close()

	c.ChangeLocation("Houston")
	c.ChangeLocation("Inchinnan")

	if o := fx.waitResult(t); o.location != "Inchinnan" || !o.applied {
		t.Fatalf("Unexpected outcome %+v", o)
	}

	close(ga)

	if o := fx.waitResult(t); o.location != "Houston" {
		t.Fatalf("Unexpected outcome %+v", o)
	} else if o.applied {
		t.Error("Stale fetch result was applied")
	}

	if loc := c.Location(); loc != "Inchinnan" {
		t.Errorf("Unexpected location %q", loc)
	} else if d := dates(c.Events()); d != "[2025-04-02 2025-04-09]" {
		t.Errorf("Unexpected events %s", d)
	} else if saved := fx.cache.savedLocations(); len(saved) != 1 || saved[0] != "Inchinnan" {
		t.Errorf("Unexpected cache writes %v", saved)
	} else if len(fx.sched.clears) != 2 {
		t.Errorf("Expected 2 calls to Clear, got %d", len(fx.sched.clears))
	}
} // func TestStaleFetchDiscard(t *testing.T)

func TestChangeLocationResets(t *testing.T) {
	var fx = newFixture()

	fx.cache.data["Houston"] = schedule(t, "2025-03-03")
	fx.fetcher.gate("Houston")
	fx.fetcher.gate("Lochwinnoch")

	var (
		c           = fx.controller(t, Config{Location: "Houston"})
		ch, unsub   = c.Subscribe()
		sawReset    bool
		sawNewState bool
	)

	defer unsub()

	c.start()
	defer c.Close()

	c.ChangeLocation("Lochwinnoch")

	var deadline = time.After(timeout)

	for !sawNewState {
		select {
		case u := <-ch:
			if u.Location == "Lochwinnoch" && len(u.Events) == 0 {
				sawReset = true
				sawNewState = u.State == state.Syncing
			}
		case <-deadline:
			t.Fatal("Timed out waiting for location change")
		}
	}

	if !sawReset {
		t.Error("Did not observe reset state")
	} else if _, ok := fx.cache.Load("Houston"); !ok {
		t.Error("Cache of previous location was removed")
	} else if len(fx.sched.clears) != 1 {
		t.Errorf("Expected pending reminders to be cleared once, got %d",
			len(fx.sched.clears))
	}

	c.ChangeLocation("")

	deadline = time.After(timeout)
	for {
		select {
		case u := <-ch:
			if u.Location == "" {
				if u.State != state.Uninitialized || len(u.Events) != 0 {
					t.Errorf("Unexpected state without location: %s, %d events",
						u.State,
						len(u.Events))
				}
				return
			}
		case <-deadline:
			t.Fatal("Timed out waiting for location to be cleared")
		}
	}
} // func TestChangeLocationResets(t *testing.T)

func TestUpcomingCollections(t *testing.T) {
	var fx = newFixture()

	fx.cache.data["Houston"] = schedule(t, "2025-02-24", "2025-03-03", "2025-03-10")

	var (
		c   = fx.controller(t, Config{Location: "Houston"})
		ref = time.Date(2025, 3, 3, 0, 0, 0, 0, common.ReferenceZone)
		up  = c.UpcomingCollections(ref, 0)
	)

	if d := dates(up); d != "[2025-03-03 2025-03-10]" {
		t.Errorf("Unexpected upcoming events %s", d)
	}

	if up = c.UpcomingCollections(ref, 1); len(up) != 1 {
		t.Errorf("Limit was ignored, got %d events", len(up))
	}

	var clk = clock.NewFake()
	clk.Set(time.Date(2025, 3, 4, 9, 0, 0, 0, common.ReferenceZone))
	c.clk = clk

	if d := dates(c.Upcoming(0)); d != "[2025-03-10]" {
		t.Errorf("Unexpected upcoming events relative to clock: %s", d)
	}

	// Callers get copies.
	up = c.UpcomingCollections(ref, 0)
	up[0].Bins[0] = objects.Blue
	if c.Events()[1].Bins[0] != objects.Grey {
		t.Error("Modifying a query result changed the Controller's state")
	}
} // func TestUpcomingCollections(t *testing.T)

func TestReminderTimeChange(t *testing.T) {
	var (
		fx  = newFixture()
		chg = make(chan settings.Change, 4)
		tod = objects.TimeOfDay{Hour: 18, Minute: 45}
	)

	fx.fetcher.docs["Houston"] = `[{"blue": "2025-03-03"}]`

	var c = fx.controller(t, Config{Location: "Houston", Settings: chg})
	c.start()
	defer c.Close()

	fx.waitResult(t)
	fx.waitReconcile(t)

	c.SetReminderTime(tod)

	if call := fx.waitReconcile(t); call.tod != tod {
		t.Errorf("Reconciled with %s, expected %s", call.tod, tod)
	}

	// Nothing but the reminders is touched.
	if saved := fx.cache.savedLocations(); len(saved) != 1 {
		t.Errorf("Reminder time change wrote the cache: %v", saved)
	}

	tod = objects.TimeOfDay{Hour: 6, Minute: 5}
	chg <- settings.Change{Kind: settings.ReminderTimeChanged, ReminderTime: tod}

	if call := fx.waitReconcile(t); call.tod != tod {
		t.Errorf("Reconciled with %s, expected %s", call.tod, tod)
	} else if c.ReminderTime() != tod {
		t.Errorf("Reminder time is %s, expected %s", c.ReminderTime(), tod)
	}
} // func TestReminderTimeChange(t *testing.T)

func TestClose(t *testing.T) {
	var (
		fx      = newFixture()
		gate    = fx.fetcher.gate("Houston")
		c       = fx.controller(t, Config{Location: "Houston"})
		ch, _   = c.Subscribe()
		drained = make(chan struct{})
	)

	c.start()

	go func() {
		for range ch {
		}
		close(drained)
	}()

	c.Close()
	c.Close()

	select {
	case <-drained:
	case <-time.After(timeout):
		t.Fatal("Subscriber channel was not closed")
	}

	// Requests after Close are dropped without blocking.
	c.Refresh()
	close(gate)

	if !errors.Is(c.ctx.Err(), context.Canceled) {
		t.Error("Context of in-flight fetches was not cancelled")
	}
} // func TestClose(t *testing.T)
