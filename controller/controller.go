// /home/krylon/go/src/github.com/blicero/binsched/controller/controller.go
// -*- mode: go; coding: utf-8; -*-
// Created on 08. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-16 11:42:19 krylon>

// Package controller owns the collection schedule for the selected
// location. It loads the schedule from the cache, keeps it in sync with
// the server, and keeps the pending reminders up to date.
package controller

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/blicero/binsched/common"
	"github.com/blicero/binsched/logdomain"
	"github.com/blicero/binsched/objects"
	"github.com/blicero/binsched/objects/state"
	"github.com/blicero/binsched/parser"
	"github.com/blicero/binsched/settings"
	"github.com/jmhodges/clock"
)

// DefaultUpcomingLimit is the number of events UpcomingCollections returns
// if the caller does not ask for a specific number.
const DefaultUpcomingLimit = 4

const cmdQueueDepth = 8

// Cache persists the last known schedule per location.
type Cache interface {
	Save(location string, events []objects.CollectionEvent) error
	Load(location string) ([]objects.CollectionEvent, bool)
}

// Fetcher retrieves the raw schedule document for a location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Reconciler brings the pending reminders in line with a schedule.
type Reconciler interface {
	Reconcile(events []objects.CollectionEvent, location string, tod objects.TimeOfDay) (int, error)
	Clear() error
}

// Config is the initial configuration of a Controller.
// If Settings is not nil, the Controller follows the changes sent on it.
type Config struct {
	Location     string
	ReminderTime objects.TimeOfDay
	Clock        clock.Clock
	Settings     <-chan settings.Change
}

// Update is sent to subscribers whenever the schedule or the state of the
// Controller changes.
type Update struct {
	Location string
	State    state.State
	Events   []objects.CollectionEvent
}

type cmdKind uint8

const (
	cmdRefresh cmdKind = iota
	cmdChangeLocation
	cmdSetReminderTime
)

type command struct {
	kind     cmdKind
	location string
	tod      objects.TimeOfDay
}

type fetchResult struct {
	location string
	raw      []byte
	err      error
}

// Controller coordinates the cache, the fetcher, the parser, and the
// reminder scheduler. All modifications of its state happen on a single
// goroutine. The query methods may be called from anywhere.
type Controller struct {
	log      *log.Logger
	cache    Cache
	fetcher  Fetcher
	sched    Reconciler
	clk      clock.Clock
	settings <-chan settings.Change

	lock     sync.RWMutex
	location string
	tod      objects.TimeOfDay
	st       state.State
	events   []objects.CollectionEvent
	lastSync time.Time

	cmdQ   chan command
	resQ   chan fetchResult
	stop   chan struct{}
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	subLock sync.Mutex
	subs    map[int]chan Update
	subSeq  int

	// called on the loop goroutine after a fetch result has been handled
	resultHook func(location string, applied bool)
}

// New creates a Controller for the configured location. The cached
// schedule, if any, is available when New returns. A fetch from the
// server is started in the background.
func New(cfg Config, cache Cache, f Fetcher, r Reconciler) (*Controller, error) {
	var (
		err error
		c   *Controller
	)

	if c, err = newController(cfg, cache, f, r); err != nil {
		return nil, err
	}

	c.start()
	return c, nil
} // func New(cfg Config, cache Cache, f Fetcher, r Reconciler) (*Controller, error)

func newController(cfg Config, cache Cache, f Fetcher, r Reconciler) (*Controller, error) {
	var (
		err error
		c   = &Controller{
			cache:    cache,
			fetcher:  f,
			sched:    r,
			clk:      cfg.Clock,
			settings: cfg.Settings,
			tod:      cfg.ReminderTime,
			cmdQ:     make(chan command, cmdQueueDepth),
			resQ:     make(chan fetchResult),
			stop:     make(chan struct{}),
			done:     make(chan struct{}),
			subs:     make(map[int]chan Update),
		}
	)

	if c.log, err = common.GetLogger(logdomain.Controller); err != nil {
		return nil, err
	} else if c.clk == nil {
		c.clk = clock.New()
	}

	if !c.tod.Valid() {
		c.log.Printf("[WARN] Invalid reminder time %s, using default %s\n",
			c.tod,
			objects.DefaultReminderTime)
		c.tod = objects.DefaultReminderTime
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.load(strings.TrimSpace(cfg.Location))

	return c, nil
} // func newController(...) (*Controller, error)

func (c *Controller) start() {
	c.startFetch()
	go c.loop()
} // func (c *Controller) start()

// Close stops the Controller. Fetches still in flight are cancelled and
// their results are dropped. Subscriber channels are closed.
func (c *Controller) Close() {
	c.once.Do(func() {
		c.cancel()
		close(c.stop)
		<-c.done

		c.subLock.Lock()
		for id, ch := range c.subs {
			close(ch)
			delete(c.subs, id)
		}
		c.subLock.Unlock()
	})
} // func (c *Controller) Close()

///////////////////////////////////////////////////////////////////////////
// Queries ////////////////////////////////////////////////////////////////
///////////////////////////////////////////////////////////////////////////

// Location returns the location the Controller currently serves. The
// empty string means no location is selected.
func (c *Controller) Location() string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.location
} // func (c *Controller) Location() string

// State returns the current phase of the load pipeline.
func (c *Controller) State() state.State {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.st
} // func (c *Controller) State() state.State

// ReminderTime returns the time of day reminders are scheduled for.
func (c *Controller) ReminderTime() objects.TimeOfDay {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.tod
} // func (c *Controller) ReminderTime() objects.TimeOfDay

// LastSync returns the time of the last successful fetch, or the zero
// time if there has been none.
func (c *Controller) LastSync() time.Time {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.lastSync
} // func (c *Controller) LastSync() time.Time

// Events returns a copy of the current schedule.
func (c *Controller) Events() []objects.CollectionEvent {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return copyEvents(c.events)
} // func (c *Controller) Events() []objects.CollectionEvent

// UpcomingCollections returns up to limit events that fall on the same
// calendar day as ref or later, in ascending order. If limit is not
// positive, DefaultUpcomingLimit is used.
func (c *Controller) UpcomingCollections(ref time.Time, limit int) []objects.CollectionEvent {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}

	c.lock.RLock()
	defer c.lock.RUnlock()

	return copyEvents(objects.Upcoming(c.events, ref, limit))
} // func (c *Controller) UpcomingCollections(ref time.Time, limit int) []objects.CollectionEvent

// Upcoming is like UpcomingCollections, relative to the current time.
func (c *Controller) Upcoming(limit int) []objects.CollectionEvent {
	return c.UpcomingCollections(c.clk.Now(), limit)
} // func (c *Controller) Upcoming(limit int) []objects.CollectionEvent

func copyEvents(src []objects.CollectionEvent) []objects.CollectionEvent {
	var dst = make([]objects.CollectionEvent, len(src))

	for i, ev := range src {
		dst[i] = ev
		dst[i].Bins = make([]objects.BinCategory, len(ev.Bins))
		copy(dst[i].Bins, ev.Bins)
	}

	return dst
} // func copyEvents(src []objects.CollectionEvent) []objects.CollectionEvent

///////////////////////////////////////////////////////////////////////////
// Subscriptions //////////////////////////////////////////////////////////
///////////////////////////////////////////////////////////////////////////

// Subscribe returns a channel on which the Controller sends an Update
// whenever its state changes, and a function to cancel the subscription.
// A subscriber that does not keep up only sees the most recent Update.
func (c *Controller) Subscribe() (<-chan Update, func()) {
	var ch = make(chan Update, 1)

	c.subLock.Lock()
	var id = c.subSeq
	c.subSeq++
	c.subs[id] = ch
	c.subLock.Unlock()

	var cancel = func() {
		c.subLock.Lock()
		defer c.subLock.Unlock()
		if s, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(s)
		}
	}

	return ch, cancel
} // func (c *Controller) Subscribe() (<-chan Update, func())

func (c *Controller) publish() {
	var u Update

	c.lock.RLock()
	u.Location = c.location
	u.State = c.st
	u.Events = copyEvents(c.events)
	c.lock.RUnlock()

	c.subLock.Lock()
	defer c.subLock.Unlock()

	for _, ch := range c.subs {
		select {
		case ch <- u:
		default:
			// Replace the stale update nobody has picked up yet.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- u:
			default:
			}
		}
	}
} // func (c *Controller) publish()

///////////////////////////////////////////////////////////////////////////
// Requests ///////////////////////////////////////////////////////////////
///////////////////////////////////////////////////////////////////////////

func (c *Controller) submit(cmd command) {
	select {
	case c.cmdQ <- cmd:
	case <-c.stop:
		c.log.Printf("[DEBUG] Controller is closed, dropping request %d\n",
			cmd.kind)
	}
} // func (c *Controller) submit(cmd command)

// Refresh asks the Controller to fetch the schedule from the server again.
func (c *Controller) Refresh() {
	c.submit(command{kind: cmdRefresh})
} // func (c *Controller) Refresh()

// ChangeLocation switches the Controller to a different location. All
// schedule data and pending reminders of the previous location are
// dropped. The previous location's cache is left alone. An empty location
// leaves the Controller without a location.
func (c *Controller) ChangeLocation(loc string) {
	c.submit(command{kind: cmdChangeLocation, location: strings.TrimSpace(loc)})
} // func (c *Controller) ChangeLocation(loc string)

// SetReminderTime changes the time of day reminders go off and schedules
// the reminders anew for the current schedule.
func (c *Controller) SetReminderTime(tod objects.TimeOfDay) {
	c.submit(command{kind: cmdSetReminderTime, tod: tod})
} // func (c *Controller) SetReminderTime(tod objects.TimeOfDay)

///////////////////////////////////////////////////////////////////////////
// Loop ///////////////////////////////////////////////////////////////////
///////////////////////////////////////////////////////////////////////////

func (c *Controller) loop() {
	defer close(c.done)

	c.log.Printf("[DEBUG] Controller loop for %q starting\n", c.Location())

	for {
		select {
		case <-c.stop:
			c.log.Println("[DEBUG] Controller loop is quitting")
			return
		case cmd := <-c.cmdQ:
			c.handleCommand(cmd)
		case res := <-c.resQ:
			var applied = c.handleResult(res)
			if c.resultHook != nil {
				c.resultHook(res.location, applied)
			}
		case chg, ok := <-c.settings:
			if !ok {
				c.log.Println("[INFO] Settings channel was closed")
				c.settings = nil
				continue
			}
			c.handleSettings(chg)
		}
	}
} // func (c *Controller) loop()

func (c *Controller) handleCommand(cmd command) {
	switch cmd.kind {
	case cmdRefresh:
		c.startFetch()
	case cmdChangeLocation:
		c.changeLocation(cmd.location)
	case cmdSetReminderTime:
		c.setReminderTime(cmd.tod)
	default:
		c.log.Printf("[CRITICAL] Invalid command kind %d\n", cmd.kind)
	}
} // func (c *Controller) handleCommand(cmd command)

func (c *Controller) handleSettings(chg settings.Change) {
	c.log.Printf("[DEBUG] Settings changed: %s\n", chg.Kind)

	switch chg.Kind {
	case settings.LocationChanged:
		c.changeLocation(strings.TrimSpace(chg.Location))
	case settings.LocationCleared:
		c.changeLocation("")
	case settings.ReminderTimeChanged:
		c.setReminderTime(chg.ReminderTime)
	}
} // func (c *Controller) handleSettings(chg settings.Change)

// load resets the state for the given location and restores the cached
// schedule, if there is one.
func (c *Controller) load(loc string) {
	var (
		events []objects.CollectionEvent
		ok     bool
	)

	if loc != "" {
		events, ok = c.cache.Load(loc)
	}

	c.lock.Lock()
	c.location = loc
	c.lastSync = time.Time{}
	if ok {
		c.events = events
		c.st = state.CacheLoaded
	} else {
		c.events = nil
		c.st = state.Uninitialized
	}
	c.lock.Unlock()

	if ok {
		c.log.Printf("[INFO] Loaded %d events for %s from cache\n",
			len(events),
			loc)
	}
} // func (c *Controller) load(loc string)

func (c *Controller) startFetch() {
	var loc = c.Location()

	if loc == "" {
		c.log.Println("[DEBUG] No location is selected, not fetching anything")
		return
	}

	c.lock.Lock()
	c.st = state.Syncing
	c.lock.Unlock()

	c.log.Printf("[TRACE] Fetch schedule for %s\n", loc)

	go c.fetch(loc)
	c.publish()
} // func (c *Controller) startFetch()

// fetch runs on its own goroutine and must not touch the Controller's
// state.
func (c *Controller) fetch(loc string) {
	var res = fetchResult{location: loc}

	res.raw, res.err = c.fetcher.Fetch(c.ctx, loc)

	select {
	case c.resQ <- res:
	case <-c.stop:
	}
} // func (c *Controller) fetch(loc string)

// handleResult applies a fetch result to the state. It returns true if
// the result was for the current location.
func (c *Controller) handleResult(res fetchResult) bool {
	var (
		err     error
		events  []objects.CollectionEvent
		skipped []*parser.EntryError
	)

	if cur := c.Location(); cur != res.location {
		c.log.Printf("[INFO] Discard schedule for %s, current location is %q\n",
			res.location,
			cur)
		return false
	} else if res.err != nil {
		c.log.Printf("[ERROR] %s\n", res.err.Error())
		c.setState(state.SyncFailed)
		return true
	} else if events, skipped, err = parser.Parse(res.raw); err != nil {
		c.log.Printf("[ERROR] Cannot parse schedule for %s: %s\n",
			res.location,
			err.Error())
		c.setState(state.SyncFailed)
		return true
	}

	for _, e := range skipped {
		c.log.Printf("[DEBUG] Skipped entry in schedule for %s: %s\n",
			res.location,
			e.Error())
	}

	if len(events) == 0 {
		c.log.Printf("[WARN] Schedule for %s is empty, keeping what we have\n",
			res.location)
		c.setState(state.Synced)
		return true
	}

	c.lock.Lock()
	c.events = events
	c.st = state.Synced
	c.lastSync = c.clk.Now()
	c.lock.Unlock()

	c.log.Printf("[INFO] Received %d events for %s (%d entries skipped)\n",
		len(events),
		res.location,
		len(skipped))

	if err = c.cache.Save(res.location, events); err != nil {
		c.log.Printf("[ERROR] Cannot cache schedule for %s: %s\n",
			res.location,
			err.Error())
	}

	c.reconcile()
	c.publish()
	return true
} // func (c *Controller) handleResult(res fetchResult) bool

func (c *Controller) setState(s state.State) {
	c.lock.Lock()
	c.st = s
	c.lock.Unlock()
	c.publish()
} // func (c *Controller) setState(s state.State)

func (c *Controller) reconcile() {
	var (
		err    error
		cnt    int
		loc    string
		tod    objects.TimeOfDay
		events []objects.CollectionEvent
	)

	c.lock.RLock()
	loc, tod, events = c.location, c.tod, c.events
	c.lock.RUnlock()

	if loc == "" || len(events) == 0 {
		return
	} else if cnt, err = c.sched.Reconcile(events, loc, tod); err != nil {
		c.log.Printf("[ERROR] Cannot schedule reminders for %s: %s\n",
			loc,
			err.Error())
		return
	}

	c.log.Printf("[DEBUG] %d reminders are pending for %s\n", cnt, loc)
} // func (c *Controller) reconcile()

func (c *Controller) changeLocation(loc string) {
	var err error

	c.log.Printf("[INFO] Change location from %q to %q\n",
		c.Location(),
		loc)

	c.lock.Lock()
	c.location = loc
	c.events = nil
	c.st = state.Uninitialized
	c.lock.Unlock()

	if err = c.sched.Clear(); err != nil {
		c.log.Printf("[ERROR] Cannot clear reminders for previous location: %s\n",
			err.Error())
	}

	c.publish()

	if loc == "" {
		return
	}

	c.load(loc)
	c.publish()
	c.startFetch()
} // func (c *Controller) changeLocation(loc string)

func (c *Controller) setReminderTime(tod objects.TimeOfDay) {
	if !tod.Valid() {
		c.log.Printf("[ERROR] Invalid reminder time %02d:%02d\n",
			tod.Hour,
			tod.Minute)
		return
	}

	c.lock.Lock()
	c.tod = tod
	c.lock.Unlock()

	c.log.Printf("[INFO] Reminder time is now %s\n", tod)
	c.reconcile()
} // func (c *Controller) setReminderTime(tod objects.TimeOfDay)
