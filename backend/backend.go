// /home/krylon/go/src/github.com/blicero/binsched/backend/backend.go
// -*- mode: go; coding: utf-8; -*-
// Created on 11. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-16 14:02:37 krylon>

// Package backend implements the ... backend of the application,
// the part that hands due reminders to the desktop and answers
// requests from local clients.
package backend

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/blicero/binsched/common"
	"github.com/blicero/binsched/database"
	"github.com/blicero/binsched/logdomain"
	"github.com/blicero/binsched/objects"
	"github.com/blicero/binsched/objects/state"
	"github.com/blicero/binsched/settings"
	"github.com/gorilla/mux"
	"github.com/jmhodges/clock"
)

const (
	queueDepth    = 5
	queueTimeout  = time.Second * 2
	purgeInterval = time.Hour * 24
	purgeAge      = time.Hour * 24 * 7
)

// Schedule is the view of the collection schedule the Daemon serves to
// clients.
type Schedule interface {
	Location() string
	State() state.State
	Events() []objects.CollectionEvent
	UpcomingCollections(ref time.Time, limit int) []objects.CollectionEvent
	LastSync() time.Time
	ReminderTime() objects.TimeOfDay
	Refresh()
}

// Poster displays a Notification to the user.
type Poster interface {
	Post(n objects.Notification) error
}

// Daemon is the centerpiece of the backend, coordinating between the database, the clients, etc.
type Daemon struct {
	log        *log.Logger
	pool       *database.Pool
	sched      Schedule
	settings   *settings.Store
	poster     Poster
	clk        clock.Clock
	lock       sync.RWMutex
	active     bool
	lastPurge  time.Time
	sendWait   time.Duration
	Queue      chan objects.Notification
	web        http.Server
	router     *mux.Router
	listenAddr string
	idLock     sync.Mutex
	idCnt      int64
}

// Summon summons a Daemon and returns it. No sacrifice or idolatry is required.
func Summon(addr string, s Schedule, st *settings.Store, pool *database.Pool, p Poster) (*Daemon, error) {
	var (
		err error
		d   *Daemon
	)

	if d, err = newDaemon(addr, s, st, pool, p, nil); err != nil {
		return nil, err
	}

	go d.notifyLoop()
	go d.dbLoop()
	go d.serveHTTP()

	return d, nil
} // func Summon(...) (*Daemon, error)

func newDaemon(addr string, s Schedule, st *settings.Store, pool *database.Pool, p Poster, clk clock.Clock) (*Daemon, error) {
	var (
		err error
		d   = &Daemon{
			listenAddr: addr,
			active:     true,
			pool:       pool,
			sched:      s,
			settings:   st,
			poster:     p,
			clk:        clk,
			Queue:      make(chan objects.Notification, queueDepth),
			sendWait:   queueTimeout,
			router:     mux.NewRouter(),
		}
	)

	if d.clk == nil {
		d.clk = clock.New()
	}

	if d.log, err = common.GetLogger(logdomain.Backend); err != nil {
		fmt.Printf("ERROR initializing Logger: %s\n",
			err.Error())
		return nil, err
	}

	d.web.Addr = addr
	d.web.ErrorLog = d.log
	d.web.Handler = d.router

	if err = d.initWebHandlers(); err != nil {
		d.log.Printf("[ERROR] Failed to initialize web server: %s\n",
			err.Error())
		return nil, err
	}

	return d, nil
} // func newDaemon(...) (*Daemon, error)

// IsAlive returns true if the Daemon's active flag is set.
func (d *Daemon) IsAlive() bool {
	d.lock.RLock()
	var alive = d.active
	d.lock.RUnlock()

	return alive
} // func (d *Daemon) IsAlive() bool

// Banish clears the Daemon's active flag, telling components to shut down.
func (d *Daemon) Banish() error {
	var (
		err         error
		ctx, cancel = context.WithTimeout(context.Background(), time.Second*3)
	)
	defer cancel()

	if err = d.web.Shutdown(ctx); err != nil {
		d.log.Printf("[ERROR] Failed to shutdown web server: %s\n",
			err.Error())
	}

	if ctx.Err() != nil {
		err = ctx.Err()
		d.log.Printf("[ERROR] Failed to gracefully shut down web server: %s\n",
			ctx.Err().Error())
		d.web.Close() // nolint: errcheck
	}

	d.lock.Lock()
	d.active = false
	d.lock.Unlock()
	return err
} // func (d *Daemon) Banish() error

func (d *Daemon) notifyLoop() {
	defer d.log.Println("[TRACE] Quitting notifyLoop")

	var tick = time.NewTicker(queueTimeout)
	defer tick.Stop()

	for d.IsAlive() {
		select {
		case <-tick.C:
			continue
		case m := <-d.Queue:
			d.notify(m) // nolint: errcheck
		}
	}
} // func (d *Daemon) notifyLoop()

func (d *Daemon) notify(n objects.Notification) error {
	var (
		err         error
		title, body = n.Payload()
	)

	d.log.Printf("[DEBUG] Received Notification due %s: %s\n%s\n",
		n.Due().In(common.ReferenceZone).Format(common.TimestampFormatMinute),
		title,
		body)

	if err = d.poster.Post(n); err != nil {
		d.log.Printf("[ERROR] Failed to post Notification %q: %s\n",
			title,
			err.Error())
		return err
	}

	return nil
} // func (d *Daemon) notify(n objects.Notification) error

func (d *Daemon) dbLoop() {
	defer d.log.Println("[TRACE] dbLoop is shutting down")

	var ticker = time.NewTicker(queueTimeout)
	defer ticker.Stop()

	for d.IsAlive() {
		var err error
		<-ticker.C

		if err = d.dbCheck(); err != nil {
			d.log.Printf("[ERROR] Failed to get Reminders from Database: %s\n",
				err.Error())
		}
	}
} // func (d *Daemon) dbLoop()

// dbCheck moves reminders that are due from the database to the Queue.
// A reminder is marked as fired once it has been queued. If the Queue
// stays full, or the Daemon is shutting down, the remaining reminders are
// left pending for the next round.
func (d *Daemon) dbCheck() error {
	var (
		err       error
		db        *database.Database
		reminders []objects.ReminderRequest
		now       = d.clk.Now()
	)

	db = d.pool.Get()
	defer d.pool.Put(db)

	if reminders, err = db.ReminderGetDue(now); err != nil {
		d.log.Printf("[ERROR] Cannot get due Reminders from Database: %s\n",
			err.Error())
		return err
	}

QUEUE:
	for idx := range reminders {
		var r = &reminders[idx]

		if !d.IsAlive() {
			break QUEUE
		}

		select {
		case d.Queue <- r:
		case <-time.After(d.sendWait):
			d.log.Printf("[WARN] Notification queue is full, %d reminders stay pending\n",
				len(reminders)-idx)
			break QUEUE
		}

		if err = db.ReminderSetFired(r); err != nil {
			d.log.Printf("[ERROR] Cannot mark Reminder %s as fired: %s\n",
				r.UUID,
				err.Error())
		}
	}

	if now.Sub(d.lastPurge) >= purgeInterval {
		var cnt int64

		if cnt, err = db.ReminderPurgeFired(now.Add(-purgeAge)); err != nil {
			d.log.Printf("[ERROR] Cannot purge old Reminders: %s\n",
				err.Error())
			return err
		}

		d.lastPurge = now
		d.log.Printf("[DEBUG] Purged %d old Reminders\n", cnt)
	}

	return nil
} // func (d *Daemon) dbCheck() error
