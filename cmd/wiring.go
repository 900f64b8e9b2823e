// /home/krylon/go/src/github.com/blicero/binsched/cmd/wiring.go
// -*- mode: go; coding: utf-8; -*-
// Created on 14. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-16 12:31:05 krylon>

package cmd

import (
	"fmt"

	"github.com/blicero/binsched/cache"
	"github.com/blicero/binsched/common"
	"github.com/blicero/binsched/controller"
	"github.com/blicero/binsched/database"
	"github.com/blicero/binsched/fetch"
	"github.com/blicero/binsched/scheduler"
	"github.com/blicero/binsched/settings"
)

const poolSize = 4

// engine bundles the components that keep the schedule and the pending
// reminders in sync.
type engine struct {
	pool *database.Pool
	ctl  *controller.Controller
}

// assemble wires up the cache, the fetcher, the reminder database, the
// scheduler and the controller for the location stored in st.
// If follow is true, the controller tracks later changes of st.
func assemble(st *settings.Store, follow bool) (*engine, error) {
	var (
		err   error
		e     = new(engine)
		store *cache.Store
		cl    *fetch.Client
		sched *scheduler.Scheduler
		cfg   controller.Config
	)

	if store, err = cache.New(""); err != nil {
		return nil, fmt.Errorf("Cannot open cache: %w", err)
	} else if cl, err = fetch.New(st.ScheduleURL()); err != nil {
		return nil, fmt.Errorf("Cannot create fetch client: %w", err)
	} else if e.pool, err = database.NewPool(common.DbPath, poolSize); err != nil {
		return nil, fmt.Errorf("Cannot open reminder database %s: %w",
			common.DbPath,
			err)
	} else if sched, err = scheduler.New(e.pool, nil); err != nil {
		e.pool.Close() // nolint: errcheck
		return nil, fmt.Errorf("Cannot create scheduler: %w", err)
	}

	cfg.Location, _ = st.Location()
	cfg.ReminderTime = st.ReminderTime()

	if follow {
		cfg.Settings = st.Subscribe()
	}

	if e.ctl, err = controller.New(cfg, store, cl, sched); err != nil {
		e.pool.Close() // nolint: errcheck
		return nil, fmt.Errorf("Cannot create controller: %w", err)
	}

	return e, nil
} // func assemble(st *settings.Store, follow bool) (*engine, error)

func (e *engine) Close() {
	e.ctl.Close()
	e.pool.Close() // nolint: errcheck
} // func (e *engine) Close()
