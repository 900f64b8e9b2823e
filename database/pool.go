// /home/krylon/go/src/github.com/blicero/binsched/database/pool.go
// -*- mode: go; coding: utf-8; -*-
// Created on 11. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-15 18:30:12 krylon>

package database

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/blicero/binsched/common"
	"github.com/blicero/binsched/logdomain"
	"github.com/blicero/binsched/objects"
)

// ErrPoolEmpty is returned by GetNoWait if no connection is available.
var ErrPoolEmpty = errors.New("Database pool is empty")

// Pool is a pool of database connections that can be shared between
// goroutines.
type Pool struct {
	cnt  int
	path string
	log  *log.Logger
	lock sync.Mutex
	link chan *Database
}

// NewPool creates a Pool of cnt connections to the database at path.
// An empty path means common.DbPath.
func NewPool(path string, cnt int) (*Pool, error) {
	var (
		err  error
		pool = &Pool{
			cnt:  cnt,
			path: path,
			link: make(chan *Database, cnt),
		}
	)

	if cnt < 1 {
		return nil, fmt.Errorf("Invalid pool size %d", cnt)
	} else if pool.path == "" {
		pool.path = common.DbPath
	}

	if pool.log, err = common.GetLogger(logdomain.Database); err != nil {
		return nil, err
	}

	for i := 0; i < cnt; i++ {
		var db *Database

		if db, err = Open(pool.path); err != nil {
			pool.log.Printf("[ERROR] Cannot open database connection #%d: %s\n",
				i,
				err.Error())
			pool.Close() // nolint: errcheck
			return nil, err
		}

		pool.link <- db
	}

	return pool, nil
} // func NewPool(path string, cnt int) (*Pool, error)

// Close closes all connections currently in the Pool. Connections that
// are checked out are not affected.
func (pool *Pool) Close() error {
	pool.lock.Lock()
	defer pool.lock.Unlock()

	for {
		select {
		case db := <-pool.link:
			if err := db.Close(); err != nil {
				pool.log.Printf("[ERROR] Cannot close database connection: %s\n",
					err.Error())
			}
		default:
			return nil
		}
	}
} // func (pool *Pool) Close() error

// Get fetches a connection from the Pool, blocking until one is
// available.
func (pool *Pool) Get() *Database {
	return <-pool.link
} // func (pool *Pool) Get() *Database

// GetNoWait fetches a connection from the Pool if one is available.
func (pool *Pool) GetNoWait() (*Database, error) {
	select {
	case db := <-pool.link:
		return db, nil
	default:
		return nil, ErrPoolEmpty
	}
} // func (pool *Pool) GetNoWait() (*Database, error)

// Put returns a connection to the Pool.
func (pool *Pool) Put(db *Database) {
	pool.link <- db
} // func (pool *Pool) Put(db *Database)

// IsEmpty returns true if no connection is available right now.
func (pool *Pool) IsEmpty() bool {
	return len(pool.link) == 0
} // func (pool *Pool) IsEmpty() bool

// Submit adds a reminder to the queue using a connection from the Pool.
func (pool *Pool) Submit(r *objects.ReminderRequest) error {
	var db = pool.Get()
	defer pool.Put(db)

	return db.Submit(r)
} // func (pool *Pool) Submit(r *objects.ReminderRequest) error

// ClearPending removes all pending reminders using a connection from the
// Pool.
func (pool *Pool) ClearPending() error {
	var db = pool.Get()
	defer pool.Put(db)

	return db.ClearPending()
} // func (pool *Pool) ClearPending() error
