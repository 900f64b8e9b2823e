// /home/krylon/go/src/github.com/blicero/binsched/database/database.go
// -*- mode: go; coding: utf-8; -*-
// Created on 10. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-15 18:27:03 krylon>

// Package database provides the persistence layer of the notification
// queue. Pending reminders are stored in an SQLite database until they
// are due.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/blicero/binsched/common"
	"github.com/blicero/binsched/database/query"
	"github.com/blicero/binsched/logdomain"
	"github.com/blicero/binsched/objects"
	"github.com/blicero/krylib"
	"github.com/mattn/go-sqlite3"
)

// MaxPending is the maximum number of reminders that can be pending at
// any time.
const MaxPending = 64

var (
	openLock sync.Mutex
	idCnt    int64
)

// ErrTxInProgress indicates that an attempt to initiate a transaction failed
// because there is already one in progress.
var ErrTxInProgress = errors.New("A Transaction is already in progress")

// ErrNoTxInProgress indicates that an attempt was made to finish a
// transaction when none was active.
var ErrNoTxInProgress = errors.New("There is no transaction in progress")

// ErrQueueFull is returned by Submit when MaxPending reminders are
// pending already.
var ErrQueueFull = fmt.Errorf("No more than %d reminders may be pending", MaxPending)

const retryDelay = 25 * time.Millisecond

func worthARetry(err error) bool {
	var sqliteErr sqlite3.Error

	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}

	return false
} // func worthARetry(err error) bool

func waitForRetry() {
	time.Sleep(retryDelay)
} // func waitForRetry()

// Database is the storage backend for pending reminders.
//
// It is not safe to share a Database instance between goroutines, use a
// Pool for that.
type Database struct {
	id      int64
	db      *sql.DB
	tx      *sql.Tx
	log     *log.Logger
	path    string
	queries map[query.ID]*sql.Stmt
}

// Open opens a Database. If the database specified by the path does not
// exist, yet, it is created and initialized.
func Open(path string) (*Database, error) {
	var (
		err      error
		dbExists bool
		db       = &Database{
			path:    path,
			queries: make(map[query.ID]*sql.Stmt),
		}
	)

	openLock.Lock()
	defer openLock.Unlock()
	idCnt++
	db.id = idCnt

	if db.log, err = common.GetLogger(logdomain.Database); err != nil {
		return nil, err
	} else if common.Debug {
		db.log.Printf("[DEBUG] Open database %s\n", path)
	}

	var connstring = fmt.Sprintf("%s?_locking=NORMAL&_journal=WAL&_fk=true&_txlock=immediate&recursive_triggers=true",
		path)

	if dbExists, err = krylib.Fexists(path); err != nil {
		db.log.Printf("[ERROR] Failed to check if %s already exists: %s\n",
			path,
			err.Error())
		return nil, err
	} else if db.db, err = sql.Open("sqlite3", connstring); err != nil {
		db.log.Printf("[ERROR] Failed to open %s: %s\n",
			path,
			err.Error())
		return nil, err
	}

	if !dbExists {
		if err = db.initialize(); err != nil {
			var e2 error
			if e2 = db.db.Close(); e2 != nil {
				db.log.Printf("[CRITICAL] Failed to close database: %s\n",
					e2.Error())
				return nil, e2
			} else if e2 = os.Remove(path); e2 != nil {
				db.log.Printf("[CRITICAL] Failed to remove database file %s: %s\n",
					db.path,
					e2.Error())
			}
			return nil, err
		}
		db.log.Printf("[INFO] Database at %s has been initialized\n",
			path)
	}

	return db, nil
} // func Open(path string) (*Database, error)

func (db *Database) initialize() error {
	var (
		err error
		tx  *sql.Tx
	)

	if common.Debug {
		db.log.Printf("[DEBUG] Initialize fresh database at %s\n",
			db.path)
	}

	if tx, err = db.db.Begin(); err != nil {
		db.log.Printf("[ERROR] Cannot begin transaction: %s\n",
			err.Error())
		return err
	}

	for _, q := range initQueries {
		db.log.Printf("[TRACE] Execute init query:\n%s\n",
			q)
		if _, err = tx.Exec(q); err != nil {
			db.log.Printf("[ERROR] Cannot execute init query: %s\n%s\n",
				err.Error(),
				q)
			if rbErr := tx.Rollback(); rbErr != nil {
				db.log.Printf("[CANTHAPPEN] Cannot rollback transaction: %s\n",
					rbErr.Error())
				return rbErr
			}
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		db.log.Printf("[CANTHAPPEN] Failed to commit init transaction: %s\n",
			err.Error())
		return err
	}

	return nil
} // func (db *Database) initialize() error

// Close closes the database.
// If there is a pending transaction, it is rolled back.
func (db *Database) Close() error {
	for key, stmt := range db.queries {
		stmt.Close() // nolint: errcheck
		delete(db.queries, key)
	}

	if db.tx != nil {
		db.tx.Rollback() // nolint: errcheck
		db.tx = nil
	}

	return db.db.Close()
} // func (db *Database) Close() error

func (db *Database) getQuery(id query.ID) (*sql.Stmt, error) {
	var (
		stmt  *sql.Stmt
		found bool
		err   error
	)

	if stmt, found = db.queries[id]; found {
		return stmt, nil
	} else if _, found = dbQueries[id]; !found {
		return nil, fmt.Errorf("Unknown Query %d", id)
	}

	db.log.Printf("[TRACE] Prepare query %s\n", id)

PREPARE_QUERY:
	if stmt, err = db.db.Prepare(dbQueries[id]); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto PREPARE_QUERY
		}

		db.log.Printf("[ERROR] Cannot parse query %s: %s\n%s\n",
			id,
			err.Error(),
			dbQueries[id])
		return nil, err
	}

	db.queries[id] = stmt
	return stmt, nil
} // func (db *Database) getQuery(id query.ID) (*sql.Stmt, error)

// Begin begins an explicit database transaction.
// Only one transaction can be in progress at once, attempting to start one,
// while another transaction is already in progress will yield ErrTxInProgress.
func (db *Database) Begin() error {
	var err error

	db.log.Printf("[DEBUG] Database#%d Begin Transaction\n",
		db.id)

	if db.tx != nil {
		return ErrTxInProgress
	}

BEGIN_TX:
	for db.tx == nil {
		if db.tx, err = db.db.Begin(); err != nil {
			if worthARetry(err) {
				waitForRetry()
				continue BEGIN_TX
			} else {
				db.log.Printf("[ERROR] Failed to start transaction: %s\n",
					err.Error())
				return err
			}
		}
	}

	return nil
} // func (db *Database) Begin() error

// Rollback terminates a pending transaction, undoing any changes to the
// database made during that transaction.
// If no transaction is active, it returns ErrNoTxInProgress
func (db *Database) Rollback() error {
	var err error

	db.log.Printf("[DEBUG] Database#%d Roll back Transaction\n",
		db.id)

	if db.tx == nil {
		return ErrNoTxInProgress
	} else if err = db.tx.Rollback(); err != nil {
		return fmt.Errorf("Cannot roll back database transaction: %s",
			err.Error())
	}

	db.tx = nil
	return nil
} // func (db *Database) Rollback() error

// Commit ends the active transaction, making any changes made during that
// transaction permanent and visible to other connections.
// If no transaction is active, it returns ErrNoTxInProgress
func (db *Database) Commit() error {
	var err error

	db.log.Printf("[DEBUG] Database#%d Commit Transaction\n",
		db.id)

	if db.tx == nil {
		return ErrNoTxInProgress
	} else if err = db.tx.Commit(); err != nil {
		return fmt.Errorf("Cannot commit transaction: %s",
			err.Error())
	}

	db.tx = nil
	return nil
} // func (db *Database) Commit() error

// stmt returns the prepared statement for the query, bound to the active
// transaction, if there is one.
func (db *Database) stmt(id query.ID) (*sql.Stmt, error) {
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(id); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			id,
			err.Error())
		return nil, err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

	return stmt, nil
} // func (db *Database) stmt(id query.ID) (*sql.Stmt, error)

///////////////////////////////////////////////////////////////////////////
// Reminders //////////////////////////////////////////////////////////////
///////////////////////////////////////////////////////////////////////////

// Submit adds a reminder to the queue. If MaxPending reminders are
// pending already, it fails with ErrQueueFull.
func (db *Database) Submit(r *objects.ReminderRequest) (err error) {
	var (
		stmt *sql.Stmt
		res  sql.Result
		cnt  int
		id   int64
	)

	if db.tx == nil {
		if err = db.Begin(); err != nil {
			return err
		}

		defer func() {
			if err != nil {
				db.Rollback() // nolint: errcheck
			} else {
				err = db.Commit()
			}
		}()
	}

	if cnt, err = db.ReminderCountPending(); err != nil {
		return err
	} else if cnt >= MaxPending {
		db.log.Printf("[ERROR] Cannot add reminder %s: %d reminders are pending\n",
			r.UUID,
			cnt)
		return ErrQueueFull
	} else if stmt, err = db.stmt(query.ReminderAdd); err != nil {
		return err
	}

EXEC_QUERY:
	if res, err = stmt.Exec(r.UUID, r.Title, r.Body, r.Location, r.FireAt.Unix()); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		err = fmt.Errorf("Cannot add reminder %s to database: %w",
			r.UUID,
			err)
		db.log.Printf("[ERROR] %s\n", err.Error())
		return err
	} else if id, err = res.LastInsertId(); err != nil {
		db.log.Printf("[ERROR] Cannot get ID of new reminder %s: %s\n",
			r.UUID,
			err.Error())
		return err
	}

	r.ID = id
	return nil
} // func (db *Database) Submit(r *objects.ReminderRequest) (err error)

// ClearPending removes all reminders that have not gone off, yet.
func (db *Database) ClearPending() error {
	var (
		err  error
		stmt *sql.Stmt
		res  sql.Result
		cnt  int64
	)

	if stmt, err = db.stmt(query.ReminderClearPending); err != nil {
		return err
	}

EXEC_QUERY:
	if res, err = stmt.Exec(); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot clear pending reminders: %s\n",
			err.Error())
		return err
	} else if cnt, err = res.RowsAffected(); err != nil {
		db.log.Printf("[ERROR] Cannot get number of deleted reminders: %s\n",
			err.Error())
		return err
	}

	db.log.Printf("[DEBUG] Removed %d pending reminders\n", cnt)
	return nil
} // func (db *Database) ClearPending() error

// ReminderCountPending returns the number of reminders that have not gone
// off, yet.
func (db *Database) ReminderCountPending() (int, error) {
	var (
		err  error
		stmt *sql.Stmt
		cnt  int
	)

	if stmt, err = db.stmt(query.ReminderCountPending); err != nil {
		return 0, err
	}

EXEC_QUERY:
	if err = stmt.QueryRow().Scan(&cnt); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot count pending reminders: %s\n",
			err.Error())
		return 0, err
	}

	return cnt, nil
} // func (db *Database) ReminderCountPending() (int, error)

// ReminderGetPending returns all reminders that have not gone off, yet,
// ordered by the time they are due.
func (db *Database) ReminderGetPending() ([]objects.ReminderRequest, error) {
	return db.reminderList(query.ReminderGetPending)
} // func (db *Database) ReminderGetPending() ([]objects.ReminderRequest, error)

// ReminderGetDue returns all pending reminders that are due at the given
// time.
func (db *Database) ReminderGetDue(now time.Time) ([]objects.ReminderRequest, error) {
	return db.reminderList(query.ReminderGetDue, now.Unix())
} // func (db *Database) ReminderGetDue(now time.Time) ([]objects.ReminderRequest, error)

func (db *Database) reminderList(id query.ID, args ...any) ([]objects.ReminderRequest, error) {
	var (
		err  error
		stmt *sql.Stmt
		rows *sql.Rows
	)

	if stmt, err = db.stmt(id); err != nil {
		return nil, err
	}

EXEC_QUERY:
	if rows, err = stmt.Query(args...); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot query reminders (%s): %s\n",
			id,
			err.Error())
		return nil, err
	}

	defer rows.Close() // nolint: errcheck

	var list = make([]objects.ReminderRequest, 0, MaxPending)

	for rows.Next() {
		var (
			r   objects.ReminderRequest
			due int64
		)

		if err = rows.Scan(&r.ID, &r.UUID, &r.Title, &r.Body, &r.Location, &due); err != nil {
			db.log.Printf("[ERROR] Cannot scan row: %s\n",
				err.Error())
			return nil, err
		}

		r.FireAt = time.Unix(due, 0).In(common.ReferenceZone)
		list = append(list, r)
	}

	return list, rows.Err()
} // func (db *Database) reminderList(id query.ID, args ...any) ([]objects.ReminderRequest, error)

// ReminderGetByUUID looks up a reminder by its UUID. If there is no such
// reminder, it returns nil and no error.
func (db *Database) ReminderGetByUUID(uuid string) (*objects.ReminderRequest, error) {
	var (
		err   error
		stmt  *sql.Stmt
		due   int64
		fired int64
		r     = &objects.ReminderRequest{UUID: uuid}
	)

	if stmt, err = db.stmt(query.ReminderGetByUUID); err != nil {
		return nil, err
	}

EXEC_QUERY:
	if err = stmt.QueryRow(uuid).Scan(&r.ID, &r.Title, &r.Body, &r.Location, &due, &fired); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		} else if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		db.log.Printf("[ERROR] Cannot look up reminder %s: %s\n",
			uuid,
			err.Error())
		return nil, err
	}

	r.FireAt = time.Unix(due, 0).In(common.ReferenceZone)
	r.Fired = fired != 0
	return r, nil
} // func (db *Database) ReminderGetByUUID(uuid string) (*objects.ReminderRequest, error)

// ReminderSetFired marks a reminder as having gone off.
func (db *Database) ReminderSetFired(r *objects.ReminderRequest) error {
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.stmt(query.ReminderSetFired); err != nil {
		return err
	}

EXEC_QUERY:
	if _, err = stmt.Exec(r.ID); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot mark reminder %d (%s) as fired: %s\n",
			r.ID,
			r.UUID,
			err.Error())
		return err
	}

	r.Fired = true
	return nil
} // func (db *Database) ReminderSetFired(r *objects.ReminderRequest) error

// ReminderPurgeFired deletes reminders that went off before the given
// time. It returns the number of deleted reminders.
func (db *Database) ReminderPurgeFired(before time.Time) (int64, error) {
	var (
		err  error
		stmt *sql.Stmt
		res  sql.Result
	)

	if stmt, err = db.stmt(query.ReminderPurgeFired); err != nil {
		return 0, err
	}

EXEC_QUERY:
	if res, err = stmt.Exec(before.Unix()); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot purge old reminders: %s\n",
			err.Error())
		return 0, err
	}

	return res.RowsAffected()
} // func (db *Database) ReminderPurgeFired(before time.Time) (int64, error)
