// /home/krylon/go/src/github.com/blicero/binsched/cache/cache.go
// -*- mode: go; coding: utf-8; -*-
// Created on 04. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-15 17:20:48 krylon>

// Package cache keeps the last known schedule for each location on disk,
// so it can be shown before - or without - contacting the server.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/blicero/binsched/common"
	"github.com/blicero/binsched/logdomain"
	"github.com/blicero/binsched/objects"
	"github.com/pquerna/ffjson/ffjson"
)

const (
	filePrefix      = "bin_collections_cache_"
	fileSuffix      = ".json"
	filePermissions = 0644
)

// Error is returned when the cache cannot be written.
type Error struct {
	Location string
	Path     string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("Cannot cache schedule for %s in %s: %s",
		e.Location,
		e.Path,
		e.Err)
} // func (e *Error) Error() string

func (e *Error) Unwrap() error {
	return e.Err
} // func (e *Error) Unwrap() error

// record is the on-disk form of a CollectionEvent. The ID is deliberately
// absent, it is minted anew on every load.
type record struct {
	Date string                `json:"date"`
	Bins []objects.BinCategory `json:"bins"`
}

// Store persists schedules as one JSON file per location.
type Store struct {
	dir string
	log *log.Logger
}

// New creates a Store that keeps its files in dir. If dir is empty,
// common.CacheDir is used.
func New(dir string) (*Store, error) {
	var (
		err error
		s   = &Store{dir: dir}
	)

	if s.dir == "" {
		s.dir = common.CacheDir
	}

	if s.log, err = common.GetLogger(logdomain.Cache); err != nil {
		return nil, err
	} else if err = os.MkdirAll(s.dir, 0755); err != nil {
		s.log.Printf("[ERROR] Cannot create cache directory %s: %s\n",
			s.dir,
			err.Error())
		return nil, err
	}

	return s, nil
} // func New(dir string) (*Store, error)

// Key returns the cache key for the given location.
func Key(location string) string {
	return url.PathEscape(objects.NormalizeLocation(location))
} // func Key(location string) string

// Path returns the path of the cache file for the given location.
func (s *Store) Path(location string) string {
	return filepath.Join(s.dir, filePrefix+Key(location)+fileSuffix)
} // func (s *Store) Path(location string) string

// Save writes the given events to the cache file for location, replacing
// any previous content. A reader never observes a partially written file.
func (s *Store) Save(location string, events []objects.CollectionEvent) error {
	var (
		err     error
		buf     []byte
		tmp     *os.File
		path    = s.Path(location)
		records = make([]record, len(events))
	)

	if len(events) == 0 {
		return &Error{Location: location, Path: path, Err: errors.New("refusing to cache an empty schedule")}
	}

	for idx, ev := range events {
		records[idx] = record{
			Date: objects.FormatDay(ev.Date),
			Bins: ev.Bins,
		}
	}

	if buf, err = ffjson.Marshal(records); err != nil {
		s.log.Printf("[ERROR] Cannot serialize schedule for %s: %s\n",
			location,
			err.Error())
		return &Error{Location: location, Path: path, Err: err}
	}

	defer ffjson.Pool(buf)

	if tmp, err = os.CreateTemp(s.dir, filePrefix+"*.tmp"); err != nil {
		s.log.Printf("[ERROR] Cannot create temporary file in %s: %s\n",
			s.dir,
			err.Error())
		return &Error{Location: location, Path: path, Err: err}
	}

	var tmpPath = tmp.Name()

	if _, err = tmp.Write(buf); err != nil {
		s.log.Printf("[ERROR] Cannot write to %s: %s\n",
			tmpPath,
			err.Error())
		tmp.Close()        // nolint: errcheck
		os.Remove(tmpPath) // nolint: errcheck
		return &Error{Location: location, Path: path, Err: err}
	} else if err = tmp.Sync(); err != nil {
		s.log.Printf("[ERROR] Cannot sync %s: %s\n",
			tmpPath,
			err.Error())
		tmp.Close()        // nolint: errcheck
		os.Remove(tmpPath) // nolint: errcheck
		return &Error{Location: location, Path: path, Err: err}
	} else if err = tmp.Close(); err != nil {
		os.Remove(tmpPath) // nolint: errcheck
		return &Error{Location: location, Path: path, Err: err}
	} else if err = os.Chmod(tmpPath, filePermissions); err != nil {
		s.log.Printf("[WARN] Cannot set permissions on %s: %s\n",
			tmpPath,
			err.Error())
	}

	if err = os.Rename(tmpPath, path); err != nil {
		s.log.Printf("[ERROR] Cannot move %s to %s: %s\n",
			tmpPath,
			path,
			err.Error())
		os.Remove(tmpPath) // nolint: errcheck
		return &Error{Location: location, Path: path, Err: err}
	}

	s.log.Printf("[DEBUG] Cached %d events for %s in %s\n",
		len(events),
		location,
		path)

	return nil
} // func (s *Store) Save(location string, events []objects.CollectionEvent) error

// Load reads the cached schedule for location. If there is no usable
// cache file, it returns false. A missing or damaged cache is not an error,
// it merely means we have to wait for the server.
func (s *Store) Load(location string) ([]objects.CollectionEvent, bool) {
	var (
		err     error
		buf     []byte
		records []record
		c       objects.Collector
		path    = s.Path(location)
	)

	if buf, err = os.ReadFile(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Printf("[DEBUG] No cached schedule for %s\n", location)
		} else {
			s.log.Printf("[ERROR] Cannot read cache file %s: %s\n",
				path,
				err.Error())
		}
		return nil, false
	} else if err = ffjson.Unmarshal(buf, &records); err != nil {
		s.log.Printf("[WARN] Cache file %s is corrupt: %s\n",
			path,
			err.Error())
		return nil, false
	}

	for _, r := range records {
		var day time.Time

		if day, err = objects.ParseDay(r.Date); err != nil {
			s.log.Printf("[WARN] Cache file %s contains invalid date %q: %s\n",
				path,
				r.Date,
				err.Error())
			return nil, false
		}

		for _, b := range r.Bins {
			c.Add(day, b)
		}
	}

	if c.Len() == 0 {
		s.log.Printf("[DEBUG] Cache file %s holds no events\n", path)
		return nil, false
	}

	return c.Events(), true
} // func (s *Store) Load(location string) ([]objects.CollectionEvent, bool)

// Remove deletes the cache file for the given location, if it exists.
func (s *Store) Remove(location string) error {
	var err error

	if err = os.Remove(s.Path(location)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Printf("[ERROR] Cannot remove cache for %s: %s\n",
			location,
			err.Error())
		return err
	}

	return nil
} // func (s *Store) Remove(location string) error
