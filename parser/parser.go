// /home/krylon/go/src/github.com/blicero/binsched/parser/parser.go
// -*- mode: go; coding: utf-8; -*-
// Created on 04. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-14 20:48:13 krylon>

// Package parser turns the schedule documents published by the council
// into a list of CollectionEvents.
//
// A schedule document is a JSON array of objects, each mapping a bin
// category to a date:
//
//	[{"blue": "2025-03-03"}, {"green": "2025-03-03", "grey": "2025-03-10"}]
package parser

import (
	"errors"
	"fmt"
	"time"

	"github.com/blicero/binsched/objects"
	"github.com/tidwall/gjson"
)

// ErrNotArray is returned for documents that are not a JSON array.
var ErrNotArray = errors.New("Schedule document is not a JSON array")

// EntryError describes a single key/value pair that was skipped.
type EntryError struct {
	Index int
	Key   string
	Value string
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("Skipping entry #%d (%q: %q): %s",
		e.Index,
		e.Key,
		e.Value,
		e.Err)
} // func (e *EntryError) Error() string

func (e *EntryError) Unwrap() error {
	return e.Err
} // func (e *EntryError) Unwrap() error

// Valid returns true if raw is a well-formed JSON array.
func Valid(raw []byte) bool {
	return gjson.ValidBytes(raw) && gjson.ParseBytes(raw).IsArray()
} // func Valid(raw []byte) bool

// Parse processes a schedule document. Pairs with an unknown category or
// a malformed date are skipped and reported in the second return value,
// they do not make the whole document fail. Only a document that is not
// a JSON array at all yields an error.
//
// The resulting events are sorted by date, and there is at most one event
// per date.
func Parse(raw []byte) ([]objects.CollectionEvent, []*EntryError, error) {
	if !Valid(raw) {
		return nil, nil, ErrNotArray
	}

	var (
		c       objects.Collector
		skipped []*EntryError
		idx     = -1
	)

	gjson.ParseBytes(raw).ForEach(func(_, entry gjson.Result) bool {
		idx++

		if !entry.IsObject() {
			skipped = append(skipped, &EntryError{
				Index: idx,
				Value: entry.Raw,
				Err:   errors.New("entry is not an object"),
			})
			return true
		}

		entry.ForEach(func(key, val gjson.Result) bool {
			var (
				err error
				cat objects.BinCategory
				day time.Time
			)

			if val.Type != gjson.String {
				err = fmt.Errorf("value is not a string")
			} else if cat, err = objects.ParseBinCategory(key.String()); err == nil {
				day, err = objects.ParseDay(val.Str)
			}

			if err != nil {
				skipped = append(skipped, &EntryError{
					Index: idx,
					Key:   key.String(),
					Value: val.Raw,
					Err:   err,
				})
				return true
			}

			c.Add(day, cat)
			return true
		})

		return true
	})

	return c.Events(), skipped, nil
} // func Parse(raw []byte) ([]objects.CollectionEvent, []*EntryError, error)
