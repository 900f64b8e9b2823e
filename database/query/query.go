// /home/krylon/go/src/github.com/blicero/binsched/database/query/query.go
// -*- mode: go; coding: utf-8; -*-
// Created on 10. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-12 19:04:22 krylon>

// Package query provides symbolic constants for identifying SQL queries.
package query

// ID identifies a query.
type ID uint8

// These are the queries the database knows about.
const (
	ReminderAdd ID = iota
	ReminderClearPending
	ReminderCountPending
	ReminderGetPending
	ReminderGetDue
	ReminderGetByUUID
	ReminderSetFired
	ReminderPurgeFired
)

var names = [...]string{
	"ReminderAdd",
	"ReminderClearPending",
	"ReminderCountPending",
	"ReminderGetPending",
	"ReminderGetDue",
	"ReminderGetByUUID",
	"ReminderSetFired",
	"ReminderPurgeFired",
}

func (id ID) String() string {
	if int(id) < len(names) {
		return names[id]
	}
	return "ID(?)"
}
