// /home/krylon/go/src/github.com/blicero/binsched/database/initqueries.go
// -*- mode: go; coding: utf-8; -*-
// Created on 10. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-12 19:02:51 krylon>

package database

var initQueries = []string{
	`
CREATE TABLE reminder (
    id          INTEGER PRIMARY KEY,
    uuid        TEXT UNIQUE NOT NULL,
    title       TEXT NOT NULL,
    body        TEXT NOT NULL DEFAULT '',
    location    TEXT NOT NULL,
    due         INTEGER NOT NULL,
    fired       INTEGER NOT NULL DEFAULT 0,
    CHECK (due > 1735689600) -- 2025-01-01
)
`,
	"CREATE INDEX reminder_due_idx ON reminder (due)",
	"CREATE INDEX reminder_fired_idx ON reminder (fired)",
}
