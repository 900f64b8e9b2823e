// /home/krylon/go/src/github.com/blicero/binsched/database/dbqueries.go
// -*- mode: go; coding: utf-8; -*-
// Created on 10. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-13 20:11:37 krylon>

package database

import "github.com/blicero/binsched/database/query"

var dbQueries = map[query.ID]string{
	query.ReminderAdd: `
INSERT INTO reminder (uuid, title, body, location, due)
VALUES               (   ?,     ?,    ?,        ?,   ?)
`,
	query.ReminderClearPending: "DELETE FROM reminder WHERE fired = 0",
	query.ReminderCountPending: "SELECT COUNT(id) FROM reminder WHERE fired = 0",
	query.ReminderGetPending: `
SELECT
    id,
    uuid,
    title,
    body,
    location,
    due
FROM reminder
WHERE fired = 0
ORDER BY due, id
`,
	query.ReminderGetDue: `
SELECT
    id,
    uuid,
    title,
    body,
    location,
    due
FROM reminder
WHERE fired = 0 AND due <= ?
ORDER BY due, id
`,
	query.ReminderGetByUUID: `
SELECT
    id,
    title,
    body,
    location,
    due,
    fired
FROM reminder
WHERE uuid = ?
`,
	query.ReminderSetFired:   "UPDATE reminder SET fired = 1 WHERE id = ?",
	query.ReminderPurgeFired: "DELETE FROM reminder WHERE fired <> 0 AND due < ?",
}
