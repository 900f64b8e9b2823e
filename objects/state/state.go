// /home/krylon/go/src/github.com/blicero/binsched/objects/state/state.go
// -*- mode: go; coding: utf-8; -*-
// Created on 08. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-08 16:37:50 krylon>

// Package state contains symbolic constants for the phases a schedule
// controller goes through.
package state

// State describes how far loading the schedule for a location has come.
type State uint8

// Uninitialized means nothing has been loaded, yet.
// CacheLoaded means the schedule was restored from the local cache.
// Syncing means a fetch from the server is in flight.
// Synced means the last fetch completed.
// SyncFailed means the last fetch failed; the previous schedule is kept.
const (
	Uninitialized State = iota
	CacheLoaded
	Syncing
	Synced
	SyncFailed
)

var names = [...]string{
	"Uninitialized",
	"CacheLoaded",
	"Syncing",
	"Synced",
	"SyncFailed",
}

func (s State) String() string {
	if int(s) < len(names) {
		return names[s]
	}
	return "State(?)"
}
