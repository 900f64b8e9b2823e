// /home/krylon/go/src/github.com/blicero/binsched/logdomain/logdomain.go
// -*- mode: go; coding: utf-8; -*-
// Created on 03. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-11 20:17:45 krylon>

// Package logdomain provides constants for log sources.
package logdomain

// ID represents an area of concern.
type ID uint8

// These constants identify the various logical areas of the application.
const (
	Common ID = iota
	Cache
	Fetch
	Parser
	Scheduler
	Controller
	Settings
	Database
	Backend
	Version
	Client
	CLI
)

var names = [...]string{
	"Common",
	"Cache",
	"Fetch",
	"Parser",
	"Scheduler",
	"Controller",
	"Settings",
	"Database",
	"Backend",
	"Version",
	"Client",
	"CLI",
}

func (id ID) String() string {
	if int(id) < len(names) {
		return names[id]
	}
	return "ID(?)"
}

// AllDomains returns a slice of all the known log sources.
func AllDomains() []ID {
	return []ID{
		Common,
		Cache,
		Fetch,
		Parser,
		Scheduler,
		Controller,
		Settings,
		Database,
		Backend,
		Version,
		Client,
		CLI,
	}
} // func AllDomains() []ID
