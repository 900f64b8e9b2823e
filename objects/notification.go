// /home/krylon/go/src/github.com/blicero/binsched/objects/notification.go
// -*- mode: go; coding: utf-8; -*-
// Created on 03. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-07 19:40:12 krylon>

// Package objects provides the data types used by the application.
package objects

import "time"

// Notification is what the backend hands to a Poster: a title and a body,
// to be shown at the time returned by Due.
type Notification interface {
	Due() time.Time
	Payload() (string, string)
}
