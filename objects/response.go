// /home/krylon/go/src/github.com/blicero/binsched/objects/response.go
// -*- mode: go; coding: utf-8; -*-
// Created on 11. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-11 20:02:44 krylon>

package objects

// Response is what the backend sends to a client after processing a request
// that changes something.
type Response struct {
	ID      int64  `json:"id"`
	Status  bool   `json:"status"`
	Message string `json:"message"`
}
