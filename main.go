// /home/krylon/go/src/github.com/blicero/binsched/main.go
// -*- mode: go; coding: utf-8; -*-
// Created on 03. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-16 12:12:40 krylon>

package main

import "github.com/blicero/binsched/cmd"

func main() {
	cmd.Execute()
}
