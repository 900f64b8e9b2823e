// /home/krylon/go/src/github.com/blicero/binsched/objects/bin.go
// -*- mode: go; coding: utf-8; -*-
// Created on 03. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-09 17:44:02 krylon>

package objects

import (
	"fmt"
	"strings"
)

// BinCategory identifies one of the waste streams the council collects.
type BinCategory uint8

// Blue is for paper, cans and plastic bottles,
// Brown is for food and garden waste,
// Grey is for general waste,
// Green is for glass.
const (
	Blue BinCategory = iota
	Brown
	Grey
	Green
)

// AllBinCategories lists the known categories in declaration order.
var AllBinCategories = []BinCategory{Blue, Brown, Grey, Green}

var binNames = [...]string{
	"blue",
	"brown",
	"grey",
	"green",
}

var binDisplayNames = [...]string{
	"Blue",
	"Brown",
	"Grey",
	"Green",
}

var binColors = [...]string{
	"#3b82f7",
	"#8f511b",
	"#8e8e93",
	"#68ce67",
}

// ParseBinCategory returns the BinCategory identified by the given key.
// The key is the lowercase identifier used in the schedule documents.
func ParseBinCategory(key string) (BinCategory, error) {
	for idx, name := range binNames {
		if name == key {
			return BinCategory(idx), nil
		}
	}

	return 0, fmt.Errorf("Unknown bin category %q", key)
} // func ParseBinCategory(key string) (BinCategory, error)

// Valid returns true if the receiver is one of the known categories.
func (b BinCategory) Valid() bool {
	return int(b) < len(binNames)
} // func (b BinCategory) Valid() bool

func (b BinCategory) String() string {
	if !b.Valid() {
		return fmt.Sprintf("BinCategory(%d)", b)
	}
	return binNames[b]
} // func (b BinCategory) String() string

// DisplayName returns the human-readable name of the category.
func (b BinCategory) DisplayName() string {
	if !b.Valid() {
		return b.String()
	}
	return binDisplayNames[b]
} // func (b BinCategory) DisplayName() string

// Color returns the RGB color associated with the category, as a hex string.
func (b BinCategory) Color() string {
	if !b.Valid() {
		return "#000000"
	}
	return binColors[b]
} // func (b BinCategory) Color() string

// MarshalText implements encoding.TextMarshaler
func (b BinCategory) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("Cannot marshal invalid bin category %d", b)
	}
	return []byte(binNames[b]), nil
} // func (b BinCategory) MarshalText() ([]byte, error)

// UnmarshalText implements encoding.TextUnmarshaler
func (b *BinCategory) UnmarshalText(txt []byte) error {
	var (
		err error
		cat BinCategory
	)

	if cat, err = ParseBinCategory(string(txt)); err != nil {
		return err
	}

	*b = cat
	return nil
} // func (b *BinCategory) UnmarshalText(txt []byte) error

// JoinDisplayNames renders a list of categories as a comma-separated list
// of their display names.
func JoinDisplayNames(bins []BinCategory) string {
	var names = make([]string, len(bins))

	for idx, b := range bins {
		names[idx] = b.DisplayName()
	}

	return strings.Join(names, ", ")
} // func JoinDisplayNames(bins []BinCategory) string
