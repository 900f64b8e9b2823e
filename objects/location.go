// /home/krylon/go/src/github.com/blicero/binsched/objects/location.go
// -*- mode: go; coding: utf-8; -*-
// Created on 05. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-13 22:11:05 krylon>

package objects

import (
	"net/url"
	"strings"
	"unicode"
)

// Locations is the catalog of places schedules are published for.
var Locations = []string{
	"Bishopton",
	"Bridge of Weir",
	"Brookfield",
	"Brooklands",
	"Coatsbrae",
	"Crosslee",
	"Dargavel",
	"Houston",
	"Howwood",
	"Kilbarchan",
	"Langbank",
	"Lochwinnoch",
	"Merchiston Drive",
	"Napier Grove",
	"Weirs Wynd",
}

// OtherLocationAddress is where requests for locations not in the
// catalog go.
const OtherLocationAddress = "contact@bins.ren"

// IsKnownLocation returns true if the given name is in the catalog.
// The comparison ignores case and whitespace.
func IsKnownLocation(name string) bool {
	var _, ok = CanonicalLocation(name)
	return ok
} // func IsKnownLocation(name string) bool

// CanonicalLocation returns the catalog's spelling of the given location
// name, and false if it is not in the catalog.
func CanonicalLocation(name string) (string, bool) {
	var key = NormalizeLocation(name)

	for _, l := range Locations {
		if NormalizeLocation(l) == key {
			return l, true
		}
	}

	return "", false
} // func CanonicalLocation(name string) (string, bool)

// NormalizeLocation turns a location name into the key used to look up
// its schedule, e.g. "Bridge of Weir" becomes "bridgeofweir".
func NormalizeLocation(name string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(name) {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return b.String()
} // func NormalizeLocation(name string) string

// OtherLocationMailto returns a mailto URL asking for the location
// described by details to be added to the catalog.
func OtherLocationMailto(details string) string {
	var q = url.Values{}

	q.Set("subject", "Other Location")
	q.Set("body",
		"Hi there! Can you please add the following location to the Renfrewshire bins app: "+details)

	var u = url.URL{
		Scheme:   "mailto",
		Opaque:   OtherLocationAddress,
		RawQuery: strings.ReplaceAll(q.Encode(), "+", "%20"),
	}

	return u.String()
} // func OtherLocationMailto(details string) string
