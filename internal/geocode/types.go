// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

// Package geocode resolves UK postcodes to neighbourhood classification
// records. The data lives in per-prefix CSV shards (one file per postcode
// area, e.g. ky.csv) produced from the Mosaic "Suburban Stability" segment
// export, which is why every record carries group F.
package geocode

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// MosaicType is the neighbourhood classification within group F.
//
//	22: Boomerang Boarders
//	23: Family Ties
//	24: Fledgling Free
//	25: Dependable Me
type MosaicType string

// Known mosaic types.
const (
	TypeBoomerangBoarders MosaicType = "22"
	TypeFamilyTies        MosaicType = "23"
	TypeFledglingFree     MosaicType = "24"
	TypeDependableMe      MosaicType = "25"
)

// Valid reports whether t is a known group F type.
func (t MosaicType) Valid() bool {
	switch t {
	case TypeBoomerangBoarders, TypeFamilyTies, TypeFledglingFree, TypeDependableMe:
		return true
	}
	return false
}

// Record is one resolved postcode row.
//
// Northings and Eastings are kept as the raw CSV strings: the source data
// uses the sentinel "None" for postcodes without coordinates, and the
// export's Eastings column actually holds northing values (and vice
// versa), so the loader assigns them crosswise. Use Coordinates to obtain
// numeric values.
type Record struct {
	Postcode  string     `json:"postcode"`
	Group     string     `json:"group"`
	Type      MosaicType `json:"type"`
	Northings string     `json:"northings"`
	Eastings  string     `json:"eastings"`
}

// Coordinates returns the numeric (eastings, northings) pair. The "None"
// sentinel, or any unparseable value, maps both coordinates to the origin.
func (r Record) Coordinates() (eastings, northings float64) {
	if r.Northings == "None" || r.Eastings == "None" {
		return 0, 0
	}
	e, errE := strconv.ParseFloat(strings.TrimSpace(r.Eastings), 64)
	n, errN := strconv.ParseFloat(strings.TrimSpace(r.Northings), 64)
	if errE != nil || errN != nil {
		return 0, 0
	}
	return e, n
}

// Outcome classifies a lookup result.
type Outcome int

// Lookup outcomes. ReadFailure is distinguished from NotFound so callers
// can log and degrade; the recommendation engine treats both as "no
// coordinates available".
const (
	OutcomeFound Outcome = iota
	OutcomeNotFound
	OutcomeReadFailure
)

// String returns the outcome's metric label.
func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeReadFailure:
		return "read_failure"
	default:
		return "unknown"
	}
}

// Result is the outcome of one postcode lookup. Record is valid only when
// Outcome is OutcomeFound; Err is set only for OutcomeReadFailure.
type Result struct {
	Outcome Outcome
	Record  Record
	Err     error
}

// Prefix derives the shard key for a postcode: lowercase, whitespace
// stripped, first two characters, dropping the second when it is a digit
// (so "KY14 6EA" maps to "ky" and "E1 6AN" maps to "e").
func Prefix(postcode string) string {
	postcode = stripSpaces(strings.ToLower(postcode))

	if len(postcode) == 0 {
		return ""
	}
	if len(postcode) == 1 {
		return postcode
	}

	prefix := postcode[:2]
	if unicode.IsDigit(rune(prefix[1])) {
		return prefix[:1]
	}
	return prefix
}

// stripSpaces removes all whitespace from s.
func stripSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Distance returns the Euclidean distance between two eastings/northings
// pairs.
func Distance(e1, n1, e2, n2 float64) float64 {
	de := e2 - e1
	dn := n2 - n1
	return math.Sqrt(de*de + dn*dn)
}
