// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package models

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestListingTypeValid(t *testing.T) {
	for _, lt := range ListingTypes {
		if !lt.Valid() {
			t.Errorf("ListingType %q should be valid", lt)
		}
	}
	if ListingType("plot").Valid() {
		t.Error("unknown listing type should be invalid")
	}
	if ListingType("").Valid() {
		t.Error("empty listing type should be invalid")
	}
}

func TestListingSortValid(t *testing.T) {
	valid := []ListingSort{SortPriceAsc, SortPriceDesc, SortCreatedAtAsc, SortCreatedAtDesc, SortStatusOpen}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("sort %q should be valid", s)
		}
	}
	if ListingSort("points:asc").Valid() {
		t.Error("unknown sort should be invalid")
	}
}

func TestListingJSONOmitsEmptyOptionals(t *testing.T) {
	l := Listing{ID: "abc", Type: ListingTypeItem, Status: ListingStatusOpen}
	data, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "purchased_by") {
		t.Errorf("nil purchased_by should be omitted: %s", out)
	}
	if strings.Contains(out, "creator") {
		t.Errorf("nil creator should be omitted: %s", out)
	}
	if !strings.Contains(out, `"pickupmethod"`) {
		t.Errorf("pickupmethod key missing: %s", out)
	}
}

func TestAPIResponseErrorShape(t *testing.T) {
	resp := APIResponse{
		Status: "error",
		Error:  &APIError{Code: "NOT_FOUND", Message: "Listing not found"},
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"code":"NOT_FOUND"`) {
		t.Errorf("error code missing: %s", out)
	}
	if !strings.Contains(out, `"message":"Listing not found"`) {
		t.Errorf("error message missing: %s", out)
	}
}

func TestPaginationPagesIsNumeric(t *testing.T) {
	p := Pagination{Total: 7, Page: 1, Limit: 10, Pages: 1}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"pages":1`) {
		t.Errorf("pages should serialize as a number: %s", data)
	}
}
