// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package models

import "time"

// ListingType classifies what a listing offers.
type ListingType string

// Listing types.
const (
	ListingTypeItem    ListingType = "item"
	ListingTypeService ListingType = "service"
	ListingTypeShare   ListingType = "share"
)

// ListingTypes enumerates all valid listing types, in stable order.
var ListingTypes = []ListingType{ListingTypeItem, ListingTypeService, ListingTypeShare}

// Valid reports whether t is a known listing type.
func (t ListingType) Valid() bool {
	switch t {
	case ListingTypeItem, ListingTypeService, ListingTypeShare:
		return true
	}
	return false
}

// ListingStatus is the lifecycle state of a listing.
type ListingStatus string

// Listing statuses. A listing is created open and closed on purchase.
const (
	ListingStatusOpen   ListingStatus = "open"
	ListingStatusClosed ListingStatus = "closed"
)

// PickupMethod describes how a buyer receives a purchased item.
type PickupMethod string

// Pickup methods.
const (
	PickupMyLocation PickupMethod = "myloc"
	PickupPost       PickupMethod = "post"
)

// Listing is a marketplace entry: an item for sale, a service on offer, or
// a garden share.
//
// Location holds scaled grid coordinates derived from the listing's
// postcode at creation time; both components are 0 when the postcode could
// not be resolved.
type Listing struct {
	ID           string        `json:"id"`
	Type         ListingType   `json:"type"`
	Category     string        `json:"category"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Price        int           `json:"price"`
	Quantity     int           `json:"quantity"`
	Status       ListingStatus `json:"status"`
	ImageURLs    []string      `json:"image_urls"`
	PickupMethod PickupMethod  `json:"pickupmethod"`
	Postcode     string        `json:"postcode"`
	Location     [2]float64    `json:"location"`
	CreatedBy    string        `json:"created_by"`
	PurchasedBy  *string       `json:"purchased_by,omitempty"`
	TaskboardID  *string       `json:"taskboard_id,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`

	// Creator is the hydrated created_by user, populated on reads that
	// join the users table.
	Creator *User `json:"creator,omitempty"`
}

// CreateListingRequest is the payload for creating a listing.
//
// Path, when present, files the listing under a taskboard directory; the
// last path segment becomes the board title.
type CreateListingRequest struct {
	Name         string   `json:"name" validate:"required,min=2,max=100"`
	Path         string   `json:"path,omitempty" validate:"omitempty,max=100"`
	Price        int      `json:"price" validate:"min=0"`
	Quantity     int      `json:"quantity,omitempty" validate:"omitempty,min=1"`
	Type         string   `json:"type,omitempty" validate:"omitempty,listingtype"`
	Category     string   `json:"category" validate:"required"`
	ImageURLs    []string `json:"image_urls,omitempty"`
	Description  string   `json:"description"`
	PickupMethod string   `json:"pickupmethod" validate:"required,oneof=myloc post"`
	Postcode     string   `json:"postcode" validate:"required,min=3"`
	CreatedBy    string   `json:"created_by" validate:"required,uuid4"`
}

// UpdateListingRequest is the payload for partially updating a listing.
// Nil fields are left unchanged.
type UpdateListingRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Path        *string `json:"path,omitempty" validate:"omitempty,max=100"`
	Price       *int    `json:"price,omitempty" validate:"omitempty,min=0"`
	Quantity    *int    `json:"quantity,omitempty" validate:"omitempty,min=1"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=open closed"`
}

// ListingSort is a supported sort order for listing queries.
type ListingSort string

// Listing sort orders.
const (
	SortPriceAsc      ListingSort = "price:asc"
	SortPriceDesc     ListingSort = "price:desc"
	SortCreatedAtAsc  ListingSort = "createdAt:asc"
	SortCreatedAtDesc ListingSort = "createdAt:desc"
	SortStatusOpen    ListingSort = "status:open"
)

// Valid reports whether s is a known sort order.
func (s ListingSort) Valid() bool {
	switch s {
	case SortPriceAsc, SortPriceDesc, SortCreatedAtAsc, SortCreatedAtDesc, SortStatusOpen:
		return true
	}
	return false
}

// ListingQuery filters and paginates listing reads.
type ListingQuery struct {
	Status      ListingStatus
	Type        ListingType
	Category    string
	CreatedBy   string
	PurchasedBy string
	Search      string
	Sort        ListingSort
	Page        int
	Limit       int
}

// ListingPage is one page of listings with pagination metadata. The wire
// shape is {data, pagination} to match the web client's expectations.
type ListingPage struct {
	Listings   []Listing  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// PurchaseResult reports the outcome of a completed purchase.
type PurchaseResult struct {
	Listing     Listing `json:"listing"`
	BuyerPoints int     `json:"buyer_points"`
}
