// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package models

import "time"

// PreferenceProfile holds the listing-type and plot weights for one
// demographic group type. Weights are fractions of the suggestion budget
// and are applied per stratum without renormalisation.
type PreferenceProfile struct {
	GroupType         string     `json:"group_type"`
	ItemWeight        float64    `json:"item_weight"`
	ServiceWeight     float64    `json:"service_weight"`
	ShareWeight       float64    `json:"share_weight"`
	SharedPlotWeight  float64    `json:"shared_plot_weight"`
	PrivatePlotWeight float64    `json:"private_plot_weight"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
}

// Weight returns the stored weight for a listing type, or 0 for an
// unknown type.
func (p *PreferenceProfile) Weight(t ListingType) float64 {
	switch t {
	case ListingTypeItem:
		return p.ItemWeight
	case ListingTypeService:
		return p.ServiceWeight
	case ListingTypeShare:
		return p.ShareWeight
	}
	return 0
}

// Expired reports whether the profile carries an expiry in the past.
func (p *PreferenceProfile) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && p.ExpiresAt.Before(now)
}

// Market event types persisted to the audit feed.
const (
	EventListingCreated   = "listing.created"
	EventListingPurchased = "listing.purchased"
)

// MarketEvent is one entry in the marketplace audit feed.
type MarketEvent struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	ListingID string    `json:"listing_id"`
	ActorID   string    `json:"actor_id"`
	Payload   string    `json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
