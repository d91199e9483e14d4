// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

// Package recommend suggests nearby listings based on the demographic
// profile of the requester's postcode. The suggestion budget is split
// across listing-type strata by the stored weights for the postcode's
// group type, and each stratum is filled by a geographically bounded
// random sample.
package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/plotshare/plotshare/internal/geocode"
	"github.com/plotshare/plotshare/internal/logging"
	"github.com/plotshare/plotshare/internal/metrics"
	"github.com/plotshare/plotshare/internal/models"
)

// coordinateScale divides raw OSGB grid references down to the unit the
// stored listing locations use.
const coordinateScale = 10000

// ListingStore is the persistence surface the engine needs.
type ListingStore interface {
	GetListings(ctx context.Context, q models.ListingQuery) (*models.ListingPage, error)
	CountListings(ctx context.Context, base models.ListingQuery) (int, error)
	SampleListingsNear(ctx context.Context, t models.ListingType, n int, center [2]float64, radius float64, base models.ListingQuery) ([]models.Listing, error)
	GetPreferenceProfile(ctx context.Context, groupType string) (*models.PreferenceProfile, error)
}

// PostcodeResolver resolves a postcode to its demographic record.
type PostcodeResolver interface {
	Lookup(ctx context.Context, postcode string) geocode.Result
}

// Options filters a recommendation request. Setting Type bypasses the
// engine entirely and runs a plain listing query.
type Options struct {
	Type        models.ListingType
	Category    string
	Status      models.ListingStatus
	CreatedBy   string
	PurchasedBy string
	Sort        models.ListingSort
	Page        int
	Limit       int
}

// Engine produces stratified geographic recommendations.
type Engine struct {
	store       ListingStore
	resolver    PostcodeResolver
	radius      float64
	suggestions int
}

// New creates an engine. radius bounds the sample circle in scaled grid
// units; suggestions is the default budget N when the request has no limit.
func New(store ListingStore, resolver PostcodeResolver, radius float64, suggestions int) *Engine {
	if radius <= 0 {
		radius = 100
	}
	if suggestions <= 0 {
		suggestions = 10
	}
	return &Engine{
		store:       store,
		resolver:    resolver,
		radius:      radius,
		suggestions: suggestions,
	}
}

// Recommend returns a page of suggested listings for a postcode.
//
// An unresolvable postcode yields an empty page with zeroed pagination,
// not an error: a visitor outside the reference data still gets a valid
// response. override, when non-nil, takes precedence over the stored
// preference profile.
func (e *Engine) Recommend(ctx context.Context, postcode string, opts Options, override *models.PreferenceProfile) (*models.ListingPage, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	}()

	// An explicit type filter makes stratification meaningless; fall
	// through to the ordinary listing query.
	if opts.Type != "" {
		return e.store.GetListings(ctx, models.ListingQuery{
			Status:      opts.Status,
			Type:        opts.Type,
			Category:    opts.Category,
			CreatedBy:   opts.CreatedBy,
			PurchasedBy: opts.PurchasedBy,
			Sort:        opts.Sort,
			Page:        opts.Page,
			Limit:       opts.Limit,
		})
	}

	res := e.resolver.Lookup(ctx, postcode)
	if res.Outcome != geocode.OutcomeFound {
		if res.Outcome == geocode.OutcomeReadFailure {
			logging.Ctx(ctx).Warn().Err(res.Err).Str("postcode", postcode).
				Msg("Postcode resolution degraded, returning empty recommendations")
		}
		metrics.RecommendRequests.WithLabelValues("fallback").Inc()
		return &models.ListingPage{
			Listings:   []models.Listing{},
			Pagination: models.Pagination{},
		}, nil
	}

	budget := opts.Limit
	if budget < 1 {
		budget = e.suggestions
	}

	profile := override
	if profile == nil {
		stored, err := e.store.GetPreferenceProfile(ctx, string(res.Record.Type))
		if err != nil {
			return nil, fmt.Errorf("failed to load preference profile: %w", err)
		}
		profile = stored
	}

	mode := "geographic"
	if profile == nil {
		mode = "fallback"
	}
	metrics.RecommendRequests.WithLabelValues(mode).Inc()

	counts := stratumCounts(profile, budget)

	eastings, northings := res.Record.Coordinates()
	center := [2]float64{eastings / coordinateScale, northings / coordinateScale}

	base := models.ListingQuery{
		Status:      opts.Status,
		Category:    opts.Category,
		CreatedBy:   opts.CreatedBy,
		PurchasedBy: opts.PurchasedBy,
	}

	listings := []models.Listing{}
	for _, t := range models.ListingTypes {
		sample, err := e.store.SampleListingsNear(ctx, t, counts[t], center, e.radius, base)
		if err != nil {
			return nil, fmt.Errorf("failed to sample %s stratum: %w", t, err)
		}
		listings = append(listings, sample...)
	}
	metrics.RecommendSuggestions.Observe(float64(len(listings)))

	// Total reflects the unfiltered (non-geographic) match count; the
	// pages value collapses to 1 whenever anything matched at all.
	total, err := e.store.CountListings(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}

	var pages float64
	if total > 0 {
		pages = 1
	}

	return &models.ListingPage{
		Listings: listings,
		Pagination: models.Pagination{
			Total: total,
			Page:  0,
			Limit: budget,
			Pages: pages,
		},
	}, nil
}
