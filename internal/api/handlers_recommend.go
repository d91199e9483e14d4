// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/plotshare/plotshare/internal/models"
	"github.com/plotshare/plotshare/internal/recommend"
)

// Recommendations handles GET /api/v1/recommendations.
//
// The postcode query parameter selects the centre of the search; optional
// itemWeight/serviceWeight/shareWeight parameters override the stored
// demographic profile for this request only (all three must be present).
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	q := r.URL.Query()

	postcode := q.Get("postcode")
	if postcode == "" {
		respondError(w, http.StatusBadRequest, "MISSING_POSTCODE", "Query parameter postcode is required", nil)
		return
	}

	limit := getIntParam(r, "limit", 0)
	if limit > 0 {
		limit = h.clampLimit(limit)
	}

	opts := recommend.Options{
		Type:        models.ListingType(q.Get("type")),
		Category:    q.Get("category"),
		Status:      models.ListingStatus(q.Get("status")),
		CreatedBy:   q.Get("createdBy"),
		PurchasedBy: q.Get("purchasedBy"),
		Sort:        models.ListingSort(q.Get("sort")),
		Page:        getIntParam(r, "page", 0),
		Limit:       limit,
	}
	if opts.Type != "" && !opts.Type.Valid() {
		respondError(w, http.StatusBadRequest, "INVALID_TYPE", "Unknown listing type", nil)
		return
	}

	override, err := weightOverride(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_WEIGHTS", "Weight overrides must be numeric and supplied together", nil)
		return
	}

	page, err := h.engine.Recommend(r.Context(), postcode, opts, override)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build recommendations", err)
		return
	}

	respondData(w, http.StatusOK, page, started)
}

// weightOverride parses the optional per-request weight override. It returns
// nil when none of the weight parameters are present.
func weightOverride(r *http.Request) (*models.PreferenceProfile, error) {
	q := r.URL.Query()
	item, service, share := q.Get("itemWeight"), q.Get("serviceWeight"), q.Get("shareWeight")
	if item == "" && service == "" && share == "" {
		return nil, nil
	}
	if item == "" || service == "" || share == "" {
		return nil, strconv.ErrSyntax
	}

	profile := &models.PreferenceProfile{}
	var err error
	if profile.ItemWeight, err = strconv.ParseFloat(item, 64); err != nil {
		return nil, err
	}
	if profile.ServiceWeight, err = strconv.ParseFloat(service, 64); err != nil {
		return nil, err
	}
	if profile.ShareWeight, err = strconv.ParseFloat(share, 64); err != nil {
		return nil, err
	}
	return profile, nil
}
