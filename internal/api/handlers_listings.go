// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/plotshare/plotshare/internal/database"
	"github.com/plotshare/plotshare/internal/market"
	"github.com/plotshare/plotshare/internal/models"
)

// listingQueryFromRequest reads the shared filter and pagination query
// parameters for listing endpoints.
func (h *Handler) listingQueryFromRequest(r *http.Request) models.ListingQuery {
	q := r.URL.Query()
	return models.ListingQuery{
		Status:      models.ListingStatus(q.Get("status")),
		Type:        models.ListingType(q.Get("type")),
		Category:    q.Get("category"),
		CreatedBy:   q.Get("createdBy"),
		PurchasedBy: q.Get("purchasedBy"),
		Sort:        models.ListingSort(q.Get("sort")),
		Page:        getIntParam(r, "page", 1),
		Limit:       h.clampLimit(getIntParam(r, "limit", h.cfg.API.DefaultPageSize)),
	}
}

// Listings handles GET /api/v1/listings.
func (h *Handler) Listings(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	query := h.listingQueryFromRequest(r)
	if query.Sort != "" && !query.Sort.Valid() {
		respondError(w, http.StatusBadRequest, "INVALID_SORT", "Unknown sort option", nil)
		return
	}
	if query.Type != "" && !query.Type.Valid() {
		respondError(w, http.StatusBadRequest, "INVALID_TYPE", "Unknown listing type", nil)
		return
	}

	page, err := h.market.GetListings(r.Context(), query)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to query listings", err)
		return
	}

	respondData(w, http.StatusOK, page, started)
}

// CreateListing handles POST /api/v1/listings.
func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req models.CreateListingRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	listing, err := h.market.CreateListing(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, market.ErrCreatorNotFound),
			errors.Is(err, market.ErrCreatorHasNoPostcode),
			errors.Is(err, market.ErrPostcodeOutsideGroup),
			errors.Is(err, market.ErrInvalidBoardPath):
			respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		default:
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create listing", err)
		}
		return
	}

	respondData(w, http.StatusCreated, listing, started)
}

// GetListing handles GET /api/v1/listings/{id}.
func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	listing, err := h.market.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrListingNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Listing not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load listing", err)
		return
	}

	respondData(w, http.StatusOK, listing, started)
}

// UpdateListing handles PATCH /api/v1/listings/{id}.
func (h *Handler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req models.UpdateListingRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	listing, err := h.market.UpdateListing(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrListingNotFound):
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Listing not found", nil)
		case errors.Is(err, market.ErrInvalidBoardPath):
			respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		default:
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update listing", err)
		}
		return
	}

	respondData(w, http.StatusOK, listing, started)
}

// DeleteListing handles DELETE /api/v1/listings/{id}.
func (h *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	if err := h.market.DeleteListing(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, database.ErrListingNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Listing not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete listing", err)
		return
	}

	respondData(w, http.StatusOK, map[string]bool{"deleted": true}, started)
}

// SearchListings handles GET /api/v1/listings/search.
func (h *Handler) SearchListings(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	term := r.URL.Query().Get("q")
	if term == "" {
		respondError(w, http.StatusBadRequest, "MISSING_QUERY", "Query parameter q is required", nil)
		return
	}

	limit := h.clampLimit(getIntParam(r, "limit", h.cfg.API.DefaultPageSize))
	results, err := h.market.SearchListings(r.Context(), term, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Search failed", err)
		return
	}

	respondData(w, http.StatusOK, results, started)
}

// purchaseRequest is the body for the purchase endpoint.
type purchaseRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
}

// purchaseResponse is the structured purchase outcome.
type purchaseResponse struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error,omitempty"`
	Result  *models.PurchaseResult `json:"result,omitempty"`
}

// PurchaseListing handles POST /api/v1/listings/{id}/purchase.
//
// Business rejections (missing listing, already sold, self purchase,
// insufficient points) return 200 with success=false and the rejection
// message, matching the web client contract.
func (h *Handler) PurchaseListing(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req purchaseRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	result, err := h.market.PurchaseListing(r.Context(), chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrListingNotFound),
			errors.Is(err, database.ErrAlreadyPurchased),
			errors.Is(err, database.ErrSelfPurchase),
			errors.Is(err, database.ErrInsufficientPoints):
			respondData(w, http.StatusOK, purchaseResponse{Success: false, Error: err.Error()}, started)
		default:
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Purchase failed", err)
		}
		return
	}

	respondData(w, http.StatusOK, purchaseResponse{Success: true, Result: result}, started)
}
