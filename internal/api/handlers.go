// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

// Package api provides HTTP routing and handlers using the Chi router.
// All responses use the models.APIResponse envelope; listing and
// recommendation endpoints carry the paginated listing shape in data.
package api

import (
	"context"

	"github.com/plotshare/plotshare/internal/config"
	"github.com/plotshare/plotshare/internal/database"
	"github.com/plotshare/plotshare/internal/market"
	"github.com/plotshare/plotshare/internal/models"
	"github.com/plotshare/plotshare/internal/recommend"
)

// Recommender is the recommendation surface the API needs.
type Recommender interface {
	Recommend(ctx context.Context, postcode string, opts recommend.Options, override *models.PreferenceProfile) (*models.ListingPage, error)
}

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	db      *database.DB
	market  *market.Service
	engine  Recommender
	cfg     *config.Config
	version string
}

// NewHandler creates the API handler set.
func NewHandler(db *database.DB, marketSvc *market.Service, engine Recommender, cfg *config.Config, version string) *Handler {
	return &Handler{
		db:      db,
		market:  marketSvc,
		engine:  engine,
		cfg:     cfg,
		version: version,
	}
}
