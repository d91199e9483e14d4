// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package database

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/plotshare/plotshare/internal/logging"
	"github.com/plotshare/plotshare/internal/models"
)

// SeedDemoData populates an empty database with demo users, listings, and
// preference profiles so a fresh install has something to browse. It is a
// no-op when users already exist.
func (db *DB) SeedDemoData(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var existing int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&existing); err != nil {
		return fmt.Errorf("failed to check for existing users: %w", err)
	}
	if existing > 0 {
		logging.Debug().Int("users", existing).Msg("Skipping demo seed, database not empty")
		return nil
	}

	logging.Info().Msg("Seeding database with demo data")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// Fife postcodes resolving under the ky shard of the reference data.
	seedUsers := []struct {
		first, last, email, postcode string
		points                       int
	}{
		{"Alice", "Baxter", "alice@example.org", "KY14 6EA", 120},
		{"Bram", "Clark", "bram@example.org", "KY15 5AS", 80},
		{"Catrin", "Davies", "catrin@example.org", "KY16 8BP", 200},
		{"Dev", "Eriksen", "dev@example.org", "KY14 6EA", 60},
		{"Elin", "Fraser", "elin@example.org", "KY15 5AS", 150},
	}

	userIDs := make([]string, 0, len(seedUsers))
	now := time.Now().UTC()
	for _, u := range seedUsers {
		id := uuid.NewString()
		_, err := db.conn.ExecContext(ctx,
			`INSERT INTO users (id, email, first_name, last_name, role, postcode, points, verified, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, u.email, u.first, u.last, string(models.RoleCommunityMember),
			u.postcode, u.points, true, now, now)
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.email, err)
		}
		userIDs = append(userIDs, id)
	}

	seedListings := []struct {
		name, category, description string
		listingType                 models.ListingType
		price                       int
	}{
		{"Hand fork and trowel set", "tools", "Lightly used, good condition", models.ListingTypeItem, 5},
		{"Seed potatoes, 2kg", "seeds", "Charlotte second earlies", models.ListingTypeItem, 8},
		{"Wheelbarrow", "tools", "Sturdy steel barrow", models.ListingTypeItem, 15},
		{"Hedge trimming", "garden-care", "An afternoon of hedge work", models.ListingTypeService, 25},
		{"Greenhouse repair", "garden-care", "Glazing and frame fixes", models.ListingTypeService, 30},
		{"Raised bed share", "plots", "Half a raised bed for the season", models.ListingTypeShare, 20},
		{"Polytunnel corner", "plots", "Shared polytunnel space", models.ListingTypeShare, 35},
		{"Compost, 50L", "supplies", "Home-made leaf mould", models.ListingTypeItem, 4},
	}

	for _, l := range seedListings {
		owner := seedUsers[rng.Intn(len(seedUsers))]
		listing := &models.Listing{
			ID:           uuid.NewString(),
			Type:         l.listingType,
			Category:     l.category,
			Name:         l.name,
			Description:  l.description,
			Price:        l.price,
			Quantity:     1,
			Status:       models.ListingStatusOpen,
			PickupMethod: models.PickupMyLocation,
			Postcode:     owner.postcode,
			CreatedBy:    userIDs[rng.Intn(len(userIDs))],
			CreatedAt:    now.Add(-time.Duration(rng.Intn(72)) * time.Hour),
			UpdatedAt:    now,
		}
		if err := db.InsertListing(ctx, listing); err != nil {
			return fmt.Errorf("failed to seed listing %s: %w", l.name, err)
		}
	}

	profiles := []models.PreferenceProfile{
		{GroupType: "22", ItemWeight: 0.5, ServiceWeight: 0.3, ShareWeight: 0.2, SharedPlotWeight: 0.6, PrivatePlotWeight: 0.4},
		{GroupType: "23", ItemWeight: 0.4, ServiceWeight: 0.4, ShareWeight: 0.2, SharedPlotWeight: 0.5, PrivatePlotWeight: 0.5},
		{GroupType: "24", ItemWeight: 0.3, ServiceWeight: 0.3, ShareWeight: 0.4, SharedPlotWeight: 0.7, PrivatePlotWeight: 0.3},
		{GroupType: "25", ItemWeight: 0.4, ServiceWeight: 0.2, ShareWeight: 0.4, SharedPlotWeight: 0.4, PrivatePlotWeight: 0.6},
	}
	for i := range profiles {
		if err := db.UpsertPreferenceProfile(ctx, &profiles[i]); err != nil {
			return fmt.Errorf("failed to seed preference profile %s: %w", profiles[i].GroupType, err)
		}
	}

	logging.Info().
		Int("users", len(seedUsers)).
		Int("listings", len(seedListings)).
		Int("profiles", len(profiles)).
		Msg("Demo data seeded")
	return nil
}
