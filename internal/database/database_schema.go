// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context for schema operations with a generous
// timeout. Schema creation on a cold volume can be slow.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := db.getTableCreationQueries()

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// getTableCreationQueries returns the consolidated schema.
// Incremental changes go through getMigrations, not here.
func (db *DB) getTableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'communityMember',
			postcode TEXT NOT NULL,
			points INTEGER NOT NULL DEFAULT 0,
			verified BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// location_0/location_1 hold the scaled grid pair stamped at
		// creation time; both are 0 when the postcode did not resolve.
		`CREATE TABLE IF NOT EXISTS listings (
			id UUID PRIMARY KEY,
			type TEXT NOT NULL DEFAULT 'item',
			category TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			price INTEGER NOT NULL DEFAULT 0,
			quantity INTEGER NOT NULL DEFAULT 1,
			status TEXT NOT NULL DEFAULT 'open',
			image_urls TEXT,
			pickup_method TEXT NOT NULL,
			postcode TEXT NOT NULL,
			location_0 DOUBLE NOT NULL DEFAULT 0,
			location_1 DOUBLE NOT NULL DEFAULT 0,
			created_by UUID NOT NULL,
			purchased_by UUID,
			taskboard_id UUID,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// path is the directory part of a sanitized board path; title is
		// the final segment. The pair is the lookup key.
		`CREATE TABLE IF NOT EXISTS taskboards (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			path TEXT NOT NULL,
			listed BOOLEAN NOT NULL DEFAULT false,
			owner UUID NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (path, title)
		)`,

		`CREATE TABLE IF NOT EXISTS preference_profiles (
			group_type TEXT PRIMARY KEY,
			item_weight DOUBLE NOT NULL,
			service_weight DOUBLE NOT NULL,
			share_weight DOUBLE NOT NULL,
			shared_plot_weight DOUBLE NOT NULL DEFAULT 0,
			private_plot_weight DOUBLE NOT NULL DEFAULT 0,
			expires_at TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS market_events (
			id UUID PRIMARY KEY,
			event_type TEXT NOT NULL,
			listing_id UUID NOT NULL,
			actor_id UUID NOT NULL,
			payload TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}
}

// createIndexes creates query-path indexes
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_type ON listings(type)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_created_by ON listings(created_by)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_market_events_listing ON market_events(listing_id)`,
		`CREATE INDEX IF NOT EXISTS idx_taskboards_path ON taskboards(path)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}

	return nil
}
