// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/plotshare/plotshare/internal/metrics"
	"github.com/plotshare/plotshare/internal/models"
)

// InsertMarketEvent appends one event to the marketplace audit feed.
func (db *DB) InsertMarketEvent(ctx context.Context, event *models.MarketEvent) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO market_events (id, event_type, listing_id, actor_id, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, event.EventType, event.ListingID, event.ActorID, event.Payload, event.CreatedAt)
	metrics.RecordDBQuery("insert", "market_events", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert market event: %w", err)
	}

	metrics.EventsPersisted.Inc()
	return nil
}

// GetMarketEvents returns the newest events for one listing, newest first.
func (db *DB) GetMarketEvents(ctx context.Context, listingID string, limit int) ([]models.MarketEvent, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit < 1 {
		limit = 50
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, event_type, listing_id, actor_id, payload, created_at
		 FROM market_events WHERE listing_id = ? ORDER BY created_at DESC LIMIT ?`,
		listingID, limit)
	metrics.RecordDBQuery("select", "market_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query market events: %w", err)
	}
	defer closeQuietly(rows)

	events := []models.MarketEvent{}
	for rows.Next() {
		var e models.MarketEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.ListingID, &e.ActorID, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan market event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
