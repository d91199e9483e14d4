// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/plotshare/plotshare/internal/metrics"
	"github.com/plotshare/plotshare/internal/models"
)

// SampleListingsNear draws a random sample of up to n listings of one type
// within a circle around center, honoring the query's base filters. The
// circle test compares squared distances against the stored location pair.
func (db *DB) SampleListingsNear(ctx context.Context, t models.ListingType, n int, center [2]float64, radius float64, base models.ListingQuery) ([]models.Listing, error) {
	if n <= 0 {
		return []models.Listing{}, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	base.Type = t
	where, args := listingFilterClause(base)
	if where == "" {
		where = " WHERE "
	} else {
		where += " AND "
	}
	where += `(l.location_0 - ?) * (l.location_0 - ?) + (l.location_1 - ?) * (l.location_1 - ?) <= ? * ?`
	args = append(args, center[0], center[0], center[1], center[1], radius, radius)

	query := `SELECT` + listingColumns + listingFrom + where + ` ORDER BY random() LIMIT ?`
	args = append(args, n)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("sample", "listings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to sample %s listings: %w", t, err)
	}
	defer closeQuietly(rows)

	return collectListings(rows)
}

// CountListings returns the number of listings matching the query's base
// filters, without any geographic bound or paging.
func (db *DB) CountListings(ctx context.Context, base models.ListingQuery) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := listingFilterClause(base)

	var total int
	start := time.Now()
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM listings l`+where, args...).Scan(&total)
	metrics.RecordDBQuery("count", "listings", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return total, nil
}
