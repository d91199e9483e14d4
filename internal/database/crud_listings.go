// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/plotshare/plotshare/internal/metrics"
	"github.com/plotshare/plotshare/internal/models"
)

// listingColumns is the SELECT list shared by all listing reads that
// hydrate the creator. The LEFT JOIN keeps listings readable even if the
// creating user was deleted.
const listingColumns = `
	l.id, l.type, l.category, l.name, l.description, l.price, l.quantity,
	l.status, l.image_urls, l.pickup_method, l.postcode,
	l.location_0, l.location_1, l.created_by, l.purchased_by, l.taskboard_id,
	l.created_at, l.updated_at,
	u.id, u.email, u.first_name, u.last_name, u.role, u.postcode, u.points`

const listingFrom = ` FROM listings l LEFT JOIN users u ON l.created_by = u.id`

// InsertListing persists a fully-built listing.
func (db *DB) InsertListing(ctx context.Context, listing *models.Listing) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	images, err := json.Marshal(listing.ImageURLs)
	if err != nil {
		return fmt.Errorf("failed to encode image urls: %w", err)
	}

	start := time.Now()
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO listings (
			id, type, category, name, description, price, quantity, status,
			image_urls, pickup_method, postcode, location_0, location_1,
			created_by, purchased_by, taskboard_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		listing.ID, string(listing.Type), listing.Category, listing.Name,
		listing.Description, listing.Price, listing.Quantity, string(listing.Status),
		string(images), string(listing.PickupMethod), listing.Postcode,
		listing.Location[0], listing.Location[1],
		listing.CreatedBy, listing.PurchasedBy, listing.TaskboardID,
		listing.CreatedAt, listing.UpdatedAt)
	metrics.RecordDBQuery("insert", "listings", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}

	metrics.ListingsCreated.WithLabelValues(string(listing.Type)).Inc()
	return nil
}

// GetListing fetches one listing by ID with its creator hydrated.
// Returns ErrListingNotFound when absent.
func (db *DB) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT`+listingColumns+listingFrom+` WHERE l.id = ?`, id)

	listing, err := scanListing(row)
	metrics.RecordDBQuery("select", "listings", time.Since(start), err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to query listing %s: %w", id, err)
	}
	return listing, nil
}

// GetListings returns one page of listings matching the query filters,
// with pagination metadata computed from the unpaged match count.
func (db *DB) GetListings(ctx context.Context, q models.ListingQuery) (*models.ListingPage, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = 10
	}

	where, args := listingFilterClause(q)

	var total int
	start := time.Now()
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM listings l`+where, args...).Scan(&total)
	metrics.RecordDBQuery("count", "listings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}

	query := `SELECT` + listingColumns + listingFrom + where +
		` ORDER BY ` + listingOrderClause(q.Sort) + ` LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	start = time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "listings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer closeQuietly(rows)

	listings, err := collectListings(rows)
	if err != nil {
		return nil, err
	}

	return &models.ListingPage{
		Listings: listings,
		Pagination: models.Pagination{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: math.Ceil(float64(total) / float64(limit)),
		},
	}, nil
}

// UpdateListing writes the mutable columns of a listing.
func (db *DB) UpdateListing(ctx context.Context, listing *models.Listing) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	images, err := json.Marshal(listing.ImageURLs)
	if err != nil {
		return fmt.Errorf("failed to encode image urls: %w", err)
	}

	listing.UpdatedAt = time.Now().UTC()

	start := time.Now()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE listings SET
			name = ?, description = ?, category = ?, price = ?, quantity = ?,
			status = ?, image_urls = ?, taskboard_id = ?, updated_at = ?
		 WHERE id = ?`,
		listing.Name, listing.Description, listing.Category, listing.Price,
		listing.Quantity, string(listing.Status), string(images),
		listing.TaskboardID, listing.UpdatedAt, listing.ID)
	metrics.RecordDBQuery("update", "listings", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update listing %s: %w", listing.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrListingNotFound
	}
	return nil
}

// DeleteListing removes a listing by ID.
func (db *DB) DeleteListing(ctx context.Context, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id)
	metrics.RecordDBQuery("delete", "listings", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to delete listing %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrListingNotFound
	}
	return nil
}

// SearchListings finds open listings whose name, description, or category
// contains the term, case-insensitively. Results are capped at limit.
func (db *DB) SearchListings(ctx context.Context, term string, limit int) ([]models.Listing, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit < 1 {
		limit = 10
	}
	pattern := "%" + strings.ToLower(term) + "%"

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT`+listingColumns+listingFrom+`
		 WHERE l.status = 'open'
		   AND (lower(l.name) LIKE ? OR lower(l.description) LIKE ? OR lower(l.category) LIKE ?)
		 ORDER BY l.created_at DESC LIMIT ?`,
		pattern, pattern, pattern, limit)
	metrics.RecordDBQuery("search", "listings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to search listings: %w", err)
	}
	defer closeQuietly(rows)

	return collectListings(rows)
}

// listingFilterClause builds the WHERE clause for the query's base filters.
// The search term is excluded; SearchListings owns substring matching.
func listingFilterClause(q models.ListingQuery) (string, []any) {
	var conds []string
	var args []any

	if q.Status != "" {
		conds = append(conds, "l.status = ?")
		args = append(args, string(q.Status))
	}
	if q.Type != "" {
		conds = append(conds, "l.type = ?")
		args = append(args, string(q.Type))
	}
	if q.Category != "" {
		conds = append(conds, "l.category = ?")
		args = append(args, q.Category)
	}
	if q.CreatedBy != "" {
		conds = append(conds, "l.created_by = ?")
		args = append(args, q.CreatedBy)
	}
	if q.PurchasedBy != "" {
		conds = append(conds, "l.purchased_by = ?")
		args = append(args, q.PurchasedBy)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// listingOrderClause maps a sort option onto SQL. The default and any
// unknown value sort newest first.
func listingOrderClause(sort models.ListingSort) string {
	switch sort {
	case models.SortPriceAsc:
		return "l.price ASC"
	case models.SortPriceDesc:
		return "l.price DESC"
	case models.SortCreatedAtAsc:
		return "l.created_at ASC"
	case models.SortStatusOpen:
		return "CASE WHEN l.status = 'open' THEN 0 ELSE 1 END, l.created_at DESC"
	default:
		return "l.created_at DESC"
	}
}

func collectListings(rows *sql.Rows) ([]models.Listing, error) {
	listings := []models.Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, *listing)
	}
	return listings, rows.Err()
}

func scanListing(s scanner) (*models.Listing, error) {
	var l models.Listing
	var listingType, status, pickup string
	var images sql.NullString
	var description sql.NullString
	var creatorID, creatorEmail, creatorFirst, creatorLast, creatorRole, creatorPostcode sql.NullString
	var creatorPoints sql.NullInt64

	err := s.Scan(&l.ID, &listingType, &l.Category, &l.Name, &description,
		&l.Price, &l.Quantity, &status, &images, &pickup, &l.Postcode,
		&l.Location[0], &l.Location[1], &l.CreatedBy, &l.PurchasedBy,
		&l.TaskboardID, &l.CreatedAt, &l.UpdatedAt,
		&creatorID, &creatorEmail, &creatorFirst, &creatorLast,
		&creatorRole, &creatorPostcode, &creatorPoints)
	if err != nil {
		return nil, err
	}

	l.Type = models.ListingType(listingType)
	l.Status = models.ListingStatus(status)
	l.PickupMethod = models.PickupMethod(pickup)
	l.Description = description.String

	if images.Valid && images.String != "" {
		if err := json.Unmarshal([]byte(images.String), &l.ImageURLs); err != nil {
			return nil, fmt.Errorf("failed to decode image urls for listing %s: %w", l.ID, err)
		}
	}

	if creatorID.Valid {
		l.Creator = &models.User{
			ID:        creatorID.String,
			Email:     creatorEmail.String,
			FirstName: creatorFirst.String,
			LastName:  creatorLast.String,
			Role:      models.UserRole(creatorRole.String),
			Postcode:  creatorPostcode.String,
			Points:    int(creatorPoints.Int64),
		}
	}

	return &l, nil
}
