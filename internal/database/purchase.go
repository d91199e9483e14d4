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
	"time"

	"github.com/plotshare/plotshare/internal/logging"
	"github.com/plotshare/plotshare/internal/metrics"
	"github.com/plotshare/plotshare/internal/models"
)

// PurchaseListing transfers a listing from seller to buyer inside a single
// transaction. The status flip is a conditional update on status='open',
// so two concurrent buyers cannot both win: the loser's update matches
// zero rows and the transaction rolls back.
//
// Rejections are returned as the sentinel errors in errors.go; callers
// translate them into structured API responses.
func (db *DB) PurchaseListing(ctx context.Context, listingID, buyerID string) (*models.PurchaseResult, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	result, err := db.purchaseListing(ctx, listingID, buyerID)
	metrics.RecordDBQuery("purchase", "listings", time.Since(start), err)

	switch {
	case err == nil:
		metrics.PurchasesTotal.WithLabelValues("completed").Inc()
	case errors.Is(err, ErrListingNotFound), errors.Is(err, ErrAlreadyPurchased),
		errors.Is(err, ErrSelfPurchase), errors.Is(err, ErrInsufficientPoints):
		metrics.PurchasesTotal.WithLabelValues("rejected").Inc()
	default:
		metrics.PurchasesTotal.WithLabelValues("error").Inc()
	}

	return result, err
}

func (db *DB) purchaseListing(ctx context.Context, listingID, buyerID string) (*models.PurchaseResult, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin purchase transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	var price int
	var status, sellerID string
	err = tx.QueryRowContext(ctx,
		`SELECT price, status, created_by FROM listings WHERE id = ?`, listingID).
		Scan(&price, &status, &sellerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to read listing %s: %w", listingID, err)
	}

	if status != string(models.ListingStatusOpen) {
		return nil, ErrAlreadyPurchased
	}
	if sellerID == buyerID {
		return nil, ErrSelfPurchase
	}

	var buyerPoints int
	err = tx.QueryRowContext(ctx,
		`SELECT points FROM users WHERE id = ?`, buyerID).Scan(&buyerPoints)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to read buyer %s: %w", buyerID, err)
	}
	if buyerPoints < price {
		return nil, ErrInsufficientPoints
	}

	now := time.Now().UTC()

	// The conditional update is the linearization point.
	res, err := tx.ExecContext(ctx,
		`UPDATE listings SET status = ?, purchased_by = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(models.ListingStatusClosed), buyerID, now,
		listingID, string(models.ListingStatusOpen))
	if err != nil {
		return nil, fmt.Errorf("failed to close listing %s: %w", listingID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrAlreadyPurchased
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET points = points - ?, updated_at = ? WHERE id = ?`,
		price, now, buyerID); err != nil {
		return nil, fmt.Errorf("failed to debit buyer %s: %w", buyerID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET points = points + ?, updated_at = ? WHERE id = ?`,
		price, now, sellerID); err != nil {
		return nil, fmt.Errorf("failed to credit seller %s: %w", sellerID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purchase: %w", err)
	}

	listing, err := db.GetListing(ctx, listingID)
	if err != nil {
		// The purchase committed; surface the listing read failure but
		// log it so the transfer is traceable.
		logging.Error().Err(err).Str("listing_id", listingID).Msg("Purchase committed but listing re-read failed")
		return nil, fmt.Errorf("purchase committed but listing read failed: %w", err)
	}

	return &models.PurchaseResult{
		Listing:     *listing,
		BuyerPoints: buyerPoints - price,
	}, nil
}

// rollbackQuietly rolls back a transaction, ignoring the error returned
// after a successful commit.
func rollbackQuietly(tx *sql.Tx) {
	_ = tx.Rollback()
}
