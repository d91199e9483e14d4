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

	"github.com/plotshare/plotshare/internal/metrics"
	"github.com/plotshare/plotshare/internal/models"
)

// GetPreferenceProfile fetches the stored weights for a demographic group
// type. A missing or expired profile returns (nil, nil): absence is a
// normal condition and callers fall back to uniform weighting.
func (db *DB) GetPreferenceProfile(ctx context.Context, groupType string) (*models.PreferenceProfile, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT group_type, item_weight, service_weight, share_weight,
		        shared_plot_weight, private_plot_weight, expires_at
		 FROM preference_profiles WHERE group_type = ?`, groupType)

	var p models.PreferenceProfile
	var expires sql.NullTime
	err := row.Scan(&p.GroupType, &p.ItemWeight, &p.ServiceWeight, &p.ShareWeight,
		&p.SharedPlotWeight, &p.PrivatePlotWeight, &expires)
	metrics.RecordDBQuery("select", "preference_profiles", time.Since(start), err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query preference profile %s: %w", groupType, err)
	}

	if expires.Valid {
		p.ExpiresAt = &expires.Time
	}
	if p.Expired(time.Now()) {
		return nil, nil
	}
	return &p, nil
}

// UpsertPreferenceProfile writes or replaces the weights for one group type.
func (db *DB) UpsertPreferenceProfile(ctx context.Context, p *models.PreferenceProfile) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO preference_profiles
			(group_type, item_weight, service_weight, share_weight,
			 shared_plot_weight, private_plot_weight, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (group_type) DO UPDATE SET
			item_weight = excluded.item_weight,
			service_weight = excluded.service_weight,
			share_weight = excluded.share_weight,
			shared_plot_weight = excluded.shared_plot_weight,
			private_plot_weight = excluded.private_plot_weight,
			expires_at = excluded.expires_at`,
		p.GroupType, p.ItemWeight, p.ServiceWeight, p.ShareWeight,
		p.SharedPlotWeight, p.PrivatePlotWeight, p.ExpiresAt)
	metrics.RecordDBQuery("upsert", "preference_profiles", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to upsert preference profile %s: %w", p.GroupType, err)
	}
	return nil
}

// DeletePreferenceProfile removes the stored weights for one group type.
// Deleting an absent profile is not an error.
func (db *DB) DeletePreferenceProfile(ctx context.Context, groupType string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM preference_profiles WHERE group_type = ?`, groupType)
	metrics.RecordDBQuery("delete", "preference_profiles", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to delete preference profile %s: %w", groupType, err)
	}
	return nil
}
