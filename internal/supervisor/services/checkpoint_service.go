// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package services

import (
	"context"
	"time"

	"github.com/plotshare/plotshare/internal/logging"
)

// Checkpointer is the subset of the database used by the checkpoint
// service. Satisfied by *database.DB.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// CheckpointService periodically flushes the DuckDB write-ahead log so an
// unclean shutdown loses at most one interval of work.
type CheckpointService struct {
	db       Checkpointer
	interval time.Duration
}

// NewCheckpointService creates a checkpoint service. Intervals under a
// minute are raised to the five minute default.
func NewCheckpointService(db Checkpointer, interval time.Duration) *CheckpointService {
	if interval < time.Minute {
		interval = 5 * time.Minute
	}
	return &CheckpointService{db: db, interval: interval}
}

// Serve implements suture.Service.
func (c *CheckpointService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.db.Checkpoint(ctx); err != nil {
				logging.Warn().Err(err).Msg("Periodic checkpoint failed")
				continue
			}
			logging.Debug().Dur("interval", c.interval).Msg("Database checkpoint complete")
		}
	}
}

// String identifies the service in supervisor logs.
func (c *CheckpointService) String() string {
	return "db-checkpoint"
}
