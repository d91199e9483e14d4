// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingCheckpointer struct {
	calls atomic.Int64
	err   error
}

func (c *countingCheckpointer) Checkpoint(_ context.Context) error {
	c.calls.Add(1)
	return c.err
}

func TestCheckpointServiceRuns(t *testing.T) {
	db := &countingCheckpointer{}
	svc := &CheckpointService{db: db, interval: 10 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if db.calls.Load() == 0 {
		t.Error("expected at least one checkpoint")
	}
}

func TestCheckpointServiceSurvivesErrors(t *testing.T) {
	db := &countingCheckpointer{err: errors.New("disk full")}
	svc := &CheckpointService{db: db, interval: 10 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if db.calls.Load() < 2 {
		t.Errorf("expected checkpoints to continue after failure, got %d", db.calls.Load())
	}
}

func TestCheckpointServiceDefaultInterval(t *testing.T) {
	svc := NewCheckpointService(&countingCheckpointer{}, 0)
	if svc.interval != 5*time.Minute {
		t.Errorf("expected default interval, got %v", svc.interval)
	}
}
