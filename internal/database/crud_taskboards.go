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

	"github.com/google/uuid"

	"github.com/plotshare/plotshare/internal/metrics"
	"github.com/plotshare/plotshare/internal/models"
)

// GetTaskboardByPath fetches a taskboard by its sanitized directory path
// and title. Returns ErrTaskboardNotFound when absent.
func (db *DB) GetTaskboardByPath(ctx context.Context, path, title string) (*models.Taskboard, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, title, path, listed, owner, created_at FROM taskboards WHERE path = ? AND title = ?`,
		path, title)

	board, err := scanTaskboard(row)
	metrics.RecordDBQuery("select", "taskboards", time.Since(start), err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskboardNotFound
		}
		return nil, fmt.Errorf("failed to query taskboard %s%s: %w", path, title, err)
	}
	return board, nil
}

// CreateTaskboard inserts a new board for the given path and owner. The
// title is the final path segment, resolved by the caller.
func (db *DB) CreateTaskboard(ctx context.Context, title, path, owner string) (*models.Taskboard, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	board := &models.Taskboard{
		ID:        uuid.NewString(),
		Title:     title,
		Path:      path,
		Owner:     owner,
		CreatedAt: time.Now().UTC(),
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO taskboards (id, title, path, listed, owner, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		board.ID, board.Title, board.Path, board.Listed, board.Owner, board.CreatedAt)
	metrics.RecordDBQuery("insert", "taskboards", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to insert taskboard: %w", err)
	}
	return board, nil
}

// SetTaskboardListed flips a board's listed flag.
func (db *DB) SetTaskboardListed(ctx context.Context, id string, listed bool) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE taskboards SET listed = ? WHERE id = ?`, listed, id)
	metrics.RecordDBQuery("update", "taskboards", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update taskboard %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTaskboardNotFound
	}
	return nil
}

// ListTaskboards returns all boards, listed first, newest first within
// each group.
func (db *DB) ListTaskboards(ctx context.Context) ([]models.Taskboard, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, path, listed, owner, created_at FROM taskboards
		 ORDER BY listed DESC, created_at DESC`)
	metrics.RecordDBQuery("select", "taskboards", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query taskboards: %w", err)
	}
	defer closeQuietly(rows)

	boards := []models.Taskboard{}
	for rows.Next() {
		board, err := scanTaskboard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan taskboard: %w", err)
		}
		boards = append(boards, *board)
	}
	return boards, rows.Err()
}

func scanTaskboard(s scanner) (*models.Taskboard, error) {
	var b models.Taskboard
	err := s.Scan(&b.ID, &b.Title, &b.Path, &b.Listed, &b.Owner, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
