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

// CreateUser inserts a new user and returns it with generated fields set.
func (db *DB) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	role := models.UserRole(req.Role)
	if role == "" {
		role = models.RoleCommunityMember
	}

	user := &models.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      role,
		Postcode:  req.Postcode,
		Points:    req.Points,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, first_name, last_name, role, postcode, points, verified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.FirstName, user.LastName, string(user.Role),
		user.Postcode, user.Points, user.Verified, user.CreatedAt, user.UpdatedAt)
	metrics.RecordDBQuery("insert", "users", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

// GetUser fetches a user by ID. Returns ErrUserNotFound when absent.
func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, email, first_name, last_name, role, postcode, points, verified, created_at, updated_at
		 FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	metrics.RecordDBQuery("select", "users", time.Since(start), err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user %s: %w", id, err)
	}
	return user, nil
}

// GetUserByEmail fetches a user by email. Returns ErrUserNotFound when absent.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, email, first_name, last_name, role, postcode, points, verified, created_at, updated_at
		 FROM users WHERE email = ?`, email)

	user, err := scanUser(row)
	metrics.RecordDBQuery("select", "users", time.Since(start), err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	return user, nil
}

// UpdateUserPostcode sets a user's postcode.
func (db *DB) UpdateUserPostcode(ctx context.Context, id, postcode string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET postcode = ?, updated_at = ? WHERE id = ?`,
		postcode, time.Now().UTC(), id)
	metrics.RecordDBQuery("update", "users", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update user postcode: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	var u models.User
	var role string
	err := s.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &role,
		&u.Postcode, &u.Points, &u.Verified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = models.UserRole(role)
	return &u, nil
}
