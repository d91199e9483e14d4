// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package models

import "time"

// UserRole classifies a community member.
type UserRole string

// User roles.
const (
	RoleAdmin           UserRole = "admin"
	RolePlotOwner       UserRole = "plotOwner"
	RoleCommunityMember UserRole = "communityMember"
)

// User is a Plotshare community member. Points are the marketplace
// currency, earned by lending gardens and spent on purchases.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      UserRole  `json:"role"`
	Postcode  string    `json:"postcode"`
	Points    int       `json:"points"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUserRequest is the payload for registering a user.
type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required,min=1,max=50"`
	LastName  string `json:"last_name" validate:"required,min=1,max=50"`
	Role      string `json:"role,omitempty" validate:"omitempty,oneof=admin plotOwner communityMember"`
	Postcode  string `json:"postcode" validate:"required,min=3"`
	Points    int    `json:"points,omitempty" validate:"omitempty,min=0"`
}

// Taskboard groups listings under a directory-style path. A listing
// created with a path is filed on the board named by the final segment.
type Taskboard struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Path      string    `json:"path"`
	Listed    bool      `json:"listed"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}
