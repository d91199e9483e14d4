// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package database

import (
	"errors"
	"io"

	"github.com/plotshare/plotshare/internal/logging"
)

// Purchase rejection reasons. The messages are part of the API contract
// consumed by the web client and must not be reworded.
var (
	ErrListingNotFound    = errors.New("Listing not found")
	ErrAlreadyPurchased   = errors.New("This listing has already been purchased")
	ErrSelfPurchase       = errors.New("You cannot purchase your own listing")
	ErrInsufficientPoints = errors.New("Insufficient funds to make purchase")
)

// ErrUserNotFound is returned when a referenced user does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrTaskboardNotFound is returned when a service listing references a
// taskboard path that does not resolve to an existing board.
var ErrTaskboardNotFound = errors.New("taskboard not found")

// closeWithLog closes a resource and logs any error
// Use this for cleanup operations where errors should be acknowledged but not fail the operation
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup operations in error paths where Close() errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}
