// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/plotshare/plotshare/internal/database"
	"github.com/plotshare/plotshare/internal/models"
)

// CreateUser handles POST /api/v1/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req models.CreateUserRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	if _, err := h.db.GetUserByEmail(r.Context(), req.Email); err == nil {
		respondError(w, http.StatusConflict, "EMAIL_TAKEN", "A user with this email already exists", nil)
		return
	} else if !errors.Is(err, database.ErrUserNotFound) {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check email", err)
		return
	}

	user, err := h.db.CreateUser(r.Context(), &req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create user", err)
		return
	}

	respondData(w, http.StatusCreated, user, started)
}

// GetUser handles GET /api/v1/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	user, err := h.db.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load user", err)
		return
	}

	respondData(w, http.StatusOK, user, started)
}
