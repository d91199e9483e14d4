// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package api

import (
	"net/http"
	"time"
)

// healthStatus is the payload for the health endpoint.
type healthStatus struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Database  string `json:"database"`
	Listings  int64  `json:"listings"`
	Users     int64  `json:"users"`
	Timestamp string `json:"timestamp"`
}

// Health reports liveness plus a database round-trip. A failing database
// degrades the status rather than failing the endpoint, so monitors can
// tell "down" from "unhealthy".
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	status := healthStatus{
		Status:    "ok",
		Version:   h.version,
		Database:  "ok",
		Timestamp: started.UTC().Format(time.RFC3339),
	}

	if err := h.db.Ping(r.Context()); err != nil {
		status.Status = "degraded"
		status.Database = "unreachable"
		respondData(w, http.StatusServiceUnavailable, status, started)
		return
	}

	listings, users, err := h.db.GetRecordCounts(r.Context())
	if err == nil {
		status.Listings = listings
		status.Users = users
	}

	respondData(w, http.StatusOK, status, started)
}
