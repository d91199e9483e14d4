// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plotshare/plotshare/internal/middleware"
)

// Router wires handlers into a Chi mux.
type Router struct {
	handler     *Handler
	rateLimiter *middleware.RateLimiter
}

// NewRouter creates a router around the given handler set. The rate limiter
// is created from the handler's security config and owns a cleanup goroutine;
// call Close when the router is discarded.
func NewRouter(handler *Handler) *Router {
	var rl *middleware.RateLimiter
	if !handler.cfg.Security.RateLimitDisabled {
		rl = middleware.NewRateLimiter(
			handler.cfg.Security.RateLimitReqs,
			handler.cfg.Security.RateLimitWindow,
		)
	}
	return &Router{handler: handler, rateLimiter: rl}
}

// Close stops the rate limiter's background cleanup.
func (router *Router) Close() {
	if router.rateLimiter != nil {
		router.rateLimiter.Stop()
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler so it can be used with r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   router.handler.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"ETag", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health gets its own permissive limit so monitoring probes never
	// contend with API traffic.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Get("/", router.handler.Health)
	})

	r.Route("/api/v1", func(r chi.Router) {
		if router.rateLimiter != nil {
			r.Use(chiMiddleware(router.rateLimiter.Middleware))
		}
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", router.handler.Listings)
			r.Post("/", router.handler.CreateListing)
			r.Get("/search", router.handler.SearchListings)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", router.handler.GetListing)
				r.Patch("/", router.handler.UpdateListing)
				r.Delete("/", router.handler.DeleteListing)
				r.Post("/purchase", router.handler.PurchaseListing)
			})
		})

		r.Get("/recommendations", router.handler.Recommendations)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", router.handler.CreateUser)
			r.Get("/{id}", router.handler.GetUser)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
