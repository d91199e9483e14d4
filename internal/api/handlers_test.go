// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/plotshare/plotshare/internal/config"
	"github.com/plotshare/plotshare/internal/database"
	"github.com/plotshare/plotshare/internal/geocode"
	"github.com/plotshare/plotshare/internal/market"
	"github.com/plotshare/plotshare/internal/models"
	"github.com/plotshare/plotshare/internal/recommend"
)

const kyShard = "KY14 6EA,24,702840,312317\nKY15 5AS,22,None,None\n"

// envelope mirrors models.APIResponse with raw data for per-test decoding.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error,omitempty"`
}

func setupTestServer(t *testing.T) (http.Handler, *database.DB) {
	t.Helper()

	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, "ky.csv"), []byte(kyShard), 0o600); err != nil {
		t.Fatalf("failed to write postcode shard: %v", err)
	}

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Errorf("failed to close database: %v", closeErr)
		}
	})

	cfg := &config.Config{
		Recommend: config.RecommendConfig{SearchRadius: 100, DefaultSuggestions: 10},
		API:       config.APIConfig{DefaultPageSize: 10, MaxPageSize: 100},
		Security:  config.SecurityConfig{RateLimitDisabled: true},
	}

	resolver := geocode.NewResolver(geocode.Config{DataDir: dataDir, CacheTTL: time.Minute})
	engine := recommend.New(db, resolver, cfg.Recommend.SearchRadius, cfg.Recommend.DefaultSuggestions)
	svc := market.NewService(db, resolver, nil)

	router := NewRouter(NewHandler(db, svc, engine, cfg, "test"))
	t.Cleanup(router.Close)

	return router.Setup(), db
}

// doJSON issues a request with an optional JSON body and decodes the
// envelope from the response.
func doJSON(t *testing.T, h http.Handler, method, target string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response envelope: %v (body: %s)", err, rec.Body.String())
	}
	return rec, env
}

func createUserViaAPI(t *testing.T, h http.Handler, email, postcode string, points int) models.User {
	t.Helper()

	rec, env := doJSON(t, h, http.MethodPost, "/api/v1/users", models.CreateUserRequest{
		Email:     email,
		FirstName: "Morag",
		LastName:  "Baxter",
		Postcode:  postcode,
		Points:    points,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating user, got %d: %s", rec.Code, rec.Body.String())
	}

	var user models.User
	if err := json.Unmarshal(env.Data, &user); err != nil {
		t.Fatalf("failed to decode user: %v", err)
	}
	return user
}

func createListingViaAPI(t *testing.T, h http.Handler, creator, name string, price int) models.Listing {
	t.Helper()

	rec, env := doJSON(t, h, http.MethodPost, "/api/v1/listings", models.CreateListingRequest{
		Name:         name,
		Price:        price,
		Category:     "produce",
		Description:  "surplus rhubarb crowns",
		PickupMethod: "myloc",
		Postcode:     "KY14 6EA",
		CreatedBy:    creator,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating listing, got %d: %s", rec.Code, rec.Body.String())
	}

	var listing models.Listing
	if err := json.Unmarshal(env.Data, &listing); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	return listing
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := setupTestServer(t)

	rec, env := doJSON(t, h, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env.Status != "success" {
		t.Errorf("expected success status, got %q", env.Status)
	}

	var health struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	if err := json.Unmarshal(env.Data, &health); err != nil {
		t.Fatalf("failed to decode health payload: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("expected ok, got %q", health.Status)
	}
	if health.Database != "ok" {
		t.Errorf("expected ok database, got %q", health.Database)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
}

func TestCreateUserValidationAndConflict(t *testing.T) {
	h, _ := setupTestServer(t)

	rec, env := doJSON(t, h, http.MethodPost, "/api/v1/users", models.CreateUserRequest{
		Email: "not-an-email", FirstName: "A", LastName: "B", Postcode: "KY14 6EA",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid email, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %+v", env.Error)
	}

	createUserViaAPI(t, h, "morag@fife.example", "KY14 6EA", 40)

	rec, env = doJSON(t, h, http.MethodPost, "/api/v1/users", models.CreateUserRequest{
		Email:     "morag@fife.example",
		FirstName: "Morag",
		LastName:  "Baxter",
		Postcode:  "KY14 6EA",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "EMAIL_TAKEN" {
		t.Errorf("expected EMAIL_TAKEN, got %+v", env.Error)
	}
}

func TestGetUser(t *testing.T) {
	h, _ := setupTestServer(t)

	created := createUserViaAPI(t, h, "morag@fife.example", "KY14 6EA", 75)

	rec, env := doJSON(t, h, http.MethodGet, "/api/v1/users/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var user models.User
	if err := json.Unmarshal(env.Data, &user); err != nil {
		t.Fatalf("failed to decode user: %v", err)
	}
	if user.Points != 75 {
		t.Errorf("expected 75 points, got %d", user.Points)
	}

	rec, env = doJSON(t, h, http.MethodGet, "/api/v1/users/00000000-0000-4000-8000-000000000000", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %+v", env.Error)
	}
}

func TestCreateListingStampsLocation(t *testing.T) {
	h, _ := setupTestServer(t)

	user := createUserViaAPI(t, h, "morag@fife.example", "KY14 6EA", 40)
	listing := createListingViaAPI(t, h, user.ID, "Rhubarb crowns", 12)

	want := [2]float64{70.2840, 31.2317}
	if listing.Location != want {
		t.Errorf("expected location %v, got %v", want, listing.Location)
	}
	if listing.Status != models.ListingStatusOpen {
		t.Errorf("expected open status, got %q", listing.Status)
	}
	if listing.Creator == nil || listing.Creator.Email != "morag@fife.example" {
		t.Errorf("expected hydrated creator, got %+v", listing.Creator)
	}
}

func TestCreateListingRejections(t *testing.T) {
	h, _ := setupTestServer(t)

	rec, env := doJSON(t, h, http.MethodPost, "/api/v1/listings", models.CreateListingRequest{
		Name:         "Orphan listing",
		Price:        5,
		Category:     "produce",
		PickupMethod: "myloc",
		Postcode:     "KY14 6EA",
		CreatedBy:    "00000000-0000-4000-8000-000000000000",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown creator, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Message != "Must have a createdBy attribute" {
		t.Errorf("unexpected error payload: %+v", env.Error)
	}

	user := createUserViaAPI(t, h, "angus@fife.example", "ZZ9 9ZZ", 40)
	rec, env = doJSON(t, h, http.MethodPost, "/api/v1/listings", models.CreateListingRequest{
		Name:         "Unmapped listing",
		Price:        5,
		Category:     "produce",
		PickupMethod: "myloc",
		Postcode:     "ZZ9 9ZZ",
		CreatedBy:    user.ID,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unresolvable postcode, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Message != "Listing must be from a group F postcode" {
		t.Errorf("unexpected error payload: %+v", env.Error)
	}
}

func TestListingsPaginationAndSort(t *testing.T) {
	h, _ := setupTestServer(t)

	user := createUserViaAPI(t, h, "morag@fife.example", "KY14 6EA", 40)
	for i := 0; i < 12; i++ {
		createListingViaAPI(t, h, user.ID, fmt.Sprintf("Listing %02d", i), i+1)
	}

	rec, env := doJSON(t, h, http.MethodGet, "/api/v1/listings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var page models.ListingPage
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("failed to decode listing page: %v", err)
	}
	if page.Pagination.Total != 12 {
		t.Errorf("expected total 12, got %d", page.Pagination.Total)
	}
	if len(page.Listings) != 10 {
		t.Errorf("expected default page of 10, got %d", len(page.Listings))
	}
	if page.Pagination.Pages != 2 {
		t.Errorf("expected 2 pages, got %v", page.Pagination.Pages)
	}

	rec, env = doJSON(t, h, http.MethodGet, "/api/v1/listings?sort=price:asc&limit=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("failed to decode sorted page: %v", err)
	}
	if len(page.Listings) != 3 {
		t.Fatalf("expected 3 listings, got %d", len(page.Listings))
	}
	if page.Listings[0].Price != 1 {
		t.Errorf("expected cheapest first, got price %d", page.Listings[0].Price)
	}

	rec, _ = doJSON(t, h, http.MethodGet, "/api/v1/listings?sort=nonsense", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown sort, got %d", rec.Code)
	}
}

func TestGetUpdateDeleteListing(t *testing.T) {
	h, _ := setupTestServer(t)

	user := createUserViaAPI(t, h, "morag@fife.example", "KY14 6EA", 40)
	listing := createListingViaAPI(t, h, user.ID, "Hand fork", 6)

	newName := "Hand fork and trowel"
	newPrice := 9
	rec, env := doJSON(t, h, http.MethodPatch, "/api/v1/listings/"+listing.ID, models.UpdateListingRequest{
		Name:  &newName,
		Price: &newPrice,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 updating listing, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated models.Listing
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("failed to decode updated listing: %v", err)
	}
	if updated.Name != newName || updated.Price != newPrice {
		t.Errorf("update not applied: %+v", updated)
	}

	rec, _ = doJSON(t, h, http.MethodDelete, "/api/v1/listings/"+listing.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 deleting listing, got %d", rec.Code)
	}

	rec, env = doJSON(t, h, http.MethodGet, "/api/v1/listings/"+listing.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Message != "Listing not found" {
		t.Errorf("unexpected error payload: %+v", env.Error)
	}
}

func TestSearchEndpoint(t *testing.T) {
	h, _ := setupTestServer(t)

	user := createUserViaAPI(t, h, "morag@fife.example", "KY14 6EA", 40)
	createListingViaAPI(t, h, user.ID, "Heritage tomato plugs", 4)
	createListingViaAPI(t, h, user.ID, "Seed potatoes", 3)

	rec, env := doJSON(t, h, http.MethodGet, "/api/v1/listings/search?q=TOMATO", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var results []models.Listing
	if err := json.Unmarshal(env.Data, &results); err != nil {
		t.Fatalf("failed to decode search results: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Heritage tomato plugs" {
		t.Errorf("unexpected search results: %+v", results)
	}

	rec, _ = doJSON(t, h, http.MethodGet, "/api/v1/listings/search", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without q, got %d", rec.Code)
	}
}

func TestPurchaseEndpoint(t *testing.T) {
	h, _ := setupTestServer(t)

	seller := createUserViaAPI(t, h, "morag@fife.example", "KY14 6EA", 100)
	buyer := createUserViaAPI(t, h, "angus@fife.example", "KY14 6EA", 50)
	listing := createListingViaAPI(t, h, seller.ID, "Cold frame", 30)

	rec, env := doJSON(t, h, http.MethodPost, "/api/v1/listings/"+listing.ID+"/purchase",
		map[string]string{"user_id": seller.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for rejected purchase, got %d", rec.Code)
	}
	var outcome struct {
		Success bool                   `json:"success"`
		Error   string                 `json:"error"`
		Result  *models.PurchaseResult `json:"result"`
	}
	if err := json.Unmarshal(env.Data, &outcome); err != nil {
		t.Fatalf("failed to decode purchase outcome: %v", err)
	}
	if outcome.Success {
		t.Error("expected self purchase to be rejected")
	}
	if outcome.Error != "You cannot purchase your own listing" {
		t.Errorf("unexpected rejection message: %q", outcome.Error)
	}

	rec, env = doJSON(t, h, http.MethodPost, "/api/v1/listings/"+listing.ID+"/purchase",
		map[string]string{"user_id": buyer.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for purchase, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(env.Data, &outcome); err != nil {
		t.Fatalf("failed to decode purchase outcome: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("expected purchase to succeed, got error %q", outcome.Error)
	}
	if outcome.Result == nil || outcome.Result.BuyerPoints != 20 {
		t.Errorf("expected buyer balance 20, got %+v", outcome.Result)
	}

	rec, env = doJSON(t, h, http.MethodPost, "/api/v1/listings/"+listing.ID+"/purchase",
		map[string]string{"user_id": buyer.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for repeat purchase, got %d", rec.Code)
	}
	if err := json.Unmarshal(env.Data, &outcome); err != nil {
		t.Fatalf("failed to decode purchase outcome: %v", err)
	}
	if outcome.Success || outcome.Error != "This listing has already been purchased" {
		t.Errorf("unexpected repeat purchase outcome: %+v", outcome)
	}
}

func TestRecommendationsEndpoint(t *testing.T) {
	h, _ := setupTestServer(t)

	rec, _ := doJSON(t, h, http.MethodGet, "/api/v1/recommendations", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without postcode, got %d", rec.Code)
	}

	user := createUserViaAPI(t, h, "morag@fife.example", "KY14 6EA", 40)
	for i := 0; i < 6; i++ {
		createListingViaAPI(t, h, user.ID, fmt.Sprintf("Nearby %d", i), i+1)
	}

	rec, env := doJSON(t, h, http.MethodGet, "/api/v1/recommendations?postcode=KY14+6EA", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var page models.ListingPage
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("failed to decode recommendation page: %v", err)
	}
	if page.Pagination.Total != 6 {
		t.Errorf("expected total 6, got %d", page.Pagination.Total)
	}
	if page.Pagination.Pages != 1 {
		t.Errorf("expected pages 1, got %v", page.Pagination.Pages)
	}
	if len(page.Listings) == 0 {
		t.Error("expected at least one suggestion near the centre")
	}

	// Unresolvable postcodes fall back to an empty page rather than an error.
	rec, env = doJSON(t, h, http.MethodGet, "/api/v1/recommendations?postcode=ZZ9+9ZZ", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unresolved postcode, got %d", rec.Code)
	}
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("failed to decode fallback page: %v", err)
	}
	if len(page.Listings) != 0 || page.Pagination.Pages != 0 {
		t.Errorf("expected empty fallback page, got %+v", page.Pagination)
	}

	rec, _ = doJSON(t, h, http.MethodGet, "/api/v1/recommendations?postcode=KY14+6EA&itemWeight=1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for partial weight override, got %d", rec.Code)
	}
}

func TestResponseCarriesETagAndRequestID(t *testing.T) {
	h, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("ETag") == "" {
		t.Error("expected ETag header on JSON responses")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}
