// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package recommend

import (
	"context"
	"testing"

	"github.com/plotshare/plotshare/internal/geocode"
	"github.com/plotshare/plotshare/internal/models"
)

type sampleCall struct {
	listingType models.ListingType
	n           int
	center      [2]float64
	radius      float64
}

type fakeStore struct {
	profile     *models.PreferenceProfile
	profileGets int
	total       int
	samples     []sampleCall
	perStratum  []models.Listing
	listQueries []models.ListingQuery
	listResult  *models.ListingPage
}

func (f *fakeStore) GetListings(_ context.Context, q models.ListingQuery) (*models.ListingPage, error) {
	f.listQueries = append(f.listQueries, q)
	if f.listResult != nil {
		return f.listResult, nil
	}
	return &models.ListingPage{Listings: []models.Listing{}}, nil
}

func (f *fakeStore) CountListings(_ context.Context, _ models.ListingQuery) (int, error) {
	return f.total, nil
}

func (f *fakeStore) SampleListingsNear(_ context.Context, t models.ListingType, n int, center [2]float64, radius float64, _ models.ListingQuery) ([]models.Listing, error) {
	f.samples = append(f.samples, sampleCall{listingType: t, n: n, center: center, radius: radius})
	if n == 0 {
		return []models.Listing{}, nil
	}
	return f.perStratum, nil
}

func (f *fakeStore) GetPreferenceProfile(_ context.Context, _ string) (*models.PreferenceProfile, error) {
	f.profileGets++
	return f.profile, nil
}

type fakeResolver struct {
	result geocode.Result
	calls  int
}

func (f *fakeResolver) Lookup(_ context.Context, _ string) geocode.Result {
	f.calls++
	return f.result
}

func foundResult(groupType, eastings, northings string) geocode.Result {
	return geocode.Result{
		Outcome: geocode.OutcomeFound,
		Record: geocode.Record{
			Postcode:  "KY146EA",
			Group:     "F",
			Type:      geocode.MosaicType(groupType),
			Eastings:  eastings,
			Northings: northings,
		},
	}
}

func TestStratumCountsFallback(t *testing.T) {
	counts := stratumCounts(nil, 10)
	for _, listingType := range models.ListingTypes {
		if counts[listingType] != 3 {
			t.Errorf("Expected round(0.33*10)=3 for %s, got %d", listingType, counts[listingType])
		}
	}
}

func TestStratumCountsWeighted(t *testing.T) {
	profile := &models.PreferenceProfile{
		GroupType:     "22",
		ItemWeight:    0.5,
		ServiceWeight: 0.3,
		ShareWeight:   0.2,
	}
	counts := stratumCounts(profile, 10)
	if counts[models.ListingTypeItem] != 5 || counts[models.ListingTypeService] != 3 || counts[models.ListingTypeShare] != 2 {
		t.Errorf("Unexpected weighted counts: %v", counts)
	}
}

func TestStratumCountsNotRenormalised(t *testing.T) {
	profile := &models.PreferenceProfile{
		GroupType:     "23",
		ItemWeight:    0.8,
		ServiceWeight: 0.8,
		ShareWeight:   0.8,
	}
	counts := stratumCounts(profile, 10)
	sum := 0
	for _, n := range counts {
		sum += n
	}
	if sum != 24 {
		t.Errorf("Counts must not be renormalised, expected sum 24 got %d", sum)
	}
}

func TestRecommendTypeFilterBypassesEngine(t *testing.T) {
	store := &fakeStore{}
	resolver := &fakeResolver{}
	engine := New(store, resolver, 100, 10)

	_, err := engine.Recommend(context.Background(), "KY14 6EA", Options{
		Type: models.ListingTypeService,
		Page: 2,
	}, nil)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}

	if resolver.calls != 0 {
		t.Error("Type-filtered request must not resolve the postcode")
	}
	if len(store.listQueries) != 1 {
		t.Fatalf("Expected one plain listing query, got %d", len(store.listQueries))
	}
	if store.listQueries[0].Type != models.ListingTypeService || store.listQueries[0].Page != 2 {
		t.Errorf("Query did not carry the request options: %+v", store.listQueries[0])
	}
}

func TestRecommendUnresolvedPostcode(t *testing.T) {
	for _, outcome := range []geocode.Outcome{geocode.OutcomeNotFound, geocode.OutcomeReadFailure} {
		store := &fakeStore{total: 99}
		resolver := &fakeResolver{result: geocode.Result{Outcome: outcome}}
		engine := New(store, resolver, 100, 10)

		page, err := engine.Recommend(context.Background(), "ZZ9 9ZZ", Options{}, nil)
		if err != nil {
			t.Fatalf("Recommend failed for outcome %v: %v", outcome, err)
		}
		if len(page.Listings) != 0 {
			t.Errorf("Expected no listings for outcome %v", outcome)
		}
		if page.Pagination != (models.Pagination{}) {
			t.Errorf("Expected zeroed pagination for outcome %v, got %+v", outcome, page.Pagination)
		}
		if len(store.samples) != 0 {
			t.Errorf("Unresolved postcode must not sample, outcome %v", outcome)
		}
	}
}

func TestRecommendGeographicSampling(t *testing.T) {
	store := &fakeStore{
		profile: &models.PreferenceProfile{
			GroupType:     "24",
			ItemWeight:    0.5,
			ServiceWeight: 0.3,
			ShareWeight:   0.2,
		},
		total:      17,
		perStratum: []models.Listing{{Name: "sampled"}},
	}
	resolver := &fakeResolver{result: foundResult("24", "702840", "312317")}
	engine := New(store, resolver, 100, 10)

	page, err := engine.Recommend(context.Background(), "KY14 6EA", Options{}, nil)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}

	if len(store.samples) != 3 {
		t.Fatalf("Expected one sample per stratum, got %d", len(store.samples))
	}
	wantCounts := map[models.ListingType]int{
		models.ListingTypeItem:    5,
		models.ListingTypeService: 3,
		models.ListingTypeShare:   2,
	}
	for _, call := range store.samples {
		if call.n != wantCounts[call.listingType] {
			t.Errorf("Stratum %s sampled n=%d, want %d", call.listingType, call.n, wantCounts[call.listingType])
		}
		if call.center != [2]float64{70.2840, 31.2317} {
			t.Errorf("Unexpected sample centre: %v", call.center)
		}
		if call.radius != 100 {
			t.Errorf("Unexpected radius: %v", call.radius)
		}
	}

	if page.Pagination.Total != 17 || page.Pagination.Page != 0 || page.Pagination.Limit != 10 {
		t.Errorf("Unexpected pagination: %+v", page.Pagination)
	}
	if page.Pagination.Pages != 1 {
		t.Errorf("Expected pages 1 when anything matched, got %v", page.Pagination.Pages)
	}
}

func TestRecommendSentinelCoordinates(t *testing.T) {
	store := &fakeStore{}
	resolver := &fakeResolver{result: foundResult("22", "None", "None")}
	engine := New(store, resolver, 100, 10)

	if _, err := engine.Recommend(context.Background(), "KY15 5AS", Options{}, nil); err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	for _, call := range store.samples {
		if call.center != [2]float64{0, 0} {
			t.Errorf("Sentinel coordinates must centre at origin, got %v", call.center)
		}
	}
}

func TestRecommendEmptyStorePagination(t *testing.T) {
	store := &fakeStore{total: 0}
	resolver := &fakeResolver{result: foundResult("22", "702840", "312317")}
	engine := New(store, resolver, 100, 10)

	page, err := engine.Recommend(context.Background(), "KY14 6EA", Options{}, nil)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if page.Pagination.Pages != 0 {
		t.Errorf("Expected pages 0 for an empty store, got %v", page.Pagination.Pages)
	}
}

func TestRecommendOverrideWeights(t *testing.T) {
	store := &fakeStore{
		profile: &models.PreferenceProfile{GroupType: "22", ItemWeight: 0.9},
	}
	resolver := &fakeResolver{result: foundResult("22", "702840", "312317")}
	engine := New(store, resolver, 100, 10)

	override := &models.PreferenceProfile{ItemWeight: 0.1, ServiceWeight: 0.1, ShareWeight: 0.8}
	if _, err := engine.Recommend(context.Background(), "KY14 6EA", Options{}, override); err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}

	if store.profileGets != 0 {
		t.Error("Override weights must skip the stored profile lookup")
	}
	for _, call := range store.samples {
		if call.listingType == models.ListingTypeShare && call.n != 8 {
			t.Errorf("Override share stratum n=%d, want 8", call.n)
		}
	}
}

func TestRecommendZeroWeightStratum(t *testing.T) {
	store := &fakeStore{}
	resolver := &fakeResolver{result: foundResult("22", "702840", "312317")}
	engine := New(store, resolver, 100, 10)

	override := &models.PreferenceProfile{ItemWeight: 0.5, ServiceWeight: 0.5, ShareWeight: 0}
	if _, err := engine.Recommend(context.Background(), "KY14 6EA", Options{}, override); err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}

	for _, call := range store.samples {
		switch call.listingType {
		case models.ListingTypeShare:
			if call.n != 0 {
				t.Errorf("Zero-weight stratum requested n=%d, want 0", call.n)
			}
		default:
			if call.n != 5 {
				t.Errorf("%s stratum n=%d, want 5", call.listingType, call.n)
			}
		}
	}
}

func TestRecommendCustomBudget(t *testing.T) {
	store := &fakeStore{}
	resolver := &fakeResolver{result: foundResult("22", "702840", "312317")}
	engine := New(store, resolver, 100, 10)

	page, err := engine.Recommend(context.Background(), "KY14 6EA", Options{Limit: 20}, nil)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if page.Pagination.Limit != 20 {
		t.Errorf("Expected limit 20, got %d", page.Pagination.Limit)
	}
	for _, call := range store.samples {
		if call.n != 7 {
			t.Errorf("Expected round(0.33*20)=7 per stratum, got %d", call.n)
		}
	}
}
