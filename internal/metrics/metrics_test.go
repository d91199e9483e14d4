// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestRecordDBQuery(t *testing.T) {
	before := counterValue(t, DBQueryErrors.WithLabelValues("select", "listings"))

	RecordDBQuery("select", "listings", 5*time.Millisecond, nil)
	if got := counterValue(t, DBQueryErrors.WithLabelValues("select", "listings")); got != before {
		t.Errorf("error counter moved on success: %v -> %v", before, got)
	}

	RecordDBQuery("select", "listings", 5*time.Millisecond, errTest)
	if got := counterValue(t, DBQueryErrors.WithLabelValues("select", "listings")); got != before+1 {
		t.Errorf("error counter = %v, want %v", got, before+1)
	}
}

var errTest = &testError{}

type testError struct{}

func (*testError) Error() string { return "test error" }

func TestRecordAPIRequest(t *testing.T) {
	before := counterValue(t, APIRequestsTotal.WithLabelValues("GET", "/api/v1/listings", "200"))
	RecordAPIRequest("GET", "/api/v1/listings", "200", 10*time.Millisecond)
	after := counterValue(t, APIRequestsTotal.WithLabelValues("GET", "/api/v1/listings", "200"))
	if after != before+1 {
		t.Errorf("requests counter = %v, want %v", after, before+1)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	TrackActiveRequest(true)
	TrackActiveRequest(false)

	m := &dto.Metric{}
	if err := APIActiveRequests.Write(m); err != nil {
		t.Fatalf("write gauge: %v", err)
	}
	// Balanced inc/dec leaves whatever other tests contributed; just check
	// the gauge is readable and finite.
	if m.GetGauge() == nil {
		t.Error("gauge value missing")
	}
}

func TestGeocodeLookupOutcomes(t *testing.T) {
	for _, outcome := range []string{"found", "not_found", "read_failure"} {
		before := counterValue(t, GeocodeLookups.WithLabelValues(outcome))
		GeocodeLookups.WithLabelValues(outcome).Inc()
		after := counterValue(t, GeocodeLookups.WithLabelValues(outcome))
		if after != before+1 {
			t.Errorf("outcome %q counter = %v, want %v", outcome, after, before+1)
		}
	}
}
