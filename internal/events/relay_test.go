// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	json "github.com/goccy/go-json"

	"github.com/plotshare/plotshare/internal/market"
	"github.com/plotshare/plotshare/internal/models"
)

type memoryStore struct {
	mu     sync.Mutex
	events []models.MarketEvent
	fail   bool
}

func (m *memoryStore) InsertMarketEvent(_ context.Context, event *models.MarketEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("store unavailable")
	}
	m.events = append(m.events, *event)
	return nil
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func startRelay(t *testing.T, store EventStore) (*gochannel.GoChannel, context.CancelFunc) {
	t.Helper()

	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NopLogger{})
	relay := NewRelay(pubsub, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := relay.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Relay exited with error: %v", err)
		}
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("Relay did not stop after cancel")
		}
		if err := pubsub.Close(); err != nil {
			t.Logf("Failed to close pubsub: %v", err)
		}
	})

	// Give the relay a moment to subscribe before the test publishes.
	time.Sleep(50 * time.Millisecond)
	return pubsub, cancel
}

func publishEvent(t *testing.T, pubsub *gochannel.GoChannel, event models.MarketEvent) {
	t.Helper()
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Failed to encode event: %v", err)
	}
	msg := message.NewMessage(event.ID, payload)
	if err := pubsub.Publish(market.TopicMarketEvents, msg); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func TestRelayPersistsEvents(t *testing.T) {
	store := &memoryStore{}
	pubsub, _ := startRelay(t, store)

	publishEvent(t, pubsub, models.MarketEvent{
		ID:        "evt-1",
		EventType: models.EventListingPurchased,
		ListingID: "listing-1",
		ActorID:   "buyer-1",
		CreatedAt: time.Now().UTC(),
	})

	waitFor(t, func() bool { return store.count() == 1 }, "event persistence")

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.events[0].EventType != models.EventListingPurchased {
		t.Errorf("Unexpected event: %+v", store.events[0])
	}
}

func TestRelayDropsUndecodablePayload(t *testing.T) {
	store := &memoryStore{}
	pubsub, _ := startRelay(t, store)

	msg := message.NewMessage("poison", []byte("{not json"))
	if err := pubsub.Publish(market.TopicMarketEvents, msg); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	// The poison message must not block later events.
	publishEvent(t, pubsub, models.MarketEvent{
		ID:        "evt-2",
		EventType: models.EventListingCreated,
		ListingID: "listing-2",
		ActorID:   "seller-1",
		CreatedAt: time.Now().UTC(),
	})

	waitFor(t, func() bool { return store.count() == 1 }, "event after poison message")
}

func TestRelayStopsOnCancel(t *testing.T) {
	store := &memoryStore{}
	_, cancel := startRelay(t, store)
	cancel()
	// Cleanup asserts the relay goroutine actually exits.
}
