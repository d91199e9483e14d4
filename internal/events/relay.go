// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

// Package events persists the marketplace event feed. The relay
// subscribes to the in-process pub/sub topic the market service publishes
// to and appends each event to the market_events audit table.
package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	json "github.com/goccy/go-json"

	"github.com/plotshare/plotshare/internal/database"
	"github.com/plotshare/plotshare/internal/logging"
	"github.com/plotshare/plotshare/internal/market"
	"github.com/plotshare/plotshare/internal/models"
)

// EventStore is the persistence surface the relay needs.
type EventStore interface {
	InsertMarketEvent(ctx context.Context, event *models.MarketEvent) error
}

// Relay drains market events from the subscriber into the audit table.
// It implements suture.Service and runs under the supervision tree.
type Relay struct {
	subscriber message.Subscriber
	store      EventStore
}

// NewRelay creates a relay over the given subscriber and store.
func NewRelay(subscriber message.Subscriber, store EventStore) *Relay {
	return &Relay{
		subscriber: subscriber,
		store:      store,
	}
}

// Serve implements suture.Service. It subscribes to the market events
// topic and persists messages until the context is canceled or the
// subscription channel closes.
func (r *Relay) Serve(ctx context.Context) error {
	messages, err := r.subscriber.Subscribe(ctx, market.TopicMarketEvents)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", market.TopicMarketEvents, err)
	}

	logging.Debug().Str("topic", market.TopicMarketEvents).Msg("Market event relay started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.handle(ctx, msg)
		}
	}
}

// handle persists one message. Undecodable payloads are acked and dropped
// so a poison message cannot wedge the feed; storage errors are nacked
// for redelivery.
func (r *Relay) handle(ctx context.Context, msg *message.Message) {
	var event models.MarketEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		logging.Error().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping undecodable market event")
		msg.Ack()
		return
	}

	if err := r.store.InsertMarketEvent(ctx, &event); err != nil {
		logging.Error().Err(err).Str("event_type", event.EventType).
			Str("listing_id", event.ListingID).Msg("Failed to persist market event")
		msg.Nack()
		return
	}

	msg.Ack()
}

// String implements fmt.Stringer for supervisor logging.
func (r *Relay) String() string {
	return "market-event-relay"
}

// compile-time interface check against the concrete store
var _ EventStore = (*database.DB)(nil)
