// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

// Package market implements the marketplace listing service: creating,
// querying, updating, and purchasing listings, with taskboard bookkeeping
// for service listings and an event feed for the audit trail.
package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/plotshare/plotshare/internal/database"
	"github.com/plotshare/plotshare/internal/geocode"
	"github.com/plotshare/plotshare/internal/logging"
	"github.com/plotshare/plotshare/internal/metrics"
	"github.com/plotshare/plotshare/internal/models"
)

// TopicMarketEvents is the pub/sub topic carrying marketplace events to
// the persistence relay.
const TopicMarketEvents = "market.events"

// coordinateScale divides raw OSGB grid references down to the stored
// listing location unit.
const coordinateScale = 10000

// Listing creation rejections. The messages surface directly in API
// responses.
var (
	ErrCreatorNotFound      = errors.New("Must have a createdBy attribute")
	ErrCreatorHasNoPostcode = errors.New("User must have a postcode to create listings")
	ErrPostcodeOutsideGroup = errors.New("Listing must be from a group F postcode")
	ErrInvalidBoardPath     = errors.New("Must provide a valid path to a taskboard")
)

// PostcodeResolver resolves a postcode to its demographic record.
type PostcodeResolver interface {
	Lookup(ctx context.Context, postcode string) geocode.Result
}

// Service is the marketplace listing service.
type Service struct {
	db        *database.DB
	resolver  PostcodeResolver
	publisher message.Publisher
}

// NewService wires the service to its store, resolver, and event
// publisher. publisher may be nil, which disables the event feed.
func NewService(db *database.DB, resolver PostcodeResolver, publisher message.Publisher) *Service {
	return &Service{
		db:        db,
		resolver:  resolver,
		publisher: publisher,
	}
}

// CreateListing validates and persists a new listing.
//
// The creator must exist and carry a postcode that resolves in the
// reference data; the listing's location is stamped from the resolved
// coordinates. Service listings additionally require a path to an
// existing taskboard, which is marked listed.
func (s *Service) CreateListing(ctx context.Context, req *models.CreateListingRequest) (*models.Listing, error) {
	user, err := s.db.GetUser(ctx, req.CreatedBy)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, ErrCreatorNotFound
		}
		return nil, fmt.Errorf("failed to load creator: %w", err)
	}
	if user.Postcode == "" {
		return nil, ErrCreatorHasNoPostcode
	}

	res := s.resolver.Lookup(ctx, user.Postcode)
	if res.Outcome != geocode.OutcomeFound {
		return nil, ErrPostcodeOutsideGroup
	}

	listingType := models.ListingType(req.Type)
	if listingType == "" {
		listingType = models.ListingTypeItem
	}

	var board *models.Taskboard
	if listingType == models.ListingTypeService {
		bp := sanitizePath(req.Path)
		board, err = s.db.GetTaskboardByPath(ctx, bp.Path, bp.Title)
		if err != nil {
			if errors.Is(err, database.ErrTaskboardNotFound) {
				return nil, ErrInvalidBoardPath
			}
			return nil, fmt.Errorf("failed to resolve taskboard: %w", err)
		}
		if err := s.db.SetTaskboardListed(ctx, board.ID, true); err != nil {
			return nil, fmt.Errorf("failed to list taskboard: %w", err)
		}
	}

	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	eastings, northings := res.Record.Coordinates()
	now := time.Now().UTC()

	listing := &models.Listing{
		ID:           uuid.NewString(),
		Type:         listingType,
		Category:     req.Category,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Quantity:     quantity,
		Status:       models.ListingStatusOpen,
		ImageURLs:    req.ImageURLs,
		PickupMethod: models.PickupMethod(req.PickupMethod),
		Postcode:     req.Postcode,
		Location:     [2]float64{northings / coordinateScale, eastings / coordinateScale},
		CreatedBy:    req.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if board != nil {
		listing.TaskboardID = &board.ID
	}

	if err := s.db.InsertListing(ctx, listing); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, models.EventListingCreated, listing, req.CreatedBy)

	return s.db.GetListing(ctx, listing.ID)
}

// GetListing returns one listing with its creator hydrated.
func (s *Service) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	return s.db.GetListing(ctx, id)
}

// GetListings returns one page of listings.
func (s *Service) GetListings(ctx context.Context, q models.ListingQuery) (*models.ListingPage, error) {
	return s.db.GetListings(ctx, q)
}

// SearchListings finds open listings matching the term.
func (s *Service) SearchListings(ctx context.Context, term string, limit int) ([]models.Listing, error) {
	return s.db.SearchListings(ctx, term, limit)
}

// UpdateListing applies a partial update. A new path re-links the listing
// to another taskboard, unlisting the previous one.
func (s *Service) UpdateListing(ctx context.Context, id string, req *models.UpdateListingRequest) (*models.Listing, error) {
	listing, err := s.db.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Path != nil {
		bp := sanitizePath(*req.Path)
		board, err := s.db.GetTaskboardByPath(ctx, bp.Path, bp.Title)
		if err != nil {
			if errors.Is(err, database.ErrTaskboardNotFound) {
				return nil, ErrInvalidBoardPath
			}
			return nil, fmt.Errorf("failed to resolve taskboard: %w", err)
		}

		if listing.TaskboardID != nil {
			if err := s.db.SetTaskboardListed(ctx, *listing.TaskboardID, false); err != nil {
				return nil, fmt.Errorf("failed to unlist previous taskboard: %w", err)
			}
		}
		if err := s.db.SetTaskboardListed(ctx, board.ID, true); err != nil {
			return nil, fmt.Errorf("failed to list taskboard: %w", err)
		}
		listing.TaskboardID = &board.ID
	}

	if req.Name != nil {
		listing.Name = *req.Name
	}
	if req.Price != nil {
		listing.Price = *req.Price
	}
	if req.Quantity != nil {
		listing.Quantity = *req.Quantity
	}
	if req.Category != nil {
		listing.Category = *req.Category
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.Status != nil {
		listing.Status = models.ListingStatus(*req.Status)
	}

	if err := s.db.UpdateListing(ctx, listing); err != nil {
		return nil, err
	}
	return s.db.GetListing(ctx, id)
}

// DeleteListing removes a listing, unlisting its taskboard if it has one.
func (s *Service) DeleteListing(ctx context.Context, id string) error {
	listing, err := s.db.GetListing(ctx, id)
	if err != nil {
		return err
	}

	if listing.TaskboardID != nil {
		if err := s.db.SetTaskboardListed(ctx, *listing.TaskboardID, false); err != nil {
			return fmt.Errorf("failed to unlist taskboard: %w", err)
		}
	}

	return s.db.DeleteListing(ctx, id)
}

// PurchaseListing transfers a listing to the buyer. Rejections surface as
// the database package's sentinel errors.
func (s *Service) PurchaseListing(ctx context.Context, listingID, buyerID string) (*models.PurchaseResult, error) {
	result, err := s.db.PurchaseListing(ctx, listingID, buyerID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, models.EventListingPurchased, &result.Listing, buyerID)
	return result, nil
}

// publishEvent emits a marketplace event to the relay topic. Failures are
// logged and swallowed: the listing write already committed and the feed
// is advisory.
func (s *Service) publishEvent(ctx context.Context, eventType string, listing *models.Listing, actorID string) {
	if s.publisher == nil {
		return
	}

	event := models.MarketEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		ListingID: listing.ID,
		ActorID:   actorID,
		CreatedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("event_type", eventType).Msg("Failed to encode market event")
		return
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", eventType)

	if err := s.publisher.Publish(TopicMarketEvents, msg); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("event_type", eventType).Msg("Failed to publish market event")
		return
	}
	metrics.EventsPublished.WithLabelValues(eventType).Inc()
}
