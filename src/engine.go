package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"cbs/src/booking"
	"cbs/src/engine"
	"cbs/src/lib"
	"cbs/src/models"
	"cbs/src/store"
	"cbs/src/types"

	"gorm.io/gorm"
)

type courtPayload struct {
	ID          uint     `json:"id,omitempty"`
	Name        string   `json:"name,omitempty"`
	Location    string   `json:"location,omitempty"`
	Category    string   `json:"category,omitempty"`
	HourlyPrice *float32 `json:"hourly_price,omitempty"`
	Description *string  `json:"description,omitempty"`
	Available   *bool    `json:"available,omitempty"`
}

type bookingPayload struct {
	ID        uint   `json:"id,omitempty"`
	CourtID   uint   `json:"court_id,omitempty"`
	Date      string `json:"date,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// newResolver builds the one conflict resolver every surface shares.
// Proposals for the same (court, date) must serialize on the same lock
// table no matter which transport they arrive on.
func newResolver(gdb *gorm.DB) *booking.Resolver {
	resolver := booking.NewResolver(gdb, store.NewBookingStore(gdb))
	resolver.OnAccepted = announceAcceptedBooking
	return resolver
}

// announceAcceptedBooking publishes an accepted reservation to the broker
// so the minting consumer can pick it up. Fire and forget.
func announceAcceptedBooking(p types.MintPayload) {
	go func() {
		if err := lib.KafkaProduceMessage("bookings_accepted_producer", lib.TopicBookingsAccepted, map[string]any{
			"booking_id": p.BookingID,
			"court_id":   p.CourtID,
			"date":       p.Date,
			"start_time": p.StartTime,
			"end_time":   p.EndTime,
		}); err != nil {
			log.Printf("Error producing message for booking [%d]: %s\n", p.BookingID, err.Error())
		}
	}()
}

// buildRouter registers the envelope operations. Identity comes from the
// dispatch context, bound by the authenticated socket session.
func buildRouter(courts *store.CourtStore, resolver *booking.Resolver) *engine.Router {
	r := engine.NewRouter()

	r.Handle("court", "create", func(ctx context.Context, data json.RawMessage) (any, error) {
		var body courtPayload
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		if body.Name == "" {
			return nil, errors.New("court name is required")
		}
		court := &models.Court{
			Name:      body.Name,
			Location:  body.Location,
			Category:  body.Category,
			Owner:     engine.Account(ctx),
			Available: true,
		}
		if body.HourlyPrice != nil {
			court.HourlyPrice = *body.HourlyPrice
		}
		if body.Description != nil {
			court.Description = *body.Description
		}
		if body.Available != nil {
			court.Available = *body.Available
		}
		if err := courts.Create(ctx, court); err != nil {
			return nil, err
		}
		lib.InvalidateCourtsCache()
		return court, nil
	})

	r.Handle("court", "update", func(ctx context.Context, data json.RawMessage) (any, error) {
		var body courtPayload
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		patch := map[string]any{}
		if body.Name != "" {
			patch["name"] = body.Name
		}
		if body.Location != "" {
			patch["location"] = body.Location
		}
		if body.Category != "" {
			patch["category"] = body.Category
		}
		if body.HourlyPrice != nil {
			patch["hourly_price"] = *body.HourlyPrice
		}
		if body.Description != nil {
			patch["description"] = *body.Description
		}
		if body.Available != nil {
			patch["available"] = *body.Available
		}
		if err := courts.Update(ctx, body.ID, engine.Account(ctx), patch); err != nil {
			return nil, err
		}
		lib.InvalidateCourtsCache()
		return true, nil
	})

	r.Handle("court", "delete", func(ctx context.Context, data json.RawMessage) (any, error) {
		var body courtPayload
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		if err := courts.Delete(ctx, body.ID, engine.Account(ctx)); err != nil {
			return nil, err
		}
		lib.InvalidateCourtsCache()
		return true, nil
	})

	r.Handle("court", "get", func(ctx context.Context, data json.RawMessage) (any, error) {
		var body courtPayload
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return courts.Get(ctx, body.ID)
	})

	r.Handle("court", "list", func(ctx context.Context, data json.RawMessage) (any, error) {
		return courts.List(ctx)
	})

	r.Handle("court", "listByOwner", func(ctx context.Context, data json.RawMessage) (any, error) {
		return courts.ListByOwner(ctx, engine.Account(ctx))
	})

	r.Handle("booking", "create", func(ctx context.Context, data json.RawMessage) (any, error) {
		var body bookingPayload
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		id, err := resolver.ProposeBooking(ctx, body.CourtID, body.Date, body.StartTime, body.EndTime, engine.Account(ctx))
		if err != nil {
			return nil, err
		}
		return map[string]any{"id": id}, nil
	})

	r.Handle("booking", "cancel", func(ctx context.Context, data json.RawMessage) (any, error) {
		var body bookingPayload
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return resolver.CancelBooking(ctx, body.ID, body.Reason)
	})

	r.Handle("booking", "listByRequester", func(ctx context.Context, data json.RawMessage) (any, error) {
		return resolver.ListByRequester(ctx, engine.Account(ctx))
	})

	r.Handle("booking", "listByCourtDate", func(ctx context.Context, data json.RawMessage) (any, error) {
		var body bookingPayload
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return resolver.ListByCourtAndDate(ctx, body.CourtID, body.Date)
	})

	return r
}
