// Package booking decides whether a candidate reservation may be
// admitted. The one invariant that matters lives here: for a fixed court
// and date, no two active reservations ever overlap.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cbs/src/config"
	"cbs/src/models"
	"cbs/src/store"
	"cbs/src/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share an
// instant. Intervals are half-open, so back-to-back slots touching at a
// boundary do not conflict. Times are zero-padded "15:04" strings and
// compare lexicographically.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && bStart < aEnd
}

type Resolver struct {
	db       *gorm.DB
	bookings *store.BookingStore
	locks    *slotLocks

	// OnAccepted fires after a proposal commits. Best effort: a failure
	// here never rolls the reservation back.
	OnAccepted func(payload types.MintPayload)
}

func NewResolver(db *gorm.DB, bookings *store.BookingStore) *Resolver {
	return &Resolver{
		db:       db,
		bookings: bookings,
		locks:    newSlotLocks(),
	}
}

func validateSlot(date, start, end string) error {
	if _, err := time.Parse(config.DATE_PARSE_FORMAT, date); err != nil {
		return fmt.Errorf("%w: date must be formatted as %s", ErrValidation, config.DATE_PARSE_FORMAT)
	}
	for _, v := range []string{start, end} {
		if _, err := time.Parse(config.TIME_PARSE_FORMAT, v); err != nil {
			return fmt.Errorf("%w: time must be formatted as %s", ErrValidation, config.TIME_PARSE_FORMAT)
		}
	}
	if start >= end {
		return fmt.Errorf("%w: start time must be before end time", ErrValidation)
	}
	return nil
}

// ProposeBooking admits or rejects a candidate reservation. The overlap
// read and the insert run inside one transaction, serialized per
// (court, date); on postgres the candidate rows are additionally locked
// FOR UPDATE as a backstop against concurrent committers.
func (r *Resolver) ProposeBooking(ctx context.Context, courtID uint, date, start, end, requester string) (uint, error) {
	if strings.TrimSpace(requester) == "" {
		return 0, fmt.Errorf("%w: requester is required", ErrValidation)
	}
	if err := validateSlot(date, start, end); err != nil {
		return 0, err
	}

	unlock := r.locks.Lock(courtID, date)
	defer unlock()

	var id uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var court models.Court
		if err := tx.First(&court, "id = ?", courtID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourtNotFound
			}
			return err
		}
		if !court.Available {
			return ErrCourtUnavailable
		}

		q := tx.Model(&models.Booking{})
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var existing models.Booking
		err := q.
			Where("court_id = ? AND date = ? AND status IN ?", courtID, date, activeStatuses()).
			Where("start_time < ? AND end_time > ?", end, start).
			Take(&existing).
			Error
		if err == nil {
			return ErrSlotUnavailable
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		b := &models.Booking{
			CourtID:   courtID,
			Requester: requester,
			Date:      date,
			StartTime: start,
			EndTime:   end,
			Status:    string(types.BOOKING_PENDING),
		}
		if err := tx.Create(b).Error; err != nil {
			return err
		}
		id = b.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	if r.OnAccepted != nil {
		r.OnAccepted(types.MintPayload{
			BookingID: id,
			CourtID:   courtID,
			Date:      date,
			StartTime: start,
			EndTime:   end,
		})
	}
	return id, nil
}

// CancelBooking moves a pending or confirmed booking to cancelled,
// recording the reason. Cancelled is terminal: repeating the call (or
// naming an unknown id) reports false rather than erroring.
func (r *Resolver) CancelBooking(ctx context.Context, id uint, reason string) (bool, error) {
	if strings.TrimSpace(reason) == "" {
		return false, fmt.Errorf("%w: cancellation reason is required", ErrValidation)
	}
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status IN ?", id, activeStatuses()).
		Updates(map[string]any{
			"status": string(types.BOOKING_CANCELED),
			"reason": reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Resolver) ListByRequester(ctx context.Context, requester string) ([]models.Booking, error) {
	return r.bookings.List(ctx, types.BookingQueryFilters{Requester: requester})
}

func (r *Resolver) ListByCourtAndDate(ctx context.Context, courtID uint, date string) ([]models.Booking, error) {
	if _, err := time.Parse(config.DATE_PARSE_FORMAT, date); err != nil {
		return nil, fmt.Errorf("%w: date must be formatted as %s", ErrValidation, config.DATE_PARSE_FORMAT)
	}
	return r.bookings.ListByCourtAndDate(ctx, courtID, date)
}

func activeStatuses() []string {
	return []string{
		string(types.BOOKING_PENDING),
		string(types.BOOKING_CONFIRMED),
	}
}
