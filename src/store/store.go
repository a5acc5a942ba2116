// Package store is the durable record of bookable courts and their
// reservations. Courts are mutated only by their owner; bookings are
// never deleted, cancellation is a soft status change so the audit
// history survives.
package store

import (
	"context"
	"errors"

	"cbs/src/models"
	"cbs/src/types"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

var (
	ErrCourtNotFound   = errors.New("court not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrNotOwner        = errors.New("court does not belong to this account")
)

type CourtStore struct {
	db *gorm.DB
}

func NewCourtStore(db *gorm.DB) *CourtStore {
	return &CourtStore{db: db}
}

func (s *CourtStore) Create(ctx context.Context, court *models.Court) error {
	if court.Slug == "" {
		court.Slug = slug.Make(court.Name)
	}
	return s.db.WithContext(ctx).Create(court).Error
}

func (s *CourtStore) Get(ctx context.Context, id uint) (*models.Court, error) {
	var court models.Court
	if err := s.db.WithContext(ctx).First(&court, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}
	return &court, nil
}

func (s *CourtStore) List(ctx context.Context) ([]models.Court, error) {
	var courts []models.Court
	err := s.db.WithContext(ctx).
		Model(&models.Court{}).
		Order("name asc").
		Find(&courts).
		Error
	return courts, err
}

func (s *CourtStore) ListByOwner(ctx context.Context, owner string) ([]models.Court, error) {
	var courts []models.Court
	err := s.db.WithContext(ctx).
		Where(&models.Court{Owner: owner}).
		Order("name asc").
		Find(&courts).
		Error
	return courts, err
}

// Update applies the patch if and only if the court belongs to owner.
func (s *CourtStore) Update(ctx context.Context, id uint, owner string, patch map[string]any) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var court models.Court
		if err := tx.First(&court, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourtNotFound
			}
			return err
		}
		if court.Owner != owner {
			return ErrNotOwner
		}
		if name, ok := patch["name"].(string); ok && name != "" {
			patch["slug"] = slug.Make(name)
		}
		return tx.Model(&models.Court{}).Where("id = ?", id).Updates(patch).Error
	})
}

func (s *CourtStore) Delete(ctx context.Context, id uint, owner string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var court models.Court
		if err := tx.First(&court, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourtNotFound
			}
			return err
		}
		if court.Owner != owner {
			return ErrNotOwner
		}
		return tx.Delete(&models.Court{}, "id = ?", id).Error
	})
}

type BookingStore struct {
	db *gorm.DB
}

func NewBookingStore(db *gorm.DB) *BookingStore {
	return &BookingStore{db: db}
}

func (s *BookingStore) ByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// List returns bookings matching the filters, ordered by slot.
func (s *BookingStore) List(ctx context.Context, filters types.BookingQueryFilters) ([]models.Booking, error) {
	q := s.db.WithContext(ctx).Model(&models.Booking{})
	if filters.Requester != "" {
		q = q.Where("requester = ?", filters.Requester)
	}
	if filters.Date != "" {
		q = q.Where("date = ?", filters.Date)
	}
	var bookings []models.Booking
	err := q.
		Order("date asc, start_time asc").
		Find(&bookings).
		Error
	return bookings, err
}

func (s *BookingStore) ListByCourtAndDate(ctx context.Context, courtID uint, date string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Where("court_id = ? AND date = ?", courtID, date).
		Order("date asc, start_time asc").
		Find(&bookings).
		Error
	return bookings, err
}

// ExpirePending cancels pending bookings whose date is already behind us.
// Confirmed and cancelled bookings are left untouched.
func (s *BookingStore) ExpirePending(ctx context.Context, before string) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("status = ? AND date < ?", string(types.BOOKING_PENDING), before).
		Updates(map[string]any{
			"status": string(types.BOOKING_CANCELED),
			"reason": "expired",
		})
	return res.RowsAffected, res.Error
}
