package store

import (
	"context"
	"fmt"
	"testing"

	"cbs/src/models"
	"cbs/src/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(&models.User{}, &models.Court{}, &models.Booking{}))
	return gdb
}

func TestCourtCreateSlugsName(t *testing.T) {
	s := NewCourtStore(newTestDB(t))
	court := &models.Court{Name: "Dasma Indoor Court 3", Location: "Dasmariñas", Category: "badminton", Owner: "0xabc"}
	require.NoError(t, s.Create(context.Background(), court))
	assert.NotZero(t, court.ID)
	assert.Equal(t, "dasma-indoor-court-3", court.Slug)
}

func TestCourtGet(t *testing.T) {
	s := NewCourtStore(newTestDB(t))
	ctx := context.Background()
	court := &models.Court{Name: "Court A", Owner: "0xabc", Available: true}
	require.NoError(t, s.Create(ctx, court))

	got, err := s.Get(ctx, court.ID)
	require.NoError(t, err)
	assert.Equal(t, court.Name, got.Name)

	_, err = s.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrCourtNotFound)
}

func TestCourtListOrdersByName(t *testing.T) {
	s := NewCourtStore(newTestDB(t))
	ctx := context.Background()
	for _, name := range []string{"Zeta Court", "Alpha Court", "Mid Court"} {
		require.NoError(t, s.Create(ctx, &models.Court{Name: name, Owner: "0xabc"}))
	}
	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Alpha Court", list[0].Name)
	assert.Equal(t, "Zeta Court", list[2].Name)
}

func TestCourtListByOwner(t *testing.T) {
	s := NewCourtStore(newTestDB(t))
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, &models.Court{Name: "Mine", Owner: "0xabc"}))
	require.NoError(t, s.Create(ctx, &models.Court{Name: "Theirs", Owner: "0xdef"}))

	list, err := s.ListByOwner(ctx, "0xabc")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Mine", list[0].Name)
}

func TestCourtUpdateGuardsOwner(t *testing.T) {
	gdb := newTestDB(t)
	s := NewCourtStore(gdb)
	ctx := context.Background()
	court := &models.Court{Name: "Court A", Owner: "0xabc"}
	require.NoError(t, s.Create(ctx, court))

	err := s.Update(ctx, court.ID, "0xstranger", map[string]any{"location": "BGC"})
	assert.ErrorIs(t, err, ErrNotOwner)

	err = s.Update(ctx, 999, "0xabc", map[string]any{"location": "BGC"})
	assert.ErrorIs(t, err, ErrCourtNotFound)

	require.NoError(t, s.Update(ctx, court.ID, "0xabc", map[string]any{"name": "Court B", "location": "BGC"}))
	got, err := s.Get(ctx, court.ID)
	require.NoError(t, err)
	assert.Equal(t, "Court B", got.Name)
	assert.Equal(t, "court-b", got.Slug)
	assert.Equal(t, "BGC", got.Location)
}

func TestCourtDeleteGuardsOwner(t *testing.T) {
	s := NewCourtStore(newTestDB(t))
	ctx := context.Background()
	court := &models.Court{Name: "Court A", Owner: "0xabc"}
	require.NoError(t, s.Create(ctx, court))

	assert.ErrorIs(t, s.Delete(ctx, court.ID, "0xstranger"), ErrNotOwner)
	require.NoError(t, s.Delete(ctx, court.ID, "0xabc"))

	_, err := s.Get(ctx, court.ID)
	assert.ErrorIs(t, err, ErrCourtNotFound)
}

func seedBooking(t *testing.T, gdb *gorm.DB, courtID uint, requester, date, start, end, status string) *models.Booking {
	t.Helper()
	b := &models.Booking{
		CourtID:   courtID,
		Requester: requester,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Status:    status,
	}
	require.NoError(t, gdb.Create(b).Error)
	return b
}

func TestBookingByID(t *testing.T) {
	gdb := newTestDB(t)
	s := NewBookingStore(gdb)
	ctx := context.Background()
	b := seedBooking(t, gdb, 1, "alice", "2027-05-01", "10:00", "11:00", string(types.BOOKING_PENDING))

	got, err := s.ByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Requester)

	_, err = s.ByID(ctx, 999)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestBookingListByRequesterOrdering(t *testing.T) {
	gdb := newTestDB(t)
	s := NewBookingStore(gdb)
	seedBooking(t, gdb, 1, "alice", "2027-05-02", "09:00", "10:00", string(types.BOOKING_PENDING))
	seedBooking(t, gdb, 1, "alice", "2027-05-01", "15:00", "16:00", string(types.BOOKING_PENDING))
	seedBooking(t, gdb, 1, "alice", "2027-05-01", "08:00", "09:00", string(types.BOOKING_CONFIRMED))
	seedBooking(t, gdb, 1, "bob", "2027-05-01", "10:00", "11:00", string(types.BOOKING_PENDING))

	list, err := s.List(context.Background(), types.BookingQueryFilters{Requester: "alice"})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "08:00", list[0].StartTime)
	assert.Equal(t, "15:00", list[1].StartTime)
	assert.Equal(t, "2027-05-02", list[2].Date)
}

func TestBookingListDateFilter(t *testing.T) {
	gdb := newTestDB(t)
	s := NewBookingStore(gdb)
	seedBooking(t, gdb, 1, "alice", "2027-05-01", "08:00", "09:00", string(types.BOOKING_PENDING))
	seedBooking(t, gdb, 1, "alice", "2027-05-02", "09:00", "10:00", string(types.BOOKING_PENDING))
	seedBooking(t, gdb, 2, "bob", "2027-05-01", "10:00", "11:00", string(types.BOOKING_PENDING))

	list, err := s.List(context.Background(), types.BookingQueryFilters{Requester: "alice", Date: "2027-05-01"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "08:00", list[0].StartTime)

	// date alone spans requesters
	list, err = s.List(context.Background(), types.BookingQueryFilters{Date: "2027-05-01"})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestExpirePending(t *testing.T) {
	gdb := newTestDB(t)
	s := NewBookingStore(gdb)
	stale := seedBooking(t, gdb, 1, "alice", "2024-01-01", "10:00", "11:00", string(types.BOOKING_PENDING))
	confirmed := seedBooking(t, gdb, 1, "bob", "2024-01-01", "12:00", "13:00", string(types.BOOKING_CONFIRMED))
	future := seedBooking(t, gdb, 1, "carol", "2099-01-01", "10:00", "11:00", string(types.BOOKING_PENDING))

	n, err := s.ExpirePending(context.Background(), "2026-08-28")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := s.ByID(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, string(types.BOOKING_CANCELED), got.Status)
	require.NotNil(t, got.Reason)
	assert.Equal(t, "expired", *got.Reason)

	got, err = s.ByID(context.Background(), confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, string(types.BOOKING_CONFIRMED), got.Status)

	got, err = s.ByID(context.Background(), future.ID)
	require.NoError(t, err)
	assert.Equal(t, string(types.BOOKING_PENDING), got.Status)
}
