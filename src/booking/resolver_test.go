package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"cbs/src/models"
	"cbs/src/store"
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

func newTestResolver(t *testing.T) (*Resolver, *gorm.DB) {
	t.Helper()
	gdb := newTestDB(t)
	return NewResolver(gdb, store.NewBookingStore(gdb)), gdb
}

func seedCourt(t *testing.T, gdb *gorm.DB, available bool) *models.Court {
	t.Helper()
	court := &models.Court{
		Name:        "Center Court",
		Slug:        "center-court",
		Location:    "Pasig",
		Category:    "tennis",
		HourlyPrice: 500,
		Owner:       "0xabc",
		Available:   available,
	}
	require.NoError(t, gdb.Create(court).Error)
	return court
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     string
		want                           bool
	}{
		{"identical", "10:00", "11:00", "10:00", "11:00", true},
		{"contained", "10:00", "12:00", "10:30", "11:00", true},
		{"partial front", "10:00", "11:00", "10:30", "11:30", true},
		{"partial back", "10:30", "11:30", "10:00", "11:00", true},
		{"touching end to start", "10:00", "11:00", "11:00", "12:00", false},
		{"touching start to end", "11:00", "12:00", "10:00", "11:00", false},
		{"disjoint", "08:00", "09:00", "11:00", "12:00", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd))
		})
	}
}

func TestProposeBookingRejectsOverlap(t *testing.T) {
	r, gdb := newTestResolver(t)
	court := seedCourt(t, gdb, true)
	ctx := context.Background()

	id, err := r.ProposeBooking(ctx, court.ID, "2027-05-01", "10:00", "11:00", "alice")
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = r.ProposeBooking(ctx, court.ID, "2027-05-01", "10:30", "11:30", "bob")
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	var count int64
	require.NoError(t, gdb.Model(&models.Booking{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestProposeBookingBackToBackSlots(t *testing.T) {
	r, gdb := newTestResolver(t)
	court := seedCourt(t, gdb, true)
	ctx := context.Background()

	_, err := r.ProposeBooking(ctx, court.ID, "2027-05-01", "10:00", "11:00", "alice")
	require.NoError(t, err)

	// [11:00,12:00) shares only the boundary instant, not the slot
	id, err := r.ProposeBooking(ctx, court.ID, "2027-05-01", "11:00", "12:00", "bob")
	require.NoError(t, err)
	assert.NotZero(t, id)
}

func TestProposeBookingSameSlotOtherDate(t *testing.T) {
	r, gdb := newTestResolver(t)
	court := seedCourt(t, gdb, true)
	ctx := context.Background()

	_, err := r.ProposeBooking(ctx, court.ID, "2027-05-01", "10:00", "11:00", "alice")
	require.NoError(t, err)

	_, err = r.ProposeBooking(ctx, court.ID, "2027-05-02", "10:00", "11:00", "bob")
	assert.NoError(t, err)
}

func TestProposeBookingValidation(t *testing.T) {
	r, gdb := newTestResolver(t)
	court := seedCourt(t, gdb, true)
	ctx := context.Background()

	cases := []struct {
		name                       string
		date, start, end, requester string
	}{
		{"bad date", "05/01/2027", "10:00", "11:00", "alice"},
		{"bad start time", "2027-05-01", "10am", "11:00", "alice"},
		{"bad end time", "2027-05-01", "10:00", "25:00", "alice"},
		{"start equals end", "2027-05-01", "10:00", "10:00", "alice"},
		{"start after end", "2027-05-01", "11:00", "10:00", "alice"},
		{"missing requester", "2027-05-01", "10:00", "11:00", " "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.ProposeBooking(ctx, court.ID, tc.date, tc.start, tc.end, tc.requester)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	var count int64
	require.NoError(t, gdb.Model(&models.Booking{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProposeBookingUnknownCourt(t *testing.T) {
	r, _ := newTestResolver(t)
	_, err := r.ProposeBooking(context.Background(), 42, "2027-05-01", "10:00", "11:00", "alice")
	assert.ErrorIs(t, err, ErrCourtNotFound)
}

func TestProposeBookingUnavailableCourt(t *testing.T) {
	r, gdb := newTestResolver(t)
	court := seedCourt(t, gdb, false)
	_, err := r.ProposeBooking(context.Background(), court.ID, "2027-05-01", "10:00", "11:00", "alice")
	assert.ErrorIs(t, err, ErrCourtUnavailable)
}

func TestCancelBookingIsTerminal(t *testing.T) {
	r, gdb := newTestResolver(t)
	court := seedCourt(t, gdb, true)
	ctx := context.Background()

	id, err := r.ProposeBooking(ctx, court.ID, "2027-05-01", "10:00", "11:00", "alice")
	require.NoError(t, err)

	ok, err := r.CancelBooking(ctx, id, "rain")
	require.NoError(t, err)
	assert.True(t, ok)

	var b models.Booking
	require.NoError(t, gdb.First(&b, "id = ?", id).Error)
	assert.Equal(t, string(types.BOOKING_CANCELED), b.Status)
	require.NotNil(t, b.Reason)
	assert.Equal(t, "rain", *b.Reason)

	// already cancelled, repeating reports false
	ok, err = r.CancelBooking(ctx, id, "changed my mind")
	require.NoError(t, err)
	assert.False(t, ok)

	// unknown id reports false too
	ok, err = r.CancelBooking(ctx, 9999, "whatever")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCancelBookingRequiresReason(t *testing.T) {
	r, _ := newTestResolver(t)
	_, err := r.CancelBooking(context.Background(), 1, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCancelFreesSlotForRebooking(t *testing.T) {
	r, gdb := newTestResolver(t)
	court := seedCourt(t, gdb, true)
	ctx := context.Background()

	id, err := r.ProposeBooking(ctx, court.ID, "2027-05-01", "10:00", "11:00", "alice")
	require.NoError(t, err)

	ok, err := r.CancelBooking(ctx, id, "rain")
	require.NoError(t, err)
	require.True(t, ok)

	id2, err := r.ProposeBooking(ctx, court.ID, "2027-05-01", "10:00", "11:00", "bob")
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)
}

func TestConcurrentProposalsAdmitExactlyOne(t *testing.T) {
	r, gdb := newTestResolver(t)
	court := seedCourt(t, gdb, true)

	const workers = 16
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.ProposeBooking(context.Background(), court.ID, "2027-05-01", "10:00", "11:00", fmt.Sprintf("player-%d", i))
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, err := range errs {
		if err == nil {
			admitted++
		} else {
			assert.ErrorIs(t, err, ErrSlotUnavailable)
		}
	}
	assert.Equal(t, 1, admitted)

	var count int64
	require.NoError(t, gdb.Model(&models.Booking{}).Where("status = ?", string(types.BOOKING_PENDING)).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestOnAcceptedFiresAfterCommit(t *testing.T) {
	r, gdb := newTestResolver(t)
	court := seedCourt(t, gdb, true)

	var got []types.MintPayload
	r.OnAccepted = func(p types.MintPayload) { got = append(got, p) }

	id, err := r.ProposeBooking(context.Background(), court.ID, "2027-05-01", "10:00", "11:00", "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].BookingID)
	assert.Equal(t, court.ID, got[0].CourtID)

	// a rejected proposal never announces
	_, err = r.ProposeBooking(context.Background(), court.ID, "2027-05-01", "10:00", "11:00", "bob")
	require.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Len(t, got, 1)
}

func TestListByCourtAndDate(t *testing.T) {
	r, gdb := newTestResolver(t)
	court := seedCourt(t, gdb, true)
	ctx := context.Background()

	_, err := r.ProposeBooking(ctx, court.ID, "2027-05-01", "14:00", "15:00", "alice")
	require.NoError(t, err)
	_, err = r.ProposeBooking(ctx, court.ID, "2027-05-01", "09:00", "10:00", "bob")
	require.NoError(t, err)
	_, err = r.ProposeBooking(ctx, court.ID, "2027-05-02", "09:00", "10:00", "carol")
	require.NoError(t, err)

	list, err := r.ListByCourtAndDate(ctx, court.ID, "2027-05-01")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "09:00", list[0].StartTime)
	assert.Equal(t, "14:00", list[1].StartTime)

	_, err = r.ListByCourtAndDate(ctx, court.ID, "not-a-date")
	assert.ErrorIs(t, err, ErrValidation)
}
