package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shareit/internal/database"
	"shareit/internal/events"
	"shareit/internal/models"
)

type bookingFixture struct {
	db      *database.DB
	svc     *BookingService
	bus     *mockPublisher
	sync    *mockSyncWorker
	owner   *models.User
	booker  *models.User
	other   *models.User
	item    *models.Item
	offline *models.Item
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	db := setupDB(t)
	bus := &mockPublisher{}
	sw := &mockSyncWorker{}
	logger := zerolog.Nop()

	svc := NewBookingService(db, bus, sw, nil, 0, &logger)
	svc.now = func() time.Time { return testNow }

	f := &bookingFixture{db: db, svc: svc, bus: bus, sync: sw}
	f.owner = createUser(t, db, "Owner", "owner@example.com")
	f.booker = createUser(t, db, "Booker", "booker@example.com")
	f.other = createUser(t, db, "Other", "other@example.com")
	f.item = createItem(t, db, f.owner.ID, "Drill", true)
	f.offline = createItem(t, db, f.owner.ID, "Saw", false)
	return f
}

func (f *bookingFixture) expectWrite(eventType, taskType string) {
	f.bus.On("PublishJSON", eventType, mock.AnythingOfType("events.BookingEventPayload")).Return(nil).Once()
	f.sync.On("EnqueueTask", mock.Anything, taskType, mock.AnythingOfType("*models.Booking")).Return(nil).Once()
}

func (f *bookingFixture) input(start, end time.Time) models.BookingInput {
	return models.BookingInput{ItemID: f.item.ID, Start: dt(start), End: dt(end)}
}

func TestBookingService_Create(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	f.expectWrite(events.EventBookingCreated, models.SyncTaskUpsertBooking)

	start := testNow.Add(24 * time.Hour)
	resp, err := f.svc.Create(ctx, f.booker.ID, f.input(start, start.Add(48*time.Hour)))
	require.NoError(t, err)

	assert.NotZero(t, resp.ID)
	assert.Equal(t, models.StatusWaiting, resp.Status)
	assert.Equal(t, f.booker.ID, resp.Booker.ID)
	assert.Equal(t, f.item.ID, resp.Item.ID)
	assert.Equal(t, "Drill", resp.Item.Name)
	assert.True(t, resp.Start.Equal(start))

	stored, err := f.db.GetBooking(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, stored.Status)

	f.bus.AssertExpectations(t)
	f.sync.AssertExpectations(t)
}

func TestBookingService_CreateRejections(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	start := testNow.Add(time.Hour)
	end := start.Add(time.Hour)

	t.Run("end before start", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.booker.ID, f.input(end, start))
		assertKind(t, err, KindInvalidInput, "InvalidTimeRange")
	})
	t.Run("end equals start", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.booker.ID, f.input(start, start))
		assertKind(t, err, KindInvalidInput, "InvalidTimeRange")
	})
	t.Run("missing dates", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.booker.ID, models.BookingInput{ItemID: f.item.ID})
		se := assertKind(t, err, KindInvalidInput, "ValidationError")
		assert.Contains(t, se.Message, "start is required")
	})
	t.Run("unknown user", func(t *testing.T) {
		_, err := f.svc.Create(ctx, 999, f.input(start, end))
		assertKind(t, err, KindNotFound, "NotFound")
	})
	t.Run("unknown item", func(t *testing.T) {
		in := f.input(start, end)
		in.ItemID = 999
		_, err := f.svc.Create(ctx, f.booker.ID, in)
		assertKind(t, err, KindNotFound, "NotFound")
	})
	t.Run("unavailable item", func(t *testing.T) {
		in := f.input(start, end)
		in.ItemID = f.offline.ID
		_, err := f.svc.Create(ctx, f.booker.ID, in)
		assertKind(t, err, KindInvalidInput, "ItemUnavailable")
	})
	t.Run("owner books own item", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.owner.ID, f.input(start, end))
		se := assertKind(t, err, KindUnauthorized, "OwnerCannotBookOwnItem")
		assert.True(t, se.Hidden)
	})

	f.bus.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything)
	f.sync.AssertNotCalled(t, "EnqueueTask", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_CreateAllowsOverlap(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	f.bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil)
	f.sync.On("EnqueueTask", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	start := testNow.Add(time.Hour)
	_, err := f.svc.Create(ctx, f.booker.ID, f.input(start, start.Add(2*time.Hour)))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.other.ID, f.input(start.Add(time.Hour), start.Add(3*time.Hour)))
	require.NoError(t, err)
}

func TestBookingService_SideEffectFailuresDoNotFailWrite(t *testing.T) {
	f := newBookingFixture(t)
	f.bus.On("PublishJSON", mock.Anything, mock.Anything).Return(assert.AnError)
	f.sync.On("EnqueueTask", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	start := testNow.Add(time.Hour)
	resp, err := f.svc.Create(context.Background(), f.booker.ID, f.input(start, start.Add(time.Hour)))
	require.NoError(t, err)
	assert.NotZero(t, resp.ID)
}

func TestBookingService_Confirm(t *testing.T) {
	ctx := context.Background()
	start := testNow.Add(time.Hour)

	t.Run("approve", func(t *testing.T) {
		f := newBookingFixture(t)
		b := createBooking(t, f.db, f.item.ID, f.booker.ID, start, start.Add(time.Hour), models.StatusWaiting)
		f.expectWrite(events.EventBookingApproved, models.SyncTaskUpdateStatus)

		resp, err := f.svc.Confirm(ctx, f.owner.ID, b.ID, true)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, resp.Status)

		stored, err := f.db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, stored.Status)
		f.bus.AssertExpectations(t)
		f.sync.AssertExpectations(t)
	})

	t.Run("reject", func(t *testing.T) {
		f := newBookingFixture(t)
		b := createBooking(t, f.db, f.item.ID, f.booker.ID, start, start.Add(time.Hour), models.StatusWaiting)
		f.expectWrite(events.EventBookingRejected, models.SyncTaskUpdateStatus)

		resp, err := f.svc.Confirm(ctx, f.owner.ID, b.ID, false)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, resp.Status)
	})

	t.Run("approve twice", func(t *testing.T) {
		f := newBookingFixture(t)
		b := createBooking(t, f.db, f.item.ID, f.booker.ID, start, start.Add(time.Hour), models.StatusWaiting)
		f.expectWrite(events.EventBookingApproved, models.SyncTaskUpdateStatus)

		_, err := f.svc.Confirm(ctx, f.owner.ID, b.ID, true)
		require.NoError(t, err)
		_, err = f.svc.Confirm(ctx, f.owner.ID, b.ID, true)
		assertKind(t, err, KindConflict, "AlreadyApproved")
	})

	t.Run("reject after approve", func(t *testing.T) {
		f := newBookingFixture(t)
		b := createBooking(t, f.db, f.item.ID, f.booker.ID, start, start.Add(time.Hour), models.StatusApproved)

		_, err := f.svc.Confirm(ctx, f.owner.ID, b.ID, false)
		assertKind(t, err, KindConflict, "AlreadyApproved")

		stored, err := f.db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, stored.Status)
	})

	t.Run("approve after reject", func(t *testing.T) {
		f := newBookingFixture(t)
		b := createBooking(t, f.db, f.item.ID, f.booker.ID, start, start.Add(time.Hour), models.StatusRejected)

		_, err := f.svc.Confirm(ctx, f.owner.ID, b.ID, true)
		assertKind(t, err, KindConflict, "AlreadyDecided")
	})

	t.Run("booker cannot decide", func(t *testing.T) {
		f := newBookingFixture(t)
		b := createBooking(t, f.db, f.item.ID, f.booker.ID, start, start.Add(time.Hour), models.StatusWaiting)

		_, err := f.svc.Confirm(ctx, f.booker.ID, b.ID, true)
		se := assertKind(t, err, KindUnauthorized, "NotOwner")
		assert.True(t, se.Hidden)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.svc.Confirm(ctx, f.owner.ID, 404, true)
		assertKind(t, err, KindNotFound, "NotFound")
	})
}

func TestBookingService_ConfirmRace(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	start := testNow.Add(time.Hour)
	b := createBooking(t, f.db, f.item.ID, f.booker.ID, start, start.Add(time.Hour), models.StatusWaiting)
	f.bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil)
	f.sync.On("EnqueueTask", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(approve bool) {
			defer wg.Done()
			_, err := f.svc.Confirm(ctx, f.owner.ID, b.ID, approve)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if KindOf(err) == KindConflict {
				conflicts++
			}
		}(i%2 == 0)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
	f.bus.AssertNumberOfCalls(t, "PublishJSON", 1)
}

func TestBookingService_Get(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	start := testNow.Add(time.Hour)
	b := createBooking(t, f.db, f.item.ID, f.booker.ID, start, start.Add(time.Hour), models.StatusWaiting)

	for _, id := range []int64{f.booker.ID, f.owner.ID} {
		resp, err := f.svc.Get(ctx, id, b.ID)
		require.NoError(t, err)
		assert.Equal(t, b.ID, resp.ID)
	}

	_, err := f.svc.Get(ctx, f.other.ID, b.ID)
	se := assertKind(t, err, KindUnauthorized, "NotAuthorized")
	assert.True(t, se.Hidden)

	_, err = f.svc.Get(ctx, 999, b.ID)
	assertKind(t, err, KindNotFound, "")

	_, err = f.svc.Get(ctx, f.booker.ID, 999)
	assertKind(t, err, KindNotFound, "")
}

func TestBookingService_List(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	h := time.Hour

	past := createBooking(t, f.db, f.item.ID, f.booker.ID, testNow.Add(-3*h), testNow.Add(-2*h), models.StatusApproved)
	current := createBooking(t, f.db, f.item.ID, f.booker.ID, testNow.Add(-h), testNow.Add(h), models.StatusApproved)
	future := createBooking(t, f.db, f.item.ID, f.booker.ID, testNow.Add(2*h), testNow.Add(3*h), models.StatusWaiting)
	rejected := createBooking(t, f.db, f.item.ID, f.booker.ID, testNow.Add(4*h), testNow.Add(5*h), models.StatusRejected)

	page, _ := NewPage(0, 10)
	ids := func(resp []models.BookingResponse) []int64 {
		out := make([]int64, 0, len(resp))
		for _, r := range resp {
			out = append(out, r.ID)
		}
		return out
	}

	tests := []struct {
		state string
		want  []int64
	}{
		{"", []int64{rejected.ID, future.ID, current.ID, past.ID}},
		{"ALL", []int64{rejected.ID, future.ID, current.ID, past.ID}},
		{"CURRENT", []int64{current.ID}},
		{"PAST", []int64{past.ID}},
		{"FUTURE", []int64{rejected.ID, future.ID}},
		{"WAITING", []int64{future.ID}},
		{"REJECTED", []int64{rejected.ID}},
	}
	for _, tt := range tests {
		t.Run("booker "+tt.state, func(t *testing.T) {
			resp, err := f.svc.List(ctx, f.booker.ID, tt.state, page, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(resp))
		})
		t.Run("owner "+tt.state, func(t *testing.T) {
			resp, err := f.svc.List(ctx, f.owner.ID, tt.state, page, true)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(resp))
		})
	}

	t.Run("owner sees nothing as booker", func(t *testing.T) {
		resp, err := f.svc.List(ctx, f.owner.ID, "ALL", page, false)
		require.NoError(t, err)
		assert.Empty(t, resp)
		assert.NotNil(t, resp)
	})

	t.Run("unknown state", func(t *testing.T) {
		_, err := f.svc.List(ctx, f.booker.ID, "UNSUPPORTED_STATUS", page, false)
		se := assertKind(t, err, KindInvalidInput, "UnsupportedState")
		assert.Equal(t, "Unknown state: UNSUPPORTED_STATUS", se.Message)
	})

	t.Run("lowercase state", func(t *testing.T) {
		_, err := f.svc.List(ctx, f.booker.ID, "all", page, false)
		assertKind(t, err, KindInvalidInput, "UnsupportedState")
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.svc.List(ctx, 999, "ALL", page, false)
		assertKind(t, err, KindNotFound, "")
	})

	t.Run("invalid page", func(t *testing.T) {
		_, err := f.svc.List(ctx, f.booker.ID, "ALL", models.Page{From: -1, Size: 10}, false)
		assertKind(t, err, KindInvalidInput, "ValidationError")
	})

	t.Run("paging", func(t *testing.T) {
		resp, err := f.svc.List(ctx, f.booker.ID, "ALL", models.Page{From: 3, Size: 2}, false)
		require.NoError(t, err)
		assert.Equal(t, []int64{current.ID, past.ID}, ids(resp))
	})
}

func TestBookingService_Export(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	exp := &mockExporter{}
	f.svc.exporter = exp
	createBooking(t, f.db, f.item.ID, f.booker.ID, testNow.Add(time.Hour), testNow.Add(2*time.Hour), models.StatusWaiting)

	exp.On("ExportBookings", mock.MatchedBy(func(b []models.Booking) bool { return len(b) == 1 })).
		Return([]byte("sheet"), nil).Once()

	data, contentType, err := f.svc.Export(ctx, f.owner.ID, "ALL")
	require.NoError(t, err)
	assert.Equal(t, []byte("sheet"), data)
	assert.Equal(t, "application/test", contentType)

	_, _, err = f.svc.Export(ctx, f.owner.ID, "NOPE")
	assertKind(t, err, KindInvalidInput, "UnsupportedState")

	exp.On("ExportBookings", mock.Anything).Return(nil, assert.AnError).Once()
	_, _, err = f.svc.Export(ctx, f.owner.ID, "ALL")
	assert.ErrorIs(t, err, assert.AnError)
	exp.AssertExpectations(t)

	f.svc.exporter = nil
	_, _, err = f.svc.Export(ctx, f.owner.ID, "ALL")
	assert.Error(t, err)
}
