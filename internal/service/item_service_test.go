package service

import (
	"context"
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

func newItemService(t *testing.T) (*ItemService, *database.DB, *mockPublisher) {
	t.Helper()
	db := setupDB(t)
	bus := &mockPublisher{}
	logger := zerolog.Nop()
	svc := NewItemService(db, bus, &logger)
	svc.now = func() time.Time { return testNow }
	return svc, db, bus
}

func TestItemService_Create(t *testing.T) {
	svc, db, _ := newItemService(t)
	ctx := context.Background()
	owner := createUser(t, db, "Owner", "owner@example.com")

	resp, err := svc.Create(ctx, owner.ID, models.ItemInput{
		Name: "Drill", Description: "Cordless", Available: boolPtr(true),
	})
	require.NoError(t, err)
	assert.NotZero(t, resp.ID)
	assert.Equal(t, "Drill", resp.Name)
	assert.True(t, resp.Available)
	assert.Nil(t, resp.RequestID)

	t.Run("missing available", func(t *testing.T) {
		_, err := svc.Create(ctx, owner.ID, models.ItemInput{Name: "Drill", Description: "Cordless"})
		se := assertKind(t, err, KindInvalidInput, "ValidationError")
		assert.Contains(t, se.Message, "available is required")
	})
	t.Run("blank name", func(t *testing.T) {
		_, err := svc.Create(ctx, owner.ID, models.ItemInput{Name: "  ", Description: "x", Available: boolPtr(true)})
		assertKind(t, err, KindInvalidInput, "ValidationError")
	})
	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Create(ctx, 999, models.ItemInput{Name: "a", Description: "b", Available: boolPtr(true)})
		assertKind(t, err, KindNotFound, "NotFound")
	})
	t.Run("unknown request", func(t *testing.T) {
		_, err := svc.Create(ctx, owner.ID, models.ItemInput{
			Name: "a", Description: "b", Available: boolPtr(true), RequestID: int64Ptr(77),
		})
		se := assertKind(t, err, KindNotFound, "NotFound")
		assert.Contains(t, se.Message, "request")
	})
	t.Run("answers request", func(t *testing.T) {
		asker := createUser(t, db, "Asker", "asker@example.com")
		req := &models.ItemRequest{Description: "need a ladder", RequestorID: asker.ID, Created: testNow}
		require.NoError(t, db.CreateRequest(ctx, req))

		resp, err := svc.Create(ctx, owner.ID, models.ItemInput{
			Name: "Ladder", Description: "3m", Available: boolPtr(true), RequestID: &req.ID,
		})
		require.NoError(t, err)
		require.NotNil(t, resp.RequestID)
		assert.Equal(t, req.ID, *resp.RequestID)
	})
}

func TestItemService_UpdateAndDelete(t *testing.T) {
	svc, db, _ := newItemService(t)
	ctx := context.Background()
	owner := createUser(t, db, "Owner", "owner@example.com")
	stranger := createUser(t, db, "Stranger", "stranger@example.com")
	item := createItem(t, db, owner.ID, "Drill", true)

	resp, err := svc.Update(ctx, owner.ID, item.ID, models.ItemPatch{Available: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, resp.Available)
	assert.Equal(t, "Drill", resp.Name)

	resp, err = svc.Update(ctx, owner.ID, item.ID, models.ItemPatch{Name: strPtr("Hammer drill")})
	require.NoError(t, err)
	assert.Equal(t, "Hammer drill", resp.Name)
	assert.False(t, resp.Available)

	_, err = svc.Update(ctx, stranger.ID, item.ID, models.ItemPatch{Name: strPtr("Mine")})
	se := assertKind(t, err, KindUnauthorized, "NotOwner")
	assert.False(t, se.Hidden)

	_, err = svc.Update(ctx, owner.ID, item.ID, models.ItemPatch{Name: strPtr(" ")})
	assertKind(t, err, KindInvalidInput, "ValidationError")

	_, err = svc.Update(ctx, owner.ID, 999, models.ItemPatch{})
	assertKind(t, err, KindNotFound, "NotFound")

	_, err = svc.Update(ctx, 999, item.ID, models.ItemPatch{})
	assertKind(t, err, KindNotFound, "NotFound")

	err = svc.Delete(ctx, stranger.ID, item.ID)
	assertKind(t, err, KindUnauthorized, "NotOwner")

	require.NoError(t, svc.Delete(ctx, owner.ID, item.ID))
	_, err = db.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestItemService_GetDetails(t *testing.T) {
	svc, db, _ := newItemService(t)
	ctx := context.Background()
	owner := createUser(t, db, "Owner", "owner@example.com")
	booker := createUser(t, db, "Booker", "booker@example.com")
	item := createItem(t, db, owner.ID, "Drill", true)
	h := time.Hour

	last := createBooking(t, db, item.ID, booker.ID, testNow.Add(-3*h), testNow.Add(-2*h), models.StatusApproved)
	next := createBooking(t, db, item.ID, booker.ID, testNow.Add(2*h), testNow.Add(3*h), models.StatusApproved)
	createBooking(t, db, item.ID, booker.ID, testNow.Add(time.Hour), testNow.Add(90*time.Minute), models.StatusWaiting)

	c := &models.Comment{Text: "Great", ItemID: item.ID, AuthorID: booker.ID, Created: testNow}
	require.NoError(t, db.CreateComment(ctx, c))

	t.Run("owner", func(t *testing.T) {
		d, err := svc.Get(ctx, owner.ID, item.ID)
		require.NoError(t, err)
		require.NotNil(t, d.LastBooking)
		require.NotNil(t, d.NextBooking)
		assert.Equal(t, last.ID, d.LastBooking.ID)
		assert.Equal(t, next.ID, d.NextBooking.ID)
		assert.Equal(t, booker.ID, d.NextBooking.BookerID)
		require.Len(t, d.Comments, 1)
		assert.Equal(t, "Booker", d.Comments[0].AuthorName)
	})

	t.Run("non-owner", func(t *testing.T) {
		d, err := svc.Get(ctx, booker.ID, item.ID)
		require.NoError(t, err)
		assert.Nil(t, d.LastBooking)
		assert.Nil(t, d.NextBooking)
		assert.Len(t, d.Comments, 1)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := svc.Get(ctx, owner.ID, 999)
		assertKind(t, err, KindNotFound, "NotFound")
		_, err = svc.Get(ctx, 999, item.ID)
		assertKind(t, err, KindNotFound, "NotFound")
	})

	t.Run("list by owner", func(t *testing.T) {
		createItem(t, db, owner.ID, "Saw", true)
		list, err := svc.ListByOwner(ctx, owner.ID, models.Page{Size: 10})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, item.ID, list[0].ID)
		assert.NotNil(t, list[0].LastBooking)
		assert.Nil(t, list[1].LastBooking)
		assert.NotNil(t, list[1].Comments)

		list, err = svc.ListByOwner(ctx, booker.ID, models.Page{Size: 10})
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestItemService_Search(t *testing.T) {
	svc, db, _ := newItemService(t)
	ctx := context.Background()
	owner := createUser(t, db, "Owner", "owner@example.com")
	createItem(t, db, owner.ID, "Cordless Drill", true)
	createItem(t, db, owner.ID, "Old drill", false)
	createItem(t, db, owner.ID, "Saw", true)
	page := models.Page{Size: 10}

	found, err := svc.Search(ctx, "DRILL", page)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Cordless Drill", found[0].Name)

	found, err = svc.Search(ctx, "  ", page)
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)

	found, err = svc.Search(ctx, "piano", page)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestItemService_AddComment(t *testing.T) {
	svc, db, bus := newItemService(t)
	ctx := context.Background()
	owner := createUser(t, db, "Owner", "owner@example.com")
	booker := createUser(t, db, "Booker", "booker@example.com")
	item := createItem(t, db, owner.ID, "Drill", true)
	h := time.Hour

	t.Run("no booking", func(t *testing.T) {
		_, err := svc.AddComment(ctx, booker.ID, item.ID, models.CommentInput{Text: "Nice"})
		assertKind(t, err, KindPrecondition, "NotEligible")
	})

	t.Run("booking still running", func(t *testing.T) {
		createBooking(t, db, item.ID, booker.ID, testNow.Add(-h), testNow.Add(h), models.StatusApproved)
		_, err := svc.AddComment(ctx, booker.ID, item.ID, models.CommentInput{Text: "Nice"})
		assertKind(t, err, KindPrecondition, "NotEligible")
	})

	t.Run("booking ends exactly now", func(t *testing.T) {
		createBooking(t, db, item.ID, booker.ID, testNow.Add(-2*h), testNow, models.StatusApproved)
		_, err := svc.AddComment(ctx, booker.ID, item.ID, models.CommentInput{Text: "Nice"})
		assertKind(t, err, KindPrecondition, "NotEligible")
	})

	t.Run("rejected past booking", func(t *testing.T) {
		createBooking(t, db, item.ID, booker.ID, testNow.Add(-5*h), testNow.Add(-4*h), models.StatusRejected)
		_, err := svc.AddComment(ctx, booker.ID, item.ID, models.CommentInput{Text: "Nice"})
		assertKind(t, err, KindPrecondition, "NotEligible")
	})

	t.Run("blank text", func(t *testing.T) {
		_, err := svc.AddComment(ctx, booker.ID, item.ID, models.CommentInput{Text: ""})
		assertKind(t, err, KindInvalidInput, "ValidationError")
	})

	t.Run("finished booking", func(t *testing.T) {
		createBooking(t, db, item.ID, booker.ID, testNow.Add(-3*h), testNow.Add(-2*h), models.StatusApproved)
		bus.On("PublishJSON", events.EventCommentCreated, mock.AnythingOfType("events.CommentEventPayload")).Return(nil).Once()

		resp, err := svc.AddComment(ctx, booker.ID, item.ID, models.CommentInput{Text: "Worked well"})
		require.NoError(t, err)
		assert.NotZero(t, resp.ID)
		assert.Equal(t, "Worked well", resp.Text)
		assert.Equal(t, "Booker", resp.AuthorName)
		assert.True(t, resp.Created.Equal(testNow))
		bus.AssertExpectations(t)

		comments, err := db.ListComments(ctx, item.ID)
		require.NoError(t, err)
		assert.Len(t, comments, 1)
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := svc.AddComment(ctx, booker.ID, 999, models.CommentInput{Text: "Nice"})
		assertKind(t, err, KindNotFound, "NotFound")
	})
}
