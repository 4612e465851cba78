package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shareit/internal/models"
)

func TestRequestsAndComments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, db, "Alice", "alice@example.com")
	bob := seedUser(t, db, "Bob", "bob@example.com")
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	first := &models.ItemRequest{Description: "kayak", RequestorID: alice.ID, Created: base}
	second := &models.ItemRequest{Description: "paddle", RequestorID: alice.ID, Created: base.Add(time.Hour)}
	foreign := &models.ItemRequest{Description: "bike", RequestorID: bob.ID, Created: base.Add(2 * time.Hour)}
	for _, r := range []*models.ItemRequest{first, second, foreign} {
		require.NoError(t, db.CreateRequest(ctx, r))
	}

	t.Run("GetRequest", func(t *testing.T) {
		got, err := db.GetRequest(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "kayak", got.Description)
		assert.True(t, got.Created.Equal(base))

		_, err = db.GetRequest(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ListOwn", func(t *testing.T) {
		reqs, err := db.ListRequestsByRequestor(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, reqs, 2)
		assert.Equal(t, second.ID, reqs[0].ID)
		assert.Equal(t, first.ID, reqs[1].ID)
	})

	t.Run("ListOthers", func(t *testing.T) {
		reqs, err := db.ListOtherRequests(ctx, alice.ID, models.Page{Size: 10})
		require.NoError(t, err)
		require.Len(t, reqs, 1)
		assert.Equal(t, foreign.ID, reqs[0].ID)

		reqs, err = db.ListOtherRequests(ctx, bob.ID, models.Page{From: 1, Size: 1})
		require.NoError(t, err)
		require.Len(t, reqs, 1)
		assert.Equal(t, first.ID, reqs[0].ID)
	})

	t.Run("Comments", func(t *testing.T) {
		item := seedItem(t, db, alice.ID, "Kayak")
		c1 := &models.Comment{Text: "great", ItemID: item.ID, AuthorID: bob.ID, Created: base}
		c2 := &models.Comment{Text: "still great", ItemID: item.ID, AuthorID: bob.ID, Created: base.Add(time.Minute)}
		require.NoError(t, db.CreateComment(ctx, c1))
		require.NoError(t, db.CreateComment(ctx, c2))

		comments, err := db.ListComments(ctx, item.ID)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, c1.ID, comments[0].ID)
		assert.Equal(t, "Bob", comments[0].AuthorName)
		assert.Equal(t, "still great", comments[1].Text)
	})
}
