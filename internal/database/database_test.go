package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shareit/internal/config"
	"shareit/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *DB, name, email string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func seedItem(t *testing.T, db *DB, ownerID int64, name string) *models.Item {
	t.Helper()
	it := &models.Item{Name: name, Description: name + " for rent", Available: true, OwnerID: ownerID}
	require.NoError(t, db.CreateItem(context.Background(), it))
	return it
}

func seedBooking(t *testing.T, db *DB, itemID, bookerID int64, start, end time.Time, status models.BookingStatus) *models.Booking {
	t.Helper()
	b := &models.Booking{ItemID: itemID, BookerID: bookerID, Start: start, End: end, Status: status}
	require.NoError(t, db.CreateBooking(context.Background(), b))
	return b
}

func TestOpenSQLiteFile(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "nested", "shareit.db")

	db, err := Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: path}, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, config.DriverSQLite, db.Driver())
	assert.Equal(t, path, db.Path())
	assert.NoError(t, db.PingContext(context.Background()))

	// Schema creation is idempotent.
	require.NoError(t, db.createTables(context.Background()))
}

func TestDB_ErrorPaths(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	db.Close()

	ctx := context.Background()

	t.Run("CreateUser", func(t *testing.T) {
		assert.Error(t, db.CreateUser(ctx, &models.User{Name: "a", Email: "a@b.c"}))
	})
	t.Run("GetItem", func(t *testing.T) {
		_, err := db.GetItem(ctx, 1)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
	t.Run("ListBookings", func(t *testing.T) {
		_, err := db.ListBookings(ctx, models.BookingQuery{UserID: 1, State: models.StateAll, Page: models.Page{Size: 10}})
		assert.Error(t, err)
	})
	t.Run("HasFinishedBooking", func(t *testing.T) {
		_, err := db.HasFinishedBooking(ctx, 1, 1, time.Now())
		assert.Error(t, err)
	})
}

func pageOf(size int) models.Page {
	return models.Page{Size: size}
}
