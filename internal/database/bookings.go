package database

import (
	"context"
	"fmt"
	"time"

	"shareit/internal/models"
)

const bookingSelect = `SELECT b.id, b.start_date, b.end_date, b.status, b.booker_id, u.name AS booker_name,
		b.item_id, i.name AS item_name, i.owner_id AS item_owner_id, b.created_at, b.updated_at, b.version
	FROM bookings b
	JOIN items i ON i.id = b.item_id
	JOIN users u ON u.id = b.booker_id`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	now := time.Now().UTC()
	query := db.Rebind(`INSERT INTO bookings (start_date, end_date, status, booker_id, item_id, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1) RETURNING id`)
	err := db.QueryRowxContext(ctx, query,
		booking.Start.UTC(),
		booking.End.UTC(),
		booking.Status,
		booking.BookerID,
		booking.ItemID,
		now,
		now,
	).Scan(&booking.ID)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	if err := db.GetContext(ctx, &booking, db.Rebind(bookingSelect+` WHERE b.id = ?`), id); err != nil {
		return nil, fmt.Errorf("failed to get booking %d: %w", id, notFound(err))
	}
	return &booking, nil
}

// UpdateBookingStatusWithVersion moves a booking to status only if nobody
// changed it since fromVersion was read.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status models.BookingStatus) error {
	query := db.Rebind(`UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`)
	result, err := db.ExecContext(ctx, query, status, time.Now().UTC(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// ListBookings returns one page of bookings for q, newest start first.
func (db *DB) ListBookings(ctx context.Context, q models.BookingQuery) ([]models.Booking, error) {
	where := "b.booker_id = ?"
	if q.AsOwner {
		where = "i.owner_id = ?"
	}
	args := []interface{}{q.UserID}

	if predicate, stateArgs := statePredicate(q.State, q.Now.UTC()); predicate != "" {
		where += " AND " + predicate
		args = append(args, stateArgs...)
	}
	args = append(args, q.Page.Limit(), q.Page.Offset())

	query := db.Rebind(bookingSelect + ` WHERE ` + where + ` ORDER BY b.start_date DESC, b.id DESC LIMIT ? OFFSET ?`)
	bookings := []models.Booking{}
	if err := db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// statePredicate narrows a booking query to one state. CURRENT, FUTURE and
// PAST split the time line at now without gaps: start <= now < end,
// start > now and end <= now.
func statePredicate(state models.BookingState, now time.Time) (string, []interface{}) {
	switch state {
	case models.StateCurrent:
		return "b.start_date <= ? AND b.end_date > ?", []interface{}{now, now}
	case models.StateFuture:
		return "b.start_date > ?", []interface{}{now}
	case models.StatePast:
		return "b.end_date <= ?", []interface{}{now}
	case models.StateWaiting:
		return "b.status = ?", []interface{}{models.StatusWaiting}
	case models.StateRejected:
		return "b.status = ?", []interface{}{models.StatusRejected}
	default:
		return "", nil
	}
}

// LastBooking returns the approved booking of the item that started at or
// before now and ends latest, or nil.
func (db *DB) LastBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	query := bookingSelect + ` WHERE b.item_id = ? AND b.status = ? AND b.start_date <= ?
		ORDER BY b.end_date DESC, b.id DESC LIMIT 1`
	return db.optionalBooking(ctx, query, itemID, models.StatusApproved, now.UTC())
}

// NextBooking returns the earliest approved booking of the item starting
// after now, or nil.
func (db *DB) NextBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	query := bookingSelect + ` WHERE b.item_id = ? AND b.status = ? AND b.start_date > ?
		ORDER BY b.start_date ASC, b.id ASC LIMIT 1`
	return db.optionalBooking(ctx, query, itemID, models.StatusApproved, now.UTC())
}

func (db *DB) optionalBooking(ctx context.Context, query string, args ...interface{}) (*models.Booking, error) {
	bookings := []models.Booking{}
	if err := db.SelectContext(ctx, &bookings, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get item booking: %w", err)
	}
	if len(bookings) == 0 {
		return nil, nil
	}
	return &bookings[0], nil
}

// HasFinishedBooking reports whether the user holds an approved booking of
// the item that ended strictly before now.
func (db *DB) HasFinishedBooking(ctx context.Context, userID, itemID int64, now time.Time) (bool, error) {
	var count int
	query := db.Rebind(`SELECT COUNT(*) FROM bookings
		WHERE booker_id = ? AND item_id = ? AND status = ? AND end_date < ?`)
	if err := db.GetContext(ctx, &count, query, userID, itemID, models.StatusApproved, now.UTC()); err != nil {
		return false, fmt.Errorf("failed to check finished bookings: %w", err)
	}
	return count > 0, nil
}
