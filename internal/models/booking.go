package models

import "time"

type Booking struct {
	ID          int64         `db:"id"`
	Start       time.Time     `db:"start_date"`
	End         time.Time     `db:"end_date"`
	Status      BookingStatus `db:"status"`
	BookerID    int64         `db:"booker_id"`
	BookerName  string        `db:"booker_name"`
	ItemID      int64         `db:"item_id"`
	ItemName    string        `db:"item_name"`
	ItemOwnerID int64         `db:"item_owner_id"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
	Version     int64         `db:"version"`
}

// IsParticipant reports whether userID is the booker or the item owner.
func (b *Booking) IsParticipant(userID int64) bool {
	return b.BookerID == userID || b.ItemOwnerID == userID
}

// BookingInput is the body of a booking creation request.
type BookingInput struct {
	ItemID int64     `json:"itemId" validate:"required,gt=0"`
	Start  *DateTime `json:"start" validate:"required"`
	End    *DateTime `json:"end" validate:"required"`
}

type BookingItemRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type BookingUserRef struct {
	ID int64 `json:"id"`
}

// BookingResponse is the client-facing projection of a booking.
type BookingResponse struct {
	ID     int64          `json:"id"`
	Start  DateTime       `json:"start"`
	End    DateTime       `json:"end"`
	Status BookingStatus  `json:"status"`
	Booker BookingUserRef `json:"booker"`
	Item   BookingItemRef `json:"item"`
}

func NewBookingResponse(b *Booking) BookingResponse {
	return BookingResponse{
		ID:     b.ID,
		Start:  NewDateTime(b.Start),
		End:    NewDateTime(b.End),
		Status: b.Status,
		Booker: BookingUserRef{ID: b.BookerID},
		Item:   BookingItemRef{ID: b.ItemID, Name: b.ItemName},
	}
}

func NewBookingShort(b *Booking) *BookingShort {
	if b == nil {
		return nil
	}
	return &BookingShort{
		ID:       b.ID,
		BookerID: b.BookerID,
		Start:    NewDateTime(b.Start),
		End:      NewDateTime(b.End),
	}
}

// BookingQuery selects one page of a user's bookings in a given state,
// either as booker or as owner of the booked items.
type BookingQuery struct {
	UserID  int64
	AsOwner bool
	State   BookingState
	Now     time.Time
	Page    Page
}
