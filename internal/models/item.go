package models

type Item struct {
	ID          int64  `db:"id" yaml:"id"`
	Name        string `db:"name" yaml:"name"`
	Description string `db:"description" yaml:"description"`
	Available   bool   `db:"available" yaml:"available"`
	OwnerID     int64  `db:"owner_id" yaml:"owner_id"`
	RequestID   *int64 `db:"request_id" yaml:"request_id"`
}

// ItemInput is the body of an item creation request.
type ItemInput struct {
	Name        string `json:"name" validate:"notblank"`
	Description string `json:"description" validate:"notblank"`
	Available   *bool  `json:"available" validate:"required"`
	RequestID   *int64 `json:"requestId" validate:"omitempty,gt=0"`
}

// ItemPatch holds the fields to change; nil fields are kept as they are.
type ItemPatch struct {
	Name        *string `json:"name" validate:"omitempty,notblank"`
	Description *string `json:"description" validate:"omitempty,notblank"`
	Available   *bool   `json:"available"`
}

// Apply copies the non-nil fields of p onto it.
func (p ItemPatch) Apply(it *Item) {
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.Available != nil {
		it.Available = *p.Available
	}
}

// ItemResponse is the plain projection of an item.
type ItemResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	RequestID   *int64 `json:"requestId"`
}

// BookingShort is the booking summary embedded in an item view.
type BookingShort struct {
	ID       int64    `json:"id"`
	BookerID int64    `json:"bookerId"`
	Start    DateTime `json:"start"`
	End      DateTime `json:"end"`
}

// ItemDetails is an item enriched with its booking neighbours and comments.
type ItemDetails struct {
	ItemResponse
	LastBooking *BookingShort     `json:"lastBooking"`
	NextBooking *BookingShort     `json:"nextBooking"`
	Comments    []CommentResponse `json:"comments"`
}

func NewItemResponse(it *Item) ItemResponse {
	return ItemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Available:   it.Available,
		RequestID:   it.RequestID,
	}
}
