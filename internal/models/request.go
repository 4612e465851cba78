package models

import "time"

// ItemRequest is a wish for an item nobody has listed yet.
type ItemRequest struct {
	ID          int64     `db:"id"`
	Description string    `db:"description"`
	RequestorID int64     `db:"requestor_id"`
	Created     time.Time `db:"created"`
}

type ItemRequestInput struct {
	Description string `json:"description" validate:"notblank"`
}

type ItemRequestResponse struct {
	ID          int64          `json:"id"`
	Description string         `json:"description"`
	Created     DateTime       `json:"created"`
	Items       []ItemResponse `json:"items"`
}

// NewItemRequestResponse projects r together with the items listed for it.
func NewItemRequestResponse(r *ItemRequest, items []Item) ItemRequestResponse {
	resp := ItemRequestResponse{
		ID:          r.ID,
		Description: r.Description,
		Created:     NewDateTime(r.Created),
		Items:       make([]ItemResponse, 0, len(items)),
	}
	for i := range items {
		resp.Items = append(resp.Items, NewItemResponse(&items[i]))
	}
	return resp
}
