package database

import (
	"context"
	"fmt"

	"shareit/internal/models"
)

const requestColumns = `id, description, requestor_id, created`

func (db *DB) CreateRequest(ctx context.Context, req *models.ItemRequest) error {
	query := db.Rebind(`INSERT INTO requests (description, requestor_id, created) VALUES (?, ?, ?) RETURNING id`)
	if err := db.QueryRowxContext(ctx, query, req.Description, req.RequestorID, req.Created.UTC()).Scan(&req.ID); err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

func (db *DB) GetRequest(ctx context.Context, id int64) (*models.ItemRequest, error) {
	var req models.ItemRequest
	if err := db.GetContext(ctx, &req, db.Rebind(`SELECT `+requestColumns+` FROM requests WHERE id = ?`), id); err != nil {
		return nil, fmt.Errorf("failed to get request %d: %w", id, notFound(err))
	}
	return &req, nil
}

// ListRequestsByRequestor returns the user's own requests, newest first.
func (db *DB) ListRequestsByRequestor(ctx context.Context, userID int64) ([]models.ItemRequest, error) {
	reqs := []models.ItemRequest{}
	query := db.Rebind(`SELECT ` + requestColumns + ` FROM requests WHERE requestor_id = ? ORDER BY created DESC, id DESC`)
	if err := db.SelectContext(ctx, &reqs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return reqs, nil
}

// ListOtherRequests returns one page of requests made by anyone but userID.
func (db *DB) ListOtherRequests(ctx context.Context, userID int64, page models.Page) ([]models.ItemRequest, error) {
	reqs := []models.ItemRequest{}
	query := db.Rebind(`SELECT ` + requestColumns + ` FROM requests WHERE requestor_id <> ?
		ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`)
	if err := db.SelectContext(ctx, &reqs, query, userID, page.Limit(), page.Offset()); err != nil {
		return nil, fmt.Errorf("failed to list requests of other users: %w", err)
	}
	return reqs, nil
}
