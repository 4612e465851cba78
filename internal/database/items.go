package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"shareit/internal/models"
)

const itemColumns = `id, name, description, available, owner_id, request_id`

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	query := db.Rebind(`INSERT INTO items (name, description, available, owner_id, request_id)
		VALUES (?, ?, ?, ?, ?) RETURNING id`)
	err := db.QueryRowxContext(ctx, query,
		item.Name, item.Description, item.Available, item.OwnerID, item.RequestID,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

func (db *DB) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	err := db.GetContext(ctx, &item, db.Rebind(`SELECT `+itemColumns+` FROM items WHERE id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", id, notFound(err))
	}
	return &item, nil
}

func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	query := db.Rebind(`UPDATE items SET name = ?, description = ?, available = ? WHERE id = ?`)
	result, err := db.ExecContext(ctx, query, item.Name, item.Description, item.Available, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("failed to update item %d: %w", item.ID, ErrNotFound)
	}
	return nil
}

func (db *DB) DeleteItem(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, db.Rebind(`DELETE FROM items WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("failed to delete item %d: %w", id, ErrNotFound)
	}
	return nil
}

func (db *DB) ListItemsByOwner(ctx context.Context, ownerID int64, page models.Page) ([]models.Item, error) {
	items := []models.Item{}
	query := db.Rebind(`SELECT ` + itemColumns + ` FROM items WHERE owner_id = ? ORDER BY id LIMIT ? OFFSET ?`)
	if err := db.SelectContext(ctx, &items, query, ownerID, page.Limit(), page.Offset()); err != nil {
		return nil, fmt.Errorf("failed to list items of owner %d: %w", ownerID, err)
	}
	return items, nil
}

// SearchItems matches text case-insensitively against name or description
// of available items.
func (db *DB) SearchItems(ctx context.Context, text string, page models.Page) ([]models.Item, error) {
	items := []models.Item{}
	pattern := "%" + strings.ToLower(text) + "%"
	query := db.Rebind(`SELECT ` + itemColumns + ` FROM items
		WHERE available = ? AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)
		ORDER BY id LIMIT ? OFFSET ?`)
	if err := db.SelectContext(ctx, &items, query, true, pattern, pattern, page.Limit(), page.Offset()); err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}
	return items, nil
}

// ListItemsByRequests returns the items listed in answer to any of requestIDs.
func (db *DB) ListItemsByRequests(ctx context.Context, requestIDs []int64) ([]models.Item, error) {
	items := []models.Item{}
	if len(requestIDs) == 0 {
		return items, nil
	}
	query, args, err := sqlx.In(`SELECT `+itemColumns+` FROM items WHERE request_id IN (?) ORDER BY id`, requestIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build items query: %w", err)
	}
	if err := db.SelectContext(ctx, &items, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list items by requests: %w", err)
	}
	return items, nil
}
