package database

import (
	"context"
	"fmt"

	"shareit/internal/models"
)

func (db *DB) CreateComment(ctx context.Context, c *models.Comment) error {
	query := db.Rebind(`INSERT INTO comments (text, item_id, author_id, created) VALUES (?, ?, ?, ?) RETURNING id`)
	if err := db.QueryRowxContext(ctx, query, c.Text, c.ItemID, c.AuthorID, c.Created.UTC()).Scan(&c.ID); err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// ListComments returns the item's comments in the order they were written.
func (db *DB) ListComments(ctx context.Context, itemID int64) ([]models.Comment, error) {
	comments := []models.Comment{}
	query := db.Rebind(`SELECT c.id, c.text, c.item_id, c.author_id, u.name AS author_name, c.created
		FROM comments c JOIN users u ON u.id = c.author_id
		WHERE c.item_id = ? ORDER BY c.created, c.id`)
	if err := db.SelectContext(ctx, &comments, query, itemID); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}
