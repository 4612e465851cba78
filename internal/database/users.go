package database

import (
	"context"
	"fmt"

	"shareit/internal/models"
)

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := db.Rebind(`INSERT INTO users (name, email) VALUES (?, ?) RETURNING id`)
	if err := db.QueryRowxContext(ctx, query, user.Name, user.Email).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email %s: %w", user.Email, ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := db.GetContext(ctx, &user, db.Rebind(`SELECT id, name, email FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, notFound(err))
	}
	return &user, nil
}

func (db *DB) UpdateUser(ctx context.Context, user *models.User) error {
	query := db.Rebind(`UPDATE users SET name = ?, email = ? WHERE id = ?`)
	result, err := db.ExecContext(ctx, query, user.Name, user.Email, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email %s: %w", user.Email, ErrDuplicate)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("failed to update user %d: %w", user.ID, ErrNotFound)
	}
	return nil
}

func (db *DB) ListUsers(ctx context.Context, page models.Page) ([]models.User, error) {
	users := []models.User{}
	query := db.Rebind(`SELECT id, name, email FROM users ORDER BY id LIMIT ? OFFSET ?`)
	if err := db.SelectContext(ctx, &users, query, page.Limit(), page.Offset()); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("failed to delete user %d: %w", id, ErrNotFound)
	}
	return nil
}
