package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gaman_backend/internal/model"
)

const userColumns = `id, username, display_name, about, photo_url, photo_key, is_public,
		       follower_count, following_count, created_at, updated_at`

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user. Accounts are provisioned by the auth service;
// this exists for seeding and tests.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (username, display_name, about, is_public)
		VALUES ($1, $2, $3, $4)
		RETURNING id, follower_count, following_count, created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query, u.Username, u.DisplayName, u.About, u.IsPublic)
	err := row.Scan(&u.ID, &u.FollowerCount, &u.FollowingCount, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return mapError(err, "insert user", nil, model.ErrConflict)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u model.User
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		return nil, mapError(err, "get user by id", model.ErrUserNotFound, nil)
	}

	return &u, nil
}

func (r *userRepository) SetPrivacy(ctx context.Context, id int64, isPublic bool) (*model.User, error) {
	query := `
		UPDATE users SET is_public = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + userColumns

	var u model.User
	if err := r.db.GetContext(ctx, &u, query, isPublic, id); err != nil {
		return nil, mapError(err, "set user privacy", model.ErrUserNotFound, nil)
	}
	return &u, nil
}

func (r *userRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	query := `UPDATE users SET following_count = following_count + $1 WHERE id = $2`
	_, err := tx.ExecContext(ctx, query, delta, userID)
	if err != nil {
		return fmt.Errorf("failed to increment following count: %w", err)
	}
	return nil
}
