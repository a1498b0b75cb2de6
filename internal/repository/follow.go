package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"gaman_backend/internal/model"
)

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Exists(ctx context.Context, followerID int64, target model.ActorRef) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM follow_edges
			WHERE follower_id = $1 AND target_kind = $2 AND target_id = $3
		)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, followerID, target.Kind, target.ID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow existence: %w", err)
	}
	return exists, nil
}

// Create inserts the edge. A duplicate or a self edge yields model.ErrConflict
// and leaves the table untouched.
func (r *followRepository) Create(ctx context.Context, tx *sqlx.Tx, followerID int64, target model.ActorRef) error {
	query, args, err := psql.Insert("follow_edges").
		Columns("follower_id", "target_kind", "target_id").
		Values(followerID, target.Kind, target.ID).
		Suffix("ON CONFLICT (follower_id, target_kind, target_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build follow insert: %w", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, "create follow", model.ErrUserNotFound, model.ErrConflict)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrConflict
	}
	return nil
}

// Delete removes the edge if present and reports whether it did.
func (r *followRepository) Delete(ctx context.Context, tx *sqlx.Tx, followerID int64, target model.ActorRef) (bool, error) {
	query := `DELETE FROM follow_edges WHERE follower_id = $1 AND target_kind = $2 AND target_id = $3`
	result, err := tx.ExecContext(ctx, query, followerID, target.Kind, target.ID)
	if err != nil {
		return false, fmt.Errorf("failed to delete follow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// FollowersOf lists persons following target, newest first.
//
// Pagination is keyed on the edge's (created_at, id): pass the returned cursor
// back to get the next page. limit+1 rows are read to know whether one exists.
func (r *followRepository) FollowersOf(ctx context.Context, target model.ActorRef, cursor *model.Cursor, limit int) ([]model.UserSummary, *model.Cursor, error) {
	q := psql.Select("u.id", "u.username", "u.display_name", "u.photo_url", "f.created_at", "f.id AS edge_id").
		From("follow_edges f").
		Join("users u ON u.id = f.follower_id").
		Where(squirrel.Eq{"f.target_kind": target.Kind, "f.target_id": target.ID}).
		OrderBy("f.created_at DESC", "f.id DESC").
		Limit(uint64(limit + 1))
	if cursor != nil {
		q = q.Where(keysetBefore("f", cursor))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build followers query: %w", err)
	}

	type userWithTime struct {
		model.UserSummary
		CreatedAt time.Time `db:"created_at"`
		EdgeID    int64     `db:"edge_id"`
	}

	var results []userWithTime
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, nil, fmt.Errorf("failed to get followers: %w", err)
	}

	results, nextCursor := trimPage(results, limit, func(u userWithTime) model.Cursor { return model.Cursor{CreatedAt: u.CreatedAt, ID: u.EdgeID} })

	users := make([]model.UserSummary, 0, len(results))
	for _, result := range results {
		users = append(users, result.UserSummary)
	}
	return users, nextCursor, nil
}

// FollowingOf lists every actor followerID follows, newest first.
func (r *followRepository) FollowingOf(ctx context.Context, followerID int64, cursor *model.Cursor, limit int) ([]model.FollowingEntry, *model.Cursor, error) {
	q := psql.Select(
		"f.target_kind", "f.target_id", "f.created_at", "f.id AS edge_id",
		"COALESCE(u.display_name, u.username, b.name, c.name, '') AS name",
		"COALESCE(u.photo_url, b.photo_url, c.photo_url) AS photo_url",
	).
		From("follow_edges f").
		LeftJoin("users u ON f.target_kind = 'person' AND u.id = f.target_id").
		LeftJoin("brands b ON f.target_kind = 'brand' AND b.id = f.target_id").
		LeftJoin("clubs c ON f.target_kind = 'club' AND c.id = f.target_id").
		Where(squirrel.Eq{"f.follower_id": followerID}).
		OrderBy("f.created_at DESC", "f.id DESC").
		Limit(uint64(limit + 1))
	if cursor != nil {
		q = q.Where(keysetBefore("f", cursor))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build following query: %w", err)
	}

	type followingRow struct {
		TargetKind model.ActorKind `db:"target_kind"`
		TargetID   int64           `db:"target_id"`
		Name       string          `db:"name"`
		PhotoURL   *string         `db:"photo_url"`
		CreatedAt  time.Time       `db:"created_at"`
		EdgeID     int64           `db:"edge_id"`
	}

	var rows []followingRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, nil, fmt.Errorf("failed to get following: %w", err)
	}

	rows, nextCursor := trimPage(rows, limit, func(f followingRow) model.Cursor { return model.Cursor{CreatedAt: f.CreatedAt, ID: f.EdgeID} })

	entries := make([]model.FollowingEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, model.FollowingEntry{
			Target:    model.ActorRef{Kind: row.TargetKind, ID: row.TargetID},
			Name:      row.Name,
			PhotoURL:  row.PhotoURL,
			CreatedAt: row.CreatedAt,
		})
	}
	return entries, nextCursor, nil
}
