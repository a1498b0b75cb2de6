package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"gaman_backend/internal/model"
)

const followRequestColumns = `id, requester_id, requested_id, accepted, created_at, updated_at`

type followRequestRepository struct {
	db *sqlx.DB
}

func NewFollowRequestRepository(db *sqlx.DB) FollowRequestRepository {
	return &followRequestRepository{db: db}
}

// Create inserts a pending request. The unordered-pair constraint means a
// request in either direction, accepted or not, blocks a new one.
func (r *followRequestRepository) Create(ctx context.Context, tx *sqlx.Tx, requesterID, requestedID int64) (*model.FollowRequest, error) {
	query := `
		INSERT INTO follow_requests (requester_id, requested_id)
		VALUES ($1, $2)
		ON CONFLICT (pair_low, pair_high) DO NOTHING
		RETURNING ` + followRequestColumns

	var req model.FollowRequest
	err := tx.GetContext(ctx, &req, query, requesterID, requestedID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrDuplicateRequest
	}
	if err != nil {
		return nil, mapError(err, "insert follow request", model.ErrUserNotFound, model.ErrSelfFollow)
	}
	return &req, nil
}

// GetForUpdate loads the request and locks it until tx ends.
func (r *followRequestRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*model.FollowRequest, error) {
	query := `SELECT ` + followRequestColumns + ` FROM follow_requests WHERE id = $1 FOR UPDATE`

	var req model.FollowRequest
	if err := tx.GetContext(ctx, &req, query, id); err != nil {
		return nil, mapError(err, "get follow request", model.ErrFollowRequestNotFound, nil)
	}
	return &req, nil
}

func (r *followRequestRepository) MarkAccepted(ctx context.Context, tx *sqlx.Tx, id int64) error {
	query := `UPDATE follow_requests SET accepted = TRUE, updated_at = NOW() WHERE id = $1 AND NOT accepted`
	result, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to accept follow request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrAlreadyAccepted
	}
	return nil
}

func (r *followRequestRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM follow_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete follow request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrFollowRequestNotFound
	}
	return nil
}

// DeleteBetween drops whatever request exists for the unordered pair {a, b}.
func (r *followRequestRepository) DeleteBetween(ctx context.Context, tx *sqlx.Tx, a, b int64) (int64, error) {
	query := `DELETE FROM follow_requests WHERE pair_low = LEAST($1::BIGINT, $2::BIGINT) AND pair_high = GREATEST($1::BIGINT, $2::BIGINT)`
	result, err := tx.ExecContext(ctx, query, a, b)
	if err != nil {
		return 0, fmt.Errorf("failed to delete follow requests between %d and %d: %w", a, b, err)
	}
	return result.RowsAffected()
}

// DeleteStaleBetween drops an accepted request for the pair {a, b} whose edge
// has since been removed, so it no longer blocks a new request.
func (r *followRequestRepository) DeleteStaleBetween(ctx context.Context, tx *sqlx.Tx, a, b int64) (int64, error) {
	query := `
		DELETE FROM follow_requests fr
		WHERE fr.pair_low = LEAST($1::BIGINT, $2::BIGINT)
		  AND fr.pair_high = GREATEST($1::BIGINT, $2::BIGINT)
		  AND fr.accepted
		  AND NOT EXISTS (
			SELECT 1 FROM follow_edges f
			WHERE f.follower_id = fr.requester_id
			  AND f.target_kind = 'person'
			  AND f.target_id = fr.requested_id
		  )`
	result, err := tx.ExecContext(ctx, query, a, b)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale follow requests between %d and %d: %w", a, b, err)
	}
	return result.RowsAffected()
}

// ListPending returns requests waiting on requestedID, newest first, with the
// requester's summary attached.
func (r *followRequestRepository) ListPending(ctx context.Context, requestedID int64, cursor *model.Cursor, limit int) ([]model.FollowRequest, *model.Cursor, error) {
	q := psql.Select(
		"fr.id", "fr.requester_id", "fr.requested_id", "fr.accepted", "fr.created_at", "fr.updated_at",
		"u.username", "u.display_name", "u.photo_url",
	).
		From("follow_requests fr").
		Join("users u ON u.id = fr.requester_id").
		Where(squirrel.Eq{"fr.requested_id": requestedID, "fr.accepted": false}).
		OrderBy("fr.created_at DESC", "fr.id DESC").
		Limit(uint64(limit + 1))
	if cursor != nil {
		q = q.Where(keysetBefore("fr", cursor))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build pending requests query: %w", err)
	}

	type requestRow struct {
		model.FollowRequest
		Username    string  `db:"username"`
		DisplayName *string `db:"display_name"`
		PhotoURL    *string `db:"photo_url"`
	}

	var rows []requestRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, nil, fmt.Errorf("failed to list pending follow requests: %w", err)
	}

	rows, nextCursor := trimPage(rows, limit, func(row requestRow) model.Cursor { return model.Cursor{CreatedAt: row.CreatedAt, ID: row.ID} })

	requests := make([]model.FollowRequest, 0, len(rows))
	for _, row := range rows {
		req := row.FollowRequest
		req.Requester = &model.UserSummary{
			ID:          row.RequesterID,
			Username:    row.Username,
			DisplayName: row.DisplayName,
			PhotoURL:    row.PhotoURL,
		}
		requests = append(requests, req)
	}
	return requests, nextCursor, nil
}
