package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"gaman_backend/internal/model"
)

// reactionTable describes where reactions on one kind of content live.
type reactionTable struct {
	edges    string // reaction edge table
	target   string // reacted-to content table
	notFound error
}

var reactionTables = map[model.ReactionTargetKind]reactionTable{
	model.ReactOnPost:    {edges: "post_reactions", target: "posts", notFound: model.ErrPostNotFound},
	model.ReactOnComment: {edges: "comment_reactions", target: "comments", notFound: model.ErrCommentNotFound},
	model.ReactOnEvent:   {edges: "event_reactions", target: "events", notFound: model.ErrEventNotFound},
}

func tableFor(t model.ReactionTarget) (reactionTable, error) {
	tbl, ok := reactionTables[t.Kind]
	if !ok {
		return reactionTable{}, fmt.Errorf("unknown reaction target %q", t.Kind)
	}
	return tbl, nil
}

type reactionRepository struct {
	db *sqlx.DB
}

func NewReactionRepository(db *sqlx.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) LockTarget(ctx context.Context, tx *sqlx.Tx, t model.ReactionTarget) error {
	tbl, err := tableFor(t)
	if err != nil {
		return err
	}

	var id int64
	query := fmt.Sprintf(`SELECT id FROM %s WHERE id = $1 FOR UPDATE`, tbl.target)
	if err := tx.GetContext(ctx, &id, query, t.ID); err != nil {
		return mapError(err, "lock "+tbl.target, tbl.notFound, nil)
	}
	return nil
}

func (r *reactionRepository) Create(ctx context.Context, tx *sqlx.Tx, t model.ReactionTarget, userID int64, kind model.ReactionKind) error {
	tbl, err := tableFor(t)
	if err != nil {
		return err
	}

	query, args, err := psql.Insert(tbl.edges).
		Columns("user_id", "target_id", "kind").
		Values(userID, t.ID, kind).
		ToSql()
	if err != nil {
		return fmt.Errorf("build reaction insert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return mapError(err, "insert reaction", tbl.notFound, model.ErrConflict)
	}
	return nil
}

func (r *reactionRepository) Delete(ctx context.Context, tx *sqlx.Tx, t model.ReactionTarget, userID int64) (bool, error) {
	tbl, err := tableFor(t)
	if err != nil {
		return false, err
	}

	query, args, err := psql.Delete(tbl.edges).
		Where(squirrel.Eq{"user_id": userID, "target_id": t.ID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build reaction delete: %w", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete reaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// AdjustCounter applies delta to the target's reactions counter and returns the new value.
func (r *reactionRepository) AdjustCounter(ctx context.Context, tx *sqlx.Tx, t model.ReactionTarget, delta int64) (int64, error) {
	tbl, err := tableFor(t)
	if err != nil {
		return 0, err
	}

	var count int64
	query := fmt.Sprintf(`UPDATE %s SET reactions = reactions + $1 WHERE id = $2 RETURNING reactions`, tbl.target)
	if err := tx.GetContext(ctx, &count, query, delta, t.ID); err != nil {
		return 0, mapError(err, "adjust "+tbl.target+" reactions", tbl.notFound, model.ErrIntegrity)
	}
	return count, nil
}

// List returns who reacted to t, newest first.
func (r *reactionRepository) List(ctx context.Context, t model.ReactionTarget, cursor *model.Cursor, limit int) ([]model.Reaction, *model.Cursor, error) {
	tbl, err := tableFor(t)
	if err != nil {
		return nil, nil, err
	}

	q := psql.Select("r.id AS edge_id", "r.user_id", "u.username", "r.kind", "r.created_at").
		From(tbl.edges + " r").
		Join("users u ON u.id = r.user_id").
		Where(squirrel.Eq{"r.target_id": t.ID}).
		OrderBy("r.created_at DESC", "r.id DESC").
		Limit(uint64(limit + 1))
	if cursor != nil {
		q = q.Where(keysetBefore("r", cursor))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build reactions query: %w", err)
	}

	type reactionRow struct {
		model.Reaction
		EdgeID int64 `db:"edge_id"`
	}

	var rows []reactionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, nil, fmt.Errorf("list reactions: %w", err)
	}

	rows, next := trimPage(rows, limit, func(re reactionRow) model.Cursor {
		return model.Cursor{CreatedAt: re.CreatedAt, ID: re.EdgeID}
	})
	reactions := make([]model.Reaction, 0, len(rows))
	for _, row := range rows {
		reactions = append(reactions, row.Reaction)
	}
	return reactions, next, nil
}
