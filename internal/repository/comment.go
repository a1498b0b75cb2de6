package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"gaman_backend/internal/model"
)

const commentColumns = `id, post_id, author_id, kind, parent_id, text, reactions, created_at, updated_at`

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts c. The post counter is the caller's job, in the same tx.
func (r *commentRepository) Create(ctx context.Context, tx *sqlx.Tx, c *model.Comment) error {
	query := `
		INSERT INTO comments (post_id, author_id, kind, parent_id, text)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + commentColumns
	err := tx.GetContext(ctx, c, query, c.PostID, c.AuthorID, c.Kind, c.ParentID, c.Text)
	switch violatedConstraint(err) {
	case "comments_parent_fk":
		return model.ErrCommentNotFound
	case "comments_author_fk":
		return model.ErrUserNotFound
	}
	if err != nil {
		return mapError(err, "insert comment", model.ErrPostNotFound, model.ErrIntegrity)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	var c model.Comment
	err := r.db.GetContext(ctx, &c, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)
	if err != nil {
		return nil, mapError(err, "get comment", model.ErrCommentNotFound, nil)
	}
	return &c, nil
}

func (r *commentRepository) UpdateText(ctx context.Context, id int64, text string) (*model.Comment, error) {
	query := `
		UPDATE comments SET text = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + commentColumns
	var c model.Comment
	if err := r.db.GetContext(ctx, &c, query, text, id); err != nil {
		return nil, mapError(err, "update comment", model.ErrCommentNotFound, nil)
	}
	return &c, nil
}

// DeleteWithReplies removes the comment and its replies in one statement so the
// returned count matches exactly what the post counter must lose.
func (r *commentRepository) DeleteWithReplies(ctx context.Context, tx *sqlx.Tx, id int64) (int64, error) {
	query := `
		WITH removed AS (
			DELETE FROM comments WHERE id = $1 OR parent_id = $1
			RETURNING 1
		)
		SELECT COUNT(*) FROM removed
	`
	var removed int64
	if err := tx.GetContext(ctx, &removed, query, id); err != nil {
		return 0, fmt.Errorf("delete comment: %w", err)
	}
	if removed == 0 {
		return 0, model.ErrCommentNotFound
	}
	return removed, nil
}

// ListByPost returns a post's comments, newest first.
func (r *commentRepository) ListByPost(ctx context.Context, postID int64, cursor *model.Cursor, limit int) ([]model.Comment, *model.Cursor, error) {
	q := psql.Select(commentColumns).
		From("comments").
		Where(squirrel.Eq{"post_id": postID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit + 1))
	if cursor != nil {
		q = q.Where(keysetBefore("comments", cursor))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build comments query: %w", err)
	}

	var comments []model.Comment
	if err := r.db.SelectContext(ctx, &comments, query, args...); err != nil {
		return nil, nil, fmt.Errorf("get comments: %w", err)
	}

	comments, next := trimPage(comments, limit, func(c model.Comment) model.Cursor { return model.Cursor{CreatedAt: c.CreatedAt, ID: c.ID} })
	return comments, next, nil
}
