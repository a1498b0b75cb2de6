package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"gaman_backend/internal/model"
)

// ownerColumn is the column that holds an owner of the given kind, on a table aliased as alias.
func ownerColumn(alias string, kind model.ActorKind) (string, error) {
	switch kind {
	case model.ActorPerson:
		return alias + ".user_id", nil
	case model.ActorBrand:
		return alias + ".brand_id", nil
	case model.ActorClub:
		return alias + ".club_id", nil
	}
	return "", model.ErrInvalidActorKind
}

// Post counters that IncrementCounter may touch.
const (
	PostReactions = "reactions"
	PostComments  = "comments"
	PostShares    = "shares"
)

var postCounters = map[string]struct{}{
	PostReactions: {},
	PostComments:  {},
	PostShares:    {},
}

func selectPosts() squirrel.SelectBuilder {
	return psql.Select(
		"p.id", "p.user_id", "p.brand_id", "p.club_id", "b.sponsor_id", "c.trainer_id",
		"p.about", "p.privacy", "p.feeling", "p.location", "p.media_urls", "p.repost_of",
		"p.reactions", "p.comments", "p.shares", "p.created_at", "p.updated_at",
	).
		From("posts p").
		LeftJoin("brands b ON b.id = p.brand_id").
		LeftJoin("clubs c ON c.id = p.club_id")
}

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts p. The caller fills OwnerColumns, including the sponsor or
// trainer, so the returned post can be authorized without a reload.
func (r *postRepository) Create(ctx context.Context, tx *sqlx.Tx, p *model.Post) error {
	query := `
		INSERT INTO posts (user_id, brand_id, club_id, about, privacy, feeling, location, media_urls, repost_of)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, reactions, comments, shares, created_at, updated_at
	`
	if p.MediaURLs == nil {
		p.MediaURLs = []string{}
	}
	err := tx.QueryRowxContext(ctx, query,
		p.UserID, p.BrandID, p.ClubID,
		p.About, p.Privacy, p.Feeling, p.Location, p.MediaURLs, p.RepostOf,
	).Scan(&p.ID, &p.Reactions, &p.Comments, &p.Shares, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapError(err, "insert post", model.ErrPostNotFound, model.ErrIntegrity)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	query, args, err := selectPosts().Where(squirrel.Eq{"p.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build post query: %w", err)
	}

	var post model.Post
	if err := r.db.GetContext(ctx, &post, query, args...); err != nil {
		return nil, mapError(err, "get post", model.ErrPostNotFound, nil)
	}
	return &post, nil
}

// Update writes the editable fields of p. Ownership and counters are never touched.
func (r *postRepository) Update(ctx context.Context, p *model.Post) error {
	query := `
		UPDATE posts SET about = $1, privacy = $2, feeling = $3, location = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`
	err := r.db.GetContext(ctx, &p.UpdatedAt, query, p.About, p.Privacy, p.Feeling, p.Location, p.ID)
	if err != nil {
		return mapError(err, "update post", model.ErrPostNotFound, nil)
	}
	return nil
}

// Delete removes the post. Comments and reactions go with it through
// ON DELETE CASCADE; reposts of it keep existing with repost_of cleared.
func (r *postRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrPostNotFound
	}
	return nil
}

// ListByOwner returns the owner's posts, newest first, keyed on (created_at, id).
func (r *postRepository) ListByOwner(ctx context.Context, owner model.ActorRef, cursor *model.Cursor, limit int) ([]model.Post, *model.Cursor, error) {
	col, err := ownerColumn("p", owner.Kind)
	if err != nil {
		return nil, nil, err
	}

	q := selectPosts().
		Where(squirrel.Eq{col: owner.ID}).
		OrderBy("p.created_at DESC", "p.id DESC").
		Limit(uint64(limit + 1))
	if cursor != nil {
		q = q.Where(keysetBefore("p", cursor))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build posts query: %w", err)
	}

	var posts []model.Post
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, nil, fmt.Errorf("list posts of %s: %w", owner, err)
	}

	posts, next := trimPage(posts, limit, func(p model.Post) model.Cursor { return model.Cursor{CreatedAt: p.CreatedAt, ID: p.ID} })
	return posts, next, nil
}

// LockForUpdate takes the post's row lock for the rest of tx. Writers that
// change the comment tree of a post hold it so their counter deltas serialize.
func (r *postRepository) LockForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) error {
	var locked int64
	if err := tx.GetContext(ctx, &locked, `SELECT id FROM posts WHERE id = $1 FOR UPDATE`, id); err != nil {
		return mapError(err, "lock post", model.ErrPostNotFound, nil)
	}
	return nil
}

// IncrementCounter applies delta to a counter column. A result below zero
// fails the table's CHECK and surfaces as model.ErrIntegrity.
func (r *postRepository) IncrementCounter(ctx context.Context, tx *sqlx.Tx, id int64, counter string, delta int64) error {
	if _, ok := postCounters[counter]; !ok {
		return fmt.Errorf("unknown post counter %q", counter)
	}

	query := fmt.Sprintf(`UPDATE posts SET %[1]s = %[1]s + $1 WHERE id = $2`, counter)
	result, err := tx.ExecContext(ctx, query, delta, id)
	if err != nil {
		return mapError(err, "increment post "+counter, nil, model.ErrIntegrity)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrPostNotFound
	}
	return nil
}
