package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gaman_backend/internal/model"
)

// actorTables maps an actor kind to the table that stores it. Values are
// constants, never user input, so they are safe to splice into SQL.
var actorTables = map[model.ActorKind]string{
	model.ActorPerson: "users",
	model.ActorBrand:  "brands",
	model.ActorClub:   "clubs",
}

var resolveQueries = map[model.ActorKind]string{
	model.ActorPerson: `
		SELECT id, id AS owner_id, COALESCE(display_name, username) AS name, is_public,
		       photo_url, follower_count, created_at
		FROM users WHERE id = $1`,
	model.ActorBrand: `
		SELECT id, sponsor_id AS owner_id, name, TRUE AS is_public,
		       photo_url, follower_count, created_at
		FROM brands WHERE id = $1`,
	model.ActorClub: `
		SELECT id, trainer_id AS owner_id, name, TRUE AS is_public,
		       photo_url, follower_count, created_at
		FROM clubs WHERE id = $1`,
}

type actorRepository struct {
	db *sqlx.DB
}

func NewActorRepository(db *sqlx.DB) ActorRepository {
	return &actorRepository{db: db}
}

func (r *actorRepository) Resolve(ctx context.Context, ref model.ActorRef) (*model.ActorProfile, error) {
	query, ok := resolveQueries[ref.Kind]
	if !ok {
		return nil, model.ErrInvalidActorKind
	}

	var row struct {
		ID            int64     `db:"id"`
		OwnerID       int64     `db:"owner_id"`
		Name          string    `db:"name"`
		IsPublic      bool      `db:"is_public"`
		PhotoURL      *string   `db:"photo_url"`
		FollowerCount int       `db:"follower_count"`
		CreatedAt     time.Time `db:"created_at"`
	}
	if err := r.db.GetContext(ctx, &row, query, ref.ID); err != nil {
		return nil, mapError(err, "resolve "+ref.String(), model.ErrActorNotFound, nil)
	}

	return &model.ActorProfile{
		Actor:         model.Actor{Kind: ref.Kind, ID: row.ID, OwnerID: row.OwnerID},
		Name:          row.Name,
		IsPublic:      row.IsPublic,
		PhotoURL:      row.PhotoURL,
		FollowerCount: row.FollowerCount,
		CreatedAt:     row.CreatedAt,
	}, nil
}

func (r *actorRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, ref model.ActorRef, delta int) error {
	table, ok := actorTables[ref.Kind]
	if !ok {
		return model.ErrInvalidActorKind
	}
	query := fmt.Sprintf(`UPDATE %s SET follower_count = follower_count + $1 WHERE id = $2`, table)
	if _, err := tx.ExecContext(ctx, query, delta, ref.ID); err != nil {
		return fmt.Errorf("failed to increment follower count of %s: %w", ref, err)
	}
	return nil
}

func (r *actorRepository) CreateBrand(ctx context.Context, b *model.Brand) error {
	query := `
		INSERT INTO brands (sponsor_id, slugname, name, about)
		VALUES ($1, $2, $3, $4)
		RETURNING id, follower_count, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, b.SponsorID, b.Slugname, b.Name, b.About).
		Scan(&b.ID, &b.FollowerCount, &b.CreatedAt, &b.UpdatedAt)
	return mapError(err, "insert brand", model.ErrUserNotFound, model.ErrSlugnameTaken)
}

func (r *actorRepository) CreateClub(ctx context.Context, c *model.Club) error {
	query := `
		INSERT INTO clubs (trainer_id, slugname, name, about)
		VALUES ($1, $2, $3, $4)
		RETURNING id, follower_count, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, c.TrainerID, c.Slugname, c.Name, c.About).
		Scan(&c.ID, &c.FollowerCount, &c.CreatedAt, &c.UpdatedAt)
	return mapError(err, "insert club", model.ErrUserNotFound, model.ErrSlugnameTaken)
}

// SetPhoto swaps the stored photo. The CTE reads the previous key before the
// update so the caller can delete the replaced object.
func (r *actorRepository) SetPhoto(ctx context.Context, ref model.ActorRef, url, key string) (*string, error) {
	table, ok := actorTables[ref.Kind]
	if !ok {
		return nil, model.ErrInvalidActorKind
	}
	query := fmt.Sprintf(`
		WITH prev AS (SELECT photo_key FROM %[1]s WHERE id = $3 FOR UPDATE)
		UPDATE %[1]s SET photo_url = $1, photo_key = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING (SELECT photo_key FROM prev)
	`, table)

	var oldKey *string
	if err := r.db.GetContext(ctx, &oldKey, query, url, key, ref.ID); err != nil {
		return nil, mapError(err, "set photo of "+ref.String(), model.ErrActorNotFound, nil)
	}
	return oldKey, nil
}
