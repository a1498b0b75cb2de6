package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"gaman_backend/internal/model"
)

func selectEvents() squirrel.SelectBuilder {
	return psql.Select(
		"e.id", "e.user_id", "e.brand_id", "e.club_id", "b.sponsor_id", "c.trainer_id",
		"e.title", "e.description", "e.privacy", "e.start_date", "e.finish_date",
		"e.place", "e.country", "e.state", "e.city", "e.geolocation",
		"e.reactions", "e.created_at", "e.updated_at",
	).
		From("events e").
		LeftJoin("brands b ON b.id = e.brand_id").
		LeftJoin("clubs c ON c.id = e.club_id")
}

type eventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, tx *sqlx.Tx, e *model.Event) error {
	query := `
		INSERT INTO events (user_id, brand_id, club_id, title, description, privacy, start_date, finish_date, place)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, reactions, created_at, updated_at
	`
	err := tx.QueryRowxContext(ctx, query,
		e.UserID, e.BrandID, e.ClubID,
		e.Title, e.Description, e.Privacy, e.StartDate, e.FinishDate, e.Place,
	).Scan(&e.ID, &e.Reactions, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return mapError(err, "insert event", model.ErrActorNotFound, model.ErrIntegrity)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*model.Event, error) {
	query, args, err := selectEvents().Where(squirrel.Eq{"e.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build event query: %w", err)
	}

	var event model.Event
	if err := r.db.GetContext(ctx, &event, query, args...); err != nil {
		return nil, mapError(err, "get event", model.ErrEventNotFound, nil)
	}
	return &event, nil
}

func (r *eventRepository) Update(ctx context.Context, e *model.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, privacy = $3, start_date = $4, finish_date = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`
	err := r.db.GetContext(ctx, &e.UpdatedAt, query, e.Title, e.Description, e.Privacy, e.StartDate, e.FinishDate, e.ID)
	if err != nil {
		return mapError(err, "update event", model.ErrEventNotFound, model.ErrEventDatesOrder)
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrEventNotFound
	}
	return nil
}

func (r *eventRepository) ListByOwner(ctx context.Context, owner model.ActorRef, cursor *model.Cursor, limit int) ([]model.Event, *model.Cursor, error) {
	col, err := ownerColumn("e", owner.Kind)
	if err != nil {
		return nil, nil, err
	}

	q := selectEvents().
		Where(squirrel.Eq{col: owner.ID}).
		OrderBy("e.created_at DESC", "e.id DESC").
		Limit(uint64(limit + 1))
	if cursor != nil {
		q = q.Where(keysetBefore("e", cursor))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build events query: %w", err)
	}

	var events []model.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, nil, fmt.Errorf("list events of %s: %w", owner, err)
	}

	events, next := trimPage(events, limit, func(e model.Event) model.Cursor { return model.Cursor{CreatedAt: e.CreatedAt, ID: e.ID} })
	return events, next, nil
}

// SetLocation stores the geocoding result. The place is only overwritten when
// the geocoder returned a formatted one.
func (r *eventRepository) SetLocation(ctx context.Context, id int64, loc model.Location) error {
	query := `
		UPDATE events
		SET place = COALESCE(NULLIF($1, ''), place), country = $2, state = $3, city = $4, geolocation = $5
		WHERE id = $6
	`
	result, err := r.db.ExecContext(ctx, query, loc.Place, loc.Country, loc.State, loc.City, loc.Geolocation, id)
	if err != nil {
		return fmt.Errorf("set event location: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrEventNotFound
	}
	return nil
}
