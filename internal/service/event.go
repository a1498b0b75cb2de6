package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"gaman_backend/internal/authz"
	"gaman_backend/internal/database"
	"gaman_backend/internal/identity"
	"gaman_backend/internal/logger"
	"gaman_backend/internal/model"
	"gaman_backend/internal/queue"
	"gaman_backend/internal/repository"
)

// EventService manages sport events. Location details are filled in later by
// the geocoding task queued on creation.
type EventService struct {
	events    repository.EventRepository
	actors    repository.ActorRepository
	authz     *authz.Authorizer
	tx        database.Transactor
	publisher queue.Publisher
	log       zerolog.Logger
}

func NewEventService(
	events repository.EventRepository,
	actors repository.ActorRepository,
	authorizer *authz.Authorizer,
	tx database.Transactor,
	publisher queue.Publisher,
	log zerolog.Logger,
) *EventService {
	return &EventService{
		events:    events,
		actors:    actors,
		authz:     authorizer,
		tx:        tx,
		publisher: publisher,
		log:       logger.Component(log, "event_service"),
	}
}

func parseEventDates(start, finish string) (time.Time, time.Time, error) {
	s, err := time.Parse(model.EventDateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, model.ErrInvalidEventDate
	}
	f, err := time.Parse(model.EventDateLayout, finish)
	if err != nil {
		return time.Time{}, time.Time{}, model.ErrInvalidEventDate
	}
	if f.Before(s) {
		return time.Time{}, time.Time{}, model.ErrEventDatesOrder
	}
	return s, f, nil
}

func validateEventTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > model.MaxEventTitleLength {
		return "", model.ErrInvalidEventTitle
	}
	return title, nil
}

func withEventAuthor(e *model.Event) *model.Event {
	if author, err := identity.OwnerOf(e.OwnerColumns); err == nil {
		e.Author = &author
	}
	return e
}

func (s *EventService) Create(ctx context.Context, requesterID int64, req model.CreateEventRequest) (*model.Event, error) {
	title, err := validateEventTitle(req.Title)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(req.Description) > model.MaxEventDescLength {
		return nil, model.ErrEventDescTooLong
	}
	place := strings.TrimSpace(req.Place)
	if place == "" || utf8.RuneCountInString(place) > model.MaxEventPlaceLength {
		return nil, model.ErrInvalidEventPlace
	}
	privacy, err := privacyOrDefault(req.Privacy)
	if err != nil {
		return nil, err
	}
	start, finish, err := parseEventDates(req.Start, req.Finish)
	if err != nil {
		return nil, err
	}

	author, err := actingAs(ctx, s.actors, requesterID, req.As)
	if err != nil {
		return nil, err
	}

	event := &model.Event{
		OwnerColumns: model.OwnerColumnsFor(author),
		Title:        title,
		Description:  req.Description,
		Privacy:      privacy,
		StartDate:    start,
		FinishDate:   finish,
		Place:        place,
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		return s.events.Create(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("event_id", event.ID).Str("author", author.Ref().String()).Msg("event created")
	publishAfterCommit(ctx, s.log, s.publisher, queue.NewEventCreatedEvent(event.ID, place))
	return withEventAuthor(event), nil
}

func (s *EventService) Get(ctx context.Context, viewerID, eventID int64) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, authz.OpView, viewerID, event.Item()); err != nil {
		return nil, err
	}
	return withEventAuthor(event), nil
}

// Update changes the editable fields. The place is fixed once geocoded.
func (s *EventService) Update(ctx context.Context, requesterID, eventID int64, req model.UpdateEventRequest) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, authz.OpUpdate, requesterID, event.Item()); err != nil {
		return nil, err
	}

	if req.Title != nil {
		if event.Title, err = validateEventTitle(*req.Title); err != nil {
			return nil, err
		}
	}
	if req.Description != nil {
		if utf8.RuneCountInString(*req.Description) > model.MaxEventDescLength {
			return nil, model.ErrEventDescTooLong
		}
		event.Description = *req.Description
	}
	if req.Privacy != nil {
		if !req.Privacy.Valid() {
			return nil, model.ErrInvalidPrivacy
		}
		event.Privacy = *req.Privacy
	}
	if req.Start != nil || req.Finish != nil {
		start := event.StartDate.Format(model.EventDateLayout)
		finish := event.FinishDate.Format(model.EventDateLayout)
		if req.Start != nil {
			start = *req.Start
		}
		if req.Finish != nil {
			finish = *req.Finish
		}
		if event.StartDate, event.FinishDate, err = parseEventDates(start, finish); err != nil {
			return nil, err
		}
	}

	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}
	return withEventAuthor(event), nil
}

func (s *EventService) Delete(ctx context.Context, requesterID, eventID int64) error {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, authz.OpDelete, requesterID, event.Item()); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, eventID); err != nil {
		return err
	}
	s.log.Info().Int64("event_id", eventID).Int64("requester_id", requesterID).Msg("event deleted")
	return nil
}

func (s *EventService) ListByOwner(ctx context.Context, viewerID int64, owner model.ActorRef, cursor *model.Cursor, limit int) (*model.EventListResponse, error) {
	events, next, err := s.events.ListByOwner(ctx, owner, cursor, ClampLimit(limit))
	if err != nil {
		return nil, err
	}

	items := make([]model.ContentItem, len(events))
	for i := range events {
		items[i] = events[i].Item()
	}
	visible, err := s.authz.Visible(ctx, viewerID, items)
	if err != nil {
		return nil, err
	}

	out := make([]model.Event, 0, len(events))
	for i := range events {
		if visible[i] {
			out = append(out, *withEventAuthor(&events[i]))
		}
	}
	return &model.EventListResponse{
		Events:     out,
		NextCursor: FormatCursor(next),
		HasMore:    next != nil,
	}, nil
}
