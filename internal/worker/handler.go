package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"gaman_backend/internal/geocode"
	"gaman_backend/internal/logger"
	"gaman_backend/internal/model"
	"gaman_backend/internal/queue"
)

// NotificationWriter stores in-app notifications.
type NotificationWriter interface {
	Create(ctx context.Context, n *model.Notification) error
}

// Geocoder turns a free-text place into a location.
type Geocoder interface {
	Lookup(ctx context.Context, place string) (model.Location, error)
}

// LocationWriter stores the geocoding result on an event.
type LocationWriter interface {
	SetLocation(ctx context.Context, id int64, loc model.Location) error
}

// Handler turns social stream events into notifications and event locations.
type Handler struct {
	notifications NotificationWriter
	geocoder      Geocoder
	locations     LocationWriter
	log           zerolog.Logger
}

func NewHandler(notifications NotificationWriter, geocoder Geocoder, locations LocationWriter, log zerolog.Logger) *Handler {
	return &Handler{
		notifications: notifications,
		geocoder:      geocoder,
		locations:     locations,
		log:           logger.Component(log, "worker_handler"),
	}
}

// HandleEvent routes an event by type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.Event) error {
	start := time.Now()
	var err error

	switch event.Type {
	case queue.EventFollowRequested:
		err = h.handleFollowRequested(ctx, event)
	case queue.EventFollowAccepted:
		err = h.handleFollowAccepted(ctx, event)
	case queue.EventUserFollowed:
		err = h.handleUserFollowed(ctx, event)
	case queue.EventUserUnfollowed:
		// nothing is derived from an unfollow yet
	case queue.EventPostReacted:
		err = h.handlePostReacted(ctx, event)
	case queue.EventPostCommented:
		err = h.handlePostCommented(ctx, event)
	case queue.EventEventCreated:
		err = h.handleEventCreated(ctx, event)
	case queue.EventClubInvited:
		err = h.handleClubInvited(ctx, event)
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		return err
	}
	h.log.Debug().Str("type", event.Type).Str("event_id", event.ID).Dur("took", time.Since(start)).Msg("event handled")
	return nil
}

// notify writes a notification unless the actor would be notifying themselves.
func (h *Handler) notify(ctx context.Context, n *model.Notification) error {
	if n.RecipientID == 0 || n.RecipientID == n.ActorID {
		return nil
	}
	if err := h.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("create %s notification: %w", n.Type, err)
	}
	return nil
}

func (h *Handler) handleFollowRequested(ctx context.Context, e queue.Event) error {
	requestID := e.RequestID
	return h.notify(ctx, &model.Notification{
		RecipientID:     e.TargetID,
		ActorID:         e.FollowerID,
		Type:            model.NotificationFollowRequest,
		FollowRequestID: &requestID,
	})
}

func (h *Handler) handleFollowAccepted(ctx context.Context, e queue.Event) error {
	requestID := e.RequestID
	return h.notify(ctx, &model.Notification{
		RecipientID:     e.FollowerID,
		ActorID:         e.TargetID,
		Type:            model.NotificationFollowAccepted,
		FollowRequestID: &requestID,
	})
}

// handleUserFollowed notifies the person accountable for the followed actor,
// so a sponsor hears about new followers of their brand.
func (h *Handler) handleUserFollowed(ctx context.Context, e queue.Event) error {
	return h.notify(ctx, &model.Notification{
		RecipientID: e.RecipientID,
		ActorID:     e.FollowerID,
		Type:        model.NotificationFollow,
	})
}

func (h *Handler) handlePostReacted(ctx context.Context, e queue.Event) error {
	postID := e.PostID
	return h.notify(ctx, &model.Notification{
		RecipientID: e.RecipientID,
		ActorID:     e.ActorID,
		Type:        model.NotificationReaction,
		PostID:      &postID,
	})
}

func (h *Handler) handlePostCommented(ctx context.Context, e queue.Event) error {
	postID, commentID := e.PostID, e.CommentID
	return h.notify(ctx, &model.Notification{
		RecipientID: e.RecipientID,
		ActorID:     e.ActorID,
		Type:        model.NotificationComment,
		PostID:      &postID,
		CommentID:   &commentID,
	})
}

func (h *Handler) handleClubInvited(ctx context.Context, e queue.Event) error {
	invitationID := e.InvitationID
	return h.notify(ctx, &model.Notification{
		RecipientID:      e.RecipientID,
		ActorID:          e.ActorID,
		Type:             model.NotificationClubInvitation,
		ClubInvitationID: &invitationID,
	})
}

// handleEventCreated geocodes the event's place. A place the geocoder cannot
// match, or a missing API key, leaves the event as it was.
func (h *Handler) handleEventCreated(ctx context.Context, e queue.Event) error {
	if h.geocoder == nil || e.Place == "" {
		return nil
	}

	loc, err := h.geocoder.Lookup(ctx, e.Place)
	if errors.Is(err, geocode.ErrNoMatch) || errors.Is(err, geocode.ErrNotConfigured) {
		h.log.Warn().Err(err).Int64("event_id", e.EventID).Str("place", e.Place).Msg("event not geocoded")
		return nil
	}
	if err != nil {
		return fmt.Errorf("geocode event %d: %w", e.EventID, err)
	}

	if err := h.locations.SetLocation(ctx, e.EventID, loc); err != nil {
		if errors.Is(err, model.ErrEventNotFound) {
			return nil
		}
		return err
	}
	h.log.Info().Int64("event_id", e.EventID).Str("city", loc.City).Msg("event geocoded")
	return nil
}
