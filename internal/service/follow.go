package service

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"gaman_backend/internal/database"
	"gaman_backend/internal/logger"
	"gaman_backend/internal/model"
	"gaman_backend/internal/queue"
	"gaman_backend/internal/repository"
)

// FollowService runs the follow negotiation: direct follows for public
// targets, request then accept for private persons, and unfollow as the
// toggle of either.
type FollowService struct {
	follows   repository.FollowRepository
	requests  repository.FollowRequestRepository
	actors    repository.ActorRepository
	users     repository.UserRepository
	tx        database.Transactor
	publisher queue.Publisher
	log       zerolog.Logger
}

func NewFollowService(
	follows repository.FollowRepository,
	requests repository.FollowRequestRepository,
	actors repository.ActorRepository,
	users repository.UserRepository,
	tx database.Transactor,
	publisher queue.Publisher,
	log zerolog.Logger,
) *FollowService {
	return &FollowService{
		follows:   follows,
		requests:  requests,
		actors:    actors,
		users:     users,
		tx:        tx,
		publisher: publisher,
		log:       logger.Component(log, "follow_service"),
	}
}

// RequestOrFollow toggles the relation between followerID and target.
//
//   - an existing edge is removed (and, for a person, any request between
//     the pair with it) and the outcome is Unfollowed
//   - a brand, a club or a public person is followed directly
//   - a private person gets a pending request, unless a live one already
//     exists between the pair in either direction
func (s *FollowService) RequestOrFollow(ctx context.Context, followerID int64, target model.ActorRef) (*model.FollowResponse, error) {
	if target.Kind == model.ActorPerson && target.ID == followerID {
		return nil, model.ErrSelfFollow
	}

	profile, err := s.actors.Resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	private := target.Kind == model.ActorPerson && !profile.IsPublic

	var (
		resp  model.FollowResponse
		event queue.Event
	)

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		removed, err := s.follows.Delete(ctx, tx, followerID, target)
		if err != nil {
			return err
		}

		if removed {
			if err := s.adjustCounters(ctx, tx, followerID, target, -1); err != nil {
				return err
			}
			if target.Kind == model.ActorPerson {
				if _, err := s.requests.DeleteBetween(ctx, tx, followerID, target.ID); err != nil {
					return err
				}
			}
			resp.Outcome = model.OutcomeUnfollowed
			event = queue.NewUserUnfollowedEvent(followerID, target)
			return nil
		}

		if private {
			if _, err := s.requests.DeleteStaleBetween(ctx, tx, followerID, target.ID); err != nil {
				return err
			}
			req, err := s.requests.Create(ctx, tx, followerID, target.ID)
			if err != nil {
				return err
			}
			resp.Outcome = model.OutcomeRequestCreated
			resp.Request = req
			event = queue.NewFollowRequestedEvent(req.ID, followerID, target.ID)
			return nil
		}

		if err := s.createEdge(ctx, tx, followerID, target); err != nil {
			return err
		}
		resp.Outcome = model.OutcomeFollowed
		event = queue.NewUserFollowedEvent(followerID, profile.Actor)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("follower_id", followerID).
		Str("target", target.String()).
		Str("outcome", string(resp.Outcome)).
		Msg("follow toggled")

	publishAfterCommit(ctx, s.log, s.publisher, event)
	return &resp, nil
}

// Accept materializes the edge for a pending request. Only the requested
// person may accept.
func (s *FollowService) Accept(ctx context.Context, requestID, actorID int64) (*model.FollowRequest, error) {
	var req *model.FollowRequest

	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		req, err = s.requests.GetForUpdate(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req.RequestedID != actorID {
			return model.ErrPermissionDenied
		}
		if req.Accepted {
			return model.ErrAlreadyAccepted
		}

		if err := s.requests.MarkAccepted(ctx, tx, req.ID); err != nil {
			return err
		}
		req.Accepted = true

		return s.createEdge(ctx, tx, req.RequesterID, model.PersonRef(req.RequestedID))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("request_id", req.ID).
		Int64("requester_id", req.RequesterID).
		Int64("requested_id", req.RequestedID).
		Msg("follow request accepted")

	publishAfterCommit(ctx, s.log, s.publisher,
		queue.NewFollowAcceptedEvent(req.ID, req.RequesterID, req.RequestedID))
	return req, nil
}

// Withdraw deletes a pending request. Either party may withdraw; accepted
// requests are kept as the record of the follow and cannot be withdrawn.
func (s *FollowService) Withdraw(ctx context.Context, requestID, actorID int64) error {
	return s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		req, err := s.requests.GetForUpdate(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req.RequesterID != actorID && req.RequestedID != actorID {
			return model.ErrPermissionDenied
		}
		if req.Accepted {
			return model.ErrAlreadyAccepted
		}
		return s.requests.Delete(ctx, tx, req.ID)
	})
}

// RemoveFollower lets the person accountable for target drop followerID's
// edge. For a person target the request record for the pair goes with it, so
// the follower has to ask again.
func (s *FollowService) RemoveFollower(ctx context.Context, requesterID int64, target model.ActorRef, followerID int64) error {
	profile, err := s.actors.Resolve(ctx, target)
	if err != nil {
		return err
	}
	if profile.OwnerID != requesterID {
		return model.ErrPermissionDenied
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		removed, err := s.follows.Delete(ctx, tx, followerID, target)
		if err != nil {
			return err
		}
		if !removed {
			return model.ErrFollowNotFound
		}
		if err := s.adjustCounters(ctx, tx, followerID, target, -1); err != nil {
			return err
		}
		if target.Kind == model.ActorPerson {
			if _, err := s.requests.DeleteBetween(ctx, tx, followerID, target.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Int64("follower_id", followerID).
		Str("target", target.String()).
		Int64("removed_by", requesterID).
		Msg("follower removed")

	publishAfterCommit(ctx, s.log, s.publisher, queue.NewUserUnfollowedEvent(followerID, target))
	return nil
}

// createEdge inserts the edge and bumps both counters. An edge that already
// exists counts as done, so a racing duplicate never double-counts.
func (s *FollowService) createEdge(ctx context.Context, tx *sqlx.Tx, followerID int64, target model.ActorRef) error {
	err := s.follows.Create(ctx, tx, followerID, target)
	if errors.Is(err, model.ErrConflict) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.adjustCounters(ctx, tx, followerID, target, 1)
}

func (s *FollowService) adjustCounters(ctx context.Context, tx *sqlx.Tx, followerID int64, target model.ActorRef, delta int) error {
	if err := s.actors.IncrementFollowerCount(ctx, tx, target, delta); err != nil {
		return err
	}
	return s.users.IncrementFollowingCount(ctx, tx, followerID, delta)
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID int64, target model.ActorRef) (bool, error) {
	return s.follows.Exists(ctx, followerID, target)
}

// PendingRequests lists requests waiting on personID's decision.
func (s *FollowService) PendingRequests(ctx context.Context, personID int64, cursor *model.Cursor, limit int) (*model.FollowRequestListResponse, error) {
	reqs, next, err := s.requests.ListPending(ctx, personID, cursor, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	return &model.FollowRequestListResponse{
		Requests:   reqs,
		NextCursor: FormatCursor(next),
		HasMore:    next != nil,
	}, nil
}

func (s *FollowService) Followers(ctx context.Context, target model.ActorRef, cursor *model.Cursor, limit int) (*model.FollowerListResponse, error) {
	if _, err := s.actors.Resolve(ctx, target); err != nil {
		return nil, err
	}
	users, next, err := s.follows.FollowersOf(ctx, target, cursor, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	return &model.FollowerListResponse{
		Users:      users,
		NextCursor: FormatCursor(next),
		HasMore:    next != nil,
	}, nil
}

func (s *FollowService) Following(ctx context.Context, personID int64, cursor *model.Cursor, limit int) (*model.FollowingListResponse, error) {
	entries, next, err := s.follows.FollowingOf(ctx, personID, cursor, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	return &model.FollowingListResponse{
		Following:  entries,
		NextCursor: FormatCursor(next),
		HasMore:    next != nil,
	}, nil
}
