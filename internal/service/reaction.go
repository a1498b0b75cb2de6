package service

import (
	"context"

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

// ReactionService toggles reaction edges on posts, comments and events and
// keeps each target's counter equal to its edge count.
type ReactionService struct {
	reactions repository.ReactionRepository
	posts     repository.PostRepository
	comments  repository.CommentRepository
	events    repository.EventRepository
	authz     *authz.Authorizer
	tx        database.Transactor
	publisher queue.Publisher
	log       zerolog.Logger
}

func NewReactionService(
	reactions repository.ReactionRepository,
	posts repository.PostRepository,
	comments repository.CommentRepository,
	events repository.EventRepository,
	authorizer *authz.Authorizer,
	tx database.Transactor,
	publisher queue.Publisher,
	log zerolog.Logger,
) *ReactionService {
	return &ReactionService{
		reactions: reactions,
		posts:     posts,
		comments:  comments,
		events:    events,
		authz:     authorizer,
		tx:        tx,
		publisher: publisher,
		log:       logger.Component(log, "reaction_service"),
	}
}

// TogglePostReaction adds userID's reaction to the post, or removes the one
// already there whatever its kind.
func (s *ReactionService) TogglePostReaction(ctx context.Context, userID, postID int64, kind model.ReactionKind) (*model.ReactResponse, error) {
	if !kind.Valid() {
		return nil, model.ErrInvalidReaction
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, authz.OpReact, userID, post.Item()); err != nil {
		return nil, err
	}

	resp, err := s.toggle(ctx, model.ReactionTarget{Kind: model.ReactOnPost, ID: postID}, userID, kind)
	if err != nil {
		return nil, err
	}

	if resp.Result == model.ReactionCreated {
		if recipient, err := identity.NormalizedOwner(post.OwnerColumns); err == nil {
			publishAfterCommit(ctx, s.log, s.publisher, queue.NewPostReactedEvent(postID, userID, recipient))
		}
	}
	return resp, nil
}

// ToggleCommentReaction is authorized against the post the comment is on.
func (s *ReactionService) ToggleCommentReaction(ctx context.Context, userID, commentID int64, kind model.ReactionKind) (*model.ReactResponse, error) {
	if !kind.Valid() {
		return nil, model.ErrInvalidReaction
	}

	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, comment.PostID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, authz.OpReact, userID, post.Item()); err != nil {
		return nil, err
	}

	return s.toggle(ctx, model.ReactionTarget{Kind: model.ReactOnComment, ID: commentID}, userID, kind)
}

func (s *ReactionService) ToggleEventReaction(ctx context.Context, userID, eventID int64, kind model.ReactionKind) (*model.ReactResponse, error) {
	if !kind.Valid() {
		return nil, model.ErrInvalidReaction
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, authz.OpReact, userID, event.Item()); err != nil {
		return nil, err
	}

	return s.toggle(ctx, model.ReactionTarget{Kind: model.ReactOnEvent, ID: eventID}, userID, kind)
}

// toggle runs under a row lock on the target so concurrent toggles on the
// same content cannot drift the counter away from the edge count.
func (s *ReactionService) toggle(ctx context.Context, t model.ReactionTarget, userID int64, kind model.ReactionKind) (*model.ReactResponse, error) {
	var resp model.ReactResponse

	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.reactions.LockTarget(ctx, tx, t); err != nil {
			return err
		}

		removed, err := s.reactions.Delete(ctx, tx, t, userID)
		if err != nil {
			return err
		}

		delta := int64(1)
		resp.Result = model.ReactionCreated
		if removed {
			delta = -1
			resp.Result = model.ReactionDeleted
		} else if err := s.reactions.Create(ctx, tx, t, userID, kind); err != nil {
			return err
		}

		resp.Reactions, err = s.reactions.AdjustCounter(ctx, tx, t, delta)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("target", string(t.Kind)).
		Int64("target_id", t.ID).
		Int64("user_id", userID).
		Str("result", string(resp.Result)).
		Msg("reaction toggled")
	return &resp, nil
}

// ListPostReactions returns who reacted to a post the viewer can see.
func (s *ReactionService) ListPostReactions(ctx context.Context, viewerID, postID int64, cursor *model.Cursor, limit int) (*model.ReactionListResponse, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, authz.OpView, viewerID, post.Item()); err != nil {
		return nil, err
	}

	reactions, next, err := s.reactions.List(ctx, model.ReactionTarget{Kind: model.ReactOnPost, ID: postID}, cursor, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	return &model.ReactionListResponse{
		Reactions:  reactions,
		NextCursor: FormatCursor(next),
		HasMore:    next != nil,
	}, nil
}
