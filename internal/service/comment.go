package service

import (
	"context"
	"strings"
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

type CommentService struct {
	comments  repository.CommentRepository
	posts     repository.PostRepository
	authz     *authz.Authorizer
	tx        database.Transactor
	publisher queue.Publisher
	log       zerolog.Logger
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	authorizer *authz.Authorizer,
	tx database.Transactor,
	publisher queue.Publisher,
	log zerolog.Logger,
) *CommentService {
	return &CommentService{
		comments:  comments,
		posts:     posts,
		authz:     authorizer,
		tx:        tx,
		publisher: publisher,
		log:       logger.Component(log, "comment_service"),
	}
}

func validateCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", model.ErrContentRequired
	}
	if utf8.RuneCountInString(text) > model.MaxCommentLength {
		return "", model.ErrContentTooLong
	}
	return text, nil
}

// Add comments on a post the author can engage with. Replying to a reply
// attaches the new comment to the principal comment instead, so threads stay
// one level deep.
func (s *CommentService) Add(ctx context.Context, postID, authorID int64, req model.CreateCommentRequest) (*model.Comment, error) {
	text, err := validateCommentText(req.Text)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, authz.OpComment, authorID, post.Item()); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Kind:     model.CommentPrincipal,
		Text:     text,
	}

	if req.ParentID != nil {
		parent, err := s.comments.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID {
			return nil, model.ErrParentOtherPost
		}
		parentID := parent.ID
		if parent.ParentID != nil {
			parentID = *parent.ParentID
		}
		comment.Kind = model.CommentReply
		comment.ParentID = &parentID
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.posts.LockForUpdate(ctx, tx, postID); err != nil {
			return err
		}
		if err := s.comments.Create(ctx, tx, comment); err != nil {
			return err
		}
		return s.posts.IncrementCounter(ctx, tx, postID, repository.PostComments, 1)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("post_id", postID).Int64("comment_id", comment.ID).Int64("author_id", authorID).Msg("comment added")

	if recipient, err := identity.NormalizedOwner(post.OwnerColumns); err == nil {
		publishAfterCommit(ctx, s.log, s.publisher,
			queue.NewPostCommentedEvent(postID, comment.ID, authorID, recipient))
	}
	return comment, nil
}

// Update edits the text. Only the author may do it.
func (s *CommentService) Update(ctx context.Context, commentID, authorID int64, req model.UpdateCommentRequest) (*model.Comment, error) {
	text, err := validateCommentText(req.Text)
	if err != nil {
		return nil, err
	}

	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != authorID {
		return nil, model.ErrPermissionDenied
	}
	return s.comments.UpdateText(ctx, commentID, text)
}

// Remove deletes a comment with its replies. The comment author and the
// person accountable for the post may remove it.
func (s *CommentService) Remove(ctx context.Context, commentID, requesterID int64) (*model.RemoveCommentResponse, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, comment.PostID)
	if err != nil {
		return nil, err
	}

	ok, err := authz.CanRemoveComment(requesterID, comment, post.Item())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrPermissionDenied
	}

	var removed int64
	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.posts.LockForUpdate(ctx, tx, comment.PostID); err != nil {
			return err
		}
		removed, err = s.comments.DeleteWithReplies(ctx, tx, commentID)
		if err != nil {
			return err
		}
		return s.posts.IncrementCounter(ctx, tx, comment.PostID, repository.PostComments, -removed)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("comment_id", commentID).Int64("removed", removed).Msg("comment removed")
	return &model.RemoveCommentResponse{Removed: removed}, nil
}

func (s *CommentService) ListByPost(ctx context.Context, viewerID, postID int64, cursor *model.Cursor, limit int) (*model.CommentListResponse, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, authz.OpView, viewerID, post.Item()); err != nil {
		return nil, err
	}

	comments, next, err := s.comments.ListByPost(ctx, postID, cursor, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	return &model.CommentListResponse{
		Comments:   comments,
		NextCursor: FormatCursor(next),
		HasMore:    next != nil,
	}, nil
}
