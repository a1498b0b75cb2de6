package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"gaman_backend/internal/authz"
	"gaman_backend/internal/database"
	"gaman_backend/internal/identity"
	"gaman_backend/internal/logger"
	"gaman_backend/internal/model"
	"gaman_backend/internal/repository"
)

type PostService struct {
	posts  repository.PostRepository
	actors repository.ActorRepository
	authz  *authz.Authorizer
	tx     database.Transactor
	log    zerolog.Logger
}

func NewPostService(
	posts repository.PostRepository,
	actors repository.ActorRepository,
	authorizer *authz.Authorizer,
	tx database.Transactor,
	log zerolog.Logger,
) *PostService {
	return &PostService{
		posts:  posts,
		actors: actors,
		authz:  authorizer,
		tx:     tx,
		log:    logger.Component(log, "post_service"),
	}
}

// actingAs resolves who a piece of content is published as. Without an
// explicit actor it is the requester; a brand or club must be owned by them.
func actingAs(ctx context.Context, actors repository.ActorRepository, requesterID int64, as *model.ActorRef) (model.Actor, error) {
	ref := model.PersonRef(requesterID)
	if as != nil {
		ref = *as
	}
	if ref.Kind == model.ActorPerson && ref.ID == requesterID {
		return model.Actor{Kind: model.ActorPerson, ID: requesterID, OwnerID: requesterID}, nil
	}

	profile, err := actors.Resolve(ctx, ref)
	if err != nil {
		return model.Actor{}, err
	}
	if profile.OwnerID != requesterID {
		return model.Actor{}, model.ErrPermissionDenied
	}
	return profile.Actor, nil
}

// withAuthor fills Post.Author from the owner columns.
func withAuthor(p *model.Post) *model.Post {
	if author, err := identity.OwnerOf(p.OwnerColumns); err == nil {
		p.Author = &author
	}
	return p
}

func privacyOrDefault(p model.Privacy) (model.Privacy, error) {
	if p == "" {
		return model.PrivacyPublic, nil
	}
	if !p.Valid() {
		return "", model.ErrInvalidPrivacy
	}
	return p, nil
}

func (s *PostService) Create(ctx context.Context, requesterID int64, req model.CreatePostRequest) (*model.Post, error) {
	privacy, err := privacyOrDefault(req.Privacy)
	if err != nil {
		return nil, err
	}
	if !model.IsValidFeeling(req.Feeling) {
		return nil, model.ErrInvalidFeeling
	}
	if utf8.RuneCountInString(req.Location) > model.MaxPostLocationSize {
		return nil, model.ErrLocationTooLong
	}
	if len(req.MediaURLs) > model.MaxPostMediaCount {
		return nil, model.ErrTooManyMedia
	}
	about := strings.TrimSpace(req.About)
	if about == "" && len(req.MediaURLs) == 0 {
		return nil, model.ErrEmptyPost
	}

	author, err := actingAs(ctx, s.actors, requesterID, req.As)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		OwnerColumns: model.OwnerColumnsFor(author),
		About:        about,
		Privacy:      privacy,
		Feeling:      req.Feeling,
		Location:     req.Location,
		MediaURLs:    req.MediaURLs,
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		return s.posts.Create(ctx, tx, post)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("post_id", post.ID).Str("author", author.Ref().String()).Msg("post created")
	return withAuthor(post), nil
}

func (s *PostService) Get(ctx context.Context, viewerID, postID int64) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, authz.OpView, viewerID, post.Item()); err != nil {
		return nil, err
	}
	return withAuthor(post), nil
}

func (s *PostService) Update(ctx context.Context, requesterID, postID int64, req model.UpdatePostRequest) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, authz.OpUpdate, requesterID, post.Item()); err != nil {
		return nil, err
	}

	if req.About != nil {
		post.About = strings.TrimSpace(*req.About)
	}
	if req.Privacy != nil {
		if !req.Privacy.Valid() {
			return nil, model.ErrInvalidPrivacy
		}
		post.Privacy = *req.Privacy
	}
	if req.Feeling != nil {
		if !model.IsValidFeeling(*req.Feeling) {
			return nil, model.ErrInvalidFeeling
		}
		post.Feeling = *req.Feeling
	}
	if req.Location != nil {
		if utf8.RuneCountInString(*req.Location) > model.MaxPostLocationSize {
			return nil, model.ErrLocationTooLong
		}
		post.Location = *req.Location
	}
	if post.About == "" && len(post.MediaURLs) == 0 && post.RepostOf == nil {
		return nil, model.ErrEmptyPost
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return withAuthor(post), nil
}

// Delete removes the post. Deleting a repost gives the share back to its root.
func (s *PostService) Delete(ctx context.Context, requesterID, postID int64) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, authz.OpDelete, requesterID, post.Item()); err != nil {
		return err
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.posts.Delete(ctx, tx, postID); err != nil {
			return err
		}
		if post.RepostOf == nil {
			return nil
		}
		err := s.posts.IncrementCounter(ctx, tx, *post.RepostOf, repository.PostShares, -1)
		if errors.Is(err, model.ErrPostNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info().Int64("post_id", postID).Int64("requester_id", requesterID).Msg("post deleted")
	return nil
}

// Share reposts a post as the acting actor. Sharing a repost shares its root,
// so chains never grow past one hop and only roots accumulate shares.
func (s *PostService) Share(ctx context.Context, requesterID, postID int64, req model.SharePostRequest) (*model.Post, error) {
	privacy, err := privacyOrDefault(req.Privacy)
	if err != nil {
		return nil, err
	}

	shared, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, authz.OpShare, requesterID, shared.Item()); err != nil {
		return nil, err
	}

	root := shared
	if shared.RepostOf != nil {
		root, err = s.posts.GetByID(ctx, *shared.RepostOf)
		if err != nil {
			return nil, err
		}
		if err := s.authz.Authorize(ctx, authz.OpShare, requesterID, root.Item()); err != nil {
			return nil, err
		}
	}

	author, err := actingAs(ctx, s.actors, requesterID, req.As)
	if err != nil {
		return nil, err
	}

	rootID := root.ID
	repost := &model.Post{
		OwnerColumns: model.OwnerColumnsFor(author),
		About:        strings.TrimSpace(req.About),
		Privacy:      privacy,
		RepostOf:     &rootID,
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.posts.Create(ctx, tx, repost); err != nil {
			return err
		}
		return s.posts.IncrementCounter(ctx, tx, rootID, repository.PostShares, 1)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("post_id", repost.ID).Int64("root_id", rootID).Str("author", author.Ref().String()).Msg("post shared")
	return withAuthor(repost), nil
}

// ListByOwner pages through an actor's posts, dropping the ones the viewer
// may not see.
func (s *PostService) ListByOwner(ctx context.Context, viewerID int64, owner model.ActorRef, cursor *model.Cursor, limit int) (*model.PostListResponse, error) {
	posts, next, err := s.posts.ListByOwner(ctx, owner, cursor, ClampLimit(limit))
	if err != nil {
		return nil, err
	}

	items := make([]model.ContentItem, len(posts))
	for i := range posts {
		items[i] = posts[i].Item()
	}
	visible, err := s.authz.Visible(ctx, viewerID, items)
	if err != nil {
		return nil, err
	}

	out := make([]model.Post, 0, len(posts))
	for i := range posts {
		if visible[i] {
			out = append(out, *withAuthor(&posts[i]))
		}
	}
	return &model.PostListResponse{
		Posts:      out,
		NextCursor: FormatCursor(next),
		HasMore:    next != nil,
	}, nil
}
