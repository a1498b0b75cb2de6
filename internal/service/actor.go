package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"gaman_backend/internal/logger"
	"gaman_backend/internal/model"
	"gaman_backend/internal/repository"
)

var slugnamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,40}$`)

// ActorService manages persons, brands and clubs as follow targets and content owners.
type ActorService struct {
	users  repository.UserRepository
	actors repository.ActorRepository
	media  MediaStore
	log    zerolog.Logger
}

func NewActorService(users repository.UserRepository, actors repository.ActorRepository, media MediaStore, log zerolog.Logger) *ActorService {
	return &ActorService{
		users:  users,
		actors: actors,
		media:  media,
		log:    logger.Component(log, "actor_service"),
	}
}

func (s *ActorService) Profile(ctx context.Context, ref model.ActorRef) (*model.ActorProfile, error) {
	return s.actors.Resolve(ctx, ref)
}

// SetPrivacy flips a person's account between public and private. Existing
// edges are kept either way.
func (s *ActorService) SetPrivacy(ctx context.Context, userID int64, isPublic bool) (*model.User, error) {
	user, err := s.users.SetPrivacy(ctx, userID, isPublic)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", userID).Bool("is_public", isPublic).Msg("privacy changed")
	return user, nil
}

func (s *ActorService) CreateBrand(ctx context.Context, sponsorID int64, req model.CreateOrganizationRequest) (*model.Brand, error) {
	slug, name, err := validateOrganization(req)
	if err != nil {
		return nil, err
	}
	brand := &model.Brand{SponsorID: sponsorID, Slugname: slug, Name: name, About: req.About}
	if err := s.actors.CreateBrand(ctx, brand); err != nil {
		return nil, err
	}
	s.log.Info().Int64("brand_id", brand.ID).Int64("sponsor_id", sponsorID).Msg("brand created")
	return brand, nil
}

func (s *ActorService) CreateClub(ctx context.Context, trainerID int64, req model.CreateOrganizationRequest) (*model.Club, error) {
	slug, name, err := validateOrganization(req)
	if err != nil {
		return nil, err
	}
	club := &model.Club{TrainerID: trainerID, Slugname: slug, Name: name, About: req.About}
	if err := s.actors.CreateClub(ctx, club); err != nil {
		return nil, err
	}
	s.log.Info().Int64("club_id", club.ID).Int64("trainer_id", trainerID).Msg("club created")
	return club, nil
}

func validateOrganization(req model.CreateOrganizationRequest) (string, string, error) {
	slug := strings.TrimSpace(req.Slugname)
	if !slugnamePattern.MatchString(slug) {
		return "", "", model.ErrInvalidSlugname
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || utf8.RuneCountInString(name) > model.MaxOrgNameLength {
		return "", "", model.ErrInvalidOrgName
	}
	return slug, name, nil
}

// UploadPhoto replaces the profile photo of ref. Only the accountable person
// may change it. The previous object is removed after the row points at the
// new one.
func (s *ActorService) UploadPhoto(ctx context.Context, requesterID int64, ref model.ActorRef, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error) {
	profile, err := s.actors.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if profile.OwnerID != requesterID {
		return nil, model.ErrPermissionDenied
	}

	result, err := s.media.UploadPhoto(ctx, ref.Kind, file, header)
	if err != nil {
		return nil, err
	}

	oldKey, err := s.actors.SetPhoto(ctx, ref, result.URL, result.Key)
	if err != nil {
		if delErr := s.media.DeleteObject(ctx, result.Key); delErr != nil {
			s.log.Warn().Err(delErr).Str("key", result.Key).Msg("failed to clean up orphaned photo")
		}
		return nil, fmt.Errorf("set photo: %w", err)
	}

	if oldKey != nil && *oldKey != result.Key {
		if err := s.media.DeleteObject(ctx, *oldKey); err != nil {
			s.log.Warn().Err(err).Str("key", *oldKey).Msg("failed to delete previous photo")
		}
	}
	return result, nil
}
