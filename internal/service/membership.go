package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"gaman_backend/internal/database"
	"gaman_backend/internal/logger"
	"gaman_backend/internal/model"
	"gaman_backend/internal/queue"
	"gaman_backend/internal/repository"
)

// MembershipService manages who belongs to a club. The club's trainer invites,
// the invited person confirms, and either of them can end the membership.
type MembershipService struct {
	members   repository.MembershipRepository
	actors    repository.ActorRepository
	tx        database.Transactor
	publisher queue.Publisher
	log       zerolog.Logger
}

func NewMembershipService(
	members repository.MembershipRepository,
	actors repository.ActorRepository,
	tx database.Transactor,
	publisher queue.Publisher,
	log zerolog.Logger,
) *MembershipService {
	return &MembershipService{
		members:   members,
		actors:    actors,
		tx:        tx,
		publisher: publisher,
		log:       logger.Component(log, "membership_service"),
	}
}

// trainerOf returns the person accountable for the club.
func (s *MembershipService) trainerOf(ctx context.Context, clubID int64) (int64, error) {
	profile, err := s.actors.Resolve(ctx, model.ClubRef(clubID))
	if err != nil {
		return 0, err
	}
	return profile.OwnerID, nil
}

func (s *MembershipService) Invite(ctx context.Context, clubID, trainerID int64, req model.InviteMemberRequest) (*model.ClubInvitation, error) {
	if req.InvitedID <= 0 {
		return nil, model.ErrUserNotFound
	}
	owner, err := s.trainerOf(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if owner != trainerID {
		return nil, model.ErrPermissionDenied
	}

	var inv *model.ClubInvitation
	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		inv, err = s.members.Invite(ctx, tx, clubID, trainerID, req.InvitedID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("club_id", clubID).
		Int64("invited_id", req.InvitedID).
		Int64("invitation_id", inv.ID).
		Msg("club invitation issued")

	publishAfterCommit(ctx, s.log, s.publisher,
		queue.NewClubInvitedEvent(inv.ID, clubID, trainerID, req.InvitedID))
	return inv, nil
}

// Confirm accepts an invitation on behalf of the invited person. The request
// must carry confirm=true.
func (s *MembershipService) Confirm(ctx context.Context, invitationID, userID int64, req model.ConfirmInvitationRequest) (*model.ClubInvitation, error) {
	if !req.Confirm {
		return nil, model.ErrInvitationNotConfirmed
	}

	var inv *model.ClubInvitation
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		inv, err = s.members.GetInvitationForUpdate(ctx, tx, invitationID)
		if err != nil {
			return err
		}
		if inv.InvitedID != userID {
			return model.ErrPermissionDenied
		}
		if inv.Used {
			return model.ErrInvitationUsed
		}
		if err := s.members.Confirm(ctx, tx, inv); err != nil {
			return err
		}
		inv.Used = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("club_id", inv.ClubID).Int64("user_id", userID).Msg("club membership confirmed")
	return inv, nil
}

// RemoveMember ends userID's membership. The trainer may remove anyone and a
// member may leave.
func (s *MembershipService) RemoveMember(ctx context.Context, clubID, requesterID, userID int64) error {
	owner, err := s.trainerOf(ctx, clubID)
	if err != nil {
		return err
	}
	if requesterID != owner && requesterID != userID {
		return model.ErrPermissionDenied
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		return s.members.RemoveMember(ctx, tx, clubID, userID)
	})
	if err != nil {
		return err
	}

	s.log.Info().Int64("club_id", clubID).Int64("user_id", userID).Int64("removed_by", requesterID).Msg("club member removed")
	return nil
}

func (s *MembershipService) Members(ctx context.Context, clubID int64, cursor *model.Cursor, limit int) (*model.ClubMemberListResponse, error) {
	if _, err := s.trainerOf(ctx, clubID); err != nil {
		return nil, err
	}
	members, next, err := s.members.ListMembers(ctx, clubID, cursor, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	return &model.ClubMemberListResponse{
		Members:    members,
		NextCursor: FormatCursor(next),
		HasMore:    next != nil,
	}, nil
}

func (s *MembershipService) PendingInvitations(ctx context.Context, userID int64) (*model.ClubInvitationListResponse, error) {
	invitations, err := s.members.PendingInvitations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if invitations == nil {
		invitations = []model.ClubInvitation{}
	}
	return &model.ClubInvitationListResponse{Invitations: invitations}, nil
}
