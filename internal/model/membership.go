package model

import (
	"errors"
	"time"
)

// ClubInvitation is a trainer's offer of membership to a person. It is used
// once the invited person confirms.
type ClubInvitation struct {
	ID        int64     `db:"id" json:"id"`
	ClubID    int64     `db:"club_id" json:"club_id"`
	IssuedBy  int64     `db:"issued_by" json:"issued_by"`
	InvitedID int64     `db:"invited_id" json:"invited_id"`
	Used      bool      `db:"used" json:"used"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClubMember links a person to a club. Inactive until the invitation that
// created it is confirmed.
type ClubMember struct {
	User     UserSummary `json:"user"`
	Active   bool        `json:"active"`
	JoinedAt time.Time   `json:"joined_at"`
}

type InviteMemberRequest struct {
	InvitedID int64 `json:"invited_id"`
}

type ConfirmInvitationRequest struct {
	Confirm bool `json:"confirm"`
}

type ClubMemberListResponse struct {
	Members    []ClubMember `json:"members"`
	NextCursor *string      `json:"next_cursor,omitempty"`
	HasMore    bool         `json:"has_more"`
}

type ClubInvitationListResponse struct {
	Invitations []ClubInvitation `json:"invitations"`
}

var (
	ErrInvitationExists       = errors.New("this person already has an invitation for this club")
	ErrInvitationNotFound     = errors.New("invitation not found")
	ErrInvitationUsed         = errors.New("invitation already used")
	ErrInvitationNotConfirmed = errors.New("the invitation has not been confirmed")
	ErrMemberNotFound         = errors.New("club member not found")
)
