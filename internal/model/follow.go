package model

import (
	"errors"
	"time"
)

// FollowOutcome reports what request_or_follow did.
type FollowOutcome string

const (
	OutcomeFollowed       FollowOutcome = "followed"
	OutcomeUnfollowed     FollowOutcome = "unfollowed"
	OutcomeRequestCreated FollowOutcome = "request_created"
)

type FollowEdge struct {
	FollowerID int64     `db:"follower_id" json:"follower_id"`
	Target     ActorRef  `json:"target"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// FollowRequest is the negotiation record for following a private person.
// Accepted requests are kept as an audit trail.
type FollowRequest struct {
	ID          int64     `db:"id" json:"id"`
	RequesterID int64     `db:"requester_id" json:"requester_id"`
	RequestedID int64     `db:"requested_id" json:"requested_id"`
	Accepted    bool      `db:"accepted" json:"accepted"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	Requester *UserSummary `db:"-" json:"requester,omitempty"`
}

type UserSummary struct {
	ID          int64   `db:"id" json:"id"`
	Username    string  `db:"username" json:"username"`
	DisplayName *string `db:"display_name" json:"display_name"`
	PhotoURL    *string `db:"photo_url" json:"photo_url"`
}

// FollowingEntry is one target in a person's following list.
type FollowingEntry struct {
	Target    ActorRef  `json:"target"`
	Name      string    `db:"name" json:"name"`
	PhotoURL  *string   `db:"photo_url" json:"photo_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type FollowResponse struct {
	Outcome FollowOutcome  `json:"outcome"`
	Request *FollowRequest `json:"request,omitempty"`
}

type FollowerListResponse struct {
	Users      []UserSummary `json:"users"`
	NextCursor *string       `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}

type FollowingListResponse struct {
	Following  []FollowingEntry `json:"following"`
	NextCursor *string          `json:"next_cursor,omitempty"`
	HasMore    bool             `json:"has_more"`
}

type FollowRequestListResponse struct {
	Requests   []FollowRequest `json:"requests"`
	NextCursor *string         `json:"next_cursor,omitempty"`
	HasMore    bool            `json:"has_more"`
}

var (
	ErrSelfFollow            = errors.New("cannot follow yourself")
	ErrDuplicateRequest      = errors.New("a follow request already exists between these users")
	ErrAlreadyAccepted       = errors.New("follow request already accepted")
	ErrFollowRequestNotFound = errors.New("follow request not found")
	ErrFollowNotFound        = errors.New("not a follower")
)
