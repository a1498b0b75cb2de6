package model

import (
	"errors"
	"time"
)

type ReactionKind string

const (
	ReactionLike    ReactionKind = "Like"
	ReactionLove    ReactionKind = "Love"
	ReactionCurious ReactionKind = "Curious"
	ReactionHaha    ReactionKind = "Haha"
	ReactionSad     ReactionKind = "Sad"
	ReactionAngry   ReactionKind = "Angry"
)

func (k ReactionKind) Valid() bool {
	switch k {
	case ReactionLike, ReactionLove, ReactionCurious, ReactionHaha, ReactionSad, ReactionAngry:
		return true
	}
	return false
}

// ReactionTargetKind names the content a reaction edge points at.
type ReactionTargetKind string

const (
	ReactOnPost    ReactionTargetKind = "post"
	ReactOnComment ReactionTargetKind = "comment"
	ReactOnEvent   ReactionTargetKind = "event"
)

type ReactionTarget struct {
	Kind ReactionTargetKind
	ID   int64
}

// ReactionResult is what a toggle did to the edge set.
type ReactionResult string

const (
	ReactionCreated ReactionResult = "created"
	ReactionDeleted ReactionResult = "deleted"
)

type Reaction struct {
	UserID    int64        `db:"user_id" json:"user_id"`
	Username  string       `db:"username" json:"username"`
	Kind      ReactionKind `db:"kind" json:"reaction"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

type ReactRequest struct {
	Reaction ReactionKind `json:"reaction"`
}

type ReactResponse struct {
	Result    ReactionResult `json:"result"`
	Reactions int64          `json:"reactions"`
}

var ErrInvalidReaction = errors.New("reaction must be one of Like, Love, Curious, Haha, Sad, Angry")

type ReactionListResponse struct {
	Reactions  []Reaction `json:"reactions"`
	NextCursor *string    `json:"next_cursor,omitempty"`
	HasMore    bool       `json:"has_more"`
}
