package model

import (
	"time"
)

// Notification types
const (
	NotificationFollowRequest  = "follow_request"
	NotificationFollowAccepted = "follow_accepted"
	NotificationFollow         = "follow"
	NotificationReaction       = "reaction"
	NotificationComment        = "comment"
	NotificationClubInvitation = "club_invitation"
)

// Notification represents a single notification record in the database.
type Notification struct {
	ID               int64     `db:"id" json:"id"`
	RecipientID      int64     `db:"recipient_id" json:"-"`
	ActorID          int64     `db:"actor_id" json:"actor_id"`
	Type             string    `db:"type" json:"type"`
	FollowRequestID  *int64    `db:"follow_request_id" json:"follow_request_id,omitempty"`
	PostID           *int64    `db:"post_id" json:"post_id,omitempty"`
	CommentID        *int64    `db:"comment_id" json:"comment_id,omitempty"`
	ClubInvitationID *int64    `db:"club_invitation_id" json:"club_invitation_id,omitempty"`
	IsRead           bool      `db:"is_read" json:"is_read"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`

	Actor *UserSummary `db:"-" json:"actor,omitempty"`
}

type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

// MarkReadRequest is the request body for marking notifications as read.
// An empty list marks everything as read.
type MarkReadRequest struct {
	NotificationIDs []int64 `json:"notification_ids"`
}
