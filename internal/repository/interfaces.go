package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"gaman_backend/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	SetPrivacy(ctx context.Context, id int64, isPublic bool) (*model.User, error)
	IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
}

// ActorRepository resolves follow targets and content owners of any kind.
type ActorRepository interface {
	// Resolve loads the actor behind ref. Brands and clubs are always public.
	Resolve(ctx context.Context, ref model.ActorRef) (*model.ActorProfile, error)
	IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, ref model.ActorRef, delta int) error
	CreateBrand(ctx context.Context, brand *model.Brand) error
	CreateClub(ctx context.Context, club *model.Club) error
	// SetPhoto stores the new photo and returns the key of the one it replaced.
	SetPhoto(ctx context.Context, ref model.ActorRef, url, key string) (oldKey *string, err error)
}

// FollowRepository stores follow edges. Create returns model.ErrConflict for
// an existing edge or a person following themselves.
type FollowRepository interface {
	Exists(ctx context.Context, followerID int64, target model.ActorRef) (bool, error)
	Create(ctx context.Context, tx *sqlx.Tx, followerID int64, target model.ActorRef) error
	Delete(ctx context.Context, tx *sqlx.Tx, followerID int64, target model.ActorRef) (bool, error)
	FollowersOf(ctx context.Context, target model.ActorRef, cursor *model.Cursor, limit int) ([]model.UserSummary, *model.Cursor, error)
	FollowingOf(ctx context.Context, followerID int64, cursor *model.Cursor, limit int) ([]model.FollowingEntry, *model.Cursor, error)
}

// FollowRequestRepository stores follow requests. At most one request exists
// per unordered pair of persons.
type FollowRequestRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, requesterID, requestedID int64) (*model.FollowRequest, error)
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*model.FollowRequest, error)
	MarkAccepted(ctx context.Context, tx *sqlx.Tx, id int64) error
	Delete(ctx context.Context, tx *sqlx.Tx, id int64) error
	DeleteBetween(ctx context.Context, tx *sqlx.Tx, a, b int64) (int64, error)
	DeleteStaleBetween(ctx context.Context, tx *sqlx.Tx, a, b int64) (int64, error)
	ListPending(ctx context.Context, requestedID int64, cursor *model.Cursor, limit int) ([]model.FollowRequest, *model.Cursor, error)
}

type PostRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, post *model.Post) error
	GetByID(ctx context.Context, id int64) (*model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, tx *sqlx.Tx, id int64) error
	ListByOwner(ctx context.Context, owner model.ActorRef, cursor *model.Cursor, limit int) ([]model.Post, *model.Cursor, error)
	LockForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) error
	// IncrementCounter adds delta to one of reactions, comments or shares.
	IncrementCounter(ctx context.Context, tx *sqlx.Tx, id int64, counter string, delta int64) error
}

type EventRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, event *model.Event) error
	GetByID(ctx context.Context, id int64) (*model.Event, error)
	Update(ctx context.Context, event *model.Event) error
	Delete(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, owner model.ActorRef, cursor *model.Cursor, limit int) ([]model.Event, *model.Cursor, error)
	SetLocation(ctx context.Context, id int64, loc model.Location) error
}

// ReactionRepository stores reaction edges for posts, comments and events.
// Each target kind has its own table and counter column.
type ReactionRepository interface {
	// LockTarget takes a row lock on the reacted-to content so toggles on the
	// same target serialize.
	LockTarget(ctx context.Context, tx *sqlx.Tx, t model.ReactionTarget) error
	Create(ctx context.Context, tx *sqlx.Tx, t model.ReactionTarget, userID int64, kind model.ReactionKind) error
	Delete(ctx context.Context, tx *sqlx.Tx, t model.ReactionTarget, userID int64) (bool, error)
	AdjustCounter(ctx context.Context, tx *sqlx.Tx, t model.ReactionTarget, delta int64) (int64, error)
	List(ctx context.Context, t model.ReactionTarget, cursor *model.Cursor, limit int) ([]model.Reaction, *model.Cursor, error)
}

type CommentRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, comment *model.Comment) error
	GetByID(ctx context.Context, id int64) (*model.Comment, error)
	UpdateText(ctx context.Context, id int64, text string) (*model.Comment, error)
	// DeleteWithReplies removes a comment and its replies and returns how many rows went.
	DeleteWithReplies(ctx context.Context, tx *sqlx.Tx, id int64) (int64, error)
	ListByPost(ctx context.Context, postID int64, cursor *model.Cursor, limit int) ([]model.Comment, *model.Cursor, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByRecipient(ctx context.Context, recipientID int64, limit int) ([]model.Notification, int, error)
	MarkAsRead(ctx context.Context, recipientID int64, ids []int64) error
	MarkAllAsRead(ctx context.Context, recipientID int64) error
}

type MembershipRepository interface {
	Invite(ctx context.Context, tx *sqlx.Tx, clubID, issuedBy, invitedID int64) (*model.ClubInvitation, error)
	GetInvitationForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*model.ClubInvitation, error)
	Confirm(ctx context.Context, tx *sqlx.Tx, inv *model.ClubInvitation) error
	RemoveMember(ctx context.Context, tx *sqlx.Tx, clubID, userID int64) error
	ListMembers(ctx context.Context, clubID int64, cursor *model.Cursor, limit int) ([]model.ClubMember, *model.Cursor, error)
	PendingInvitations(ctx context.Context, invitedID int64) ([]model.ClubInvitation, error)
}
