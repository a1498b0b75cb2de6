package model

import (
	"errors"
	"time"
)

// CommentKind distinguishes top-level comments from replies.
type CommentKind string

const (
	CommentPrincipal CommentKind = "Principal-Comment"
	CommentReply     CommentKind = "Reply"
)

// Comment is attached to a post. Replies point at a principal comment;
// nesting never goes deeper than one level.
type Comment struct {
	ID        int64       `db:"id" json:"id"`
	PostID    int64       `db:"post_id" json:"post_id"`
	AuthorID  int64       `db:"author_id" json:"author_id"`
	Kind      CommentKind `db:"kind" json:"kind"`
	ParentID  *int64      `db:"parent_id" json:"parent_id,omitempty"`
	Text      string      `db:"text" json:"text"`
	Reactions int64       `db:"reactions" json:"reactions"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// CreateCommentRequest is the request body for creating a comment.
type CreateCommentRequest struct {
	Text     string `json:"text"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// UpdateCommentRequest is the request body for updating a comment.
type UpdateCommentRequest struct {
	Text string `json:"text"`
}

// CommentListResponse is the paginated comment list response.
type CommentListResponse struct {
	Comments   []Comment `json:"comments"`
	NextCursor *string   `json:"next_cursor,omitempty"`
	HasMore    bool      `json:"has_more"`
}

type RemoveCommentResponse struct {
	Removed int64 `json:"removed"`
}

// Comment constraints
const (
	MaxCommentLength = 250
)

// Comment errors
var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrContentRequired = errors.New("comment text is required")
	ErrContentTooLong  = errors.New("comment text too long")
	ErrParentOtherPost = errors.New("parent comment belongs to another post")
)
