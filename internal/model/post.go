package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Post is owned by exactly one of a person, a brand or a club.
type Post struct {
	ID int64 `db:"id" json:"id"`
	OwnerColumns
	About     string         `db:"about" json:"about"`
	Privacy   Privacy        `db:"privacy" json:"privacy"`
	Feeling   string         `db:"feeling" json:"feeling"`
	Location  string         `db:"location" json:"location"`
	MediaURLs pq.StringArray `db:"media_urls" json:"media_urls"`
	RepostOf  *int64         `db:"repost_of" json:"repost_of,omitempty"`
	Reactions int64          `db:"reactions" json:"reactions"`
	Comments  int64          `db:"comments" json:"comments"`
	Shares    int64          `db:"shares" json:"shares"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`

	// Resolved from OwnerColumns before the post leaves the service layer.
	Author *Actor `db:"-" json:"author,omitempty"`
}

func (p *Post) Item() ContentItem {
	return ContentItem{Owner: p.OwnerColumns, Privacy: p.Privacy}
}

// CreatePostRequest is the request body for creating a post. As defaults to
// the requesting person.
type CreatePostRequest struct {
	As        *ActorRef `json:"as,omitempty"`
	About     string    `json:"about"`
	Privacy   Privacy   `json:"privacy"`
	Feeling   string    `json:"feeling"`
	Location  string    `json:"location"`
	MediaURLs []string  `json:"media_urls"`
}

type UpdatePostRequest struct {
	About    *string  `json:"about"`
	Privacy  *Privacy `json:"privacy"`
	Feeling  *string  `json:"feeling"`
	Location *string  `json:"location"`
}

type SharePostRequest struct {
	As      *ActorRef `json:"as,omitempty"`
	About   string    `json:"about"`
	Privacy Privacy   `json:"privacy"`
}

type PostListResponse struct {
	Posts      []Post  `json:"posts"`
	NextCursor *string `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

// Post constraints
const (
	MaxPostMediaCount   = 10
	MaxPostLocationSize = 60
	PostMediaFolder     = "posts"
	MaxPostMediaSize    = 10 * 1024 * 1024 // 10MB per media
)

var feelings = map[string]struct{}{
	"Happy": {}, "Loved": {}, "Excited": {}, "Crazy": {}, "Thankful": {}, "Fantastic": {},
	"Motived": {}, "Tired": {}, "Alone": {}, "Angry": {}, "Sorry": {}, "Confused": {},
	"Strong": {}, "Stressed": {}, "Scared": {}, "Sick": {}, "Sarcastic": {}, "Anxious": {},
	"Nostalgic": {}, "Proud": {}, "Curious": {}, "Surprised": {},
}

// IsValidFeeling accepts the empty string (no feeling) or one of the known feelings.
func IsValidFeeling(f string) bool {
	if f == "" {
		return true
	}
	_, ok := feelings[f]
	return ok
}

// Post errors
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrInvalidPrivacy  = errors.New("privacy must be Public or Private")
	ErrInvalidFeeling  = errors.New("invalid feeling")
	ErrLocationTooLong = errors.New("location too long")
	ErrTooManyMedia    = errors.New("too many media items")
	ErrEmptyPost       = errors.New("a post needs text or media")
)
