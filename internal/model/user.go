package model

import (
	"errors"
	"time"
)

// User is a Person: the only kind of actor that authenticates.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	DisplayName    *string   `db:"display_name" json:"display_name"`
	About          string    `db:"about" json:"about"`
	PhotoURL       *string   `db:"photo_url" json:"photo_url"`
	PhotoKey       *string   `db:"photo_key" json:"-"`
	IsPublic       bool      `db:"is_public" json:"is_public"`
	FollowerCount  int       `db:"follower_count" json:"follower_count"`
	FollowingCount int       `db:"following_count" json:"following_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type UpdatePrivacyRequest struct {
	IsPublic *bool `json:"is_public"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")
)
