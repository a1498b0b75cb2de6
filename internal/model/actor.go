package model

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ActorKind tags which of the three identities an Actor is.
type ActorKind string

const (
	ActorPerson ActorKind = "person"
	ActorBrand  ActorKind = "brand"
	ActorClub   ActorKind = "club"
)

func (k ActorKind) Valid() bool {
	switch k {
	case ActorPerson, ActorBrand, ActorClub:
		return true
	}
	return false
}

// ActorRef identifies an Actor without saying anything about who owns it.
type ActorRef struct {
	Kind ActorKind `json:"kind" db:"target_kind"`
	ID   int64     `json:"id" db:"target_id"`
}

func PersonRef(id int64) ActorRef { return ActorRef{Kind: ActorPerson, ID: id} }
func BrandRef(id int64) ActorRef  { return ActorRef{Kind: ActorBrand, ID: id} }
func ClubRef(id int64) ActorRef   { return ActorRef{Kind: ActorClub, ID: id} }

func (r ActorRef) String() string {
	return string(r.Kind) + ":" + strconv.FormatInt(r.ID, 10)
}

// ParseActorRef builds a reference from URL parts such as ("club", "7").
func ParseActorRef(kind, id string) (ActorRef, error) {
	k := ActorKind(kind)
	if !k.Valid() {
		return ActorRef{}, fmt.Errorf("%w: %q", ErrInvalidActorKind, kind)
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return ActorRef{}, fmt.Errorf("%w: %q", ErrInvalidActorID, id)
	}
	return ActorRef{Kind: k, ID: n}, nil
}

// Actor is a resolved identity: the reference plus the Person accountable for it.
// For a Person OwnerID equals ID; for a Brand it is the sponsor; for a Club the trainer.
type Actor struct {
	Kind    ActorKind `json:"kind"`
	ID      int64     `json:"id"`
	OwnerID int64     `json:"owner_id"`
}

func (a Actor) Ref() ActorRef { return ActorRef{Kind: a.Kind, ID: a.ID} }

// ActorProfile is what the follow negotiation needs to know about a target.
type ActorProfile struct {
	Actor
	Name          string    `json:"name"`
	IsPublic      bool      `json:"is_public"`
	PhotoURL      *string   `json:"photo_url,omitempty"`
	FollowerCount int       `json:"follower_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// Brand is owned by its sponsor.
type Brand struct {
	ID            int64     `db:"id" json:"id"`
	SponsorID     int64     `db:"sponsor_id" json:"sponsor_id"`
	Slugname      string    `db:"slugname" json:"slugname"`
	Name          string    `db:"name" json:"name"`
	About         string    `db:"about" json:"about"`
	PhotoURL      *string   `db:"photo_url" json:"photo_url"`
	PhotoKey      *string   `db:"photo_key" json:"-"`
	FollowerCount int       `db:"follower_count" json:"follower_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Club is owned by its trainer.
type Club struct {
	ID            int64     `db:"id" json:"id"`
	TrainerID     int64     `db:"trainer_id" json:"trainer_id"`
	Slugname      string    `db:"slugname" json:"slugname"`
	Name          string    `db:"name" json:"name"`
	About         string    `db:"about" json:"about"`
	PhotoURL      *string   `db:"photo_url" json:"photo_url"`
	PhotoKey      *string   `db:"photo_key" json:"-"`
	FollowerCount int       `db:"follower_count" json:"follower_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CreateOrganizationRequest is the body for creating a brand or a club.
type CreateOrganizationRequest struct {
	Slugname string `json:"slugname"`
	Name     string `json:"name"`
	About    string `json:"about"`
}

const (
	MaxSlugnameLength = 40
	MaxOrgNameLength  = 80
)

var (
	ErrActorNotFound    = errors.New("actor not found")
	ErrInvalidActorKind = errors.New("invalid actor kind")
	ErrInvalidActorID   = errors.New("invalid actor id")
	ErrSlugnameTaken    = errors.New("slugname already taken")
	ErrInvalidSlugname  = errors.New("slugname must be 1-40 characters of letters, digits, '-' or '_'")
	ErrInvalidOrgName   = errors.New("name must be 1-80 characters")
)
