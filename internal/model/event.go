package model

import (
	"errors"
	"time"
)

// Event is a sport event. Location fields after Place are filled in
// asynchronously by the geocoding worker.
type Event struct {
	ID int64 `db:"id" json:"id"`
	OwnerColumns
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Privacy     Privacy   `db:"privacy" json:"privacy"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	FinishDate  time.Time `db:"finish_date" json:"finish_date"`
	Place       string    `db:"place" json:"place"`
	Country     string    `db:"country" json:"country"`
	State       string    `db:"state" json:"state"`
	City        string    `db:"city" json:"city"`
	Geolocation string    `db:"geolocation" json:"geolocation"`
	Reactions   int64     `db:"reactions" json:"reactions"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	Author *Actor `db:"-" json:"author,omitempty"`
}

func (e *Event) Item() ContentItem {
	return ContentItem{Owner: e.OwnerColumns, Privacy: e.Privacy}
}

// Location is the geocoding result for an event's place.
type Location struct {
	Place       string
	Country     string
	State       string
	City        string
	Geolocation string // "lat lng"
}

// Dates are "YYYY-MM-DD".
type CreateEventRequest struct {
	As          *ActorRef `json:"as,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Privacy     Privacy   `json:"privacy"`
	Start       string    `json:"start"`
	Finish      string    `json:"finish"`
	Place       string    `json:"place"`
}

type UpdateEventRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Privacy     *Privacy `json:"privacy"`
	Start       *string  `json:"start"`
	Finish      *string  `json:"finish"`
}

type EventListResponse struct {
	Events     []Event `json:"events"`
	NextCursor *string `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

const (
	EventDateLayout     = "2006-01-02"
	MaxEventTitleLength = 150
	MaxEventDescLength  = 250
	MaxEventPlaceLength = 180
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrInvalidEventTitle = errors.New("title must be 1-150 characters")
	ErrEventDescTooLong  = errors.New("description too long")
	ErrInvalidEventDate  = errors.New("dates must be YYYY-MM-DD")
	ErrEventDatesOrder   = errors.New("finish date is before start date")
	ErrInvalidEventPlace = errors.New("place must be 1-180 characters")
)
