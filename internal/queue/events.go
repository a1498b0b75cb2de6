package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gaman_backend/internal/model"
)

// Event types for the social stream
const (
	EventFollowRequested = "follow_requested"
	EventFollowAccepted  = "follow_accepted"
	EventUserFollowed    = "user_followed"
	EventUserUnfollowed  = "user_unfollowed"
	EventPostReacted     = "post_reacted"
	EventPostCommented   = "post_commented"
	EventEventCreated    = "event_created"
	EventClubInvited     = "club_invited"
)

// Stream names
const (
	StreamSocial = "stream:social"
)

// Consumer group name for social workers
const (
	ConsumerGroupSocial = "social_workers"
)

// Event is a post-commit fact about the social graph or its content.
// Only the fields relevant to Type are set.
type Event struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`

	// Follow events
	FollowerID int64           `json:"follower_id,omitempty"`
	TargetKind model.ActorKind `json:"target_kind,omitempty"`
	TargetID   int64           `json:"target_id,omitempty"`
	RequestID  int64           `json:"request_id,omitempty"`

	// Engagement events. ActorID is the person who acted, RecipientID the
	// person accountable for the content.
	ActorID     int64 `json:"actor_id,omitempty"`
	RecipientID int64 `json:"recipient_id,omitempty"`
	PostID      int64 `json:"post_id,omitempty"`
	CommentID   int64 `json:"comment_id,omitempty"`

	// Event creation
	EventID int64  `json:"event_id,omitempty"`
	Place   string `json:"place,omitempty"`

	// Club invitations
	InvitationID int64 `json:"invitation_id,omitempty"`
}

func newEvent(eventType string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().Unix(),
	}
}

// NewFollowRequestedEvent is raised when requesterID asks to follow a private person.
func NewFollowRequestedEvent(requestID, requesterID, requestedID int64) Event {
	e := newEvent(EventFollowRequested)
	e.RequestID = requestID
	e.FollowerID = requesterID
	e.TargetKind = model.ActorPerson
	e.TargetID = requestedID
	return e
}

// NewFollowAcceptedEvent is raised when requestedID accepts; the requester is notified.
func NewFollowAcceptedEvent(requestID, requesterID, requestedID int64) Event {
	e := newEvent(EventFollowAccepted)
	e.RequestID = requestID
	e.FollowerID = requesterID
	e.TargetKind = model.ActorPerson
	e.TargetID = requestedID
	return e
}

// NewUserFollowedEvent carries the target's accountable person so the worker
// can notify a sponsor or trainer without another lookup.
func NewUserFollowedEvent(followerID int64, target model.Actor) Event {
	e := newEvent(EventUserFollowed)
	e.FollowerID = followerID
	e.TargetKind = target.Kind
	e.TargetID = target.ID
	e.RecipientID = target.OwnerID
	return e
}

func NewUserUnfollowedEvent(followerID int64, target model.ActorRef) Event {
	e := newEvent(EventUserUnfollowed)
	e.FollowerID = followerID
	e.TargetKind = target.Kind
	e.TargetID = target.ID
	return e
}

func NewPostReactedEvent(postID, actorID, recipientID int64) Event {
	e := newEvent(EventPostReacted)
	e.PostID = postID
	e.ActorID = actorID
	e.RecipientID = recipientID
	return e
}

func NewPostCommentedEvent(postID, commentID, actorID, recipientID int64) Event {
	e := newEvent(EventPostCommented)
	e.PostID = postID
	e.CommentID = commentID
	e.ActorID = actorID
	e.RecipientID = recipientID
	return e
}

// NewEventCreatedEvent asks the worker to geocode the event's place.
func NewEventCreatedEvent(eventID int64, place string) Event {
	e := newEvent(EventEventCreated)
	e.EventID = eventID
	e.Place = place
	return e
}

// NewClubInvitedEvent is raised when a trainer invites invitedID into clubID.
func NewClubInvitedEvent(invitationID, clubID, trainerID, invitedID int64) Event {
	e := newEvent(EventClubInvited)
	e.InvitationID = invitationID
	e.TargetKind = model.ActorClub
	e.TargetID = clubID
	e.ActorID = trainerID
	e.RecipientID = invitedID
	return e
}

// Subject is the NATS subject the event is mirrored on, e.g. "social.user_followed".
func (e Event) Subject(stream string) string {
	return strings.TrimPrefix(stream, "stream:") + "." + e.Type
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e Event) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseEvent parses an Event from Redis stream message values.
func ParseEvent(values map[string]interface{}) (Event, error) {
	data, ok := values["data"].(string)
	if !ok {
		return Event{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
