package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gaman_backend/internal/model"
	"gaman_backend/internal/queue"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ClampLimit keeps a requested page size within [1, MaxPageSize].
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// FormatCursor renders a keyset cursor as "<created_at>_<id>". The id breaks
// ties between rows created at the same instant.
func FormatCursor(c *model.Cursor) *string {
	if c == nil {
		return nil
	}
	s := c.CreatedAt.UTC().Format(time.RFC3339Nano) + "_" + strconv.FormatInt(c.ID, 10)
	return &s
}

// ParseCursor is the inverse of FormatCursor; an empty string means the first page.
func ParseCursor(s string) (*model.Cursor, error) {
	if s == "" {
		return nil, nil
	}
	i := strings.LastIndexByte(s, '_')
	if i < 0 {
		return nil, fmt.Errorf("cursor %q: missing id", s)
	}
	t, err := time.Parse(time.RFC3339Nano, s[:i])
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cursor %q: %w", s, err)
	}
	return &model.Cursor{CreatedAt: t, ID: id}, nil
}

// publishAfterCommit queues a follow-on task once the state change is durable.
// Failures are logged and swallowed: graph and counter state stay authoritative.
func publishAfterCommit(ctx context.Context, log zerolog.Logger, p queue.Publisher, event queue.Event) {
	if p == nil {
		return
	}
	msgID, err := p.Publish(ctx, queue.StreamSocial, event)
	if errors.Is(err, queue.ErrQueueDisabled) {
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("type", event.Type).Str("event_id", event.ID).Msg("failed to publish event")
		return
	}
	log.Debug().Str("type", event.Type).Str("msg_id", msgID).Msg("event published")
}
