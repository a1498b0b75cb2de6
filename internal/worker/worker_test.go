package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gaman_backend/internal/config"
	"gaman_backend/internal/geocode"
	"gaman_backend/internal/model"
	"gaman_backend/internal/queue"
	"gaman_backend/internal/worker"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type mockNotifications struct {
	created []model.Notification
	err     error
}

func (m *mockNotifications) Create(_ context.Context, n *model.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, *n)
	return nil
}

type mockGeocoder struct {
	loc   model.Location
	err   error
	calls []string
}

func (m *mockGeocoder) Lookup(_ context.Context, place string) (model.Location, error) {
	m.calls = append(m.calls, place)
	return m.loc, m.err
}

type mockLocations struct {
	set map[int64]model.Location
}

func (m *mockLocations) SetLocation(_ context.Context, id int64, loc model.Location) error {
	if m.set == nil {
		m.set = map[int64]model.Location{}
	}
	m.set[id] = loc
	return nil
}

// memConsumer hands out queued messages and records acknowledgements.
type memConsumer struct {
	mu      sync.Mutex
	pending []queue.Message
	fresh   []queue.Message
	acked   []string
}

func (c *memConsumer) EnsureGroup(context.Context, string, string) error { return nil }

func (c *memConsumer) Read(ctx context.Context, _, _, _ string, _ int64, block time.Duration) ([]queue.Message, error) {
	c.mu.Lock()
	msgs := c.fresh
	c.fresh = nil
	c.mu.Unlock()
	if len(msgs) > 0 {
		return msgs, nil
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(block):
		return nil, nil
	}
}

func (c *memConsumer) ReadPending(context.Context, string, string, string, int64) ([]queue.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.pending
	c.pending = nil
	return msgs, nil
}

func (c *memConsumer) Ack(_ context.Context, _, _ string, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acked = append(c.acked, ids...)
	return nil
}

func (c *memConsumer) Pending(context.Context, string, string) (int64, error) { return 0, nil }

func (c *memConsumer) ackedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.acked...)
}

type recordingHandler struct {
	mu       sync.Mutex
	seen     []string
	failType string
}

func (h *recordingHandler) HandleEvent(_ context.Context, e queue.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, e.Type)
	if e.Type == h.failType {
		return errors.New("boom")
	}
	return nil
}

func newHandler() (*worker.Handler, *mockNotifications, *mockGeocoder, *mockLocations) {
	n := &mockNotifications{}
	g := &mockGeocoder{}
	l := &mockLocations{}
	return worker.NewHandler(n, g, l, zerolog.Nop()), n, g, l
}

// =============================================================================
// Handler
// =============================================================================

func TestHandler_FollowRequestedNotifiesRequestedPerson(t *testing.T) {
	h, notes, _, _ := newHandler()

	err := h.HandleEvent(context.Background(), queue.NewFollowRequestedEvent(11, 1, 2))

	require.NoError(t, err)
	require.Len(t, notes.created, 1)
	n := notes.created[0]
	assert.Equal(t, int64(2), n.RecipientID)
	assert.Equal(t, int64(1), n.ActorID)
	assert.Equal(t, model.NotificationFollowRequest, n.Type)
	require.NotNil(t, n.FollowRequestID)
	assert.Equal(t, int64(11), *n.FollowRequestID)
}

func TestHandler_FollowAcceptedNotifiesRequester(t *testing.T) {
	h, notes, _, _ := newHandler()

	require.NoError(t, h.HandleEvent(context.Background(), queue.NewFollowAcceptedEvent(11, 1, 2)))

	require.Len(t, notes.created, 1)
	assert.Equal(t, int64(1), notes.created[0].RecipientID)
	assert.Equal(t, int64(2), notes.created[0].ActorID)
	assert.Equal(t, model.NotificationFollowAccepted, notes.created[0].Type)
}

func TestHandler_UserFollowedNotifiesSponsor(t *testing.T) {
	h, notes, _, _ := newHandler()
	brand := model.Actor{Kind: model.ActorBrand, ID: 5, OwnerID: 50}

	require.NoError(t, h.HandleEvent(context.Background(), queue.NewUserFollowedEvent(1, brand)))

	require.Len(t, notes.created, 1)
	assert.Equal(t, int64(50), notes.created[0].RecipientID)
	assert.Equal(t, model.NotificationFollow, notes.created[0].Type)
}

func TestHandler_ClubInvitedNotifiesInvitee(t *testing.T) {
	h, notes, _, _ := newHandler()

	require.NoError(t, h.HandleEvent(context.Background(), queue.NewClubInvitedEvent(9, 4, 40, 7)))

	require.Len(t, notes.created, 1)
	n := notes.created[0]
	assert.Equal(t, int64(7), n.RecipientID)
	assert.Equal(t, int64(40), n.ActorID)
	assert.Equal(t, model.NotificationClubInvitation, n.Type)
	require.NotNil(t, n.ClubInvitationID)
	assert.Equal(t, int64(9), *n.ClubInvitationID)
}

func TestHandler_SelfEngagementIsSilent(t *testing.T) {
	h, notes, _, _ := newHandler()
	ctx := context.Background()

	require.NoError(t, h.HandleEvent(ctx, queue.NewPostReactedEvent(1, 7, 7)))
	require.NoError(t, h.HandleEvent(ctx, queue.NewPostCommentedEvent(1, 2, 7, 7)))
	assert.Empty(t, notes.created)

	require.NoError(t, h.HandleEvent(ctx, queue.NewPostCommentedEvent(1, 2, 8, 7)))
	require.Len(t, notes.created, 1)
	assert.Equal(t, model.NotificationComment, notes.created[0].Type)
	assert.Equal(t, int64(2), *notes.created[0].CommentID)
}

func TestHandler_UnfollowIsNoop(t *testing.T) {
	h, notes, _, _ := newHandler()

	require.NoError(t, h.HandleEvent(context.Background(), queue.NewUserUnfollowedEvent(1, model.PersonRef(2))))
	assert.Empty(t, notes.created)
}

func TestHandler_NotificationErrorIsReturned(t *testing.T) {
	h, notes, _, _ := newHandler()
	notes.err = errors.New("db down")

	err := h.HandleEvent(context.Background(), queue.NewPostReactedEvent(1, 2, 3))

	assert.ErrorIs(t, err, notes.err)
}

func TestHandler_UnknownType(t *testing.T) {
	h, _, _, _ := newHandler()

	err := h.HandleEvent(context.Background(), queue.Event{Type: "post_created"})

	assert.Error(t, err)
}

func TestHandler_EventCreatedGeocodes(t *testing.T) {
	h, _, geo, locs := newHandler()
	geo.loc = model.Location{Place: "Estadio Azteca", Country: "México", City: "CDMX", Geolocation: "19.3 -99.1"}

	require.NoError(t, h.HandleEvent(context.Background(), queue.NewEventCreatedEvent(4, "azteca")))

	assert.Equal(t, []string{"azteca"}, geo.calls)
	assert.Equal(t, "CDMX", locs.set[4].City)
}

func TestHandler_EventCreatedNoMatchLeavesEvent(t *testing.T) {
	h, _, geo, locs := newHandler()
	geo.err = geocode.ErrNoMatch

	require.NoError(t, h.HandleEvent(context.Background(), queue.NewEventCreatedEvent(4, "atlantis")))

	assert.Empty(t, locs.set)
}

func TestHandler_EventCreatedAPIErrorReturned(t *testing.T) {
	h, _, geo, _ := newHandler()
	geo.err = errors.New("status=500")

	err := h.HandleEvent(context.Background(), queue.NewEventCreatedEvent(4, "x"))

	assert.Error(t, err)
}

// =============================================================================
// Manager
// =============================================================================

func TestManager_ReplaysPendingAndAcksEverything(t *testing.T) {
	pending := queue.Message{ID: "1-0", Event: queue.NewFollowRequestedEvent(1, 2, 3)}
	good := queue.Message{ID: "2-0", Event: queue.NewPostReactedEvent(1, 2, 3)}
	bad := queue.Message{ID: "3-0", Event: queue.NewEventCreatedEvent(1, "x")}

	consumer := &memConsumer{pending: []queue.Message{pending}, fresh: []queue.Message{good, bad}}
	handler := &recordingHandler{failType: queue.EventEventCreated}

	m := worker.NewManager(consumer, handler, config.WorkerConfig{Count: 1, BlockTimeout: 10 * time.Millisecond}, zerolog.Nop())
	require.NoError(t, m.Start(context.Background()))

	require.Eventually(t, func() bool { return len(consumer.ackedIDs()) == 3 }, 2*time.Second, 10*time.Millisecond)
	m.Stop()

	assert.Equal(t, []string{"1-0", "2-0", "3-0"}, consumer.ackedIDs(), "failed events are acknowledged too")
	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Equal(t, []string{queue.EventFollowRequested, queue.EventPostReacted, queue.EventEventCreated}, handler.seen)
}

func TestManager_AcksMalformedWithoutHandling(t *testing.T) {
	// ARRANGE: a pending batch made only of undecodable entries, then a good one
	garbled := []queue.Message{
		{ID: "1-0", Err: errors.New("missing data field")},
		{ID: "1-1", Err: errors.New("invalid character")},
	}
	good := queue.Message{ID: "2-0", Event: queue.NewPostReactedEvent(1, 2, 3)}

	consumer := &memConsumer{pending: garbled, fresh: []queue.Message{good}}
	handler := &recordingHandler{}

	// ACT
	m := worker.NewManager(consumer, handler, config.WorkerConfig{Count: 1, BlockTimeout: 10 * time.Millisecond}, zerolog.Nop())
	require.NoError(t, m.Start(context.Background()))
	require.Eventually(t, func() bool { return len(consumer.ackedIDs()) == 3 }, 2*time.Second, 10*time.Millisecond)
	m.Stop()

	// ASSERT
	assert.Equal(t, []string{"1-0", "1-1", "2-0"}, consumer.ackedIDs())
	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Equal(t, []string{queue.EventPostReacted}, handler.seen, "malformed entries never reach the handler")
}
