package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gaman_backend/internal/model"
	"gaman_backend/internal/queue"
)

func validEvent() model.CreateEventRequest {
	return model.CreateEventRequest{
		Title:  "Spring 10K",
		Start:  "2026-04-01",
		Finish: "2026-04-01",
		Place:  "Chapultepec",
	}
}

func TestEventService_CreateQueuesGeocoding(t *testing.T) {
	w := newWorld()

	event, err := w.eventService().Create(context.Background(), 1, validEvent())

	require.NoError(t, err)
	assert.Equal(t, model.PrivacyPublic, event.Privacy)
	assert.Equal(t, 2026, event.StartDate.Year())
	require.Len(t, w.pub.events, 1)
	assert.Equal(t, queue.EventEventCreated, w.pub.events[0].Type)
	assert.Equal(t, event.ID, w.pub.events[0].EventID)
	assert.Equal(t, "Chapultepec", w.pub.events[0].Place)
}

func TestEventService_CreateValidation(t *testing.T) {
	w := newWorld()
	svc := w.eventService()

	tests := []struct {
		name   string
		mutate func(*model.CreateEventRequest)
		want   error
	}{
		{"no title", func(r *model.CreateEventRequest) { r.Title = " " }, model.ErrInvalidEventTitle},
		{"no place", func(r *model.CreateEventRequest) { r.Place = "" }, model.ErrInvalidEventPlace},
		{"bad date", func(r *model.CreateEventRequest) { r.Start = "01/04/2026" }, model.ErrInvalidEventDate},
		{"finish before start", func(r *model.CreateEventRequest) { r.Finish = "2026-03-31" }, model.ErrEventDatesOrder},
		{"bad privacy", func(r *model.CreateEventRequest) { r.Privacy = "Hidden" }, model.ErrInvalidPrivacy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validEvent()
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), 1, req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, w.pub.events)
}

// Following the trainer does not open a club's private event; following the
// club does.
func TestEventService_ClubPrivacyIsAgainstTheClub(t *testing.T) {
	w := newWorld()
	w.actors.addPerson(1, true)
	w.actors.addPerson(9, true)
	w.actors.addClub(3, 9)
	events := w.eventService()
	follows := w.followService()
	ctx := context.Background()

	req := validEvent()
	req.As = &model.ActorRef{Kind: model.ActorClub, ID: 3}
	req.Privacy = model.PrivacyPrivate
	event, err := events.Create(ctx, 9, req)
	require.NoError(t, err)

	_, err = follows.RequestOrFollow(ctx, 1, model.PersonRef(9))
	require.NoError(t, err)
	_, err = events.Get(ctx, 1, event.ID)
	assert.ErrorIs(t, err, model.ErrPermissionDenied)

	_, err = follows.RequestOrFollow(ctx, 1, model.ClubRef(3))
	require.NoError(t, err)
	got, err := events.Get(ctx, 1, event.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Actor{Kind: model.ActorClub, ID: 3, OwnerID: 9}, *got.Author)
}

func TestEventService_UpdateDates(t *testing.T) {
	w := newWorld()
	svc := w.eventService()
	ctx := context.Background()

	event, err := svc.Create(ctx, 1, validEvent())
	require.NoError(t, err)

	early := "2026-03-01"
	_, err = svc.Update(ctx, 1, event.ID, model.UpdateEventRequest{Finish: &early})
	assert.ErrorIs(t, err, model.ErrEventDatesOrder)

	later := "2026-04-03"
	updated, err := svc.Update(ctx, 1, event.ID, model.UpdateEventRequest{Finish: &later})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.FinishDate.Day())

	_, err = svc.Update(ctx, 2, event.ID, model.UpdateEventRequest{Finish: &later})
	assert.ErrorIs(t, err, model.ErrPermissionDenied)
}

func TestEventService_DeleteAndList(t *testing.T) {
	w := newWorld()
	svc := w.eventService()
	ctx := context.Background()

	event, err := svc.Create(ctx, 1, validEvent())
	require.NoError(t, err)

	list, err := svc.ListByOwner(ctx, 2, model.PersonRef(1), nil, 10)
	require.NoError(t, err)
	assert.Len(t, list.Events, 1)

	assert.ErrorIs(t, svc.Delete(ctx, 2, event.ID), model.ErrPermissionDenied)
	require.NoError(t, svc.Delete(ctx, 1, event.ID))

	_, err = svc.Get(ctx, 1, event.ID)
	assert.ErrorIs(t, err, model.ErrEventNotFound)
}
