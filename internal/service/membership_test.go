package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gaman_backend/internal/model"
	"gaman_backend/internal/queue"
)

// =============================================================================
// INVITATIONS
// =============================================================================

func TestMembershipService_InviteThenConfirm(t *testing.T) {
	// ARRANGE
	w := newWorld()
	w.actors.addPerson(10, true)
	w.actors.addPerson(20, false)
	w.actors.addClub(5, 10)
	svc := w.membershipService()
	ctx := context.Background()

	// ACT: the trainer invites
	inv, err := svc.Invite(ctx, 5, 10, model.InviteMemberRequest{InvitedID: 20})

	// ASSERT
	require.NoError(t, err)
	assert.False(t, inv.Used)
	assert.Equal(t, []string{queue.EventClubInvited}, w.pub.types())
	assert.Equal(t, int64(20), w.pub.events[0].RecipientID)
	assert.Equal(t, inv.ID, w.pub.events[0].InvitationID)

	members, err := svc.Members(ctx, 5, nil, 10)
	require.NoError(t, err)
	require.Len(t, members.Members, 1)
	assert.False(t, members.Members[0].Active, "membership waits for confirmation")

	pending, err := svc.PendingInvitations(ctx, 20)
	require.NoError(t, err)
	require.Len(t, pending.Invitations, 1)

	// ACT: the invited person confirms
	confirmed, err := svc.Confirm(ctx, inv.ID, 20, model.ConfirmInvitationRequest{Confirm: true})

	// ASSERT
	require.NoError(t, err)
	assert.True(t, confirmed.Used)
	members, err = svc.Members(ctx, 5, nil, 10)
	require.NoError(t, err)
	assert.True(t, members.Members[0].Active)

	pending, err = svc.PendingInvitations(ctx, 20)
	require.NoError(t, err)
	assert.Empty(t, pending.Invitations)
	assert.NotNil(t, pending.Invitations)
}

func TestMembershipService_InviteErrors(t *testing.T) {
	w := newWorld()
	w.actors.addPerson(10, true)
	w.actors.addPerson(11, true)
	w.actors.addClub(5, 10)
	svc := w.membershipService()
	ctx := context.Background()

	_, err := svc.Invite(ctx, 5, 10, model.InviteMemberRequest{InvitedID: 11})
	require.NoError(t, err)

	tests := []struct {
		name      string
		clubID    int64
		trainerID int64
		invitedID int64
		want      error
	}{
		{"not the trainer", 5, 11, 12, model.ErrPermissionDenied},
		{"unknown club", 6, 10, 12, model.ErrActorNotFound},
		{"missing invitee", 5, 10, 0, model.ErrUserNotFound},
		{"already invited", 5, 10, 11, model.ErrInvitationExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Invite(ctx, tt.clubID, tt.trainerID, model.InviteMemberRequest{InvitedID: tt.invitedID})
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Len(t, w.pub.events, 1, "failed invitations publish nothing")
}

func TestMembershipService_ConfirmErrors(t *testing.T) {
	// ARRANGE
	w := newWorld()
	w.actors.addPerson(10, true)
	w.actors.addClub(5, 10)
	svc := w.membershipService()
	ctx := context.Background()
	inv, err := svc.Invite(ctx, 5, 10, model.InviteMemberRequest{InvitedID: 20})
	require.NoError(t, err)

	// ACT & ASSERT
	_, err = svc.Confirm(ctx, inv.ID, 20, model.ConfirmInvitationRequest{Confirm: false})
	assert.ErrorIs(t, err, model.ErrInvitationNotConfirmed)

	_, err = svc.Confirm(ctx, inv.ID, 10, model.ConfirmInvitationRequest{Confirm: true})
	assert.ErrorIs(t, err, model.ErrPermissionDenied, "the trainer cannot confirm for the invitee")

	_, err = svc.Confirm(ctx, inv.ID+1, 20, model.ConfirmInvitationRequest{Confirm: true})
	assert.ErrorIs(t, err, model.ErrInvitationNotFound)

	_, err = svc.Confirm(ctx, inv.ID, 20, model.ConfirmInvitationRequest{Confirm: true})
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, inv.ID, 20, model.ConfirmInvitationRequest{Confirm: true})
	assert.ErrorIs(t, err, model.ErrInvitationUsed)
}

// =============================================================================
// REMOVAL
// =============================================================================

func TestMembershipService_RemoveMember(t *testing.T) {
	tests := []struct {
		name        string
		requesterID int64
		want        error
	}{
		{"trainer removes", 10, nil},
		{"member leaves", 20, nil},
		{"stranger", 30, model.ErrPermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// ARRANGE
			w := newWorld()
			w.actors.addPerson(10, true)
			w.actors.addClub(5, 10)
			svc := w.membershipService()
			ctx := context.Background()
			inv, err := svc.Invite(ctx, 5, 10, model.InviteMemberRequest{InvitedID: 20})
			require.NoError(t, err)
			_, err = svc.Confirm(ctx, inv.ID, 20, model.ConfirmInvitationRequest{Confirm: true})
			require.NoError(t, err)

			// ACT
			err = svc.RemoveMember(ctx, 5, tt.requesterID, 20)

			// ASSERT
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			members, err := svc.Members(ctx, 5, nil, 10)
			require.NoError(t, err)
			assert.Empty(t, members.Members)

			_, err = svc.Invite(ctx, 5, 10, model.InviteMemberRequest{InvitedID: 20})
			assert.NoError(t, err, "a removed member can be invited again")
		})
	}
}

func TestMembershipService_RemoveUnknownMember(t *testing.T) {
	w := newWorld()
	w.actors.addPerson(10, true)
	w.actors.addClub(5, 10)

	err := w.membershipService().RemoveMember(context.Background(), 5, 10, 99)

	assert.ErrorIs(t, err, model.ErrMemberNotFound)
}

func TestMembershipService_MembersOfUnknownClub(t *testing.T) {
	w := newWorld()

	_, err := w.membershipService().Members(context.Background(), 5, nil, 10)

	assert.ErrorIs(t, err, model.ErrActorNotFound)
}
