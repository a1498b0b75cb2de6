package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gaman_backend/internal/model"
)

func TestActorService_CreateBrandAndClub(t *testing.T) {
	w := newWorld()
	svc := w.actorService()
	ctx := context.Background()

	brand, err := svc.CreateBrand(ctx, 1, model.CreateOrganizationRequest{Slugname: "nike", Name: " Nike "})
	require.NoError(t, err)
	assert.Equal(t, "Nike", brand.Name)
	assert.Equal(t, int64(1), brand.SponsorID)

	club, err := svc.CreateClub(ctx, 1, model.CreateOrganizationRequest{Slugname: "bushido", Name: "Bushido"})
	require.NoError(t, err)

	profile, err := svc.Profile(ctx, model.ClubRef(club.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.OwnerID)
	assert.True(t, profile.IsPublic, "clubs are always public")

	_, err = svc.CreateClub(ctx, 2, model.CreateOrganizationRequest{Slugname: "bushido", Name: "Other"})
	assert.ErrorIs(t, err, model.ErrSlugnameTaken)
}

func TestActorService_OrganizationValidation(t *testing.T) {
	svc := newWorld().actorService()

	_, err := svc.CreateBrand(context.Background(), 1, model.CreateOrganizationRequest{Slugname: "no spaces", Name: "x"})
	assert.ErrorIs(t, err, model.ErrInvalidSlugname)

	_, err = svc.CreateBrand(context.Background(), 1, model.CreateOrganizationRequest{Slugname: "ok", Name: ""})
	assert.ErrorIs(t, err, model.ErrInvalidOrgName)
}

func TestActorService_SetPrivacyChangesFollowOutcome(t *testing.T) {
	w := newWorld()
	w.actors.addPerson(1, true)
	w.actors.addPerson(2, true)
	ctx := context.Background()

	user, err := w.actorService().SetPrivacy(ctx, 2, false)
	require.NoError(t, err)
	assert.False(t, user.IsPublic)

	resp, err := w.followService().RequestOrFollow(ctx, 1, model.PersonRef(2))
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeRequestCreated, resp.Outcome)
}

func TestActorService_UploadPhotoReplacesOld(t *testing.T) {
	w := newWorld()
	w.actors.addBrand(5, 1)
	svc := w.actorService()
	ctx := context.Background()

	_, err := svc.UploadPhoto(ctx, 2, model.BrandRef(5), nil, nil)
	assert.ErrorIs(t, err, model.ErrPermissionDenied)
	assert.Empty(t, w.media.uploaded)

	first, err := svc.UploadPhoto(ctx, 1, model.BrandRef(5), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, w.media.deleted)

	second, err := svc.UploadPhoto(ctx, 1, model.BrandRef(5), nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.Key, second.Key)
	assert.Equal(t, []string{first.Key}, w.media.deleted)
}
