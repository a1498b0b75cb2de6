// Package identity resolves which actor owns a content item and which
// person is accountable for that actor.
package identity

import (
	"fmt"

	"gaman_backend/internal/model"
)

// OwnerOf returns the single actor set on o. It fails with model.ErrIntegrity
// when zero or several owner columns are set, or when a brand or club owner
// was loaded without its sponsor or trainer.
func OwnerOf(o model.OwnerColumns) (model.Actor, error) {
	var (
		actor model.Actor
		set   int
	)

	if o.UserID != nil {
		set++
		actor = model.Actor{Kind: model.ActorPerson, ID: *o.UserID, OwnerID: *o.UserID}
	}
	if o.BrandID != nil {
		set++
		if o.SponsorID == nil {
			return model.Actor{}, fmt.Errorf("%w: brand %d has no sponsor", model.ErrIntegrity, *o.BrandID)
		}
		actor = model.Actor{Kind: model.ActorBrand, ID: *o.BrandID, OwnerID: *o.SponsorID}
	}
	if o.ClubID != nil {
		set++
		if o.TrainerID == nil {
			return model.Actor{}, fmt.Errorf("%w: club %d has no trainer", model.ErrIntegrity, *o.ClubID)
		}
		actor = model.Actor{Kind: model.ActorClub, ID: *o.ClubID, OwnerID: *o.TrainerID}
	}

	if set != 1 {
		return model.Actor{}, fmt.Errorf("%w: %d owners set", model.ErrIntegrity, set)
	}
	return actor, nil
}

// Normalize returns the id of the person accountable for a: the person
// itself, a brand's sponsor or a club's trainer.
func Normalize(a model.Actor) int64 {
	if a.Kind == model.ActorPerson {
		return a.ID
	}
	return a.OwnerID
}

// NormalizedOwner combines OwnerOf and Normalize.
func NormalizedOwner(o model.OwnerColumns) (int64, error) {
	a, err := OwnerOf(o)
	if err != nil {
		return 0, err
	}
	return Normalize(a), nil
}
