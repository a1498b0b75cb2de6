package model

// Privacy is the visibility flag of a post or event.
type Privacy string

const (
	PrivacyPublic  Privacy = "Public"
	PrivacyPrivate Privacy = "Private"
)

func (p Privacy) Valid() bool {
	return p == PrivacyPublic || p == PrivacyPrivate
}

// OwnerColumns mirrors the persisted "one of three owner columns" shape.
// SponsorID and TrainerID are joined from brands and clubs so the accountable
// Person can be resolved without another round trip.
type OwnerColumns struct {
	UserID    *int64 `db:"user_id" json:"-"`
	BrandID   *int64 `db:"brand_id" json:"-"`
	ClubID    *int64 `db:"club_id" json:"-"`
	SponsorID *int64 `db:"sponsor_id" json:"-"`
	TrainerID *int64 `db:"trainer_id" json:"-"`
}

// OwnerColumnsFor returns the columns that persist ownership by a.
func OwnerColumnsFor(a Actor) OwnerColumns {
	id, owner := a.ID, a.OwnerID
	switch a.Kind {
	case ActorBrand:
		return OwnerColumns{BrandID: &id, SponsorID: &owner}
	case ActorClub:
		return OwnerColumns{ClubID: &id, TrainerID: &owner}
	default:
		return OwnerColumns{UserID: &id}
	}
}

// ContentItem is the view of a post or event the authorizer decides on.
type ContentItem struct {
	Owner   OwnerColumns
	Privacy Privacy
}
