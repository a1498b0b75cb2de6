package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/jmoiron/sqlx"

	"gaman_backend/internal/model"
	"gaman_backend/internal/queue"
)

// =============================================================================
// IN-MEMORY FAKES
// =============================================================================
//
// The services only see repository interfaces, so the tests run them against
// small in-memory stores that enforce the same constraints as the schema
// (unique edges, one request per pair, counters never below zero).

type fakeTx struct {
	calls int
}

func (f *fakeTx) WithinTx(_ context.Context, fn func(tx *sqlx.Tx) error) error {
	f.calls++
	return fn(nil)
}

type fakePublisher struct {
	events []queue.Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, _ string, e queue.Event) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, e)
	return e.ID, nil
}

func (p *fakePublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// -----------------------------------------------------------------------------
// actors and users
// -----------------------------------------------------------------------------

type fakeActors struct {
	profiles map[model.ActorRef]*model.ActorProfile
	photos   map[model.ActorRef]string
	slugs    map[string]bool
	nextID   int64
}

func newFakeActors() *fakeActors {
	return &fakeActors{
		profiles: map[model.ActorRef]*model.ActorProfile{},
		photos:   map[model.ActorRef]string{},
		slugs:    map[string]bool{},
		nextID:   100,
	}
}

func (f *fakeActors) addPerson(id int64, public bool) {
	f.profiles[model.PersonRef(id)] = &model.ActorProfile{
		Actor:    model.Actor{Kind: model.ActorPerson, ID: id, OwnerID: id},
		Name:     fmt.Sprintf("person-%d", id),
		IsPublic: public,
	}
}

func (f *fakeActors) addBrand(id, sponsorID int64) {
	f.profiles[model.BrandRef(id)] = &model.ActorProfile{
		Actor:    model.Actor{Kind: model.ActorBrand, ID: id, OwnerID: sponsorID},
		Name:     fmt.Sprintf("brand-%d", id),
		IsPublic: true,
	}
}

func (f *fakeActors) addClub(id, trainerID int64) {
	f.profiles[model.ClubRef(id)] = &model.ActorProfile{
		Actor:    model.Actor{Kind: model.ActorClub, ID: id, OwnerID: trainerID},
		Name:     fmt.Sprintf("club-%d", id),
		IsPublic: true,
	}
}

func (f *fakeActors) followers(ref model.ActorRef) int {
	return f.profiles[ref].FollowerCount
}

func (f *fakeActors) Resolve(_ context.Context, ref model.ActorRef) (*model.ActorProfile, error) {
	p, ok := f.profiles[ref]
	if !ok {
		return nil, model.ErrActorNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeActors) IncrementFollowerCount(_ context.Context, _ *sqlx.Tx, ref model.ActorRef, delta int) error {
	p, ok := f.profiles[ref]
	if !ok {
		return model.ErrActorNotFound
	}
	if p.FollowerCount+delta < 0 {
		return model.ErrIntegrity
	}
	p.FollowerCount += delta
	return nil
}

func (f *fakeActors) CreateBrand(_ context.Context, b *model.Brand) error {
	if f.slugs[b.Slugname] {
		return model.ErrSlugnameTaken
	}
	f.slugs[b.Slugname] = true
	f.nextID++
	b.ID = f.nextID
	f.addBrand(b.ID, b.SponsorID)
	return nil
}

func (f *fakeActors) CreateClub(_ context.Context, c *model.Club) error {
	if f.slugs[c.Slugname] {
		return model.ErrSlugnameTaken
	}
	f.slugs[c.Slugname] = true
	f.nextID++
	c.ID = f.nextID
	f.addClub(c.ID, c.TrainerID)
	return nil
}

func (f *fakeActors) SetPhoto(_ context.Context, ref model.ActorRef, url, key string) (*string, error) {
	p, ok := f.profiles[ref]
	if !ok {
		return nil, model.ErrActorNotFound
	}
	var old *string
	if k, ok := f.photos[ref]; ok {
		old = &k
	}
	f.photos[ref] = key
	p.PhotoURL = &url
	return old, nil
}

type fakeUsers struct {
	actors    *fakeActors
	following map[int64]int
}

func newFakeUsers(actors *fakeActors) *fakeUsers {
	return &fakeUsers{actors: actors, following: map[int64]int{}}
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.actors.addPerson(u.ID, u.IsPublic)
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	p, ok := f.actors.profiles[model.PersonRef(id)]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &model.User{
		ID:             id,
		Username:       p.Name,
		IsPublic:       p.IsPublic,
		FollowerCount:  p.FollowerCount,
		FollowingCount: f.following[id],
	}, nil
}

func (f *fakeUsers) SetPrivacy(ctx context.Context, id int64, isPublic bool) (*model.User, error) {
	p, ok := f.actors.profiles[model.PersonRef(id)]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	p.IsPublic = isPublic
	return f.GetByID(ctx, id)
}

func (f *fakeUsers) IncrementFollowingCount(_ context.Context, _ *sqlx.Tx, userID int64, delta int) error {
	if f.following[userID]+delta < 0 {
		return model.ErrIntegrity
	}
	f.following[userID] += delta
	return nil
}

// -----------------------------------------------------------------------------
// follow graph
// -----------------------------------------------------------------------------

type edgeKey struct {
	follower int64
	target   model.ActorRef
}

type fakeFollows struct {
	edges map[edgeKey]time.Time
}

func newFakeFollows() *fakeFollows {
	return &fakeFollows{edges: map[edgeKey]time.Time{}}
}

func (f *fakeFollows) Exists(_ context.Context, followerID int64, target model.ActorRef) (bool, error) {
	_, ok := f.edges[edgeKey{followerID, target}]
	return ok, nil
}

func (f *fakeFollows) Create(_ context.Context, _ *sqlx.Tx, followerID int64, target model.ActorRef) error {
	if target.Kind == model.ActorPerson && target.ID == followerID {
		return model.ErrConflict
	}
	k := edgeKey{followerID, target}
	if _, ok := f.edges[k]; ok {
		return model.ErrConflict
	}
	f.edges[k] = time.Now()
	return nil
}

func (f *fakeFollows) Delete(_ context.Context, _ *sqlx.Tx, followerID int64, target model.ActorRef) (bool, error) {
	k := edgeKey{followerID, target}
	if _, ok := f.edges[k]; !ok {
		return false, nil
	}
	delete(f.edges, k)
	return true, nil
}

func (f *fakeFollows) FollowersOf(_ context.Context, target model.ActorRef, _ *model.Cursor, limit int) ([]model.UserSummary, *model.Cursor, error) {
	var out []model.UserSummary
	for k := range f.edges {
		if k.target == target && len(out) < limit {
			out = append(out, model.UserSummary{ID: k.follower})
		}
	}
	return out, nil, nil
}

func (f *fakeFollows) FollowingOf(_ context.Context, followerID int64, _ *model.Cursor, limit int) ([]model.FollowingEntry, *model.Cursor, error) {
	var out []model.FollowingEntry
	for k, at := range f.edges {
		if k.follower == followerID && len(out) < limit {
			out = append(out, model.FollowingEntry{Target: k.target, CreatedAt: at})
		}
	}
	return out, nil, nil
}

type fakeRequests struct {
	rows    map[int64]*model.FollowRequest
	nextID  int64
	follows *fakeFollows
}

func newFakeRequests(follows *fakeFollows) *fakeRequests {
	return &fakeRequests{rows: map[int64]*model.FollowRequest{}, follows: follows}
}

func samePair(r *model.FollowRequest, a, b int64) bool {
	return (r.RequesterID == a && r.RequestedID == b) || (r.RequesterID == b && r.RequestedID == a)
}

func (f *fakeRequests) Create(_ context.Context, _ *sqlx.Tx, requesterID, requestedID int64) (*model.FollowRequest, error) {
	if requesterID == requestedID {
		return nil, model.ErrSelfFollow
	}
	for _, r := range f.rows {
		if samePair(r, requesterID, requestedID) {
			return nil, model.ErrDuplicateRequest
		}
	}
	f.nextID++
	r := &model.FollowRequest{ID: f.nextID, RequesterID: requesterID, RequestedID: requestedID, CreatedAt: time.Now()}
	f.rows[r.ID] = r
	cp := *r
	return &cp, nil
}

func (f *fakeRequests) GetForUpdate(_ context.Context, _ *sqlx.Tx, id int64) (*model.FollowRequest, error) {
	r, ok := f.rows[id]
	if !ok {
		return nil, model.ErrFollowRequestNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRequests) MarkAccepted(_ context.Context, _ *sqlx.Tx, id int64) error {
	r, ok := f.rows[id]
	if !ok {
		return model.ErrFollowRequestNotFound
	}
	if r.Accepted {
		return model.ErrAlreadyAccepted
	}
	r.Accepted = true
	return nil
}

func (f *fakeRequests) Delete(_ context.Context, _ *sqlx.Tx, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return model.ErrFollowRequestNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeRequests) DeleteBetween(_ context.Context, _ *sqlx.Tx, a, b int64) (int64, error) {
	var n int64
	for id, r := range f.rows {
		if samePair(r, a, b) {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeRequests) DeleteStaleBetween(_ context.Context, _ *sqlx.Tx, a, b int64) (int64, error) {
	var n int64
	for id, r := range f.rows {
		if !samePair(r, a, b) || !r.Accepted {
			continue
		}
		if _, live := f.follows.edges[edgeKey{r.RequesterID, model.PersonRef(r.RequestedID)}]; live {
			continue
		}
		delete(f.rows, id)
		n++
	}
	return n, nil
}

func (f *fakeRequests) ListPending(_ context.Context, requestedID int64, _ *model.Cursor, limit int) ([]model.FollowRequest, *model.Cursor, error) {
	var out []model.FollowRequest
	for _, r := range f.rows {
		if r.RequestedID == requestedID && !r.Accepted && len(out) < limit {
			out = append(out, *r)
		}
	}
	return out, nil, nil
}

// -----------------------------------------------------------------------------
// content
// -----------------------------------------------------------------------------

type fakePosts struct {
	rows   map[int64]*model.Post
	nextID int64
	locked []int64
}

func newFakePosts() *fakePosts {
	return &fakePosts{rows: map[int64]*model.Post{}}
}

// add stores a post owned by author and returns its id.
func (f *fakePosts) add(author model.Actor, privacy model.Privacy) int64 {
	f.nextID++
	f.rows[f.nextID] = &model.Post{
		ID:           f.nextID,
		OwnerColumns: model.OwnerColumnsFor(author),
		About:        "hello",
		Privacy:      privacy,
		CreatedAt:    time.Now(),
	}
	return f.nextID
}

func (f *fakePosts) Create(_ context.Context, _ *sqlx.Tx, p *model.Post) error {
	if p.RepostOf != nil {
		if _, ok := f.rows[*p.RepostOf]; !ok {
			return model.ErrPostNotFound
		}
	}
	f.nextID++
	p.ID = f.nextID
	p.CreatedAt = time.Now()
	cp := *p
	f.rows[p.ID] = &cp
	return nil
}

func (f *fakePosts) GetByID(_ context.Context, id int64) (*model.Post, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePosts) Update(_ context.Context, p *model.Post) error {
	if _, ok := f.rows[p.ID]; !ok {
		return model.ErrPostNotFound
	}
	cp := *p
	f.rows[p.ID] = &cp
	return nil
}

func (f *fakePosts) Delete(_ context.Context, _ *sqlx.Tx, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return model.ErrPostNotFound
	}
	delete(f.rows, id)
	for _, p := range f.rows {
		if p.RepostOf != nil && *p.RepostOf == id {
			p.RepostOf = nil
		}
	}
	return nil
}

func ownedBy(o model.OwnerColumns, ref model.ActorRef) bool {
	var col *int64
	switch ref.Kind {
	case model.ActorPerson:
		col = o.UserID
	case model.ActorBrand:
		col = o.BrandID
	case model.ActorClub:
		col = o.ClubID
	}
	return col != nil && *col == ref.ID
}

func (f *fakePosts) ListByOwner(_ context.Context, owner model.ActorRef, _ *model.Cursor, limit int) ([]model.Post, *model.Cursor, error) {
	var out []model.Post
	for id := int64(1); id <= f.nextID; id++ {
		if p, ok := f.rows[id]; ok && ownedBy(p.OwnerColumns, owner) && len(out) < limit {
			out = append(out, *p)
		}
	}
	return out, nil, nil
}

func (f *fakePosts) LockForUpdate(_ context.Context, _ *sqlx.Tx, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return model.ErrPostNotFound
	}
	f.locked = append(f.locked, id)
	return nil
}

func (f *fakePosts) IncrementCounter(_ context.Context, _ *sqlx.Tx, id int64, counter string, delta int64) error {
	p, ok := f.rows[id]
	if !ok {
		return model.ErrPostNotFound
	}
	var c *int64
	switch counter {
	case "reactions":
		c = &p.Reactions
	case "comments":
		c = &p.Comments
	case "shares":
		c = &p.Shares
	default:
		return fmt.Errorf("unknown post counter %q", counter)
	}
	if *c+delta < 0 {
		return model.ErrIntegrity
	}
	*c += delta
	return nil
}

type fakeEvents struct {
	rows      map[int64]*model.Event
	nextID    int64
	locations map[int64]model.Location
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{rows: map[int64]*model.Event{}, locations: map[int64]model.Location{}}
}

func (f *fakeEvents) Create(_ context.Context, _ *sqlx.Tx, e *model.Event) error {
	f.nextID++
	e.ID = f.nextID
	e.CreatedAt = time.Now()
	cp := *e
	f.rows[e.ID] = &cp
	return nil
}

func (f *fakeEvents) GetByID(_ context.Context, id int64) (*model.Event, error) {
	e, ok := f.rows[id]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEvents) Update(_ context.Context, e *model.Event) error {
	if _, ok := f.rows[e.ID]; !ok {
		return model.ErrEventNotFound
	}
	cp := *e
	f.rows[e.ID] = &cp
	return nil
}

func (f *fakeEvents) Delete(_ context.Context, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return model.ErrEventNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeEvents) ListByOwner(_ context.Context, owner model.ActorRef, _ *model.Cursor, limit int) ([]model.Event, *model.Cursor, error) {
	var out []model.Event
	for id := int64(1); id <= f.nextID; id++ {
		if e, ok := f.rows[id]; ok && ownedBy(e.OwnerColumns, owner) && len(out) < limit {
			out = append(out, *e)
		}
	}
	return out, nil, nil
}

func (f *fakeEvents) SetLocation(_ context.Context, id int64, loc model.Location) error {
	if _, ok := f.rows[id]; !ok {
		return model.ErrEventNotFound
	}
	f.locations[id] = loc
	return nil
}

type fakeComments struct {
	rows   map[int64]*model.Comment
	nextID int64
}

func newFakeComments() *fakeComments {
	return &fakeComments{rows: map[int64]*model.Comment{}}
}

func (f *fakeComments) Create(_ context.Context, _ *sqlx.Tx, c *model.Comment) error {
	f.nextID++
	c.ID = f.nextID
	c.CreatedAt = time.Now()
	cp := *c
	f.rows[c.ID] = &cp
	return nil
}

func (f *fakeComments) GetByID(_ context.Context, id int64) (*model.Comment, error) {
	c, ok := f.rows[id]
	if !ok {
		return nil, model.ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeComments) UpdateText(_ context.Context, id int64, text string) (*model.Comment, error) {
	c, ok := f.rows[id]
	if !ok {
		return nil, model.ErrCommentNotFound
	}
	c.Text = text
	cp := *c
	return &cp, nil
}

func (f *fakeComments) DeleteWithReplies(_ context.Context, _ *sqlx.Tx, id int64) (int64, error) {
	var n int64
	for cid, c := range f.rows {
		if cid == id || (c.ParentID != nil && *c.ParentID == id) {
			delete(f.rows, cid)
			n++
		}
	}
	if n == 0 {
		return 0, model.ErrCommentNotFound
	}
	return n, nil
}

func (f *fakeComments) ListByPost(_ context.Context, postID int64, _ *model.Cursor, limit int) ([]model.Comment, *model.Cursor, error) {
	var out []model.Comment
	for id := int64(1); id <= f.nextID; id++ {
		if c, ok := f.rows[id]; ok && c.PostID == postID && len(out) < limit {
			out = append(out, *c)
		}
	}
	return out, nil, nil
}

type reactionKey struct {
	target model.ReactionTarget
	userID int64
}

type fakeReactions struct {
	edges    map[reactionKey]model.ReactionKind
	counters map[model.ReactionTarget]int64
	locks    int
}

func newFakeReactions() *fakeReactions {
	return &fakeReactions{
		edges:    map[reactionKey]model.ReactionKind{},
		counters: map[model.ReactionTarget]int64{},
	}
}

func (f *fakeReactions) count(t model.ReactionTarget) int {
	n := 0
	for k := range f.edges {
		if k.target == t {
			n++
		}
	}
	return n
}

func (f *fakeReactions) LockTarget(context.Context, *sqlx.Tx, model.ReactionTarget) error {
	f.locks++
	return nil
}

func (f *fakeReactions) Create(_ context.Context, _ *sqlx.Tx, t model.ReactionTarget, userID int64, kind model.ReactionKind) error {
	k := reactionKey{t, userID}
	if _, ok := f.edges[k]; ok {
		return model.ErrConflict
	}
	f.edges[k] = kind
	return nil
}

func (f *fakeReactions) Delete(_ context.Context, _ *sqlx.Tx, t model.ReactionTarget, userID int64) (bool, error) {
	k := reactionKey{t, userID}
	if _, ok := f.edges[k]; !ok {
		return false, nil
	}
	delete(f.edges, k)
	return true, nil
}

func (f *fakeReactions) AdjustCounter(_ context.Context, _ *sqlx.Tx, t model.ReactionTarget, delta int64) (int64, error) {
	if f.counters[t]+delta < 0 {
		return 0, model.ErrIntegrity
	}
	f.counters[t] += delta
	return f.counters[t], nil
}

func (f *fakeReactions) List(_ context.Context, t model.ReactionTarget, _ *model.Cursor, limit int) ([]model.Reaction, *model.Cursor, error) {
	var out []model.Reaction
	for k, kind := range f.edges {
		if k.target == t && len(out) < limit {
			out = append(out, model.Reaction{UserID: k.userID, Kind: kind})
		}
	}
	return out, nil, nil
}

// -----------------------------------------------------------------------------
// media
// -----------------------------------------------------------------------------

type fakeMedia struct {
	uploaded []string
	deleted  []string
}

func (f *fakeMedia) UploadPhoto(_ context.Context, kind model.ActorKind, _ multipart.File, _ *multipart.FileHeader) (*model.UploadResult, error) {
	key := fmt.Sprintf("%s/%d.jpg", model.PhotoFolder(kind), len(f.uploaded)+1)
	f.uploaded = append(f.uploaded, key)
	return &model.UploadResult{URL: "https://cdn.test/" + key, Key: key}, nil
}

func (f *fakeMedia) PresignPostUpload(context.Context, model.PresignPostUploadRequest) (*model.PresignPostUploadResponse, error) {
	return nil, model.ErrStorageUnavailable
}

func (f *fakeMedia) DeleteObject(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

// -----------------------------------------------------------------------------
// club memberships
// -----------------------------------------------------------------------------

type memberKey struct {
	club, user int64
}

type fakeMembers struct {
	invitations map[int64]*model.ClubInvitation
	active      map[memberKey]bool
	nextID      int64
}

func newFakeMembers() *fakeMembers {
	return &fakeMembers{invitations: map[int64]*model.ClubInvitation{}, active: map[memberKey]bool{}}
}

func (f *fakeMembers) Invite(_ context.Context, _ *sqlx.Tx, clubID, issuedBy, invitedID int64) (*model.ClubInvitation, error) {
	for _, inv := range f.invitations {
		if inv.ClubID == clubID && inv.InvitedID == invitedID {
			return nil, model.ErrInvitationExists
		}
	}
	f.nextID++
	inv := &model.ClubInvitation{ID: f.nextID, ClubID: clubID, IssuedBy: issuedBy, InvitedID: invitedID, CreatedAt: time.Now()}
	f.invitations[inv.ID] = inv
	k := memberKey{clubID, invitedID}
	if _, ok := f.active[k]; !ok {
		f.active[k] = false
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeMembers) GetInvitationForUpdate(_ context.Context, _ *sqlx.Tx, id int64) (*model.ClubInvitation, error) {
	inv, ok := f.invitations[id]
	if !ok {
		return nil, model.ErrInvitationNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeMembers) Confirm(_ context.Context, _ *sqlx.Tx, inv *model.ClubInvitation) error {
	stored, ok := f.invitations[inv.ID]
	if !ok {
		return model.ErrInvitationNotFound
	}
	if stored.Used {
		return model.ErrInvitationUsed
	}
	stored.Used = true
	f.active[memberKey{inv.ClubID, inv.InvitedID}] = true
	return nil
}

func (f *fakeMembers) RemoveMember(_ context.Context, _ *sqlx.Tx, clubID, userID int64) error {
	k := memberKey{clubID, userID}
	if _, ok := f.active[k]; !ok {
		return model.ErrMemberNotFound
	}
	delete(f.active, k)
	for id, inv := range f.invitations {
		if inv.ClubID == clubID && inv.InvitedID == userID {
			delete(f.invitations, id)
		}
	}
	return nil
}

func (f *fakeMembers) ListMembers(_ context.Context, clubID int64, _ *model.Cursor, limit int) ([]model.ClubMember, *model.Cursor, error) {
	var out []model.ClubMember
	for k, active := range f.active {
		if k.club == clubID && len(out) < limit {
			out = append(out, model.ClubMember{User: model.UserSummary{ID: k.user}, Active: active})
		}
	}
	return out, nil, nil
}

func (f *fakeMembers) PendingInvitations(_ context.Context, invitedID int64) ([]model.ClubInvitation, error) {
	var out []model.ClubInvitation
	for _, inv := range f.invitations {
		if inv.InvitedID == invitedID && !inv.Used {
			out = append(out, *inv)
		}
	}
	return out, nil
}
