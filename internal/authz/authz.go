// Package authz decides whether a person may read, change or engage with a
// post or event. Decisions are returned, never raised; callers turn a deny
// into model.ErrPermissionDenied before touching any state.
package authz

import (
	"context"
	"fmt"

	"gaman_backend/internal/identity"
	"gaman_backend/internal/model"
)

// EdgeChecker reports whether followerID follows target.
type EdgeChecker interface {
	Exists(ctx context.Context, followerID int64, target model.ActorRef) (bool, error)
}

type Operation string

const (
	OpView    Operation = "view"
	OpUpdate  Operation = "update"
	OpDelete  Operation = "delete"
	OpComment Operation = "comment"
	OpReact   Operation = "react"
	OpShare   Operation = "share"
)

// Rule is the decision function for one operation.
type Rule func(a *Authorizer, ctx context.Context, requesterID int64, item model.ContentItem) (bool, error)

// Rules maps every guarded operation to its decision function.
var Rules = map[Operation]Rule{
	OpView:    (*Authorizer).CanView,
	OpComment: (*Authorizer).CanEngage,
	OpReact:   (*Authorizer).CanEngage,
	OpShare:   (*Authorizer).CanEngage,
	OpUpdate:  mutateRule,
	OpDelete:  mutateRule,
}

func mutateRule(a *Authorizer, _ context.Context, requesterID int64, item model.ContentItem) (bool, error) {
	return a.CanMutate(requesterID, item)
}

type Authorizer struct {
	edges EdgeChecker
}

func New(edges EdgeChecker) *Authorizer {
	return &Authorizer{edges: edges}
}

// CanView allows public content, the accountable person, and followers of the
// owning actor itself. Following a club's trainer does not open the club's
// private content.
func (a *Authorizer) CanView(ctx context.Context, requesterID int64, item model.ContentItem) (bool, error) {
	owner, err := identity.OwnerOf(item.Owner)
	if err != nil {
		return false, err
	}

	if item.Privacy == model.PrivacyPublic {
		return true, nil
	}
	if requesterID == identity.Normalize(owner) {
		return true, nil
	}
	if item.Privacy == model.PrivacyPrivate {
		ok, err := a.edges.Exists(ctx, requesterID, owner.Ref())
		if err != nil {
			return false, fmt.Errorf("check follow edge: %w", err)
		}
		return ok, nil
	}
	return false, nil
}

// CanMutate allows only the accountable person.
func (a *Authorizer) CanMutate(requesterID int64, item model.ContentItem) (bool, error) {
	owner, err := identity.NormalizedOwner(item.Owner)
	if err != nil {
		return false, err
	}
	return requesterID == owner, nil
}

// CanEngage gates comments, reactions and shares the same way as reads.
func (a *Authorizer) CanEngage(ctx context.Context, requesterID int64, item model.ContentItem) (bool, error) {
	return a.CanView(ctx, requesterID, item)
}

// Authorize evaluates the rule for op and maps a deny to model.ErrPermissionDenied.
func (a *Authorizer) Authorize(ctx context.Context, op Operation, requesterID int64, item model.ContentItem) error {
	rule, ok := Rules[op]
	if !ok {
		return fmt.Errorf("authz: no rule for operation %q", op)
	}
	allowed, err := rule(a, ctx, requesterID, item)
	if err != nil {
		return err
	}
	if !allowed {
		return model.ErrPermissionDenied
	}
	return nil
}

// CanRemoveComment allows the comment's author or the accountable person of
// the post it belongs to.
func CanRemoveComment(requesterID int64, comment *model.Comment, post model.ContentItem) (bool, error) {
	if requesterID == comment.AuthorID {
		return true, nil
	}
	owner, err := identity.NormalizedOwner(post.Owner)
	if err != nil {
		return false, err
	}
	return requesterID == owner, nil
}

// Visible runs CanView over items, consulting the follow graph at most once
// per owning actor.
func (a *Authorizer) Visible(ctx context.Context, requesterID int64, items []model.ContentItem) ([]bool, error) {
	out := make([]bool, len(items))
	follows := make(map[model.ActorRef]bool)

	for i, item := range items {
		owner, err := identity.OwnerOf(item.Owner)
		if err != nil {
			return nil, err
		}
		switch {
		case item.Privacy == model.PrivacyPublic:
			out[i] = true
		case requesterID == identity.Normalize(owner):
			out[i] = true
		case item.Privacy == model.PrivacyPrivate:
			ok, seen := follows[owner.Ref()]
			if !seen {
				ok, err = a.edges.Exists(ctx, requesterID, owner.Ref())
				if err != nil {
					return nil, fmt.Errorf("check follow edge: %w", err)
				}
				follows[owner.Ref()] = ok
			}
			out[i] = ok
		}
	}
	return out, nil
}
