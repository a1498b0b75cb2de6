package handler

import (
	"net/http"

	"gaman_backend/internal/httputil"
	"gaman_backend/internal/service"
)

type FollowHandler struct {
	followService *service.FollowService
}

func NewFollowHandler(followService *service.FollowService) *FollowHandler {
	return &FollowHandler{followService: followService}
}

// Toggle handles POST /actors/{kind}/{id}/follow
// Follows a public target, requests a private person, or unfollows when an
// edge already exists.
func (h *FollowHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	target, ok := actorRef(w, r)
	if !ok {
		return
	}

	res, err := h.followService.RequestOrFollow(r.Context(), userID, target)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}

// Status handles GET /actors/{kind}/{id}/follow
func (h *FollowHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	target, ok := actorRef(w, r)
	if !ok {
		return
	}

	following, err := h.followService.IsFollowing(r.Context(), userID, target)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"following": following})
}

// Followers handles GET /actors/{kind}/{id}/followers
func (h *FollowHandler) Followers(w http.ResponseWriter, r *http.Request) {
	target, ok := actorRef(w, r)
	if !ok {
		return
	}
	cursor, limit, ok := page(w, r)
	if !ok {
		return
	}

	res, err := h.followService.Followers(r.Context(), target, cursor, limit)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}

// Following handles GET /users/{id}/following
// Lists every actor, of any kind, the person follows.
func (h *FollowHandler) Following(w http.ResponseWriter, r *http.Request) {
	personID, ok := pathID(w, r, "id", "user")
	if !ok {
		return
	}
	cursor, limit, ok := page(w, r)
	if !ok {
		return
	}

	res, err := h.followService.Following(r.Context(), personID, cursor, limit)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}

// PendingRequests handles GET /follow-requests
// Returns requests awaiting the authenticated person's decision.
func (h *FollowHandler) PendingRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	cursor, limit, ok := page(w, r)
	if !ok {
		return
	}

	res, err := h.followService.PendingRequests(r.Context(), userID, cursor, limit)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}

// Accept handles POST /follow-requests/{id}/accept
func (h *FollowHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "id", "follow request")
	if !ok {
		return
	}

	req, err := h.followService.Accept(r.Context(), requestID, userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, req)
}

// Withdraw handles DELETE /follow-requests/{id}
// Either party may drop a request while it is pending.
func (h *FollowHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "id", "follow request")
	if !ok {
		return
	}

	if err := h.followService.Withdraw(r.Context(), requestID, userID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveFollower handles DELETE /actors/{kind}/{id}/followers/{followerID}
// The target's accountable person drops one of its followers.
func (h *FollowHandler) RemoveFollower(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	target, ok := actorRef(w, r)
	if !ok {
		return
	}
	followerID, ok := pathID(w, r, "followerID", "follower")
	if !ok {
		return
	}

	if err := h.followService.RemoveFollower(r.Context(), userID, target, followerID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
