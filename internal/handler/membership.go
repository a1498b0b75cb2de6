package handler

import (
	"net/http"

	"gaman_backend/internal/httputil"
	"gaman_backend/internal/model"
	"gaman_backend/internal/service"
)

type MembershipHandler struct {
	membershipService *service.MembershipService
}

func NewMembershipHandler(membershipService *service.MembershipService) *MembershipHandler {
	return &MembershipHandler{membershipService: membershipService}
}

// Members handles GET /clubs/{id}/members
func (h *MembershipHandler) Members(w http.ResponseWriter, r *http.Request) {
	clubID, ok := pathID(w, r, "id", "club")
	if !ok {
		return
	}
	cursor, limit, ok := page(w, r)
	if !ok {
		return
	}

	res, err := h.membershipService.Members(r.Context(), clubID, cursor, limit)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}

// Invite handles POST /clubs/{id}/invitations
// Only the club's trainer may invite.
func (h *MembershipHandler) Invite(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	clubID, ok := pathID(w, r, "id", "club")
	if !ok {
		return
	}
	var req model.InviteMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	inv, err := h.membershipService.Invite(r.Context(), clubID, userID, req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, inv)
}

// PendingInvitations handles GET /club-invitations
func (h *MembershipHandler) PendingInvitations(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	res, err := h.membershipService.PendingInvitations(r.Context(), userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}

// Confirm handles POST /club-invitations/{id}/confirm
// The body must be {"confirm": true}.
func (h *MembershipHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	invitationID, ok := pathID(w, r, "id", "invitation")
	if !ok {
		return
	}
	var req model.ConfirmInvitationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	inv, err := h.membershipService.Confirm(r.Context(), invitationID, userID, req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, inv)
}

// RemoveMember handles DELETE /clubs/{id}/members/{userID}
func (h *MembershipHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := requireUser(w, r)
	if !ok {
		return
	}
	clubID, ok := pathID(w, r, "id", "club")
	if !ok {
		return
	}
	memberID, ok := pathID(w, r, "userID", "member")
	if !ok {
		return
	}

	if err := h.membershipService.RemoveMember(r.Context(), clubID, requesterID, memberID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
