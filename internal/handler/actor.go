package handler

import (
	"errors"
	"net/http"

	"gaman_backend/internal/httputil"
	"gaman_backend/internal/model"
	"gaman_backend/internal/service"
)

// multipart overhead on top of the photo itself
const photoFormSlack = 512 * 1024

type ActorHandler struct {
	actorService *service.ActorService
}

func NewActorHandler(actorService *service.ActorService) *ActorHandler {
	return &ActorHandler{actorService: actorService}
}

// Profile handles GET /actors/{kind}/{id}
func (h *ActorHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ref, ok := actorRef(w, r)
	if !ok {
		return
	}

	profile, err := h.actorService.Profile(r.Context(), ref)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

// SetPrivacy handles PATCH /me/privacy
// Only people have a privacy switch; brands and clubs are always public.
func (h *ActorHandler) SetPrivacy(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.UpdatePrivacyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsPublic == nil {
		httputil.WriteBadRequest(w, "is_public is required")
		return
	}

	user, err := h.actorService.SetPrivacy(r.Context(), userID, *req.IsPublic)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// CreateBrand handles POST /brands
// The authenticated person becomes the brand's sponsor.
func (h *ActorHandler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreateOrganizationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	brand, err := h.actorService.CreateBrand(r.Context(), userID, req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, brand)
}

// CreateClub handles POST /clubs
// The authenticated person becomes the club's trainer.
func (h *ActorHandler) CreateClub(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreateOrganizationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	club, err := h.actorService.CreateClub(r.Context(), userID, req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, club)
}

// UploadPhoto handles POST /actors/{kind}/{id}/photo
// Expects multipart/form-data with a "photo" field.
func (h *ActorHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	ref, ok := actorRef(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, model.MaxPhotoSizeBytes+photoFormSlack)
	if err := r.ParseMultipartForm(model.MaxPhotoSizeBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Photo exceeds 5MB limit")
			return
		}
		httputil.WriteBadRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		httputil.WriteBadRequest(w, "photo file is required")
		return
	}
	defer file.Close()

	res, err := h.actorService.UploadPhoto(r.Context(), userID, ref, file, header)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}
