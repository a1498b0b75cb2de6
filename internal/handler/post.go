package handler

import (
	"net/http"

	"gaman_backend/internal/httputil"
	"gaman_backend/internal/model"
	"gaman_backend/internal/service"
)

type PostHandler struct {
	postService     *service.PostService
	reactionService *service.ReactionService
}

func NewPostHandler(postService *service.PostService, reactionService *service.ReactionService) *PostHandler {
	return &PostHandler{
		postService:     postService,
		reactionService: reactionService,
	}
}

// Create handles POST /posts
// The body's "as" field lets a sponsor or trainer post as their brand or club.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// GetByID handles GET /posts/{id}
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "post")
	if !ok {
		return
	}

	post, err := h.postService.Get(r.Context(), userID, postID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Update handles PATCH /posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "post")
	if !ok {
		return
	}

	var req model.UpdatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.postService.Update(r.Context(), userID, postID, req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "post")
	if !ok {
		return
	}

	if err := h.postService.Delete(r.Context(), userID, postID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Post deleted successfully",
	})
}

// Share handles POST /posts/{id}/share
// Sharing a repost shares the original it points at.
func (h *PostHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "post")
	if !ok {
		return
	}

	var req model.SharePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.postService.Share(r.Context(), userID, postID, req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// React handles POST /posts/{id}/reactions
// Sending a reaction again removes it.
func (h *PostHandler) React(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "post")
	if !ok {
		return
	}
	kind, ok := readReaction(w, r)
	if !ok {
		return
	}

	res, err := h.reactionService.TogglePostReaction(r.Context(), userID, postID, kind)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}

// Reactions handles GET /posts/{id}/reactions
func (h *PostHandler) Reactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "post")
	if !ok {
		return
	}
	cursor, limit, ok := page(w, r)
	if !ok {
		return
	}

	res, err := h.reactionService.ListPostReactions(r.Context(), userID, postID, cursor, limit)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}

// ListByOwner handles GET /actors/{kind}/{id}/posts
// Posts the viewer may not see are left out of the page.
func (h *PostHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	owner, ok := actorRef(w, r)
	if !ok {
		return
	}
	cursor, limit, ok := page(w, r)
	if !ok {
		return
	}

	res, err := h.postService.ListByOwner(r.Context(), userID, owner, cursor, limit)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}
