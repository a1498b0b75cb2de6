package handler

import (
	"net/http"

	"gaman_backend/internal/httputil"
	"gaman_backend/internal/model"
	"gaman_backend/internal/service"
)

type CommentHandler struct {
	commentService  *service.CommentService
	reactionService *service.ReactionService
}

func NewCommentHandler(commentService *service.CommentService, reactionService *service.ReactionService) *CommentHandler {
	return &CommentHandler{
		commentService:  commentService,
		reactionService: reactionService,
	}
}

// Create handles POST /posts/{id}/comments
// A parent_id turns the comment into a reply.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "post")
	if !ok {
		return
	}

	var req model.CreateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.commentService.Add(r.Context(), postID, userID, req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// List handles GET /posts/{id}/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
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

	res, err := h.commentService.ListByPost(r.Context(), userID, postID, cursor, limit)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}

// Update handles PATCH /comments/{id}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "id", "comment")
	if !ok {
		return
	}

	var req model.UpdateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.commentService.Update(r.Context(), commentID, userID, req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, comment)
}

// Delete handles DELETE /comments/{id}
// Removing a principal comment removes its replies too.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "id", "comment")
	if !ok {
		return
	}

	res, err := h.commentService.Remove(r.Context(), commentID, userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}

// React handles POST /comments/{id}/reactions
func (h *CommentHandler) React(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "id", "comment")
	if !ok {
		return
	}
	kind, ok := readReaction(w, r)
	if !ok {
		return
	}

	res, err := h.reactionService.ToggleCommentReaction(r.Context(), userID, commentID, kind)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}
