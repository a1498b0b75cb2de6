package handler

import (
	"net/http"

	"gaman_backend/internal/httputil"
	"gaman_backend/internal/model"
	"gaman_backend/internal/service"
)

type EventHandler struct {
	eventService    *service.EventService
	reactionService *service.ReactionService
}

func NewEventHandler(eventService *service.EventService, reactionService *service.ReactionService) *EventHandler {
	return &EventHandler{
		eventService:    eventService,
		reactionService: reactionService,
	}
}

// Create handles POST /events
// Dates are YYYY-MM-DD. The place is geocoded later by the worker.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreateEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	event, err := h.eventService.Create(r.Context(), userID, req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, event)
}

// GetByID handles GET /events/{id}
func (h *EventHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "id", "event")
	if !ok {
		return
	}

	event, err := h.eventService.Get(r.Context(), userID, eventID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, event)
}

// Update handles PATCH /events/{id}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "id", "event")
	if !ok {
		return
	}

	var req model.UpdateEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	event, err := h.eventService.Update(r.Context(), userID, eventID, req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, event)
}

// Delete handles DELETE /events/{id}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "id", "event")
	if !ok {
		return
	}

	if err := h.eventService.Delete(r.Context(), userID, eventID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Event deleted successfully",
	})
}

// React handles POST /events/{id}/reactions
func (h *EventHandler) React(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "id", "event")
	if !ok {
		return
	}
	kind, ok := readReaction(w, r)
	if !ok {
		return
	}

	res, err := h.reactionService.ToggleEventReaction(r.Context(), userID, eventID, kind)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}

// ListByOwner handles GET /actors/{kind}/{id}/events
func (h *EventHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
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

	res, err := h.eventService.ListByOwner(r.Context(), userID, owner, cursor, limit)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}
