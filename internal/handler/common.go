package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gaman_backend/internal/httputil"
	"gaman_backend/internal/model"
	"gaman_backend/internal/service"
	"gaman_backend/internal/transport/http/middleware"
)

// maxJSONBody caps request bodies that carry JSON only.
const maxJSONBody = 1 << 20

func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return 0, false
	}
	return userID, true
}

// pathID parses a positive int64 URL parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name, what string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteBadRequest(w, "Invalid "+what+" ID")
		return 0, false
	}
	return id, true
}

// actorRef reads the {kind}/{id} pair used by every actor-addressed route.
func actorRef(w http.ResponseWriter, r *http.Request) (model.ActorRef, bool) {
	ref, err := model.ParseActorRef(chi.URLParam(r, "kind"), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return model.ActorRef{}, false
	}
	return ref, true
}

// page reads ?cursor= and ?limit=. A missing limit means the service default.
func page(w http.ResponseWriter, r *http.Request) (*model.Cursor, int, bool) {
	q := r.URL.Query()

	cursor, err := service.ParseCursor(q.Get("cursor"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid cursor")
		return nil, 0, false
	}

	limit := 0
	if l := q.Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			httputil.WriteBadRequest(w, "Invalid limit parameter")
			return nil, 0, false
		}
		limit = parsed
	}
	return cursor, limit, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// readReaction decodes {"reaction": "..."} for the three react routes.
func readReaction(w http.ResponseWriter, r *http.Request) (model.ReactionKind, bool) {
	var req model.ReactRequest
	if !decodeJSON(w, r, &req) {
		return "", false
	}
	return req.Reaction, true
}
