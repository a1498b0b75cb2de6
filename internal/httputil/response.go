package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"gaman_backend/internal/model"
)

// Error codes
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeUnavailable  = "SERVICE_UNAVAILABLE"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every error: {"error": {"code": "...", "message": "..."}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Warn().Err(err).Msg("encode response body")
		}
	}
}

func WriteError(w http.ResponseWriter, status int, code string, message string) {
	WriteJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func WriteBadRequestWithCode(w http.ResponseWriter, code string, message string) {
	WriteError(w, http.StatusBadRequest, code, message)
}

func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, ErrCodeConflict, message)
}

func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

var badRequest = []error{
	model.ErrSelfFollow,
	model.ErrInvalidActorKind,
	model.ErrInvalidActorID,
	model.ErrInvalidSlugname,
	model.ErrInvalidOrgName,
	model.ErrInvalidPrivacy,
	model.ErrInvalidFeeling,
	model.ErrLocationTooLong,
	model.ErrTooManyMedia,
	model.ErrEmptyPost,
	model.ErrContentRequired,
	model.ErrContentTooLong,
	model.ErrParentOtherPost,
	model.ErrInvalidReaction,
	model.ErrInvalidEventTitle,
	model.ErrEventDescTooLong,
	model.ErrInvalidEventDate,
	model.ErrEventDatesOrder,
	model.ErrInvalidEventPlace,
	model.ErrInvitationNotConfirmed,
}

var notFound = []error{
	model.ErrUserNotFound,
	model.ErrActorNotFound,
	model.ErrFollowRequestNotFound,
	model.ErrFollowNotFound,
	model.ErrPostNotFound,
	model.ErrCommentNotFound,
	model.ErrEventNotFound,
	model.ErrInvitationNotFound,
	model.ErrMemberNotFound,
}

var conflict = []error{
	model.ErrDuplicateRequest,
	model.ErrAlreadyAccepted,
	model.ErrSlugnameTaken,
	model.ErrInvitationExists,
	model.ErrInvitationUsed,
	model.ErrConflict,
}

func matches(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// WriteDomainError maps a service error to its status. Anything unknown is
// logged and reported as a 500 without leaking the cause.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrPermissionDenied):
		WriteForbidden(w, err.Error())
	case errors.Is(err, model.ErrFileTooLarge):
		WriteBadRequestWithCode(w, model.CodeFileTooLarge, err.Error())
	case errors.Is(err, model.ErrInvalidImageType):
		WriteBadRequestWithCode(w, model.CodeInvalidImageType, err.Error())
	case errors.Is(err, model.ErrStorageUnavailable):
		WriteError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
	case matches(err, badRequest):
		WriteBadRequest(w, err.Error())
	case matches(err, notFound):
		WriteNotFound(w, err.Error())
	case matches(err, conflict):
		WriteConflict(w, err.Error())
	default:
		log.Error().Err(err).Msg("unhandled service error")
		WriteInternalError(w, "internal server error")
	}
}
