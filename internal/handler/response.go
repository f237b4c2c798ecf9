package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/parliament/internal/auth"
	"github.com/freeeve/parliament/internal/logger"
	"github.com/freeeve/parliament/internal/service"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service errors onto HTTP statuses. Unknown errors
// are logged and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrElectionNotFound),
		errors.Is(err, service.ErrPartyNotFound),
		errors.Is(err, service.ErrAllianceNotFound),
		errors.Is(err, service.ErrSeatNotFound),
		errors.Is(err, service.ErrDraftNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrStaleDraft),
		errors.Is(err, service.ErrStaleSnapshot),
		errors.Is(err, service.ErrCommitInProgress),
		errors.Is(err, service.ErrClaimConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		l := logger.ForRequest(r.Context())
		l.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads and decodes JSON from a request body.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// actorFrom builds the service actor from the authenticated identity.
func actorFrom(r *http.Request) service.Actor {
	id := auth.IdentityFromContext(r.Context())
	return service.Actor{UserID: id.UserID, PartyID: id.PartyID}
}
