package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/logger"
)

// errorResponse is the JSON body for all error replies.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to encode response: %v", err)
	}
}

// writeError maps domain errors to HTTP status codes. Unrecognized
// errors become a generic 500 without leaking internals.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrJobNotFound),
		errors.Is(err, domain.ErrUnknownStream),
		errors.Is(err, domain.ErrUnknownSourceStream):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})

	case errors.Is(err, domain.ErrSyncConflict),
		errors.Is(err, domain.ErrJobAlreadyDone),
		errors.Is(err, domain.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})

	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnsupportedType),
		errors.Is(err, domain.ErrUnsupportedMode),
		errors.Is(err, domain.ErrStreamDisabled),
		errors.Is(err, domain.ErrSourcePaused):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})

	default:
		logger.Warn("Internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return domain.ErrInvalidInput
	}
	return nil
}
