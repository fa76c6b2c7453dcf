package common

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithServiceError writes err with the status HTTPStatusFromError picks.
// Server-side failures are logged and replaced by a generic message so
// internals never reach the client.
func RespondWithServiceError(w http.ResponseWriter, err error) {
	code := HTTPStatusFromError(err)
	if code >= http.StatusInternalServerError && code != http.StatusServiceUnavailable {
		log.Error().Err(err).Int("status", code).Msg("request failed")
		RespondWithError(w, code, ErrInternalServer.Error())
		return
	}
	resp := ErrorResponse{Error: err.Error()}
	var verr *ValidationError
	if asValidationError(err, &verr) {
		resp.Details = verr.Fields
	}
	RespondWithJSON(w, code, resp)
}

func RespondWithMessage(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, MessageResponse{Message: message})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// MaxRequestBodyBytes bounds JSON request bodies. A full problem document
// with its test cases fits well below it.
const MaxRequestBodyBytes = 2 << 20

// DecodeJSON decodes the request body into dst. Malformed JSON is
// ErrBadRequest; a body over MaxRequestBodyBytes is ErrPayloadTooLarge.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return Errorf("empty request body: %w", ErrBadRequest)
	}
	body := http.MaxBytesReader(w, r.Body, MaxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return Errorf("limit is %d bytes: %w", tooLarge.Limit, ErrPayloadTooLarge)
		}
		return Errorf("invalid request payload: %v: %w", err, ErrBadRequest)
	}
	return nil
}
