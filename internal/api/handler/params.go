package handler

import (
	"net/http"

	"leetlab/internal/common"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// uuidParam returns the named path parameter in canonical form. A value
// that is not a UUID cannot name a stored row, so it reads as not found.
func uuidParam(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", common.Errorf("%s %q: %w", name, raw, common.ErrNotFound)
	}
	return id.String(), nil
}

// optionalUUIDQuery reads an optional UUID query filter. Empty means no
// filter; anything else must parse.
func optionalUUIDQuery(r *http.Request, name string) (string, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return "", nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", common.Errorf("invalid %s %q: %w", name, raw, common.ErrBadRequest)
	}
	return id.String(), nil
}
