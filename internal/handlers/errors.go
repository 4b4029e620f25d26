package handlers

import (
	"errors"
	"net/http"

	"github.com/example/playlist-platform/internal/platform/api"
	"github.com/example/playlist-platform/internal/store"
)

// writeStoreError maps the store's error taxonomy onto HTTP responses.
func writeStoreError(w http.ResponseWriter, requestID string, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		api.BadRequest(w, "VALIDATION", err.Error(), requestID, nil)
	case errors.Is(err, store.ErrDuplicateName):
		api.Conflict(w, "DUPLICATE_NAME", err.Error(), requestID, nil)
	case errors.Is(err, store.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", err.Error(), requestID)
	case errors.Is(err, store.ErrPermissionDenied):
		api.Forbidden(w, "PERMISSION_DENIED", err.Error(), requestID)
	case errors.Is(err, store.ErrRemoteUnavailable):
		api.Unavailable(w, "REMOTE_UNAVAILABLE", "Remote store unavailable, try again", requestID)
	default:
		api.Internal(w, requestID)
	}
}
