package handlers

import (
	"net/http"

	"github.com/example/playlist-platform/internal/platform/api"
	"github.com/example/playlist-platform/internal/platform/httpserver"
	"github.com/example/playlist-platform/internal/trends"
)

type trendsRequest struct {
	ViewData map[string][]int64 `json:"viewData"`
}

// ComputeTrends runs batch view-count statistics over client-supplied
// series, keyed by video URL.
func ComputeTrends(engine trends.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req trendsRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}

		out := engine.ComputeTrends(req.ViewData)
		if out == nil {
			out = map[string]trends.Stats{}
		}
		api.WriteJSON(w, http.StatusOK, out)
	}
}
