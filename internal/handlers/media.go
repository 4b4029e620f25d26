package handlers

import (
	"net/http"
	"strings"

	"github.com/example/playlist-platform/internal/media"
	"github.com/example/playlist-platform/internal/platform/api"
	"github.com/example/playlist-platform/internal/platform/httpserver"
)

type resolveSourceResponse struct {
	Kind media.SourceKind `json:"kind"`
	Src  string           `json:"src"`
}

// ResolveSource classifies ?url= into a playback source: progressive, HLS,
// DASH, or a YouTube embed id.
func ResolveSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		url := strings.TrimSpace(r.URL.Query().Get("url"))
		if url == "" {
			api.BadRequest(w, "VALIDATION", "Query parameter url is required", rid, nil)
			return
		}

		src := media.ResolveSource(url)
		api.WriteJSON(w, http.StatusOK, resolveSourceResponse{Kind: src.Kind, Src: src.Src})
	}
}
