package handlers

import (
	"net/http"
	"strings"

	"github.com/example/playlist-platform/internal/platform/analytics"
	"github.com/example/playlist-platform/internal/platform/api"
	"github.com/example/playlist-platform/internal/platform/httpserver"
)

type watchPositionResponse struct {
	URL      string  `json:"url"`
	LastTime float64 `json:"lastWatchTime"`
}

type saveWatchPositionRequest struct {
	Playlist string  `json:"playlist"`
	URL      string  `json:"url"`
	Seconds  float64 `json:"seconds"`
}

// WatchPosition serves the persisted resume position for ?url=; unknown
// videos report zero rather than an error.
func WatchPosition(st PlaylistStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		url := strings.TrimSpace(r.URL.Query().Get("url"))
		if url == "" {
			api.BadRequest(w, "VALIDATION", "Query parameter url is required", rid, nil)
			return
		}

		api.WriteJSON(w, http.StatusOK, watchPositionResponse{
			URL:      url,
			LastTime: st.WatchPosition(r.Context(), url),
		})
	}
}

// SaveWatchPosition persists a resume position best-effort and answers 202.
// A position report means the video is playing, so it emits a video_played
// event.
func SaveWatchPosition(st PlaylistStore, ap *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req saveWatchPositionRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		url := strings.TrimSpace(req.URL)
		if url == "" {
			api.BadRequest(w, "VALIDATION", "url is required", rid, nil)
			return
		}

		playlist := strings.TrimSpace(req.Playlist)
		st.SaveWatchPosition(r.Context(), playlist, url, req.Seconds)

		ap.Publish(analytics.SubjectVideoPlayed, "video_played", "", map[string]any{
			"playlist": playlist,
			"url":      url,
			"seconds":  req.Seconds,
		})
		w.WriteHeader(http.StatusAccepted)
	}
}
