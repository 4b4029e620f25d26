// Package handlers exposes the playlist store over HTTP. Routes follow the
// /v1 layout with reads behind user auth and mutations behind admin auth.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/playlist-platform/internal/platform/analytics"
	"github.com/example/playlist-platform/internal/platform/api"
	"github.com/example/playlist-platform/internal/platform/httpserver"
	"github.com/example/playlist-platform/internal/store"
)

// PlaylistStore is the store surface the handlers consume. *store.Store
// satisfies it.
type PlaylistStore interface {
	ListPlaylists(ctx context.Context) ([]store.Summary, error)
	CreatePlaylist(ctx context.Context, name, description string) error
	DeletePlaylist(ctx context.Context, name string) error
	LoadVideos(ctx context.Context, playlist string) ([]store.Video, error)
	SaveVideos(ctx context.Context, playlist string, videos []store.Video, sortMode string) error
	AddVideo(ctx context.Context, playlist string, v store.Video) error
	DeleteVideo(ctx context.Context, playlist, url string) error
	UpdateVideo(ctx context.Context, playlist, url string, patch store.VideoPatch) error
	UpdateVideoViews(ctx context.Context, playlist, url string, delta int64)
	PreloadViewCounts(ctx context.Context, playlist string) (map[string]int64, error)
	SaveWatchPosition(ctx context.Context, playlist, url string, seconds float64)
	WatchPosition(ctx context.Context, url string) float64
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type playlistListResponse struct {
	Items []store.Summary `json:"items"`
}

func ListPlaylists(st PlaylistStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		items, err := st.ListPlaylists(r.Context())
		if err != nil {
			writeStoreError(w, rid, err)
			return
		}
		if items == nil {
			items = []store.Summary{}
		}
		api.WriteJSON(w, http.StatusOK, playlistListResponse{Items: items})
	}
}

func CreatePlaylist(st PlaylistStore, ap *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req createPlaylistRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			api.BadRequest(w, "VALIDATION", "Playlist name is required", rid, nil)
			return
		}

		if err := st.CreatePlaylist(r.Context(), name, strings.TrimSpace(req.Description)); err != nil {
			writeStoreError(w, rid, err)
			return
		}

		ap.Publish(analytics.SubjectPlaylistCreated, "playlist_created", "", map[string]any{
			"playlist": name,
		})
		w.WriteHeader(http.StatusCreated)
	}
}

func DeletePlaylist(st PlaylistStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		name := chi.URLParam(r, "playlist")

		if err := st.DeletePlaylist(r.Context(), name); err != nil {
			writeStoreError(w, rid, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
