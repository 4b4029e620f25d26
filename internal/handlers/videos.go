package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/playlist-platform/internal/platform/analytics"
	"github.com/example/playlist-platform/internal/platform/api"
	"github.com/example/playlist-platform/internal/platform/httpserver"
	"github.com/example/playlist-platform/internal/store"
)

type videoListResponse struct {
	Items []store.Video `json:"items"`
}

type saveVideosRequest struct {
	Videos []store.Video `json:"videos"`
	Sort   string        `json:"sort"`
}

type updateVideoRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Duration    *string  `json:"duration"`
	Category    *string  `json:"category"`
	Creator     *string  `json:"creator"`
	LastTime    *float64 `json:"lastTime"`
}

type incrementViewsRequest struct {
	URL   string `json:"url"`
	Delta int64  `json:"delta"`
}

// ListVideos serves a playlist's videos with optional query-side filtering:
// ?category=, ?duration=short|long, ?sort=<mode>. Loading a playlist is the
// switch signal, so it emits a playlist_switched event.
func ListVideos(st PlaylistStore, ap *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		playlist := chi.URLParam(r, "playlist")

		videos, err := st.LoadVideos(r.Context(), playlist)
		if err != nil {
			writeStoreError(w, rid, err)
			return
		}
		ap.Publish(analytics.SubjectPlaylistSwitched, "playlist_switched", "", map[string]any{
			"playlist": playlist,
		})

		q := r.URL.Query()
		videos = store.FilterByCategory(videos, q.Get("category"))
		videos = store.FilterByDuration(videos, q.Get("duration"))
		if mode := q.Get("sort"); mode != "" {
			videos = store.SortVideos(videos, mode)
		}
		if videos == nil {
			videos = []store.Video{}
		}
		api.WriteJSON(w, http.StatusOK, videoListResponse{Items: videos})
	}
}

func AddVideo(st PlaylistStore, ap *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		playlist := chi.URLParam(r, "playlist")

		var v store.Video
		if !decodeJSON(w, r, rid, &v) {
			return
		}

		if err := st.AddVideo(r.Context(), playlist, v); err != nil {
			writeStoreError(w, rid, err)
			return
		}

		ap.Publish(analytics.SubjectVideoAdded, "video_added", "", map[string]any{
			"playlist": playlist,
			"url":      v.URL,
		})
		w.WriteHeader(http.StatusCreated)
	}
}

// SaveVideos replaces a playlist's videos wholesale, persisting a reorder or
// an applied sort mode.
func SaveVideos(st PlaylistStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		playlist := chi.URLParam(r, "playlist")

		var req saveVideosRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}

		if err := st.SaveVideos(r.Context(), playlist, req.Videos, req.Sort); err != nil {
			writeStoreError(w, rid, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func UpdateVideo(st PlaylistStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		playlist := chi.URLParam(r, "playlist")
		url := strings.TrimSpace(r.URL.Query().Get("url"))
		if url == "" {
			api.BadRequest(w, "VALIDATION", "Query parameter url is required", rid, nil)
			return
		}

		var req updateVideoRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}

		patch := store.VideoPatch{
			Title:       req.Title,
			Description: req.Description,
			Duration:    req.Duration,
			Category:    req.Category,
			Creator:     req.Creator,
			LastTime:    req.LastTime,
		}
		if err := st.UpdateVideo(r.Context(), playlist, url, patch); err != nil {
			writeStoreError(w, rid, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteVideo(st PlaylistStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		playlist := chi.URLParam(r, "playlist")
		url := strings.TrimSpace(r.URL.Query().Get("url"))
		if url == "" {
			api.BadRequest(w, "VALIDATION", "Query parameter url is required", rid, nil)
			return
		}

		if err := st.DeleteVideo(r.Context(), playlist, url); err != nil {
			writeStoreError(w, rid, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ViewCounts serves the playlist's per-video view table in one round trip.
func ViewCounts(st PlaylistStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		playlist := chi.URLParam(r, "playlist")

		counts, err := st.PreloadViewCounts(r.Context(), playlist)
		if err != nil {
			writeStoreError(w, rid, err)
			return
		}
		if counts == nil {
			counts = map[string]int64{}
		}
		api.WriteJSON(w, http.StatusOK, counts)
	}
}

// IncrementViews counts a completed viewing. View counters only ever grow,
// so a negative delta is a validation error. The write itself is
// best-effort, so the handler answers 202.
func IncrementViews(st PlaylistStore, ap *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		playlist := chi.URLParam(r, "playlist")

		var req incrementViewsRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}
		url := strings.TrimSpace(req.URL)
		if url == "" {
			api.BadRequest(w, "VALIDATION", "url is required", rid, nil)
			return
		}
		if req.Delta < 0 {
			api.BadRequest(w, "VALIDATION", "delta must not be negative", rid, nil)
			return
		}

		st.UpdateVideoViews(r.Context(), playlist, url, req.Delta)

		ap.Publish(analytics.SubjectVideoCompleted, "video_completed", "", map[string]any{
			"playlist": playlist,
			"url":      url,
		})
		w.WriteHeader(http.StatusAccepted)
	}
}
