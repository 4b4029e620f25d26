package handlers

import (
	"github.com/go-chi/chi/v5"

	"github.com/example/playlist-platform/internal/platform/analytics"
	"github.com/example/playlist-platform/internal/platform/auth"
	"github.com/example/playlist-platform/internal/trends"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Store       PlaylistStore
	Trends      trends.Engine
	Analytics   *analytics.Publisher
	Verifier    auth.JWTVerifier
	Credentials auth.CredentialVerifier
	AuthState   *auth.State
}

// Routes mounts the /v1 API. Reads require a valid token; mutations require
// the admin role on top.
func Routes(r chi.Router, d Deps) {
	r.Post("/v1/auth/login", Login(d.Credentials, d.AuthState))
	r.Post("/v1/auth/logout", Logout(d.AuthState))

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(d.Verifier))

		r.Get("/v1/playlists", ListPlaylists(d.Store))
		r.Get("/v1/playlists/{playlist}/videos", ListVideos(d.Store, d.Analytics))
		r.Get("/v1/playlists/{playlist}/views", ViewCounts(d.Store))
		r.Post("/v1/playlists/{playlist}/views", IncrementViews(d.Store, d.Analytics))
		r.Get("/v1/watch", WatchPosition(d.Store))
		r.Put("/v1/watch", SaveWatchPosition(d.Store, d.Analytics))
		r.Post("/v1/trends", ComputeTrends(d.Trends))
		r.Get("/v1/media/resolve", ResolveSource())

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Post("/v1/playlists", CreatePlaylist(d.Store, d.Analytics))
			r.Delete("/v1/playlists/{playlist}", DeletePlaylist(d.Store))
			r.Post("/v1/playlists/{playlist}/videos", AddVideo(d.Store, d.Analytics))
			r.Put("/v1/playlists/{playlist}/videos", SaveVideos(d.Store))
			r.Patch("/v1/playlists/{playlist}/videos", UpdateVideo(d.Store))
			r.Delete("/v1/playlists/{playlist}/videos", DeleteVideo(d.Store))
		})
	})
}
