package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/example/playlist-platform/internal/platform/api"
	"github.com/example/playlist-platform/internal/platform/auth"
	"github.com/example/playlist-platform/internal/platform/httpserver"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges the admin credentials for a signed token and flips the
// auth state to signed-in.
func Login(cv auth.CredentialVerifier, state *auth.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		if !cv.Enabled() {
			api.Unavailable(w, "AUTH_DISABLED", "Credential login is not configured", rid)
			return
		}

		var req loginRequest
		if !decodeJSON(w, r, rid, &req) {
			return
		}

		token, err := cv.IssueToken(strings.TrimSpace(req.Username), req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrBadCredentials) {
				api.Unauthorized(w, "BAD_CREDENTIALS", "Invalid username or password", rid)
				return
			}
			api.Internal(w, rid)
			return
		}

		state.SignIn(strings.TrimSpace(req.Username))
		api.WriteJSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "Bearer"})
	}
}

// Logout flips the auth state to signed-out, which clears the local caches
// through the state's subscribers.
func Logout(state *auth.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state.SignOut()
		w.WriteHeader(http.StatusNoContent)
	}
}
