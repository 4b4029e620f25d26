package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/example/playlist-platform/internal/media"
	"github.com/example/playlist-platform/internal/platform/auth"
	"github.com/example/playlist-platform/internal/store"
	"github.com/example/playlist-platform/internal/trends"
)

// ─── stub store ──────────────────────────────────────────────────────────────

type stubStore struct {
	summaries []store.Summary
	videos    []store.Video
	counts    map[string]int64
	position  float64
	err       error

	created     []string
	deleted     []string
	added       []store.Video
	saved       []store.Video
	savedSort   string
	viewDeltas  map[string]int64
	savedPlay   string
	savedURL    string
	savedSecs   float64
	deletedURLs []string
	patched     map[string]store.VideoPatch
}

func newStubStore() *stubStore {
	return &stubStore{
		counts:     map[string]int64{},
		viewDeltas: map[string]int64{},
		patched:    map[string]store.VideoPatch{},
	}
}

func (s *stubStore) ListPlaylists(context.Context) ([]store.Summary, error) {
	return s.summaries, s.err
}

func (s *stubStore) CreatePlaylist(_ context.Context, name, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, name)
	return nil
}

func (s *stubStore) DeletePlaylist(_ context.Context, name string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, name)
	return nil
}

func (s *stubStore) LoadVideos(context.Context, string) ([]store.Video, error) {
	return s.videos, s.err
}

func (s *stubStore) SaveVideos(_ context.Context, _ string, videos []store.Video, sortMode string) error {
	if s.err != nil {
		return s.err
	}
	s.saved = videos
	s.savedSort = sortMode
	return nil
}

func (s *stubStore) AddVideo(_ context.Context, _ string, v store.Video) error {
	if s.err != nil {
		return s.err
	}
	s.added = append(s.added, v)
	return nil
}

func (s *stubStore) DeleteVideo(_ context.Context, _, url string) error {
	if s.err != nil {
		return s.err
	}
	s.deletedURLs = append(s.deletedURLs, url)
	return nil
}

func (s *stubStore) UpdateVideo(_ context.Context, _, url string, patch store.VideoPatch) error {
	if s.err != nil {
		return s.err
	}
	s.patched[url] = patch
	return nil
}

func (s *stubStore) UpdateVideoViews(_ context.Context, _, url string, delta int64) {
	if delta < 1 {
		delta = 1
	}
	s.viewDeltas[url] += delta
}

func (s *stubStore) PreloadViewCounts(context.Context, string) (map[string]int64, error) {
	return s.counts, s.err
}

func (s *stubStore) SaveWatchPosition(_ context.Context, playlist, url string, seconds float64) {
	s.savedPlay, s.savedURL, s.savedSecs = playlist, url, seconds
}

func (s *stubStore) WatchPosition(context.Context, string) float64 {
	return s.position
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// playlistReq builds a request with the playlist chi param set.
func playlistReq(method, target, playlist string, body any) *http.Request {
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, target, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if playlist != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("playlist", playlist)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}
	return req
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

// ─── playlists ───────────────────────────────────────────────────────────────

func TestListPlaylists_OK(t *testing.T) {
	stub := newStubStore()
	stub.summaries = []store.Summary{{Name: "watch later", VideoCount: 2}}

	rr := httptest.NewRecorder()
	ListPlaylists(stub).ServeHTTP(rr, playlistReq(http.MethodGet, "/v1/playlists", "", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody[playlistListResponse](t, rr)
	if len(resp.Items) != 1 || resp.Items[0].Name != "watch later" {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
}

func TestListPlaylists_EmptyIsArray(t *testing.T) {
	rr := httptest.NewRecorder()
	ListPlaylists(newStubStore()).ServeHTTP(rr, playlistReq(http.MethodGet, "/v1/playlists", "", nil))

	if body := rr.Body.String(); !bytes.Contains([]byte(body), []byte(`"items":[]`)) {
		t.Fatalf("expected empty items array, got %s", body)
	}
}

func TestListPlaylists_Unavailable(t *testing.T) {
	stub := newStubStore()
	stub.err = store.ErrRemoteUnavailable

	rr := httptest.NewRecorder()
	ListPlaylists(stub).ServeHTTP(rr, playlistReq(http.MethodGet, "/v1/playlists", "", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestCreatePlaylist_OK(t *testing.T) {
	stub := newStubStore()
	rr := httptest.NewRecorder()
	req := playlistReq(http.MethodPost, "/v1/playlists", "", createPlaylistRequest{Name: "music"})
	CreatePlaylist(stub, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(stub.created) != 1 || stub.created[0] != "music" {
		t.Fatalf("created = %v", stub.created)
	}
}

func TestCreatePlaylist_BlankName(t *testing.T) {
	rr := httptest.NewRecorder()
	req := playlistReq(http.MethodPost, "/v1/playlists", "", createPlaylistRequest{Name: "   "})
	CreatePlaylist(newStubStore(), nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCreatePlaylist_Duplicate(t *testing.T) {
	stub := newStubStore()
	stub.err = store.ErrDuplicateName

	rr := httptest.NewRecorder()
	req := playlistReq(http.MethodPost, "/v1/playlists", "", createPlaylistRequest{Name: "music"})
	CreatePlaylist(stub, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestDeletePlaylist_OK(t *testing.T) {
	stub := newStubStore()
	rr := httptest.NewRecorder()
	DeletePlaylist(stub).ServeHTTP(rr, playlistReq(http.MethodDelete, "/v1/playlists/music", "music", nil))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if len(stub.deleted) != 1 || stub.deleted[0] != "music" {
		t.Fatalf("deleted = %v", stub.deleted)
	}
}

// ─── videos ──────────────────────────────────────────────────────────────────

func TestListVideos_SortAndFilter(t *testing.T) {
	stub := newStubStore()
	stub.videos = []store.Video{
		{URL: "https://v/b", Title: "b", Category: "Music", Duration: "02:00"},
		{URL: "https://v/a", Title: "a", Category: "Music", Duration: "03:00"},
		{URL: "https://v/c", Title: "c", Category: "Gaming", Duration: "10:00"},
	}

	rr := httptest.NewRecorder()
	req := playlistReq(http.MethodGet, "/v1/playlists/pl/videos?category=music&sort=asc", "pl", nil)
	ListVideos(stub, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody[videoListResponse](t, rr)
	if len(resp.Items) != 2 || resp.Items[0].Title != "a" || resp.Items[1].Title != "b" {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
}

func TestListVideos_NotFound(t *testing.T) {
	stub := newStubStore()
	stub.err = store.ErrNotFound

	rr := httptest.NewRecorder()
	ListVideos(stub, nil).ServeHTTP(rr, playlistReq(http.MethodGet, "/v1/playlists/nope/videos", "nope", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestAddVideo_OK(t *testing.T) {
	stub := newStubStore()
	rr := httptest.NewRecorder()
	req := playlistReq(http.MethodPost, "/v1/playlists/pl/videos", "pl",
		store.Video{URL: "https://v/1", Title: "clip"})
	AddVideo(stub, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(stub.added) != 1 || stub.added[0].URL != "https://v/1" {
		t.Fatalf("added = %+v", stub.added)
	}
}

func TestAddVideo_ValidationError(t *testing.T) {
	stub := newStubStore()
	stub.err = store.ErrValidation

	rr := httptest.NewRecorder()
	req := playlistReq(http.MethodPost, "/v1/playlists/pl/videos", "pl", store.Video{})
	AddVideo(stub, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSaveVideos_PersistsOrderAndSort(t *testing.T) {
	stub := newStubStore()
	body := saveVideosRequest{
		Videos: []store.Video{{URL: "https://v/2", Title: "two"}, {URL: "https://v/1", Title: "one"}},
		Sort:   store.SortViews,
	}

	rr := httptest.NewRecorder()
	SaveVideos(stub).ServeHTTP(rr, playlistReq(http.MethodPut, "/v1/playlists/pl/videos", "pl", body))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(stub.saved) != 2 || stub.saved[0].URL != "https://v/2" {
		t.Fatalf("saved = %+v", stub.saved)
	}
	if stub.savedSort != store.SortViews {
		t.Fatalf("sort = %q", stub.savedSort)
	}
}

func TestUpdateVideo_RequiresURL(t *testing.T) {
	rr := httptest.NewRecorder()
	req := playlistReq(http.MethodPatch, "/v1/playlists/pl/videos", "pl", updateVideoRequest{})
	UpdateVideo(newStubStore()).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestUpdateVideo_OK(t *testing.T) {
	stub := newStubStore()
	title := "renamed"

	rr := httptest.NewRecorder()
	req := playlistReq(http.MethodPatch, "/v1/playlists/pl/videos?url=https%3A%2F%2Fv%2F1", "pl",
		updateVideoRequest{Title: &title})
	UpdateVideo(stub).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
	patch, ok := stub.patched["https://v/1"]
	if !ok || patch.Title == nil || *patch.Title != "renamed" {
		t.Fatalf("patched = %+v", stub.patched)
	}
}

func TestDeleteVideo_OK(t *testing.T) {
	stub := newStubStore()
	rr := httptest.NewRecorder()
	req := playlistReq(http.MethodDelete, "/v1/playlists/pl/videos?url=https%3A%2F%2Fv%2F1", "pl", nil)
	DeleteVideo(stub).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if len(stub.deletedURLs) != 1 || stub.deletedURLs[0] != "https://v/1" {
		t.Fatalf("deleted = %v", stub.deletedURLs)
	}
}

// ─── views ───────────────────────────────────────────────────────────────────

func TestViewCounts_OK(t *testing.T) {
	stub := newStubStore()
	stub.counts = map[string]int64{"https://v/1": 7}

	rr := httptest.NewRecorder()
	ViewCounts(stub).ServeHTTP(rr, playlistReq(http.MethodGet, "/v1/playlists/pl/views", "pl", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	resp := decodeBody[map[string]int64](t, rr)
	if resp["https://v/1"] != 7 {
		t.Fatalf("counts = %v", resp)
	}
}

func TestIncrementViews_Accepted(t *testing.T) {
	stub := newStubStore()
	rr := httptest.NewRecorder()
	req := playlistReq(http.MethodPost, "/v1/playlists/pl/views", "pl",
		incrementViewsRequest{URL: "https://v/1"})
	IncrementViews(stub, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
	}
	if stub.viewDeltas["https://v/1"] != 1 {
		t.Fatalf("deltas = %v", stub.viewDeltas)
	}
}

func TestIncrementViews_RequiresURL(t *testing.T) {
	rr := httptest.NewRecorder()
	req := playlistReq(http.MethodPost, "/v1/playlists/pl/views", "pl", incrementViewsRequest{})
	IncrementViews(newStubStore(), nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestIncrementViews_RejectsNegativeDelta(t *testing.T) {
	stub := newStubStore()
	rr := httptest.NewRecorder()
	req := playlistReq(http.MethodPost, "/v1/playlists/pl/views", "pl",
		incrementViewsRequest{URL: "https://v/1", Delta: -100})
	IncrementViews(stub, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if len(stub.viewDeltas) != 0 {
		t.Fatalf("store was called: %v", stub.viewDeltas)
	}
}

// ─── watch positions ─────────────────────────────────────────────────────────

func TestWatchPosition_OK(t *testing.T) {
	stub := newStubStore()
	stub.position = 42.5

	rr := httptest.NewRecorder()
	req := playlistReq(http.MethodGet, "/v1/watch?url=https%3A%2F%2Fv%2F1", "", nil)
	WatchPosition(stub).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	resp := decodeBody[watchPositionResponse](t, rr)
	if resp.LastTime != 42.5 {
		t.Fatalf("position = %v", resp.LastTime)
	}
}

func TestSaveWatchPosition_Accepted(t *testing.T) {
	stub := newStubStore()
	rr := httptest.NewRecorder()
	req := playlistReq(http.MethodPut, "/v1/watch", "",
		saveWatchPositionRequest{Playlist: "pl", URL: "https://v/1", Seconds: 12})
	SaveWatchPosition(stub, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	if stub.savedURL != "https://v/1" || stub.savedSecs != 12 || stub.savedPlay != "pl" {
		t.Fatalf("saved %q %q %v", stub.savedPlay, stub.savedURL, stub.savedSecs)
	}
}

// ─── trends ──────────────────────────────────────────────────────────────────

func TestComputeTrends_OK(t *testing.T) {
	rr := httptest.NewRecorder()
	req := playlistReq(http.MethodPost, "/v1/trends", "",
		trendsRequest{ViewData: map[string][]int64{"https://v/1": {1, 2, 9}}})
	ComputeTrends(trends.SyncEngine{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	resp := decodeBody[map[string]trends.Stats](t, rr)
	if resp["https://v/1"].Total != 12 || resp["https://v/1"].Direction != trends.DirectionIncreasing {
		t.Fatalf("stats = %+v", resp["https://v/1"])
	}
}

// ─── auth ────────────────────────────────────────────────────────────────────

func loginDeps(t *testing.T) (auth.CredentialVerifier, *auth.State) {
	t.Helper()
	hash, err := auth.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	cv := auth.CredentialVerifier{User: "admin", Hash: hash, Secret: []byte("test-secret")}
	return cv, auth.NewState()
}

func TestLogin_OK(t *testing.T) {
	cv, state := loginDeps(t)
	rr := httptest.NewRecorder()
	req := playlistReq(http.MethodPost, "/v1/auth/login", "",
		loginRequest{Username: "admin", Password: "s3cret"})
	Login(cv, state).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody[loginResponse](t, rr)
	if resp.AccessToken == "" || resp.TokenType != "Bearer" {
		t.Fatalf("response = %+v", resp)
	}
	if _, ok := state.UserID(); !ok {
		t.Fatal("login did not flip auth state")
	}
}

func TestLogin_BadPassword(t *testing.T) {
	cv, state := loginDeps(t)
	rr := httptest.NewRecorder()
	req := playlistReq(http.MethodPost, "/v1/auth/login", "",
		loginRequest{Username: "admin", Password: "wrong"})
	Login(cv, state).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLogout_ClearsStateAndNotifies(t *testing.T) {
	_, state := loginDeps(t)
	state.SignIn("admin")

	cleared := false
	unsub := state.Subscribe(func(_ string, signedIn bool) {
		if !signedIn {
			cleared = true
		}
	})
	defer unsub()

	rr := httptest.NewRecorder()
	Logout(state).ServeHTTP(rr, playlistReq(http.MethodPost, "/v1/auth/logout", "", nil))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if !cleared {
		t.Fatal("logout did not notify subscribers")
	}
	if _, ok := state.UserID(); ok {
		t.Fatal("logout left a signed-in user")
	}
}

// ─── media ───────────────────────────────────────────────────────────────────

func TestResolveSource(t *testing.T) {
	cases := []struct {
		url  string
		kind media.SourceKind
		src  string
	}{
		{"https://cdn.example.com/clip.mp4", media.SourceProgressive, "https://cdn.example.com/clip.mp4"},
		{"https://cdn.example.com/live.m3u8", media.SourceHLS, "https://cdn.example.com/live.m3u8"},
		{"https://cdn.example.com/show.mpd", media.SourceDASH, "https://cdn.example.com/show.mpd"},
		{"https://youtu.be/dQw4w9WgXcQ", media.SourceYouTube, "dQw4w9WgXcQ"},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		req := playlistReq(http.MethodGet, "/v1/media/resolve?url="+url.QueryEscape(tc.url), "", nil)
		ResolveSource().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tc.url, rr.Code)
		}
		resp := decodeBody[resolveSourceResponse](t, rr)
		if resp.Kind != tc.kind || resp.Src != tc.src {
			t.Fatalf("%s: resolved to %+v", tc.url, resp)
		}
	}
}

func TestResolveSource_URLRequired(t *testing.T) {
	rr := httptest.NewRecorder()
	ResolveSource().ServeHTTP(rr, playlistReq(http.MethodGet, "/v1/media/resolve", "", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
