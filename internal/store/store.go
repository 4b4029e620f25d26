// Package store owns remote persistence of playlists and videos. All
// mutation passes through Store so cache invalidation stays consistent.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/playlist-platform/internal/cache"
	"github.com/example/playlist-platform/internal/media"
	"github.com/example/playlist-platform/internal/platform/retry"
)

const (
	defaultCategory = "Uncategorized"
	defaultSort     = SortTitleAsc

	cacheKeyPlaylists = "playlists"
	playlistCacheTTL  = 5 * time.Minute
	playlistKeyPrefix = "playlist_"
)

func playlistCacheKey(name string) string { return playlistKeyPrefix + name }

// Store is the single source of truth for playlist and video persistence.
// Reads go cache-first; mutations are retried per the store-wide policy and
// invalidate the affected cache entries before returning.
type Store struct {
	repo  Repo
	cache *cache.Memory
	owner string
	log   *zap.Logger
	pol   retry.Policy

	now func() time.Time // test hook
}

func New(repo Repo, c *cache.Memory, owner string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		repo:  repo,
		cache: c,
		owner: owner,
		log:   log,
		pol:   retry.Default(),
		now:   time.Now,
	}
}

// ResetLocal drops every cached read. Wired to auth sign-out.
func (s *Store) ResetLocal() {
	s.cache.Clear()
}

// ── playlist operations ────────────────────────────────────────────────────

// ListPlaylists returns a summary for every playlist, cache-first with a
// five-minute TTL.
func (s *Store) ListPlaylists(ctx context.Context) ([]Summary, error) {
	if v, ok := s.cache.Get(cacheKeyPlaylists); ok {
		if cached, ok := v.([]Summary); ok {
			return cached, nil
		}
	}

	summaries, err := s.repo.List(ctx, s.owner)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []Summary{}, nil
		}
		return nil, err
	}
	if summaries == nil {
		summaries = []Summary{}
	}
	s.cache.Set(cacheKeyPlaylists, summaries, playlistCacheTTL)
	return summaries, nil
}

// CreatePlaylist creates an empty playlist. Name collisions are exact,
// case-sensitive matches and fail with ErrDuplicateName.
func (s *Store) CreatePlaylist(ctx context.Context, name, description string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: playlist name is required", ErrValidation)
	}

	doc := Document{
		Name:        name,
		Description: description,
		Videos:      []Video{},
		Views:       map[string]int64{},
		Sort:        defaultSort,
		CreatedAt:   s.now().UnixMilli(),
	}
	err := retry.Do(ctx, s.pol, permanent, func(ctx context.Context) error {
		return s.repo.Create(ctx, s.owner, doc)
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(cacheKeyPlaylists)
	return nil
}

// DeletePlaylist removes a playlist. Deleting a nonexistent playlist is not
// an error.
func (s *Store) DeletePlaylist(ctx context.Context, name string) error {
	err := retry.Do(ctx, s.pol, permanent, func(ctx context.Context) error {
		return s.repo.Delete(ctx, s.owner, name)
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(cacheKeyPlaylists)
	s.cache.Invalidate(playlistCacheKey(name))
	return nil
}

// ── video operations ───────────────────────────────────────────────────────

// LoadVideos returns the playlist's video sequence, cache-first. The
// denormalized per-video view counter is hydrated from the authoritative
// view table on every remote load.
func (s *Store) LoadVideos(ctx context.Context, playlist string) ([]Video, error) {
	key := playlistCacheKey(playlist)
	if v, ok := s.cache.Get(key); ok {
		if cached, ok := v.([]Video); ok {
			return cached, nil
		}
	}

	doc, err := s.repo.Get(ctx, s.owner, playlist)
	if err != nil {
		return nil, err
	}
	videos := hydrateViews(doc)
	s.cache.Set(key, videos, playlistCacheTTL)
	return videos, nil
}

// LoadAllPlaylists returns every playlist's videos keyed by name.
func (s *Store) LoadAllPlaylists(ctx context.Context) (map[string][]Video, error) {
	summaries, err := s.ListPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]Video, len(summaries))
	for _, sum := range summaries {
		videos, err := s.LoadVideos(ctx, sum.Name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		out[sum.Name] = videos
	}
	return out, nil
}

// SaveVideos fully replaces the playlist's video sequence (used after
// reorder, sort, and bulk edits). The playlist is created first if it does
// not exist. Callers supply the complete desired sequence.
func (s *Store) SaveVideos(ctx context.Context, playlist string, videos []Video, sortMode string) error {
	if strings.TrimSpace(playlist) == "" {
		return fmt.Errorf("%w: playlist name is required", ErrValidation)
	}
	sanitized := make([]Video, len(videos))
	seen := make(map[string]struct{}, len(videos))
	for i, v := range videos {
		sv, err := s.sanitize(v)
		if err != nil {
			return err
		}
		if _, dup := seen[sv.URL]; dup {
			return fmt.Errorf("%w: duplicate video url %q", ErrValidation, sv.URL)
		}
		seen[sv.URL] = struct{}{}
		sanitized[i] = sv
	}
	if sortMode == "" {
		sortMode = defaultSort
	}

	err := retry.Do(ctx, s.pol, permanent, func(ctx context.Context) error {
		err := s.repo.Update(ctx, s.owner, playlist, func(doc *Document) error {
			doc.Videos = sanitized
			doc.Sort = sortMode
			return nil
		})
		if errors.Is(err, ErrNotFound) {
			return s.repo.Put(ctx, s.owner, Document{
				Name:      playlist,
				Videos:    sanitized,
				Views:     map[string]int64{},
				Sort:      sortMode,
				CreatedAt: s.now().UnixMilli(),
			})
		}
		return err
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(playlistCacheKey(playlist))
	s.cache.Invalidate(cacheKeyPlaylists)
	return nil
}

// AddVideo appends a video via a read-modify-write transaction so concurrent
// additions from other clients are not lost. A URL already present in the
// playlist is rejected.
func (s *Store) AddVideo(ctx context.Context, playlist string, v Video) error {
	sv, err := s.sanitize(v)
	if err != nil {
		return err
	}

	err = retry.Do(ctx, s.pol, permanent, func(ctx context.Context) error {
		err := s.appendVideo(ctx, playlist, sv)
		if errors.Is(err, ErrNotFound) {
			if cerr := s.CreatePlaylist(ctx, playlist, ""); cerr != nil && !errors.Is(cerr, ErrDuplicateName) {
				return cerr
			}
			return s.appendVideo(ctx, playlist, sv)
		}
		return err
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(playlistCacheKey(playlist))
	s.cache.Invalidate(cacheKeyPlaylists)
	return nil
}

func (s *Store) appendVideo(ctx context.Context, playlist string, v Video) error {
	return s.repo.Update(ctx, s.owner, playlist, func(doc *Document) error {
		for _, existing := range doc.Videos {
			if existing.URL == v.URL {
				return fmt.Errorf("%w: video url %q already in playlist", ErrValidation, v.URL)
			}
		}
		doc.Videos = append(doc.Videos, v)
		return nil
	})
}

// DeleteVideo removes the matching video and its view-table entry in one
// transaction. Removing an absent URL leaves the playlist unchanged.
func (s *Store) DeleteVideo(ctx context.Context, playlist, url string) error {
	err := retry.Do(ctx, s.pol, permanent, func(ctx context.Context) error {
		return s.repo.Update(ctx, s.owner, playlist, func(doc *Document) error {
			kept := doc.Videos[:0]
			for _, v := range doc.Videos {
				if v.URL != url {
					kept = append(kept, v)
				}
			}
			doc.Videos = kept
			delete(doc.Views, media.EncodeURLKey(url))
			return nil
		})
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(playlistCacheKey(playlist))
	s.cache.Invalidate(cacheKeyPlaylists)
	return nil
}

// UpdateVideo applies a partial update to the video identified by url.
func (s *Store) UpdateVideo(ctx context.Context, playlist, url string, patch VideoPatch) error {
	err := retry.Do(ctx, s.pol, permanent, func(ctx context.Context) error {
		return s.repo.Update(ctx, s.owner, playlist, func(doc *Document) error {
			for i := range doc.Videos {
				if doc.Videos[i].URL == url {
					patch.apply(&doc.Videos[i])
					return nil
				}
			}
			return fmt.Errorf("%w: video %q", ErrNotFound, url)
		})
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(playlistCacheKey(playlist))
	return nil
}

// ── view tracking ──────────────────────────────────────────────────────────

// UpdateVideoViews increments the playlist's view-table entry for url by
// delta inside a transaction. The counter is monotonic: a view event counts
// at least once and the entry never drops below zero. View counting must
// never block playback: failures are logged, never surfaced.
func (s *Store) UpdateVideoViews(ctx context.Context, playlist, url string, delta int64) {
	if delta < 1 {
		delta = 1
	}
	key := media.EncodeURLKey(url)
	err := retry.Do(ctx, s.pol, permanent, func(ctx context.Context) error {
		return s.repo.Update(ctx, s.owner, playlist, func(doc *Document) error {
			if doc.Views == nil {
				doc.Views = make(map[string]int64)
			}
			if doc.Views[key] < 0 {
				doc.Views[key] = 0
			}
			doc.Views[key] += delta
			return nil
		})
	})
	if err != nil {
		s.log.Warn("view count update failed",
			zap.String("playlist", playlist), zap.String("url", url), zap.Error(err))
		return
	}
	s.cache.Invalidate(playlistCacheKey(playlist))
}

// PreloadViewCounts decodes the playlist's view table into a lookup keyed by
// raw URL, used to hydrate UI view counts without a full video fetch. A
// missing playlist reads as empty.
func (s *Store) PreloadViewCounts(ctx context.Context, playlist string) (map[string]int64, error) {
	doc, err := s.repo.Get(ctx, s.owner, playlist)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return map[string]int64{}, nil
		}
		return nil, err
	}
	out := make(map[string]int64, len(doc.Views))
	for key, count := range doc.Views {
		out[media.DecodeURLKey(key)] = count
	}
	return out, nil
}

// ── watch positions ────────────────────────────────────────────────────────

// SaveWatchPosition persists the last playback position for url.
// Best-effort: failures are logged, never surfaced.
func (s *Store) SaveWatchPosition(ctx context.Context, playlist, url string, seconds float64) {
	rec := WatchRecord{
		URL:          url,
		PlaylistName: playlist,
		LastTime:     seconds,
		ViewedAt:     s.now().UnixMilli(),
	}
	err := retry.Do(ctx, s.pol, permanent, func(ctx context.Context) error {
		return s.repo.PutWatch(ctx, s.owner, rec)
	})
	if err != nil {
		s.log.Warn("watch position save failed", zap.String("url", url), zap.Error(err))
	}
}

// WatchPosition returns the persisted playback position for url, or 0.
func (s *Store) WatchPosition(ctx context.Context, url string) float64 {
	rec, err := s.repo.GetWatch(ctx, s.owner, url)
	if err != nil {
		return 0
	}
	if rec.LastTime < 0 {
		return 0
	}
	return rec.LastTime
}

// ── helpers ────────────────────────────────────────────────────────────────

// sanitize validates required fields and fills creation defaults.
func (s *Store) sanitize(v Video) (Video, error) {
	if strings.TrimSpace(v.URL) == "" {
		return Video{}, fmt.Errorf("%w: video url is required", ErrValidation)
	}
	if strings.TrimSpace(v.Title) == "" {
		return Video{}, fmt.Errorf("%w: video title is required", ErrValidation)
	}
	if v.AddedAt == 0 {
		v.AddedAt = s.now().UnixMilli()
	}
	if v.Views < 0 {
		v.Views = 0
	}
	if v.LastTime < 0 {
		v.LastTime = 0
	}
	if strings.TrimSpace(v.Category) == "" {
		v.Category = defaultCategory
	}
	return v, nil
}

// hydrateViews overlays the authoritative view table onto the denormalized
// per-video counters.
func hydrateViews(doc Document) []Video {
	videos := make([]Video, len(doc.Videos))
	copy(videos, doc.Videos)
	for i := range videos {
		if count, ok := doc.Views[media.EncodeURLKey(videos[i].URL)]; ok {
			videos[i].Views = count
		}
	}
	return videos
}
