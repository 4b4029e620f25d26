package store

import (
	"sort"
	"strings"

	"github.com/example/playlist-platform/internal/media"
)

// Video is a single playable item. A video's URL is its identity within the
// owning playlist. JSON field names match the stored document schema.
type Video struct {
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Duration    string  `json:"duration,omitempty"`
	Category    string  `json:"category,omitempty"`
	Creator     string  `json:"creator,omitempty"`
	AddedAt     int64   `json:"addedAt"`
	Views       int64   `json:"views"`
	LastTime    float64 `json:"lastTime"`
}

// Document is a full playlist document as held by the remote store, addressed
// {owner}/playlists/{name}. Views is the authoritative per-video view table,
// keyed by encoded URL; the denormalized Video.Views field is a read-through
// cache hydrated on full loads.
type Document struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Videos      []Video          `json:"videos"`
	Views       map[string]int64 `json:"views"`
	Sort        string           `json:"sort,omitempty"`
	CreatedAt   int64            `json:"createdAt"`
}

// Summary is the cheap listing projection of a playlist.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	VideoCount  int    `json:"video_count"`
	CreatedAt   int64  `json:"created_at"`
}

// VideoPatch is a partial update applied to a single video. Nil fields are
// left unchanged.
type VideoPatch struct {
	Title       *string
	Description *string
	Duration    *string
	Category    *string
	Creator     *string
	LastTime    *float64
}

func (p VideoPatch) apply(v *Video) {
	if p.Title != nil {
		v.Title = *p.Title
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	if p.Duration != nil {
		v.Duration = *p.Duration
	}
	if p.Category != nil {
		v.Category = *p.Category
	}
	if p.Creator != nil {
		v.Creator = *p.Creator
	}
	if p.LastTime != nil {
		v.LastTime = *p.LastTime
	}
}

// WatchRecord is a persisted playback position for one video.
type WatchRecord struct {
	URL          string  `json:"url"`
	PlaylistName string  `json:"playlistName,omitempty"`
	LastTime     float64 `json:"lastWatchTime"`
	ViewedAt     int64   `json:"lastViewedAt"`
}

// Sort mode identifiers, persisted on the document so the UI can restore the
// last-applied order.
const (
	SortTitleAsc  = "asc"
	SortTitleDesc = "desc"
	SortViews     = "views"
	SortDuration  = "duration"
	SortLatest    = "latest"
	SortEarliest  = "earliest"
)

// SortVideos returns a sorted copy; unknown modes return the input order.
func SortVideos(videos []Video, mode string) []Video {
	out := make([]Video, len(videos))
	copy(out, videos)

	switch mode {
	case SortTitleAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	case SortTitleDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Title > out[j].Title })
	case SortViews:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Views > out[j].Views })
	case SortDuration:
		sort.SliceStable(out, func(i, j int) bool {
			return media.ParseDuration(out[i].Duration) > media.ParseDuration(out[j].Duration)
		})
	case SortLatest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].AddedAt > out[j].AddedAt })
	case SortEarliest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].AddedAt < out[j].AddedAt })
	}
	return out
}

// FilterByCategory keeps videos whose category matches, case-insensitively.
// An empty category keeps everything.
func FilterByCategory(videos []Video, category string) []Video {
	if strings.TrimSpace(category) == "" {
		return videos
	}
	want := strings.ToLower(strings.TrimSpace(category))
	var out []Video
	for _, v := range videos {
		cat := v.Category
		if cat == "" {
			cat = defaultCategory
		}
		if strings.ToLower(cat) == want {
			out = append(out, v)
		}
	}
	return out
}

// FilterByDuration keeps "short" (<5min) or "long" (>=5min) videos.
func FilterByDuration(videos []Video, filter string) []Video {
	const shortCutoffSec = 300
	switch filter {
	case "short":
		var out []Video
		for _, v := range videos {
			if media.ParseDuration(v.Duration) < shortCutoffSec {
				out = append(out, v)
			}
		}
		return out
	case "long":
		var out []Video
		for _, v := range videos {
			if media.ParseDuration(v.Duration) >= shortCutoffSec {
				out = append(out, v)
			}
		}
		return out
	}
	return videos
}
