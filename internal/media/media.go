// Package media holds format plumbing shared by the store, the session
// controller, and the HTTP handlers: source-kind inference, duration
// formatting, and the encoded-URL keys used by the view table.
package media

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SourceKind classifies a video URL by suffix/host.
type SourceKind string

const (
	SourceProgressive SourceKind = "video/mp4"
	SourceHLS         SourceKind = "application/x-mpegURL"
	SourceDASH        SourceKind = "application/dash+xml"
	SourceYouTube     SourceKind = "youtube"
)

// Source is a resolved playback source: the kind plus the src to hand to the
// player (the raw URL, or the embed ID for third-party hosts).
type Source struct {
	Kind SourceKind
	Src  string
}

// YouTubeID extracts the video id from youtube.com/watch?v= and youtu.be/
// URLs. Returns "" when the URL is not a YouTube link.
func YouTubeID(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, "youtu.be") {
		return strings.TrimPrefix(u.Path, "/")
	}
	if strings.Contains(host, "youtube.com") {
		return u.Query().Get("v")
	}
	return ""
}

// ResolveSource infers the playback source for a URL. Unknown suffixes
// default to progressive mp4.
func ResolveSource(raw string) Source {
	if id := YouTubeID(raw); id != "" {
		return Source{Kind: SourceYouTube, Src: id}
	}
	lower := strings.ToLower(raw)
	switch {
	case strings.HasSuffix(lower, ".m3u8"):
		return Source{Kind: SourceHLS, Src: raw}
	case strings.HasSuffix(lower, ".mpd"):
		return Source{Kind: SourceDASH, Src: raw}
	case strings.HasSuffix(lower, ".mp4"),
		strings.HasSuffix(lower, ".webm"),
		strings.HasSuffix(lower, ".ogg"):
		return Source{Kind: SourceProgressive, Src: raw}
	}
	return Source{Kind: SourceProgressive, Src: raw}
}

// FormatDuration renders whole seconds as HH:MM:SS. Negative input is
// treated as zero.
func FormatDuration(seconds float64) string {
	if seconds <= 0 || seconds != seconds { // NaN guard
		return "00:00:00"
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// ParseDuration accepts MM:SS or HH:MM:SS and returns total seconds.
// Malformed input parses to 0.
func ParseDuration(s string) int {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	parts := strings.Split(s, ":")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0
		}
		nums = append(nums, n)
	}
	switch len(nums) {
	case 2:
		return nums[0]*60 + nums[1]
	case 3:
		return nums[0]*3600 + nums[1]*60 + nums[2]
	}
	return 0
}

// EncodeURLKey percent-encodes a video URL for use as a view-table key,
// additionally escaping dots so the key never looks like a path segment.
func EncodeURLKey(raw string) string {
	return strings.ReplaceAll(url.QueryEscape(raw), ".", "%2E")
}

// DecodeURLKey reverses EncodeURLKey. Malformed keys come back unchanged so
// lookups degrade to a miss rather than an error.
func DecodeURLKey(key string) string {
	decoded, err := url.QueryUnescape(key)
	if err != nil {
		return key
	}
	return decoded
}
