package media

import "testing"

func TestYouTubeID(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://m.youtube.com/watch?v=abc123&t=10s", "abc123"},
		{"https://example.com/watch?v=abc", ""},
		{"https://cdn.example.com/clip.mp4", ""},
		{"::not a url::", ""},
	}
	for _, tc := range cases {
		if got := YouTubeID(tc.url); got != tc.want {
			t.Errorf("YouTubeID(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestResolveSource(t *testing.T) {
	cases := []struct {
		url  string
		kind SourceKind
		src  string
	}{
		{"https://youtu.be/abc", SourceYouTube, "abc"},
		{"https://cdn.example.com/live.M3U8", SourceHLS, "https://cdn.example.com/live.M3U8"},
		{"https://cdn.example.com/vod.mpd", SourceDASH, "https://cdn.example.com/vod.mpd"},
		{"https://cdn.example.com/clip.mp4", SourceProgressive, "https://cdn.example.com/clip.mp4"},
		{"https://cdn.example.com/clip.webm", SourceProgressive, "https://cdn.example.com/clip.webm"},
		{"https://cdn.example.com/clip", SourceProgressive, "https://cdn.example.com/clip"},
	}
	for _, tc := range cases {
		got := ResolveSource(tc.url)
		if got.Kind != tc.kind || got.Src != tc.src {
			t.Errorf("ResolveSource(%q) = %+v, want kind %q src %q", tc.url, got, tc.kind, tc.src)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00"},
		{-5, "00:00:00"},
		{59.9, "00:00:59"},
		{61, "00:01:01"},
		{3725, "01:02:05"},
		{86400, "24:00:00"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.in); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"02:30", 150},
		{"01:02:05", 3725},
		{"00:00", 0},
		{"", 0},
		{"  ", 0},
		{"junk", 0},
		{"1:-2", 0},
		{"1:2:3:4", 0},
	}
	for _, tc := range cases {
		if got := ParseDuration(tc.in); got != tc.want {
			t.Errorf("ParseDuration(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestURLKeyRoundTrip(t *testing.T) {
	urls := []string{
		"https://www.youtube.com/watch?v=abc",
		"https://cdn.example.com/a b/clip.mp4",
		"https://host/path?x=1&y=2",
	}
	for _, u := range urls {
		key := EncodeURLKey(u)
		if got := DecodeURLKey(key); got != u {
			t.Errorf("round trip %q -> %q -> %q", u, key, got)
		}
	}
}

func TestEncodeURLKeyEscapesDots(t *testing.T) {
	key := EncodeURLKey("https://cdn.example.com/clip.mp4")
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			t.Fatalf("encoded key still contains a dot: %q", key)
		}
	}
}

func TestDecodeURLKeyMalformed(t *testing.T) {
	if got := DecodeURLKey("%zz"); got != "%zz" {
		t.Fatalf("malformed key decoded to %q, want unchanged", got)
	}
}
