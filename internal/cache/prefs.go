package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Preference keys used across the service.
const (
	KeyLastPlaylist = "lastPlaylist"
)

// LastIndexKey names the persisted playback index for a playlist.
func LastIndexKey(playlist string) string { return playlist + "_lastIndex" }

// WatchKey names the persisted watch position for a video URL.
func WatchKey(url string) string { return "watch_" + url }

// PrefsTTL bounds how long a persisted entry is considered fresh. Enforced
// lazily, like the memory cache.
const PrefsTTL = 30 * 24 * time.Hour

type prefEntry struct {
	Value    json.RawMessage `json:"value"`
	StoredAt int64           `json:"stored_at"`
}

// Prefs is a durable string-keyed, JSON-valued store persisted to a single
// file with atomic rename writes. It is an optimization, not a correctness
// requirement: write failures are logged and swallowed, malformed or stale
// values read back as absent.
type Prefs struct {
	mu      sync.Mutex
	path    string
	ttl     time.Duration
	entries map[string]prefEntry
	log     *zap.Logger

	now func() time.Time // test hook
}

// NewPrefs loads the preference file at path, tolerating a missing or
// corrupt file by starting empty. An empty path keeps everything in memory.
func NewPrefs(path string, ttl time.Duration, log *zap.Logger) *Prefs {
	if ttl <= 0 {
		ttl = PrefsTTL
	}
	p := &Prefs{
		path:    path,
		ttl:     ttl,
		entries: make(map[string]prefEntry),
		log:     log,
		now:     time.Now,
	}
	p.load()
	return p
}

// GetPersisted returns the raw JSON value for key, or nil when absent,
// expired, or unreadable.
func (p *Prefs) GetPersisted(key string) json.RawMessage {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[key]
	if !ok {
		return nil
	}
	if p.now().UnixMilli()-e.StoredAt >= p.ttl.Milliseconds() {
		delete(p.entries, key)
		return nil
	}
	return e.Value
}

// GetPersistedInto decodes the value for key into dst. Returns false when the
// key is absent or the stored value does not decode.
func (p *Prefs) GetPersistedInto(key string, dst any) bool {
	raw := p.GetPersisted(key)
	if raw == nil {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false
	}
	return true
}

// SetPersisted stores value under key. Serialization or disk failures never
// raise to the caller.
func (p *Prefs) SetPersisted(key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		p.warn("prefs: marshal failed", key, err)
		return
	}

	p.mu.Lock()
	p.entries[key] = prefEntry{Value: raw, StoredAt: p.now().UnixMilli()}
	err = p.saveLocked()
	p.mu.Unlock()

	if err != nil {
		p.warn("prefs: save failed", key, err)
	}
}

// RemovePersisted deletes key.
func (p *Prefs) RemovePersisted(key string) {
	p.mu.Lock()
	delete(p.entries, key)
	err := p.saveLocked()
	p.mu.Unlock()

	if err != nil {
		p.warn("prefs: save failed", key, err)
	}
}

// Clear drops every persisted entry.
func (p *Prefs) Clear() {
	p.mu.Lock()
	p.entries = make(map[string]prefEntry)
	err := p.saveLocked()
	p.mu.Unlock()

	if err != nil {
		p.warn("prefs: save failed", "", err)
	}
}

func (p *Prefs) load() {
	if p.path == "" {
		return
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			p.warn("prefs: read failed", "", err)
		}
		return
	}
	var entries map[string]prefEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		p.warn("prefs: corrupt file, starting empty", "", err)
		return
	}
	p.entries = entries
}

// saveLocked persists the entries atomically via temp file + rename.
func (p *Prefs) saveLocked() error {
	if p.path == "" {
		return nil
	}
	data, err := json.Marshal(p.entries)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (p *Prefs) warn(msg, key string, err error) {
	if p.log == nil {
		return
	}
	p.log.Warn(msg, zap.String("key", key), zap.Error(err))
}
