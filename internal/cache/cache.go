// Package cache persists the last successful raw payload per source so that
// repeated runs within the TTL skip the network entirely.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nejcm/job-scanner/internal/model"
)

// entry is the on-disk shape: one JSON file per source.
type entry struct {
	CachedAt time.Time         `json:"cached_at"`
	Payload  []model.RawRecord `json:"payload"`
}

// FileStore keeps one JSON file per source under a fixed directory.
// Corrupt or unreadable entries are treated as absent, never fatal.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created
// lazily on the first Put.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(source string) string {
	return filepath.Join(s.dir, sanitize(source)+".json")
}

// sanitize makes a source name safe to use as a filename. Source names come
// from user config (custom_html entries), so path separators and other
// filesystem-hostile characters must not leak into the joined path.
func sanitize(source string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, source)
}

// Get returns the cached payload and its capture time for source.
// Any read or decode failure reports absent.
func (s *FileStore) Get(source string) ([]model.RawRecord, time.Time, bool) {
	data, err := os.ReadFile(s.path(source))
	if err != nil {
		return nil, time.Time{}, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, time.Time{}, false
	}
	return e.Payload, e.CachedAt, true
}

// Put persists payload as the new cache entry for source. The write is
// best-effort; callers may ignore the returned error.
func (s *FileStore) Put(source string, payload []model.RawRecord) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(entry{CachedAt: time.Now(), Payload: payload})
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(source), data, 0o644)
}
