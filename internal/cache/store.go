package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultMaxAge bounds entry freshness when Store.MaxAge is zero.
const DefaultMaxAge = 7 * 24 * time.Hour

// Store is a content-addressed, TTL-bounded file cache. One file per
// (namespace, fingerprint); staleness is evaluated at read time and entries
// are never purged in the background. The cache is an optimization, not a
// correctness dependency: write and decode failures are logged and swallowed.
type Store struct {
	Dir    string
	MaxAge time.Duration

	// Now is an injectable clock for TTL tests. Nil means time.Now.
	Now func() time.Time
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) maxAge() time.Duration {
	if s.MaxAge > 0 {
		return s.MaxAge
	}
	return DefaultMaxAge
}

// Key derives a deterministic fingerprint from the namespace and arguments.
// Arguments are lowercased and joined, so keys are case-insensitive and
// recomputing the same normalized input always yields the same key.
func (s *Store) Key(namespace string, args ...string) string {
	parts := append([]string{namespace}, args...)
	joined := strings.ToLower(strings.Join(parts, "_"))
	h := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(h[:])
}

// Path returns the entry location for a namespace/key pair under the root.
func (s *Store) Path(namespace, key, ext string) string {
	return filepath.Join(s.Dir, namespace+"_"+key+"."+ext)
}

// IsValid reports whether the entry exists and is younger than MaxAge.
func (s *Store) IsValid(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	age := s.now().Sub(info.ModTime())
	valid := age < s.maxAge()
	log.Debug().Str("entry", filepath.Base(path)).Dur("age", age).Bool("valid", valid).Msg("cache check")
	return valid
}

// ReadJSON decodes a structured entry into v. It returns false on a stale,
// missing, unreadable, or malformed entry; decode failures are a cache miss,
// never an error for the caller.
func (s *Store) ReadJSON(path string, v any) bool {
	if !s.IsValid(path) {
		return false
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("entry", filepath.Base(path)).Msg("cache read failed")
		return false
	}
	if err := json.Unmarshal(b, v); err != nil {
		log.Error().Err(err).Str("entry", filepath.Base(path)).Msg("cache entry malformed, ignoring")
		return false
	}
	log.Debug().Str("entry", filepath.Base(path)).Msg("cache hit")
	return true
}

// ReadRaw returns a raw text entry verbatim.
func (s *Store) ReadRaw(path string) (string, bool) {
	if !s.IsValid(path) {
		return "", false
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("entry", filepath.Base(path)).Msg("cache read failed")
		return "", false
	}
	return string(b), true
}

// WriteJSON serializes v to the entry location, creating parent directories.
// Best-effort: failures are logged, never surfaced.
func (s *Store) WriteJSON(v any, path string) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("entry", filepath.Base(path)).Msg("cache encode failed")
		return
	}
	s.writeBytes(b, path)
}

// WriteRaw stores a raw text entry.
func (s *Store) WriteRaw(text string, path string) {
	s.writeBytes([]byte(text), path)
}

func (s *Store) writeBytes(b []byte, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Error().Err(err).Str("dir", filepath.Dir(path)).Msg("cache mkdir failed")
		return
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		log.Error().Err(err).Str("entry", filepath.Base(path)).Msg("cache write failed")
		return
	}
	log.Debug().Str("entry", filepath.Base(path)).Msg("cache saved")
}

// ClearAll removes every entry under the root. Per-entry failures are logged
// and do not abort the sweep.
func (s *Store) ClearAll() {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Error().Err(err).Str("dir", s.Dir).Msg("cache clear failed")
		} else {
			log.Warn().Str("dir", s.Dir).Msg("cache directory does not exist")
		}
		return
	}
	for _, e := range entries {
		p := filepath.Join(s.Dir, e.Name())
		if err := os.RemoveAll(p); err != nil {
			log.Error().Err(err).Str("entry", e.Name()).Msg("cache entry delete failed")
		}
	}
	log.Info().Str("dir", s.Dir).Msg("cache cleared")
}

// ClearForQuery deletes only the SERP entry for the given fingerprint.
// Extractor entries are deliberately not cascaded: per-document texts stay
// cached until they expire or ClearAll runs. Known limitation.
func (s *Store) ClearForQuery(query string, numResults int, language string) {
	key := s.Key("serp", query, strconv.Itoa(numResults), language)
	path := s.Path("serp", key, "json")
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := os.Remove(path); err != nil {
		log.Error().Err(err).Str("entry", filepath.Base(path)).Msg("serp cache delete failed")
		return
	}
	log.Info().Str("query", query).Msg("serp cache entry cleared")
}
