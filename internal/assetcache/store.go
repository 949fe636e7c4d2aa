package assetcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// PersistedEntry is the on-disk shape of one tenant's cache entry.
type PersistedEntry struct {
	Assets     []string  `json:"assets"`
	LastSync   time.Time `json:"lastSync"`
	TotalCount int       `json:"totalCount"`
}

// Store persists the whole cache as a single JSON document mapping
// company-id-as-string to its entry. The document is rewritten wholesale
// on every mutation and read once at startup.
type Store struct {
	path string
}

func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("cache store path is required")
	}
	return &Store{path: path}, nil
}

func (s *Store) Path() string { return s.path }

// Load reads the persisted document. A missing or corrupt file is
// reported via the second return value so the caller can start empty
// with a warning instead of failing.
func (s *Store) Load() (map[int64]PersistedEntry, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[int64]PersistedEntry{}, nil
		}
		return map[int64]PersistedEntry{}, err
	}

	var doc map[string]PersistedEntry
	if err := json.Unmarshal(raw, &doc); err != nil {
		return map[int64]PersistedEntry{}, fmt.Errorf("corrupt cache store %s: %w", s.path, err)
	}

	out := make(map[int64]PersistedEntry, len(doc))
	for key, entry := range doc {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || id <= 0 {
			return map[int64]PersistedEntry{}, fmt.Errorf("corrupt cache store %s: bad company id %q", s.path, key)
		}
		sort.Strings(entry.Assets)
		entry.TotalCount = len(entry.Assets)
		out[id] = entry
	}
	return out, nil
}

// Save rewrites the document atomically (temp file + rename).
func (s *Store) Save(entries map[int64]PersistedEntry) error {
	doc := make(map[string]PersistedEntry, len(entries))
	for id, entry := range entries {
		sorted := append([]string(nil), entry.Assets...)
		sort.Strings(sorted)
		entry.Assets = sorted
		entry.TotalCount = len(sorted)
		doc[fmt.Sprintf("%d", id)] = entry
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".asset-cache-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
