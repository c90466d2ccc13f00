// Package cache stores enriched user profiles on disk so repeated
// extractions of overlapping audiences do not re-spend API quota.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stargazerhq/stargazer/internal/constants"
	"github.com/stargazerhq/stargazer/internal/log"
	"github.com/stargazerhq/stargazer/internal/model"
)

// version should be incremented when the entry format changes so stale
// entries from older builds are invalidated rather than misread.
const version = 1

// entry is one cached user profile.
type entry struct {
	User     model.User `json:"user"`
	CachedAt time.Time  `json:"cachedAt"`
	Version  int        `json:"version"`
}

// Cache stores user profiles as one JSON file per login.
type Cache struct {
	dir string
}

// New creates a cache rooted in the user cache directory.
func New() (*Cache, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}
	dir = filepath.Join(dir, "stargazer", "users")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// path maps a login to its cache file. Logins are restricted to
// [A-Za-z0-9-] by GitHub but lowercasing keeps lookups case-insensitive the
// way the API is.
func (c *Cache) path(login string) string {
	return filepath.Join(c.dir, strings.ToLower(login)+".json")
}

// Get returns the cached profile for login if it is present, current, and
// within its TTL.
func (c *Cache) Get(login string) (*model.User, bool) {
	if login == "" {
		return nil, false
	}

	data, err := os.ReadFile(c.path(login))
	if err != nil {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false
	}
	if e.Version != version {
		log.Debug("cache version mismatch", "cached", e.Version, "current", version, "login", login)
		return nil, false
	}
	if time.Since(e.CachedAt) > constants.UserCacheTTL {
		return nil, false
	}

	return &e.User, true
}

// Set caches a user profile.
func (c *Cache) Set(user *model.User) error {
	if user == nil || user.Login == "" {
		return nil
	}

	data, err := json.Marshal(entry{
		User:     *user,
		CachedAt: time.Now(),
		Version:  version,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(user.Login), data, 0o600)
}

// Clear removes every cached profile.
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, de.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Stats reports how many entries exist and how many are still valid.
func (c *Cache) Stats() (total, valid int, err error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, 0, err
	}
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		total++

		data, err := os.ReadFile(filepath.Join(c.dir, de.Name()))
		if err != nil {
			continue
		}
		var e entry
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		if e.Version == version && time.Since(e.CachedAt) <= constants.UserCacheTTL {
			valid++
		}
	}
	return total, valid, nil
}
