package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stargazerhq/stargazer/internal/model"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	return &Cache{dir: t.TempDir()}
}

func TestSetAndGet(t *testing.T) {
	c := testCache(t)

	user := &model.User{Login: "alice", Name: "Alice Example", Email: "alice@example.com"}
	if err := c.Set(user); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := c.Get("alice")
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if got.Name != "Alice Example" || got.Email != "alice@example.com" {
		t.Errorf("unexpected cached user %+v", got)
	}
}

func TestGetIsCaseInsensitive(t *testing.T) {
	c := testCache(t)

	if err := c.Set(&model.User{Login: "Alice"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := c.Get("ALICE"); !ok {
		t.Error("expected lookups to ignore login case")
	}
}

func TestGetMiss(t *testing.T) {
	c := testCache(t)

	if _, ok := c.Get("nobody"); ok {
		t.Error("expected a miss for an unknown login")
	}
	if _, ok := c.Get(""); ok {
		t.Error("expected a miss for an empty login")
	}
}

func TestSetIgnoresEmptyLogin(t *testing.T) {
	c := testCache(t)

	if err := c.Set(&model.User{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(nil); err != nil {
		t.Fatalf("Set(nil): %v", err)
	}

	total, _, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if total != 0 {
		t.Errorf("expected no entries written, got %d", total)
	}
}

func writeEntry(t *testing.T, c *Cache, login string, e entry) {
	t.Helper()
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal entry: %v", err)
	}
	if err := os.WriteFile(filepath.Join(c.dir, login+".json"), data, 0o600); err != nil {
		t.Fatalf("write entry: %v", err)
	}
}

func TestGetExpiredEntry(t *testing.T) {
	c := testCache(t)
	writeEntry(t, c, "bob", entry{
		User:     model.User{Login: "bob"},
		CachedAt: time.Now().Add(-48 * time.Hour),
		Version:  version,
	})

	if _, ok := c.Get("bob"); ok {
		t.Error("expected an expired entry to miss")
	}
}

func TestGetVersionMismatch(t *testing.T) {
	c := testCache(t)
	writeEntry(t, c, "carol", entry{
		User:     model.User{Login: "carol"},
		CachedAt: time.Now(),
		Version:  version + 1,
	})

	if _, ok := c.Get("carol"); ok {
		t.Error("expected a version-mismatched entry to miss")
	}
}

func TestGetCorruptEntry(t *testing.T) {
	c := testCache(t)
	if err := os.WriteFile(filepath.Join(c.dir, "dave.json"), []byte("not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, ok := c.Get("dave"); ok {
		t.Error("expected a corrupt entry to miss")
	}
}

func TestClear(t *testing.T) {
	c := testCache(t)
	for _, login := range []string{"alice", "bob", "carol"} {
		if err := c.Set(&model.User{Login: login}); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	total, _, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if total != 0 {
		t.Errorf("expected an empty cache after Clear, got %d entries", total)
	}
}

func TestStats(t *testing.T) {
	c := testCache(t)

	if err := c.Set(&model.User{Login: "fresh"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	writeEntry(t, c, "stale", entry{
		User:     model.User{Login: "stale"},
		CachedAt: time.Now().Add(-48 * time.Hour),
		Version:  version,
	})

	total, valid, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 entries total, got %d", total)
	}
	if valid != 1 {
		t.Errorf("expected 1 valid entry, got %d", valid)
	}
}
