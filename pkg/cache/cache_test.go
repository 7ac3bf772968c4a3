package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolframtools/wolfram-mcp/pkg/models"
	"github.com/wolframtools/wolfram-mcp/pkg/storage"
)

func setupMemoizer(t *testing.T, ttl time.Duration) (*Memoizer, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "cache-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := storage.NewSQLiteStorage(storage.Config{DatabasePath: tmpFile.Name()})
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create storage: %v", err)
	}

	memoizer := NewMemoizer(store, ttl, zerolog.Nop())

	cleanup := func() {
		store.Close()
		os.Remove(tmpFile.Name())
	}

	return memoizer, cleanup
}

func TestKey(t *testing.T) {
	key := Key("getQuickAnswer", "distance from LA to NY metric")
	expected := "wolfram:getQuickAnswer:distance from LA to NY metric"
	if key != expected {
		t.Errorf("expected key '%s', got '%s'", expected, key)
	}
}

func TestMemoizer_PutGet(t *testing.T) {
	memoizer, cleanup := setupMemoizer(t, time.Minute)
	defer cleanup()

	ctx := context.Background()
	key := Key("getQuickAnswer", "pi")

	memoizer.Put(ctx, key, "3.14159")

	value, ok := memoizer.Get(ctx, key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if value != "3.14159" {
		t.Errorf("expected '3.14159', got '%s'", value)
	}
}

func TestMemoizer_Miss(t *testing.T) {
	memoizer, cleanup := setupMemoizer(t, time.Minute)
	defer cleanup()

	if _, ok := memoizer.Get(context.Background(), Key("getQuickAnswer", "unseen")); ok {
		t.Error("expected cache miss")
	}
}

func TestMemoizer_Expiry(t *testing.T) {
	memoizer, cleanup := setupMemoizer(t, 10*time.Millisecond)
	defer cleanup()

	ctx := context.Background()
	key := Key("getQuickAnswer", "short lived")
	memoizer.Put(ctx, key, "value")

	time.Sleep(20 * time.Millisecond)

	if _, ok := memoizer.Get(ctx, key); ok {
		t.Error("expected miss after TTL expiry")
	}
}

// failingStorage simulates a broken cache backend. Reads and writes fail,
// which the memoizer must swallow.
type failingStorage struct {
	storage.Storage
}

var errBroken = errors.New("storage broken")

func (f *failingStorage) GetCacheEntry(ctx context.Context, key string) (*models.CacheEntry, error) {
	return nil, errBroken
}

func (f *failingStorage) PutCacheEntry(ctx context.Context, key, value string, ttl time.Duration) error {
	return errBroken
}

func TestMemoizer_SwallowsStorageErrors(t *testing.T) {
	memoizer := NewMemoizer(&failingStorage{}, time.Minute, zerolog.Nop())

	ctx := context.Background()
	// Neither call may panic or surface the error.
	memoizer.Put(ctx, "key", "value")
	if _, ok := memoizer.Get(ctx, "key"); ok {
		t.Error("expected miss from failing storage")
	}
}

func TestNewMemoizer_DefaultTTL(t *testing.T) {
	memoizer := NewMemoizer(&failingStorage{}, 0, zerolog.Nop())
	if memoizer.ttl != 15*time.Minute {
		t.Errorf("expected default TTL of 15m, got %v", memoizer.ttl)
	}
}
