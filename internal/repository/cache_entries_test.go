package repository

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/papertrans/internal/cache"
	"github.com/joseph-ayodele/papertrans/internal/common"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func openSQLiteStore(t *testing.T, path string) cache.Store {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, Config{Driver: "sqlite", DSN: "file:" + path + "?_pragma=busy_timeout(5000)"}, testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s, err := NewCacheEntryRepository(ctx, db, testLogger())
	if err != nil {
		t.Fatalf("NewCacheEntryRepository: %v", err)
	}
	return s
}

func TestSQLiteCacheStore(t *testing.T) {
	i := 0
	cache.RunStoreSuite(t, func(t *testing.T) cache.Store {
		i++
		s := openSQLiteStore(t, filepath.Join(t.TempDir(), fmt.Sprintf("cache-%d.db", i)))
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLiteCacheStoreDurable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	cache.RunDurabilitySuite(t, func(t *testing.T) cache.Store {
		return openSQLiteStore(t, path)
	})
}

func TestPostgresCacheStore(t *testing.T) {
	dsn := os.Getenv("PAPERTRANS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PAPERTRANS_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := Open(ctx, Config{Driver: "postgres", DSN: dsn}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := db.HealthCheck(ctx, 0); err != nil {
		t.Fatal(err)
	}
}

func TestOpenCacheStoreUnknownDriverIsFatal(t *testing.T) {
	_, err := OpenCacheStore(context.Background(), common.CacheConfig{Driver: "etcd"}, testLogger())
	if err == nil {
		t.Fatal("expected error")
	}
}
