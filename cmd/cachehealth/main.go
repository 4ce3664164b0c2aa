package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joseph-ayodele/papertrans/internal/cache"
	"github.com/joseph-ayodele/papertrans/internal/common"
	"github.com/joseph-ayodele/papertrans/internal/server"
)

func main() {
	cfg, err := common.LoadConfig(os.Getenv("PAPERTRANS_CONFIG"))
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if cfg.Cache.Driver == "memory" {
		log.Println("ERROR: cache driver is memory; nothing to check")
		log.Println("  set PAPERTRANS_CACHE_DRIVER=sqlite|postgres|redis and PAPERTRANS_CACHE_DSN")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store, err := server.ConnectCache(ctx, cfg.Cache, logger)
	if err != nil {
		log.Fatalf("opening cache: %v", err)
	}
	defer server.CloseCache(store, logger)

	if err := server.PingCache(ctx, store, logger, 3*time.Second); err != nil {
		log.Fatalf("cache health: FAIL (%v)", err)
	}
	log.Println("cache health: OK")

	// round trip through a probe entry; Put never overwrites, so reruns only read it back
	key := cache.Key{Scope: "cachehealth", BlockHash: "probe", Operation: "probe"}
	stored, err := store.Put(ctx, key, []byte(time.Now().UTC().Format(time.RFC3339)))
	if err != nil {
		log.Fatalf("probe write: %v", err)
	}
	e, ok, err := store.Get(ctx, key)
	if err == nil && !ok {
		err = common.ErrNotFound
	}
	if err != nil {
		log.Fatalf("probe read: %v", err)
	}
	log.Printf("probe entry (%s) written=%v value=%s", cfg.Cache.Driver, stored, e.Value)
}
