package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/papertrans/internal/cache"
	"github.com/joseph-ayodele/papertrans/internal/common"
)

type Config struct {
	Driver          string // sqlite|postgres
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// DB bundles the ent SQL driver with the handles needed to close it.
type DB struct {
	Driver *entsql.Driver
	sqlDB  *sql.DB
	pool   *pgxpool.Pool
}

// Open connects to sqlite or postgres and wraps the connection for ent's SQL builder.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	switch cfg.Driver {
	case "sqlite":
		return openSQLite(ctx, cfg, logger)
	case "postgres":
		return openPostgres(ctx, cfg, logger)
	default:
		return nil, common.Fatal("CONFIG_ERROR", fmt.Sprintf("unsupported sql driver %q", cfg.Driver), nil)
	}
}

func openSQLite(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("opening sqlite cache", "dsn", cfg.DSN)
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		logger.Error("failed to open sqlite", "error", err)
		return nil, err
	}
	// One writer keeps sqlite free of SQLITE_BUSY under concurrent documents.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error("failed to ping sqlite", "error", err)
		return nil, err
	}
	return &DB{Driver: entsql.OpenDB(dialect.SQLite, db), sqlDB: db}, nil
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "driver", "postgres")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "papertrans"

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	db := stdlib.OpenDBFromPool(pool)
	logger.Info("successfully connected to database")
	return &DB{Driver: entsql.OpenDB(dialect.Postgres, db), sqlDB: db, pool: pool}, nil
}

// Dialect returns the ent dialect name of the connection.
func (d *DB) Dialect() string { return d.Driver.Dialect() }

// Close closes the database connections gracefully
func (d *DB) Close() error {
	err := d.Driver.Close()
	if d.pool != nil {
		d.pool.Close()
	}
	return err
}

// HealthCheck pings the database to catch DSN issues early.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return d.sqlDB.PingContext(ctx)
}

// OpenCacheStore builds the cache.Store selected by driver.
func OpenCacheStore(ctx context.Context, cfg common.CacheConfig, logger *slog.Logger) (cache.Store, error) {
	switch cfg.Driver {
	case "memory":
		logger.Warn("using in-memory cache; results will not survive restarts")
		return cache.NewMemoryStore(), nil
	case "redis":
		return cache.ConnectRedis(ctx, cfg.DSN, "")
	case "sqlite", "postgres":
		db, err := Open(ctx, Config{
			Driver:      cfg.Driver,
			DSN:         cfg.DSN,
			MaxConns:    cfg.MaxConns,
			DialTimeout: cfg.DialTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		return NewCacheEntryRepository(ctx, db, logger)
	default:
		return nil, common.Fatal("CONFIG_ERROR", fmt.Sprintf("unknown cache driver %q", cfg.Driver), nil)
	}
}
