package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/papertrans/internal/cache"
)

const cacheTable = "cache_entries"

// CacheEntryRepository is a durable cache.Store backed by a SQL table.
type CacheEntryRepository struct {
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

var _ cache.Store = (*CacheEntryRepository)(nil)

// NewCacheEntryRepository ensures the table exists and returns the store.
func NewCacheEntryRepository(ctx context.Context, db *DB, logger *slog.Logger) (*CacheEntryRepository, error) {
	r := &CacheEntryRepository{db: db, logger: logger, now: time.Now}
	if err := r.migrate(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *CacheEntryRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect())
}

func (r *CacheEntryRepository) migrate(ctx context.Context) error {
	blobType := "BLOB"
	if r.db.Dialect() == dialect.Postgres {
		blobType = "BYTEA"
	}
	query, args := r.builder().CreateTable(cacheTable).IfNotExists().
		Columns(
			entsql.Column("operation").Type("VARCHAR(32)").Attr("NOT NULL"),
			entsql.Column("scope").Type("VARCHAR(255)").Attr("NOT NULL"),
			entsql.Column("block_hash").Type("VARCHAR(128)").Attr("NOT NULL"),
			entsql.Column("value").Type(blobType).Attr("NOT NULL"),
			entsql.Column("created_at").Type("BIGINT").Attr("NOT NULL"),
		).
		PrimaryKey("operation", "scope", "block_hash").
		Query()
	if err := r.db.Driver.Exec(ctx, query, args, nil); err != nil {
		r.logger.Error("failed to create cache table", "error", err)
		return fmt.Errorf("create %s: %w", cacheTable, err)
	}
	return nil
}

func (r *CacheEntryRepository) Get(ctx context.Context, key cache.Key) (cache.Entry, bool, error) {
	if !key.Valid() {
		return cache.Entry{}, false, fmt.Errorf("invalid cache key %q", key.String())
	}
	b := r.builder()
	t := b.Table(cacheTable)
	query, args := b.Select(t.C("value"), t.C("created_at")).
		From(t).
		Where(entsql.And(
			entsql.EQ(t.C("operation"), key.Operation),
			entsql.EQ(t.C("scope"), key.Scope),
			entsql.EQ(t.C("block_hash"), key.BlockHash),
		)).
		Query()

	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, query, args, &rows); err != nil {
		r.logger.Error("cache.get.failed", "key", key.String(), "error", err)
		return cache.Entry{}, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return cache.Entry{}, false, rows.Err()
	}
	var (
		value     []byte
		createdAt int64
	)
	if err := rows.Scan(&value, &createdAt); err != nil {
		return cache.Entry{}, false, fmt.Errorf("scan cache entry %s: %w", key, err)
	}
	return cache.Entry{Key: key, Value: value, CreatedAt: time.Unix(0, createdAt).UTC()}, true, nil
}

func (r *CacheEntryRepository) Put(ctx context.Context, key cache.Key, value []byte) (bool, error) {
	if !key.Valid() {
		return false, fmt.Errorf("invalid cache key %q", key.String())
	}
	query, args := r.builder().Insert(cacheTable).
		Columns("operation", "scope", "block_hash", "value", "created_at").
		Values(key.Operation, key.Scope, key.BlockHash, value, r.now().UnixNano()).
		OnConflict(
			entsql.ConflictColumns("operation", "scope", "block_hash"),
			entsql.DoNothing(),
		).
		Query()

	var res sql.Result
	if err := r.db.Driver.Exec(ctx, query, args, &res); err != nil {
		r.logger.Error("cache.put.failed", "key", key.String(), "error", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		r.logger.Debug("cache.put.duplicate", "key", key.String())
	}
	return n > 0, nil
}

// Ping checks the underlying database.
func (r *CacheEntryRepository) Ping(ctx context.Context) error {
	return r.db.HealthCheck(ctx, 3*time.Second)
}

func (r *CacheEntryRepository) Close() error {
	return r.db.Close()
}
