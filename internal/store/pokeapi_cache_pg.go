package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultCacheTTL bounds how long a stored upstream body is served.
const DefaultCacheTTL = 7 * 24 * time.Hour

// ResponseCachePG persists upstream response bodies in the pokeapi_cache
// table. It satisfies pokeapi.Cache.
type ResponseCachePG struct {
	db  *pgxpool.Pool
	ttl time.Duration
}

func NewResponseCachePG(db *pgxpool.Pool, ttl time.Duration) *ResponseCachePG {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResponseCachePG{db: db, ttl: ttl}
}

func (r *ResponseCachePG) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const query = `
	SELECT body
	FROM pokeapi_cache
	WHERE url = $1 AND fetched_at > now() - make_interval(secs => $2)
	`
	var body []byte
	err := r.db.QueryRow(ctx, query, key, r.ttl.Seconds()).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return body, true, nil
}

func (r *ResponseCachePG) Put(ctx context.Context, key string, body []byte) error {
	const query = `
	INSERT INTO pokeapi_cache (url, body, fetched_at)
	VALUES ($1, $2, now())
	ON CONFLICT (url) DO UPDATE SET body = EXCLUDED.body, fetched_at = EXCLUDED.fetched_at
	`
	_, err := r.db.Exec(ctx, query, key, body)
	return err
}

// Count returns the number of rows still inside the TTL window.
func (r *ResponseCachePG) Count(ctx context.Context) (int64, error) {
	const query = `SELECT count(*) FROM pokeapi_cache WHERE fetched_at > now() - make_interval(secs => $1)`
	var n int64
	err := r.db.QueryRow(ctx, query, r.ttl.Seconds()).Scan(&n)
	return n, err
}

// CleanupExpired deletes rows older than the TTL.
func (r *ResponseCachePG) CleanupExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM pokeapi_cache WHERE fetched_at <= now() - make_interval(secs => $1)`
	result, err := r.db.Exec(ctx, query, r.ttl.Seconds())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
