package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RateLimitRepository throttles repeated attempts per key inside a
// fixed window, backed by the rate_limits table.
type RateLimitRepository interface {
	Allow(ctx context.Context, key string) (bool, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type rateLimitRepository struct {
	pool   *pgxpool.Pool
	limit  int
	window time.Duration
}

func NewRateLimitRepository(pool *pgxpool.Pool, limit int, window time.Duration) RateLimitRepository {
	return &rateLimitRepository{pool: pool, limit: limit, window: window}
}

// Allow counts the attempt and reports whether it stays within the
// window's budget. The UPSERT resets the counter once the stored
// window has aged out, so check and increment are a single statement.
// Database errors fail open: a broken limiter must not lock out logins.
func (r *rateLimitRepository) Allow(ctx context.Context, key string) (bool, error) {
	const q = `
		INSERT INTO rate_limits (rl_key, count, window_start, expires_at)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (rl_key) DO UPDATE SET
			count = CASE WHEN rate_limits.window_start < $2 THEN 1 ELSE rate_limits.count + 1 END,
			window_start = CASE WHEN rate_limits.window_start < $2 THEN $2 ELSE rate_limits.window_start END,
			expires_at = $3
		RETURNING count`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	now := time.Now()
	var count int
	if err := r.pool.QueryRow(ctx, q, hashKey(key), now.Add(-r.window), now.Add(time.Hour)).Scan(&count); err != nil {
		return true, nil
	}

	return count <= r.limit, nil
}

func (r *rateLimitRepository) CleanupExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM rate_limits WHERE expires_at < now()`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
