package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IdempotencyRepository backs Idempotency-Key handling on visitor
// creation. A key seen before maps back to the visitor it created.
type IdempotencyRepository interface {
	CheckOrCreate(ctx context.Context, key string, visitorID int64) (existingVisitorID int64, err error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type idempotencyRepository struct {
	pool *pgxpool.Pool
}

func NewIdempotencyRepository(pool *pgxpool.Pool) IdempotencyRepository {
	return &idempotencyRepository{pool: pool}
}

func (r *idempotencyRepository) CheckOrCreate(ctx context.Context, key string, visitorID int64) (int64, error) {
	keyHash := hashKey(key)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var existingID int64
	const checkQuery = `SELECT visitor_id FROM visitor_idempotency WHERE key_hash = $1`
	err := r.pool.QueryRow(ctx, checkQuery, keyHash).Scan(&existingID)

	if err == nil {
		return existingID, nil
	}

	if err != pgx.ErrNoRows {
		return 0, err
	}

	if visitorID > 0 {
		const insertQuery = `
			INSERT INTO visitor_idempotency (key_hash, visitor_id, expires_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (key_hash) DO NOTHING`

		expiresAt := time.Now().Add(24 * time.Hour)
		if _, err := r.pool.Exec(ctx, insertQuery, keyHash, visitorID, expiresAt); err != nil {
			return 0, err
		}
	}

	return 0, nil
}

func (r *idempotencyRepository) CleanupExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	const q = `DELETE FROM visitor_idempotency WHERE expires_at < now()`
	result, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
