package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PostgresRevocationRepository keeps revoked token ids in revoked_tokens.
// Expired rows are purged by db.StartRevocationCleaner.
type PostgresRevocationRepository struct {
	DB *sql.DB
}

// NewPostgresRevocationRepository creates a repository over db.
func NewPostgresRevocationRepository(db *sql.DB) *PostgresRevocationRepository {
	return &PostgresRevocationRepository{DB: db}
}

// Revoke records jti as revoked until expiresAt. Revoking twice is a no-op.
func (r *PostgresRevocationRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO revoked_tokens (jti, expires_at) VALUES ($1, $2) ON CONFLICT (jti) DO NOTHING
	`, jti, expiresAt)
	if err != nil {
		return fmt.Errorf("Revoke: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti was revoked.
func (r *PostgresRevocationRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti = $1)`, jti).Scan(&revoked)
	return revoked, err
}

// RedisRevocationStore keeps revoked token ids as redis keys that expire
// together with the token.
type RedisRevocationStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisRevocationStore wraps rdb. Keys are written under "revoked:".
func NewRedisRevocationStore(rdb *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{rdb: rdb, prefix: "revoked:"}
}

// Revoke stores jti until expiresAt. Tokens already expired are skipped.
func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, s.prefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis revoke: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti is in the revocation list.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := s.rdb.Get(ctx, s.prefix+jti).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("redis lookup: %w", err)
	}
}
