package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// PurgeExpiredRevocations deletes revocation entries whose token has
// expired anyway.
func PurgeExpiredRevocations(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StartRevocationCleaner purges expired revocations every interval until
// ctx is done. It blocks; run it on its own goroutine.
func StartRevocationCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rows, err := PurgeExpiredRevocations(ctx, db, time.Now())
			if err != nil {
				log.Error("failed to purge expired revocations", zap.Error(err))
				continue
			}
			if rows > 0 {
				log.Info("purged expired revocations", zap.Int64("removed", rows))
			}
		}
	}
}
