package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/api-sage/payment-reversal-engine/src/internal/config"
	_ "github.com/lib/pq"
)

// Open connects with the configured pool limits and fails fast when the server
// does not answer within the ping timeout.
func Open(ctx context.Context, dsn string, pool config.DatabasePoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	pingCtx := ctx
	if pool.PingTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, pool.PingTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres (max open %d): %w", pool.MaxOpenConns, err)
	}

	return db, nil
}
