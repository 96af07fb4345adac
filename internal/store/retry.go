package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

type retryPolicy struct {
	attempts int
	backoff  time.Duration
}

var defaultRetryPolicy = retryPolicy{attempts: 3, backoff: 20 * time.Millisecond}

// Postgres SQLSTATE codes.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// isTransient reports whether err is a lock or serialization failure that
// can succeed when simply run again.
func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrConstraint &&
			(liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
	}
	return false
}

// do runs fn until it succeeds, fails with a non-transient error, the
// attempts are used up, or ctx is done.
func (p retryPolicy) do(ctx context.Context, op string, fn func() error) error {
	delay := p.backoff
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !isTransient(err) || attempt >= p.attempts {
			return err
		}
		slog.WarnContext(ctx, "transient store error, retrying", "op", op, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
	}
}
