package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinema-ledger/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ErrContention is returned when a transaction keeps losing lock races after
// every allowed retry.
var ErrContention = errors.New("transaction contention, retries exhausted")

// PostgreSQL error codes the runner and repositories care about.
const (
	CodeUniqueViolation      = "23505"
	CodeForeignKeyViolation  = "23503"
	CodeCheckViolation       = "23514"
	CodeExclusionViolation   = "23P01"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
	CodeLockNotAvailable     = "55P03"
)

type txKey struct{}

// Conn returns the transaction bound to ctx, or db when there is none.
func Conn(ctx context.Context, db Querier) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db
}

// PgErrorCode extracts the SQLSTATE from err, empty when err is not a server error.
func PgErrorCode(err error) (code, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

type TxConfig struct {
	LockTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// TxRunner demarcates read-modify-write spans. Nested calls join the
// outer transaction.
type TxRunner struct {
	db  PgxIface
	cfg TxConfig
	log *zap.Logger
}

func NewTxRunner(db PgxIface, cfg TxConfig, log *zap.Logger) *TxRunner {
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 25 * time.Millisecond
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &TxRunner{
		db:  db,
		cfg: cfg,
		log: log.With(zap.String("component", "tx")),
	}
}

func (t *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	backoff := t.cfg.RetryBackoff
	for attempt := 0; ; attempt++ {
		err := t.run(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}

		if attempt >= t.cfg.MaxRetries {
			t.log.Warn("Transaction retries exhausted",
				zap.Error(err),
				zap.Int("attempts", attempt+1),
			)
			return fmt.Errorf("%w: %v", ErrContention, err)
		}

		metrics.TxRetries.Inc()
		t.log.Debug("Retrying transaction",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
}

func (t *TxRunner) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				t.log.Error("Failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	if t.cfg.LockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", t.cfg.LockTimeout.Milliseconds())
		if _, err = tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("set lock timeout: %w", err)
		}
	}

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isRetryable(err error) bool {
	code, _ := PgErrorCode(err)
	switch code {
	case CodeSerializationFailure, CodeDeadlockDetected, CodeLockNotAvailable:
		return true
	}
	return false
}
