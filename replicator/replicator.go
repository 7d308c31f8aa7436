// Package replicator mirrors workspace operations onto a live Postgres
// database through jackc/pgx. Every operation is translated into
// parameterized SQL: identifiers are quoted, data values are bound through
// the connection's parameter mechanism, and the whole batch runs inside one
// explicit transaction.
package replicator

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements storage.Replicator against a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

// Connect opens a pool for the given connection string and verifies it.
func Connect(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", redactDSN(dsn), err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %w", redactDSN(dsn), err)
	}
	return &Postgres{pool: pool}, nil
}

// NewWithPool wraps an existing pool (used by tests and the web server).
func NewWithPool(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Close() {
	p.pool.Close()
}

// Begin opens the batch transaction. A no-op if one is already open.
func (p *Postgres) Begin(ctx context.Context) error {
	if p.tx != nil {
		return nil
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	p.tx = tx
	return nil
}

// Commit closes the batch transaction. A no-op outside a transaction.
func (p *Postgres) Commit(ctx context.Context) error {
	if p.tx == nil {
		return nil
	}
	tx := p.tx
	p.tx = nil
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback abandons the batch transaction. A no-op outside a transaction.
func (p *Postgres) Rollback(ctx context.Context) error {
	if p.tx == nil {
		return nil
	}
	tx := p.tx
	p.tx = nil
	if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

// exec runs inside the open transaction when present, otherwise directly on
// the pool.
func (p *Postgres) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if p.tx != nil {
		return p.tx.Exec(ctx, sql, args...)
	}
	return p.pool.Exec(ctx, sql, args...)
}

func (p *Postgres) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if p.tx != nil {
		return p.tx.Query(ctx, sql, args...)
	}
	return p.pool.Query(ctx, sql, args...)
}

func (p *Postgres) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if p.tx != nil {
		return p.tx.QueryRow(ctx, sql, args...)
	}
	return p.pool.QueryRow(ctx, sql, args...)
}

// redactDSN hides credentials when a DSN ends up in an error message.
func redactDSN(dsn string) string {
	at := strings.LastIndexByte(dsn, '@')
	scheme := strings.Index(dsn, "://")
	if at >= 0 && scheme >= 0 && scheme+3 < at {
		return dsn[:scheme+3] + "***" + dsn[at:]
	}
	return dsn
}
