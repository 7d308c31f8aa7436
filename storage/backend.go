// Package storage defines the backend capability interface shared by the
// local table store and the remote replicator, so operation handlers call
// one interface instead of branching per backend.
package storage

import (
	"context"

	"f0oster/schemadesk/operation"
	"f0oster/schemadesk/schema"
)

// SelectQuery describes one read against a table. Limit is already clamped
// by the caller.
type SelectQuery struct {
	Columns  []string
	Criteria []schema.Condition
	OrderBy  []operation.OrderKey
	Limit    int
}

// Backend applies already-validated operations to one storage target.
// Handlers perform validation and coercion once, then drive every attached
// backend with the same model objects so local and remote state move in
// lock-step.
type Backend interface {
	CreateTable(ctx context.Context, table *schema.Table) error
	DropTable(ctx context.Context, name string) error
	// AddColumn inserts at the requested ordinal; position -1 appends.
	AddColumn(ctx context.Context, table *schema.Table, column *schema.Column, position int) error
	DropColumn(ctx context.Context, table *schema.Table, name string) error
	InsertRows(ctx context.Context, table *schema.Table, rows []schema.Row) (int64, error)
	UpdateRows(ctx context.Context, table *schema.Table, changes schema.Row, criteria []schema.Condition) (int64, error)
	DeleteRows(ctx context.Context, table *schema.Table, criteria []schema.Condition) (int64, error)
	SelectRows(ctx context.Context, table *schema.Table, query *SelectQuery) (*operation.ResultSet, error)
	// Grant replaces the role's permission entry with privileges.
	Grant(ctx context.Context, table *schema.Table, role string, privileges []string) error
	// Revoke subtracts privileges, removing the entry once empty.
	Revoke(ctx context.Context, table *schema.Table, role string, privileges []string) error
}

// Replicator mirrors operations onto a live SQL backend. The transaction it
// opens is the only true atomicity boundary of a batch; Begin, Commit and
// Rollback are idempotent no-ops outside an open transaction.
type Replicator interface {
	Backend

	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// Snapshot rebuilds the full workspace document from the live backend.
	Snapshot(ctx context.Context) (*schema.Database, error)
}
