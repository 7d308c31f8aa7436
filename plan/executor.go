// Package plan runs ordered operation batches through the engine. It
// implements a fail-fast strategy: one transaction for the entire remote
// batch, stop on the first error, all operations succeed or all roll back
// together. Remote batches default to preview — rolled back unless the
// caller explicitly applies.
package plan

import (
	"context"
	"fmt"
	"log/slog"

	"f0oster/schemadesk/engine"
	"f0oster/schemadesk/operation"
	"f0oster/schemadesk/storage"
)

// Report is the outcome of one plan run.
type Report struct {
	Records []*operation.ExecutionRecord `json:"records"`
	Failed  bool                         `json:"failed"`
	Error   string                       `json:"error,omitempty"`
	// Applied is set when a remote batch was committed or a local batch
	// persisted.
	Applied bool `json:"applied"`
	// PendingConfirmation is set when a successful remote batch was rolled
	// back because the caller did not request final application.
	PendingConfirmation bool `json:"pendingConfirmation"`
}

type Executor struct {
	engine *engine.Engine
	remote storage.Replicator
	logger *slog.Logger
}

// NewExecutor wires a plan executor. remote may be nil for local-only mode.
func NewExecutor(eng *engine.Engine, remote storage.Replicator, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{engine: eng, remote: remote, logger: logger}
}

// Run executes the operations strictly in order, stopping on the first
// failure. With a replicator attached the whole batch runs inside one
// transaction; it commits only when every operation succeeded and apply is
// set, otherwise it rolls back and the in-memory document is reloaded from
// the source of truth. Resubmitting with apply replays the identical plan in
// full, it does not resume.
func (x *Executor) Run(ctx context.Context, ops []operation.Operation, apply bool) (*Report, error) {
	report := &Report{}

	if x.remote != nil {
		if err := x.remote.Begin(ctx); err != nil {
			return nil, err
		}
	}

	for i, op := range ops {
		record, err := x.engine.Execute(ctx, op, x.remote)
		report.Records = append(report.Records, record)
		if err != nil {
			report.Failed = true
			report.Error = fmt.Sprintf("operation %d (%s): %v", i, op.Kind(), err)
			x.logger.Warn("plan aborted", "operation", i, "kind", string(op.Kind()), "error", err)
			break
		}
	}

	if x.remote == nil {
		// Local mode: the document keeps whatever succeeded before a
		// failure; rehearsal storage is not transactional.
		if err := x.engine.Save(); err != nil {
			return nil, err
		}
		report.Applied = !report.Failed
		return report, nil
	}

	if report.Failed || !apply {
		if err := x.remote.Rollback(ctx); err != nil {
			x.logger.Warn("rollback failed", "error", err)
		}
		if err := x.engine.Load(ctx, x.remote); err != nil {
			return nil, fmt.Errorf("reload after rollback: %w", err)
		}
		report.PendingConfirmation = !report.Failed
		return report, nil
	}

	if err := x.remote.Commit(ctx); err != nil {
		report.Failed = true
		report.Error = err.Error()
		if rerr := x.engine.Load(ctx, x.remote); rerr != nil {
			return nil, fmt.Errorf("reload after failed commit: %w", rerr)
		}
		return report, nil
	}
	if err := x.engine.Save(); err != nil {
		return nil, err
	}
	report.Applied = true
	return report, nil
}
