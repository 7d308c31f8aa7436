package engine

import (
	"context"
	"fmt"
	"time"

	"f0oster/schemadesk/history"
	"f0oster/schemadesk/operation"
	"f0oster/schemadesk/schema"
	"f0oster/schemadesk/storage"
)

// Execute runs one operation against the document and, when remote is
// non-nil, mirrors it onto the live backend. Every invocation is appended to
// the query-history log, success or failure; failures are returned after
// recording, together with an error-status record.
func (e *Engine) Execute(ctx context.Context, op operation.Operation, remote storage.Replicator) (*operation.ExecutionRecord, error) {
	start := time.Now()

	hctx := &Context{
		Doc:       e.doc,
		Backends:  []storage.Backend{e.local},
		MarkDirty: e.markDirty,
	}
	if remote != nil {
		hctx.Backends = append(hctx.Backends, remote)
		hctx.Remote = true
	}

	record, err := dispatch(ctx, hctx, op)

	entry := history.Entry{
		Query:           Describe(op),
		OperationType:   string(op.Kind().Category()),
		ExecutionTimeMs: time.Since(start).Milliseconds(),
		Tables:          []string{op.Target()},
	}
	if err != nil {
		entry.Status = history.StatusError
		entry.ErrorMessage = err.Error()
	} else {
		entry.Status = history.StatusSuccess
		if record.Kind.Category() == operation.CategoryDML {
			affected := record.Affected
			entry.AffectedRows = &affected
		}
	}
	if _, herr := e.history.Record(entry); herr != nil {
		e.logger.Warn("failed to record history entry", "error", herr)
	}

	if err != nil {
		record = operation.NewRecord(op, operation.StatusError, err.Error())
		return record, err
	}
	return record, nil
}

// dispatch routes an operation to its handler. The type switch is the single
// dispatch point over the closed union; a kind outside it cannot be
// constructed through the wire decoder.
func dispatch(ctx context.Context, hctx *Context, op operation.Operation) (*operation.ExecutionRecord, error) {
	switch o := op.(type) {
	case *operation.CreateTable:
		return handleCreateTable(ctx, hctx, o)
	case *operation.DropTable:
		return handleDropTable(ctx, hctx, o)
	case *operation.AddColumn:
		return handleAddColumn(ctx, hctx, o)
	case *operation.DropColumn:
		return handleDropColumn(ctx, hctx, o)
	case *operation.Insert:
		return handleInsert(ctx, hctx, o)
	case *operation.Update:
		return handleUpdate(ctx, hctx, o)
	case *operation.Delete:
		return handleDelete(ctx, hctx, o)
	case *operation.Select:
		return handleSelect(ctx, hctx, o)
	case *operation.Grant:
		return handleGrant(ctx, hctx, o)
	case *operation.Revoke:
		return handleRevoke(ctx, hctx, o)
	default:
		return nil, fmt.Errorf("%w: %T", schema.ErrUnsupportedOperation, op)
	}
}
