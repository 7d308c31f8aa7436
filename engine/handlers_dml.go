package engine

import (
	"context"
	"fmt"

	"f0oster/schemadesk/operation"
	"f0oster/schemadesk/schema"
	"f0oster/schemadesk/storage"
)

const (
	defaultSelectLimit = 25
	maxSelectLimit     = 200
)

func handleInsert(ctx context.Context, hctx *Context, op *operation.Insert) (*operation.ExecutionRecord, error) {
	table, err := hctx.RequireTable(op.Table)
	if err != nil {
		return nil, err
	}
	if len(op.Rows) == 0 {
		return nil, fmt.Errorf("%w: insert into %q carries no rows", schema.ErrValidation, op.Table)
	}

	// Materialize each row from the declared columns: incoming value when
	// present, column default otherwise, everything coerced to canonical
	// form.
	coerced := make([]schema.Row, 0, len(op.Rows))
	for i, incoming := range op.Rows {
		row := schema.Row{}
		for _, name := range table.ColumnOrder {
			col := table.Columns[name]
			raw, ok := incoming[name]
			if !ok {
				raw = col.Default
			}
			value, err := schema.CoerceValue(col, raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			row[name] = value
		}
		coerced = append(coerced, row)
	}

	if table.PrimaryKey != "" {
		if err := checkPrimaryKeys(hctx, table, coerced); err != nil {
			return nil, err
		}
	}

	var affected int64
	for _, backend := range hctx.Backends {
		n, err := backend.InsertRows(ctx, table, coerced)
		if err != nil {
			return nil, err
		}
		affected = n
	}
	hctx.MarkDirty()

	record := operation.NewRecord(op, operation.StatusSuccess,
		fmt.Sprintf("inserted %d rows into %q", affected, op.Table))
	record.Affected = affected
	return record, nil
}

// checkPrimaryKeys rejects missing and duplicate key values within the
// batch, and duplicates against existing rows in local mode. With a
// replicator attached the existing-row check is left to the remote
// constraint.
func checkPrimaryKeys(hctx *Context, table *schema.Table, rows []schema.Row) error {
	pk := table.PrimaryKey
	seen := map[string]bool{}
	for i, row := range rows {
		value := row[pk]
		if value == nil {
			return fmt.Errorf("%w: row %d is missing primary key %q", schema.ErrValidation, i, pk)
		}
		key := fmt.Sprint(value)
		if seen[key] {
			return fmt.Errorf("%w: value %q for %q appears twice in the batch", schema.ErrDuplicateKey, key, pk)
		}
		seen[key] = true
	}
	if hctx.Remote {
		return nil
	}
	for _, existing := range table.Rows {
		if value := existing[pk]; value != nil && seen[fmt.Sprint(value)] {
			return fmt.Errorf("%w: value %q for %q already exists in %q",
				schema.ErrDuplicateKey, fmt.Sprint(value), pk, table.Name)
		}
	}
	return nil
}

func handleUpdate(ctx context.Context, hctx *Context, op *operation.Update) (*operation.ExecutionRecord, error) {
	table, err := hctx.RequireTable(op.Table)
	if err != nil {
		return nil, err
	}
	if len(op.Set) == 0 {
		return nil, fmt.Errorf("%w: update on %q changes no columns", schema.ErrValidation, op.Table)
	}

	changes := schema.Row{}
	for name, raw := range op.Set {
		col, ok := table.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q on table %q", schema.ErrColumnNotFound, name, op.Table)
		}
		value, err := schema.CoerceValue(col, raw)
		if err != nil {
			return nil, err
		}
		changes[name] = value
	}
	if _, err := schema.BuildPredicate(op.Where); err != nil {
		return nil, err
	}

	var affected int64
	for _, backend := range hctx.Backends {
		n, err := backend.UpdateRows(ctx, table, changes, op.Where)
		if err != nil {
			return nil, err
		}
		affected = n
	}
	hctx.MarkDirty()

	record := operation.NewRecord(op, operation.StatusSuccess,
		fmt.Sprintf("updated %d rows in %q", affected, op.Table))
	record.Affected = affected
	return record, nil
}

func handleDelete(ctx context.Context, hctx *Context, op *operation.Delete) (*operation.ExecutionRecord, error) {
	table, err := hctx.RequireTable(op.Table)
	if err != nil {
		return nil, err
	}
	if _, err := schema.BuildPredicate(op.Where); err != nil {
		return nil, err
	}

	var affected int64
	for _, backend := range hctx.Backends {
		n, err := backend.DeleteRows(ctx, table, op.Where)
		if err != nil {
			return nil, err
		}
		affected = n
	}
	hctx.MarkDirty()

	record := operation.NewRecord(op, operation.StatusSuccess,
		fmt.Sprintf("deleted %d rows from %q", affected, op.Table))
	record.Affected = affected
	return record, nil
}

func handleSelect(ctx context.Context, hctx *Context, op *operation.Select) (*operation.ExecutionRecord, error) {
	table, err := hctx.RequireTable(op.Table)
	if err != nil {
		return nil, err
	}
	for _, name := range op.Columns {
		if _, ok := table.Column(name); !ok {
			return nil, fmt.Errorf("%w: %q on table %q", schema.ErrColumnNotFound, name, op.Table)
		}
	}
	for _, key := range op.OrderBy {
		if _, ok := table.Column(key.Column); !ok {
			return nil, fmt.Errorf("%w: order key %q on table %q", schema.ErrColumnNotFound, key.Column, op.Table)
		}
	}
	if _, err := schema.BuildPredicate(op.Where); err != nil {
		return nil, err
	}

	limit := op.Limit
	if limit <= 0 {
		limit = defaultSelectLimit
	}
	if limit > maxSelectLimit {
		limit = maxSelectLimit
	}

	result, err := hctx.reader().SelectRows(ctx, table, &storage.SelectQuery{
		Columns:  op.Columns,
		Criteria: op.Where,
		OrderBy:  op.OrderBy,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}

	record := operation.NewRecord(op, operation.StatusSuccess,
		fmt.Sprintf("selected %d of %d rows from %q", len(result.Rows), result.RowCount, op.Table))
	record.Result = result
	return record, nil
}
