package engine

import (
	"context"
	"fmt"
	"strings"

	"f0oster/schemadesk/operation"
	"f0oster/schemadesk/schema"
)

func handleCreateTable(ctx context.Context, hctx *Context, op *operation.CreateTable) (*operation.ExecutionRecord, error) {
	if strings.TrimSpace(op.Table) == "" {
		return nil, fmt.Errorf("%w: table name must not be empty", schema.ErrValidation)
	}
	if len(op.Columns) == 0 {
		return nil, fmt.Errorf("%w: table %q needs at least one column", schema.ErrValidation, op.Table)
	}

	mode := op.IfExists
	if mode == "" {
		mode = operation.IfExistsAbort
	}
	switch mode {
	case operation.IfExistsAbort, operation.IfExistsSkip, operation.IfExistsReplace:
	default:
		return nil, fmt.Errorf("%w: unknown ifExists mode %q", schema.ErrValidation, mode)
	}

	_, exists := hctx.Doc.Table(op.Table)
	if exists {
		switch mode {
		case operation.IfExistsSkip:
			return operation.NewRecord(op, operation.StatusSkipped,
				fmt.Sprintf("table %q already exists, skipped", op.Table)), nil
		case operation.IfExistsAbort:
			return nil, fmt.Errorf("%w: %q", schema.ErrTableExists, op.Table)
		}
	}

	table := &schema.Table{
		Name:        op.Table,
		Description: op.Description,
		Columns:     map[string]*schema.Column{},
		Permissions: map[string]*schema.Permission{},
		Rows:        []schema.Row{},
	}
	for i := range op.Columns {
		col := op.Columns[i]
		if err := schema.ValidateColumn(&col); err != nil {
			return nil, err
		}
		if _, dup := table.Columns[col.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", schema.ErrValidation, col.Name)
		}
		if col.IsPrimaryKey {
			if table.PrimaryKey != "" {
				return nil, fmt.Errorf("%w: table %q declares more than one primary key", schema.ErrValidation, op.Table)
			}
			table.PrimaryKey = col.Name
		}
		if col.Default != nil {
			canonical, err := schema.CoerceValue(&col, col.Default)
			if err != nil {
				return nil, fmt.Errorf("default for column %q: %w", col.Name, err)
			}
			col.Default = canonical
		}
		table.Columns[col.Name] = &col
		table.ColumnOrder = append(table.ColumnOrder, col.Name)
	}

	for _, backend := range hctx.Backends {
		if exists && mode == operation.IfExistsReplace {
			if err := backend.DropTable(ctx, op.Table); err != nil {
				return nil, err
			}
		}
		if err := backend.CreateTable(ctx, table); err != nil {
			return nil, err
		}
	}
	hctx.MarkDirty()

	detail := fmt.Sprintf("created table %q with %d columns", op.Table, len(table.ColumnOrder))
	if exists {
		detail = fmt.Sprintf("replaced table %q with %d columns", op.Table, len(table.ColumnOrder))
	}
	return operation.NewRecord(op, operation.StatusSuccess, detail), nil
}

func handleDropTable(ctx context.Context, hctx *Context, op *operation.DropTable) (*operation.ExecutionRecord, error) {
	if _, ok := hctx.Doc.Table(op.Table); !ok {
		if op.IfExists {
			return operation.NewRecord(op, operation.StatusSkipped,
				fmt.Sprintf("table %q does not exist, skipped", op.Table)), nil
		}
		return nil, fmt.Errorf("%w: %q", schema.ErrTableNotFound, op.Table)
	}
	for _, backend := range hctx.Backends {
		if err := backend.DropTable(ctx, op.Table); err != nil {
			return nil, err
		}
	}
	hctx.MarkDirty()
	return operation.NewRecord(op, operation.StatusSuccess,
		fmt.Sprintf("dropped table %q", op.Table)), nil
}

func handleAddColumn(ctx context.Context, hctx *Context, op *operation.AddColumn) (*operation.ExecutionRecord, error) {
	table, err := hctx.RequireTable(op.Table)
	if err != nil {
		return nil, err
	}
	col := op.Column
	if err := schema.ValidateColumn(&col); err != nil {
		return nil, err
	}
	if _, dup := table.Column(col.Name); dup {
		return nil, fmt.Errorf("%w: column %q already exists on %q", schema.ErrValidation, col.Name, op.Table)
	}
	if col.IsPrimaryKey && table.PrimaryKey != "" {
		return nil, fmt.Errorf("%w: table %q already has primary key %q", schema.ErrValidation, op.Table, table.PrimaryKey)
	}
	if !col.Nullable && col.Default == nil && len(table.Rows) > 0 {
		return nil, fmt.Errorf("%w: cannot add non-nullable column %q without a default to non-empty table %q",
			schema.ErrNotNullViolation, col.Name, op.Table)
	}
	if col.Default != nil {
		canonical, err := schema.CoerceValue(&col, col.Default)
		if err != nil {
			return nil, fmt.Errorf("default for column %q: %w", col.Name, err)
		}
		col.Default = canonical
	}

	position := -1
	if op.Position != nil {
		position = *op.Position
	}
	for _, backend := range hctx.Backends {
		if err := backend.AddColumn(ctx, table, &col, position); err != nil {
			return nil, err
		}
	}
	if col.IsPrimaryKey {
		table.PrimaryKey = col.Name
	}
	hctx.MarkDirty()
	return operation.NewRecord(op, operation.StatusSuccess,
		fmt.Sprintf("added column %q to %q", col.Name, op.Table)), nil
}

func handleDropColumn(ctx context.Context, hctx *Context, op *operation.DropColumn) (*operation.ExecutionRecord, error) {
	table, err := hctx.RequireTable(op.Table)
	if err != nil {
		return nil, err
	}
	if _, ok := table.Column(op.Column); !ok {
		return nil, fmt.Errorf("%w: %q on table %q", schema.ErrColumnNotFound, op.Column, op.Table)
	}
	if table.PrimaryKey == op.Column {
		return nil, fmt.Errorf("%w: cannot drop primary key column %q", schema.ErrValidation, op.Column)
	}
	for _, backend := range hctx.Backends {
		if err := backend.DropColumn(ctx, table, op.Column); err != nil {
			return nil, err
		}
	}
	hctx.MarkDirty()
	return operation.NewRecord(op, operation.StatusSuccess,
		fmt.Sprintf("dropped column %q from %q", op.Column, op.Table)), nil
}
