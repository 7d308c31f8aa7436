package storage

import (
	"context"
	"fmt"
	"sort"

	"f0oster/schemadesk/operation"
	"f0oster/schemadesk/schema"
)

// Local applies operations directly to the in-memory workspace document.
// Inputs are already validated and coerced by the handlers; Local only
// performs the mutation.
type Local struct {
	doc *schema.Database
}

func NewLocal(doc *schema.Database) *Local {
	return &Local{doc: doc}
}

func (l *Local) CreateTable(_ context.Context, table *schema.Table) error {
	l.doc.PutTable(table)
	return nil
}

func (l *Local) DropTable(_ context.Context, name string) error {
	l.doc.RemoveTable(name)
	return nil
}

func (l *Local) AddColumn(_ context.Context, table *schema.Table, column *schema.Column, position int) error {
	table.InsertColumnAt(column, position)
	// Backfill existing rows with the default (already canonical) or null.
	for _, row := range table.Rows {
		row[column.Name] = column.Default
	}
	return nil
}

func (l *Local) DropColumn(_ context.Context, table *schema.Table, name string) error {
	table.RemoveColumn(name)
	return nil
}

func (l *Local) InsertRows(_ context.Context, table *schema.Table, rows []schema.Row) (int64, error) {
	table.Rows = append(table.Rows, rows...)
	table.RowCount = len(table.Rows)
	return int64(len(rows)), nil
}

func (l *Local) UpdateRows(_ context.Context, table *schema.Table, changes schema.Row, criteria []schema.Condition) (int64, error) {
	match, err := schema.BuildPredicate(criteria)
	if err != nil {
		return 0, err
	}
	var affected int64
	for _, row := range table.Rows {
		if !match(row) {
			continue
		}
		for col, val := range changes {
			row[col] = val
		}
		affected++
	}
	return affected, nil
}

func (l *Local) DeleteRows(_ context.Context, table *schema.Table, criteria []schema.Condition) (int64, error) {
	match, err := schema.BuildPredicate(criteria)
	if err != nil {
		return 0, err
	}
	kept := table.Rows[:0]
	var removed int64
	for _, row := range table.Rows {
		if match(row) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	table.Rows = kept
	table.RowCount = len(table.Rows)
	return removed, nil
}

func (l *Local) SelectRows(_ context.Context, table *schema.Table, query *SelectQuery) (*operation.ResultSet, error) {
	match, err := schema.BuildPredicate(query.Criteria)
	if err != nil {
		return nil, err
	}

	var matched []schema.Row
	for _, row := range table.Rows {
		if match(row) {
			matched = append(matched, row)
		}
	}

	if len(query.OrderBy) > 0 {
		sortRows(table, matched, query.OrderBy)
	}

	columns := query.Columns
	if len(columns) == 0 {
		columns = append([]string(nil), table.ColumnOrder...)
	}

	page := matched
	if len(page) > query.Limit {
		page = page[:query.Limit]
	}
	rows := make([]schema.Row, 0, len(page))
	for _, row := range page {
		projected := schema.Row{}
		for _, col := range columns {
			projected[col] = row[col]
		}
		rows = append(rows, projected)
	}

	return &operation.ResultSet{
		Title:    table.Name,
		Columns:  columns,
		Rows:     rows,
		RowCount: int64(len(matched)),
		Limit:    query.Limit,
	}, nil
}

// sortRows orders rows by the given keys. Nulls sort last regardless of
// direction; columns of a numeric declared type compare numerically,
// everything else as strings.
func sortRows(table *schema.Table, rows []schema.Row, keys []operation.OrderKey) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range keys {
			a, b := rows[i][key.Column], rows[j][key.Column]
			if a == nil || b == nil {
				if a == nil && b == nil {
					continue
				}
				return b == nil
			}
			cmp := compareValues(table, key.Column, a, b)
			if cmp == 0 {
				continue
			}
			if key.Direction == "desc" {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareValues(table *schema.Table, column string, a, b any) int {
	if col, ok := table.Column(column); ok && (col.Type == schema.TypeInteger || col.Type == schema.TypeFloat) {
		af, aok := schema.AsNumber(a)
		bf, bok := schema.AsNumber(b)
		if aok && bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func (l *Local) Grant(_ context.Context, table *schema.Table, role string, privileges []string) error {
	if table.Permissions == nil {
		table.Permissions = map[string]*schema.Permission{}
	}
	table.Permissions[role] = &schema.Permission{
		Role:       role,
		Privileges: append([]string(nil), privileges...),
		GrantedAt:  nowUTC(),
	}
	return nil
}

func (l *Local) Revoke(_ context.Context, table *schema.Table, role string, privileges []string) error {
	perm, ok := table.Permissions[role]
	if !ok {
		return nil
	}
	revoked := map[string]bool{}
	for _, p := range privileges {
		revoked[p] = true
	}
	remaining := perm.Privileges[:0]
	for _, p := range perm.Privileges {
		if !revoked[p] {
			remaining = append(remaining, p)
		}
	}
	if len(remaining) == 0 {
		delete(table.Permissions, role)
		return nil
	}
	perm.Privileges = remaining
	return nil
}
