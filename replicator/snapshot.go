package replicator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"f0oster/schemadesk/schema"
)

// Catalog queries used to rebuild the workspace document from a live
// database. Kept as constants in one place, sqlc-style.
const (
	listTablesQuery = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	listColumnsQuery = `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`

	primaryKeyQuery = `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = 'public'
			AND tc.table_name = $1
			AND tc.constraint_type = 'PRIMARY KEY'`

	tableGrantsQuery = `
		SELECT grantee, privilege_type
		FROM information_schema.role_table_grants
		WHERE table_schema = 'public' AND table_name = $1
			AND grantee NOT IN ('PUBLIC', 'postgres')
		ORDER BY grantee, privilege_type`
)

// Snapshot rebuilds the full workspace document from the live backend: the
// table list, column definitions, primary keys, rows and table grants. The
// result becomes the authoritative in-memory document.
func (p *Postgres) Snapshot(ctx context.Context) (*schema.Database, error) {
	doc := schema.NewDatabase()

	rows, err := p.query(ctx, listTablesQuery)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	for _, name := range names {
		table, err := p.snapshotTable(ctx, name)
		if err != nil {
			return nil, err
		}
		doc.PutTable(table)
		for role := range table.Permissions {
			if _, ok := doc.Roles[role]; !ok {
				now := time.Now().UTC()
				doc.Roles[role] = &schema.Role{Name: role, CreatedAt: now, UpdatedAt: now}
			}
		}
	}
	return doc, nil
}

func (p *Postgres) snapshotTable(ctx context.Context, name string) (*schema.Table, error) {
	table := &schema.Table{
		Name:        name,
		Columns:     map[string]*schema.Column{},
		Permissions: map[string]*schema.Permission{},
	}

	cols, err := p.query(ctx, listColumnsQuery, name)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", name, err)
	}
	for cols.Next() {
		var colName, dataType, isNullable string
		var columnDefault *string
		if err := cols.Scan(&colName, &dataType, &isNullable, &columnDefault); err != nil {
			cols.Close()
			return nil, fmt.Errorf("scan column of %s: %w", name, err)
		}
		col := &schema.Column{
			Name:     colName,
			Type:     workspaceType(dataType),
			Nullable: isNullable == "YES",
		}
		if columnDefault != nil {
			col.Default = parseColumnDefault(*columnDefault)
		}
		table.Columns[colName] = col
		table.ColumnOrder = append(table.ColumnOrder, colName)
	}
	cols.Close()
	if err := cols.Err(); err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", name, err)
	}

	var pk string
	switch err := p.queryRow(ctx, primaryKeyQuery, name).Scan(&pk); {
	case err == nil:
		table.PrimaryKey = pk
		if col, ok := table.Columns[pk]; ok {
			col.IsPrimaryKey = true
		}
	case errors.Is(err, pgx.ErrNoRows):
		// No primary key declared.
	default:
		return nil, fmt.Errorf("primary key of %s: %w", name, err)
	}

	if err := p.snapshotGrants(ctx, table); err != nil {
		return nil, err
	}
	if err := p.snapshotRows(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

func (p *Postgres) snapshotGrants(ctx context.Context, table *schema.Table) error {
	rows, err := p.query(ctx, tableGrantsQuery, table.Name)
	if err != nil {
		return fmt.Errorf("list grants of %s: %w", table.Name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var grantee, privilege string
		if err := rows.Scan(&grantee, &privilege); err != nil {
			return fmt.Errorf("scan grant of %s: %w", table.Name, err)
		}
		local := workspacePrivilege(privilege)
		if local == "" {
			continue
		}
		perm, ok := table.Permissions[grantee]
		if !ok {
			perm = &schema.Permission{Role: grantee, GrantedAt: time.Now().UTC()}
			table.Permissions[grantee] = perm
		}
		perm.Privileges = append(perm.Privileges, local)
	}
	return rows.Err()
}

func (p *Postgres) snapshotRows(ctx context.Context, table *schema.Table) error {
	if len(table.ColumnOrder) == 0 {
		return nil
	}
	quoted := make([]string, 0, len(table.ColumnOrder))
	for _, c := range table.ColumnOrder {
		quoted = append(quoted, quoteIdent(c))
	}
	sql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), quoteIdent(table.Name))
	rows, err := p.query(ctx, sql)
	if err != nil {
		return fmt.Errorf("read rows of %s: %w", table.Name, err)
	}
	defer rows.Close()
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return fmt.Errorf("scan row of %s: %w", table.Name, err)
		}
		row := schema.Row{}
		for i, col := range table.ColumnOrder {
			row[col] = normalizeValue(table.Columns[col], values[i])
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read rows of %s: %w", table.Name, err)
	}
	table.RowCount = len(table.Rows)
	return nil
}

// workspaceType maps a Postgres data type back onto the workspace column
// vocabulary. Unmapped types keep their backend name and pass through the
// coercion library untouched.
func workspaceType(dataType string) string {
	switch dataType {
	case "text", "character varying", "character":
		return schema.TypeText
	case "uuid":
		return schema.TypeUUID
	case "bigint", "integer", "smallint":
		return schema.TypeInteger
	case "double precision", "real", "numeric":
		return schema.TypeFloat
	case "boolean":
		return schema.TypeBoolean
	case "date":
		return schema.TypeDate
	case "timestamp with time zone", "timestamp without time zone":
		return schema.TypeDateTime
	case "jsonb", "json":
		return schema.TypeJSON
	default:
		return dataType
	}
}

// workspacePrivilege maps a Postgres privilege keyword back onto the
// workspace vocabulary; unmapped keywords are skipped.
func workspacePrivilege(keyword string) string {
	for local, sql := range privilegeSQL {
		if sql == keyword {
			return local
		}
	}
	return ""
}

// parseColumnDefault strips the cast Postgres appends to stored defaults
// ('x'::text). Non-literal defaults (nextval, now()) are dropped rather than
// round-tripped.
func parseColumnDefault(expr string) any {
	expr = strings.TrimSpace(expr)
	if idx := strings.Index(expr, "::"); idx >= 0 {
		expr = expr[:idx]
	}
	if strings.HasPrefix(expr, "'") && strings.HasSuffix(expr, "'") && len(expr) >= 2 {
		return strings.ReplaceAll(expr[1:len(expr)-1], "''", "'")
	}
	switch expr {
	case "true":
		return true
	case "false":
		return false
	case "NULL":
		return nil
	}
	if n, err := parseNumber(expr); err == nil {
		return n
	}
	return nil
}

func parseNumber(s string) (any, error) {
	var i int64
	if _, err := fmt.Sscanf(s, "%d", &i); err == nil && fmt.Sprint(i) == s {
		return i, nil
	}
	var f float64
	if _, err := fmt.Sscanf(s, "%g", &f); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("not a number: %s", s)
}

// normalizeValue converts driver-native values into the document's canonical
// forms so remote reads and local reads look alike. col may be nil for
// columns outside the declared set.
func normalizeValue(col *schema.Column, v any) any {
	switch val := v.(type) {
	case [16]byte:
		return uuid.UUID(val).String()
	case time.Time:
		if col != nil && col.Type == schema.TypeDate {
			return val.Format("2006-01-02")
		}
		return val.UTC().Format(time.RFC3339)
	case int32:
		return int64(val)
	case float32:
		return float64(val)
	default:
		return v
	}
}
