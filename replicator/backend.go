package replicator

import (
	"context"
	"fmt"
	"strings"

	"f0oster/schemadesk/operation"
	"f0oster/schemadesk/schema"
	"f0oster/schemadesk/storage"
)

const roleExistsQuery = `SELECT EXISTS(SELECT 1 FROM pg_roles WHERE rolname = $1)`

func (p *Postgres) CreateTable(ctx context.Context, table *schema.Table) error {
	defs := make([]string, 0, len(table.ColumnOrder))
	for _, name := range table.ColumnOrder {
		defs = append(defs, columnDefSQL(table.Columns[name]))
	}
	sql := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table.Name), strings.Join(defs, ", "))
	if _, err := p.exec(ctx, sql); err != nil {
		return fmt.Errorf("create table %s: %w", table.Name, err)
	}
	return nil
}

func (p *Postgres) DropTable(ctx context.Context, name string) error {
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(name))
	if _, err := p.exec(ctx, sql); err != nil {
		return fmt.Errorf("drop table %s: %w", name, err)
	}
	return nil
}

// AddColumn mirrors the column addition. Postgres has no ordinal placement
// for new columns, so position only affects the local document.
func (p *Postgres) AddColumn(ctx context.Context, table *schema.Table, column *schema.Column, _ int) error {
	sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quoteIdent(table.Name), columnDefSQL(column))
	if _, err := p.exec(ctx, sql); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table.Name, column.Name, err)
	}
	return nil
}

func (p *Postgres) DropColumn(ctx context.Context, table *schema.Table, name string) error {
	sql := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", quoteIdent(table.Name), quoteIdent(name))
	if _, err := p.exec(ctx, sql); err != nil {
		return fmt.Errorf("drop column %s.%s: %w", table.Name, name, err)
	}
	return nil
}

func (p *Postgres) InsertRows(ctx context.Context, table *schema.Table, rows []schema.Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	columns := table.ColumnOrder
	quoted := make([]string, 0, len(columns))
	for _, c := range columns {
		quoted = append(quoted, quoteIdent(c))
	}

	var args []any
	valueRows := make([]string, 0, len(rows))
	for _, row := range rows {
		placeholders := make([]string, 0, len(columns))
		for _, c := range columns {
			args = append(args, row[c])
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		valueRows = append(valueRows, "("+strings.Join(placeholders, ", ")+")")
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		quoteIdent(table.Name), strings.Join(quoted, ", "), strings.Join(valueRows, ", "))
	tag, err := p.exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table.Name, err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) UpdateRows(ctx context.Context, table *schema.Table, changes schema.Row, criteria []schema.Condition) (int64, error) {
	var args []any
	assignments := make([]string, 0, len(changes))
	// Deterministic assignment order via the declared column order.
	for _, name := range table.ColumnOrder {
		value, ok := changes[name]
		if !ok {
			continue
		}
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", quoteIdent(name), len(args)))
	}
	where, err := buildWhere(criteria, &args)
	if err != nil {
		return 0, err
	}
	sql := fmt.Sprintf("UPDATE %s SET %s%s", quoteIdent(table.Name), strings.Join(assignments, ", "), where)
	tag, err := p.exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table.Name, err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) DeleteRows(ctx context.Context, table *schema.Table, criteria []schema.Condition) (int64, error) {
	var args []any
	where, err := buildWhere(criteria, &args)
	if err != nil {
		return 0, err
	}
	sql := fmt.Sprintf("DELETE FROM %s%s", quoteIdent(table.Name), where)
	tag, err := p.exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table.Name, err)
	}
	return tag.RowsAffected(), nil
}

// SelectRows pages matching rows and issues a second, limit-independent
// count query so the result set reports the total matched count.
func (p *Postgres) SelectRows(ctx context.Context, table *schema.Table, query *storage.SelectQuery) (*operation.ResultSet, error) {
	columns := query.Columns
	if len(columns) == 0 {
		columns = append([]string(nil), table.ColumnOrder...)
	}
	quoted := make([]string, 0, len(columns))
	for _, c := range columns {
		quoted = append(quoted, quoteIdent(c))
	}

	var args []any
	where, err := buildWhere(query.Criteria, &args)
	if err != nil {
		return nil, err
	}
	sql := fmt.Sprintf("SELECT %s FROM %s%s%s LIMIT %d",
		strings.Join(quoted, ", "), quoteIdent(table.Name), where, buildOrderBy(query.OrderBy), query.Limit)

	rows, err := p.query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", table.Name, err)
	}
	defer rows.Close()

	var page []schema.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan row from %s: %w", table.Name, err)
		}
		row := schema.Row{}
		for i, col := range columns {
			row[col] = normalizeValue(table.Columns[col], values[i])
		}
		page = append(page, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows from %s: %w", table.Name, err)
	}

	var countArgs []any
	countWhere, err := buildWhere(query.Criteria, &countArgs)
	if err != nil {
		return nil, err
	}
	var total int64
	countSQL := fmt.Sprintf("SELECT count(*) FROM %s%s", quoteIdent(table.Name), countWhere)
	if err := p.queryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count rows in %s: %w", table.Name, err)
	}

	return &operation.ResultSet{
		Title:    table.Name,
		Columns:  columns,
		Rows:     page,
		RowCount: total,
		Limit:    query.Limit,
	}, nil
}

// Grant creates the backing role if absent, then replaces its
// SQL-representable privileges on the table: revoke the whole mappable set,
// grant the new subset. The full privilege set lives in the local document.
func (p *Postgres) Grant(ctx context.Context, table *schema.Table, role string, privileges []string) error {
	if err := p.ensureRole(ctx, role); err != nil {
		return err
	}
	for _, sql := range grantStatements(table.Name, role, privileges) {
		if _, err := p.exec(ctx, sql); err != nil {
			return fmt.Errorf("grant on %s to %s: %w", table.Name, role, err)
		}
	}
	return nil
}

func (p *Postgres) Revoke(ctx context.Context, table *schema.Table, role string, privileges []string) error {
	if err := p.ensureRole(ctx, role); err != nil {
		return err
	}
	sql, ok := revokeStatement(table.Name, role, privileges)
	if !ok {
		return nil
	}
	if _, err := p.exec(ctx, sql); err != nil {
		return fmt.Errorf("revoke on %s from %s: %w", table.Name, role, err)
	}
	return nil
}

// ensureRole checks the system catalog and creates the role when absent.
func (p *Postgres) ensureRole(ctx context.Context, role string) error {
	var exists bool
	if err := p.queryRow(ctx, roleExistsQuery, role).Scan(&exists); err != nil {
		return fmt.Errorf("check role %s: %w", role, err)
	}
	if exists {
		return nil
	}
	if _, err := p.exec(ctx, fmt.Sprintf("CREATE ROLE %s", quoteIdent(role))); err != nil {
		return fmt.Errorf("create role %s: %w", role, err)
	}
	return nil
}
