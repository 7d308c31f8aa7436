package replicator

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"f0oster/schemadesk/operation"
	"f0oster/schemadesk/schema"
)

// quoteIdent double-quotes an identifier, doubling embedded quotes. Names
// containing "." are treated as already schema-qualified and quoted per
// segment.
func quoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

// columnTypeSQL maps a declared column type onto its Postgres type. Unknown
// types fall back to TEXT.
func columnTypeSQL(c *schema.Column) string {
	switch c.Type {
	case schema.TypeText:
		return "TEXT"
	case schema.TypeUUID:
		return "UUID"
	case schema.TypeInteger:
		return "BIGINT"
	case schema.TypeFloat:
		return "DOUBLE PRECISION"
	case schema.TypeBoolean:
		return "BOOLEAN"
	case schema.TypeDate:
		return "DATE"
	case schema.TypeDateTime:
		return "TIMESTAMPTZ"
	case schema.TypeJSON:
		return "JSONB"
	default:
		return "TEXT"
	}
}

// defaultLiteral renders a column default as a SQL literal. Postgres forbids
// bind placeholders inside DDL, so defaults are the one place values are
// rendered inline; strings are escaped by doubling single quotes.
func defaultLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return "NULL"
		}
		return "'" + strings.ReplaceAll(string(data), "'", "''") + "'"
	}
}

// columnDefSQL renders one column definition for CREATE TABLE / ADD COLUMN.
func columnDefSQL(c *schema.Column) string {
	var b strings.Builder
	b.WriteString(quoteIdent(c.Name))
	b.WriteString(" ")
	b.WriteString(columnTypeSQL(c))
	if c.IsPrimaryKey {
		b.WriteString(" PRIMARY KEY")
	}
	if !c.Nullable && !c.IsPrimaryKey {
		b.WriteString(" NOT NULL")
	}
	if c.Default != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(defaultLiteral(c.Default))
	}
	return b.String()
}

// buildWhere renders criteria as a WHERE clause, appending bind values to
// args. An empty criteria list yields an empty clause.
func buildWhere(criteria []schema.Condition, args *[]any) (string, error) {
	if len(criteria) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(criteria))
	for _, c := range criteria {
		col := quoteIdent(c.Column)
		switch c.Operator {
		case "eq":
			*args = append(*args, c.Value)
			clauses = append(clauses, fmt.Sprintf("%s = $%d", col, len(*args)))
		case "neq":
			*args = append(*args, c.Value)
			clauses = append(clauses, fmt.Sprintf("%s <> $%d", col, len(*args)))
		case "gt":
			*args = append(*args, c.Value)
			clauses = append(clauses, fmt.Sprintf("%s > $%d", col, len(*args)))
		case "gte":
			*args = append(*args, c.Value)
			clauses = append(clauses, fmt.Sprintf("%s >= $%d", col, len(*args)))
		case "lt":
			*args = append(*args, c.Value)
			clauses = append(clauses, fmt.Sprintf("%s < $%d", col, len(*args)))
		case "lte":
			*args = append(*args, c.Value)
			clauses = append(clauses, fmt.Sprintf("%s <= $%d", col, len(*args)))
		case "contains":
			// strpos treats the needle literally; LIKE would let % and _
			// in the value match wider than a substring check.
			*args = append(*args, c.Value)
			clauses = append(clauses, fmt.Sprintf("strpos(%s, $%d) > 0", col, len(*args)))
		case "in":
			items, ok := c.Value.([]any)
			if !ok {
				return "", fmt.Errorf("%w: in operator requires an array value", schema.ErrValidation)
			}
			if len(items) == 0 {
				clauses = append(clauses, "FALSE")
				continue
			}
			placeholders := make([]string, 0, len(items))
			for _, item := range items {
				*args = append(*args, item)
				placeholders = append(placeholders, fmt.Sprintf("$%d", len(*args)))
			}
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", ")))
		default:
			return "", fmt.Errorf("%w: unknown operator %q", schema.ErrValidation, c.Operator)
		}
	}
	return " WHERE " + strings.Join(clauses, " AND "), nil
}

// buildOrderBy renders ORDER BY keys. Nulls always sort last.
func buildOrderBy(keys []operation.OrderKey) string {
	if len(keys) == 0 {
		return ""
	}
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		dir := "ASC"
		if key.Direction == "desc" {
			dir = "DESC"
		}
		parts = append(parts, fmt.Sprintf("%s %s NULLS LAST", quoteIdent(key.Column), dir))
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// privilegeSQL maps the workspace privilege vocabulary onto Postgres table
// privileges. Privileges without a table-level SQL equivalent (alter, drop,
// manage_permissions) are tracked in the local document only.
var privilegeSQL = map[string]string{
	schema.PrivilegeSelect: "SELECT",
	schema.PrivilegeInsert: "INSERT",
	schema.PrivilegeUpdate: "UPDATE",
	schema.PrivilegeDelete: "DELETE",
}

func sqlPrivileges(privileges []string) []string {
	var mapped []string
	for _, p := range privileges {
		if kw, ok := privilegeSQL[p]; ok {
			mapped = append(mapped, kw)
		}
	}
	return mapped
}

// grantStatements renders the remote half of a replace-grant. The whole
// SQL-representable set is revoked first so the catalog converges to the new
// subset; a bare additive GRANT would let a narrowed re-grant keep privileges
// the document no longer holds.
func grantStatements(table, role string, privileges []string) []string {
	stmts := []string{fmt.Sprintf("REVOKE %s ON %s FROM %s",
		strings.Join(sqlPrivileges(schema.Privileges), ", "), quoteIdent(table), quoteIdent(role))}
	if mapped := sqlPrivileges(privileges); len(mapped) > 0 {
		stmts = append(stmts, fmt.Sprintf("GRANT %s ON %s TO %s",
			strings.Join(mapped, ", "), quoteIdent(table), quoteIdent(role)))
	}
	return stmts
}

// revokeStatement renders a subtractive revoke. Privileges without a SQL
// equivalent yield no statement.
func revokeStatement(table, role string, privileges []string) (string, bool) {
	mapped := sqlPrivileges(privileges)
	if len(mapped) == 0 {
		return "", false
	}
	return fmt.Sprintf("REVOKE %s ON %s FROM %s",
		strings.Join(mapped, ", "), quoteIdent(table), quoteIdent(role)), true
}
