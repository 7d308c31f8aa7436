package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Summary is a deterministic read-only projection of the document: tables in
// insertion order, columns in declared order.
type Summary struct {
	Version   string         `json:"version"`
	Revision  int64          `json:"revision"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Tables    []TableSummary `json:"tables"`
	Roles     []string       `json:"roles"`
}

type TableSummary struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	PrimaryKey  string              `json:"primaryKey,omitempty"`
	Columns     []ColumnSummary     `json:"columns"`
	RowCount    int                 `json:"rowCount"`
	Permissions []PermissionSummary `json:"permissions,omitempty"`
}

type ColumnSummary struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Default  any    `json:"default,omitempty"`
}

type PermissionSummary struct {
	Role       string   `json:"role"`
	Privileges []string `json:"privileges"`
}

// Summary projects the live document.
func (e *Engine) Summary() *Summary {
	doc := e.doc
	s := &Summary{
		Version:   doc.Meta.Version,
		Revision:  doc.Meta.Revision,
		UpdatedAt: doc.Meta.UpdatedAt,
	}
	for _, name := range doc.TableOrder {
		table := doc.Tables[name]
		ts := TableSummary{
			Name:        table.Name,
			Description: table.Description,
			PrimaryKey:  table.PrimaryKey,
			RowCount:    table.RowCount,
		}
		for _, colName := range table.ColumnOrder {
			col := table.Columns[colName]
			ts.Columns = append(ts.Columns, ColumnSummary{
				Name:     col.Name,
				Type:     col.Type,
				Nullable: col.Nullable,
				Default:  col.Default,
			})
		}
		roles := make([]string, 0, len(table.Permissions))
		for role := range table.Permissions {
			roles = append(roles, role)
		}
		sort.Strings(roles)
		for _, role := range roles {
			perm := table.Permissions[role]
			ts.Permissions = append(ts.Permissions, PermissionSummary{
				Role:       perm.Role,
				Privileges: append([]string(nil), perm.Privileges...),
			})
		}
		s.Tables = append(s.Tables, ts)
	}
	for role := range doc.Roles {
		s.Roles = append(s.Roles, role)
	}
	sort.Strings(s.Roles)
	return s
}

// PromptDigest renders a compact textual description of the schema plus up
// to maxRows sample rows per table, consumed by the external planner.
func (e *Engine) PromptDigest(maxRows int) string {
	var b strings.Builder
	doc := e.doc
	fmt.Fprintf(&b, "Database (revision %d, %d tables)\n", doc.Meta.Revision, len(doc.TableOrder))
	for _, name := range doc.TableOrder {
		table := doc.Tables[name]
		fmt.Fprintf(&b, "\nTable %s (%d rows)\n", table.Name, table.RowCount)
		if table.Description != "" {
			fmt.Fprintf(&b, "  %s\n", table.Description)
		}
		for _, colName := range table.ColumnOrder {
			col := table.Columns[colName]
			flags := ""
			if col.IsPrimaryKey {
				flags += " primary key"
			}
			if !col.Nullable {
				flags += " not null"
			}
			if col.Default != nil {
				flags += fmt.Sprintf(" default %v", col.Default)
			}
			fmt.Fprintf(&b, "  - %s %s%s\n", col.Name, col.Type, flags)
		}
		limit := maxRows
		if limit > len(table.Rows) {
			limit = len(table.Rows)
		}
		for i := 0; i < limit; i++ {
			row := table.Rows[i]
			values := make([]string, 0, len(table.ColumnOrder))
			for _, colName := range table.ColumnOrder {
				values = append(values, fmt.Sprintf("%s=%v", colName, row[colName]))
			}
			fmt.Fprintf(&b, "  sample: %s\n", strings.Join(values, ", "))
		}
	}
	return b.String()
}
