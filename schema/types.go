package schema

import "time"

// Column types understood by the coercion library. Any other type string is
// passed through untouched.
const (
	TypeText     = "text"
	TypeUUID     = "uuid"
	TypeInteger  = "integer"
	TypeFloat    = "float"
	TypeBoolean  = "boolean"
	TypeDate     = "date"
	TypeDateTime = "datetime"
	TypeJSON     = "json"
)

// Table-level privileges grantable to a role.
const (
	PrivilegeSelect            = "select"
	PrivilegeInsert            = "insert"
	PrivilegeUpdate            = "update"
	PrivilegeDelete            = "delete"
	PrivilegeAlter             = "alter"
	PrivilegeDrop              = "drop"
	PrivilegeManagePermissions = "manage_permissions"
)

// Privileges is the fixed privilege vocabulary, in canonical order.
var Privileges = []string{
	PrivilegeSelect,
	PrivilegeInsert,
	PrivilegeUpdate,
	PrivilegeDelete,
	PrivilegeAlter,
	PrivilegeDrop,
	PrivilegeManagePermissions,
}

// IsPrivilege reports whether name is part of the privilege vocabulary.
// The name must already be lowercased.
func IsPrivilege(name string) bool {
	for _, p := range Privileges {
		if p == name {
			return true
		}
	}
	return false
}

// DocumentVersion is stamped into the meta block of every new document.
const DocumentVersion = "1.0"

// AdminRole is created in every fresh document.
const AdminRole = "admin"

// Meta holds document-level bookkeeping. Revision increases by exactly one
// per successful mutation; UpdatedAt tracks the latest mutation.
type Meta struct {
	Version   string    `json:"version"`
	Revision  int64     `json:"revision"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Database is the full workspace document: the local table store plus roles.
// TableOrder preserves table insertion order, which Go maps do not.
type Database struct {
	Meta       Meta              `json:"meta"`
	TableOrder []string          `json:"tableOrder"`
	Tables     map[string]*Table `json:"tables"`
	Roles      map[string]*Role  `json:"roles"`
}

// Table holds a relational table: its schema, rows and per-role permissions.
// ColumnOrder is kept in lockstep with the Columns map.
type Table struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	PrimaryKey  string                 `json:"primaryKey,omitempty"`
	ColumnOrder []string               `json:"columnOrder"`
	Columns     map[string]*Column     `json:"columns"`
	Permissions map[string]*Permission `json:"permissions,omitempty"`
	Rows        []Row                  `json:"rows"`
	RowCount    int                    `json:"rowCount"`
}

// Column describes one declared column.
type Column struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Nullable     bool   `json:"nullable"`
	Default      any    `json:"default,omitempty"`
	IsPrimaryKey bool   `json:"isPrimaryKey,omitempty"`
}

// Row is an open map whose keys must all be declared columns of the owning
// table.
type Row map[string]any

// Permission is one role's privilege set on one table. An entry whose
// privilege set empties out is removed entirely.
type Permission struct {
	Role       string    `json:"role"`
	Privileges []string  `json:"privileges"`
	GrantedAt  time.Time `json:"grantedAt"`
}

// Role is a named grantee, created implicitly on first grant.
type Role struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewDatabase returns a fresh document with the built-in admin role.
func NewDatabase() *Database {
	now := time.Now().UTC()
	return &Database{
		Meta: Meta{
			Version:   DocumentVersion,
			Revision:  0,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Tables: map[string]*Table{},
		Roles: map[string]*Role{
			AdminRole: {
				Name:        AdminRole,
				Description: "Built-in administrative role",
				CreatedAt:   now,
				UpdatedAt:   now,
			},
		},
	}
}

// Table returns the named table, if present.
func (d *Database) Table(name string) (*Table, bool) {
	t, ok := d.Tables[name]
	return t, ok
}

// PutTable registers a table, preserving insertion order for new names.
func (d *Database) PutTable(t *Table) {
	if _, exists := d.Tables[t.Name]; !exists {
		d.TableOrder = append(d.TableOrder, t.Name)
	}
	d.Tables[t.Name] = t
}

// RemoveTable drops a table from the document and its insertion order.
func (d *Database) RemoveTable(name string) {
	delete(d.Tables, name)
	for i, n := range d.TableOrder {
		if n == name {
			d.TableOrder = append(d.TableOrder[:i], d.TableOrder[i+1:]...)
			break
		}
	}
}

// Column returns the named column, if declared.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.Columns[name]
	return c, ok
}

// InsertColumnAt adds a column at the requested ordinal. A position outside
// the current order appends at the end.
func (t *Table) InsertColumnAt(c *Column, position int) {
	if t.Columns == nil {
		t.Columns = map[string]*Column{}
	}
	t.Columns[c.Name] = c
	if position < 0 || position >= len(t.ColumnOrder) {
		t.ColumnOrder = append(t.ColumnOrder, c.Name)
		return
	}
	t.ColumnOrder = append(t.ColumnOrder, "")
	copy(t.ColumnOrder[position+1:], t.ColumnOrder[position:])
	t.ColumnOrder[position] = c.Name
}

// RemoveColumn drops a column from the schema and from every row.
func (t *Table) RemoveColumn(name string) {
	delete(t.Columns, name)
	for i, n := range t.ColumnOrder {
		if n == name {
			t.ColumnOrder = append(t.ColumnOrder[:i], t.ColumnOrder[i+1:]...)
			break
		}
	}
	for _, row := range t.Rows {
		delete(row, name)
	}
}
