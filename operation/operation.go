// Package operation defines the closed vocabulary of typed change operations
// consumed by the engine: four DDL kinds, three DML kinds, one DQL kind and
// two DCL kinds. Operations are produced externally (by a planner or an API
// caller), consumed once and never persisted.
package operation

import "f0oster/schemadesk/schema"

// Kind discriminates the ten operation shapes. The full set is enumerated
// here and nowhere else; dispatch sites type-switch over the union so an
// eleventh kind is a compile-checked change everywhere.
type Kind string

const (
	KindCreateTable Kind = "create_table"
	KindDropTable   Kind = "drop_table"
	KindAddColumn   Kind = "add_column"
	KindDropColumn  Kind = "drop_column"
	KindInsert      Kind = "insert"
	KindUpdate      Kind = "update"
	KindDelete      Kind = "delete"
	KindSelect      Kind = "select"
	KindGrant       Kind = "grant"
	KindRevoke      Kind = "revoke"
)

// Category is the SQL statement class an operation belongs to.
type Category string

const (
	CategoryDDL Category = "DDL"
	CategoryDML Category = "DML"
	CategoryDQL Category = "DQL"
	CategoryDCL Category = "DCL"
)

// Category derives the statement class from the kind.
func (k Kind) Category() Category {
	switch k {
	case KindCreateTable, KindDropTable, KindAddColumn, KindDropColumn:
		return CategoryDDL
	case KindInsert, KindUpdate, KindDelete:
		return CategoryDML
	case KindSelect:
		return CategoryDQL
	case KindGrant, KindRevoke:
		return CategoryDCL
	}
	return ""
}

// Operation is the closed tagged union of the ten change kinds.
type Operation interface {
	Kind() Kind
	// Target names the table the operation acts on.
	Target() string

	isOperation()
}

// IfExists modes for CreateTable.
const (
	IfExistsAbort   = "abort"
	IfExistsSkip    = "skip"
	IfExistsReplace = "replace"
)

// CreateTable creates a table from a blueprint of column definitions.
type CreateTable struct {
	Table       string          `json:"table"`
	Description string          `json:"description,omitempty"`
	Columns     []schema.Column `json:"columns"`
	// IfExists is one of abort (default), skip or replace.
	IfExists string `json:"ifExists,omitempty"`
}

// DropTable removes a table. With IfExists set a missing table is skipped
// instead of failing.
type DropTable struct {
	Table    string `json:"table"`
	IfExists bool   `json:"ifExists,omitempty"`
}

// AddColumn adds one column, optionally at a requested ordinal position.
type AddColumn struct {
	Table    string        `json:"table"`
	Column   schema.Column `json:"column"`
	Position *int          `json:"position,omitempty"`
}

// DropColumn removes one column and strips it from every row.
type DropColumn struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// Insert appends rows built from the table's declared columns.
type Insert struct {
	Table string       `json:"table"`
	Rows  []schema.Row `json:"rows"`
}

// Update applies Set to every row matching Where.
type Update struct {
	Table string             `json:"table"`
	Set   map[string]any     `json:"set"`
	Where []schema.Condition `json:"where,omitempty"`
}

// Delete removes every row matching Where.
type Delete struct {
	Table string             `json:"table"`
	Where []schema.Condition `json:"where,omitempty"`
}

// OrderKey is one sort key of a select.
type OrderKey struct {
	Column string `json:"column"`
	// Direction is "asc" (default) or "desc".
	Direction string `json:"direction,omitempty"`
}

// Select projects, filters, orders and pages rows.
type Select struct {
	Table   string             `json:"table"`
	Columns []string           `json:"columns,omitempty"`
	Where   []schema.Condition `json:"where,omitempty"`
	OrderBy []OrderKey         `json:"orderBy,omitempty"`
	Limit   int                `json:"limit,omitempty"`
}

// Grant replaces a role's permission entry on a table. The role is created
// implicitly when unknown.
type Grant struct {
	Table           string   `json:"table"`
	Role            string   `json:"role"`
	RoleDescription string   `json:"roleDescription,omitempty"`
	Privileges      []string `json:"privileges"`
}

// Revoke subtracts privileges from a role's permission entry, removing the
// entry entirely once empty.
type Revoke struct {
	Table      string   `json:"table"`
	Role       string   `json:"role"`
	Privileges []string `json:"privileges"`
}

func (o *CreateTable) Kind() Kind { return KindCreateTable }
func (o *DropTable) Kind() Kind   { return KindDropTable }
func (o *AddColumn) Kind() Kind   { return KindAddColumn }
func (o *DropColumn) Kind() Kind  { return KindDropColumn }
func (o *Insert) Kind() Kind      { return KindInsert }
func (o *Update) Kind() Kind      { return KindUpdate }
func (o *Delete) Kind() Kind      { return KindDelete }
func (o *Select) Kind() Kind      { return KindSelect }
func (o *Grant) Kind() Kind       { return KindGrant }
func (o *Revoke) Kind() Kind      { return KindRevoke }

func (o *CreateTable) Target() string { return o.Table }
func (o *DropTable) Target() string   { return o.Table }
func (o *AddColumn) Target() string   { return o.Table }
func (o *DropColumn) Target() string  { return o.Table }
func (o *Insert) Target() string      { return o.Table }
func (o *Update) Target() string      { return o.Table }
func (o *Delete) Target() string      { return o.Table }
func (o *Select) Target() string      { return o.Table }
func (o *Grant) Target() string       { return o.Table }
func (o *Revoke) Target() string      { return o.Table }

func (*CreateTable) isOperation() {}
func (*DropTable) isOperation()   {}
func (*AddColumn) isOperation()   {}
func (*DropColumn) isOperation()  {}
func (*Insert) isOperation()      {}
func (*Update) isOperation()      {}
func (*Delete) isOperation()      {}
func (*Select) isOperation()      {}
func (*Grant) isOperation()       {}
func (*Revoke) isOperation()      {}
