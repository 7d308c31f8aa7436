package engine_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"f0oster/schemadesk/engine"
	"f0oster/schemadesk/history"
	"f0oster/schemadesk/operation"
	"f0oster/schemadesk/schema"
	"f0oster/schemadesk/storage"
)

func newTestEngine(t *testing.T) (*engine.Engine, *history.Memory) {
	t.Helper()
	docs := storage.NewDocumentStore(filepath.Join(t.TempDir(), "workspace.json"))
	recorder := history.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(docs, recorder, logger)
	if err := eng.Load(context.Background(), nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return eng, recorder
}

func mustExecute(t *testing.T, eng *engine.Engine, op operation.Operation) *operation.ExecutionRecord {
	t.Helper()
	record, err := eng.Execute(context.Background(), op, nil)
	if err != nil {
		t.Fatalf("%s on %q: %v", op.Kind(), op.Target(), err)
	}
	return record
}

func usersTable() *operation.CreateTable {
	return &operation.CreateTable{
		Table: "users",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInteger, IsPrimaryKey: true},
			{Name: "name", Type: schema.TypeText, Nullable: true},
			{Name: "active", Type: schema.TypeBoolean, Nullable: true, Default: true},
		},
	}
}

func TestLoadFreshDocument(t *testing.T) {
	eng, _ := newTestEngine(t)
	doc := eng.Document()
	if doc.Meta.Version != schema.DocumentVersion {
		t.Errorf("version %q, want %q", doc.Meta.Version, schema.DocumentVersion)
	}
	if doc.Meta.Revision != 0 {
		t.Errorf("fresh document revision %d, want 0", doc.Meta.Revision)
	}
	if _, ok := doc.Roles[schema.AdminRole]; !ok {
		t.Errorf("fresh document lacks the built-in admin role")
	}
}

func TestCreateTableModes(t *testing.T) {
	eng, _ := newTestEngine(t)

	record := mustExecute(t, eng, usersTable())
	if record.Status != operation.StatusSuccess {
		t.Fatalf("status %q, want success", record.Status)
	}
	if eng.Document().Meta.Revision != 1 {
		t.Errorf("revision %d after one mutation, want 1", eng.Document().Meta.Revision)
	}

	// Default mode aborts on an existing table.
	_, err := eng.Execute(context.Background(), usersTable(), nil)
	if !errors.Is(err, schema.ErrTableExists) {
		t.Fatalf("expected table-exists error, got %v", err)
	}

	// Skip leaves the table and the revision untouched.
	skip := usersTable()
	skip.IfExists = operation.IfExistsSkip
	record = mustExecute(t, eng, skip)
	if record.Status != operation.StatusSkipped {
		t.Errorf("status %q, want skipped", record.Status)
	}
	if eng.Document().Meta.Revision != 1 {
		t.Errorf("skipped create bumped the revision to %d", eng.Document().Meta.Revision)
	}

	// Replace rebuilds the table from the new blueprint.
	mustExecute(t, eng, &operation.Insert{Table: "users", Rows: []schema.Row{{"id": 1, "name": "a"}}})
	replace := usersTable()
	replace.IfExists = operation.IfExistsReplace
	record = mustExecute(t, eng, replace)
	if record.Status != operation.StatusSuccess {
		t.Fatalf("status %q, want success", record.Status)
	}
	table, _ := eng.Document().Table("users")
	if len(table.Rows) != 0 {
		t.Errorf("replaced table kept %d rows", len(table.Rows))
	}
}

func TestCreateTableValidation(t *testing.T) {
	eng, _ := newTestEngine(t)

	tests := []struct {
		name string
		op   *operation.CreateTable
		want error
	}{
		{"empty name", &operation.CreateTable{Table: " ", Columns: []schema.Column{{Name: "id", Type: "integer"}}}, schema.ErrValidation},
		{"no columns", &operation.CreateTable{Table: "t"}, schema.ErrValidation},
		{"duplicate column", &operation.CreateTable{Table: "t", Columns: []schema.Column{
			{Name: "a", Type: "text", Nullable: true}, {Name: "a", Type: "text", Nullable: true},
		}}, schema.ErrValidation},
		{"two primary keys", &operation.CreateTable{Table: "t", Columns: []schema.Column{
			{Name: "a", Type: "integer", IsPrimaryKey: true}, {Name: "b", Type: "integer", IsPrimaryKey: true},
		}}, schema.ErrValidation},
		{"bad default", &operation.CreateTable{Table: "t", Columns: []schema.Column{
			{Name: "a", Type: "integer", Nullable: true, Default: "not a number"},
		}}, schema.ErrTypeMismatch},
		{"bad ifExists", &operation.CreateTable{Table: "t", IfExists: "merge", Columns: []schema.Column{
			{Name: "a", Type: "text", Nullable: true},
		}}, schema.ErrValidation},
	}
	for _, test := range tests {
		_, err := eng.Execute(context.Background(), test.op, nil)
		if !errors.Is(err, test.want) {
			t.Errorf("%s: got %v, want %v", test.name, err, test.want)
		}
	}
}

func TestDropTable(t *testing.T) {
	eng, _ := newTestEngine(t)
	mustExecute(t, eng, usersTable())

	record := mustExecute(t, eng, &operation.DropTable{Table: "users"})
	if record.Status != operation.StatusSuccess {
		t.Fatalf("status %q, want success", record.Status)
	}
	if _, ok := eng.Document().Table("users"); ok {
		t.Errorf("table still present after drop")
	}

	_, err := eng.Execute(context.Background(), &operation.DropTable{Table: "users"}, nil)
	if !errors.Is(err, schema.ErrTableNotFound) {
		t.Errorf("expected table-not-found error, got %v", err)
	}

	record = mustExecute(t, eng, &operation.DropTable{Table: "users", IfExists: true})
	if record.Status != operation.StatusSkipped {
		t.Errorf("status %q, want skipped", record.Status)
	}
}

func TestAddColumn(t *testing.T) {
	eng, _ := newTestEngine(t)
	mustExecute(t, eng, usersTable())
	mustExecute(t, eng, &operation.Insert{Table: "users", Rows: []schema.Row{{"id": 1}}})

	// Non-nullable without default is refused on a non-empty table.
	_, err := eng.Execute(context.Background(), &operation.AddColumn{
		Table:  "users",
		Column: schema.Column{Name: "email", Type: schema.TypeText},
	}, nil)
	if !errors.Is(err, schema.ErrNotNullViolation) {
		t.Fatalf("expected not-null violation, got %v", err)
	}

	// A defaulted column backfills existing rows.
	position := 1
	mustExecute(t, eng, &operation.AddColumn{
		Table:    "users",
		Column:   schema.Column{Name: "score", Type: schema.TypeInteger, Default: "10"},
		Position: &position,
	})
	table, _ := eng.Document().Table("users")
	if table.ColumnOrder[1] != "score" {
		t.Errorf("column order %v, want score at index 1", table.ColumnOrder)
	}
	if table.Rows[0]["score"] != int64(10) {
		t.Errorf("backfilled value %#v, want int64(10) (default coerced)", table.Rows[0]["score"])
	}

	// Second primary key is refused.
	_, err = eng.Execute(context.Background(), &operation.AddColumn{
		Table:  "users",
		Column: schema.Column{Name: "id2", Type: schema.TypeInteger, IsPrimaryKey: true},
	}, nil)
	if !errors.Is(err, schema.ErrValidation) {
		t.Errorf("expected validation error for second primary key, got %v", err)
	}
}

func TestDropColumn(t *testing.T) {
	eng, _ := newTestEngine(t)
	mustExecute(t, eng, usersTable())

	_, err := eng.Execute(context.Background(), &operation.DropColumn{Table: "users", Column: "id"}, nil)
	if !errors.Is(err, schema.ErrValidation) {
		t.Errorf("dropping the primary key must fail, got %v", err)
	}

	_, err = eng.Execute(context.Background(), &operation.DropColumn{Table: "users", Column: "ghost"}, nil)
	if !errors.Is(err, schema.ErrColumnNotFound) {
		t.Errorf("expected column-not-found error, got %v", err)
	}

	mustExecute(t, eng, &operation.DropColumn{Table: "users", Column: "name"})
	table, _ := eng.Document().Table("users")
	if _, ok := table.Column("name"); ok {
		t.Errorf("column still declared after drop")
	}
}

func TestInsertDefaultsAndCoercion(t *testing.T) {
	eng, _ := newTestEngine(t)
	mustExecute(t, eng, usersTable())

	record := mustExecute(t, eng, &operation.Insert{Table: "users", Rows: []schema.Row{
		{"id": "7", "name": "eve"},
	}})
	if record.Affected != 1 {
		t.Errorf("affected %d, want 1", record.Affected)
	}
	table, _ := eng.Document().Table("users")
	row := table.Rows[0]
	if row["id"] != int64(7) {
		t.Errorf("id %#v, want int64(7)", row["id"])
	}
	if row["active"] != true {
		t.Errorf("active %#v, want default true", row["active"])
	}
}

func TestInsertPrimaryKeyChecks(t *testing.T) {
	eng, _ := newTestEngine(t)
	mustExecute(t, eng, usersTable())
	mustExecute(t, eng, &operation.Insert{Table: "users", Rows: []schema.Row{{"id": 1}}})

	_, err := eng.Execute(context.Background(), &operation.Insert{Table: "users", Rows: []schema.Row{
		{"name": "no key"},
	}}, nil)
	if !errors.Is(err, schema.ErrValidation) {
		t.Errorf("missing key: got %v", err)
	}

	_, err = eng.Execute(context.Background(), &operation.Insert{Table: "users", Rows: []schema.Row{
		{"id": 2}, {"id": 2},
	}}, nil)
	if !errors.Is(err, schema.ErrDuplicateKey) {
		t.Errorf("duplicate within batch: got %v", err)
	}

	_, err = eng.Execute(context.Background(), &operation.Insert{Table: "users", Rows: []schema.Row{
		{"id": 1},
	}}, nil)
	if !errors.Is(err, schema.ErrDuplicateKey) {
		t.Errorf("duplicate against existing rows: got %v", err)
	}
}

func TestInsertRemoteModeDefersExistingKeyCheck(t *testing.T) {
	eng, _ := newTestEngine(t)
	mustExecute(t, eng, usersTable())
	mustExecute(t, eng, &operation.Insert{Table: "users", Rows: []schema.Row{{"id": 1}}})

	// With a replicator attached, duplicates against existing rows are left
	// to the backend constraint. Batch-internal duplicates are still caught.
	_, err := eng.Execute(context.Background(), &operation.Insert{Table: "users", Rows: []schema.Row{
		{"id": 1},
	}}, stubReplicator{})
	if err != nil {
		t.Errorf("remote mode must not pre-check existing keys: %v", err)
	}

	_, err = eng.Execute(context.Background(), &operation.Insert{Table: "users", Rows: []schema.Row{
		{"id": 3}, {"id": 3},
	}}, stubReplicator{})
	if !errors.Is(err, schema.ErrDuplicateKey) {
		t.Errorf("batch duplicate must still fail in remote mode: got %v", err)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	eng, _ := newTestEngine(t)
	mustExecute(t, eng, usersTable())
	mustExecute(t, eng, &operation.Insert{Table: "users", Rows: []schema.Row{
		{"id": 1, "name": "a"}, {"id": 2, "name": "b"}, {"id": 3, "name": "c"},
	}})

	record := mustExecute(t, eng, &operation.Update{
		Table: "users",
		Set:   map[string]any{"active": "false"},
		Where: []schema.Condition{{Column: "id", Operator: "gte", Value: float64(2)}},
	})
	if record.Affected != 2 {
		t.Errorf("updated %d rows, want 2", record.Affected)
	}
	table, _ := eng.Document().Table("users")
	if table.Rows[1]["active"] != false {
		t.Errorf("set value not coerced to boolean: %#v", table.Rows[1]["active"])
	}

	_, err := eng.Execute(context.Background(), &operation.Update{
		Table: "users",
		Set:   map[string]any{"ghost": 1},
	}, nil)
	if !errors.Is(err, schema.ErrColumnNotFound) {
		t.Errorf("update of unknown column: got %v", err)
	}

	record = mustExecute(t, eng, &operation.Delete{
		Table: "users",
		Where: []schema.Condition{{Column: "name", Operator: "eq", Value: "a"}},
	})
	if record.Affected != 1 {
		t.Errorf("deleted %d rows, want 1", record.Affected)
	}
	if table.RowCount != 2 {
		t.Errorf("row count %d after delete, want 2", table.RowCount)
	}
}

func TestSelect(t *testing.T) {
	eng, _ := newTestEngine(t)
	mustExecute(t, eng, usersTable())
	rows := make([]schema.Row, 0, 37)
	for i := 1; i <= 37; i++ {
		rows = append(rows, schema.Row{"id": i, "name": "n"})
	}
	mustExecute(t, eng, &operation.Insert{Table: "users", Rows: rows})
	before := eng.Document().Meta.Revision

	record := mustExecute(t, eng, &operation.Select{Table: "users", Limit: 10})
	if record.Result == nil {
		t.Fatalf("select produced no result set")
	}
	if len(record.Result.Rows) != 10 || record.Result.RowCount != 37 {
		t.Errorf("page %d of %d, want 10 of 37", len(record.Result.Rows), record.Result.RowCount)
	}
	if eng.Document().Meta.Revision != before {
		t.Errorf("select bumped the revision")
	}

	// Zero limit falls back to the default, oversized limits are clamped.
	record = mustExecute(t, eng, &operation.Select{Table: "users"})
	if record.Result.Limit != 25 {
		t.Errorf("default limit %d, want 25", record.Result.Limit)
	}
	record = mustExecute(t, eng, &operation.Select{Table: "users", Limit: 9999})
	if record.Result.Limit != 200 {
		t.Errorf("clamped limit %d, want 200", record.Result.Limit)
	}

	_, err := eng.Execute(context.Background(), &operation.Select{Table: "users", Columns: []string{"ghost"}}, nil)
	if !errors.Is(err, schema.ErrColumnNotFound) {
		t.Errorf("projection of unknown column: got %v", err)
	}
	_, err = eng.Execute(context.Background(), &operation.Select{
		Table:   "users",
		OrderBy: []operation.OrderKey{{Column: "ghost"}},
	}, nil)
	if !errors.Is(err, schema.ErrColumnNotFound) {
		t.Errorf("ordering by unknown column: got %v", err)
	}
}

func TestGrantRevoke(t *testing.T) {
	eng, _ := newTestEngine(t)
	mustExecute(t, eng, usersTable())

	// Grant creates the role implicitly and normalizes privilege names.
	mustExecute(t, eng, &operation.Grant{
		Table:      "users",
		Role:       "analyst",
		Privileges: []string{"SELECT", "select", " Insert "},
	})
	if _, ok := eng.Document().Roles["analyst"]; !ok {
		t.Fatalf("grant did not create the role")
	}
	table, _ := eng.Document().Table("users")
	perm := table.Permissions["analyst"]
	if len(perm.Privileges) != 2 || perm.Privileges[0] != "select" || perm.Privileges[1] != "insert" {
		t.Fatalf("privileges %v, want [select insert]", perm.Privileges)
	}

	// A second grant replaces the entry instead of merging.
	mustExecute(t, eng, &operation.Grant{Table: "users", Role: "analyst", Privileges: []string{"delete"}})
	perm = table.Permissions["analyst"]
	if len(perm.Privileges) != 1 || perm.Privileges[0] != "delete" {
		t.Fatalf("grant merged instead of replacing: %v", perm.Privileges)
	}

	_, err := eng.Execute(context.Background(), &operation.Grant{
		Table: "users", Role: "analyst", Privileges: []string{"superuser"},
	}, nil)
	if !errors.Is(err, schema.ErrUnknownPrivilege) {
		t.Errorf("unknown privilege: got %v", err)
	}

	_, err = eng.Execute(context.Background(), &operation.Revoke{
		Table: "users", Role: "stranger", Privileges: []string{"select"},
	}, nil)
	if !errors.Is(err, schema.ErrNoSuchPermission) {
		t.Errorf("revoke from unknown grantee: got %v", err)
	}

	// Revoking the last privilege removes the entry but keeps the role.
	mustExecute(t, eng, &operation.Revoke{Table: "users", Role: "analyst", Privileges: []string{"delete"}})
	if _, ok := table.Permissions["analyst"]; ok {
		t.Errorf("emptied permission entry still present")
	}
	if _, ok := eng.Document().Roles["analyst"]; !ok {
		t.Errorf("role must survive a full revoke")
	}
}

func TestHistoryRecording(t *testing.T) {
	eng, recorder := newTestEngine(t)
	mustExecute(t, eng, usersTable())
	mustExecute(t, eng, &operation.Insert{Table: "users", Rows: []schema.Row{{"id": 1}}})
	eng.Execute(context.Background(), &operation.DropTable{Table: "ghost"}, nil)

	entries := recorder.Entries()
	if len(entries) != 3 {
		t.Fatalf("recorded %d entries, want 3", len(entries))
	}
	if entries[0].OperationType != "DDL" || entries[0].Status != history.StatusSuccess {
		t.Errorf("first entry %+v", entries[0])
	}
	if entries[1].AffectedRows == nil || *entries[1].AffectedRows != 1 {
		t.Errorf("DML entry must carry affected rows: %+v", entries[1])
	}
	if entries[2].Status != history.StatusError || entries[2].ErrorMessage == "" {
		t.Errorf("failed operation must be recorded with its error: %+v", entries[2])
	}
	if len(entries[2].Tables) != 1 || entries[2].Tables[0] != "ghost" {
		t.Errorf("entry tables %v, want [ghost]", entries[2].Tables)
	}
}

func TestSummary(t *testing.T) {
	eng, _ := newTestEngine(t)
	mustExecute(t, eng, usersTable())
	mustExecute(t, eng, &operation.CreateTable{Table: "audit", Columns: []schema.Column{
		{Name: "at", Type: schema.TypeDateTime, Nullable: true},
	}})
	mustExecute(t, eng, &operation.Grant{Table: "users", Role: "analyst", Privileges: []string{"select"}})

	s := eng.Summary()
	if len(s.Tables) != 2 || s.Tables[0].Name != "users" || s.Tables[1].Name != "audit" {
		t.Fatalf("tables out of insertion order: %+v", s.Tables)
	}
	if s.Tables[0].Columns[0].Name != "id" {
		t.Errorf("columns out of declared order: %+v", s.Tables[0].Columns)
	}
	if len(s.Tables[0].Permissions) != 1 || s.Tables[0].Permissions[0].Role != "analyst" {
		t.Errorf("permissions %+v", s.Tables[0].Permissions)
	}
	wantRoles := []string{"admin", "analyst"}
	if len(s.Roles) != 2 || s.Roles[0] != wantRoles[0] || s.Roles[1] != wantRoles[1] {
		t.Errorf("roles %v, want %v", s.Roles, wantRoles)
	}
}

// stubReplicator satisfies storage.Replicator without doing anything. Used
// where only the remote-attached code path matters, not remote effects.
type stubReplicator struct{}

func (stubReplicator) CreateTable(context.Context, *schema.Table) error { return nil }
func (stubReplicator) DropTable(context.Context, string) error          { return nil }
func (stubReplicator) AddColumn(context.Context, *schema.Table, *schema.Column, int) error {
	return nil
}
func (stubReplicator) DropColumn(context.Context, *schema.Table, string) error { return nil }
func (stubReplicator) InsertRows(_ context.Context, _ *schema.Table, rows []schema.Row) (int64, error) {
	return int64(len(rows)), nil
}
func (stubReplicator) UpdateRows(context.Context, *schema.Table, schema.Row, []schema.Condition) (int64, error) {
	return 0, nil
}
func (stubReplicator) DeleteRows(context.Context, *schema.Table, []schema.Condition) (int64, error) {
	return 0, nil
}
func (stubReplicator) SelectRows(context.Context, *schema.Table, *storage.SelectQuery) (*operation.ResultSet, error) {
	return &operation.ResultSet{}, nil
}
func (stubReplicator) Grant(context.Context, *schema.Table, string, []string) error  { return nil }
func (stubReplicator) Revoke(context.Context, *schema.Table, string, []string) error { return nil }
func (stubReplicator) Begin(context.Context) error                                   { return nil }
func (stubReplicator) Commit(context.Context) error                                  { return nil }
func (stubReplicator) Rollback(context.Context) error                                { return nil }
func (stubReplicator) Snapshot(context.Context) (*schema.Database, error) {
	return schema.NewDatabase(), nil
}
