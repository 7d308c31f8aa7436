package operation_test

import (
	"errors"
	"testing"

	"f0oster/schemadesk/operation"
	"f0oster/schemadesk/schema"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		kind     operation.Kind
		category operation.Category
		target   string
	}{
		{
			"create table",
			`{"kind":"create_table","table":"users","columns":[{"name":"id","type":"uuid","isPrimaryKey":true}]}`,
			operation.KindCreateTable, operation.CategoryDDL, "users",
		},
		{
			"drop table",
			`{"kind":"drop_table","table":"users","ifExists":true}`,
			operation.KindDropTable, operation.CategoryDDL, "users",
		},
		{
			"add column",
			`{"kind":"add_column","table":"users","column":{"name":"age","type":"integer","nullable":true},"position":1}`,
			operation.KindAddColumn, operation.CategoryDDL, "users",
		},
		{
			"insert",
			`{"kind":"insert","table":"users","rows":[{"id":"a"}]}`,
			operation.KindInsert, operation.CategoryDML, "users",
		},
		{
			"update",
			`{"kind":"update","table":"users","set":{"age":3},"where":[{"column":"id","operator":"eq","value":"a"}]}`,
			operation.KindUpdate, operation.CategoryDML, "users",
		},
		{
			"select",
			`{"kind":"select","table":"users","orderBy":[{"column":"age","direction":"desc"}],"limit":5}`,
			operation.KindSelect, operation.CategoryDQL, "users",
		},
		{
			"grant",
			`{"kind":"grant","table":"users","role":"analyst","privileges":["select"]}`,
			operation.KindGrant, operation.CategoryDCL, "users",
		},
	}

	for _, test := range tests {
		op, err := operation.Decode([]byte(test.payload))
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		if op.Kind() != test.kind {
			t.Errorf("%s: kind %q, want %q", test.name, op.Kind(), test.kind)
		}
		if op.Kind().Category() != test.category {
			t.Errorf("%s: category %q, want %q", test.name, op.Kind().Category(), test.category)
		}
		if op.Target() != test.target {
			t.Errorf("%s: target %q, want %q", test.name, op.Target(), test.target)
		}
	}
}

func TestDecodeFieldBinding(t *testing.T) {
	op, err := operation.Decode([]byte(`{"kind":"add_column","table":"t","column":{"name":"n","type":"text"},"position":0}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	add, ok := op.(*operation.AddColumn)
	if !ok {
		t.Fatalf("decoded %T, want *operation.AddColumn", op)
	}
	if add.Position == nil || *add.Position != 0 {
		t.Errorf("explicit position 0 must survive decoding, got %v", add.Position)
	}

	op, err = operation.Decode([]byte(`{"kind":"add_column","table":"t","column":{"name":"n","type":"text"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op.(*operation.AddColumn).Position != nil {
		t.Errorf("absent position must decode as nil")
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := operation.Decode([]byte(`{"kind":"truncate","table":"users"}`))
	if !errors.Is(err, schema.ErrUnsupportedOperation) {
		t.Errorf("expected unsupported operation error, got %v", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, err := operation.Decode([]byte(`{broken`))
	if !errors.Is(err, schema.ErrParse) {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestDecodePlan(t *testing.T) {
	ops, err := operation.DecodePlan([]byte(`[
		{"kind":"create_table","table":"a","columns":[{"name":"id","type":"integer"}]},
		{"kind":"insert","table":"a","rows":[{"id":1}]}
	]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("decoded %d operations, want 2", len(ops))
	}
	if ops[0].Kind() != operation.KindCreateTable || ops[1].Kind() != operation.KindInsert {
		t.Errorf("plan order not preserved: %v, %v", ops[0].Kind(), ops[1].Kind())
	}

	if _, err := operation.DecodePlan([]byte(`[{"kind":"nope"}]`)); !errors.Is(err, schema.ErrUnsupportedOperation) {
		t.Errorf("expected unsupported operation error, got %v", err)
	}
}
