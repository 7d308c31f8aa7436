package schema_test

import (
	"errors"
	"testing"

	"f0oster/schemadesk/schema"
)

func TestBuildPredicate_EmptyCriteria(t *testing.T) {
	match, err := schema.BuildPredicate(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !match(schema.Row{"anything": 1}) {
		t.Errorf("empty criteria must match every row")
	}
}

func TestBuildPredicate_UnknownOperator(t *testing.T) {
	_, err := schema.BuildPredicate([]schema.Condition{{Column: "a", Operator: "like", Value: "x"}})
	if !errors.Is(err, schema.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestBuildPredicate_Operators(t *testing.T) {
	row := schema.Row{
		"age":  int64(30),
		"name": "alice",
		"tag":  nil,
	}

	tests := []struct {
		name      string
		condition schema.Condition
		want      bool
	}{
		{"eq number", schema.Condition{Column: "age", Operator: "eq", Value: float64(30)}, true},
		{"eq string", schema.Condition{Column: "name", Operator: "eq", Value: "alice"}, true},
		{"neq", schema.Condition{Column: "name", Operator: "neq", Value: "bob"}, true},
		{"gt", schema.Condition{Column: "age", Operator: "gt", Value: float64(18)}, true},
		{"gte boundary", schema.Condition{Column: "age", Operator: "gte", Value: float64(30)}, true},
		{"lt excluded non-numeric", schema.Condition{Column: "name", Operator: "lt", Value: "zed"}, false},
		{"lt excluded nil operand", schema.Condition{Column: "tag", Operator: "lt", Value: float64(1)}, false},
		{"contains", schema.Condition{Column: "name", Operator: "contains", Value: "lic"}, true},
		{"contains non-string excluded", schema.Condition{Column: "age", Operator: "contains", Value: "3"}, false},
		{"in matches", schema.Condition{Column: "name", Operator: "in", Value: []any{"bob", "alice"}}, true},
		{"in non-array excluded", schema.Condition{Column: "name", Operator: "in", Value: "alice"}, false},
		{"in numeric", schema.Condition{Column: "age", Operator: "in", Value: []any{float64(30)}}, true},
	}

	for _, test := range tests {
		match, err := schema.BuildPredicate([]schema.Condition{test.condition})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", test.name, err)
		}
		if got := match(row); got != test.want {
			t.Errorf("%s: got %v, want %v", test.name, got, test.want)
		}
	}
}

func TestBuildPredicate_Conjunction(t *testing.T) {
	match, err := schema.BuildPredicate([]schema.Condition{
		{Column: "age", Operator: "gte", Value: float64(18)},
		{Column: "name", Operator: "contains", Value: "a"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !match(schema.Row{"age": int64(20), "name": "carla"}) {
		t.Errorf("both conditions hold, row must match")
	}
	if match(schema.Row{"age": int64(20), "name": "bob"}) {
		t.Errorf("second condition fails, row must not match")
	}
}
