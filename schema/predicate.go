package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Condition is one column/operator/value filter. Conditions combine
// conjunctively.
type Condition struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// Predicate tests one row against compiled criteria.
type Predicate func(Row) bool

var operators = map[string]bool{
	"eq": true, "neq": true,
	"gt": true, "gte": true, "lt": true, "lte": true,
	"contains": true, "in": true,
}

// BuildPredicate compiles criteria into a single row test. Empty criteria
// compile to "always true". Rows with operands a condition cannot compare
// are excluded, never an error: ordering comparisons need both operands
// numeric, contains needs two strings and in needs an array value.
func BuildPredicate(criteria []Condition) (Predicate, error) {
	for _, c := range criteria {
		if !operators[c.Operator] {
			return nil, fmt.Errorf("%w: unknown operator %q", ErrValidation, c.Operator)
		}
		if strings.TrimSpace(c.Column) == "" {
			return nil, fmt.Errorf("%w: criteria condition has no column", ErrValidation)
		}
	}
	if len(criteria) == 0 {
		return func(Row) bool { return true }, nil
	}
	return func(row Row) bool {
		for _, c := range criteria {
			if !matchCondition(row, c) {
				return false
			}
		}
		return true
	}, nil
}

func matchCondition(row Row, c Condition) bool {
	val := row[c.Column]
	switch c.Operator {
	case "eq":
		return looseEqual(val, c.Value)
	case "neq":
		return !looseEqual(val, c.Value)
	case "gt", "gte", "lt", "lte":
		a, aok := AsNumber(val)
		b, bok := AsNumber(c.Value)
		if !aok || !bok {
			return false
		}
		switch c.Operator {
		case "gt":
			return a > b
		case "gte":
			return a >= b
		case "lt":
			return a < b
		default:
			return a <= b
		}
	case "contains":
		s, ok := val.(string)
		sub, ok2 := c.Value.(string)
		if !ok || !ok2 {
			return false
		}
		return strings.Contains(s, sub)
	case "in":
		items, ok := c.Value.([]any)
		if !ok {
			return false
		}
		for _, item := range items {
			if looseEqual(val, item) {
				return true
			}
		}
		return false
	}
	return false
}

func looseEqual(a, b any) bool {
	if af, aok := AsNumber(a); aok {
		if bf, bok := AsNumber(b); bok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// AsNumber widens any Go numeric to float64.
func AsNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
