package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Accepted layouts for date/datetime input, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ValidateColumn checks the minimal invariants of a column definition.
func ValidateColumn(c *Column) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: column name must not be empty", ErrValidation)
	}
	if strings.TrimSpace(c.Type) == "" {
		return fmt.Errorf("%w: column %q has no declared type", ErrValidation, c.Name)
	}
	return nil
}

// CoerceValue maps a raw value to the canonical form for the column's
// declared type. Nil is accepted only for nullable columns. Types outside
// the known vocabulary pass the value through unchanged.
func CoerceValue(c *Column, raw any) (any, error) {
	if raw == nil {
		if !c.Nullable {
			return nil, fmt.Errorf("%w: column %q does not accept null", ErrNotNullViolation, c.Name)
		}
		return nil, nil
	}

	switch c.Type {
	case TypeText, TypeUUID:
		return coerceString(c, raw)
	case TypeInteger:
		return coerceInteger(c, raw)
	case TypeFloat:
		return coerceFloat(c, raw)
	case TypeBoolean:
		return coerceBoolean(c, raw)
	case TypeDate:
		t, err := coerceTime(c, raw)
		if err != nil {
			return nil, err
		}
		return t.Format("2006-01-02"), nil
	case TypeDateTime:
		t, err := coerceTime(c, raw)
		if err != nil {
			return nil, err
		}
		return t.UTC().Format(time.RFC3339), nil
	case TypeJSON:
		return coerceJSON(c, raw)
	default:
		return raw, nil
	}
}

func coerceString(c *Column, raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case bool, int, int32, int64, float32, float64:
		return fmt.Sprint(v), nil
	default:
		return nil, fmt.Errorf("%w: column %q expects a string, got %T", ErrTypeMismatch, c.Name, raw)
	}
}

func coerceInteger(c *Column, raw any) (any, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float32:
		return coerceInteger(c, float64(v))
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("%w: column %q expects an integer, got %v", ErrTypeMismatch, c.Name, v)
		}
		return int64(v), nil
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n, nil
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f == math.Trunc(f) {
			return int64(f), nil
		}
		return nil, fmt.Errorf("%w: column %q expects an integer, got %q", ErrTypeMismatch, c.Name, v)
	default:
		return nil, fmt.Errorf("%w: column %q expects an integer, got %T", ErrTypeMismatch, c.Name, raw)
	}
}

func coerceFloat(c *Column, raw any) (any, error) {
	switch v := raw.(type) {
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q expects a number, got %q", ErrTypeMismatch, c.Name, v)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%w: column %q expects a number, got %T", ErrTypeMismatch, c.Name, raw)
	}
}

func coerceBoolean(c *Column, raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("%w: column %q expects a boolean, got %q", ErrTypeMismatch, c.Name, v)
	default:
		return nil, fmt.Errorf("%w: column %q expects a boolean, got %T", ErrTypeMismatch, c.Name, raw)
	}
}

func coerceTime(c *Column, raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: column %q cannot parse %q as a date", ErrTypeMismatch, c.Name, v)
	default:
		return time.Time{}, fmt.Errorf("%w: column %q expects a date, got %T", ErrTypeMismatch, c.Name, raw)
	}
}

func coerceJSON(c *Column, raw any) (any, error) {
	if s, ok := raw.(string); ok {
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err != nil {
			return nil, fmt.Errorf("%w: column %q holds invalid JSON: %v", ErrParse, c.Name, err)
		}
		return parsed, nil
	}
	// Structured values (maps, slices, numbers, booleans) are stored as-is.
	return raw, nil
}
