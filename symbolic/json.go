package symbolic

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ============================================================
// JSON Serialization
// ============================================================

func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

// ToMap returns the JSON tree of e as nested maps.
func ToMap(e Expr) map[string]interface{} { return e.toJSON() }

// ParseJSON decodes an expression tree from JSON text.
func ParseJSON(data []byte) (Expr, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return FromJSON(m)
}

// FromJSON builds an expression from a decoded tree. Numbers may be JSON
// numbers or strings ("inf", "-inf", "1e-3"); YAML-decoded integers are
// accepted too.
func FromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, fmt.Errorf("expression must be an object")
	}
	typ, ok := data["type"].(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("field 'type' must be a non-empty string")
	}

	subObj := func(field string) (Expr, error) {
		m, ok := data[field].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an object", typ, field)
		}
		e, err := FromJSON(m)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", typ, field, err)
		}
		return e, nil
	}

	subList := func(field string) ([]Expr, error) {
		var raw []interface{}
		switch v := data[field].(type) {
		case []interface{}:
			raw = v
		case []map[string]interface{}:
			for _, m := range v {
				raw = append(raw, m)
			}
		default:
			return nil, fmt.Errorf("%s: %q must be an array", typ, field)
		}
		out := make([]Expr, len(raw))
		for i, it := range raw {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%s: %q[%d] must be an object", typ, field, i)
			}
			e, err := FromJSON(m)
			if err != nil {
				return nil, fmt.Errorf("%s: %s[%d]: %w", typ, field, i, err)
			}
			out[i] = e
		}
		return out, nil
	}

	subString := func(field string) (string, error) {
		s, ok := data[field].(string)
		if !ok || s == "" {
			return "", fmt.Errorf("%s: %q must be a non-empty string", typ, field)
		}
		return s, nil
	}

	switch typ {
	case "num":
		v, err := parseNumber(data["value"])
		if err != nil {
			return nil, fmt.Errorf("num: %w", err)
		}
		return N(v), nil

	case "sym":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		return S(name), nil

	case "add", "mul":
		field := "terms"
		if typ == "mul" {
			field = "factors"
		}
		items, err := subList(field)
		if err != nil {
			return nil, err
		}
		if typ == "add" {
			return AddOf(items...), nil
		}
		return MulOf(items...), nil

	case "pow":
		base, err := subObj("base")
		if err != nil {
			return nil, err
		}
		exp, err := subObj("exp")
		if err != nil {
			return nil, err
		}
		return PowOf(base, exp), nil

	case "func":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		arg, err := subObj("arg")
		if err != nil {
			return nil, err
		}
		return FuncOf(name, arg)

	case "apply":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		args, err := subList("args")
		if err != nil {
			return nil, err
		}
		return ApplyOf(name, args...), nil

	case "fixed":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		v, err := parseNumber(data["value"])
		if err != nil {
			return nil, fmt.Errorf("fixed: %w", err)
		}
		return Pin(S(name), v), nil
	}
	return nil, fmt.Errorf("unknown expression type: %s", typ)
}

func parseNumber(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", n)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("missing 'value'")
	}
	return 0, fmt.Errorf("'value' must be a number, got %T", v)
}
