package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"alcyxob/plan-engine/internal/domain"
	"alcyxob/plan-engine/internal/textnorm"
)

// Values are validated arguments: int, float64, string or bool per declared type.
type Values map[string]any

func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

func (v Values) Int(name string) *int {
	if n, ok := v[name].(int); ok {
		return &n
	}
	return nil
}

func (v Values) Float(name string) *float64 {
	if f, ok := v[name].(float64); ok {
		return &f
	}
	return nil
}

func (v Values) Bool(name string) *bool {
	if b, ok := v[name].(bool); ok {
		return &b
	}
	return nil
}

func errUnknownOperation(name string) error {
	return fmt.Errorf("%w: unknown operation %q", domain.ErrNoOperationMatched, name)
}

// numberText accepts "2", "-1,5", "+2.5 kg", "1800kcal".
var numberText = regexp.MustCompile(`^([+-]?\d+(?:[.,]\d+)?)\s*[a-z]*$`)

// Validate coerces raw classifier output into the declared parameter types.
// Unknown parameters are dropped. Null, empty strings and missing values are
// treated alike; a missing required parameter fails.
func Validate(d *Definition, raw map[string]any) (Values, error) {
	out := make(Values, len(d.Params))
	for _, p := range d.Params {
		rv, present := raw[p.Name]
		if present && isBlank(rv) {
			present = false
		}
		if !present {
			if p.Required {
				return nil, domain.NewValidationError(p.Name, "required")
			}
			continue
		}
		v, err := coerce(p, rv)
		if err != nil {
			return nil, err
		}
		out[p.Name] = v
	}
	return out, nil
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

func coerce(p Param, v any) (any, error) {
	switch p.Type {
	case TypeInteger:
		f, err := toNumber(p.Name, v)
		if err != nil {
			return nil, err
		}
		if f != math.Trunc(f) {
			return nil, domain.NewValidationError(p.Name, "%v is not a whole number", v)
		}
		if err := checkRange(p, f); err != nil {
			return nil, err
		}
		return int(f), nil
	case TypeNumber:
		f, err := toNumber(p.Name, v)
		if err != nil {
			return nil, err
		}
		if err := checkRange(p, f); err != nil {
			return nil, err
		}
		return f, nil
	case TypeBoolean:
		return toBool(p.Name, v)
	case TypeEnum:
		return toEnum(p, v)
	default:
		switch t := v.(type) {
		case string:
			return strings.TrimSpace(t), nil
		case float64, int, int64, bool, json.Number:
			return fmt.Sprint(t), nil
		}
		return nil, domain.NewValidationError(p.Name, "expected text, got %T", v)
	}
}

func toNumber(name string, v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, domain.NewValidationError(name, "%q is not a number", t.String())
		}
		return f, nil
	case string:
		m := numberText.FindStringSubmatch(strings.ToLower(strings.TrimSpace(t)))
		if m == nil {
			return 0, domain.NewValidationError(name, "%q is not a number", t)
		}
		f, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
		if err != nil {
			return 0, domain.NewValidationError(name, "%q is not a number", t)
		}
		return f, nil
	}
	return 0, domain.NewValidationError(name, "expected a number, got %T", v)
}

func checkRange(p Param, f float64) error {
	if p.Min != nil && f < *p.Min {
		return domain.NewValidationError(p.Name, "%v is below the minimum %v", f, *p.Min)
	}
	if p.Max != nil && f > *p.Max {
		return domain.NewValidationError(p.Name, "%v is above the maximum %v", f, *p.Max)
	}
	return nil
}

func toBool(name string, v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		if t == 0 || t == 1 {
			return t == 1, nil
		}
	case int:
		if t == 0 || t == 1 {
			return t == 1, nil
		}
	case string:
		switch textnorm.Fold(t) {
		case "true", "si", "yes", "1", "verdadero":
			return true, nil
		case "false", "no", "0", "falso":
			return false, nil
		}
	}
	return false, domain.NewValidationError(name, "%v is not a boolean", v)
}

func toEnum(p Param, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", domain.NewValidationError(p.Name, "expected one of %s", strings.Join(p.EnumValues, ", "))
	}
	key := textnorm.Key(s)
	if alias, ok := p.aliases[key]; ok {
		key = textnorm.Key(alias)
	}
	for _, e := range p.EnumValues {
		if textnorm.Key(e) == key {
			return e, nil
		}
	}
	return "", domain.NewValidationError(p.Name, "%q is not one of %s", s, strings.Join(p.EnumValues, ", "))
}
