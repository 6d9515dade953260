package taskspec

import (
	"fmt"
	"math"
	"regexp"
)

// Every record carries these four string fields in addition to the
// task-specific ones.
var fixedFields = []string{"title", "position", "url", "snippet"}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// RecordSchema validates extracted items against the task's field list plus
// the four fixed fields. One schema instance per task.
type RecordSchema struct {
	types map[string]FieldType
	order []string
}

// NewRecordSchema builds the schema for a task. A field that duplicates
// another field or one of the fixed names, or whose name is not a valid
// identifier, is a construction error.
func NewRecordSchema(specs []FieldSpec) (*RecordSchema, error) {
	s := &RecordSchema{types: make(map[string]FieldType, len(specs)+len(fixedFields))}

	for _, spec := range specs {
		if !identRe.MatchString(spec.Name) {
			return nil, fmt.Errorf("field name %q is not a valid identifier", spec.Name)
		}
		if _, dup := s.types[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate field name %q", spec.Name)
		}
		for _, fixed := range fixedFields {
			if spec.Name == fixed {
				return nil, fmt.Errorf("field name %q collides with a fixed record field", spec.Name)
			}
		}
		s.types[spec.Name] = normalizeFieldType(spec.Type)
		s.order = append(s.order, spec.Name)
	}

	for _, fixed := range fixedFields {
		s.types[fixed] = FieldString
		s.order = append(s.order, fixed)
	}
	return s, nil
}

func normalizeFieldType(t FieldType) FieldType {
	switch t {
	case FieldString, FieldNumber, FieldInteger, FieldBoolean, FieldList:
		return t
	default:
		return FieldString
	}
}

// FieldNames returns all field names in declaration order, fixed fields last.
func (s *RecordSchema) FieldNames() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Validate checks one raw item against the schema. Every field is required;
// a missing or mistyped field fails the item. Unknown keys are dropped.
func (s *RecordSchema) Validate(raw map[string]any) (Record, error) {
	rec := make(Record, len(s.order))
	for _, name := range s.order {
		v, ok := raw[name]
		if !ok {
			return nil, fmt.Errorf("item is missing required field %q", name)
		}
		coerced, err := coerceValue(s.types[name], v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		rec[name] = coerced
	}
	return rec, nil
}

func coerceValue(t FieldType, v any) (any, error) {
	switch t {
	case FieldString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want string, got %T", v)
		}
		return s, nil
	case FieldNumber:
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("want number, got %T", v)
		}
		return f, nil
	case FieldInteger:
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) {
			return nil, fmt.Errorf("want integer, got %v", v)
		}
		return int64(f), nil
	case FieldBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("want boolean, got %T", v)
		}
		return b, nil
	case FieldList:
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("want list of strings, got %T", v)
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("want list of strings, got element %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown field type %q", t)
	}
}
