package typelib

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ErrMismatch is the kind of every conversion failure.
var ErrMismatch = errors.New("value does not match type")

// ConversionError describes where a conversion failed.
type ConversionError struct {
	Type   string // Type being converted to
	Path   string // Location inside a compound/container value ("" for the root)
	Value  any
	Reason string
}

func (e *ConversionError) Error() string {
	loc := ""
	if e.Path != "" {
		loc = " at " + e.Path
	}
	return fmt.Sprintf("cannot convert %T to %s%s: %s", e.Value, e.Type, loc, e.Reason)
}

func (e *ConversionError) Unwrap() error { return ErrMismatch }

// Convert normalizes v into the wire representation of the named type.
//
// Integers become int64 (uint64 for unsigned kinds), floats float64, enums their
// symbol, compounds map[string]any keyed by field name, and containers []any.
// Integral float64 and json.Number values are accepted for integer kinds so that
// values decoded from JSON round-trip.
func (r *Registry) Convert(typeName string, v any) (any, error) {
	t, err := r.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	return r.convert(t, v, "")
}

func (r *Registry) convert(t *Type, v any, path string) (any, error) {
	fail := func(reason string, args ...any) error {
		return &ConversionError{Type: t.Name, Path: path, Value: v, Reason: fmt.Sprintf(reason, args...)}
	}
	if v == nil {
		return nil, fail("nil value")
	}

	switch t.Kind {
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fail("expected a boolean")
		}
		return b, nil

	case KindString:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		case fmt.Stringer:
			return s.String(), nil
		}
		return nil, fail("expected a string")

	case KindInt:
		n, err := toInt64(v)
		if err != nil {
			return nil, fail("%v", err)
		}
		if size := t.Size; size > 0 && size < 8 {
			limit := int64(1) << (uint(size)*8 - 1)
			if n < -limit || n >= limit {
				return nil, fail("%d out of range for a %d-byte integer", n, size)
			}
		}
		return n, nil

	case KindUint:
		u, ok := v.(uint64)
		if !ok {
			n, err := toInt64(v)
			if err != nil {
				return nil, fail("%v", err)
			}
			if n < 0 {
				return nil, fail("negative value %d", n)
			}
			u = uint64(n)
		}
		if size := t.Size; size > 0 && size < 8 && u >= uint64(1)<<(uint(size)*8) {
			return nil, fail("%d out of range for a %d-byte unsigned integer", u, size)
		}
		return u, nil

	case KindFloat:
		f, err := toFloat64(v)
		if err != nil {
			return nil, fail("%v", err)
		}
		return f, nil

	case KindEnum:
		switch s := v.(type) {
		case string:
			for _, sym := range t.Values {
				if sym == s {
					return s, nil
				}
			}
			return nil, fail("%q is not one of %s", s, strings.Join(t.Values, ", "))
		default:
			n, err := toInt64(v)
			if err != nil {
				return nil, fail("expected an enum symbol")
			}
			if n < 0 || int(n) >= len(t.Values) {
				return nil, fail("enum index %d out of range", n)
			}
			return t.Values[n], nil
		}

	case KindCompound:
		fields, err := toFieldMap(v)
		if err != nil {
			return nil, fail("%v", err)
		}
		out := make(map[string]any, len(t.Fields))
		for _, f := range t.Fields {
			ft, err := r.Lookup(f.Type)
			if err != nil {
				return nil, err
			}
			fv, ok := takeField(fields, f.Name)
			if !ok {
				continue
			}
			cv, err := r.convert(ft, fv, joinPath(path, f.Name))
			if err != nil {
				return nil, err
			}
			out[f.Name] = cv
		}
		for name := range fields {
			return nil, fail("unknown field %q", name)
		}
		return out, nil

	case KindSequence, KindArray:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, fail("expected a list")
		}
		if t.Kind == KindArray && t.Length > 0 && rv.Len() != t.Length {
			return nil, fail("expected %d elements, got %d", t.Length, rv.Len())
		}
		et, err := r.Lookup(t.Element)
		if err != nil {
			return nil, err
		}
		out := make([]any, rv.Len())
		for i := range out {
			cv, err := r.convert(et, rv.Index(i).Interface(), fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil

	case KindOpaque:
		return v, nil
	}
	return nil, fail("unsupported kind %q", t.Kind)
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

// toFieldMap turns a map or a struct into a map keyed by field name.
func toFieldMap(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		cp := make(map[string]any, len(m))
		for k, val := range m {
			cp[k] = val
		}
		return cp, nil
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct && rv.Kind() != reflect.Map {
		return nil, fmt.Errorf("expected a struct or a map")
	}
	out := make(map[string]any)
	if err := mapstructure.Decode(v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// takeField removes and returns the entry matching name, ignoring case so
// that exported Go struct fields match lower-case type fields.
func takeField(fields map[string]any, name string) (any, bool) {
	if v, ok := fields[name]; ok {
		delete(fields, name)
		return v, true
	}
	for k, v := range fields {
		if strings.EqualFold(k, name) {
			delete(fields, k)
			return v, true
		}
	}
	return nil, false
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return checkedUint(uint64(n))
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return checkedUint(n)
	case float32:
		return integral(float64(n))
	case float64:
		return integral(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", n.String())
		}
		return integral(f)
	}
	return 0, fmt.Errorf("expected an integer")
}

func checkedUint(u uint64) (int64, error) {
	if u > math.MaxInt64 {
		return 0, fmt.Errorf("%d overflows int64", u)
	}
	return int64(u), nil
}

func integral(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%v overflows int64", f)
	}
	return int64(f), nil
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	}
	i, err := toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("expected a number")
	}
	return float64(i), nil
}
