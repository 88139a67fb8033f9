package canon

import (
	"fmt"
	"reflect"
)

// Kind enumerates the closed set of shapes a Value may take.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindText
	KindBytes
	KindArray
	KindMap
)

// Value is a typed intermediate representation of a signable value,
// playing the role the reference SDK's recursive sortKeys(interface{})
// plays, but as a static closed sum type instead of untyped recursion over
// interface{}. Callers that already hold a Fields map can skip this and
// call Canonicalize directly; Normalize exists for callers building a
// receipt from Go structs who would otherwise hand-write
// map[string]interface{} literals.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Text  string
	Bytes []byte
	Array []Value
	Map   map[string]Value
}

// Null is the canonical null Value.
var Null = Value{Kind: KindNull}

// Interface converts v back into the any-typed shape Canonicalize accepts.
func (v Value) Interface() any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindText:
		return v.Text
	case KindBytes:
		return v.Bytes
	case KindArray:
		out := make([]any, len(v.Array))
		for i, e := range v.Array {
			out[i] = e.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.Map))
		for k, e := range v.Map {
			out[k] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// Normalize converts a Go value built from the supported primitive kinds
// (nil, bool, any integer kind, string, []byte, slices, string-keyed maps,
// and structs with exported fields) into a Value tree. Structs are
// flattened field-by-field using their Go field name; callers who need a
// different wire name should build a Fields/map literal directly instead.
func Normalize(v any) (Value, error) {
	return normalize(reflect.ValueOf(v))
}

func normalize(rv reflect.Value) (Value, error) {
	if !rv.IsValid() {
		return Null, nil
	}
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr:
		if rv.IsNil() {
			return Null, nil
		}
		return normalize(rv.Elem())
	case reflect.Bool:
		return Value{Kind: KindBool, Bool: rv.Bool()}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Value{Kind: KindInt, Int: rv.Int()}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Value{Kind: KindInt, Int: int64(rv.Uint())}, nil
	case reflect.String:
		return Value{Kind: KindText, Text: rv.String()}, nil
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return Value{Kind: KindBytes, Bytes: b}, nil
		}
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null, nil
		}
		arr := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, err := normalize(rv.Index(i))
			if err != nil {
				return Value{}, err
			}
			arr[i] = elem
		}
		return Value{Kind: KindArray, Array: arr}, nil
	case reflect.Map:
		if rv.IsNil() {
			return Null, nil
		}
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, fmt.Errorf("%w: map keys must be strings, got %s", ErrUnsupportedType, rv.Type().Key())
		}
		m := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			elem, err := normalize(iter.Value())
			if err != nil {
				return Value{}, err
			}
			m[iter.Key().String()] = elem
		}
		return Value{Kind: KindMap, Map: m}, nil
	case reflect.Struct:
		m := make(map[string]Value, rv.NumField())
		t := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue // unexported
			}
			elem, err := normalize(rv.Field(i))
			if err != nil {
				return Value{}, err
			}
			m[f.Name] = elem
		}
		return Value{Kind: KindMap, Map: m}, nil
	case reflect.Float32, reflect.Float64:
		return Value{}, fmt.Errorf("%w: float64", ErrUnsupportedType)
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Kind())
	}
}
