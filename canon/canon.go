// Package canon implements the deterministic canonical encoding used as the
// signing preimage throughout TECP (spec §4.1). Two independent
// implementations that canonicalize the same field set must produce
// bit-identical bytes; this package exists to make that a property of the
// type system rather than a convention every caller has to remember.
package canon

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// ErrUnsupportedType is returned (wrapped) when a value outside the
// supported set (null, bool, int64, string, []byte, ordered sequence,
// string-keyed mapping) is passed to Canonicalize. Floating point values,
// channels, functions, and cyclic structures all fall in this bucket.
var ErrUnsupportedType = errors.New("canon: unsupported type in signed value")

// Fields is the field → value mapping canonicalized as a TECP signing
// preimage. Values must be drawn from: nil, bool, int64 (or any integer
// kind that fits in int64/uint64), string, []byte, []any, map[string]any,
// or nested combinations thereof.
type Fields map[string]any

var encMode = mustEncMode()

// mustEncMode builds the CTAP2 canonical CBOR encoder: definite-length
// containers, shortest-form integers, and map keys sorted lexicographically
// by the byte encoding of the key (RFC 8949 §4.2.1 "Core Deterministic
// Encoding", exposed by fxamacker/cbor as CTAP2EncOptions). For the
// string keys this package accepts it yields the same order as
// cbor.CanonicalEncOptions()'s length-first sort, and matches spec.md
// §4.1's wording exactly.
func mustEncMode() cbor.EncMode {
	opts := cbor.CTAP2EncOptions()
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("canon: building canonical encoder: %v", err))
	}
	return em
}

// Canonicalize produces the canonical CBOR encoding of v. v must be a
// Fields map (or any value built only from the supported primitives listed
// on Fields). Strings are encoded as UTF-8 without normalization; the
// caller is responsible for passing already-normalized strings.
func Canonicalize(v any) ([]byte, error) {
	if err := validate(reflect.ValueOf(v), newVisitSet()); err != nil {
		return nil, err
	}
	b, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canon: marshal: %w", err)
	}
	return b, nil
}

// visitSet tracks pointer identities of maps/slices currently being
// descended into, to detect cycles without relying on the encoder (which
// would stack-overflow rather than error cleanly).
type visitSet struct {
	seen map[uintptr]struct{}
}

func newVisitSet() *visitSet { return &visitSet{seen: make(map[uintptr]struct{})} }

func (s *visitSet) enter(ptr uintptr) error {
	if _, ok := s.seen[ptr]; ok {
		return fmt.Errorf("%w: cyclic reference", ErrUnsupportedType)
	}
	s.seen[ptr] = struct{}{}
	return nil
}

func (s *visitSet) leave(ptr uintptr) { delete(s.seen, ptr) }

// validate walks v and rejects anything outside the signed core's type
// universe: null, bool, any integer kind, string, byte string, ordered
// sequences, and string-keyed mappings. Floats, complex numbers, channels,
// funcs, and unsafe pointers all fail with ErrUnsupportedType.
func validate(rv reflect.Value, seen *visitSet) error {
	if !rv.IsValid() {
		return nil // untyped nil
	}
	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return validate(rv.Elem(), seen)
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
		return validate(rv.Elem(), seen)
	case reflect.Bool:
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return nil
	case reflect.String:
		return nil
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil // byte string
		}
		var ptr uintptr
		if rv.Kind() == reflect.Slice {
			if rv.IsNil() {
				return nil
			}
			ptr = rv.Pointer()
			if err := seen.enter(ptr); err != nil {
				return err
			}
			defer seen.leave(ptr)
		}
		for i := 0; i < rv.Len(); i++ {
			if err := validate(rv.Index(i), seen); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("%w: map keys must be strings, got %s", ErrUnsupportedType, rv.Type().Key())
		}
		ptr := rv.Pointer()
		if err := seen.enter(ptr); err != nil {
			return err
		}
		defer seen.leave(ptr)
		iter := rv.MapRange()
		for iter.Next() {
			if err := validate(iter.Value(), seen); err != nil {
				return err
			}
		}
		return nil
	case reflect.Float32, reflect.Float64:
		return fmt.Errorf("%w: float64", ErrUnsupportedType)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Kind())
	}
}
