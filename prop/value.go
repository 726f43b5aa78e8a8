package prop

import (
	"fmt"

	"usrphost-go/errcode"
)

// Value is an opaque, dynamically-typed property value.
type Value struct{ v any }

// V wraps x.
func V(x any) Value { return Value{v: x} }

// Any returns the wrapped value.
func (v Value) Any() any { return v.v }

// IsNil reports whether nothing is wrapped.
func (v Value) IsNil() bool { return v.v == nil }

func (v Value) String() string { return fmt.Sprint(v.v) }

// As interprets v as a T. A mismatch fails with errcode.Type.
func As[T any](v Value) (T, error) {
	x, ok := v.v.(T)
	if !ok {
		var zero T
		return zero, errcode.Typef("want %s, have %s", typeName[T](), dynName(v.v))
	}
	return x, nil
}

// MustAs is As for tests and tables known to be well-typed.
func MustAs[T any](v Value) T {
	x, err := As[T](v)
	if err != nil {
		panic(err)
	}
	return x
}

func typeName[T any]() string {
	// Pointer-to-T keeps interface type names printable.
	return fmt.Sprintf("%T", (*T)(nil))[1:]
}

func dynName(x any) string {
	if x == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", x)
}
