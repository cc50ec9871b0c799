package constraint

import "encoding/json"

// Field holds one constraint value. The zero Field is Unconstrained; a Field
// built with Constrained carries a value, even an empty one.
type Field[T any] struct {
	value T
	set   bool
}

// Unconstrained returns a Field with no value.
func Unconstrained[T any]() Field[T] {
	return Field[T]{}
}

// Constrained returns a Field carrying v.
func Constrained[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// Get returns the value and whether the field is constrained.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.set
}

// IsSet reports whether the field is constrained.
func (f Field[T]) IsSet() bool {
	return f.set
}

// Or returns the value, or def when the field is unconstrained.
func (f Field[T]) Or(def T) T {
	if !f.set {
		return def
	}
	return f.value
}

// IsZero lets encoding/json drop unconstrained fields tagged omitzero.
func (f Field[T]) IsZero() bool {
	return !f.set
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.set {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Field[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Constrained(v)
	return nil
}
