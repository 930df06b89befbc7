package orm

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownEnumValue is returned when a stored value matches no enumeration member.
	ErrUnknownEnumValue = errors.New("unknown enumeration value")

	// ErrDecode is returned when a JSON column cannot be decoded.
	ErrDecode = errors.New("cannot decode column")

	// ErrEncode is returned when a JSON column cannot be encoded.
	ErrEncode = errors.New("cannot encode column")
)

// ColumnType is the semantic type of a mapped column.
type ColumnType string

const (
	TypeText      ColumnType = "text"
	TypeTimestamp ColumnType = "timestamp"
	TypeBoolean   ColumnType = "boolean"
	TypeEnum      ColumnType = "enum"
	TypeJSON      ColumnType = "json"
)

// Column binds one database column to one field of T through an explicit
// accessor pair. Columns are values: declare them once in a mapping and reuse.
type Column[T any] struct {
	// Name is the database column name.
	Name string

	// Type is the semantic type of the column.
	Type ColumnType

	value  func(e *T) (interface{}, error)
	assign func(e *T, raw interface{}) error
}

// Value returns the statement argument for this column of e.
func (c Column[T]) Value(e *T) (interface{}, error) {
	return c.value(e)
}

// Assign converts raw (as returned by the driver) and stores it into e.
func (c Column[T]) Assign(e *T, raw interface{}) error {
	return c.assign(e, raw)
}

// Text maps a character column. NULL reads as the empty string.
func Text[T any](name string, get func(*T) string, set func(*T, string)) Column[T] {
	return Column[T]{
		Name: name,
		Type: TypeText,
		value: func(e *T) (interface{}, error) {
			return get(e), nil
		},
		assign: func(e *T, raw interface{}) error {
			s, err := asString(raw)
			if err != nil {
				return fmt.Errorf("column '%s': %w", name, err)
			}
			set(e, s)
			return nil
		},
	}
}

// Timestamp maps a date/time column. The zero time is written as NULL and NULL
// reads as the zero time.
func Timestamp[T any](name string, get func(*T) time.Time, set func(*T, time.Time)) Column[T] {
	return Column[T]{
		Name: name,
		Type: TypeTimestamp,
		value: func(e *T) (interface{}, error) {
			t := get(e)
			if t.IsZero() {
				return nil, nil
			}
			return t, nil
		},
		assign: func(e *T, raw interface{}) error {
			t, err := asTime(raw)
			if err != nil {
				return fmt.Errorf("column '%s': %w", name, err)
			}
			set(e, t)
			return nil
		},
	}
}

// Boolean maps a boolean column. NULL reads as false.
func Boolean[T any](name string, get func(*T) bool, set func(*T, bool)) Column[T] {
	return Column[T]{
		Name: name,
		Type: TypeBoolean,
		value: func(e *T) (interface{}, error) {
			return get(e), nil
		},
		assign: func(e *T, raw interface{}) error {
			b, err := asBool(raw)
			if err != nil {
				return fmt.Errorf("column '%s': %w", name, err)
			}
			set(e, b)
			return nil
		},
	}
}

// Enum maps a column storing the name of an enumeration member. The empty
// member is written as NULL. Reading a name outside values fails with
// ErrUnknownEnumValue.
func Enum[T any, E ~string](name string, values []E, get func(*T) E, set func(*T, E)) Column[T] {
	members := make(map[string]E, len(values))
	for _, v := range values {
		members[string(v)] = v
	}

	return Column[T]{
		Name: name,
		Type: TypeEnum,
		value: func(e *T) (interface{}, error) {
			v := get(e)
			if v == "" {
				return nil, nil
			}
			return string(v), nil
		},
		assign: func(e *T, raw interface{}) error {
			s, err := asString(raw)
			if err != nil {
				return fmt.Errorf("column '%s': %w", name, err)
			}
			if s == "" {
				set(e, "")
				return nil
			}
			v, ok := members[s]
			if !ok {
				return fmt.Errorf("%w: column '%s' holds %q", ErrUnknownEnumValue, name, s)
			}
			set(e, v)
			return nil
		},
	}
}

// JSON maps a column storing a JSON document decoded into V. A nil value is
// written as NULL; NULL or an empty string reads as the zero V. Decoding
// failures are reported as ErrDecode.
func JSON[T any, V any](name string, get func(*T) V, set func(*T, V)) Column[T] {
	return Column[T]{
		Name: name,
		Type: TypeJSON,
		value: func(e *T) (interface{}, error) {
			data, err := json.Marshal(get(e))
			if err != nil {
				return nil, fmt.Errorf("%w: column '%s': %w", ErrEncode, name, err)
			}
			if string(data) == "null" {
				return nil, nil
			}
			return string(data), nil
		},
		assign: func(e *T, raw interface{}) error {
			data, err := asBytes(raw)
			if err != nil {
				return fmt.Errorf("%w: column '%s': %w", ErrDecode, name, err)
			}
			var v V
			if len(data) > 0 {
				if err := json.Unmarshal(data, &v); err != nil {
					return fmt.Errorf("%w: column '%s': %w", ErrDecode, name, err)
				}
			}
			set(e, v)
			return nil
		},
	}
}
