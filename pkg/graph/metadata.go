package graph

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	nxerrors "github.com/matzehuels/netgraph/pkg/errors"
)

// ReservedPrefix marks metadata keys that are owned by netgraph.
// Names with this prefix cannot be created through [NewKey], [ParseKey] or
// [Metadata.Set].
const ReservedPrefix = "~"

var (
	// ErrReservedKey is returned when a caller tries to create or write a key
	// in the reserved namespace.
	ErrReservedKey = errors.New("key uses the reserved prefix")

	// ErrMissingValue is returned by [GetRequiredValue] when the key is not set.
	ErrMissingValue = errors.New("required value is not set")

	// ErrTypeMismatch is returned when a stored value does not have the
	// type declared by the key.
	ErrTypeMismatch = errors.New("value has the wrong type")
)

// Key is a typed metadata token. The type parameter declares the type of the
// value stored under the key, so reads are checked at compile time against
// the caller and at run time against what is actually stored.
//
// The zero Key is not usable; create keys with [NewKey] or [ParseKey].
type Key[T any] struct {
	name string
}

// NewKey returns a key for name. It panics if name is not a valid attribute
// name or uses [ReservedPrefix]; use it for package-level key variables.
func NewKey[T any](name string) Key[T] {
	k, err := ParseKey[T](name)
	if err != nil {
		panic(err)
	}
	return k
}

// ParseKey returns a key for a name chosen at run time (from a flag or an
// imported file). Reserved names fail with a METADATA_CONTRACT_VIOLATION.
func ParseKey[T any](name string) (Key[T], error) {
	if err := nxerrors.ValidateAttributeName(name); err != nil {
		return Key[T]{}, err
	}
	if IsReserved(name) {
		return Key[T]{}, nxerrors.MetadataContract(&nxerrors.KeyError{Key: name, Err: ErrReservedKey}, "cannot create key")
	}
	return Key[T]{name: name}, nil
}

func reservedKey[T any](name string) Key[T] {
	return Key[T]{name: ReservedPrefix + name}
}

// Name returns the key's name.
func (k Key[T]) Name() string { return k.name }

// String implements fmt.Stringer.
func (k Key[T]) String() string { return k.name }

// IsReserved reports whether name belongs to the reserved namespace.
func IsReserved(name string) bool { return strings.HasPrefix(name, ReservedPrefix) }

// Metadata is a flat key/value attribute bag attached to a vertex, an edge or
// a graph. The zero value is ready to use.
type Metadata struct {
	values map[string]any
}

// NewMetadata creates an empty metadata bag.
func NewMetadata() *Metadata { return &Metadata{} }

// Set stores value under name, overwriting any previous value. A nil value
// removes the key. Names in the reserved namespace are rejected.
//
// Set is the dynamic, untyped entry point used by import adapters; typed
// code should prefer [SetValue].
func (m *Metadata) Set(name string, value any) error {
	if err := nxerrors.ValidateAttributeName(name); err != nil {
		return err
	}
	if IsReserved(name) {
		return nxerrors.MetadataContract(&nxerrors.KeyError{Key: name, Err: ErrReservedKey}, "cannot set value")
	}
	m.put(name, value)
	return nil
}

// Get returns the raw value stored under name.
func (m *Metadata) Get(name string) (any, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Has reports whether name is set.
func (m *Metadata) Has(name string) bool {
	_, ok := m.values[name]
	return ok
}

// Len returns the number of stored keys, reserved ones included.
func (m *Metadata) Len() int { return len(m.values) }

// Keys returns every stored key name in sorted order.
func (m *Metadata) Keys() []string {
	return slices.Sorted(maps.Keys(m.values))
}

// PublicKeys returns the stored key names outside the reserved namespace,
// sorted. Exporters use it so internal state never leaks into files.
func (m *Metadata) PublicKeys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		if !IsReserved(k) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// Clone returns a shallow copy: the map is copied, the values are shared.
func (m *Metadata) Clone() *Metadata {
	if len(m.values) == 0 {
		return &Metadata{}
	}
	return &Metadata{values: maps.Clone(m.values)}
}

// Clear removes every key.
func (m *Metadata) Clear() { m.values = nil }

func (m *Metadata) put(name string, value any) {
	if value == nil {
		delete(m.values, name)
		return
	}
	if m.values == nil {
		m.values = make(map[string]any)
	}
	m.values[name] = value
}

// SetValue stores value under key. A nil interface value removes the key.
func SetValue[T any](m *Metadata, key Key[T], value T) {
	if key.name == "" {
		panic("graph: SetValue with zero Key")
	}
	m.put(key.name, any(value))
}

// ClearValue removes key.
func ClearValue[T any](m *Metadata, key Key[T]) {
	delete(m.values, key.name)
}

// TryGetValue returns the value stored under key. A missing key yields the
// zero value and false. A value of the wrong type is an error, not a miss.
func TryGetValue[T any](m *Metadata, key Key[T]) (T, bool, error) {
	var zero T
	raw, ok := m.values[key.name]
	if !ok {
		return zero, false, nil
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false, nxerrors.MetadataContract(&nxerrors.KeyError{
			Key:  key.name,
			Err:  ErrTypeMismatch,
			Want: reflect.TypeFor[T]().String(),
			Got:  fmt.Sprintf("%T", raw),
		}, "read value")
	}
	return v, true, nil
}

// GetRequiredValue returns the value stored under key, failing with a
// METADATA_CONTRACT_VIOLATION that names the key when it is missing or has
// the wrong type.
func GetRequiredValue[T any](m *Metadata, key Key[T]) (T, error) {
	v, ok, err := TryGetValue(m, key)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, nxerrors.MetadataContract(&nxerrors.KeyError{Key: key.name, Err: ErrMissingValue}, "read required value")
	}
	return v, nil
}
