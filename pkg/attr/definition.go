// Package attr provides declarative per-instance attributes. A Table holds the
// ordered attribute definitions of a class; a Store holds one instance's
// values and dispatches change hooks in table order.
package attr

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

// ErrUndefinedAttribute is returned when a key is not declared on the class.
var ErrUndefinedAttribute = errors.New("undefined attribute")

// HookPrefix is prepended to the capitalized key to form a hook member name.
const HookPrefix = "onSet"

// Definition declares a single attribute.
type Definition struct {
	Key     string // attribute key (e.g., "width")
	Default any    // value used when construction options omit the key

	// Validator rejects a value before it is stored. Optional.
	Validator func(value any) error

	// Setter transforms a value before it is stored. Optional.
	Setter func(value any) (any, error)
}

// HookName returns the member name of the change hook for this attribute.
func (d Definition) HookName() string {
	return HookName(d.Key)
}

// HookName derives the change hook member name for key,
// e.g. "x" -> "onSetX", "xx" -> "onSetXx".
func HookName(key string) string {
	if key == "" {
		return HookPrefix
	}
	r, size := utf8.DecodeRuneInString(key)
	return HookPrefix + string(unicode.ToUpper(r)) + key[size:]
}

// resolve runs the validator and setter, returning the value to store.
func (d Definition) resolve(value any) (any, error) {
	if d.Validator != nil {
		if err := d.Validator(value); err != nil {
			return nil, err
		}
	}
	if d.Setter != nil {
		return d.Setter(value)
	}
	return value, nil
}

// Table is an insertion-ordered set of attribute definitions.
// Positions are fixed once a key is added; redefining a key replaces the
// definition in place.
type Table struct {
	keys []string
	defs map[string]Definition
}

// NewTable creates a table holding defs in the given order.
func NewTable(defs ...Definition) *Table {
	t := &Table{
		keys: make([]string, 0, len(defs)),
		defs: make(map[string]Definition, len(defs)),
	}
	t.Merge(defs)
	return t
}

// Merge appends new keys in order and replaces existing ones in place.
func (t *Table) Merge(defs []Definition) {
	for _, def := range defs {
		if _, exists := t.defs[def.Key]; !exists {
			t.keys = append(t.keys, def.Key)
		}
		t.defs[def.Key] = def
	}
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	clone := &Table{
		keys: make([]string, len(t.keys)),
		defs: make(map[string]Definition, len(t.defs)),
	}
	copy(clone.keys, t.keys)
	for k, v := range t.defs {
		clone.defs[k] = v
	}
	return clone
}

// Lookup returns the definition for key.
func (t *Table) Lookup(key string) (Definition, bool) {
	def, ok := t.defs[key]
	return def, ok
}

// Keys returns the keys in declaration order.
func (t *Table) Keys() []string {
	result := make([]string, len(t.keys))
	copy(result, t.keys)
	return result
}

// Definitions returns the definitions in declaration order.
func (t *Table) Definitions() []Definition {
	result := make([]Definition, 0, len(t.keys))
	for _, key := range t.keys {
		result = append(result, t.defs[key])
	}
	return result
}

// Len returns the number of declared attributes.
func (t *Table) Len() int {
	return len(t.keys)
}
