package tracking

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Field is a single key/value pair attached to an event.
type Field struct {
	Key   string
	Value string
}

// F is a shorthand constructor for Field.
func F(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Fields is an ordered set of event fields with unique keys.
// Order only matters for deterministic serialization.
type Fields []Field

// Get returns the value stored under key.
func (f Fields) Get(key string) (string, bool) {
	for _, fld := range f {
		if fld.Key == key {
			return fld.Value, true
		}
	}
	return "", false
}

// Keys returns field keys in insertion order.
func (f Fields) Keys() []string {
	keys := make([]string, len(f))
	for i, fld := range f {
		keys[i] = fld.Key
	}
	return keys
}

// Map returns the fields as a plain map.
func (f Fields) Map() map[string]string {
	m := make(map[string]string, len(f))
	for _, fld := range f {
		m[fld.Key] = fld.Value
	}
	return m
}

// merge returns a new Fields with extra applied on top of f.
// A repeated key keeps its first position and takes the last value.
func (f Fields) merge(extra ...Field) Fields {
	if len(f) == 0 && len(extra) == 0 {
		return nil
	}
	out := make(Fields, 0, len(f)+len(extra))
	index := make(map[string]int, len(f)+len(extra))
	for _, src := range [][]Field{f, extra} {
		for _, fld := range src {
			if i, ok := index[fld.Key]; ok {
				out[i].Value = fld.Value
				continue
			}
			index[fld.Key] = len(out)
			out = append(out, fld)
		}
	}
	return out
}

// Event is one analytics record: an action name and its fields.
// Events are values and never change once built, so an enqueued event
// cannot be altered by the producer afterwards.
type Event struct {
	action string
	fields Fields
}

// NewEvent builds an event. Later fields overwrite earlier fields with the same key.
func NewEvent(action string, fields ...Field) Event {
	return Event{action: action, fields: Fields(nil).merge(fields...)}
}

// Action returns the "::"-separated action name, e.g. "User::Login".
func (e Event) Action() string {
	return e.action
}

// Fields returns a copy of the event fields.
func (e Event) Fields() Fields {
	if len(e.fields) == 0 {
		return nil
	}
	out := make(Fields, len(e.fields))
	copy(out, e.fields)
	return out
}

// Field returns the value of a single field.
func (e Event) Field(key string) (string, bool) {
	return e.fields.Get(key)
}

// With returns a copy of the event with fields merged in.
func (e Event) With(fields ...Field) Event {
	return Event{action: e.action, fields: e.fields.merge(fields...)}
}

// Validate reports whether the event can be enqueued.
// Action and fields must be valid UTF-8 to survive a snapshot.
func (e Event) Validate() error {
	if e.action == "" {
		return ErrEmptyAction
	}
	if !utf8.ValidString(e.action) {
		return fmt.Errorf("%w: action", ErrInvalidUTF8)
	}
	for _, fld := range e.fields {
		if !utf8.ValidString(fld.Key) || !utf8.ValidString(fld.Value) {
			return fmt.Errorf("%w: field %q", ErrInvalidUTF8, strings.ToValidUTF8(fld.Key, "?"))
		}
	}
	return nil
}
