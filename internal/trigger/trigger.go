// Package trigger defines alert trigger events and their routing identity.
package trigger

import "strings"

// Arg is a single key/value argument attached to a trigger.
type Arg struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Trigger represents one firing instance of an alert query, e.g. a series
// that crossed its threshold. Args keep their encounter order because the
// routing identity derived from them is order-sensitive.
type Trigger struct {
	Args []Arg `json:"args"`
}

// New creates a trigger from alternating key/value pairs.
func New(pairs ...string) *Trigger {
	t := &Trigger{Args: make([]Arg, 0, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		t.Args = append(t.Args, Arg{Key: pairs[i], Value: pairs[i+1]})
	}
	return t
}

// Get returns the value for a key, or "" if the trigger has no such arg.
func (t *Trigger) Get(key string) string {
	for _, a := range t.Args {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// Append adds an arg, preserving encounter order.
func (t *Trigger) Append(key, value string) {
	t.Args = append(t.Args, Arg{Key: key, Value: value})
}

// Identity derives the routing identity for a trigger: "key:value" pairs
// joined with ";" in arg order, with every "/" replaced by ".".
//
// The identity is deliberately order-sensitive: two triggers with the same
// args in a different order route to different dispatch units.
func Identity(t *Trigger) string {
	var sb strings.Builder
	for i, a := range t.Args {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(a.Key)
		sb.WriteByte(':')
		sb.WriteString(a.Value)
	}
	return strings.ReplaceAll(sb.String(), "/", ".")
}
