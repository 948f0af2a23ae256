// Package body builds the request bodies that describe a resource's desired
// state.
//
// Callers build a Body from every field a resource understands and leave the
// fields the user did not set as nil. Strip then removes them so the remote
// system's defaults apply and the comparison never treats an unset field as
// "desired empty".
package body

import "reflect"

// Body is a desired-state document keyed by the managed API's field names.
type Body map[string]any

// Opt returns the value p points to, or nil (unset) when p is nil.
func Opt[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// NonZero returns v, or nil (unset) when v is its type's zero value.
func NonZero[T comparable](v T) any {
	var zero T
	if v == zero {
		return nil
	}
	return v
}

// Strip returns a copy of b with every unset entry removed. Nested Body and
// map[string]any values are stripped recursively; sequences are copied as they
// are. b is never modified.
func Strip(b Body) Body {
	if b == nil {
		return nil
	}

	out := make(Body, len(b))
	for k, v := range b {
		if IsUnset(v) {
			continue
		}
		switch nested := v.(type) {
		case Body:
			out[k] = Strip(nested)
		case map[string]any:
			out[k] = map[string]any(Strip(Body(nested)))
		default:
			out[k] = v
		}
	}
	return out
}

// Without returns a copy of b without the given top-level keys.
func Without(b Body, keys ...string) Body {
	out := make(Body, len(b))
	for k, v := range b {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// IsUnset reports whether v is the unset marker: nil, or a nil pointer, map,
// slice or interface.
func IsUnset(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
