// Package subset decides whether a remote object already satisfies a desired
// specification.
//
// The match is one-directional: every field named by the desired value must be
// present in the actual value with an equal value, while fields that exist only
// in the actual value are ignored. Sequences match element-wise in any order.
// This is the only idempotency test converge uses before writing.
package subset

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// Match reports whether desired is a subset of actual.
//
// Mappings match when every desired key exists in actual and its value matches.
// Sequences match when every desired element matches at least one element of
// actual. Anything else is compared by value, with numbers compared
// numerically regardless of their Go type. Match never panics; comparing a
// mapping or sequence against a value of a different shape returns false.
func Match(desired, actual any) bool {
	return match(reflect.ValueOf(desired), reflect.ValueOf(actual))
}

// Diff returns the dotted paths of the desired fields that actual does not
// satisfy, sorted. An empty result means Match(desired, actual) is true.
func Diff(desired, actual any) []string {
	var paths []string
	diff("", reflect.ValueOf(desired), reflect.ValueOf(actual), &paths)
	sort.Strings(paths)
	return paths
}

func match(d, a reflect.Value) bool {
	d, a = deref(d), deref(a)

	switch {
	case isMap(d):
		if !isMap(a) {
			return false
		}
		iter := d.MapRange()
		for iter.Next() {
			av, ok := lookup(a, iter.Key())
			if !ok || !match(iter.Value(), av) {
				return false
			}
		}
		return true

	case isSeq(d):
		if !isSeq(a) {
			return false
		}
		for i := 0; i < d.Len(); i++ {
			found := false
			for j := 0; j < a.Len(); j++ {
				if match(d.Index(i), a.Index(j)) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true

	default:
		return scalarEqual(d, a)
	}
}

func diff(path string, d, a reflect.Value, out *[]string) {
	d, a = deref(d), deref(a)

	if isMap(d) && isMap(a) {
		iter := d.MapRange()
		for iter.Next() {
			child := joinPath(path, iter.Key())
			av, ok := lookup(a, iter.Key())
			if !ok {
				*out = append(*out, child)
				continue
			}
			diff(child, iter.Value(), av, out)
		}
		return
	}

	if isSeq(d) && isSeq(a) {
		for i := 0; i < d.Len(); i++ {
			found := false
			for j := 0; j < a.Len(); j++ {
				if match(d.Index(i), a.Index(j)) {
					found = true
					break
				}
			}
			if !found {
				*out = append(*out, path+"["+strconv.Itoa(i)+"]")
			}
		}
		return
	}

	if !match(d, a) {
		if path == "" {
			path = "."
		}
		*out = append(*out, path)
	}
}

// deref unwraps interfaces and pointers until it reaches a concrete value.
// Nil pointers and nil interfaces become the invalid Value.
func deref(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func isMap(v reflect.Value) bool {
	return v.IsValid() && v.Kind() == reflect.Map
}

func isSeq(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		// []byte is a scalar as far as JSON is concerned
		return v.Type().Elem().Kind() != reflect.Uint8
	}
	return false
}

// lookup finds key in m, converting the key when the two maps use different
// (but convertible) key types such as string and a named string type.
func lookup(m, key reflect.Value) (reflect.Value, bool) {
	kt := m.Type().Key()
	if !key.Type().AssignableTo(kt) {
		if !key.Type().ConvertibleTo(kt) {
			return reflect.Value{}, false
		}
		key = key.Convert(kt)
	}
	v := m.MapIndex(key)
	return v, v.IsValid()
}

func joinPath(path string, key reflect.Value) string {
	k := deref(key)
	var name string
	if k.IsValid() && k.Kind() == reflect.String {
		name = k.String()
	} else if k.IsValid() {
		name = fmt.Sprint(k.Interface())
	}
	if path == "" {
		return name
	}
	return path + "." + name
}

func scalarEqual(d, a reflect.Value) bool {
	if !d.IsValid() || !a.IsValid() {
		return !d.IsValid() && !a.IsValid()
	}

	if df, ok := number(d); ok {
		af, ok := number(a)
		return ok && df == af
	}

	if d.Kind() == reflect.String && a.Kind() == reflect.String {
		return d.String() == a.String()
	}
	if d.Kind() == reflect.Bool && a.Kind() == reflect.Bool {
		return d.Bool() == a.Bool()
	}

	if isMap(a) || isSeq(a) {
		return false
	}
	if d.Type() != a.Type() || !d.Type().Comparable() {
		return false
	}
	return d.Interface() == a.Interface()
}

// number extracts a float64 from any numeric kind or json.Number.
func number(v reflect.Value) (float64, bool) {
	if v.Type() == reflect.TypeOf(json.Number("")) {
		f, err := strconv.ParseFloat(v.String(), 64)
		return f, err == nil
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}
