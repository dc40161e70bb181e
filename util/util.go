package util

import "reflect"

// StringInSlice checks if a string exists in a slice.
func StringInSlice(s string, list []string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// Clone returns a shallow copy of slice that never aliases the input.
func Clone[T any](slice []T) []T {
	out := make([]T, len(slice))
	copy(out, slice)
	return out
}

// IsNil reports whether v is nil or a typed nil pointer, map, slice, func,
// channel or interface.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// Coalesce returns the first non-zero value. Pipelines use it to pick a
// label or name from explicit, derived and default candidates.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
