package util

import (
	"reflect"
	"runtime"
	"strings"
	"unicode"
)

// FuncName returns the declared name of fn without its package path, or
// fallback when fn is not a function or has no usable name. Closures
// ("func1", "func1.2"), package-level initialisers ("glob..func1") and other
// compiler-generated names resolve to fallback.
//
//	FuncName(strings.ToUpper, "anonymous")          // "ToUpper"
//	FuncName((*bytes.Buffer).String, "anonymous")   // "String"
//	FuncName(func(int) int { return 0 }, "anonymous") // "anonymous"
func FuncName(fn any, fallback string) string {
	if IsNil(fn) {
		return fallback
	}
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return fallback
	}
	rf := runtime.FuncForPC(rv.Pointer())
	if rf == nil {
		return fallback
	}
	return shortName(rf.Name(), fallback)
}

// shortName strips the package path, receiver and generic instantiation from
// a runtime symbol name.
func shortName(full, fallback string) string {
	name := full
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = stripTypeArgs(name)
	name = strings.TrimSuffix(name, "-fm")

	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return fallback
	}
	last := parts[len(parts)-1]
	if last == "" || isGenerated(last) {
		return fallback
	}
	return last
}

// stripTypeArgs drops every bracketed instantiation, so both Name[...] and
// Name[...].func1 keep the segments after the brackets.
func stripTypeArgs(name string) string {
	if !strings.Contains(name, "[") {
		return name
	}
	var b strings.Builder
	depth := 0
	for _, r := range name {
		switch {
		case r == '[':
			depth++
		case r == ']' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isGenerated matches compiler-generated closure segments such as "func1"
// or bare numbers used for nested closures.
func isGenerated(segment string) bool {
	digits := strings.TrimPrefix(segment, "func")
	if digits == "" {
		return segment == "func"
	}
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
