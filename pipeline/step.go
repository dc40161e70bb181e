package pipeline

import (
	"context"
	"fmt"
	"reflect"

	"github.com/kbukum/gopipe/errors"
	"github.com/kbukum/gopipe/util"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Step is a step function paired with the name shown in logs and
// diagnostic errors.
type Step struct {
	Name string
	Fn   any
}

// Named attaches an explicit display name to fn. Use it for closures, whose
// runtime names are compiler-generated.
func Named(name string, fn any) Step {
	return Step{Name: name, Fn: fn}
}

// stepOf normalises what callers pass to Next.
func stepOf(fn any) Step {
	switch s := fn.(type) {
	case Step:
		return s
	case *Step:
		if s != nil {
			return *s
		}
	}
	return Step{Fn: fn}
}

// DisplayName returns the explicit name, the function's declared name, or
// "anonymous".
func (s Step) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return util.FuncName(s.Fn, errors.Anonymous)
}

// call invokes the step with the current value followed by args. Panics are
// recovered into STEP_PANIC errors.
func (s Step) call(ctx context.Context, current any, args []any) (out any, err error) {
	name := s.DisplayName()
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, errors.StepPanic(name, r)
		}
	}()

	fv := reflect.ValueOf(s.Fn)
	if !fv.IsValid() || fv.Kind() != reflect.Func {
		return nil, errors.InvalidStep(name, fmt.Sprintf("%s is not a function", typeName(s.Fn)))
	}
	if fv.IsNil() {
		return nil, errors.InvalidStep(name, "function is nil")
	}
	ft := fv.Type()
	if err := checkResults(name, ft); err != nil {
		return nil, err
	}

	in, err := bindArgs(ctx, name, ft, append([]any{current}, args...))
	if err != nil {
		return nil, err
	}
	return splitResults(ft, fv.Call(in), current)
}

func checkResults(name string, ft reflect.Type) error {
	switch ft.NumOut() {
	case 1:
		return nil
	case 2:
		if ft.Out(1) == errorType {
			return nil
		}
	}
	return errors.InvalidStep(name, fmt.Sprintf("%s must return a value, (value, error) or error", ft))
}

// bindArgs converts values into call arguments for ft, injecting ctx when the
// first parameter is a context.Context.
func bindArgs(ctx context.Context, name string, ft reflect.Type, values []any) ([]reflect.Value, error) {
	in := make([]reflect.Value, 0, len(values)+1)
	offset := 0
	if ft.NumIn() > 0 && ft.In(0) == contextType {
		in = append(in, reflect.ValueOf(&ctx).Elem())
		offset = 1
	}

	fixed := ft.NumIn() - offset
	if ft.IsVariadic() {
		if len(values) < fixed-1 {
			return nil, errors.Arity(name, fixed-1, len(values), true)
		}
	} else if len(values) != fixed {
		return nil, errors.Arity(name, fixed, len(values), false)
	}

	for i, v := range values {
		pt := paramType(ft, offset+i)
		rv, ok := argValue(v, pt)
		if !ok {
			return nil, errors.ArgumentMismatch(name, i, pt.String(), typeName(v))
		}
		in = append(in, rv)
	}
	return in, nil
}

func paramType(ft reflect.Type, i int) reflect.Type {
	last := ft.NumIn() - 1
	if ft.IsVariadic() && i >= last {
		return ft.In(last).Elem()
	}
	return ft.In(i)
}

// argValue adapts v to t. Assignable values pass as-is; numbers convert
// between numeric kinds only when the round trip is lossless, so an untyped
// 3 reaches a float64 parameter but 2.5 never truncates into an int.
func argValue(v any, t reflect.Type) (reflect.Value, bool) {
	if v == nil {
		switch t.Kind() {
		case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
			return reflect.Zero(t), true
		}
		return reflect.Value{}, false
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, true
	}
	if isNumeric(rv.Kind()) && isNumeric(t.Kind()) {
		converted := rv.Convert(t)
		if sign(converted) == sign(rv) && converted.Convert(rv.Type()).Interface() == v {
			return converted, true
		}
	}
	return reflect.Value{}, false
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func sign(v reflect.Value) int {
	switch {
	case v.CanInt():
		return cmpZero(float64(v.Int()))
	case v.CanUint():
		return cmpZero(float64(v.Uint()))
	case v.CanFloat():
		return cmpZero(v.Float())
	}
	return 0
}

func cmpZero(f float64) int {
	switch {
	case f < 0:
		return -1
	case f > 0:
		return 1
	}
	return 0
}

// splitResults maps the step's results onto (value, error). An error-only
// step passes current through on success.
func splitResults(ft reflect.Type, outs []reflect.Value, current any) (any, error) {
	if ft.NumOut() == 2 {
		if err, _ := outs[1].Interface().(error); err != nil {
			return nil, err
		}
		return outs[0].Interface(), nil
	}
	if ft.Out(0) == errorType {
		if err, _ := outs[0].Interface().(error); err != nil {
			return nil, err
		}
		return current, nil
	}
	return outs[0].Interface(), nil
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
