package dispatch

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// AddFunc registers a typed function under name. String arguments are
// parsed to the parameter types before the call and the return value,
// if any, is rendered back to a string. The argument count is the
// function's parameter count.
//
// Parameters may be fixed-width integers, floats, bool or string. The
// function may return nothing, a value, an error, or a value and an
// error.
func (d *Dispatcher) AddFunc(name string, fn any) error {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return fmt.Errorf("command %q: %T is not a function", name, fn)
	}
	if t.IsVariadic() {
		return fmt.Errorf("command %q: variadic functions are not supported", name)
	}
	for i := 0; i < t.NumIn(); i++ {
		if !convertible(t.In(i).Kind()) {
			return fmt.Errorf("command %q: unsupported parameter type %s", name, t.In(i))
		}
	}
	if err := checkResults(t); err != nil {
		return fmt.Errorf("command %q: %w", name, err)
	}

	wrapper := func(args []string) (string, error) {
		in := make([]reflect.Value, t.NumIn())
		for i := range in {
			pv, err := parseArg(args[i], t.In(i))
			if err != nil {
				return "", fmt.Errorf("argument %d: %w", i+1, err)
			}
			in[i] = pv
		}
		return renderResults(v.Call(in))
	}
	return d.Add(name, wrapper, t.NumIn())
}

// convertible reports whether a parameter kind can be parsed from a
// string argument.
func convertible(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Bool, reflect.String:
		return true
	}
	return false
}

// checkResults validates the result signature: nothing, a value, an
// error, or a value and an error.
func checkResults(t reflect.Type) error {
	switch t.NumOut() {
	case 0:
		return nil
	case 1:
		if t.Out(0) == errType || convertible(t.Out(0).Kind()) {
			return nil
		}
		return fmt.Errorf("unsupported result type %s", t.Out(0))
	case 2:
		if t.Out(1) != errType {
			return fmt.Errorf("second result must be error, got %s", t.Out(1))
		}
		if !convertible(t.Out(0).Kind()) {
			return fmt.Errorf("unsupported result type %s", t.Out(0))
		}
		return nil
	default:
		return errors.New("too many results")
	}
}

func parseArg(s string, t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetBool(b)
	case reflect.String:
		v.SetString(s)
	default:
		return reflect.Value{}, fmt.Errorf("unsupported parameter type %s", t)
	}
	return v, nil
}

func renderResults(out []reflect.Value) (string, error) {
	if len(out) == 0 {
		return "", nil
	}

	last := out[len(out)-1]
	if last.Type() == errType {
		if !last.IsNil() {
			return "", last.Interface().(error)
		}
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return "", nil
	}
	return formatValue(out[0]), nil
}

func formatValue(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.String:
		return v.String()
	}
	return ""
}
