package internal

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// floater matches json.Number and similar decoded number types
type floater interface {
	Float64() (float64, error)
}

// Truthy reports whether v counts as true in a condition: nil, false, "",
// numeric zero and empty collections are false.
func Truthy(v any) bool {
	if v == nil {
		return false
	}

	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != StringValueEmpty
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	case []any:
		return len(x) != 0
	case map[string]any:
		return len(x) != 0
	case floater:
		f, err := x.Float64()
		return err != nil || f != 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String, reflect.Chan:
		return rv.Len() != 0
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return Truthy(rv.Elem().Interface())
	case reflect.Func:
		return !rv.IsNil()
	}
	return !rv.IsZero()
}

// ToString renders a value for output. nil renders as the empty string.
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return StringValueEmpty
	case string:
		return x
	case []byte:
		return string(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return StringValueEmpty
		}
		return ToString(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}

// Iterate calls fn for each element of a slice, array or map. Maps yield
// their keys in sorted order; with sequenceOnly they yield nothing. nil
// yields nothing. Any other value is an error.
func Iterate(v any, sequenceOnly bool, fn func(key, value any) error) error {
	if v == nil {
		return nil
	}

	switch x := v.(type) {
	case []any:
		for i, item := range x {
			if err := fn(i, item); err != nil {
				return err
			}
		}
		return nil
	case []string:
		for i, item := range x {
			if err := fn(i, item); err != nil {
				return err
			}
		}
		return nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := fn(i, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		if sequenceOnly {
			return nil
		}
		for _, key := range sortedMapKeys(rv) {
			if err := fn(key.Interface(), rv.MapIndex(key).Interface()); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%s: %T", ErrMsgNotIterable, v)
}

// sortedMapKeys orders map keys deterministically: strings and integers by
// value, anything else by its printed form.
func sortedMapKeys(m reflect.Value) []reflect.Value {
	keys := m.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		switch {
		case a.Kind() == reflect.String && b.Kind() == reflect.String:
			return a.String() < b.String()
		case a.CanInt() && b.CanInt():
			return a.Int() < b.Int()
		case a.CanUint() && b.CanUint():
			return a.Uint() < b.Uint()
		}
		return fmt.Sprint(a.Interface()) < fmt.Sprint(b.Interface())
	})
	return keys
}

// lookupField resolves name on a map with string keys or a struct. Struct
// fields match exactly first, then case-insensitively.
func lookupField(in any, name string) (any, bool) {
	if m, ok := in.(map[string]any); ok {
		v, found := m[name]
		return v, found
	}

	rv := reflect.ValueOf(in)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		mv := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Struct:
		if f, ok := rv.Type().FieldByName(name); ok && f.IsExported() {
			return rv.FieldByIndex(f.Index).Interface(), true
		}
		fv := rv.FieldByNameFunc(func(n string) bool {
			return strings.EqualFold(n, name)
		})
		if fv.IsValid() && fv.CanInterface() {
			return fv.Interface(), true
		}
	}
	return nil, false
}

// lookupIndex resolves a non-negative index on a slice or array
func lookupIndex(in any, idx int) (any, bool) {
	if s, ok := in.([]any); ok {
		if idx < 0 || idx >= len(s) {
			return nil, false
		}
		return s[idx], true
	}

	rv := reflect.ValueOf(in)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if idx < 0 || idx >= rv.Len() {
			return nil, false
		}
		return rv.Index(idx).Interface(), true
	}
	return nil, false
}
