package internal

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Script evaluation limits and names
const (
	ScriptFilename         = "<script>"
	DefaultScriptThread    = "stencil"
	ScriptMaxSteps         = 1_000_000
	ScriptMaxValueDepth    = 64
	ScriptLabelFormat      = "starlark %q"
	scriptCancelledMessage = "context done"
)

var scriptFileOptions = &syntax.FileOptions{}

// int64er matches json.Number and similar decoded number types
type int64er interface {
	Int64() (int64, error)
}

// NewScriptHandler returns the handler for script tags. The tag body is a
// Starlark expression evaluated per run with the bindings it names
// predeclared; its value is appended to the output.
func NewScriptHandler(threadName string) Handler {
	if threadName == StringValueEmpty {
		threadName = DefaultScriptThread
	}
	return func(node *TagView, _ Fragment) (Fragment, error) {
		expr := node.Body
		if expr == StringValueEmpty {
			return nil, NewExpressionError(ErrMsgEmptyExpression, expr, node.Pos)
		}
		parsed, err := scriptFileOptions.ParseExpr(ScriptFilename, expr, 0)
		if err != nil {
			return nil, NewExpressionError(ErrMsgScriptSyntax, expr, node.Pos)
		}
		names := scriptIdentifiers(parsed)
		call := func(ctx context.Context, scope *Scope) (string, error) {
			return evalScript(ctx, threadName, expr, names, scope)
		}
		return CallFragment(fmt.Sprintf(ScriptLabelFormat, truncate(expr)), call), nil
	}
}

// scriptIdentifiers lists every identifier an expression mentions. Bound
// names and attributes are included; only those found in scope are used.
func scriptIdentifiers(expr syntax.Expr) []string {
	seen := make(map[string]bool)
	var names []string
	syntax.Walk(expr, func(n syntax.Node) bool {
		if id, ok := n.(*syntax.Ident); ok && !seen[id.Name] {
			seen[id.Name] = true
			names = append(names, id.Name)
		}
		return true
	})
	return names
}

// evalScript runs one expression on a fresh thread
func evalScript(ctx context.Context, threadName, expr string, names []string, scope *Scope) (string, error) {
	thread := &starlark.Thread{Name: threadName}
	thread.SetMaxExecutionSteps(ScriptMaxSteps)
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(scriptCancelledMessage)
	})
	defer stop()

	predeclared := make(starlark.StringDict, len(names))
	for _, name := range names {
		value, ok := scope.Lookup(name)
		if !ok {
			continue
		}
		sv, err := ToStarlark(value)
		if err != nil {
			return StringValueEmpty, NewRenderError(ErrMsgScriptFailed, StringValueEmpty, Position{}, err)
		}
		predeclared[name] = sv
	}

	val, err := starlark.EvalOptions(scriptFileOptions, thread, ScriptFilename, expr, predeclared)
	if err != nil {
		return StringValueEmpty, NewRenderError(ErrMsgScriptFailed, StringValueEmpty, Position{}, err)
	}
	return FromStarlark(val), nil
}

// ToStarlark converts a Go value from a data binding to a Starlark value.
// Values nested deeper than ScriptMaxValueDepth, cyclic ones included, are
// rejected.
func ToStarlark(v any) (starlark.Value, error) {
	return toStarlark(v, 0)
}

func toStarlark(v any, depth int) (starlark.Value, error) {
	if depth > ScriptMaxValueDepth {
		return nil, errScriptValueTooDeep
	}
	switch x := v.(type) {
	case nil:
		return starlark.None, nil
	case starlark.Value:
		return x, nil
	case string:
		return starlark.String(x), nil
	case bool:
		return starlark.Bool(x), nil
	case int:
		return starlark.MakeInt(x), nil
	case int64:
		return starlark.MakeInt64(x), nil
	case float64:
		return starlark.Float(x), nil
	case int64er:
		if i, err := x.Int64(); err == nil {
			return starlark.MakeInt64(i), nil
		}
		if f, ok := x.(floater); ok {
			if fv, err := f.Float64(); err == nil {
				return starlark.Float(fv), nil
			}
		}
		return starlark.String(fmt.Sprint(x)), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return starlark.None, nil
		}
		return toStarlark(rv.Elem().Interface(), depth+1)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return starlark.MakeInt64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return starlark.MakeUint64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return starlark.Float(rv.Float()), nil
	case reflect.String:
		return starlark.String(rv.String()), nil
	case reflect.Bool:
		return starlark.Bool(rv.Bool()), nil
	case reflect.Slice, reflect.Array:
		items := make([]starlark.Value, rv.Len())
		for i := range items {
			item, err := toStarlark(rv.Index(i).Interface(), depth+1)
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return starlark.NewList(items), nil
	case reflect.Map:
		dict := starlark.NewDict(rv.Len())
		for _, key := range sortedMapKeys(rv) {
			sk, err := toStarlark(key.Interface(), depth+1)
			if err != nil {
				return nil, err
			}
			sv, err := toStarlark(rv.MapIndex(key).Interface(), depth+1)
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(sk, sv); err != nil {
				return nil, err
			}
		}
		return dict, nil
	}

	// structs and other values are exposed by their printed form
	return starlark.String(ToString(v)), nil
}

// FromStarlark renders a Starlark result for output. Strings are not quoted
// and None renders as the empty string.
func FromStarlark(v starlark.Value) string {
	switch x := v.(type) {
	case nil, starlark.NoneType:
		return StringValueEmpty
	case starlark.String:
		return string(x)
	case starlark.Bool:
		return strconv.FormatBool(bool(x))
	case starlark.Float:
		return strconv.FormatFloat(float64(x), 'f', -1, 64)
	default:
		return v.String()
	}
}
