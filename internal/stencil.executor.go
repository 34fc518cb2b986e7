package internal

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// ExecutorConfig holds run-time settings
type ExecutorConfig struct {
	MaxDepth       int  // 0 disables the nesting guard
	MissingAsEmpty bool // unresolved outputs render as "" instead of failing
}

// Executor interprets fragments. It holds no per-run state, so one
// executor serves concurrent runs.
type Executor struct {
	config ExecutorConfig
	logger *zap.Logger
}

// NewExecutor creates an executor
func NewExecutor(config ExecutorConfig, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgExecutorCreated)
	return &Executor{config: config, logger: logger}
}

// Execute runs program against data. On error the partial output is
// discarded.
func (e *Executor) Execute(ctx context.Context, program Fragment, data map[string]any) (string, error) {
	e.logger.Debug(LogMsgExecutorStart, zap.Int(LogFieldInstrs, len(program)))

	if err := ctx.Err(); err != nil {
		return StringValueEmpty, NewRenderError(ErrMsgCancelled, StringValueEmpty, Position{}, err)
	}

	var out strings.Builder
	if err := e.run(ctx, program, NewScope(data), 0, &out); err != nil {
		return StringValueEmpty, err
	}

	e.logger.Debug(LogMsgExecutorEnd, zap.Int(LogFieldOutputLen, out.Len()))
	return out.String(), nil
}

func (e *Executor) run(ctx context.Context, f Fragment, scope *Scope, depth int, out *strings.Builder) error {
	if e.config.MaxDepth > 0 && depth > e.config.MaxDepth {
		pos := Position{}
		if len(f) > 0 {
			pos = f[0].Pos
		}
		return NewRenderError(ErrMsgMaxDepthExceeded, StringValueEmpty, pos, nil)
	}

	for i := range f {
		in := &f[i]
		switch in.Op {
		case OpText:
			out.WriteString(in.Text)

		case OpOutput:
			v, ok := in.Ref.Resolve(scope)
			if !ok {
				if e.config.MissingAsEmpty {
					continue
				}
				err := NewRenderError(ErrMsgUndefinedBinding, in.TagName, in.Pos, nil)
				err.Actual = in.Ref.Source
				return err
			}
			out.WriteString(ToString(v))

		case OpBranch:
			// an else chain stays on the same level as its if
			body, next := in.Else, depth
			if in.Ref == nil || in.Ref.Test(scope) {
				body, next = in.Then, depth+1
			}
			if err := e.run(ctx, body, scope, next, out); err != nil {
				return err
			}

		case OpLoop:
			if err := e.loop(ctx, in, scope, depth, out); err != nil {
				return err
			}

		case OpCall:
			s, err := in.Call(ctx, scope)
			if err != nil {
				if te, ok := AsTemplateError(err); ok {
					if te.Position.IsZero() {
						te.Position = in.Pos
					}
					if te.TagName == StringValueEmpty {
						te.TagName = in.TagName
					}
					return te
				}
				return NewRenderError(ErrMsgCallFailed, in.TagName, in.Pos, err)
			}
			out.WriteString(s)
		}
	}
	return nil
}

// loop binds item and index in a fresh frame per run of the loop and falls
// back to Empty when nothing was iterated
func (e *Executor) loop(ctx context.Context, in *Instr, scope *Scope, depth int, out *strings.Builder) error {
	collection, _ := in.Ref.Resolve(scope)
	frame := scope.Child()
	count := 0

	err := Iterate(collection, in.SequenceOnly, func(key, value any) error {
		if err := ctx.Err(); err != nil {
			return NewRenderError(ErrMsgCancelled, in.TagName, in.Pos, err)
		}
		count++
		frame.Set(in.Item, value)
		frame.Set(in.Index, key)
		return e.run(ctx, in.Body, frame, depth+1, out)
	})
	if err != nil {
		if _, ok := AsTemplateError(err); ok {
			return err
		}
		return NewRenderError(ErrMsgNotIterable, in.TagName, in.Pos, err)
	}

	if count == 0 && len(in.Empty) > 0 {
		return e.run(ctx, in.Empty, scope, depth+1, out)
	}
	return nil
}
