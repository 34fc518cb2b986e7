package stencil

import (
	"context"

	"github.com/itsatony/go-stencil/internal"
	"go.uber.org/zap"
)

// Engine is the main entry point: it owns a grammar, the handler table and
// compiles template sources into reusable Templates.
type Engine struct {
	grammar  *Grammar
	handlers *internal.HandlerTable
	compiler *internal.Compiler
	executor *internal.Executor
	config   *engineConfig
	logger   *zap.Logger
}

// New creates a new Engine with the given options. Handlers given with
// WithHandler are registered first, then the built-in handlers named by the
// grammar fill the remaining (delimiter, tag) pairs. Every declared tag
// must end up with a handler.
func New(opts ...Option) (*Engine, error) {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	grammar := config.grammar
	if grammar == nil {
		grammar = StandardGrammar()
	}

	handlers := internal.NewHandlerTable(logger)
	for _, reg := range config.handlers {
		if err := handlers.Register(reg.delimiter, reg.tag, reg.handler); err != nil {
			return nil, wrapError(err, ErrMsgInvalidGrammar)
		}
	}
	if err := registerBuiltins(handlers, grammar, config, logger); err != nil {
		return nil, err
	}
	if err := handlers.Validate(grammar); err != nil {
		return nil, wrapError(err, ErrMsgInvalidGrammar)
	}

	executor := internal.NewExecutor(internal.ExecutorConfig{
		MaxDepth:       config.maxDepth,
		MissingAsEmpty: config.missingAsEmpty,
	}, logger)

	logger.Debug(LogMsgEngineCreated,
		zap.Int(LogFieldFamilies, len(grammar.Families())),
		zap.Int(LogFieldHandlers, len(handlers.Keys())),
	)

	return &Engine{
		grammar:  grammar,
		handlers: handlers,
		compiler: internal.NewCompiler(grammar, handlers, logger),
		executor: executor,
		config:   config,
		logger:   logger,
	}, nil
}

// MustNew creates a new Engine and panics if there's an error.
func MustNew(opts ...Option) *Engine {
	engine, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return engine
}

// registerBuiltins binds the built-in handler named by each family and tag,
// skipping pairs that already have a user handler.
func registerBuiltins(table *internal.HandlerTable, g *Grammar, config *engineConfig, logger *zap.Logger) error {
	builtins := internal.BuiltinHandlers(internal.BuiltinConfig{
		ScriptThreadName: config.scriptThreadName,
	})

	bind := func(delimiter, tag, name string) error {
		if name == "" {
			return nil
		}
		h, ok := builtins[name]
		if !ok {
			return wrapError(internal.NewGrammarError(ErrMsgUnknownHandlerName, delimiter, tag, nil), ErrMsgInvalidGrammar)
		}
		if table.Has(delimiter, tag) {
			logger.Debug(LogMsgBuiltinOverridden,
				zap.String(LogFieldDelimiter, delimiter),
				zap.String(LogFieldTag, tag),
			)
			return nil
		}
		return wrapError(table.Register(delimiter, tag, h), ErrMsgInvalidGrammar)
	}

	for _, fam := range g.Families() {
		if err := bind(fam.Name, DefaultTag, fam.Handler); err != nil {
			return err
		}
		for _, tag := range fam.Tags {
			if err := bind(fam.Name, tag.Name, tag.Handler); err != nil {
				return err
			}
		}
	}
	return nil
}

// Compile turns a template source into a reusable Template. All structural
// errors (malformed, unbalanced and unknown tags) are reported here.
func (e *Engine) Compile(source string) (*Template, error) {
	e.logger.Debug(LogMsgCompileStart, zap.Int(LogFieldSourceLen, len(source)))

	compiled, err := e.compiler.Compile(source)
	if err != nil {
		e.logger.Debug(LogMsgCompileFailed, zap.Error(err))
		return nil, wrapError(err, ErrMsgCompileFailed)
	}

	e.logger.Debug(LogMsgCompileEnd, zap.Int(LogFieldNodes, len(compiled.Tree.Nodes)))
	return newTemplate(compiled, e.executor), nil
}

// MustCompile is like Compile but panics on error.
func (e *Engine) MustCompile(source string) *Template {
	tmpl, err := e.Compile(source)
	if err != nil {
		panic(err)
	}
	return tmpl
}

// Execute is a convenience method that compiles and renders in one step.
// For templates rendered more than once, use Compile instead.
func (e *Engine) Execute(ctx context.Context, source string, data map[string]any) (string, error) {
	tmpl, err := e.Compile(source)
	if err != nil {
		return "", err
	}
	return tmpl.Execute(ctx, data)
}

// Validate compiles source and reports the first structural error, if any.
func (e *Engine) Validate(source string) error {
	_, err := e.Compile(source)
	return err
}

// RegisterHandler adds a handler for (delimiter, tag); DefaultTag addresses
// the family's default handler. The first registration for a pair wins and
// later attempts return an error. Templates compiled earlier are unaffected.
func (e *Engine) RegisterHandler(delimiter, tag string, h Handler) error {
	return wrapError(e.handlers.Register(delimiter, tag, h), ErrMsgInvalidGrammar)
}

// HasHandler reports whether (delimiter, tag) can be dispatched.
func (e *Engine) HasHandler(delimiter, tag string) bool {
	return e.handlers.Has(delimiter, tag)
}

// Handlers lists registered pairs as "delimiter:tag" in sorted order.
func (e *Engine) Handlers() []string {
	return e.handlers.Keys()
}

// Grammar returns the engine's grammar.
func (e *Engine) Grammar() *Grammar {
	return e.grammar
}
