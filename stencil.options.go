package stencil

import (
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Engine.
type Option func(*engineConfig)

// handlerRegistration is a user handler queued by WithHandler
type handlerRegistration struct {
	delimiter string
	tag       string
	handler   Handler
}

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	grammar          *Grammar
	handlers         []handlerRegistration
	maxDepth         int
	missingAsEmpty   bool
	scriptThreadName string
	logger           *zap.Logger
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		grammar:          nil,
		maxDepth:         DefaultMaxDepth,
		missingAsEmpty:   false,
		scriptThreadName: DefaultScriptThreadName,
		logger:           nil,
	}
}

// WithGrammar sets the delimiter grammar.
// Default: StandardGrammar()
func WithGrammar(g *Grammar) Option {
	return func(c *engineConfig) {
		if g != nil {
			c.grammar = g
		}
	}
}

// WithHandler registers a handler for (delimiter, tag) before the built-ins,
// so it replaces the built-in a grammar names for the same pair.
// Use DefaultTag for the family's default handler.
func WithHandler(delimiter, tag string, h Handler) Option {
	return func(c *engineConfig) {
		c.handlers = append(c.handlers, handlerRegistration{
			delimiter: delimiter,
			tag:       tag,
			handler:   h,
		})
	}
}

// WithMaxDepth sets the maximum nesting depth during rendering.
// Use 0 for unlimited depth.
// Default: 100
func WithMaxDepth(depth int) Option {
	return func(c *engineConfig) {
		c.maxDepth = depth
	}
}

// WithMissingAsEmpty renders unresolved output references as empty text
// instead of failing.
// Default: false
func WithMissingAsEmpty(enabled bool) Option {
	return func(c *engineConfig) {
		c.missingAsEmpty = enabled
	}
}

// WithScriptThreadName names the Starlark thread used by script tags.
// Default: "stencil"
func WithScriptThreadName(name string) Option {
	return func(c *engineConfig) {
		if name != "" {
			c.scriptThreadName = name
		}
	}
}

// WithLogger sets the logger for the engine.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}
