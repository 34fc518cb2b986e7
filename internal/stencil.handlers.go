package internal

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// TagView is the read-only view of a tag node handed to handlers
type TagView struct {
	TagName   string
	Delimiter string
	Body      string
	Inner     string
	Raw       string
	Arguments map[string]string
	Isolated  bool
	Pos       Position
}

// Argument returns a named argument, or "" when absent
func (v *TagView) Argument(name string) string {
	return v.Arguments[name]
}

// Handler translates one tag node plus its generated children into a fragment
type Handler func(node *TagView, inner Fragment) (Fragment, error)

// handlerKey addresses a handler: family name plus tag name ("" = default)
type handlerKey struct {
	delimiter string
	tag       string
}

// HandlerTable maps (delimiter, tag) pairs to handlers with first-come-wins
// semantics. Safe for concurrent use.
type HandlerTable struct {
	handlers map[handlerKey]Handler
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewHandlerTable creates an empty handler table
func NewHandlerTable(logger *zap.Logger) *HandlerTable {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgHandlerTableCreated)
	return &HandlerTable{
		handlers: make(map[handlerKey]Handler),
		logger:   logger,
	}
}

// Register adds a handler. An existing registration is kept and an error
// returned.
func (t *HandlerTable) Register(delimiter, tag string, h Handler) error {
	if h == nil {
		return NewGrammarError(ErrMsgNilHandler, delimiter, tag, nil)
	}
	if delimiter == StringValueEmpty {
		return NewGrammarError(ErrMsgEmptyFamilyName, delimiter, tag, nil)
	}

	key := handlerKey{delimiter: delimiter, tag: tag}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.handlers[key]; exists {
		t.logger.Warn(LogMsgHandlerCollision,
			zap.String(LogFieldDelimiter, delimiter),
			zap.String(LogFieldTag, tag),
		)
		return NewHandlerExistsError(delimiter, tag)
	}

	t.handlers[key] = h
	t.logger.Debug(LogMsgHandlerRegistered,
		zap.String(LogFieldDelimiter, delimiter),
		zap.String(LogFieldTag, tag),
	)
	return nil
}

// Lookup finds the handler for (delimiter, tag)
func (t *HandlerTable) Lookup(delimiter, tag string) (Handler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	h, ok := t.handlers[handlerKey{delimiter: delimiter, tag: tag}]
	return h, ok
}

// Has reports whether a handler exists for (delimiter, tag)
func (t *HandlerTable) Has(delimiter, tag string) bool {
	_, ok := t.Lookup(delimiter, tag)
	return ok
}

// Keys lists registered pairs as "delimiter:tag", sorted
func (t *HandlerTable) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := make([]string, 0, len(t.handlers))
	for k := range t.handlers {
		keys = append(keys, k.delimiter+":"+k.tag)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks that every declared tag, and every family without tags,
// can be dispatched.
func (t *HandlerTable) Validate(g *Grammar) error {
	for _, fam := range g.families {
		if !fam.HasTags() {
			if !t.Has(fam.Name, StringValueEmpty) {
				return NewUnknownTagError(fam.Name, StringValueEmpty, Position{}, nil)
			}
			continue
		}
		for _, spec := range fam.Tags {
			if !t.Has(fam.Name, spec.Name) {
				return NewUnknownTagError(fam.Name, spec.Name, Position{}, nil)
			}
		}
	}
	return nil
}
