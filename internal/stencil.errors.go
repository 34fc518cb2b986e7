package internal

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every TemplateError carries exactly one of these so callers
// can classify failures with errors.Is.
var (
	ErrMalformedTag      = errors.New("malformed tag")
	ErrUnbalancedTag     = errors.New("unbalanced tag")
	ErrUnknownTag        = errors.New("unknown tag")
	ErrRender            = errors.New("render failed")
	ErrInvalidGrammar    = errors.New("invalid grammar")
	ErrInvalidExpression = errors.New("invalid expression")
)

// Error message constants
const (
	ErrMsgUnterminatedTag      = "unterminated tag"
	ErrMsgUnexpectedClose      = "closing tag without matching opener"
	ErrMsgMismatchedClose      = "mismatched closing tag"
	ErrMsgUnclosedTag          = "tag opened but never closed"
	ErrMsgNoHandler            = "no handler registered for tag"
	ErrMsgNoDefaultHandler     = "no default handler registered for delimiter"
	ErrMsgDanglingElse         = "else without matching if or loop"
	ErrMsgElseAfterElse        = "else branch already present"
	ErrMsgHandlerFailed        = "tag handler failed"
	ErrMsgUndefinedBinding     = "undefined binding"
	ErrMsgMaxDepthExceeded     = "maximum nesting depth exceeded"
	ErrMsgNotIterable          = "value is not iterable"
	ErrMsgCallFailed           = "call instruction failed"
	ErrMsgEmptyExpression      = "empty expression"
	ErrMsgBadExpression        = "cannot parse expression"
	ErrMsgUnterminatedString   = "unterminated string literal"
	ErrMsgBadIndex             = "invalid index"
	ErrMsgMissingArgument      = "required tag argument missing"
	ErrMsgEmptyGrammar         = "grammar has no delimiter families"
	ErrMsgEmptyFamilyName      = "delimiter family name cannot be empty"
	ErrMsgDuplicateFamily      = "duplicate delimiter family"
	ErrMsgEmptyDelimiter       = "opener and closer cannot be empty"
	ErrMsgEmptyTagName         = "tag name cannot be empty"
	ErrMsgInvalidTagName       = "tag name must be a word"
	ErrMsgBadPattern           = "invalid argument pattern"
	ErrMsgDuplicatePlaceholder = "duplicate placeholder in argument pattern"
	ErrMsgNilHandler           = "handler is nil"
	ErrMsgUnknownHandlerName   = "unknown built-in handler"
	ErrMsgHandlerExists        = "handler already registered"
	ErrMsgBadLoopVariable      = "loop variable must be an identifier"
	ErrMsgScriptFailed         = "script evaluation failed"
	ErrMsgScriptSyntax         = "invalid script expression"
	ErrMsgScriptValueTooDeep   = "binding is nested too deeply for a script"
	ErrMsgCancelled            = "execution cancelled"
)

// Parse and conversion failures; wrapped into TemplateErrors by callers
var (
	errBadExpression      = errors.New(ErrMsgBadExpression)
	errUnterminatedString = errors.New(ErrMsgUnterminatedString)
	errBadIndex           = errors.New(ErrMsgBadIndex)
	errScriptValueTooDeep = errors.New(ErrMsgScriptValueTooDeep)
)

// TemplateError is the single error type produced by the compiler core and
// the executor. Kind is one of the Err* sentinels above.
type TemplateError struct {
	Kind        error
	Message     string
	Position    Position
	TagName     string
	Delimiter   string
	Expected    string
	Actual      string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *TemplateError) Error() string {
	msg := e.Message
	switch {
	case e.Expected != StringValueEmpty:
		msg = fmt.Sprintf(ErrFmtExpectedActual, msg, e.Expected, e.Actual)
	case e.Actual != StringValueEmpty:
		msg = fmt.Sprintf(ErrFmtActual, msg, e.Actual)
	}
	if len(e.Suggestions) > 0 {
		msg = fmt.Sprintf(ErrFmtSuggestions, msg, strings.Join(e.Suggestions, SuggestionSeparator))
	}
	switch {
	case e.Position.IsZero() && e.TagName != StringValueEmpty:
		msg = fmt.Sprintf(ErrFmtWithTag, msg, e.TagName)
	case e.Position.IsZero():
	case e.TagName != StringValueEmpty:
		msg = fmt.Sprintf(ErrFmtWithTagAndPosition, msg, e.TagName, e.Position.String())
	default:
		msg = fmt.Sprintf(ErrFmtWithPosition, msg, e.Position.String())
	}
	if e.Cause != nil {
		msg = fmt.Sprintf(ErrFmtWithCause, msg, e.Cause)
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause
func (e *TemplateError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// newError creates a TemplateError of the given kind
func newError(kind error, message string, pos Position) *TemplateError {
	return &TemplateError{
		Kind:     kind,
		Message:  message,
		Position: pos,
	}
}

// NewMalformedTagError reports an opener without a closer
func NewMalformedTagError(delimiter string, pos Position) *TemplateError {
	err := newError(ErrMalformedTag, ErrMsgUnterminatedTag, pos)
	err.Delimiter = delimiter
	return err
}

// NewUnbalancedTagError reports open/close pairing failures
func NewUnbalancedTagError(message, expected, actual string, pos Position) *TemplateError {
	err := newError(ErrUnbalancedTag, message, pos)
	err.Expected = expected
	err.Actual = actual
	return err
}

// NewUnknownTagError reports a tag without a registered handler
func NewUnknownTagError(delimiter, tagName string, pos Position, suggestions []string) *TemplateError {
	msg := ErrMsgNoHandler
	if tagName == StringValueEmpty {
		msg = ErrMsgNoDefaultHandler
	}
	err := newError(ErrUnknownTag, msg, pos)
	err.Delimiter = delimiter
	err.TagName = tagName
	err.Suggestions = suggestions
	return err
}

// NewRenderError reports a runtime failure of a generated instruction
func NewRenderError(message, tagName string, pos Position, cause error) *TemplateError {
	err := newError(ErrRender, message, pos)
	err.TagName = tagName
	err.Cause = cause
	return err
}

// NewGrammarError reports an invalid delimiter grammar definition
func NewGrammarError(message, delimiter, tagName string, cause error) *TemplateError {
	err := newError(ErrInvalidGrammar, message, Position{})
	err.Delimiter = delimiter
	err.TagName = tagName
	err.Cause = cause
	return err
}

// NewExpressionError reports a reference that cannot be parsed
func NewExpressionError(message, expr string, pos Position) *TemplateError {
	err := newError(ErrInvalidExpression, message, pos)
	err.Actual = expr
	return err
}

// NewHandlerExistsError reports a duplicate (delimiter, tag) registration
func NewHandlerExistsError(delimiter, tagName string) *TemplateError {
	return NewGrammarError(ErrMsgHandlerExists, delimiter, tagName, nil)
}

// AsTemplateError extracts a *TemplateError from an error chain
func AsTemplateError(err error) (*TemplateError, bool) {
	var te *TemplateError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
