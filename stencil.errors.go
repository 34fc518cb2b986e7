package stencil

import (
	"errors"
	"strconv"
	"strings"

	"github.com/itsatony/go-cuserr"
	"github.com/itsatony/go-stencil/internal"
)

// Error kinds. Compile and render errors match exactly one of these through
// errors.Is.
var (
	ErrMalformedTag      = internal.ErrMalformedTag
	ErrUnbalancedTag     = internal.ErrUnbalancedTag
	ErrUnknownTag        = internal.ErrUnknownTag
	ErrRender            = internal.ErrRender
	ErrInvalidGrammar    = internal.ErrInvalidGrammar
	ErrInvalidExpression = internal.ErrInvalidExpression
)

// ErrNotFound is matched by every storage lookup miss
var ErrNotFound = errors.New("not found")

// Error message constants
const (
	ErrMsgCompileFailed       = "template compilation failed"
	ErrMsgRenderFailed        = "template rendering failed"
	ErrMsgInvalidGrammar      = "invalid grammar"
	ErrMsgGrammarDecodeFailed = "grammar file could not be decoded"
	ErrMsgGrammarReadFailed   = "grammar file could not be read"
	ErrMsgUnknownHandlerName  = "unknown built-in handler"

	ErrMsgNilStorageDriver        = "storage driver is nil"
	ErrMsgDriverAlreadyRegistered = "storage driver already registered"
	ErrMsgStorageDriverNotFound   = "storage driver not found"
	ErrMsgStorageClosed           = "storage is closed"
	ErrMsgTemplateNotFound        = "template not found"
	ErrMsgVersionNotFound         = "template version not found"
	ErrMsgInvalidTemplateName     = "invalid template name"
	ErrMsgStorageReadFailed       = "storage read failed"
	ErrMsgStorageWriteFailed      = "storage write failed"
	ErrMsgStorageDecodeFailed     = "stored template could not be decoded"
	ErrMsgInvalidStorageRoot      = "storage root directory is empty"

	ErrMsgPostgresEmptyConnString   = "postgres connection string is empty"
	ErrMsgPostgresConnectionFailed  = "postgres connection failed"
	ErrMsgPostgresQueryFailed       = "postgres query failed"
	ErrMsgPostgresTransactionFailed = "postgres transaction failed"
	ErrMsgPostgresMigrationFailed   = "postgres migration failed"
	ErrMsgPostgresMarshalFailed     = "postgres value encoding failed"

	ErrMsgInvalidViewName = "invalid view name"
	ErrMsgNilStorage      = "view storage is nil"
	ErrMsgNilEngine       = "view engine is nil"
)

// wrapError converts an internal TemplateError into a *cuserr.CustomError
// carrying position, tag and suggestion metadata. Other errors are returned
// unchanged.
func wrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	te, ok := internal.AsTemplateError(err)
	if !ok {
		return err
	}

	ce := cuserr.WrapStdError(err, errorCode(te.Kind), msg)
	if !te.Position.IsZero() {
		ce = ce.
			WithMetadata(MetaKeyLine, strconv.Itoa(te.Position.Line)).
			WithMetadata(MetaKeyColumn, strconv.Itoa(te.Position.Column)).
			WithMetadata(MetaKeyOffset, strconv.Itoa(te.Position.Offset))
	}
	if te.TagName != "" {
		ce = ce.WithMetadata(MetaKeyTag, te.TagName)
	}
	if te.Delimiter != "" {
		ce = ce.WithMetadata(MetaKeyDelimiter, te.Delimiter)
	}
	if te.Expected != "" {
		ce = ce.WithMetadata(MetaKeyExpected, te.Expected)
	}
	if te.Actual != "" {
		ce = ce.WithMetadata(MetaKeyActual, te.Actual)
	}
	if len(te.Suggestions) > 0 {
		ce = ce.WithMetadata(MetaKeySuggestions, strings.Join(te.Suggestions, ","))
	}
	return ce
}

// errorCode maps an error kind to its code
func errorCode(kind error) string {
	switch kind {
	case ErrMalformedTag:
		return ErrCodeMalformedTag
	case ErrUnbalancedTag:
		return ErrCodeUnbalancedTag
	case ErrUnknownTag:
		return ErrCodeUnknownTag
	case ErrRender:
		return ErrCodeRender
	case ErrInvalidExpression:
		return ErrCodeExpression
	default:
		return ErrCodeGrammar
	}
}

// ErrorPosition returns the source position recorded on a compile or render
// error, if any.
func ErrorPosition(err error) (line, column int, ok bool) {
	te, found := internal.AsTemplateError(err)
	if !found || te.Position.IsZero() {
		return 0, 0, false
	}
	return te.Position.Line, te.Position.Column, true
}

// Suggestions returns the "did you mean" candidates of an unknown tag error
func Suggestions(err error) []string {
	te, ok := internal.AsTemplateError(err)
	if !ok {
		return nil
	}
	return te.Suggestions
}

// NewGrammarDecodeError creates an error for unreadable grammar files
func NewGrammarDecodeError(path string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeGrammar, ErrMsgGrammarDecodeFailed).
		WithMetadata(MetaKeyPath, path)
}

// NewGrammarReadError creates an error for a grammar file that cannot be opened
func NewGrammarReadError(path string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeGrammar, ErrMsgGrammarReadFailed).
		WithMetadata(MetaKeyPath, path)
}

// NewStorageDriverNotFoundError creates an error for a missing storage driver
func NewStorageDriverNotFoundError(name string) error {
	return cuserr.NewNotFoundError(MetaKeyDriverName, ErrMsgStorageDriverNotFound).
		WithMetadata(MetaKeyDriverName, name)
}

// NewTemplateNotFoundError creates an error for a template missing from storage
func NewTemplateNotFoundError(name string) error {
	return cuserr.WrapStdError(ErrNotFound, ErrCodeStorage, ErrMsgTemplateNotFound).
		WithMetadata(MetaKeyTemplate, name)
}

// NewVersionNotFoundError creates an error for a missing template version
func NewVersionNotFoundError(name string, version int) error {
	return cuserr.WrapStdError(ErrNotFound, ErrCodeStorage, ErrMsgVersionNotFound).
		WithMetadata(MetaKeyTemplate, name).
		WithMetadata(MetaKeyVersion, strconv.Itoa(version))
}

// NewStorageClosedError creates an error for operations on closed storage
func NewStorageClosedError() error {
	return cuserr.NewValidationError(ErrCodeStorage, ErrMsgStorageClosed)
}

// NewInvalidTemplateNameError creates an error for unusable template names
func NewInvalidTemplateNameError(name string) error {
	return cuserr.NewValidationError(ErrCodeStorage, ErrMsgInvalidTemplateName).
		WithMetadata(MetaKeyTemplate, name)
}

// NewStorageError wraps a backend failure
func NewStorageError(msg, name string, cause error) error {
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapStdError(cause, ErrCodeStorage, msg)
	} else {
		err = cuserr.NewValidationError(ErrCodeStorage, msg)
	}
	if name != "" {
		err = err.WithMetadata(MetaKeyTemplate, name)
	}
	return err
}

// NewInvalidViewNameError creates an error for view names that cannot be
// normalised
func NewInvalidViewNameError(name string) error {
	return cuserr.NewValidationError(ErrCodeView, ErrMsgInvalidViewName).
		WithMetadata(MetaKeyView, name)
}
