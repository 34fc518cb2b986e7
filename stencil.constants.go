package stencil

import "time"

// Version of the stencil module
const Version = "0.4.0"

// Family names of the standard grammar. These are the delimiter keys used
// with RegisterHandler and WithHandler.
const (
	FamilyStatement = "statement"
	FamilyEcho      = "echo"
	FamilyScript    = "script"
)

// Standard grammar delimiters and tag names
const (
	StatementOpener = "{"
	StatementCloser = "}"
	EchoOpener      = "{echo "
	EchoCloser      = "}"
	ScriptOpener    = "{script "
	ScriptCloser    = "}"

	EchoPriority      = 20
	ScriptPriority    = 10
	StatementPriority = 0

	TagIf      = "if"
	TagElseIf  = "elseif"
	TagElse    = "else"
	TagForeach = "foreach"
	TagFor     = "for"
	TagLiteral = "literal"
	TagComment = "comment"

	// LoopArguments binds the loop variable and the iterated collection
	LoopArguments = "{element} in {object}"

	// DefaultTag addresses the default handler of a family
	DefaultTag = ""
)

// Built-in handler names usable from grammar definitions
const (
	HandlerOutput  = "output"
	HandlerIf      = "if"
	HandlerElseIf  = "elseif"
	HandlerElse    = "else"
	HandlerForeach = "foreach"
	HandlerFor     = "for"
	HandlerLiteral = "literal"
	HandlerComment = "comment"
	HandlerScript  = "script"
)

// Engine defaults
const (
	DefaultMaxDepth         = 100
	DefaultScriptThreadName = "stencil"
)

// Error code constants for categorization
const (
	ErrCodeMalformedTag  = "STENCIL_MALFORMED_TAG"
	ErrCodeUnbalancedTag = "STENCIL_UNBALANCED_TAG"
	ErrCodeUnknownTag    = "STENCIL_UNKNOWN_TAG"
	ErrCodeRender        = "STENCIL_RENDER"
	ErrCodeGrammar       = "STENCIL_GRAMMAR"
	ErrCodeExpression    = "STENCIL_EXPRESSION"
	ErrCodeStorage       = "STENCIL_STORAGE"
	ErrCodeView          = "STENCIL_VIEW"
)

// Error metadata keys
const (
	MetaKeyLine        = "line"
	MetaKeyColumn      = "column"
	MetaKeyOffset      = "offset"
	MetaKeyTag         = "tag"
	MetaKeyDelimiter   = "delimiter"
	MetaKeyExpected    = "expected"
	MetaKeyActual      = "actual"
	MetaKeySuggestions = "suggestions"
	MetaKeyTemplate    = "template"
	MetaKeyVersion     = "version"
	MetaKeyDriverName  = "driver"
	MetaKeyPath        = "path"
	MetaKeyView        = "view"
)

// Log messages
const (
	LogMsgEngineCreated      = "engine created"
	LogMsgCompileStart       = "compiling template"
	LogMsgCompileEnd         = "template compiled"
	LogMsgCompileFailed      = "template compilation failed"
	LogMsgBuiltinOverridden  = "built-in handler overridden by user handler"
	LogMsgGrammarLoaded      = "grammar loaded"
	LogMsgViewCacheHit       = "view cache hit"
	LogMsgViewCompiled       = "view compiled"
	LogMsgViewInvalidated    = "view invalidated"
	LogMsgViewsInvalidated   = "all views invalidated"
	LogMsgStorageOpened      = "storage opened"
	LogMsgMigrationApplied   = "storage migration applied"
	LogMsgTemplateSaved      = "template saved"
	LogMsgTemplateDeleted    = "template deleted"
	LogMsgTemplateLoadFailed = "stored template could not be loaded"
)

// Log field names
const (
	LogFieldFamilies  = "families"
	LogFieldHandlers  = "handlers"
	LogFieldDelimiter = "delimiter"
	LogFieldTag       = "tag"
	LogFieldSourceLen = "source_len"
	LogFieldNodes     = "nodes"
	LogFieldView      = "view"
	LogFieldVersion   = "version"
	LogFieldDriver    = "driver"
	LogFieldPath      = "path"
	LogFieldMigration = "migration"
)

// Storage driver names
const (
	StorageDriverNameMemory     = "memory"
	StorageDriverNameFilesystem = "filesystem"
	StorageDriverNamePostgres   = "postgres"
)

// Filesystem storage layout
const (
	FilesystemVersionPrefix = "v"
	FilesystemFileExt       = ".json"
	FilesystemDirPerm       = 0o755
	FilesystemFilePerm      = 0o644
)

// PostgreSQL storage defaults
const (
	PostgresDefaultMaxOpenConns    = 25
	PostgresDefaultMaxIdleConns    = 5
	PostgresDefaultConnMaxLifetime = 5 * time.Minute
	PostgresDefaultConnMaxIdleTime = 5 * time.Minute
	PostgresDefaultQueryTimeout    = 30 * time.Second
	PostgresTablePrefix            = "stencil_"
	PostgresDriverName             = "postgres"
)

// Storage cache defaults
const (
	CacheDefaultTTL         = 5 * time.Minute
	CacheDefaultMaxEntries  = 1000
	CacheDefaultNegativeTTL = 30 * time.Second
)

// View name handling
const (
	ViewPathSeparator   = "/"
	ViewParentSegment   = ".."
	ViewCurrentSegment  = "."
	TemplateIDPrefix    = "tmpl_"
	TemplateIDRandBytes = 8
)

// ViewExtensions are stripped from view names before lookup
var ViewExtensions = []string{".tpl", ".stencil", ".php", ".html"}
