package internal

// SegmentKind distinguishes literal text from raw tag segments
type SegmentKind uint8

// Segment kind constants
const (
	SegmentText SegmentKind = iota
	SegmentTag
)

// Segment kind names for debugging
const (
	SegmentKindNameText = "TEXT"
	SegmentKindNameTag  = "TAG"
)

// String returns the string representation of the segment kind
func (k SegmentKind) String() string {
	if k == SegmentTag {
		return SegmentKindNameTag
	}
	return SegmentKindNameText
}

// NodeKind identifies tree node variants
type NodeKind uint8

// Node kind constants
const (
	NodeKindRoot NodeKind = iota
	NodeKindText
	NodeKindTag
)

// Node kind names for debugging
const (
	NodeKindNameRoot = "ROOT"
	NodeKindNameText = "TEXT"
	NodeKindNameTag  = "TAG"
)

// String returns the string representation of the node kind
func (k NodeKind) String() string {
	switch k {
	case NodeKindText:
		return NodeKindNameText
	case NodeKindTag:
		return NodeKindNameTag
	default:
		return NodeKindNameRoot
	}
}

// Built-in handler names. Grammar definitions reference handlers by these names.
const (
	HandlerNameOutput  = "output"
	HandlerNameIf      = "if"
	HandlerNameElseIf  = "elseif"
	HandlerNameElse    = "else"
	HandlerNameForeach = "foreach"
	HandlerNameFor     = "for"
	HandlerNameLiteral = "literal"
	HandlerNameComment = "comment"
	HandlerNameScript  = "script"
)

// Argument placeholder names used by the built-in loop handlers
const (
	ArgElement = "element"
	ArgObject  = "object"
)

// Loop index suffix: {foreach $item in $list} binds item and item_i
const LoopIndexSuffix = "_i"

// Placeholder markers in argument patterns
const (
	PlaceholderOpen  = '{'
	PlaceholderClose = '}'
)

// Reference syntax characters
const (
	CharDollar       = '$'
	CharBang         = '!'
	CharDot          = '.'
	CharLBracket     = '['
	CharRBracket     = ']'
	CharDoubleQuote  = '"'
	CharSingleQuote  = '\''
	CharBackslash    = '\\'
	CharNewline      = '\n'
	CharTab          = '\t'
	CharUnderscore   = '_'
	CharMinus        = '-'
)

// Reference keyword literals
const (
	KeywordTrue  = "true"
	KeywordFalse = "false"
	KeywordNull  = "null"
	KeywordNil   = "nil"
)

// Log message constants
const (
	LogMsgSegmenterCreated    = "segmenter created"
	LogMsgSegmentStart        = "starting segmentation"
	LogMsgSegmentEnd          = "segmentation complete"
	LogMsgTagParserCreated    = "tag parser created"
	LogMsgArgumentMismatch    = "tag arguments did not match pattern"
	LogMsgTagNotRecognized    = "tag not recognized, treating as anonymous"
	LogMsgTreeStart           = "starting tree build"
	LogMsgTreeEnd             = "tree build complete"
	LogMsgIsolatedSuppressed  = "suppressed whitespace before isolated tag"
	LogMsgGeneratorCreated    = "generator created"
	LogMsgGenerateStart       = "starting code generation"
	LogMsgGenerateEnd         = "code generation complete"
	LogMsgExecutorCreated     = "executor created"
	LogMsgExecutorStart       = "starting execution"
	LogMsgExecutorEnd         = "execution complete"
	LogMsgHandlerTableCreated = "handler table created"
	LogMsgHandlerRegistered   = "handler registered"
	LogMsgHandlerCollision    = "handler already registered, keeping first"
)

// Log field constants
const (
	LogFieldSource    = "source_len"
	LogFieldSegments  = "segments"
	LogFieldNodes     = "nodes"
	LogFieldFamilies  = "families"
	LogFieldDelimiter = "delimiter"
	LogFieldTag       = "tag"
	LogFieldPattern   = "pattern"
	LogFieldInstrs    = "instructions"
	LogFieldOutputLen = "output_len"
	LogFieldOffset    = "offset"
)

// Error format strings
const (
	ErrFmtWithTag            = "%s [tag %s]"
	ErrFmtWithPosition       = "%s at %s"
	ErrFmtWithTagAndPosition = "%s [tag %s] at %s"
	ErrFmtWithCause          = "%s: %v"
	ErrFmtExpectedActual     = "%s (expected %q, got %q)"
	ErrFmtActual             = "%s: %q"
	ErrFmtSuggestions        = "%s (did you mean: %s?)"
)

// Display constants
const (
	MaxStringDisplayLength = 40
	TruncatedStringLength  = 37
	TruncationSuffix       = "..."
	SuggestionSeparator    = ", "
	MaxSuggestions         = 3
	OutlineIndent          = "  "
)

// Default configuration values
const (
	DefaultMaxDepth = 100
)

// StringValueEmpty is the empty string, kept as a named constant
const StringValueEmpty = ""
