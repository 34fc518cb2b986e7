package main

// Command names
const (
	CmdNameRender   = "render"
	CmdNameValidate = "validate"
	CmdNameDebug    = "debug"
	CmdNameGrammar  = "grammar"
	CmdNameSave     = "save"
	CmdNameView     = "view"
	CmdNameVersion  = "version"
	CmdNameHelp     = "help"
)

// Flag names - long form
const (
	FlagTemplate = "template"
	FlagData     = "data"
	FlagDataFile = "data-file"
	FlagGrammar  = "grammar"
	FlagOutput   = "output"
	FlagFormat   = "format"
	FlagJSON     = "json"
	FlagVerbose  = "verbose"
	FlagMissing  = "missing-empty"
	FlagStore    = "store"
	FlagDriver   = "driver"
	FlagName     = "name"
	FlagVersion  = "version"
)

// Flag names - short form
const (
	FlagTemplateShort = "t"
	FlagDataShort     = "d"
	FlagDataFileShort = "f"
	FlagGrammarShort  = "g"
	FlagOutputShort   = "o"
	FlagFormatShort   = "F"
	FlagVerboseShort  = "v"
	FlagStoreShort    = "s"
	FlagNameShort     = "n"
)

// Flag default values
const (
	FlagDefaultOutput = "-" // stdout
	FlagDefaultFormat = "text"
	FlagDefaultDriver = "filesystem"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Exit codes
const (
	ExitCodeSuccess    = 0
	ExitCodeError      = 1
	ExitCodeUsageError = 2
	ExitCodeInputError = 3
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Data file extensions
const (
	DataExtJSON = ".json"
	DataExtYAML = ".yaml"
	DataExtYML  = ".yml"
)

// Error messages
const (
	ErrMsgUnknownCommand      = "unknown command"
	ErrMsgMissingTemplate     = "template source required"
	ErrMsgMissingStore        = "store location required"
	ErrMsgMissingName         = "view name required"
	ErrMsgInvalidArguments    = "invalid arguments"
	ErrMsgInvalidData         = "invalid data"
	ErrMsgBothDataSources     = "use either --data or --data-file, not both"
	ErrMsgUnknownDataFormat   = "unsupported data file extension"
	ErrMsgReadFileFailed      = "failed to read file"
	ErrMsgWriteOutputFailed   = "failed to write output"
	ErrMsgGrammarLoadFailed   = "failed to load grammar"
	ErrMsgEngineFailed        = "failed to create engine"
	ErrMsgCompileFailed       = "template compilation failed"
	ErrMsgExecuteFailed       = "template execution failed"
	ErrMsgInvalidFormat       = "invalid output format"
	ErrMsgStorageOpenFailed   = "failed to open storage"
	ErrMsgSaveFailed          = "failed to save view"
	ErrMsgViewFailed          = "failed to render view"
	ErrMsgEncodeGrammarFailed = "failed to encode grammar"
)

// Help text templates
const (
	HelpMainUsage = `stencil - delimiter-driven text templating CLI

Usage:
    stencil <command> [options]

Commands:
    render      Render a template with data
    validate    Validate a template without executing
    debug       Show the node tree and instruction listing
    grammar     Print the active grammar as YAML
    save        Store a template as the next version of a view
    view        Render a stored view
    version     Show version information
    help        Show help for a command

Use "stencil help <command>" for more information about a command.`

	HelpRenderUsage = `Render a template with data

Usage:
    stencil render [options]

Options:
    -t, --template <file>   Template file (use "-" for stdin)
    -d, --data <json>       JSON data string
    -f, --data-file <file>  JSON or YAML data file
    -g, --grammar <file>    YAML grammar file (default: standard grammar)
    -o, --output <file>     Output file (default: stdout)
    --missing-empty         Render undefined references as empty text
    -v, --verbose           Log engine activity to stderr

Examples:
    stencil render -t page.tpl -d '{"name": "Alice"}'
    stencil render -t page.tpl -f data.yaml -o page.html
    cat page.tpl | stencil render -t - -d '{"name": "Bob"}'`

	HelpValidateUsage = `Validate a template without executing

Usage:
    stencil validate [options]

Options:
    -t, --template <file>   Template file (use "-" for stdin)
    -g, --grammar <file>    YAML grammar file
    -F, --format <format>   Output format: text, json (default: text)

Examples:
    stencil validate -t page.tpl
    stencil validate -t page.tpl -F json`

	HelpDebugUsage = `Show how a template is parsed

Usage:
    stencil debug [options]

Options:
    -t, --template <file>   Template file (use "-" for stdin)
    -g, --grammar <file>    YAML grammar file
    --json                  Print nodes and program as JSON

Examples:
    stencil debug -t page.tpl
    stencil debug -t page.tpl --json`

	HelpGrammarUsage = `Print the active grammar as YAML

Usage:
    stencil grammar [options]

Options:
    -g, --grammar <file>    YAML grammar file to normalise (default: standard grammar)
    -o, --output <file>     Output file (default: stdout)`

	HelpSaveUsage = `Store a template as the next version of a view

Usage:
    stencil save [options]

Options:
    -s, --store <location>  Storage location (directory, or DSN for postgres)
    --driver <name>         Storage driver: filesystem, postgres (default: filesystem)
    -n, --name <view>       View name, e.g. mail/welcome
    -t, --template <file>   Template file (use "-" for stdin)
    -g, --grammar <file>    YAML grammar file used for validation

Examples:
    stencil save -s ./views -n mail/welcome -t welcome.tpl`

	HelpViewUsage = `Render a stored view

Usage:
    stencil view [options]

Options:
    -s, --store <location>  Storage location (directory, or DSN for postgres)
    --driver <name>         Storage driver: filesystem, postgres (default: filesystem)
    -n, --name <view>       View name, e.g. mail/welcome
    --version <n>           Render a specific version (default: latest)
    -d, --data <json>       JSON data string
    -f, --data-file <file>  JSON or YAML data file
    -g, --grammar <file>    YAML grammar file
    -o, --output <file>     Output file (default: stdout)

Examples:
    stencil view -s ./views -n mail/welcome -d '{"name": "Alice"}'`

	HelpVersionUsage = `Show version information

Usage:
    stencil version [options]

Options:
    -F, --format <format>   Output format: text, json (default: text)`

	HelpHelpUsage = `Show help for a command

Usage:
    stencil help [command]`
)

// Version output format templates
const (
	VersionTextTemplate = "go-stencil version %s\nGo: %s"
)

// Validation output
const (
	ValidationTextSuccess = "Template is valid"
	ValidationTextFailure = "Template is invalid: %s"
	ValidationTextAt      = "  at line %d, column %d"
	ValidationTextHint    = "  did you mean: %s"
)

// Debug output headers
const (
	DebugHeaderTree    = "== tree =="
	DebugHeaderProgram = "== program =="
)

// Save output
const (
	SaveTextTemplate = "saved %s version %d\n"
)

// CLI metadata
const (
	CLIName = "stencil"
)

// File permission constant
const (
	FilePermissions = 0644
)

// Format string constants
const (
	FmtErrorWithDetail = "%s: %s\n"
	FmtErrorWithCause  = "%s: %v\n"
	FmtNewline         = "\n"
)
