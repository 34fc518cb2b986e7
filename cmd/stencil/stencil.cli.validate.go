package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/itsatony/go-stencil"
)

// validateConfig holds parsed validate command configuration
type validateConfig struct {
	templatePath string
	grammarPath  string
	format       string
}

// validationOutput represents JSON output for validation
type validationOutput struct {
	Valid       bool     `json:"valid"`
	Error       string   `json:"error,omitempty"`
	Kind        string   `json:"kind,omitempty"`
	Line        int      `json:"line,omitempty"`
	Column      int      `json:"column,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func runValidate(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseValidateFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidArguments, err)
		return ExitCodeUsageError
	}

	templateSource, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	engine, err := newEngine(engineOptions{grammarPath: cfg.grammarPath})
	if err != nil {
		code, msg := engineExitCode(err)
		fmt.Fprintf(stderr, FmtErrorWithCause, msg, err)
		return code
	}

	output := describeValidation(engine.Validate(string(templateSource)))

	if cfg.format == OutputFormatJSON {
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(stdout, string(jsonBytes))
	} else {
		outputValidationText(output, stdout)
	}

	if !output.Valid {
		return ExitCodeError
	}
	return ExitCodeSuccess
}

func parseValidateFlags(args []string) (*validateConfig, error) {
	fs := flag.NewFlagSet(CmdNameValidate, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &validateConfig{}

	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	fs.StringVar(&cfg.grammarPath, FlagGrammar, "", "")
	fs.StringVar(&cfg.grammarPath, FlagGrammarShort, "", "")
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.templatePath == "" {
		return nil, errors.New(ErrMsgMissingTemplate)
	}

	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return nil, errors.New(ErrMsgInvalidFormat)
	}

	return cfg, nil
}

// describeValidation flattens a compile error for output
func describeValidation(err error) validationOutput {
	if err == nil {
		return validationOutput{Valid: true}
	}

	output := validationOutput{
		Error:       err.Error(),
		Kind:        errorKind(err),
		Suggestions: stencil.Suggestions(err),
	}
	if line, column, ok := stencil.ErrorPosition(err); ok {
		output.Line = line
		output.Column = column
	}
	return output
}

// errorKind names the error category of a compile error
func errorKind(err error) string {
	switch {
	case errors.Is(err, stencil.ErrMalformedTag):
		return stencil.ErrCodeMalformedTag
	case errors.Is(err, stencil.ErrUnbalancedTag):
		return stencil.ErrCodeUnbalancedTag
	case errors.Is(err, stencil.ErrUnknownTag):
		return stencil.ErrCodeUnknownTag
	case errors.Is(err, stencil.ErrInvalidExpression):
		return stencil.ErrCodeExpression
	case errors.Is(err, stencil.ErrRender):
		return stencil.ErrCodeRender
	default:
		return stencil.ErrCodeGrammar
	}
}

func outputValidationText(output validationOutput, stdout io.Writer) {
	if output.Valid {
		fmt.Fprintln(stdout, ValidationTextSuccess)
		return
	}

	fmt.Fprintf(stdout, ValidationTextFailure+FmtNewline, output.Error)
	if output.Line > 0 {
		fmt.Fprintf(stdout, ValidationTextAt+FmtNewline, output.Line, output.Column)
	}
	if len(output.Suggestions) > 0 {
		fmt.Fprintf(stdout, ValidationTextHint+FmtNewline, strings.Join(output.Suggestions, ", "))
	}
}
