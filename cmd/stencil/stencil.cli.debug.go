package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/itsatony/go-stencil"
)

// debugConfig holds parsed debug command configuration
type debugConfig struct {
	templatePath string
	grammarPath  string
	asJSON       bool
}

// debugOutput represents JSON output for debug
type debugOutput struct {
	Valid   bool               `json:"valid"`
	Error   *validationOutput  `json:"error,omitempty"`
	Nodes   []stencil.NodeInfo `json:"nodes,omitempty"`
	Program string             `json:"program,omitempty"`
}

func runDebug(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseDebugFlags(args)
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

	tmpl, err := engine.Compile(string(templateSource))

	if cfg.asJSON {
		output := debugOutput{Valid: err == nil}
		if err != nil {
			desc := describeValidation(err)
			output.Error = &desc
		} else {
			output.Nodes = tmpl.Nodes()
			output.Program = tmpl.Program()
		}
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(stdout, string(jsonBytes))
	} else if err == nil {
		fmt.Fprintln(stdout, DebugHeaderTree)
		fmt.Fprint(stdout, tmpl.Outline())
		fmt.Fprintln(stdout, DebugHeaderProgram)
		fmt.Fprint(stdout, tmpl.Program())
	}

	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgCompileFailed, err)
		return ExitCodeError
	}
	return ExitCodeSuccess
}

func parseDebugFlags(args []string) (*debugConfig, error) {
	fs := flag.NewFlagSet(CmdNameDebug, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &debugConfig{}

	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	fs.StringVar(&cfg.grammarPath, FlagGrammar, "", "")
	fs.StringVar(&cfg.grammarPath, FlagGrammarShort, "", "")
	fs.BoolVar(&cfg.asJSON, FlagJSON, false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.templatePath == "" {
		return nil, errors.New(ErrMsgMissingTemplate)
	}

	return cfg, nil
}
