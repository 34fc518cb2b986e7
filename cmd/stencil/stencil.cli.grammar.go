package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"

	"github.com/itsatony/go-stencil"
)

// grammarConfig holds parsed grammar command configuration
type grammarConfig struct {
	grammarPath string
	outputPath  string
}

func runGrammar(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseGrammarFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidArguments, err)
		return ExitCodeUsageError
	}

	grammar := stencil.StandardGrammar()
	if cfg.grammarPath != "" {
		grammar, err = stencil.LoadGrammarFile(cfg.grammarPath)
		if err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgGrammarLoadFailed, err)
			return ExitCodeInputError
		}
	}

	var buf bytes.Buffer
	if err := stencil.EncodeGrammar(&buf, grammar); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgEncodeGrammarFailed, err)
		return ExitCodeError
	}

	if err := writeOutput(cfg.outputPath, buf.Bytes(), stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}
	return ExitCodeSuccess
}

func parseGrammarFlags(args []string) (*grammarConfig, error) {
	fs := flag.NewFlagSet(CmdNameGrammar, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &grammarConfig{}

	fs.StringVar(&cfg.grammarPath, FlagGrammar, "", "")
	fs.StringVar(&cfg.grammarPath, FlagGrammarShort, "", "")
	fs.StringVar(&cfg.outputPath, FlagOutput, FlagDefaultOutput, "")
	fs.StringVar(&cfg.outputPath, FlagOutputShort, FlagDefaultOutput, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}
