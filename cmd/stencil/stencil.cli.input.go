package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/itsatony/go-stencil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == InputSourceStdin {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

// writeOutput writes content to a file or stdout
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == FlagDefaultOutput {
		_, err := stdout.Write(data)
		return err
	}

	return os.WriteFile(path, data, FilePermissions)
}

// loadData decodes the render data from a JSON string or a JSON/YAML file
func loadData(jsonStr, filePath string) (map[string]any, error) {
	if jsonStr != "" && filePath != "" {
		return nil, errors.New(ErrMsgBothDataSources)
	}

	result := make(map[string]any)
	switch {
	case filePath != "":
		raw, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(filepath.Ext(filePath)) {
		case DataExtJSON:
			err = json.Unmarshal(raw, &result)
		case DataExtYAML, DataExtYML:
			err = yaml.Unmarshal(raw, &result)
		default:
			return nil, errors.New(ErrMsgUnknownDataFormat)
		}
		if err != nil {
			return nil, err
		}
	case jsonStr != "":
		if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
			return nil, err
		}
	}

	// "null" decodes to a nil map
	if result == nil {
		result = make(map[string]any)
	}
	return result, nil
}

// newLogger returns a console logger on stderr, or a no-op logger
func newLogger(verbose bool, stderr io.Writer) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(stderr),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}

// engineOptions holds what commands need to build an engine
type engineOptions struct {
	grammarPath  string
	missingEmpty bool
	logger       *zap.Logger
}

// errGrammar marks grammar loading failures so callers can pick the exit code
type errGrammar struct{ err error }

func (e errGrammar) Error() string { return e.err.Error() }
func (e errGrammar) Unwrap() error { return e.err }

// newEngine builds an engine with an optional grammar file
func newEngine(opts engineOptions) (*stencil.Engine, error) {
	logger := opts.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engineOpts := []stencil.Option{
		stencil.WithLogger(logger),
		stencil.WithMissingAsEmpty(opts.missingEmpty),
	}
	if opts.grammarPath != "" {
		grammar, err := stencil.LoadGrammarFile(opts.grammarPath)
		if err != nil {
			return nil, errGrammar{err}
		}
		logger.Debug(stencil.LogMsgGrammarLoaded,
			zap.String(stencil.LogFieldPath, opts.grammarPath),
			zap.Int(stencil.LogFieldFamilies, len(grammar.Families())),
		)
		engineOpts = append(engineOpts, stencil.WithGrammar(grammar))
	}
	return stencil.New(engineOpts...)
}

// engineExitCode maps a newEngine failure to an exit code and message
func engineExitCode(err error) (int, string) {
	var ge errGrammar
	if errors.As(err, &ge) {
		return ExitCodeInputError, ErrMsgGrammarLoadFailed
	}
	return ExitCodeError, ErrMsgEngineFailed
}

// openStore opens the storage used by save and view, behind a read cache
func openStore(driver, location string, logger *zap.Logger) (stencil.TemplateStorage, error) {
	storage, err := stencil.OpenStorage(driver, location)
	if err != nil {
		return nil, err
	}
	logger.Debug(stencil.LogMsgStorageOpened,
		zap.String(stencil.LogFieldDriver, driver),
	)
	return stencil.NewCachedStorage(storage, stencil.DefaultCacheConfig()), nil
}
