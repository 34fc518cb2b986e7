package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/itsatony/go-stencil"
)

// storeFlags are shared by save and view
type storeFlags struct {
	location    string
	driver      string
	name        string
	grammarPath string
	verbose     bool
}

func (s *storeFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&s.location, FlagStore, "", "")
	fs.StringVar(&s.location, FlagStoreShort, "", "")
	fs.StringVar(&s.driver, FlagDriver, FlagDefaultDriver, "")
	fs.StringVar(&s.name, FlagName, "", "")
	fs.StringVar(&s.name, FlagNameShort, "", "")
	fs.StringVar(&s.grammarPath, FlagGrammar, "", "")
	fs.StringVar(&s.grammarPath, FlagGrammarShort, "", "")
	fs.BoolVar(&s.verbose, FlagVerbose, false, "")
	fs.BoolVar(&s.verbose, FlagVerboseShort, false, "")
}

func (s *storeFlags) check() error {
	if s.location == "" {
		return errors.New(ErrMsgMissingStore)
	}
	if s.name == "" {
		return errors.New(ErrMsgMissingName)
	}
	return nil
}

// openViews builds the engine and storage behind save and view. The
// returned close func releases the storage.
func openViews(s *storeFlags, stderr io.Writer) (*stencil.Views, func(), int) {
	logger := newLogger(s.verbose, stderr)

	engine, err := newEngine(engineOptions{grammarPath: s.grammarPath, logger: logger})
	if err != nil {
		code, msg := engineExitCode(err)
		fmt.Fprintf(stderr, FmtErrorWithCause, msg, err)
		return nil, nil, code
	}

	storage, err := openStore(s.driver, s.location, logger)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgStorageOpenFailed, err)
		return nil, nil, ExitCodeInputError
	}

	views, err := stencil.NewViews(engine, storage)
	if err != nil {
		_ = storage.Close()
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgStorageOpenFailed, err)
		return nil, nil, ExitCodeError
	}
	closeFn := func() {
		_ = storage.Close()
		_ = logger.Sync()
	}
	return views, closeFn, ExitCodeSuccess
}

// saveConfig holds parsed save command configuration
type saveConfig struct {
	storeFlags
	templatePath string
}

func runSave(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseSaveFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidArguments, err)
		return ExitCodeUsageError
	}

	templateSource, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	views, closeFn, code := openViews(&cfg.storeFlags, stderr)
	if code != ExitCodeSuccess {
		return code
	}
	defer closeFn()

	stored, err := views.Save(context.Background(), cfg.name, string(templateSource))
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgSaveFailed, err)
		return ExitCodeError
	}

	fmt.Fprintf(stdout, SaveTextTemplate, stored.Name, stored.Version)
	return ExitCodeSuccess
}

func parseSaveFlags(args []string) (*saveConfig, error) {
	fs := flag.NewFlagSet(CmdNameSave, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &saveConfig{}
	cfg.storeFlags.register(fs)
	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.storeFlags.check(); err != nil {
		return nil, err
	}
	if cfg.templatePath == "" {
		return nil, errors.New(ErrMsgMissingTemplate)
	}
	return cfg, nil
}

// viewConfig holds parsed view command configuration
type viewConfig struct {
	storeFlags
	version      int
	dataJSON     string
	dataFilePath string
	outputPath   string
}

func runView(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseViewFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidArguments, err)
		return ExitCodeUsageError
	}

	data, err := loadData(cfg.dataJSON, cfg.dataFilePath)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidData, err)
		return ExitCodeInputError
	}

	views, closeFn, code := openViews(&cfg.storeFlags, stderr)
	if code != ExitCodeSuccess {
		return code
	}
	defer closeFn()

	ctx := context.Background()
	var result string
	if cfg.version > 0 {
		result, err = views.RenderVersion(ctx, cfg.name, cfg.version, data)
	} else {
		result, err = views.Render(ctx, cfg.name, data)
	}
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgViewFailed, err)
		return ExitCodeError
	}

	if err := writeOutput(cfg.outputPath, []byte(result), stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}
	return ExitCodeSuccess
}

func parseViewFlags(args []string) (*viewConfig, error) {
	fs := flag.NewFlagSet(CmdNameView, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &viewConfig{}
	cfg.storeFlags.register(fs)
	fs.IntVar(&cfg.version, FlagVersion, 0, "")
	fs.StringVar(&cfg.dataJSON, FlagData, "", "")
	fs.StringVar(&cfg.dataJSON, FlagDataShort, "", "")
	fs.StringVar(&cfg.dataFilePath, FlagDataFile, "", "")
	fs.StringVar(&cfg.dataFilePath, FlagDataFileShort, "", "")
	fs.StringVar(&cfg.outputPath, FlagOutput, FlagDefaultOutput, "")
	fs.StringVar(&cfg.outputPath, FlagOutputShort, FlagDefaultOutput, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.storeFlags.check(); err != nil {
		return nil, err
	}
	return cfg, nil
}
