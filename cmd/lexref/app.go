package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coolbeans/lexref/pkg/config"
	"github.com/coolbeans/lexref/pkg/docstore"
	"github.com/coolbeans/lexref/pkg/logging"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// app carries what every subcommand needs: the resolved configuration, the
// logger and the output format. Stores are opened lazily since parse and
// format never touch one.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	format string
	out    io.Writer

	closers []func() error
}

func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if flags.Changed("store") {
		cfg.Store.Driver, _ = flags.GetString("store")
	}
	if flags.Changed("library") {
		cfg.Store.LibraryPath, _ = flags.GetString("library")
	}
	if flags.Changed("dsn") {
		cfg.Store.DSN, _ = flags.GetString("dsn")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	format, _ := flags.GetString("format")
	switch format {
	case formatText, formatJSON:
	default:
		return fmt.Errorf("unknown output format %q (want text or json)", format)
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	a.format = format
	a.out = cmd.OutOrStdout()
	return nil
}

func (a *app) teardown() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// writer opens the configured backend without a cache, for commands that
// write.
func (a *app) writer(ctx context.Context) (docstore.Writer, error) {
	switch a.cfg.Store.Driver {
	case config.DriverPostgres:
		pg, err := docstore.NewPostgres(ctx, a.cfg.Store.DSN, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		return pg, nil
	default:
		lib, err := a.library(true)
		if err != nil {
			return nil, err
		}
		return lib, nil
	}
}

// library opens the library directory. With create set a missing library is
// initialized.
func (a *app) library(create bool) (*docstore.Library, error) {
	opts := []docstore.LibraryOption{docstore.WithLibraryLogger(a.logger)}
	var (
		lib *docstore.Library
		err error
	)
	if create {
		lib, err = docstore.OpenOrInit(a.cfg.Store.LibraryPath, opts...)
	} else {
		lib, err = docstore.Open(a.cfg.Store.LibraryPath, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open library (run 'lexref seed' first?): %w", err)
	}
	a.closers = append(a.closers, lib.Close)
	return lib, nil
}

// store opens the configured backend for reading, behind an LRU cache when
// one is configured. The library, when that is the backend, is returned too
// so serve can watch it.
func (a *app) store(ctx context.Context) (docstore.Store, *docstore.Library, error) {
	var (
		backend docstore.Store
		lib     *docstore.Library
	)
	switch a.cfg.Store.Driver {
	case config.DriverPostgres:
		pg, err := docstore.NewPostgres(ctx, a.cfg.Store.DSN, a.logger)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, pg.Close)
		backend = pg
	default:
		var err error
		if lib, err = a.library(false); err != nil {
			return nil, nil, err
		}
		backend = lib
	}

	if a.cfg.Store.CacheSize == 0 {
		return backend, lib, nil
	}
	cached, err := docstore.NewCached(backend, a.cfg.Store.CacheSize)
	if err != nil {
		return nil, nil, err
	}
	return cached, lib, nil
}

func (a *app) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(a.out, string(data))
	return err
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
