package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cinterop/internal/bag"
	"cinterop/internal/config"
	"cinterop/internal/cparse"
	"cinterop/internal/exports"
	"cinterop/internal/slogutil"
	"cinterop/internal/storage"
)

// session carries the configuration and open resources of one command
type session struct {
	root    string
	cfg     *config.Config
	logger  *slog.Logger
	closers []io.Closer
}

func newSession() (*session, error) {
	root := rootFlag
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root = wd
	}

	s := &session{root: root}
	cfg, cfgErr := config.LoadConfig(root)
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}
	s.cfg = cfg

	logger, err := s.newLogger()
	if err != nil {
		return nil, err
	}
	s.logger = logger
	if cfgErr != nil {
		s.logger.Warn("Failed to load config, using defaults", "error", cfgErr.Error())
	}

	if err := cfg.Validate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// newLogger honors the configured format and level unless -v or -q is given
func (s *session) newLogger() (*slog.Logger, error) {
	level := slogutil.LevelFromString(s.cfg.Logging.Level)
	if verbosity > 0 || quiet {
		level = slogutil.LevelFromVerbosity(verbosity, quiet)
	}
	handler := slogutil.NewHandler(os.Stderr, s.cfg.Logging.Format, level)

	if logFile != "" {
		fileLogger, f, err := slogutil.NewFileLogger(logFile, slog.LevelDebug)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		s.closers = append(s.closers, f)
		handler = slogutil.NewTeeHandler(handler, fileLogger.Handler())
	}
	return slog.New(handler), nil
}

// Close releases everything the session opened, newest first
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *session) path(p string) string {
	return config.Path(s.root, p)
}

// openStore opens a symbol database owned by the session
func (s *session) openStore(dir string) (*storage.Store, error) {
	store, err := storage.OpenStore(s.path(dir), s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open symbol database %s: %w", dir, err)
	}
	s.closers = append(s.closers, store)
	return store, nil
}

// openChain opens the configured chain databases followed by extra
func (s *session) openChain(extra []string) ([]bag.Lookup, error) {
	dirs := append(append([]string(nil), s.cfg.Resolve.ChainDatabases...), extra...)
	lookups := make([]bag.Lookup, 0, len(dirs))
	for _, dir := range dirs {
		store, err := s.openStore(dir)
		if err != nil {
			return nil, err
		}
		lookups = append(lookups, store)
	}
	return lookups, nil
}

// finder combines the configured export manifests and shared objects. It
// returns nil when none are configured.
func (s *session) finder() (bag.Finder, error) {
	var finders []exports.Finder
	if len(s.cfg.Exports.Manifests) > 0 {
		paths := make([]string, len(s.cfg.Exports.Manifests))
		for i, p := range s.cfg.Exports.Manifests {
			paths[i] = s.path(p)
		}
		mf, err := exports.NewManifestFinder(paths...)
		if err != nil {
			return nil, err
		}
		finders = append(finders, mf)
	}
	if len(s.cfg.Exports.Libraries) > 0 {
		paths := make([]string, len(s.cfg.Exports.Libraries))
		for i, p := range s.cfg.Exports.Libraries {
			paths[i] = s.path(p)
		}
		finders = append(finders, exports.NewELFFinder(s.logger, paths...))
	}
	if len(finders) == 0 {
		return nil, nil
	}
	return exports.NewMulti(finders...), nil
}

// parse reads and parses a header, then adds the configured macro table
func (s *session) parse(ctx context.Context, path string) (*cparse.Result, []byte, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	p := cparse.NewParser()
	if p == nil {
		return nil, nil, cparse.ErrUnavailable
	}
	res, err := p.Parse(ctx, source)
	if err != nil {
		return nil, nil, err
	}

	if s.cfg.Parse.MacroTable != "" {
		macros, err := cparse.LoadMacroTable(s.path(s.cfg.Parse.MacroTable))
		if err != nil {
			return nil, nil, err
		}
		added := res.AddMacros(macros)
		s.logger.Debug("Added predefined macros", "count", added)
	}
	for _, d := range res.Duplicates {
		s.logger.Debug("Skipped duplicate declaration", "declaration", d)
	}
	s.logger.Info("Parsed header",
		"file", path,
		"symbols", len(res.Symbols),
		"macros", len(res.Macros),
		"syntaxErrors", len(res.Errors),
	)
	return res, source, nil
}
