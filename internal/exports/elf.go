package exports

import (
	"debug/elf"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"cinterop/internal/slogutil"
)

// ELFFinder reads the dynamic symbol tables of shared objects. Nothing is
// opened until the first lookup.
type ELFFinder struct {
	paths  []string
	logger *slog.Logger

	mu      sync.Mutex
	loaded  bool
	files   []*elf.File
	owners  map[string]string
	loadErr error
}

// NewELFFinder creates a finder over the given shared objects. Earlier paths
// take precedence when several export the same function.
func NewELFFinder(logger *slog.Logger, paths ...string) *ELFFinder {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &ELFFinder{
		paths:  append([]string(nil), paths...),
		logger: logger,
	}
}

// TryFindDllNameExact implements Finder
func (f *ELFFinder) TryFindDllNameExact(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loaded {
		f.load()
	}
	dll, ok := f.owners[name]
	return dll, ok
}

// Err returns the errors met while loading, if any
func (f *ELFFinder) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadErr
}

// load must be called with mu held
func (f *ELFFinder) load() {
	f.loaded = true
	f.owners = make(map[string]string)
	var errs []error
	for _, path := range f.paths {
		file, err := elf.Open(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("open %s: %w", path, err))
			continue
		}
		f.files = append(f.files, file)

		syms, err := file.DynamicSymbols()
		if err != nil {
			errs = append(errs, fmt.Errorf("read dynamic symbols of %s: %w", path, err))
			continue
		}

		lib := filepath.Base(path)
		added := 0
		for _, sym := range syms {
			if !isExportedFunc(sym) {
				continue
			}
			if _, exists := f.owners[sym.Name]; !exists {
				f.owners[sym.Name] = lib
				added++
			}
		}
		f.logger.Debug("Loaded shared object exports", "library", lib, "functions", added)
	}
	f.loadErr = errors.Join(errs...)
	if f.loadErr != nil {
		f.logger.Warn("Some shared objects could not be read", "error", f.loadErr.Error())
	}
}

func isExportedFunc(sym elf.Symbol) bool {
	if sym.Section == elf.SHN_UNDEF || sym.Name == "" {
		return false
	}
	switch elf.ST_BIND(sym.Info) {
	case elf.STB_GLOBAL, elf.STB_WEAK:
	default:
		return false
	}
	switch elf.ST_TYPE(sym.Info) {
	case elf.STT_FUNC, elf.SymType(10): // 10 = STT_GNU_IFUNC (debug/elf constant added in Go 1.24)
		return true
	}
	return false
}

// Close releases the open files. The finder can be used again afterwards
// and will reload on the next lookup.
func (f *ELFFinder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for _, file := range f.files {
		if err := file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	f.files = nil
	f.owners = nil
	f.loaded = false
	return errors.Join(errs...)
}
