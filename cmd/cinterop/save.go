package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cinterop/internal/paths"
)

var (
	saveFormat       string
	saveAllowPartial bool
	saveOut          string
	saveForce        bool
)

var saveCmd = &cobra.Command{
	Use:   "save <file.h>",
	Short: "Resolve a header and store its resolved declarations",
	Long: `Resolve a C header and write every fully resolved declaration to a symbol
database, where later headers can find it through --db or chainDatabases.

The header is recorded as a translation unit keyed by its content digest;
saving an unchanged header again does nothing unless --force is given.

Examples:
  cinterop save include/types.h
  cinterop save include/types.h --out sdk/db
  cinterop save include/api.h --allow-partial --force`,
	Args: cobra.ExactArgs(1),
	Run:  runSave,
}

func init() {
	saveCmd.Flags().StringVar(&saveFormat, "format", "human", "Output format (json, yaml, human)")
	saveCmd.Flags().BoolVar(&saveAllowPartial, "allow-partial", false, "Save the resolved subset even when errors were reported")
	saveCmd.Flags().StringVar(&saveOut, "out", "", "Symbol database directory (default from config)")
	saveCmd.Flags().BoolVar(&saveForce, "force", false, "Write the symbols even if this header was saved before")
	saveCmd.Flags().StringSliceVar(&resolveDatabases, "db", nil, "Additional symbol database directories to chain")
	rootCmd.AddCommand(saveCmd)
}

var errUnresolved = errors.New("header has unresolved references (use --allow-partial to save the resolved subset)")

// SaveResponseCLI is the output of the save command
type SaveResponseCLI struct {
	File        string          `json:"file" yaml:"file"`
	Database    string          `json:"database" yaml:"database"`
	UnitID      string          `json:"unitId,omitempty" yaml:"unitId,omitempty"`
	Saved       int             `json:"saved" yaml:"saved"`
	Skipped     bool            `json:"skipped" yaml:"skipped"`
	Diagnostics []DiagnosticCLI `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

type saveOptions struct {
	resolve      resolveOptions
	out          string
	force        bool
	allowPartial bool
}

func (s *session) saveHeader(ctx context.Context, path string, opts saveOptions) (*SaveResponseCLI, error) {
	r, err := s.resolveHeader(ctx, path, opts.resolve)
	if err != nil {
		return nil, err
	}
	resp := &SaveResponseCLI{
		File:        path,
		Diagnostics: convertDiagnostics(r.diagnostics),
	}
	if r.diagnostics.HasErrors() && !opts.allowPartial {
		return resp, errUnresolved
	}

	dir := opts.out
	if dir == "" {
		dir = s.cfg.Storage.Directory
	}
	resp.Database = s.path(dir)
	store, err := s.openStore(dir)
	if err != nil {
		return nil, err
	}

	if opts.force {
		n, err := r.bag.SaveTo(ctx, store)
		if err != nil {
			return nil, err
		}
		resp.Saved = n
		return resp, nil
	}

	ids := r.bag.FindResolvedSymbols()
	unit, saved, err := store.SaveUnit(ctx, paths.UnitName(path, s.root), r.source, r.bag.Table(), ids)
	if err != nil {
		return nil, err
	}
	resp.UnitID = unit.ID
	resp.Skipped = !saved
	if saved {
		resp.Saved = len(ids)
	}
	return resp, nil
}

func runSave(cmd *cobra.Command, args []string) {
	s, err := newSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	resp, err := s.saveHeader(cmd.Context(), args[0], saveOptions{
		resolve:      s.resolveOptions(),
		out:          saveOut,
		force:        saveForce,
		allowPartial: saveAllowPartial,
	})
	if resp != nil {
		if output, ferr := FormatResponse(resp, OutputFormat(saveFormat)); ferr == nil {
			fmt.Println(output)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error saving %s: %v\n", args[0], err)
		s.Close()
		os.Exit(1)
	}
}
