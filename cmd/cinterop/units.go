package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cinterop/internal/storage"
)

var (
	unitsFormat string
	unitsDB     string
)

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List the headers saved in a symbol database",
	Args:  cobra.NoArgs,
	Run:   runUnits,
}

func init() {
	unitsCmd.Flags().StringVar(&unitsFormat, "format", "human", "Output format (json, yaml, human)")
	unitsCmd.Flags().StringVar(&unitsDB, "db", "", "Symbol database directory (default from config)")
	rootCmd.AddCommand(unitsCmd)
}

// UnitsResponseCLI is the output of the units command
type UnitsResponseCLI struct {
	Database string         `json:"database" yaml:"database"`
	Symbols  int            `json:"symbols" yaml:"symbols"`
	Units    []storage.Unit `json:"units" yaml:"units"`
}

func (s *session) units(ctx context.Context, dir string) (*UnitsResponseCLI, error) {
	if dir == "" {
		dir = s.cfg.Storage.Directory
	}
	store, err := s.openStore(dir)
	if err != nil {
		return nil, err
	}
	units, err := store.Units(ctx)
	if err != nil {
		return nil, err
	}
	count, err := store.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &UnitsResponseCLI{Database: s.path(dir), Symbols: count, Units: units}, nil
}

func runUnits(cmd *cobra.Command, args []string) {
	s, err := newSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	resp, err := s.units(cmd.Context(), unitsDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing units: %v\n", err)
		s.Close()
		os.Exit(1)
	}
	output, err := FormatResponse(resp, OutputFormat(unitsFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		s.Close()
		os.Exit(1)
	}
	fmt.Println(output)
}
