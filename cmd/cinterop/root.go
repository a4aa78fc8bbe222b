package main

import (
	"github.com/spf13/cobra"

	"cinterop/internal/version"
)

var (
	// rootFlag is the project directory holding .cinterop/
	rootFlag  string
	verbosity int
	quiet     bool
	logFile   string
)

var rootCmd = &cobra.Command{
	Use:   "cinterop",
	Short: "cinterop - C declaration resolver",
	Long: `cinterop parses C headers into a symbol graph, resolves every type and
value reference against the header itself, previously saved symbol databases
and the builtin C types, and records the result for later headers to build on.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.SetVersionTemplate("cinterop version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "Project directory (default: current directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write debug logs to this file")
}
