package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cinterop/internal/version"
)

var versionFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		output, err := FormatResponse(version.Get(), OutputFormat(versionFormat))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(output)
	},
}

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "human", "Output format (json, yaml, human)")
	rootCmd.AddCommand(versionCmd)
}
