package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/docforge/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "docforge",
	Short: "Retrieval-augmented code analysis and documentation generator",
	Long: `docforge scans a source tree, extracts the classes and functions of
each file, retrieves related passages from a knowledge index, and asks a
chat model to produce structured analysis items. Results stream into a
markdown report and a JSON artifact that stays valid after every file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	config.InitFlags(rootCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(versionCmd)
}
