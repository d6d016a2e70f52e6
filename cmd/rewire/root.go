package main

import (
	"github.com/spf13/cobra"

	"rewire/internal/version"
)

var (
	// rootFlag is the project root every command analyzes
	rootFlag string
	// verboseFlag enables debug logging
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "rewire",
	Short: "rewire - dependency-graph analyzer for unused and unwired components",
	Long: `rewire scans a TypeScript/JavaScript project, builds the intra-project
dependency graph, and classifies every file as used, unused, or unwired
(exported but never imported). Unwired files become activation candidates:
minimal barrel-export patches applied with backups, under a risk gate.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("rewire version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", ".", "Project root directory to analyze")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
}
