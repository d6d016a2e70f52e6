package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rewire/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .rewire/config.json under the project root",
	Run:   runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) {
	root := mustResolveRoot()

	if !initForce && fileExists(config.Path(root)) {
		fmt.Fprintln(os.Stderr, "Config already exists; use --force to overwrite")
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	cfg.RootPath = root
	if err := cfg.Save(root); err != nil {
		fail(err)
	}
	fmt.Printf("Wrote %s\n", config.Path(root))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
