package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rewire/internal/activate"
	"rewire/internal/ledger"
)

var (
	applyFormat        string
	applyIncludeMedium bool
	applyDryRun        bool
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply activation patches for pending candidates",
	Long: `Apply the barrel-export patch for every pending candidate the risk gate
allows: LOW risk by default, MEDIUM with --include-medium-risk, HIGH
never. Each touched file is backed up first; one failing candidate never
aborts the batch. --dry-run reports the exact actions without writing.

Examples:
  rewire apply
  rewire apply --dry-run --format human
  rewire apply --include-medium-risk`,
	Run: runApply,
}

func init() {
	applyCmd.Flags().StringVar(&applyFormat, "format", "json", "Output format (json, human)")
	applyCmd.Flags().BoolVar(&applyIncludeMedium, "include-medium-risk", false, "Also apply MEDIUM-risk candidates")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Report actions without mutating anything")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) {
	root := mustResolveRoot()
	cfg := mustLoadConfig(root)
	logger := newLogger(cfg)

	cache, closeCache := openCache(root, cfg.Cache.Enabled, logger)
	defer closeCache()

	led, err := ledger.Load(ledgerPath(root))
	if err != nil {
		fail(err)
	}

	var invalidator activate.CacheInvalidator
	if cache != nil {
		invalidator = cache
	}
	engine := activate.NewEngine(root, cfg.Activation, backupsDir(root), led, invalidator, logger)

	policy := activate.Policy{
		IncludeMediumRisk: applyIncludeMedium || cfg.Activation.IncludeMediumRisk,
		DryRun:            applyDryRun,
	}
	actions := engine.Apply(led.Pending(), policy)

	if !applyDryRun {
		if err := led.Save(); err != nil {
			fail(err)
		}
	}

	resp := &ApplyResponseCLI{
		DryRun:  applyDryRun,
		Actions: actions,
		ByKind:  map[string]int{},
	}
	for _, a := range actions {
		resp.ByKind[string(a.Kind)]++
	}

	output, err := FormatResponse(resp, OutputFormat(applyFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

// ApplyResponseCLI is the apply command's output payload.
type ApplyResponseCLI struct {
	DryRun  bool              `json:"dryRun"`
	Actions []activate.Action `json:"actions"`
	ByKind  map[string]int    `json:"byKind"`
}
