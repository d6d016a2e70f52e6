package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rewire/internal/activate"
	"rewire/internal/ledger"
)

var (
	planFormat        string
	planIncludeMedium bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute the activation plan without touching anything",
	Long: `Compute what an apply run would do for every pending candidate: which
barrel files would be created or appended to, which candidates the risk
gate blocks, and the exact diff for each patch. Nothing is written.

Examples:
  rewire plan
  rewire plan --include-medium-risk --format human`,
	Run: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planFormat, "format", "json", "Output format (json, human)")
	planCmd.Flags().BoolVar(&planIncludeMedium, "include-medium-risk", false, "Plan MEDIUM-risk candidates too")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) {
	root := mustResolveRoot()
	cfg := mustLoadConfig(root)
	logger := newLogger(cfg)

	led, err := ledger.Load(ledgerPath(root))
	if err != nil {
		fail(err)
	}

	engine := activate.NewEngine(root, cfg.Activation, backupsDir(root), led, nil, logger)
	actions := engine.Plan(led.Pending(), activate.Policy{
		IncludeMediumRisk: planIncludeMedium || cfg.Activation.IncludeMediumRisk,
	})

	resp := buildPlanResponse(led, actions)

	output, err := FormatResponse(resp, OutputFormat(planFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func buildPlanResponse(led *ledger.Ledger, actions []activate.Action) *PlanResponseCLI {
	resp := &PlanResponseCLI{
		Actions: actions,
		ByKind:  map[string]int{},
		ByRisk:  map[string]int{},
	}
	for _, a := range actions {
		resp.ByKind[string(a.Kind)]++
		if c := led.Get(a.CandidateID); c != nil {
			resp.ByRisk[c.EstimatedRisk]++
		}
		if a.Kind == activate.ActionCreated || a.Kind == activate.ActionAppended {
			resp.Applicable++
		}
	}
	return resp
}

// PlanResponseCLI is the plan command's output payload.
type PlanResponseCLI struct {
	Actions    []activate.Action `json:"actions"`
	ByKind     map[string]int    `json:"byKind"`
	ByRisk     map[string]int    `json:"byRisk"`
	Applicable int               `json:"applicable"`
}
