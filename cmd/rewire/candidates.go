package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"rewire/internal/ledger"
)

var (
	candidatesFormat string
	candidatesAll    bool
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List activation candidates from the ledger",
	Long: `List unwired files recorded as activation candidates. By default only
pending candidates are shown, ranked by risk then id; --all includes
applied and skipped ones.

Examples:
  rewire candidates
  rewire candidates --all --format human`,
	Run: runCandidates,
}

func init() {
	candidatesCmd.Flags().StringVar(&candidatesFormat, "format", "json", "Output format (json, human)")
	candidatesCmd.Flags().BoolVar(&candidatesAll, "all", false, "Include applied and skipped candidates")
	rootCmd.AddCommand(candidatesCmd)
}

func runCandidates(cmd *cobra.Command, args []string) {
	root := mustResolveRoot()

	led, err := ledger.Load(ledgerPath(root))
	if err != nil {
		fail(err)
	}

	var list []*ledger.Candidate
	if candidatesAll {
		list = led.All()
	} else {
		list = led.Pending()
	}

	// LOW first: those are the ones a default apply will act on.
	riskRank := map[string]int{"LOW": 0, "MEDIUM": 1, "HIGH": 2}
	sort.SliceStable(list, func(i, j int) bool {
		return riskRank[list[i].EstimatedRisk] < riskRank[list[j].EstimatedRisk]
	})

	resp := &CandidatesResponseCLI{
		Candidates: list,
		Total:      len(list),
	}

	output, err := FormatResponse(resp, OutputFormat(candidatesFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

// CandidatesResponseCLI is the candidates command's output payload.
type CandidatesResponseCLI struct {
	Candidates []*ledger.Candidate `json:"candidates"`
	Total      int                 `json:"total"`
}
