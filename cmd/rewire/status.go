package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"rewire/internal/ledger"
	"rewire/internal/report"
	"rewire/internal/storage"
)

var statusFormat string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the latest run and the candidate ledger",
	Long: `Show the latest run's classification and risk counts, the candidate
ledger state, and scan cache statistics.

Examples:
  rewire status
  rewire status --format human`,
	Run: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	root := mustResolveRoot()
	cfg := mustLoadConfig(root)
	logger := newLogger(cfg)

	resp := &StatusResponseCLI{ByStatus: map[string]int{}}

	runDir, err := report.ResolveLatest(reportDir(root, cfg))
	if err == nil {
		resp.RunDir = runDir
		if r := readRunReport(runDir); r != nil {
			resp.RunID = r.RunID
			resp.CreatedAt = r.CreatedAt.String()
			resp.Summary = &r.Summary
		}
	} else {
		logger.Debug("No runs recorded yet", map[string]interface{}{
			"error": err.Error(),
		})
	}

	led, err := ledger.Load(ledgerPath(root))
	if err != nil {
		fail(err)
	}
	for _, c := range led.All() {
		resp.ByStatus[string(c.Status)]++
	}

	if cfg.Cache.Enabled {
		cache, closeCache := openCache(root, true, logger)
		defer closeCache()
		if cache != nil {
			if stats, err := cache.Stats(); err == nil {
				resp.Cache = stats
			}
		}
	}

	output, err := FormatResponse(resp, OutputFormat(statusFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func readRunReport(runDir string) *report.RunReport {
	data, err := os.ReadFile(filepath.Join(runDir, "report.json"))
	if err != nil {
		return nil
	}
	var r report.RunReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil
	}
	return &r
}

// StatusResponseCLI is the status command's output payload.
type StatusResponseCLI struct {
	RunID     string          `json:"runId,omitempty"`
	RunDir    string          `json:"runDir,omitempty"`
	CreatedAt string          `json:"createdAt,omitempty"`
	Summary   *report.Summary `json:"summary,omitempty"`
	ByStatus  map[string]int  `json:"candidatesByStatus"`
	Cache     *storage.Stats  `json:"cache,omitempty"`
}
