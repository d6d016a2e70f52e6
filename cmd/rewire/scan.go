package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"rewire/internal/classify"
	"rewire/internal/config"
	"rewire/internal/extract"
	"rewire/internal/graph"
	"rewire/internal/ledger"
	"rewire/internal/paths"
	"rewire/internal/report"
	"rewire/internal/scan"
)

var (
	scanFormat  string
	scanNoCache bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the project and classify every file",
	Long: `Run the full analysis pipeline: walk the project tree, extract imports
and exports, build the dependency graph, classify each file, and write a
timestamped run report. Unwired files are recorded as activation
candidates in the ledger.

Examples:
  rewire scan
  rewire scan --root ../webapp --format human
  rewire scan --no-cache -v`,
	Run: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanFormat, "format", "json", "Output format (json, human)")
	scanCmd.Flags().BoolVar(&scanNoCache, "no-cache", false, "Bypass the incremental scan cache")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) {
	start := time.Now()
	root := mustResolveRoot()
	cfg := mustLoadConfig(root)
	logger := newLogger(cfg)

	cache, closeCache := openCache(root, cfg.Cache.Enabled && !scanNoCache, logger)
	defer closeCache()

	extractor := extract.Select(logger)

	var scanCache scan.Cache
	if cache != nil {
		scanCache = cache
	}
	scanner := scan.NewScanner(root, cfg.Scan, extractor, scanCache, logger)
	scanRes, err := scanner.Run(context.Background())
	if err != nil {
		fail(err)
	}

	g := graph.Build(scanRes.Files, cfg.Resolve, logger)

	riskMd, err := config.LoadRiskMetadata(root)
	if err != nil {
		logger.Warn("Risk metadata unreadable, using line thresholds only", map[string]interface{}{
			"error": err.Error(),
		})
	}

	classifier := classify.New(cfg.Risk, riskMd)
	results := classifier.ClassifyAll(scanRes.Files, g.DependentsCount)

	led, err := ledger.Load(ledgerPath(root))
	if err != nil {
		fail(err)
	}
	candidateCount := upsertCandidates(led, results)
	if err := led.Save(); err != nil {
		fail(err)
	}

	runReport := report.Build(uuid.NewString(), root, scanRes, results)
	writer := report.NewWriter(reportDir(root, cfg), logger)
	runDir, err := writer.WriteRun(runReport, g, ledgerPath(root))
	if err != nil {
		fail(err)
	}

	resp := &ScanResponseCLI{
		RunID:         runReport.RunID,
		RunDir:        runDir,
		ExtractorName: scanRes.ExtractorName,
		Summary:       runReport.Summary,
		UnusedCount:   len(runReport.Unused),
		Candidates:    candidateCount,
		Duplicates:    len(runReport.Duplicates),
		DurationMs:    time.Since(start).Milliseconds(),
	}

	output, err := FormatResponse(resp, OutputFormat(scanFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

// upsertCandidates records every unwired file in the ledger and returns
// how many candidates are pending afterwards.
func upsertCandidates(led *ledger.Ledger, results map[string]classify.FileResult) int {
	for p, res := range results {
		if res.Classification != classify.ClassUnwired {
			continue
		}
		led.Upsert(ledger.Candidate{
			ID:            paths.Slug(p),
			Path:          p,
			WhyUnused:     string(res.Reason),
			EstimatedRisk: string(res.Risk),
			PatchSummary:  fmt.Sprintf("re-export %s from %s", paths.Stem(p), path.Join(path.Dir(p), "index.*")),
			Exports:       res.ExportedSymbols,
		})
	}
	return len(led.Pending())
}

// ScanResponseCLI is the scan command's output payload.
type ScanResponseCLI struct {
	RunID         string         `json:"runId"`
	RunDir        string         `json:"runDir"`
	ExtractorName string         `json:"extractorName"`
	Summary       report.Summary `json:"summary"`
	UnusedCount   int            `json:"unusedCount"`
	Candidates    int            `json:"pendingCandidates"`
	Duplicates    int            `json:"duplicateClusters"`
	DurationMs    int64          `json:"durationMs"`
}
