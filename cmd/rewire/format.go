package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *ScanResponseCLI:
		return formatScanHuman(v), nil
	case *CandidatesResponseCLI:
		return formatCandidatesHuman(v), nil
	case *PlanResponseCLI:
		return formatPlanHuman(v), nil
	case *ApplyResponseCLI:
		return formatApplyHuman(v), nil
	case *StatusResponseCLI:
		return formatStatusHuman(v), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatScanHuman(resp *ScanResponseCLI) string {
	var b strings.Builder

	b.WriteString("Scan Complete\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	b.WriteString(fmt.Sprintf("Run: %s\n", resp.RunID))
	b.WriteString(fmt.Sprintf("Report: %s\n", resp.RunDir))
	b.WriteString(fmt.Sprintf("Extractor: %s\n", resp.ExtractorName))
	b.WriteString(fmt.Sprintf("Duration: %dms\n\n", resp.DurationMs))

	b.WriteString(fmt.Sprintf("Files: %d scanned, %d skipped\n", resp.Summary.TotalFiles, resp.Summary.SkippedFiles))
	b.WriteString("By classification:\n")
	for _, key := range sortedKeys(resp.Summary.ByClassification) {
		b.WriteString(fmt.Sprintf("  %s: %d\n", key, resp.Summary.ByClassification[key]))
	}
	b.WriteString("By risk:\n")
	for _, key := range sortedKeys(resp.Summary.ByRisk) {
		b.WriteString(fmt.Sprintf("  %s: %d\n", key, resp.Summary.ByRisk[key]))
	}

	b.WriteString(fmt.Sprintf("\nUnused/unwired files: %d\n", resp.UnusedCount))
	b.WriteString(fmt.Sprintf("Pending candidates: %d\n", resp.Candidates))
	b.WriteString(fmt.Sprintf("Duplicate clusters: %d\n", resp.Duplicates))

	if resp.Candidates > 0 {
		b.WriteString("\nNext: rewire plan --format human\n")
	}
	return b.String()
}

func formatCandidatesHuman(resp *CandidatesResponseCLI) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Activation Candidates (%d)\n", resp.Total))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if resp.Total == 0 {
		b.WriteString("Nothing unwired. Run `rewire scan` first if this seems wrong.\n")
		return b.String()
	}

	for i, c := range resp.Candidates {
		b.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, c.Path, c.EstimatedRisk))
		b.WriteString(fmt.Sprintf("   Why: %s\n", c.WhyUnused))
		b.WriteString(fmt.Sprintf("   Patch: %s\n", c.PatchSummary))
		b.WriteString(fmt.Sprintf("   Status: %s", c.Status))
		if c.StatusReason != "" {
			b.WriteString(fmt.Sprintf(" (%s)", c.StatusReason))
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func formatPlanHuman(resp *PlanResponseCLI) string {
	var b strings.Builder

	b.WriteString("Activation Plan\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"Risk", "Candidates"})
	for _, risk := range []string{"LOW", "MEDIUM", "HIGH"} {
		if count, ok := resp.ByRisk[risk]; ok {
			table.Append([]string{risk, fmt.Sprintf("%d", count)})
		}
	}
	table.Render()
	b.WriteString("\n")

	for _, a := range resp.Actions {
		switch a.Kind {
		case "created":
			b.WriteString(fmt.Sprintf("+ create %s (for %s)\n", a.Target, a.Path))
		case "appended":
			b.WriteString(fmt.Sprintf("~ append %s (for %s)\n", a.Target, a.Path))
		case "already_satisfied":
			b.WriteString(fmt.Sprintf("= %s already references %s\n", a.Target, a.Path))
		default:
			b.WriteString(fmt.Sprintf("- skip %s: %s\n", a.Path, a.Reason))
		}
		if a.Diff != "" {
			for _, line := range strings.Split(strings.TrimRight(a.Diff, "\n"), "\n") {
				b.WriteString("    " + line + "\n")
			}
		}
	}

	b.WriteString(fmt.Sprintf("\n%d of %d candidates would be patched.\n", resp.Applicable, len(resp.Actions)))
	return b.String()
}

func formatApplyHuman(resp *ApplyResponseCLI) string {
	var b strings.Builder

	title := "Apply"
	if resp.DryRun {
		title = "Apply (dry run)"
	}
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	for _, a := range resp.Actions {
		icon := "✓"
		if a.Kind == "skipped" {
			icon = "-"
		}
		if a.Kind == "failed" {
			icon = "✗"
		}
		b.WriteString(fmt.Sprintf("%s %s: %s", icon, a.Kind, a.Path))
		if a.Target != "" {
			b.WriteString(" -> " + a.Target)
		}
		if a.Reason != "" {
			b.WriteString(" (" + a.Reason + ")")
		}
		b.WriteString("\n")
	}

	b.WriteString("\nTotals:\n")
	for _, key := range sortedKeys(resp.ByKind) {
		b.WriteString(fmt.Sprintf("  %s: %d\n", key, resp.ByKind[key]))
	}
	return b.String()
}

func formatStatusHuman(resp *StatusResponseCLI) string {
	var b strings.Builder

	b.WriteString("rewire Status\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if resp.RunID == "" {
		b.WriteString("No runs recorded yet. Start with `rewire scan`.\n")
	} else {
		b.WriteString(fmt.Sprintf("Latest run: %s\n", resp.RunID))
		b.WriteString(fmt.Sprintf("  Created: %s\n", resp.CreatedAt))
		b.WriteString(fmt.Sprintf("  Report: %s\n", resp.RunDir))
		if resp.Summary != nil {
			b.WriteString(fmt.Sprintf("  Files: %d scanned, %d skipped\n", resp.Summary.TotalFiles, resp.Summary.SkippedFiles))
			for _, key := range sortedKeys(resp.Summary.ByClassification) {
				b.WriteString(fmt.Sprintf("    %s: %d\n", key, resp.Summary.ByClassification[key]))
			}
		}
	}

	b.WriteString("\nCandidates:\n")
	if len(resp.ByStatus) == 0 {
		b.WriteString("  none recorded\n")
	}
	for _, key := range sortedKeys(resp.ByStatus) {
		b.WriteString(fmt.Sprintf("  %s: %d\n", key, resp.ByStatus[key]))
	}

	if resp.Cache != nil {
		b.WriteString(fmt.Sprintf("\nScan cache: %d entries\n", resp.Cache.Entries))
	}
	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
