// Package report serializes run results to a timestamped directory with a
// stable "latest" pointer for downstream tooling.
package report

import (
	"sort"
	"time"

	"rewire/internal/classify"
	"rewire/internal/graph"
	"rewire/internal/scan"
)

// Summary aggregates counts for the status command and human output.
type Summary struct {
	TotalFiles       int            `json:"totalFiles"`
	SkippedFiles     int            `json:"skippedFiles"`
	ByClassification map[string]int `json:"byClassification"`
	ByRisk           map[string]int `json:"byRisk"`
}

// RunReport is the full JSON artifact for one pipeline run.
type RunReport struct {
	RunID         string                         `json:"runId"`
	CreatedAt     time.Time                      `json:"createdAt"`
	RootPath      string                         `json:"rootPath"`
	ExtractorName string                         `json:"extractorName"`
	Files         map[string]classify.FileResult `json:"files"`
	Unused        []string                       `json:"unused"`
	Skipped       []scan.SkippedFile             `json:"skipped"`
	Duplicates    [][]string                     `json:"duplicates"`
	Summary       Summary                        `json:"summary"`
}

// Build assembles the run report from the pipeline outputs. All list
// fields are sorted so the artifact is byte-stable across identical runs.
func Build(runID, root string, scanRes *scan.Result, results map[string]classify.FileResult) *RunReport {
	r := &RunReport{
		RunID:         runID,
		CreatedAt:     time.Now().UTC(),
		RootPath:      root,
		ExtractorName: scanRes.ExtractorName,
		Files:         results,
		Skipped:       scanRes.Skipped,
		Duplicates:    DuplicateClusters(scanRes.Files),
		Summary: Summary{
			TotalFiles:       len(scanRes.Files),
			SkippedFiles:     len(scanRes.Skipped),
			ByClassification: map[string]int{},
			ByRisk:           map[string]int{},
		},
	}

	for path, res := range results {
		r.Summary.ByClassification[string(res.Classification)]++
		r.Summary.ByRisk[string(res.Risk)]++
		if res.Classification == classify.ClassUnused || res.Classification == classify.ClassUnwired {
			r.Unused = append(r.Unused, path)
		}
	}
	sort.Strings(r.Unused)

	return r
}

// DuplicateClusters groups files sharing a content hash, regardless of
// path or directory depth. Only clusters of two or more are reported.
func DuplicateClusters(files []scan.FileRecord) [][]string {
	byHash := map[string][]string{}
	for _, f := range files {
		if f.ContentHash == "" {
			continue
		}
		byHash[f.ContentHash] = append(byHash[f.ContentHash], f.Path)
	}

	var clusters [][]string
	for _, paths := range byHash {
		if len(paths) < 2 {
			continue
		}
		sort.Strings(paths)
		clusters = append(clusters, paths)
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i][0] < clusters[j][0]
	})
	return clusters
}

// graphPayload is the adjacency artifact written alongside the report.
type graphPayload struct {
	Forward map[string][]string `json:"forward"`
	Reverse map[string][]string `json:"reverse"`
}

func graphArtifact(g *graph.Graph) graphPayload {
	return graphPayload{Forward: g.Forward, Reverse: g.Reverse}
}
