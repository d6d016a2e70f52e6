package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	rerrors "rewire/internal/errors"
	"rewire/internal/graph"
	"rewire/internal/logging"
)

// Writer persists run artifacts under the report output directory. Layout:
//
//	<outDir>/<timestamp>-<runid>/report.json
//	                            unused.json
//	                            graph.json
//	                            ledger.json
//	                            backups/
//	<outDir>/latest  (symlink to the run directory, or a text pointer)
type Writer struct {
	outDir string
	logger *logging.Logger
}

func NewWriter(outDir string, logger *logging.Logger) *Writer {
	return &Writer{outDir: outDir, logger: logger}
}

// RunDir returns the directory a run with the given id would live in.
func (w *Writer) RunDir(r *RunReport) string {
	short := r.RunID
	if len(short) > 8 {
		short = short[:8]
	}
	name := r.CreatedAt.Format("20060102-150405") + "-" + short
	return filepath.Join(w.outDir, name)
}

// WriteRun writes every artifact for a run and refreshes the latest
// pointer. Any failure here is fatal for the pipeline: a run that cannot
// produce its report did not happen.
func (w *Writer) WriteRun(r *RunReport, g *graph.Graph, ledgerPath string) (string, error) {
	runDir := w.RunDir(r)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", rerrors.New(rerrors.ReportWriteFailed, "cannot create run directory", err)
	}

	if err := w.writeJSON(filepath.Join(runDir, "report.json"), r); err != nil {
		return "", err
	}
	if err := w.writeJSON(filepath.Join(runDir, "unused.json"), r.Unused); err != nil {
		return "", err
	}
	if err := w.writeJSON(filepath.Join(runDir, "graph.json"), graphArtifact(g)); err != nil {
		return "", err
	}
	if err := w.copyLedger(ledgerPath, filepath.Join(runDir, "ledger.json")); err != nil {
		return "", err
	}

	if err := w.updateLatest(filepath.Base(runDir)); err != nil {
		return "", err
	}

	w.logger.Info("Run report written", map[string]interface{}{
		"runId": r.RunID,
		"dir":   runDir,
	})
	return runDir, nil
}

func (w *Writer) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return rerrors.New(rerrors.ReportWriteFailed, fmt.Sprintf("cannot encode %s", filepath.Base(path)), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return rerrors.New(rerrors.ReportWriteFailed, fmt.Sprintf("cannot write %s", filepath.Base(path)), err)
	}
	return nil
}

// copyLedger snapshots the authoritative ledger into the run directory.
// A missing ledger (first run, nothing unwired yet) writes an empty list.
func (w *Writer) copyLedger(src, dst string) error {
	data, err := os.ReadFile(src)
	if os.IsNotExist(err) {
		data = []byte("[]\n")
	} else if err != nil {
		return rerrors.New(rerrors.ReportWriteFailed, "cannot read ledger for snapshot", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return rerrors.New(rerrors.ReportWriteFailed, "cannot write ledger snapshot", err)
	}
	return nil
}

// updateLatest atomically repoints <outDir>/latest at the new run. A
// relative symlink is preferred; filesystems without symlink support get
// a plain text file holding the run directory name.
func (w *Writer) updateLatest(runName string) error {
	latest := filepath.Join(w.outDir, "latest")
	tmp := latest + ".tmp"

	_ = os.Remove(tmp)
	if err := os.Symlink(runName, tmp); err != nil {
		if err := os.WriteFile(tmp, []byte(runName+"\n"), 0o644); err != nil {
			return rerrors.New(rerrors.ReportWriteFailed, "cannot write latest pointer", err)
		}
	}
	if err := os.Rename(tmp, latest); err != nil {
		_ = os.Remove(tmp)
		return rerrors.New(rerrors.ReportWriteFailed, "cannot update latest pointer", err)
	}
	return nil
}

// ResolveLatest returns the absolute path of the most recent run
// directory, following either pointer flavor.
func ResolveLatest(outDir string) (string, error) {
	latest := filepath.Join(outDir, "latest")

	info, err := os.Lstat(latest)
	if err != nil {
		return "", rerrors.New(rerrors.RunNotFound, "no runs recorded yet", err)
	}

	var runName string
	if info.Mode()&os.ModeSymlink != 0 {
		runName, err = os.Readlink(latest)
		if err != nil {
			return "", rerrors.New(rerrors.RunNotFound, "cannot read latest pointer", err)
		}
	} else {
		data, err := os.ReadFile(latest)
		if err != nil {
			return "", rerrors.New(rerrors.RunNotFound, "cannot read latest pointer", err)
		}
		runName = string(data)
		for len(runName) > 0 && (runName[len(runName)-1] == '\n' || runName[len(runName)-1] == '\r') {
			runName = runName[:len(runName)-1]
		}
	}

	runDir := filepath.Join(outDir, runName)
	if _, err := os.Stat(runDir); err != nil {
		return "", rerrors.New(rerrors.RunNotFound, "latest pointer is stale", err)
	}
	return runDir, nil
}
