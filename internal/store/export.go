// Package store serializes step results for offline analysis.
package store

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/Style3D/block/internal/config"
	"github.com/Style3D/block/internal/engine"
	"github.com/Style3D/block/internal/solver"
)

// StepRecord is the flat per-step summary kept for export; contact
// geometry itself stays in memory only.
type StepRecord struct {
	Step             int     `json:"step"`
	Primitives       int     `json:"primitives"`
	Skipped          int     `json:"skipped"`
	Pairs            int     `json:"pairs"`
	Contacts         int     `json:"contacts"`
	SolverIterations int     `json:"solver_iterations"`
	SolverConverged  bool    `json:"solver_converged"`
	Residual         float64 `json:"residual"`
	ElapsedMS        float64 `json:"elapsed_ms"`
}

// Record flattens one step report and its solve outcome.
func Record(rep *engine.Report, res *solver.Result) StepRecord {
	rec := StepRecord{
		Step:       rep.Step,
		Primitives: rep.Primitives,
		Skipped:    rep.Skipped,
		Pairs:      rep.Pairs,
		Contacts:   len(rep.Contacts),
		ElapsedMS:  float64(rep.Elapsed.Microseconds()) / 1000,
	}
	if res != nil {
		rec.SolverIterations = res.Iterations
		rec.SolverConverged = res.Converged
		rec.Residual = res.Residual
	}
	return rec
}

// RunData bundles a whole run for JSON export.
type RunData struct {
	Scene  string        `json:"scene"`
	Config config.Config `json:"config"`
	Steps  []StepRecord  `json:"steps"`
}

func ExportJSON(path string, data *RunData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeJSON(file, data)
}

func ExportJSONStdout(data *RunData) error {
	return writeJSON(os.Stdout, data)
}

func writeJSON(w io.Writer, data *RunData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes one row per step.
func ExportCSV(path string, steps []StepRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{
		"step", "primitives", "skipped", "pairs", "contacts",
		"solver_iterations", "solver_converged", "residual", "elapsed_ms",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, rec := range steps {
		row := []string{
			strconv.Itoa(rec.Step),
			strconv.Itoa(rec.Primitives),
			strconv.Itoa(rec.Skipped),
			strconv.Itoa(rec.Pairs),
			strconv.Itoa(rec.Contacts),
			strconv.Itoa(rec.SolverIterations),
			strconv.FormatBool(rec.SolverConverged),
			strconv.FormatFloat(rec.Residual, 'e', 6, 64),
			strconv.FormatFloat(rec.ElapsedMS, 'f', 3, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
