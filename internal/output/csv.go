/*
PURPOSE:
  Writes per-item benchmark results to a CSV file.

REQUIREMENTS:
  User-specified:
  - Optional spreadsheet-friendly view of the report (results_csv).

  Implementation-discovered:
  - Overwrite on each run, like the JSON report.
  - Unscored rows leave the score cell empty.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (Run)
  - Consumes: internal/model.ResultRecord

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Rows are written once, in report order, after aggregation.
  - Close() flushes and reports any buffered write error.

USAGE:
  w, err := output.NewCSVWriter("results.csv")
  w.Write(record)
  w.Close()

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Update Write() mapping when ResultRecord changes.
*/

package output

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/daryltucker/judge-runner/internal/model"
)

// CSVWriter handles writing results to a CSV file.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates a new CSVWriter.
// It overwrites the file if it exists.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)

	header := []string{
		"index", "input", "generated_output", "reference_output",
		"eval_aspect", "score", "score_status", "judge_reply",
	}
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, err
	}

	return &CSVWriter{
		file:   f,
		writer: w,
	}, nil
}

// Write writes a single result to the CSV file.
func (cw *CSVWriter) Write(r model.ResultRecord) error {
	score := ""
	if r.Score != nil {
		score = strconv.Itoa(*r.Score)
	}

	record := []string{
		strconv.Itoa(r.Index),
		r.Input,
		r.GeneratedOutput,
		r.ReferenceOutput,
		r.EvalAspect,
		score,
		string(r.ScoreStatus),
		r.JudgeReply,
	}

	return cw.writer.Write(record)
}

// Close flushes buffered rows and closes the underlying file.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		cw.file.Close()
		return err
	}
	return cw.file.Close()
}

// WriteResultsCSV writes every record to a fresh CSV file at path.
func WriteResultsCSV(path string, results []model.ResultRecord) error {
	w, err := NewCSVWriter(path)
	if err != nil {
		return err
	}
	for _, r := range results {
		if err := w.Write(r); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
