/*
PURPOSE:
  Reads benchmark cases from a CSV file.

REQUIREMENTS:
  User-specified:
  - Header row, columns input, output (reference answer), eval_aspect.
  - Fields are whitespace-trimmed.

  Implementation-discovered:
  - Spreadsheet exports often start with a UTF-8 BOM.
  - Extra columns (e.g. ids) are ignored.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (Run)
  - Produces: []model.DatasetItem

ERROR HANDLING:
  - ErrMissingColumn when a required header is absent.
  - Row errors carry the CSV line number.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Keep file order; it defines report order.

USAGE:
  items, err := dataset.Load("test.csv")

RELATED FILES:
  - internal/model/types.go
*/

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/daryltucker/judge-runner/internal/model"
)

// Required column names.
const (
	ColumnInput      = "input"
	ColumnOutput     = "output"
	ColumnEvalAspect = "eval_aspect"
)

var ErrMissingColumn = errors.New("dataset is missing a required column")

// Load reads all items from a CSV file.
func Load(path string) ([]model.DatasetItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	items, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return items, nil
}

// Read parses CSV content with a header row.
func Read(r io.Reader) ([]model.DatasetItem, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	if err != nil {
		return nil, err
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		cols[strings.TrimSpace(name)] = i
	}
	idx := make([]int, 0, 3)
	for _, name := range []string{ColumnInput, ColumnOutput, ColumnEvalAspect} {
		i, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		idx = append(idx, i)
	}

	var items []model.DatasetItem
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if isBlank(rec) {
			continue
		}
		for _, i := range idx {
			if i >= len(rec) {
				return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, len(header), len(rec))
			}
		}
		items = append(items, model.DatasetItem{
			Input:           strings.TrimSpace(rec[idx[0]]),
			ReferenceOutput: strings.TrimSpace(rec[idx[1]]),
			EvalAspect:      strings.TrimSpace(rec[idx[2]]),
		})
	}
	return items, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Limit returns the first n items, or all of them when n <= 0.
func Limit(items []model.DatasetItem, n int) []model.DatasetItem {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[:n]
}
