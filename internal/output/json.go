/*
PURPOSE:
  Writes the benchmark report as a single indented JSON document.

REQUIREMENTS:
  User-specified:
  - One report file, written once and overwritten each run.
  - Contains model name, average score and every per-item record in order.

  Implementation-discovered:
  - Readers open it in an editor; keep Japanese text unescaped and indent 4.
  - A crash mid-write must not leave a truncated report behind: write to a
    temp file in the same directory, then rename.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (Run)
  - Consumes: internal/model.Report

ERROR HANDLING:
  - Returns error on directory creation, encode or rename failure.

USAGE:
  err := output.WriteReport("results.json", report)

RELATED FILES:
  - internal/model/types.go
*/

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/daryltucker/judge-runner/internal/model"
)

// EncodeReport writes r to w as indented JSON.
func EncodeReport(w io.Writer, r *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}

// WriteReport replaces the file at path with r.
func WriteReport(path string, r *model.Report) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := EncodeReport(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
