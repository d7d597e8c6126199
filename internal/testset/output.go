package testset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"document-testset/internal/helper"
	"document-testset/internal/models"
)

var ErrDuplicateOutput = errors.New("output files share a path")

// Paths names the output files. An empty XLSX path skips the workbook.
type Paths struct {
	JSONL string
	CSV   string
	XLSX  string
}

// Save writes every configured output. All files are written before any is
// renamed into place, so a failed write leaves the existing files unchanged.
// Two outputs may not share a path.
func (t *Testset) Save(paths Paths) error {
	targets := make(map[string]helper.FileWriter, 3)
	add := func(path string, write helper.FileWriter) error {
		key := filepath.Clean(path)
		if _, ok := targets[key]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateOutput, path)
		}
		targets[key] = write
		return nil
	}

	if err := add(paths.JSONL, func(f *os.File) error { return t.WriteJSONL(f) }); err != nil {
		return err
	}
	if err := add(paths.CSV, func(f *os.File) error { return t.WriteCSV(f) }); err != nil {
		return err
	}
	if paths.XLSX != "" {
		if err := add(paths.XLSX, func(f *os.File) error { return t.WriteXLSX(f) }); err != nil {
			return err
		}
	}
	return helper.WriteFilesAtomically(targets)
}

// Display prints up to n samples for manual review.
func (t *Testset) Display(w io.Writer, n int) error {
	n = min(n, len(t.Samples))
	for i := 0; i < n; i++ {
		s := t.Samples[i]
		_, err := fmt.Fprintf(w, "Question %d: %s\nReference answer: %s\nReference context:\n%s\n%s\n\n",
			i+1, s.Question, s.ReferenceAnswer, s.ReferenceContext, models.ResultSeparator)
		if err != nil {
			return err
		}
	}
	return nil
}
