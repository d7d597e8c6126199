package helper

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// GenerateUUID creates a random unique UUID string
func GenerateUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID: %w", err)
	}
	return id.String(), nil
}

// pretty print
func PrettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("Error pretty printing")
		return
	}
	fmt.Println(string(b))
}

// CreateFolder creates path and its parents if missing.
func CreateFolder(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", path, err)
	}
	return nil
}

// FileWriter writes the full content of one file.
type FileWriter func(f *os.File) error

// OutputFileMode is the mode of files committed by WriteFilesAtomically.
const OutputFileMode os.FileMode = 0o644

// WriteFilesAtomically writes every target to a temporary file next to it and
// renames them into place only once all writes succeeded. A failed write leaves
// every target untouched. Each rename is atomic on its own, so a failed rename
// can leave targets renamed before it already replaced.
func WriteFilesAtomically(targets map[string]FileWriter) error {
	temps := make(map[string]string, len(targets))
	cleanup := func() {
		for _, tmp := range temps {
			os.Remove(tmp)
		}
	}

	for path, write := range targets {
		f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
		if err != nil {
			cleanup()
			return fmt.Errorf("failed to create temp file for %s: %w", path, err)
		}
		temps[path] = f.Name()

		if err := f.Chmod(OutputFileMode); err != nil {
			f.Close()
			cleanup()
			return fmt.Errorf("failed to set mode of %s: %w", path, err)
		}
		if err := write(f); err != nil {
			f.Close()
			cleanup()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			cleanup()
			return fmt.Errorf("failed to close %s: %w", path, err)
		}
	}

	for path, tmp := range temps {
		if err := os.Rename(tmp, path); err != nil {
			cleanup()
			return fmt.Errorf("failed to commit %s: %w", path, err)
		}
		delete(temps, path)
	}
	return nil
}
