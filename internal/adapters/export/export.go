// Package export renders a frozen test case into its artifact formats. Every
// exporter is a pure transform of the model: same input, byte-identical
// output, no shared state between formats.
package export

import (
	"errors"
	"os"
	"path/filepath"

	"testcase-recorder/internal/domain"
)

// Exporter writes one artifact for a frozen test case and returns its path.
type Exporter interface {
	Name() string
	Export(tc domain.TestCase, outputDir string) (string, error)
}

// All returns the full exporter set in emission order.
func All() []Exporter {
	return []Exporter{JSON{}, Markdown{}, HTML{}, HAR{}}
}

// WriteAll runs every exporter against the frozen test case. Exporters fail
// independently: one unwritable artifact does not stop the siblings. The
// returned paths cover the artifacts that were written.
func WriteAll(tc domain.TestCase, outputDir string) ([]string, error) {
	if tc.Session.State != domain.StateStopped {
		return nil, &domain.SessionNotStoppedError{State: tc.Session.State}
	}
	var paths []string
	var errs []error
	for _, e := range All() {
		path, err := e.Export(tc, outputDir)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		paths = append(paths, path)
	}
	return paths, errors.Join(errs...)
}

func writeArtifact(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &domain.ArtifactWriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &domain.ArtifactWriteError{Path: path, Err: err}
	}
	return nil
}
