package fs

import (
	"os"
	"path/filepath"

	"testcase-recorder/internal/domain"
)

const screenshotsDir = "screenshots"

// ScreenshotStore writes captured images under <outputDir>/screenshots and
// hands back references relative to the output directory, matching the links
// emitted by the exporters.
type ScreenshotStore struct {
	outputDir string
}

func NewScreenshotStore(outputDir string) (*ScreenshotStore, error) {
	dir := filepath.Join(outputDir, screenshotsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &domain.ArtifactWriteError{Path: dir, Err: err}
	}
	return &ScreenshotStore{outputDir: outputDir}, nil
}

func (s *ScreenshotStore) SaveScreenshot(filename string, png []byte) (string, error) {
	rel := filepath.Join(screenshotsDir, filename)
	full := filepath.Join(s.outputDir, rel)
	if err := os.WriteFile(full, png, 0o644); err != nil {
		return "", &domain.ArtifactWriteError{Path: full, Err: err}
	}
	return filepath.ToSlash(rel), nil
}
