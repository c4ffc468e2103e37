package export

import (
	"bytes"
	"encoding/json"
	"path/filepath"

	"testcase-recorder/internal/domain"
)

// JSON is the lossless structural export. Key order follows the struct field
// order, map keys are sorted by encoding/json, timestamps are RFC 3339 UTC:
// decoding the file and re-encoding reproduces the original bytes.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Export(tc domain.TestCase, outputDir string) (string, error) {
	path := filepath.Join(outputDir, "testcase.json")
	data, err := Marshal(tc)
	if err != nil {
		return "", &domain.ArtifactWriteError{Path: path, Err: err}
	}
	if err := writeArtifact(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Marshal produces the canonical JSON encoding used by the structural
// exports: two-space indent, no HTML escaping, trailing newline.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal parses a canonical test case file.
func Unmarshal(data []byte) (domain.TestCase, error) {
	var tc domain.TestCase
	if err := json.Unmarshal(data, &tc); err != nil {
		return domain.TestCase{}, err
	}
	return tc, nil
}
