package export

import (
	"net/http"
	"path/filepath"
	"sort"
	"time"

	"testcase-recorder/internal/domain"
	"testcase-recorder/internal/infrastructure/observability"
	"testcase-recorder/pkg/shared/redact"
)

// HAR renders the network events of all steps as a HAR 1.2 log so the traffic
// opens directly in browser devtools.
type HAR struct{}

func (HAR) Name() string { return "har" }

type harFile struct {
	Log harLog `json:"log"`
}

type harLog struct {
	Version string     `json:"version"`
	Creator harName    `json:"creator"`
	Entries []harEntry `json:"entries"`
}

type harName struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type harEntry struct {
	StartedDateTime time.Time   `json:"startedDateTime"`
	Time            int64       `json:"time"`
	Request         harRequest  `json:"request"`
	Response        harResponse `json:"response"`
}

type harHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type harRequest struct {
	Method      string      `json:"method"`
	URL         string      `json:"url"`
	Headers     []harHeader `json:"headers"`
	HeadersSize int         `json:"headersSize"`
	BodySize    int         `json:"bodySize"`
}

type harResponse struct {
	Status      int         `json:"status"`
	StatusText  string      `json:"statusText"`
	Headers     []harHeader `json:"headers"`
	HeadersSize int         `json:"headersSize"`
	BodySize    int         `json:"bodySize"`
}

func (HAR) Export(tc domain.TestCase, outputDir string) (string, error) {
	path := filepath.Join(outputDir, "testcase.har")
	entries := make([]harEntry, 0, 64)
	for _, step := range tc.Steps {
		for _, ev := range step.NetworkEvents {
			status := 0
			if ev.Status != nil {
				status = *ev.Status
			}
			entries = append(entries, harEntry{
				StartedDateTime: ev.Timestamp.UTC(),
				Time:            -1,
				Request: harRequest{
					Method:      ev.Method,
					URL:         ev.URL,
					Headers:     harHeaders(ev.RequestHeaders),
					HeadersSize: -1,
					BodySize:    len(ev.RequestBody),
				},
				Response: harResponse{
					Status:      status,
					StatusText:  http.StatusText(status),
					Headers:     harHeaders(ev.ResponseHeaders),
					HeadersSize: -1,
					BodySize:    len(ev.ResponseBody),
				},
			})
		}
	}
	har := harFile{Log: harLog{
		Version: "1.2",
		Creator: harName{Name: "testcase-recorder", Version: observability.Version},
		Entries: entries,
	}}
	data, err := Marshal(har)
	if err != nil {
		return "", &domain.ArtifactWriteError{Path: path, Err: err}
	}
	if err := writeArtifact(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func harHeaders(h map[string]string) []harHeader {
	safe := redact.Headers(h)
	keys := make([]string, 0, len(safe))
	for k := range safe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]harHeader, 0, len(keys))
	for _, k := range keys {
		out = append(out, harHeader{Name: k, Value: safe[k]})
	}
	return out
}
