package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"testcase-recorder/internal/domain"
	"testcase-recorder/pkg/shared/redact"
)

// HTML renders the presentational report from the same frozen model as the
// Markdown export (never re-derived from the JSON artifact). Screenshots are
// embedded as base64 data URLs so the file is self-contained.
type HTML struct{}

func (HTML) Name() string { return "html" }

type htmlStep struct {
	domain.Step
	Image template.URL
}

type htmlData struct {
	TC       domain.TestCase
	Steps    []htmlStep
	Duration string
}

func (HTML) Export(tc domain.TestCase, outputDir string) (string, error) {
	path := filepath.Join(outputDir, "testcase.html")

	data := htmlData{TC: redactForDisplay(tc)}
	if tc.Session.EndedAt != nil {
		data.Duration = tc.Session.EndedAt.Sub(tc.Session.StartedAt).Round(time.Millisecond).String()
	}
	for _, step := range data.TC.Steps {
		hs := htmlStep{Step: step}
		if step.Screenshot != "" {
			if raw, err := os.ReadFile(filepath.Join(outputDir, filepath.FromSlash(step.Screenshot))); err == nil {
				hs.Image = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(raw))
			}
		}
		data.Steps = append(data.Steps, hs)
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, data); err != nil {
		return "", &domain.ArtifactWriteError{Path: path, Err: err}
	}
	if err := writeArtifact(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

// redactForDisplay masks sensitive headers on a copy of the model.
func redactForDisplay(tc domain.TestCase) domain.TestCase {
	out := tc.Clone()
	for i := range out.Steps {
		for j := range out.Steps[i].NetworkEvents {
			ev := &out.Steps[i].NetworkEvents[j]
			ev.RequestHeaders = redact.Headers(ev.RequestHeaders)
			ev.ResponseHeaders = redact.Headers(ev.ResponseHeaders)
			ev.RequestBody = redact.JSON(ev.RequestBody)
			ev.ResponseBody = redact.JSON(ev.ResponseBody)
		}
	}
	return out
}

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"stamp":   stamp,
	"status":  statusText,
	"headers": sortedHeaders,
}).Parse(reportHTML))

func statusText(status *int) string {
	if status == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *status)
}

type headerKV struct{ Key, Value string }

func sortedHeaders(h map[string]string) []headerKV {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]headerKV, 0, len(keys))
	for _, k := range keys {
		out = append(out, headerKV{k, h[k]})
	}
	return out
}

const reportHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.TC.Session.Name}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 60rem; color: #1f2329; }
h1 { border-bottom: 2px solid #e1e4e8; padding-bottom: .4rem; }
table.meta td { padding: .15rem .8rem .15rem 0; color: #444; }
section.step { border: 1px solid #e1e4e8; border-radius: 6px; padding: 1rem 1.2rem; margin: 1rem 0; }
section.step h2 { margin-top: 0; font-size: 1.1rem; }
img.shot { max-width: 100%; border: 1px solid #d0d4da; border-radius: 4px; }
details { margin: .5rem 0; }
code { background: #f5f6f8; padding: .1rem .3rem; border-radius: 3px; }
ul.log { font-family: ui-monospace, monospace; font-size: .85rem; }
.level-error { color: #b31d28; }
.level-warn { color: #9a6700; }
</style>
</head>
<body>
<h1>{{.TC.Session.Name}}</h1>
<table class="meta">
<tr><td>Session</td><td><code>{{.TC.Session.ID}}</code></td></tr>
<tr><td>URL</td><td>{{.TC.Session.TargetURL}}</td></tr>
<tr><td>Browser</td><td>{{.TC.Session.BrowserKind}}</td></tr>
<tr><td>Started</td><td>{{stamp .TC.Session.StartedAt}}</td></tr>
{{if .Duration}}<tr><td>Duration</td><td>{{.Duration}}</td></tr>{{end}}
<tr><td>Steps</td><td>{{len .TC.Steps}}</td></tr>
<tr><td>Dropped events</td><td>{{.TC.Diagnostics.TotalDropped}}</td></tr>
</table>
{{range .Steps}}
<section class="step">
<h2>Step {{.Sequence}} — {{.Description}}</h2>
<p><code>{{.Kind}}</code>{{if .Target.Selector}} on <code>{{.Target.Selector}}</code>{{end}} at {{stamp .Timestamp}}</p>
{{if .Image}}<img class="shot" src="{{.Image}}" alt="Step {{.Sequence}}">{{end}}
{{if .NetworkEvents}}
<details><summary>Network ({{len .NetworkEvents}})</summary>
<ul class="log">
{{range .NetworkEvents}}<li>{{.Method}} {{.URL}} → {{status .Status}}{{if .Error}} ({{.Error}}){{end}}
{{if .RequestHeaders}}<ul>{{range headers .RequestHeaders}}<li>{{.Key}}: {{.Value}}</li>{{end}}</ul>{{end}}</li>
{{end}}
</ul>
</details>
{{end}}
{{if .ConsoleEvents}}
<details><summary>Console ({{len .ConsoleEvents}})</summary>
<ul class="log">
{{range .ConsoleEvents}}<li class="level-{{.Level}}">[{{.Level}}] {{.Message}}</li>
{{end}}
</ul>
</details>
{{end}}
</section>
{{end}}
{{if .TC.PageErrors}}
<h2>Page errors</h2>
<ul class="log">
{{range .TC.PageErrors}}<li class="level-error">{{stamp .Timestamp}} {{.Message}}</li>
{{end}}
</ul>
{{end}}
</body>
</html>
`
