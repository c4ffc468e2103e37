package export

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"testcase-recorder/internal/domain"
	"testcase-recorder/pkg/shared/redact"
)

// Markdown renders the human-readable report: one section per step with the
// screenshot link followed by collapsed network/console blocks. Sensitive
// headers are masked before they reach the page.
type Markdown struct{}

func (Markdown) Name() string { return "markdown" }

func (Markdown) Export(tc domain.TestCase, outputDir string) (string, error) {
	path := filepath.Join(outputDir, "testcase.md")
	if err := writeArtifact(path, []byte(renderMarkdown(tc))); err != nil {
		return "", err
	}
	return path, nil
}

func renderMarkdown(tc domain.TestCase) string {
	var b strings.Builder
	sess := tc.Session

	fmt.Fprintf(&b, "# %s\n\n", sess.Name)
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Session | `%s` |\n", sess.ID)
	fmt.Fprintf(&b, "| URL | %s |\n", sess.TargetURL)
	fmt.Fprintf(&b, "| Browser | %s |\n", sess.BrowserKind)
	fmt.Fprintf(&b, "| Started | %s |\n", stamp(sess.StartedAt))
	if sess.EndedAt != nil {
		fmt.Fprintf(&b, "| Ended | %s |\n", stamp(*sess.EndedAt))
		fmt.Fprintf(&b, "| Duration | %s |\n", sess.EndedAt.Sub(sess.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(&b, "| Steps | %d |\n", len(tc.Steps))
	d := tc.Diagnostics
	fmt.Fprintf(&b, "| Dropped events | %d |\n", d.TotalDropped())
	fmt.Fprintf(&b, "| Screenshot failures | %d |\n\n", d.ScreenshotFailures)

	for _, step := range tc.Steps {
		writeStepMarkdown(&b, step)
	}

	if len(tc.PageErrors) > 0 {
		b.WriteString("## Page errors\n\n")
		for _, pe := range tc.PageErrors {
			fmt.Fprintf(&b, "- `%s` %s\n", stamp(pe.Timestamp), pe.Message)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeStepMarkdown(b *strings.Builder, step domain.Step) {
	fmt.Fprintf(b, "## Step %d — %s\n\n", step.Sequence, step.Description)
	fmt.Fprintf(b, "- Kind: `%s`\n", step.Kind)
	if step.Target.Selector != "" {
		fmt.Fprintf(b, "- Target: `%s`\n", step.Target.Selector)
	}
	if step.URL != "" {
		fmt.Fprintf(b, "- URL: %s\n", step.URL)
	}
	fmt.Fprintf(b, "- Time: %s\n\n", stamp(step.Timestamp))

	if step.Screenshot != "" {
		fmt.Fprintf(b, "![Step %d](%s)\n\n", step.Sequence, step.Screenshot)
	}

	if len(step.NetworkEvents) > 0 {
		fmt.Fprintf(b, "<details><summary>Network (%d)</summary>\n\n", len(step.NetworkEvents))
		for _, ev := range step.NetworkEvents {
			status := "-"
			if ev.Status != nil {
				status = fmt.Sprintf("%d", *ev.Status)
			}
			fmt.Fprintf(b, "- `%s` %s %s", ev.Method, ev.URL, status)
			if ev.Error != "" {
				fmt.Fprintf(b, " (%s)", ev.Error)
			}
			b.WriteString("\n")
			writeHeadersMarkdown(b, ev.RequestHeaders)
		}
		b.WriteString("\n</details>\n\n")
	}

	if len(step.ConsoleEvents) > 0 {
		fmt.Fprintf(b, "<details><summary>Console (%d)</summary>\n\n", len(step.ConsoleEvents))
		for _, ev := range step.ConsoleEvents {
			fmt.Fprintf(b, "- `[%s]` %s\n", ev.Level, ev.Message)
		}
		b.WriteString("\n</details>\n\n")
	}
}

func writeHeadersMarkdown(b *strings.Builder, headers map[string]string) {
	if len(headers) == 0 {
		return
	}
	safe := redact.Headers(headers)
	keys := make([]string, 0, len(safe))
	for k := range safe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "  - %s: %s\n", k, safe[k])
	}
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
