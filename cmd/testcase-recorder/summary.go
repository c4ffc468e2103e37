package main

import (
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"

	"testcase-recorder/internal/domain"
)

// printSummary renders the end-of-session recap. Rounded table style on a
// TTY, plain style when piped.
func printSummary(w io.Writer, tc domain.TestCase, paths []string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	tw.AppendRow(table.Row{"Test case", tc.Session.Name})
	tw.AppendRow(table.Row{"Session", tc.Session.ID})
	tw.AppendRow(table.Row{"Steps", len(tc.Steps)})
	if tc.Session.EndedAt != nil {
		tw.AppendRow(table.Row{"Duration", tc.Session.EndedAt.Sub(tc.Session.StartedAt).Round(time.Millisecond)})
	}
	network, console := 0, 0
	for _, s := range tc.Steps {
		network += len(s.NetworkEvents)
		console += len(s.ConsoleEvents)
	}
	tw.AppendRow(table.Row{"Network events", network})
	tw.AppendRow(table.Row{"Console events", console})
	d := tc.Diagnostics
	tw.AppendRow(table.Row{"Dropped events", d.TotalDropped()})
	tw.AppendRow(table.Row{"Screenshot failures", d.ScreenshotFailures})
	tw.AppendSeparator()
	for _, p := range paths {
		tw.AppendRow(table.Row{"Artifact", p})
	}
	tw.Render()
}
