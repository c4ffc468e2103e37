// Command testcase-recorder records a manually driven browser session into a
// structured test-case artifact: ordered steps with screenshots, network
// traffic and console output, exported as JSON, Markdown, HTML and HAR.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"testcase-recorder/internal/infrastructure/observability"
)

var rootCmd = &cobra.Command{
	Use:     "testcase-recorder",
	Short:   "Record browser actions and generate test cases",
	Version: observability.Version,
}

func init() {
	rootCmd.AddCommand(newRecordCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "testcase-recorder %s (commit %s, built %s)\n",
				observability.Version, observability.Commit, observability.Date)
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
