package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"testcase-recorder/internal/adapters/browser"
	"testcase-recorder/internal/adapters/export"
	fsstore "testcase-recorder/internal/adapters/storage/fs"
	"testcase-recorder/internal/domain"
	cfgpkg "testcase-recorder/internal/infrastructure/config"
	obs "testcase-recorder/internal/infrastructure/observability"
	"testcase-recorder/internal/usecase"
)

func newRecordCmd() *cobra.Command {
	cfg := cfgpkg.FromEnv()
	cmd := &cobra.Command{
		Use:   "record <url>",
		Short: "Record a browser session into a test case",
		Long: `Opens the intake bridge and records the browser session at <url>.
Use the in-page control panel to start and stop recording; artifacts
(testcase.json, testcase.md, testcase.html, testcase.har, screenshots/)
are written to the output directory on stop.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runRecord(cmd.Context(), cfg, args[0])
		},
	}
	cmd.Flags().StringVarP(&cfg.OutputDir, "output", "o", "", "output directory for test case files (required)")
	cmd.Flags().StringVarP(&cfg.Name, "name", "n", "", "test case name (derived from URL if omitted)")
	cmd.Flags().StringVarP(&cfg.Browser, "browser", "b", cfg.Browser, "browser to use (chromium|firefox|webkit)")
	cmd.Flags().BoolVar(&cfg.Headless, "headless", false, "run the browser without a GUI")
	cmd.Flags().IntVarP(&cfg.TimeoutMs, "timeout", "t", cfg.TimeoutMs, "action timeout in milliseconds")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runRecord(ctx context.Context, cfg cfgpkg.Config, rawURL string) error {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return err
	}
	cfg.TargetURL = target
	if cfg.Name == "" {
		cfg.Name = nameFromURL(target)
	}
	kind, err := browserKind(cfg.Browser)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("output directory %s: %w", cfg.OutputDir, err)
	}

	logger := obs.NewLogger(cfg.LogLevel)
	metrics := obs.NewMetrics()

	sink, err := fsstore.NewScreenshotStore(cfg.OutputDir)
	if err != nil {
		return err
	}

	bridge := browser.NewBridge(logger)
	rec := usecase.NewRecorder(bridge, bridge, sink, logger, metrics)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sessCfg := usecase.SessionConfig{
		Name:        cfg.Name,
		TargetURL:   cfg.TargetURL,
		BrowserKind: kind,
		TimeoutMs:   cfg.TimeoutMs,
		Headless:    cfg.Headless,
		Grace:       cfg.Grace(),
	}

	stopped := make(chan domain.TestCase, 1)
	bridge.OnControl(func(command string) {
		switch command {
		case "start":
			if _, err := rec.Start(ctx, sessCfg); err != nil {
				logger.Warn().Err(err).Msg("start refused")
			}
		case "stop":
			tc, err := rec.Stop()
			if err != nil {
				logger.Warn().Err(err).Msg("stop refused")
				return
			}
			select {
			case stopped <- tc:
			default:
			}
		}
	})

	bridgeErr := make(chan error, 1)
	go func() { bridgeErr <- bridge.Serve(ctx, cfg.BridgeAddr) }()

	logger.Info().
		Str("url", cfg.TargetURL).
		Str("bridge", cfg.BridgeAddr).
		Str("output", cfg.OutputDir).
		Msg("ready to record, use the control panel to start")

	var tc domain.TestCase
	select {
	case tc = <-stopped:
	case err := <-bridgeErr:
		if err != nil {
			return fmt.Errorf("bridge: %w", err)
		}
		return fmt.Errorf("bridge closed before recording finished")
	case <-ctx.Done():
		// Ctrl-C: close out a running recording rather than losing it.
		var err error
		tc, err = rec.Stop()
		if err != nil {
			logger.Info().Msg("cancelled before recording started")
			return nil
		}
	}

	paths, err := export.WriteAll(tc, cfg.OutputDir)
	for _, p := range paths {
		logger.Info().Str("path", p).Msg("artifact written")
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	printSummary(os.Stdout, tc, paths)
	return nil
}

// normalizeURL defaults the scheme to https and rejects URLs without a host.
func normalizeURL(raw string) (string, error) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid URL %q, expected something like https://example.com", raw)
	}
	return u.String(), nil
}

// nameFromURL derives a default test case name like "example.com_login".
func nameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	host := strings.TrimPrefix(u.Host, "www.")
	path := strings.ReplaceAll(strings.Trim(u.Path, "/"), "/", "_")
	if path != "" {
		return host + "_" + path
	}
	return host
}

func browserKind(s string) (domain.BrowserKind, error) {
	switch domain.BrowserKind(strings.ToLower(s)) {
	case domain.BrowserChromium:
		return domain.BrowserChromium, nil
	case domain.BrowserFirefox:
		return domain.BrowserFirefox, nil
	case domain.BrowserWebkit:
		return domain.BrowserWebkit, nil
	default:
		return "", fmt.Errorf("unsupported browser %q (chromium|firefox|webkit)", s)
	}
}
