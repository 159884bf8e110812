package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/mreview/internal/cache"
	"github.com/dshills/mreview/internal/config"
	"github.com/dshills/mreview/internal/forge"
	"github.com/dshills/mreview/internal/logging"
	"github.com/dshills/mreview/internal/metrics"
	"github.com/dshills/mreview/internal/output"
	"github.com/dshills/mreview/internal/providers"
	"github.com/dshills/mreview/internal/reconcile"
	"github.com/dshills/mreview/internal/redact"
	"github.com/dshills/mreview/internal/review"
	"github.com/dshills/mreview/internal/selector"
)

// Shared review flags
var (
	flagProvider    string
	flagModel       string
	flagIgnore      string
	flagExtensions  string
	flagMaxFileSize int
	flagRules       string
	flagLanguage    string
	flagNoRedact    bool
	flagTimeout     time.Duration
	flagMetricsFile string
	flagLogFormat   string
	flagLogLevel    string
	flagDryRun      bool
	flagFormat      string
	flagOut         string
)

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (auto, openai, anthropic, gemini, ollama)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().StringVar(&flagIgnore, "ignore", "", "Extra ignore patterns (comma-separated)")
	cmd.Flags().StringVar(&flagExtensions, "extensions", "", "Extra reviewable extensions (comma-separated)")
	cmd.Flags().IntVar(&flagMaxFileSize, "max-file-size", 0, "Maximum file content sent for review, in bytes")
	cmd.Flags().StringVar(&flagRules, "rules", "", "Rules file path")
	cmd.Flags().StringVar(&flagLanguage, "language", "", "Review language (en, cs)")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "Overall timeout for the pass (e.g. 10m)")
	cmd.Flags().StringVar(&flagMetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	cmd.Flags().StringVar(&flagLogFormat, "log-format", "", "Log format (text, json)")
	cmd.Flags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Dry-run output format (text, json)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Dry-run output file path (default: stdout)")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagIgnore != "" {
		m["ignore"] = flagIgnore
	}
	if flagExtensions != "" {
		m["extensions"] = flagExtensions
	}
	if flagMaxFileSize > 0 {
		m["maxFileSize"] = strconv.Itoa(flagMaxFileSize)
	}
	if flagRules != "" {
		m["rulesFile"] = flagRules
	}
	if flagLanguage != "" {
		m["language"] = flagLanguage
	}
	if flagTimeout > 0 {
		// Round up so a sub-second timeout never becomes 0 (unbounded).
		m["timeoutSeconds"] = strconv.Itoa(int((flagTimeout + time.Second - 1) / time.Second))
	}
	if flagMetricsFile != "" {
		m["metricsFile"] = flagMetricsFile
	}
	if flagLogFormat != "" {
		m["log.format"] = flagLogFormat
	}
	if flagLogLevel != "" {
		m["log.level"] = flagLogLevel
	}
	return m
}

// target is the store a pass runs against. recorder is set when writes are
// kept in memory rather than published.
type target struct {
	store    forge.Store
	unit     string
	recorder *forge.Recorder
}

// remoteTarget wraps a remote store for a dry run when --dry-run is set.
func remoteTarget(store forge.Store, unit string) target {
	if !flagDryRun {
		return target{store: store, unit: unit}
	}
	dry := forge.NewDryRun(store)
	return target{store: dry, unit: unit, recorder: &dry.Recorder}
}

// newAnalyzer builds the advisory analyzer and a label for the summary
// footer. Tests replace it.
var newAnalyzer = func(cfg config.Config) (review.Analyzer, string, error) {
	name, err := providers.Detect(cfg.Provider, os.Getenv)
	if err != nil {
		return nil, "", err
	}
	reviewer, err := providers.New(name, cfg.ModelFor(name))
	if err != nil {
		return nil, "", err
	}
	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		return nil, "", fmt.Errorf("opening cache: %w", err)
	}
	rd := redact.New(cfg.Privacy.RedactSecrets, cfg.Privacy.RedactPaths)
	adv := review.NewAdvisor(reviewer, c, rd, review.Options{Language: cfg.Language})
	return adv, reviewer.Name() + " " + reviewer.Model(), nil
}

func newLogger(cfg config.Config) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(os.Stderr, cfg.Log.Format, level)
}

// exitCodeFor maps a pass error to an exit code.
func exitCodeFor(err error) int {
	if providers.IsAuthError(err) || forge.IsAuth(err) {
		return ExitAuthError
	}
	return ExitRuntimeError
}

func runPass(ctx context.Context, cfg config.Config, tgt target) {
	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return
	}
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
		log.Warn("secret redaction is disabled")
	}
	if cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	analyzer, footer, err := newAnalyzer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if providers.IsAuthError(err) {
			exitCode = ExitAuthError
		} else {
			exitCode = ExitUsageError
		}
		return
	}

	projectDir := cfg.ProjectDir
	if projectDir == "" {
		projectDir, _ = os.Getwd()
	}
	rules, err := review.LoadRules(review.RulesSource{
		Content:    cfg.RulesContent,
		ProjectDir: projectDir,
		File:       cfg.RulesFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading rules: %v\n", err)
		exitCode = ExitUsageError
		return
	}
	log.Info("review rules loaded", "origin", rules.Origin, "path", rules.Path)

	sel := selector.New(cfg.Ignore, cfg.Extensions)
	log.Debug("file selection", "ignore", sel.Patterns())

	m := metrics.New()
	eng := reconcile.New(tgt.store, analyzer, sel, reconcile.Options{
		Unit:        tgt.unit,
		Rules:       rules.Text,
		MaxFileSize: cfg.MaxFileSize,
		Footer:      footer,
	}, reconcile.WithLogger(log), reconcile.WithMetrics(m))

	res, err := eng.Run(ctx)
	if cfg.MetricsFile != "" {
		if werr := m.WriteTextfile(cfg.MetricsFile); werr != nil {
			log.Warn("writing metrics failed", "error", werr)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = exitCodeFor(err)
		return
	}

	if tgt.recorder == nil {
		return
	}
	report := &output.Report{
		Tool:     "mreview",
		Version:  version,
		RunID:    res.RunID,
		Unit:     tgt.unit,
		Stats:    res.Stats,
		Comments: tgt.recorder.Comments(),
		Deleted:  tgt.recorder.Deleted(),
	}
	if n, ok := tgt.recorder.Note(res.SummaryNoteID); ok {
		report.Summary = n.Body
	}
	if err := output.WriteReport(report, flagFormat, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
	}
}
