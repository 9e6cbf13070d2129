// Command cdm-analyze computes the statistical analysis of one study against
// the compendium and prints it as JSON. Results are served from the analysis
// cache when a fresh entry exists.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"cdmcore/internal/cache"
	"cdmcore/internal/engine"
	"cdmcore/internal/logging"
	"cdmcore/internal/tablestore"
)

var exitFunc = os.Exit

func main() {
	exitFunc(cli(os.Args[1:], os.Stdout, os.Stderr))
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cdm-analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		studyID   string
		force     bool
		pretty    bool
		logLevel  string
		logFormat string
	)
	fs.StringVar(&studyID, "study", "", "study id to analyze (required)")
	fs.BoolVar(&force, "force", false, "recompute even when a cached entry exists")
	fs.BoolVar(&pretty, "pretty", false, "indent JSON output")
	fs.StringVar(&logLevel, "log-level", "info", "log level: debug|info|warn|error")
	fs.StringVar(&logFormat, "log-format", "text", "log format: text|json")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if studyID == "" {
		if _, err := fmt.Fprintln(stderr, "missing required -study flag"); err != nil {
			return 2
		}
		fs.Usage()
		return 2
	}
	logging.Init(logLevel, logFormat)
	if err := run(context.Background(), studyID, force, pretty, stdout); err != nil {
		if _, writeErr := fmt.Fprintf(stderr, "analysis failed: %v\n", err); writeErr != nil {
			return 1
		}
		return 1
	}
	return 0
}

func run(ctx context.Context, studyID string, force, pretty bool, stdout io.Writer) error {
	tables, err := tablestore.Open(ctx)
	if err != nil {
		return fmt.Errorf("open tables: %w", err)
	}
	if closer, ok := tables.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}
	kv, err := cache.Open(ctx)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	svc, err := engine.New(ctx, tables, kv,
		engine.WithMetricsRecorder(engine.NewExpvarMetricsRecorder("")))
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	result, _, err := svc.StudyAnalysis(ctx, studyID, force)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}
