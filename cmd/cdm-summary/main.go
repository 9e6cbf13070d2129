// Command cdm-summary aggregates the whole compendium into the descriptive
// summary artifact and prints it as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"cdmcore/internal/logging"
	"cdmcore/internal/summary"
	"cdmcore/internal/tablestore"
)

var exitFunc = os.Exit

func main() {
	exitFunc(cli(os.Args[1:], os.Stdout, os.Stderr))
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cdm-summary", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		pretty    bool
		logLevel  string
		logFormat string
	)
	fs.BoolVar(&pretty, "pretty", false, "indent JSON output")
	fs.StringVar(&logLevel, "log-level", "info", "log level: debug|info|warn|error")
	fs.StringVar(&logFormat, "log-format", "text", "log format: text|json")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	logging.Init(logLevel, logFormat)
	if err := run(context.Background(), pretty, stdout); err != nil {
		if _, writeErr := fmt.Fprintf(stderr, "summary failed: %v\n", err); writeErr != nil {
			return 1
		}
		return 1
	}
	return 0
}

func run(ctx context.Context, pretty bool, stdout io.Writer) error {
	tables, err := tablestore.Open(ctx)
	if err != nil {
		return fmt.Errorf("open tables: %w", err)
	}
	if closer, ok := tables.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}
	out, err := summary.Summarize(ctx, tables)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}
