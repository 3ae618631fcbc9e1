package apidocs

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	ExitOK           = 0
	ExitFetchFailed  = 1
	ExitUsage        = 2
	ExitRenderFailed = 3
)

type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeFetchFailed
	OutcomeRenderFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeFetchFailed:
		return "fetch failed"
	case OutcomeRenderFailed:
		return "render failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

type Result struct {
	Outcome  Outcome
	Err      error
	Document *Document
}

// ExitCode maps the result to a process exit status. A failed render only
// fails the process when failOnRenderError is set.
func (r Result) ExitCode(failOnRenderError bool) int {
	switch r.Outcome {
	case OutcomeFetchFailed:
		return ExitFetchFailed
	case OutcomeRenderFailed:
		if failOnRenderError {
			return ExitRenderFailed
		}
	}
	return ExitOK
}

// Generate fetches the API description and renders it. The renderer is
// not run when the fetch fails.
func Generate(ctx context.Context, cfg *Config) Result {
	doc, err := FetchStep(ctx, cfg)
	if err != nil {
		return Result{Outcome: OutcomeFetchFailed, Err: err}
	}

	if err := RenderStep(ctx, cfg); err != nil {
		return Result{Outcome: OutcomeRenderFailed, Err: err, Document: doc}
	}

	return Result{Outcome: OutcomeOK, Document: doc}
}

// FetchStep runs Fetch and reports progress on the configured writers.
func FetchStep(ctx context.Context, cfg *Config) (*Document, error) {
	out := cfg.stdout()

	fmt.Fprintln(out, "🚀 Generating OpenAPI YAML...")
	doc, err := Fetch(ctx, cfg)
	if err != nil {
		fmt.Fprintf(cfg.stderr(), "❌ Failed to fetch YAML: %v\n", err)
		cfg.Logger.Error().Err(err).Str("url", cfg.SourceURL).Msg("fetch failed")
		return nil, err
	}

	if doc.Summary != nil {
		fmt.Fprintf(out, "✅ YAML saved: %s (%s)\n", doc.Path, doc.Summary)
	} else {
		fmt.Fprintf(out, "✅ YAML saved: %s\n", doc.Path)
	}
	return doc, nil
}

// RenderStep runs Render and reports progress on the configured writers.
// The renderer's own output is framed by a rule.
func RenderStep(ctx context.Context, cfg *Config) error {
	out := cfg.stdout()

	fmt.Fprintln(out, "🧱 Generating Redoc HTML...")
	rule := strings.Repeat("-", terminalWidth(out))
	fmt.Fprintln(out, rule)
	err := Render(ctx, cfg)
	fmt.Fprintln(out, rule)

	if err != nil {
		fmt.Fprintf(cfg.stderr(), "❌ Failed to generate Redoc HTML: %v\n", err)
		cfg.Logger.Warn().Err(err).Str("output", cfg.OutputFile).Msg("render failed")
		return err
	}

	fmt.Fprintf(out, "✅ Redoc HTML saved: %s\n", cfg.OutputFile)
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 2 {
			return width - 2
		}
	}
	return 78
}
