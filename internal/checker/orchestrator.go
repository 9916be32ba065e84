package checker

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/linkvet/linkvet/internal/results"
	"go.uber.org/zap"
)

// Checker performs one logical check of a URL.
type Checker interface {
	Check(ctx context.Context, url string) Outcome
}

// Engine schedules one check per eligible candidate URL, drains completions
// as they arrive, and records verdicts in the results store. The store is
// touched only by Run's own goroutine, never by the checks themselves.
type Engine struct {
	checker Checker
	store   *results.Store
	out     io.Writer
	logger  *zap.Logger
}

// NewEngine constructs an Engine writing progress and the final report to out.
func NewEngine(checker Checker, store *results.Store, out io.Writer, logger *zap.Logger) *Engine {
	return &Engine{
		checker: checker,
		store:   store,
		out:     out,
		logger:  logger,
	}
}

// Run checks every eligible candidate and returns a non-nil error when at
// least one URL ended in the failed set. Candidates without an http scheme
// prefix are discarded; candidates already in the positive cache are not
// re-verified. Duplicates are scheduled independently.
//
// Each completed check is persisted before the next one is processed, so a
// crash loses at most the single in-flight update.
func (e *Engine) Run(ctx context.Context, candidates []string) error {
	toCheck := make([]string, 0, len(candidates))
	for _, url := range candidates {
		if !strings.HasPrefix(url, "http") {
			continue
		}
		if e.store.IsWorking(url) {
			e.logger.Debug("cached as working, skipping", zap.String("url", url))
			continue
		}
		toCheck = append(toCheck, url)
	}
	e.logger.Debug("checks scheduled", zap.Int("count", len(toCheck)))

	// Buffered to the scheduled count so every check can post its outcome
	// and exit even if Run returns early on a persist error.
	completions := make(chan Outcome, len(toCheck))
	for _, url := range toCheck {
		go func(u string) {
			completions <- e.checker.Check(ctx, u)
		}(url)
	}

	// Completion order depends on network timing; the loop just reads the
	// channel exactly as many times as checks were scheduled.
	for i := 0; i < len(toCheck); i++ {
		outcome := <-completions
		if outcome.Err == nil {
			fmt.Fprint(e.out, "✔ ")
			e.store.MarkWorking(outcome.URL)
		} else {
			fmt.Fprint(e.out, "✘ ")
			e.store.MarkFailed(outcome.URL, Diagnostic(outcome.URL, outcome.Err))
		}
		if err := e.store.Persist(); err != nil {
			return fmt.Errorf("persist results: %w", err)
		}
	}

	fmt.Fprintln(e.out)
	if e.store.FailedCount() == 0 {
		fmt.Fprintln(e.out, "No errors!")
		return nil
	}
	for _, diag := range e.store.FailedDiagnostics() {
		fmt.Fprintln(e.out, diag)
	}
	return fmt.Errorf("%d urls with errors", e.store.FailedCount())
}
