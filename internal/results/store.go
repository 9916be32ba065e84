// Package results holds the persisted verdict set for checked URLs: a
// positive cache of known-working URLs that survives across runs, and the
// per-run map of failing URLs to diagnostics.
package results

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// fileFormat is the on-disk shape of the store. Working is persisted sorted
// so the file is deterministic and diffs cleanly.
type fileFormat struct {
	Working []string          `yaml:"working"`
	Failed  map[string]string `yaml:"failed"`
}

// Store accumulates check verdicts. It is mutated only by the orchestrator's
// single-threaded drain loop, so it carries no lock.
//
// working only ever grows: a URL confirmed reachable once is trusted until
// the results file is deleted. failed is rebuilt from scratch every run.
type Store struct {
	path    string
	working map[string]struct{}
	failed  map[string]string
}

// Load reads the store from path. A missing or undecodable file yields an
// empty store, never an error: the cache is advisory and a fresh start is
// always safe. Stale failures are never trusted, so failed is cleared
// unconditionally after load.
func Load(path string, logger *zap.Logger) *Store {
	s := &Store{
		path:    path,
		working: make(map[string]struct{}),
		failed:  make(map[string]string),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("results file unreadable, starting empty",
				zap.String("path", path), zap.Error(err))
		}
		return s
	}

	var ff fileFormat
	if err := yaml.Unmarshal(raw, &ff); err != nil {
		logger.Warn("results file undecodable, starting empty",
			zap.String("path", path), zap.Error(err))
		return s
	}
	for _, url := range ff.Working {
		s.working[url] = struct{}{}
	}
	return s
}

// IsWorking reports whether url is in the positive cache.
func (s *Store) IsWorking(url string) bool {
	_, ok := s.working[url]
	return ok
}

// MarkWorking records url as reachable. Any failure recorded for it earlier
// in the run is dropped: a URL never appears in both collections.
func (s *Store) MarkWorking(url string) {
	s.working[url] = struct{}{}
	delete(s.failed, url)
}

// MarkFailed records a diagnostic for url. If the same URL was scheduled
// twice this run and one check already succeeded, the success wins and the
// failure is discarded.
func (s *Store) MarkFailed(url, diagnostic string) {
	if _, ok := s.working[url]; ok {
		return
	}
	s.failed[url] = diagnostic
}

// Working returns the positive cache as a sorted slice.
func (s *Store) Working() []string {
	out := make([]string, 0, len(s.working))
	for url := range s.working {
		out = append(out, url)
	}
	sort.Strings(out)
	return out
}

// Failed returns a copy of the failure map.
func (s *Store) Failed() map[string]string {
	out := make(map[string]string, len(s.failed))
	for url, diag := range s.failed {
		out[url] = diag
	}
	return out
}

// FailedCount returns the number of failing URLs.
func (s *Store) FailedCount() int {
	return len(s.failed)
}

// FailedDiagnostics returns the diagnostics in sorted key order.
func (s *Store) FailedDiagnostics() []string {
	keys := make([]string, 0, len(s.failed))
	for url := range s.failed {
		keys = append(keys, url)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, url := range keys {
		out = append(out, s.failed[url])
	}
	return out
}

// Persist writes the full store to its path. It writes a temp file in the
// same directory and renames it over the target so a crash mid-write leaves
// the previous file intact. Persist is called after every single completion,
// so a crash loses at most one in-flight update.
func (s *Store) Persist() error {
	ff := fileFormat{
		Working: s.Working(),
		Failed:  s.failed,
	}
	raw, err := yaml.Marshal(ff)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".results-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp results file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close results: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace results file: %w", err)
	}
	return nil
}
