package checker

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linkvet/linkvet/internal/extract"
	"github.com/linkvet/linkvet/internal/results"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeChecker records which URLs were checked and returns canned outcomes.
type fakeChecker struct {
	mu      sync.Mutex
	calls   map[string]int
	outcome func(url string) error
	gates   map[string]chan struct{}
}

func newFakeChecker() *fakeChecker {
	return &fakeChecker{calls: make(map[string]int)}
}

func (f *fakeChecker) Check(_ context.Context, url string) Outcome {
	f.mu.Lock()
	f.calls[url]++
	f.mu.Unlock()
	if gate, ok := f.gates[url]; ok {
		<-gate
	}
	var err error
	if f.outcome != nil {
		err = f.outcome(url)
	}
	return Outcome{URL: url, Err: err}
}

func (f *fakeChecker) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeChecker) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func newTestStore(t *testing.T) *results.Store {
	t.Helper()
	return results.Load(filepath.Join(t.TempDir(), "results.yaml"), zap.NewNop())
}

func TestRunSkipsCachedAndNonHTTPCandidates(t *testing.T) {
	store := newTestStore(t)
	store.MarkWorking("https://cached.example.org")

	fake := newFakeChecker()
	engine := NewEngine(fake, store, &bytes.Buffer{}, zap.NewNop())

	err := engine.Run(context.Background(), []string{
		"https://cached.example.org", // positive cache hit
		"https://fresh.example.org",
		"mailto:someone@example.org",
		"./relative/path.md",
		"#anchor",
	})
	require.NoError(t, err)

	require.Equal(t, 1, fake.totalCalls(), "only the fresh http candidate should be scheduled")
	require.Equal(t, 1, fake.callCount("https://fresh.example.org"))
}

func TestRunSchedulesUncachedDuplicatesIndependently(t *testing.T) {
	store := newTestStore(t)
	fake := newFakeChecker()
	engine := NewEngine(fake, store, &bytes.Buffer{}, zap.NewNop())

	url := "https://dup.example.org"
	err := engine.Run(context.Background(), []string{url, url})
	require.NoError(t, err)
	require.Equal(t, 2, fake.callCount(url))
}

func TestRunEmptyDocumentReportsSuccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.yaml")
	store := results.Load(path, zap.NewNop())

	candidates, err := extract.FromMarkdown([]byte("# Title\n\nJust prose, no links.\n"))
	require.NoError(t, err)
	require.Empty(t, candidates)

	var out bytes.Buffer
	engine := NewEngine(newFakeChecker(), store, &out, zap.NewNop())
	require.NoError(t, engine.Run(context.Background(), candidates))

	require.Contains(t, out.String(), "No errors!")
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "nothing completed, so nothing should be persisted")
}

func TestRunEndToEndMixedOutcomes(t *testing.T) {
	var brokenHits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/ok-one", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/ok-two", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&brokenHits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	doc := fmt.Sprintf("[one](%s/ok-one)\n[two](%s/ok-two)\n![img](%s/broken)\n",
		server.URL, server.URL, server.URL)
	candidates, err := extract.FromMarkdown([]byte(doc))
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	path := filepath.Join(t.TempDir(), "results.yaml")
	store := results.Load(path, zap.NewNop())
	fetcher := NewFetcher(testConfig(), NewPool(20), nil, zap.NewNop())

	var out bytes.Buffer
	engine := NewEngine(fetcher, store, &out, zap.NewNop())
	err = engine.Run(context.Background(), candidates)
	require.EqualError(t, err, "1 urls with errors")

	brokenURL := server.URL + "/broken"
	require.Equal(t, int32(5), atomic.LoadInt32(&brokenHits))
	require.ElementsMatch(t, []string{server.URL + "/ok-one", server.URL + "/ok-two"}, store.Working())
	require.Equal(t, map[string]string{brokenURL: "[503] " + brokenURL}, store.Failed())

	output := out.String()
	require.Equal(t, 2, strings.Count(output, "✔"))
	require.Equal(t, 1, strings.Count(output, "✘"))
	require.Contains(t, output, "[503] "+brokenURL)

	// The persisted store must agree with the in-memory one.
	reloaded := results.Load(path, zap.NewNop())
	require.ElementsMatch(t, store.Working(), reloaded.Working())
}

func TestRunPersistFailureDoesNotStrandChecks(t *testing.T) {
	// A results path whose directory does not exist makes every Persist fail.
	store := results.Load(filepath.Join(t.TempDir(), "missing", "results.yaml"), zap.NewNop())

	first := "https://first.example.org"
	second := "https://second.example.org"
	gate := make(chan struct{})

	fake := newFakeChecker()
	fake.gates = map[string]chan struct{}{second: gate}

	engine := NewEngine(fake, store, &bytes.Buffer{}, zap.NewNop())
	before := runtime.NumGoroutine()

	done := make(chan error, 1)
	go func() {
		done <- engine.Run(context.Background(), []string{first, second})
	}()

	// The first completion's persist fails and Run returns while the second
	// check is still in flight.
	err := <-done
	require.ErrorContains(t, err, "persist results")

	// The stranded check must still be able to post its outcome and exit.
	close(gate)
	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRunPersistsAfterEachCompletion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.yaml")
	store := results.Load(path, zap.NewNop())

	first := "https://first.example.org"
	second := "https://second.example.org"
	gate := make(chan struct{})

	fake := newFakeChecker()
	fake.gates = map[string]chan struct{}{second: gate}

	engine := NewEngine(fake, store, &bytes.Buffer{}, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		done <- engine.Run(context.Background(), []string{first, second})
	}()

	// The first completion must hit disk before the second check finishes.
	require.Eventually(t, func() bool {
		raw, err := os.ReadFile(path)
		return err == nil && strings.Contains(string(raw), first)
	}, 5*time.Second, 10*time.Millisecond)

	close(gate)
	require.NoError(t, <-done)

	reloaded := results.Load(path, zap.NewNop())
	require.ElementsMatch(t, []string{first, second}, reloaded.Working())
}
