package checker

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/linkvet/linkvet/internal/ratelimit"
	"github.com/linkvet/linkvet/internal/telemetry"
	"go.uber.org/zap"
)

// acceptHeader is sent on every attempt; some sites vary their response on it.
const acceptHeader = "text/html, */*;q=0.8"

// RewriteRule maps a not-found URL to an alternate URL to try in its place.
// The substitution is applied at most once per check; the rewritten pass is
// never rewritten again.
type RewriteRule struct {
	Pattern *regexp.Regexp
	Replace string
}

// DefaultRewriteRules returns the built-in rules. GitHub returns 404 for
// /{org}/{repo}/actions pages when the workflow has no public runs, so those
// links are vetted against the repository page instead.
func DefaultRewriteRules() []RewriteRule {
	return []RewriteRule{
		{
			Pattern: regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+)/actions(?:\?workflow=.+)?$`),
			Replace: "https://github.com/$1/$2",
		},
	}
}

// Fetcher performs one logical check of a URL: up to maxAttempts HTTP
// requests, with a single rewrite substitution allowed on a 404. The
// underlying client is constructed once and shared read-only by every
// concurrent check.
type Fetcher struct {
	client      *http.Client
	pool        *Pool
	limiter     *ratelimit.Limiter
	rules       []RewriteRule
	maxAttempts int
	userAgent   string
	logger      *zap.Logger
}

// NewFetcher builds a Fetcher from the run configuration. The client
// deliberately skips certificate validation (the long tail of linked sites
// has stale certs), never follows redirects (so redirect targets surface in
// diagnostics), and bounds each attempt with the configured timeout.
func NewFetcher(cfg Config, pool *Pool, limiter *ratelimit.Limiter, logger *zap.Logger) *Fetcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	client := &http.Client{
		Timeout: cfg.RequestTimeout,
		CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		},
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
			},
			MaxIdleConns:        64,
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     30 * time.Second,
		},
	}
	return &Fetcher{
		client:      client,
		pool:        pool,
		limiter:     limiter,
		rules:       DefaultRewriteRules(),
		maxAttempts: cfg.MaxAttempts,
		userAgent:   cfg.UserAgent,
		logger:      logger,
	}
}

// Check runs the full retry state machine for one candidate URL. It holds a
// pool permit for the whole duration and releases it on every exit path. The
// returned Outcome is always keyed by the original URL, even when the verdict
// came from a rewritten URL.
func (f *Fetcher) Check(ctx context.Context, url string) Outcome {
	release, err := f.pool.Acquire(ctx)
	if err != nil {
		return Outcome{URL: url, Err: &TransportError{Err: err}}
	}
	defer release()

	telemetry.CheckStarted()
	defer telemetry.CheckFinished()

	checkErr := f.attemptLoop(ctx, url, true)
	switch {
	case checkErr == nil:
		telemetry.IncCheck("success")
	case isStatusError(checkErr):
		telemetry.IncCheck("status_error")
	default:
		telemetry.IncCheck("transport_error")
	}
	return Outcome{URL: url, Err: checkErr}
}

// attemptLoop issues up to maxAttempts requests against url. allowRewrite
// permits one substitution through the rewrite rules; the substituted pass is
// invoked with allowRewrite=false, which makes the depth-1 bound structural.
func (f *Fetcher) attemptLoop(ctx context.Context, url string, allowRewrite bool) error {
	lastErr := errNotTried
	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx, url); err != nil {
				lastErr = &TransportError{Err: err}
				continue
			}
		}

		f.logger.Debug("running attempt", zap.String("url", url), zap.Int("attempt", attempt))
		status, location, err := f.doRequest(ctx, url)
		if err != nil {
			f.logger.Warn("error while getting url, retrying",
				zap.String("url", url), zap.Error(err))
			telemetry.IncAttempt("transport_error")
			lastErr = &TransportError{Err: err}
			continue
		}
		telemetry.IncAttemptStatus(status)

		if status == http.StatusOK {
			f.logger.Debug("finished", zap.String("url", url))
			return nil
		}

		if status == http.StatusNotFound && allowRewrite {
			if rewritten, ok := f.rewrite(url); ok {
				f.logger.Warn("got 404, replacing through rewrite rule",
					zap.String("url", url), zap.String("rewritten", rewritten))
				telemetry.IncRewrite()
				return f.attemptLoop(ctx, rewritten, false)
			}
		}

		f.logger.Warn("error status while getting url, retrying",
			zap.String("url", url), zap.Int("status", status))
		lastErr = &StatusError{Status: status, Location: location}
	}
	return lastErr
}

// doRequest performs a single GET. It returns the status code and, for
// redirect statuses, the Location header. A non-nil error means the failure
// happened below the HTTP layer.
func (f *Fetcher) doRequest(ctx context.Context, url string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	// Drain a little body so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()

	location := ""
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		location = resp.Header.Get("Location")
	}
	return resp.StatusCode, location, nil
}

// rewrite returns the substituted URL for the first matching rule.
func (f *Fetcher) rewrite(url string) (string, bool) {
	for _, rule := range f.rules {
		if rule.Pattern.MatchString(url) {
			return rule.Pattern.ReplaceAllString(url, rule.Replace), true
		}
	}
	return "", false
}

func isStatusError(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr)
}
