package checker

import (
	"errors"
	"fmt"
)

// errNotTried is the retry loop's initial error state. It must never escape
// the loop; seeing it in an Outcome indicates a bug in the attempt logic.
var errNotTried = errors.New("url was never attempted")

// StatusError records a completed request that returned a non-success status.
// Location holds the Location response header when the status was a redirect
// and the header was present.
type StatusError struct {
	Status   int
	Location string
}

func (e *StatusError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("http status %d (location %s)", e.Status, e.Location)
	}
	return fmt.Sprintf("http status %d", e.Status)
}

// TransportError records a failure below the HTTP layer: connection
// establishment, DNS resolution, or a request timeout.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Outcome is the terminal result of one logical check of a URL.
// A nil Err means the URL is reachable. URL is always the original candidate,
// even when the check succeeded through a rewritten URL.
type Outcome struct {
	URL string
	Err error
}

// Diagnostic renders the report line recorded for a failed URL. The format
// is stable: it appears both in the persisted results file and in the final
// console report.
func Diagnostic(url string, err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Location != "" {
			return fmt.Sprintf("[%d] %s -> %s", statusErr.Status, url, statusErr.Location)
		}
		return fmt.Sprintf("[%d] %s", statusErr.Status, url)
	}
	return err.Error()
}
