// internal/capture/errors.go
package capture

import (
	"errors"
	"fmt"
	"time"
)

// ErrCaptureFailed is the root of the capture error taxonomy. Every error
// that leaves this package matches it via errors.Is, so callers never have
// to know about chromedp or HTTP level failures.
var ErrCaptureFailed = errors.New("failed to process tweet, please report the problem")

// ContentNotReadyError reports that the tweet, or the conversion site's
// result, did not appear within the allotted timeout. It is usually a
// transient condition worth retrying.
type ContentNotReadyError struct {
	// Target is the URL or endpoint that was being waited on.
	Target  string
	Timeout time.Duration
	Reason  string
}

func (e *ContentNotReadyError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("%s did not render in %s", e.Target, e.Timeout)
}

func (e *ContentNotReadyError) Unwrap() error { return ErrCaptureFailed }

// DriverUnavailableError reports that no browser launch strategy succeeded.
// This is fatal for the request and likely for the whole process until an
// operator installs a working Chrome binary.
type DriverUnavailableError struct {
	Err error
}

func (e *DriverUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("browser cannot be initialized: %v", e.Err)
	}
	return "browser cannot be initialized"
}

func (e *DriverUnavailableError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrCaptureFailed, e.Err}
	}
	return []error{ErrCaptureFailed}
}

// failedError wraps an unanticipated underlying failure into the generic
// branch of the taxonomy. The user-facing message stays generic; the cause
// remains reachable through errors.Unwrap for diagnostics.
type failedError struct {
	cause error
}

func (e *failedError) Error() string {
	return fmt.Sprintf("%v: %v", ErrCaptureFailed, e.cause)
}

func (e *failedError) Unwrap() []error { return []error{ErrCaptureFailed, e.cause} }

// wrapFailure normalizes err into the taxonomy. Errors that already belong
// to it pass through unchanged, everything else becomes the generic capture
// failure.
func wrapFailure(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCaptureFailed) {
		return err
	}
	return &failedError{cause: err}
}
