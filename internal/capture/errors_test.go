// internal/capture/errors_test.go
package capture

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTaxonomy(t *testing.T) {
	t.Run("content not ready matches root", func(t *testing.T) {
		err := error(&ContentNotReadyError{Target: "https://twitter.com/a/status/1", Timeout: 15 * time.Second})
		assert.ErrorIs(t, err, ErrCaptureFailed)

		var notReady *ContentNotReadyError
		require.ErrorAs(t, err, &notReady)
		assert.Equal(t, "https://twitter.com/a/status/1", notReady.Target)
	})

	t.Run("content not ready message prefers reason", func(t *testing.T) {
		err := &ContentNotReadyError{Target: "x", Timeout: time.Second, Reason: "tweet wasn't uploaded in 1s"}
		assert.Equal(t, "tweet wasn't uploaded in 1s", err.Error())

		err = &ContentNotReadyError{Target: "x", Timeout: time.Second}
		assert.Contains(t, err.Error(), "x")
		assert.Contains(t, err.Error(), "1s")
	})

	t.Run("driver unavailable keeps both lineages", func(t *testing.T) {
		cause := errors.New("exec: chrome not found")
		err := error(&DriverUnavailableError{Err: cause})
		assert.ErrorIs(t, err, ErrCaptureFailed)
		assert.ErrorIs(t, err, cause)

		var unavailable *DriverUnavailableError
		assert.ErrorAs(t, err, &unavailable)
	})

	t.Run("wrapFailure passes taxonomy members through", func(t *testing.T) {
		notReady := &ContentNotReadyError{Target: "x", Timeout: time.Second}
		assert.Same(t, error(notReady), wrapFailure(notReady))

		unavailable := &DriverUnavailableError{Err: errors.New("boom")}
		assert.Same(t, error(unavailable), wrapFailure(unavailable))
	})

	t.Run("wrapFailure normalizes foreign errors", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := wrapFailure(cause)
		assert.ErrorIs(t, err, ErrCaptureFailed)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), ErrCaptureFailed.Error())
	})

	t.Run("wrapFailure of nil is nil", func(t *testing.T) {
		assert.NoError(t, wrapFailure(nil))
	})
}
