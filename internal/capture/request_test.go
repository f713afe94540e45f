// internal/capture/request_test.go
package capture

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLink(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantURL string
		wantID  string
		wantErr bool
	}{
		{
			name:    "plain twitter link",
			raw:     "https://twitter.com/jack/status/20",
			wantURL: "https://twitter.com/jack/status/20",
			wantID:  "20",
		},
		{
			name:    "x.com is normalized to twitter.com",
			raw:     "https://x.com/jack/status/20",
			wantURL: "https://twitter.com/jack/status/20",
			wantID:  "20",
		},
		{
			name:    "www and no scheme",
			raw:     "www.twitter.com/someone/status/123456",
			wantURL: "https://twitter.com/someone/status/123456",
			wantID:  "123456",
		},
		{
			name:    "legacy statuses path",
			raw:     "https://twitter.com/someone/statuses/42",
			wantURL: "https://twitter.com/someone/status/42",
			wantID:  "42",
		},
		{
			name:    "query noise is dropped",
			raw:     "https://x.com/someone/status/99?s=20&t=abc",
			wantURL: "https://twitter.com/someone/status/99",
			wantID:  "99",
		},
		{name: "not a status link", raw: "https://twitter.com/someone", wantErr: true},
		{name: "different host", raw: "https://example.com/jack/status/20", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := ParseLink(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, link.URL)
			assert.Equal(t, tt.wantID, link.ID)
		})
	}
}

func TestNewRequestClampsValues(t *testing.T) {
	link := Link{URL: "https://twitter.com/a/status/1", UserName: "a", ID: "1"}

	t.Run("in range passes through", func(t *testing.T) {
		req := NewRequest(link, 3, 2, 30, ScopeBoth, "/tmp/out")
		assert.Equal(t, 3, req.Mode)
		assert.Equal(t, 2, req.NightMode)
		assert.Equal(t, 30*time.Second, req.Wait)
	})

	t.Run("out of range is clamped", func(t *testing.T) {
		req := NewRequest(link, 11, -3, 500, ScopeBoth, "/tmp/out")
		assert.Equal(t, 4, req.Mode)
		assert.Equal(t, 0, req.NightMode)
		assert.Equal(t, 30*time.Second, req.Wait)

		req = NewRequest(link, -1, 9, 0, ScopeBoth, "/tmp/out")
		assert.Equal(t, 0, req.Mode)
		assert.Equal(t, 2, req.NightMode)
		assert.Equal(t, time.Second, req.Wait)
	})

	t.Run("output layout derives from tweet id", func(t *testing.T) {
		req := NewRequest(link, 2, 1, 15, ScopeBoth, "/data")
		assert.Equal(t, filepath.Join("/data", "screenshots-1"), req.OutputDir)
		assert.Equal(t, filepath.Join("/data", "screenshots-1", "media"), req.MediaDir)
	})
}

func TestParseCommand(t *testing.T) {
	const root = "/tmp/out"

	t.Run("defaults", func(t *testing.T) {
		req, err := ParseCommand("https://twitter.com/jack/status/20", 2, 1, 15, root)
		require.NoError(t, err)
		assert.Equal(t, 2, req.Mode)
		assert.Equal(t, 1, req.NightMode)
		assert.Equal(t, ScopeBoth, req.Scope)
	})

	t.Run("flags override defaults", func(t *testing.T) {
		req, err := ParseCommand("https://x.com/jack/status/20 --mode 0 --night 2 -s", 2, 1, 15, root)
		require.NoError(t, err)
		assert.Equal(t, 0, req.Mode)
		assert.Equal(t, 2, req.NightMode)
		assert.Equal(t, ScopeScreenshotOnly, req.Scope)
	})

	t.Run("media only", func(t *testing.T) {
		req, err := ParseCommand("https://twitter.com/jack/status/20 --media-only", 2, 1, 15, root)
		require.NoError(t, err)
		assert.Equal(t, ScopeMediaOnly, req.Scope)
	})

	t.Run("mutually exclusive scope flags", func(t *testing.T) {
		_, err := ParseCommand("https://twitter.com/jack/status/20 -m -s", 2, 1, 15, root)
		assert.Error(t, err)
		_, err = ParseCommand("https://twitter.com/jack/status/20 -s -m", 2, 1, 15, root)
		assert.Error(t, err)
	})

	t.Run("unknown argument", func(t *testing.T) {
		_, err := ParseCommand("https://twitter.com/jack/status/20 --frobnicate", 2, 1, 15, root)
		assert.Error(t, err)
	})

	t.Run("missing flag value", func(t *testing.T) {
		_, err := ParseCommand("https://twitter.com/jack/status/20 --mode", 2, 1, 15, root)
		assert.Error(t, err)
	})

	t.Run("bad link", func(t *testing.T) {
		_, err := ParseCommand("https://example.com/nope", 2, 1, 15, root)
		assert.Error(t, err)
	})

	t.Run("empty command", func(t *testing.T) {
		_, err := ParseCommand("   ", 2, 1, 15, root)
		assert.Error(t, err)
	})
}

func TestResultHasTag(t *testing.T) {
	res := Result{Tags: []Tag{TagPremiumBadge}}
	assert.True(t, res.HasTag(TagPremiumBadge))
	assert.False(t, Result{}.HasTag(TagPremiumBadge))
}
