// internal/capture/locator_test.go
package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tweetHTML assembles a minimal tweet block around the given inner markup.
func tweetHTML(inner string) string {
	return `<article data-testid="tweet"><div>` + inner + `</div></article>`
}

func TestScanContent(t *testing.T) {
	t.Run("photos in document order", func(t *testing.T) {
		html := tweetHTML(`
			<div data-testid="tweetPhoto"><img src="https://pbs.twimg.com/media/a.jpg?format=jpg&amp;name=small"></div>
			<div data-testid="tweetPhoto"><img src="https://pbs.twimg.com/media/b.jpg?format=jpg&amp;name=small"></div>`)

		m, err := scanContent(html)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://pbs.twimg.com/media/a.jpg?format=jpg&name=large",
			"https://pbs.twimg.com/media/b.jpg?format=jpg&name=large",
		}, m.PhotoURLs)
		assert.False(t, m.HasVideo)
		assert.False(t, m.PremiumBadge)
	})

	t.Run("quoted tweet media is excluded", func(t *testing.T) {
		html := tweetHTML(`
			<div data-testid="tweetPhoto"><img src="https://pbs.twimg.com/media/own.jpg?name=small"></div>
			<div role="link">
				<div data-testid="tweetPhoto"><img src="https://pbs.twimg.com/media/quoted.jpg?name=small"></div>
				<div data-testid="videoPlayer"></div>
			</div>`)

		m, err := scanContent(html)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://pbs.twimg.com/media/own.jpg?name=large"}, m.PhotoURLs)
		assert.False(t, m.HasVideo, "a video inside the quoted tweet is not the tweet's own video")
	})

	t.Run("link card media is excluded", func(t *testing.T) {
		html := tweetHTML(`
			<div data-testid="card.wrapper">
				<div data-testid="tweetPhoto"><img src="https://pbs.twimg.com/card_img/c.jpg?name=small"></div>
			</div>`)

		m, err := scanContent(html)
		require.NoError(t, err)
		assert.Empty(t, m.PhotoURLs)
	})

	t.Run("video player is detected", func(t *testing.T) {
		html := tweetHTML(`<div data-testid="videoPlayer"><video></video></div>`)

		m, err := scanContent(html)
		require.NoError(t, err)
		assert.True(t, m.HasVideo)
		assert.Empty(t, m.PhotoURLs)
	})

	t.Run("premium badge is detected", func(t *testing.T) {
		html := tweetHTML(`<svg data-testid="icon-verified"></svg>`)

		m, err := scanContent(html)
		require.NoError(t, err)
		assert.True(t, m.PremiumBadge)
	})

	t.Run("image without src is skipped", func(t *testing.T) {
		html := tweetHTML(`<div data-testid="tweetPhoto"><img alt="placeholder"></div>`)

		m, err := scanContent(html)
		require.NoError(t, err)
		assert.Empty(t, m.PhotoURLs)
	})

	t.Run("text-only tweet yields nothing", func(t *testing.T) {
		m, err := scanContent(tweetHTML(`<span>just words</span>`))
		require.NoError(t, err)
		assert.Empty(t, m.PhotoURLs)
		assert.False(t, m.HasVideo)
		assert.False(t, m.PremiumBadge)
	})
}

func TestUpgradePhotoURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "small becomes large",
			in:   "https://pbs.twimg.com/media/x.jpg?format=jpg&name=small",
			want: "https://pbs.twimg.com/media/x.jpg?format=jpg&name=large",
		},
		{
			name: "first query parameter",
			in:   "https://pbs.twimg.com/media/x.jpg?name=small&format=jpg",
			want: "https://pbs.twimg.com/media/x.jpg?name=large&format=jpg",
		},
		{
			name: "already large is untouched",
			in:   "https://pbs.twimg.com/media/x.jpg?format=jpg&name=large",
			want: "https://pbs.twimg.com/media/x.jpg?format=jpg&name=large",
		},
		{
			name: "small elsewhere in the url is untouched",
			in:   "https://pbs.twimg.com/media/small.jpg?format=jpg",
			want: "https://pbs.twimg.com/media/small.jpg?format=jpg",
		},
		{
			name: "no query string",
			in:   "https://pbs.twimg.com/media/x.jpg",
			want: "https://pbs.twimg.com/media/x.jpg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, upgradePhotoURL(tt.in))
		})
	}
}
