// internal/capture/locator.go
package capture

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// tweetSelector marks the primary post block. Everything downstream (edits,
// screenshot, media scan) is anchored on the first match.
const tweetSelector = `article[data-testid='tweet']`

// cardExclusion lists the containers whose descendants are quoted or
// cross-linked content, never media of the tweet itself.
var cardExclusion = []string{
	`div[role='link']`,
	`div[data-testid='card.wrapper']`,
}

// isTimeout reports whether err is a deadline expiry or a chromedp polling
// timeout. Both mean the page never reached the awaited state.
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, chromedp.ErrPollingTimeout)
}

// waitForContent polls until the tweet block is attached to the document,
// bounded by timeout. On timeout it returns a ContentNotReadyError carrying
// the original target URL.
func waitForContent(ctx context.Context, targetURL string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := chromedp.Run(waitCtx,
		chromedp.WaitReady(tweetSelector, chromedp.ByQuery))
	if err == nil {
		return nil
	}
	if isTimeout(err) {
		return &ContentNotReadyError{
			Target:  targetURL,
			Timeout: timeout,
			Reason:  "tweet wasn't uploaded in " + timeout.String(),
		}
	}
	return err
}

// Media is what the locator found inside the tweet block.
type Media struct {
	// PhotoURLs are direct image sources, already upgraded to the large
	// size variant, in document order.
	PhotoURLs []string
	// HasVideo means at least one video/GIF player container is present.
	// The primary page exposes no downloadable URL for those, so they are
	// handled by the conversion site flow.
	HasVideo bool
	// PremiumBadge means the author shows the paid verification badge.
	PremiumBadge bool
}

// scanContent extracts media references and the premium badge marker from
// the tweet block's outer HTML. Parsing a snapshot instead of poking the
// live DOM keeps the exclusion rules testable against fixtures and tolerant
// of markup drift: an unmatched selector degrades to "nothing found".
func scanContent(html string) (Media, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Media{}, err
	}

	var m Media

	m.PremiumBadge = doc.Find(`svg[data-testid='icon-verified']`).Length() > 0

	doc.Find(`div[data-testid='tweetPhoto'] img`).Each(func(_ int, s *goquery.Selection) {
		if insideCard(s) {
			return
		}
		src, ok := s.Attr("src")
		if !ok || src == "" {
			return
		}
		m.PhotoURLs = append(m.PhotoURLs, upgradePhotoURL(src))
	})

	doc.Find(`div[data-testid='videoPlayer']`).Each(func(_ int, s *goquery.Selection) {
		if insideCard(s) {
			return
		}
		m.HasVideo = true
	})

	return m, nil
}

// insideCard reports whether the selection sits inside a quoted-tweet or
// link-card container.
func insideCard(s *goquery.Selection) bool {
	for _, sel := range cardExclusion {
		if s.ParentsFiltered(sel).Length() > 0 {
			return true
		}
	}
	return false
}

// smallVariant matches the preview size marker in a photo source URL.
var smallVariant = regexp.MustCompile(`([?&]name=)small\b`)

// upgradePhotoURL rewrites the small preview variant to the largest
// available one. Nothing else in the URL changes.
func upgradePhotoURL(src string) string {
	return smallVariant.ReplaceAllString(src, "${1}large")
}
