// internal/capture/videos.go
package capture

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"
)

// videoExtractor drives the shared browser session through a third-party
// conversion site to obtain direct video/GIF URLs the primary page never
// exposes. The site's markup is out of our control, so every auxiliary
// interaction (consent dialogs) is opportunistic and only the core flow
// (input, submit, download buttons) is allowed to fail the request.
type videoExtractor struct {
	endpoint   string
	downloader *downloader
	logger     *zap.Logger
}

func newVideoExtractor(logger *zap.Logger, endpoint string, dl *downloader) *videoExtractor {
	return &videoExtractor{
		endpoint:   endpoint,
		downloader: dl,
		logger:     logger.Named("videos"),
	}
}

// downloadButtonsJS collects the conversion results: every "Download Video"
// / "Download GIF" control with its enclosing link's href.
const downloadButtonsJS = `(function() {
	var out = [];
	document.querySelectorAll("span.align-middle").forEach(function(s) {
		var label = s.textContent.trim();
		if (label !== 'Download Video' && label !== 'Download GIF') return;
		var a = s.closest('a');
		if (!a || !a.href) return;
		out.push({href: a.href, gif: /gif/i.test(label)});
	});
	return out;
})()`

type downloadButton struct {
	Href string `json:"href"`
	Gif  bool   `json:"gif"`
}

// extract submits targetURL to the conversion site and streams each
// resulting video/GIF into mediaDir. targetURL must be the canonical
// twitter.com form; the site rejects x.com links.
func (v *videoExtractor) extract(tab context.Context, targetURL, mediaDir string, timeout time.Duration) error {
	v.logger.Info("Escalating video extraction to conversion site",
		zap.String("endpoint", v.endpoint), zap.String("url", targetURL))

	// The tab context carries no deadline of its own; a converter that never
	// fires its load event must not hold the session slot forever.
	navCtx, cancel := context.WithTimeout(tab, navigationTimeout)
	err := chromedp.Run(navCtx, chromedp.Navigate(v.endpoint))
	cancel()
	if err != nil {
		if isTimeout(err) {
			return v.notReady(navigationTimeout,
				"the video conversion site didn't load in "+navigationTimeout.String())
		}
		return fmt.Errorf("navigating to conversion site: %w", err)
	}

	v.dismissConsent(tab)

	if err := v.submit(tab, targetURL, timeout); err != nil {
		return err
	}

	buttons, err := v.awaitButtons(tab, timeout)
	if err != nil {
		return err
	}

	for i, b := range buttons {
		name := filepath.Join(mediaDir, mediaFileName(i, b.Gif))
		if err := v.downloader.fetch(tab, b.Href, name); err != nil {
			return err
		}
	}
	return nil
}

// mediaFileName names the i-th extracted clip after its format.
func mediaFileName(i int, gif bool) string {
	ext := "mp4"
	if gif {
		ext = "gif"
	}
	return fmt.Sprintf("video_%d.%s", i, ext)
}

// notReady reports the conversion site failing to progress within wait.
func (v *videoExtractor) notReady(wait time.Duration, reason string) error {
	return &ContentNotReadyError{Target: v.endpoint, Timeout: wait, Reason: reason}
}

// consentSteps are the controls of the cookie dialog, clicked in order. The
// dialog does not appear on every visit; a missing control is normal.
var consentSteps = []string{"manage options", "confirm choices"}

// dismissConsent clicks through the consent dialog when it is present.
// Strictly best-effort.
func (v *videoExtractor) dismissConsent(tab context.Context) {
	for _, label := range consentSteps {
		js := fmt.Sprintf(`(function() {
	var btns = Array.from(document.querySelectorAll('button, [role="button"]'));
	var b = btns.find(function(x) { return x.textContent.trim().toLowerCase() === %q; });
	if (b) { b.click(); return true; }
	return false;
})()`, label)

		stepCtx, cancel := context.WithTimeout(tab, 3*time.Second)
		var clicked bool
		err := chromedp.Run(stepCtx,
			chromedp.Evaluate(js, &clicked),
			chromedp.Sleep(500*time.Millisecond))
		cancel()
		if err != nil || !clicked {
			v.logger.Debug("Consent control not found", zap.String("label", label))
			return
		}
	}
}

// submit types the tweet URL into the site's form and submits it.
func (v *videoExtractor) submit(tab context.Context, targetURL string, timeout time.Duration) error {
	const inputSelector = `form input:not([type='hidden'])`

	subCtx, cancel := context.WithTimeout(tab, timeout)
	defer cancel()

	err := chromedp.Run(subCtx,
		chromedp.WaitVisible(inputSelector, chromedp.ByQuery),
		chromedp.Click(inputSelector, chromedp.ByQuery),
		chromedp.SendKeys(inputSelector, targetURL+kb.Enter, chromedp.ByQuery),
	)
	if err != nil {
		if isTimeout(err) {
			return v.notReady(timeout,
				"the video conversion site didn't present its form in "+timeout.String())
		}
		return fmt.Errorf("submitting url to conversion site: %w", err)
	}
	return nil
}

// awaitButtons waits up to 2x timeout for the conversion results to appear.
func (v *videoExtractor) awaitButtons(tab context.Context, timeout time.Duration) ([]downloadButton, error) {
	wait := 2 * timeout
	waitCtx, cancel := context.WithTimeout(tab, wait)
	defer cancel()

	var buttons []downloadButton
	err := chromedp.Run(waitCtx,
		chromedp.Poll(downloadButtonsJS+".length > 0", nil, chromedp.WithPollingInterval(500*time.Millisecond)),
		chromedp.Evaluate(downloadButtonsJS, &buttons),
	)
	if err != nil {
		if isTimeout(err) {
			return nil, v.notReady(wait,
				"the video conversion site didn't process the tweet in "+wait.String())
		}
		return nil, fmt.Errorf("waiting for conversion results: %w", err)
	}
	if len(buttons) == 0 {
		return nil, v.notReady(wait, "the video conversion site returned no downloadable media")
	}
	return buttons, nil
}
