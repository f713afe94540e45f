// internal/capture/capture.go
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/gallodest/tweetframe/internal/browser"
	"github.com/gallodest/tweetframe/internal/config"
)

// navigationTimeout bounds a single page load. Distinct from the
// content-ready wait, which is per-request.
const navigationTimeout = 90 * time.Second

// readTimeout bounds the post-render tab operations (DOM read, screenshot).
// The tab context itself has no deadline, so every operation on it must
// carry its own or a stuck page wedges the session slot forever.
const readTimeout = 30 * time.Second

// SessionProvider hands out the shared browser tab. Implemented by
// browser.Manager; narrowed to an interface so pipeline tests can stub it.
type SessionProvider interface {
	Session(ctx context.Context) (context.Context, error)
}

// Pipeline runs the whole capture sequence for one request: session
// acquisition, rendering, cosmetic edits, screenshot, and media
// extraction. It does not serialize callers; the dispatch layer owns that.
type Pipeline struct {
	logger   *zap.Logger
	browser  SessionProvider
	download *downloader
	videos   *videoExtractor
}

// NewPipeline wires a Pipeline from its collaborators.
func NewPipeline(logger *zap.Logger, provider SessionProvider, cfg config.CaptureConfig) *Pipeline {
	log := logger.Named("capture")
	dl := newDownloader(log, cfg.DownloadRate)
	return &Pipeline{
		logger:   log,
		browser:  provider,
		download: dl,
		videos:   newVideoExtractor(log, cfg.ConverterURL, dl),
	}
}

// Capture renders the tweet and produces the request's outputs. Every
// returned error belongs to the capture taxonomy: ErrCaptureFailed always
// matches, with ContentNotReadyError and DriverUnavailableError as the
// distinguishable subtypes.
func (p *Pipeline) Capture(ctx context.Context, req Request) (Result, error) {
	res, err := p.capture(ctx, req)
	if err != nil {
		return Result{}, wrapFailure(err)
	}
	return res, nil
}

func (p *Pipeline) capture(ctx context.Context, req Request) (Result, error) {
	log := p.logger.With(zap.String("tweet_id", req.Link.ID))
	log.Info("Starting capture",
		zap.String("url", req.Link.URL),
		zap.Int("mode", req.Mode),
		zap.Int("night_mode", req.NightMode),
		zap.String("scope", req.Scope.String()))

	tab, err := p.browser.Session(ctx)
	if err != nil {
		var unavailable *browser.UnavailableError
		if errors.As(err, &unavailable) {
			return Result{}, &DriverUnavailableError{Err: err}
		}
		return Result{}, err
	}

	if err := ensureOutputDirs(req); err != nil {
		return Result{}, err
	}

	// The appearance cookie only takes effect when it exists before the
	// tweet renders, so navigate once to establish the origin, set the
	// cookie, then load the page for real.
	if err := p.navigate(tab, req); err != nil {
		return Result{}, err
	}

	if err := waitForContent(tab, req.Link.URL, req.Wait); err != nil {
		return Result{}, err
	}

	applyCosmeticEdits(tab, log, req.Mode)

	var html string
	readCtx, cancelRead := context.WithTimeout(tab, readTimeout)
	err = chromedp.Run(readCtx,
		chromedp.Evaluate(`window.scrollTo(0, 0)`, nil),
		chromedp.OuterHTML(tweetSelector, &html, chromedp.ByQuery),
	)
	cancelRead()
	if err != nil {
		if isTimeout(err) {
			return Result{}, &ContentNotReadyError{
				Target:  req.Link.URL,
				Timeout: readTimeout,
				Reason:  "tweet block vanished before it could be read",
			}
		}
		return Result{}, fmt.Errorf("reading tweet block: %w", err)
	}

	media, err := scanContent(html)
	if err != nil {
		return Result{}, fmt.Errorf("scanning tweet block: %w", err)
	}

	var res Result
	if media.PremiumBadge {
		res.Tags = append(res.Tags, TagPremiumBadge)
	}

	if req.Scope.WantsScreenshot() {
		if err := p.screenshot(tab, req); err != nil {
			return Result{}, err
		}
	}

	if req.Scope.WantsMedia() {
		if len(media.PhotoURLs) > 0 {
			log.Info("Downloading photos", zap.Int("count", len(media.PhotoURLs)))
			if err := p.download.savePhotos(ctx, media.PhotoURLs, req.MediaDir); err != nil {
				return Result{}, err
			}
		}
		if media.HasVideo {
			// The conversion site needs the untouched canonical URL.
			if err := p.videos.extract(tab, req.Link.URL, req.MediaDir, req.Wait); err != nil {
				return Result{}, err
			}
		}
	}

	log.Info("Capture finished", zap.Int("photos", len(media.PhotoURLs)),
		zap.Bool("video", media.HasVideo), zap.Bool("premium", media.PremiumBadge))
	return res, nil
}

// ensureOutputDirs creates the request's output directories before any
// write happens.
func ensureOutputDirs(req Request) error {
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if req.Scope.WantsMedia() {
		if err := os.MkdirAll(req.MediaDir, 0o755); err != nil {
			return fmt.Errorf("creating media dir: %w", err)
		}
	}
	return nil
}

// navigate performs the double navigation with the night-mode cookie in
// between.
func (p *Pipeline) navigate(tab context.Context, req Request) error {
	navCtx, cancel := context.WithTimeout(tab, navigationTimeout)
	defer cancel()

	err := chromedp.Run(navCtx,
		chromedp.Navigate(req.Link.URL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return network.SetCookie("night_mode", strconv.Itoa(req.NightMode)).
				WithURL(req.Link.URL).
				Do(ctx)
		}),
		chromedp.Navigate(req.Link.URL),
	)
	if err != nil {
		return fmt.Errorf("loading %s: %w", req.Link.URL, err)
	}
	return nil
}

// screenshot rasterizes exactly the tweet block's bounding box. Screenshot
// blocks until the node is visible, so the wait is bounded.
func (p *Pipeline) screenshot(tab context.Context, req Request) error {
	shotCtx, cancel := context.WithTimeout(tab, readTimeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(shotCtx,
		chromedp.Screenshot(tweetSelector, &buf, chromedp.NodeVisible, chromedp.ByQuery),
	); err != nil {
		if isTimeout(err) {
			return &ContentNotReadyError{
				Target:  req.Link.URL,
				Timeout: readTimeout,
				Reason:  "tweet block never became visible for the screenshot",
			}
		}
		return fmt.Errorf("taking screenshot: %w", err)
	}

	path := filepath.Join(req.OutputDir, "screenshot.png")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("writing screenshot: %w", err)
	}
	p.logger.Debug("Screenshot saved", zap.String("path", path))
	return nil
}
