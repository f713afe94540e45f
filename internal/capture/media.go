// internal/capture/media.go
package capture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// downloadConcurrency bounds parallel photo fetches per capture.
const downloadConcurrency = 4

// downloader fetches media bytes over plain HTTP, paced by a shared rate
// limiter so a many-photo tweet doesn't hammer the CDN.
type downloader struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func newDownloader(logger *zap.Logger, perSecond float64) *downloader {
	return &downloader{
		client:  &http.Client{Timeout: 2 * time.Minute},
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		logger:  logger.Named("download"),
	}
}

// savePhotos downloads every photo to dir as image_N.png, N in discovery
// order.
func (d *downloader) savePhotos(ctx context.Context, urls []string, dir string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadConcurrency)
	for i, src := range urls {
		g.Go(func() error {
			name := filepath.Join(dir, fmt.Sprintf("image_%d.png", i))
			return d.fetch(ctx, src, name)
		})
	}
	return g.Wait()
}

// fetch streams one URL to path.
func (d *downloader) fetch(ctx context.Context, src, path string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", src, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: unexpected status %s", src, resp.Status)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	d.logger.Debug("Media saved", zap.String("path", path), zap.Int64("bytes", n))
	return nil
}
