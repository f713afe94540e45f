// File: cmd/capture.go
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gallodest/tweetframe/internal/browser"
	"github.com/gallodest/tweetframe/internal/capture"
	"github.com/gallodest/tweetframe/internal/dispatch"
	"github.com/gallodest/tweetframe/internal/observability"
)

// newCaptureCmd creates and configures the `capture` command.
func newCaptureCmd() *cobra.Command {
	captureCmd := &cobra.Command{
		Use:   "capture [links...]",
		Short: "Captures screenshots and media from the given tweet links",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their Viper keys so command-line flags override
			// values from the config file and environment variables.
			if err := viper.BindPFlag("capture.mode", cmd.Flags().Lookup("mode")); err != nil {
				return err
			}
			if err := viper.BindPFlag("capture.night_mode", cmd.Flags().Lookup("night")); err != nil {
				return err
			}
			if err := viper.BindPFlag("capture.wait_seconds", cmd.Flags().Lookup("wait")); err != nil {
				return err
			}
			return viper.BindPFlag("capture.output_root", cmd.Flags().Lookup("output"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()
			cfg := appCfg

			// Re-apply the now-bound flag overrides and re-clamp.
			if err := viper.Unmarshal(cfg); err != nil {
				return fmt.Errorf("failed to re-unmarshal config with flag overrides: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			scope, err := scopeFromFlags(cmd)
			if err != nil {
				return err
			}

			requests, err := buildRequests(args, cfg.Capture.Mode, cfg.Capture.NightMode,
				cfg.Capture.WaitSeconds, scope, cfg.Capture.OutputRoot)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			manager := browser.NewManager(logger, cfg.Browser)
			defer manager.Quit()

			pipeline := capture.NewPipeline(logger, manager, cfg.Capture)
			dispatcher := dispatch.NewDispatcher(logger, pipeline)

			var janitor *dispatch.Janitor
			if cfg.Cleanup.Enabled {
				janitor = dispatch.NewJanitor(logger, cfg.Cleanup, cfg.Capture.OutputRoot)
				janitor.Start()
				defer janitor.Stop()
			}

			var wg sync.WaitGroup
			var mu sync.Mutex
			failures := 0

			for _, req := range requests {
				wg.Add(1)
				_, err := dispatcher.Submit(req, func(c dispatch.Completion) {
					defer wg.Done()
					if c.Err != nil {
						mu.Lock()
						failures++
						mu.Unlock()
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", c.Request.Link.URL, c.Err)
						return
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", c.Request.Link.URL, c.Request.OutputDir)
					if c.Result.HasTag(capture.TagPremiumBadge) {
						logger.Info("Author carries the premium badge",
							zap.String("tweet_id", c.Request.Link.ID))
					}
					if janitor != nil {
						janitor.Register(c.Request.OutputDir)
					}
				})
				if err != nil {
					wg.Done()
					return err
				}
			}

			done := make(chan struct{})
			go func() { wg.Wait(); close(done) }()
			select {
			case <-done:
			case <-ctx.Done():
				logger.Warn("Interrupted, waiting for the current capture to finish")
				<-done
			}
			dispatcher.Close()

			if failures > 0 {
				return fmt.Errorf("%d of %d captures failed", failures, len(requests))
			}
			return nil
		},
	}

	captureCmd.Flags().Int("mode", 2, "footer stripping mode (0-4)")
	captureCmd.Flags().Int("night", 1, "appearance: 0 light, 1 dim, 2 dark")
	captureCmd.Flags().Int("wait", 15, "seconds to wait for the tweet to render (1-30)")
	captureCmd.Flags().String("output", ".", "output root directory")
	captureCmd.Flags().BoolP("media-only", "m", false, "skip the screenshot, harvest media only")
	captureCmd.Flags().BoolP("screenshot-only", "s", false, "skip media, take the screenshot only")
	captureCmd.MarkFlagsMutuallyExclusive("media-only", "screenshot-only")

	return captureCmd
}

// scopeFromFlags maps the two exclusive boolean flags to a capture scope.
func scopeFromFlags(cmd *cobra.Command) (capture.Scope, error) {
	mediaOnly, err := cmd.Flags().GetBool("media-only")
	if err != nil {
		return capture.ScopeBoth, err
	}
	screenshotOnly, err := cmd.Flags().GetBool("screenshot-only")
	if err != nil {
		return capture.ScopeBoth, err
	}
	switch {
	case mediaOnly:
		return capture.ScopeMediaOnly, nil
	case screenshotOnly:
		return capture.ScopeScreenshotOnly, nil
	default:
		return capture.ScopeBoth, nil
	}
}

// buildRequests parses every link argument up front so a single bad link
// fails the command before any browser work starts.
func buildRequests(links []string, mode, night, wait int, scope capture.Scope, outputRoot string) ([]capture.Request, error) {
	requests := make([]capture.Request, 0, len(links))
	for _, raw := range links {
		link, err := capture.ParseLink(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid link %q: %w", raw, err)
		}
		requests = append(requests, capture.NewRequest(link, mode, night, wait, scope, outputRoot))
	}
	return requests, nil
}

func init() {
	rootCmd.AddCommand(newCaptureCmd())
}
