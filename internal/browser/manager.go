// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/gallodest/tweetframe/internal/config"
)

// EnvChromeBinary names the environment variable that overrides every other
// browser binary resolution strategy.
const EnvChromeBinary = "CHROME_BINARY"

// UnavailableError means every launch strategy failed. The capture layer
// maps it into its own error taxonomy.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no browser launch strategy succeeded: %v", e.Err)
	}
	return "no browser launch strategy succeeded"
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// session is one live headless browser process with a single reusable tab.
type session struct {
	tabCtx context.Context
	cancel context.CancelFunc
}

// launchFunc starts a browser process and returns its tab context. It is a
// field so tests can substitute a fake without a Chrome install.
type launchFunc func(cfg config.BrowserConfig, execPath string) (*session, error)

// probeFunc checks whether a previously launched session still responds.
type probeFunc func(tabCtx context.Context) bool

// Manager owns the single shared browser session of the process. The
// session is created lazily, health-checked on every acquisition, and
// recreated transparently when the underlying process died. Callers must
// serialize their use of the returned tab context themselves; the Manager
// only guarantees that acquisition and teardown are safe concurrently.
type Manager struct {
	logger *zap.Logger
	cfg    config.BrowserConfig
	launch launchFunc
	probe  probeFunc

	mu   sync.Mutex
	cur  *session
	path string // binary path the current session was launched with
}

// NewManager creates a Manager. No browser is launched until the first
// Session call.
func NewManager(logger *zap.Logger, cfg config.BrowserConfig) *Manager {
	m := &Manager{
		logger: logger.Named("browser"),
		cfg:    cfg,
	}
	m.launch = m.execLaunch
	m.probe = chromedpProbe
	return m
}

// Session returns the shared tab context, reusing the live session when the
// liveness probe succeeds and relaunching otherwise. It fails with an
// UnavailableError only when every resolution strategy fails.
func (m *Manager) Session(ctx context.Context) (context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if m.cur != nil {
		if m.probe(m.cur.tabCtx) {
			return m.cur.tabCtx, nil
		}
		m.logger.Warn("Browser session died, relaunching", zap.String("path", m.path))
		m.cur.cancel()
		m.cur = nil
	}

	var lastErr error
	for _, c := range m.candidates() {
		s, err := m.launch(m.cfg, c.path)
		if err != nil {
			m.logger.Warn("Browser launch strategy failed",
				zap.String("strategy", c.name), zap.String("path", c.path), zap.Error(err))
			lastErr = err
			continue
		}
		m.logger.Info("Browser session is running",
			zap.String("strategy", c.name), zap.String("path", c.path))
		m.cur = s
		m.path = c.path
		return s.tabCtx, nil
	}

	m.logger.Error("Browser cannot be initialized", zap.Error(lastErr))
	return nil, &UnavailableError{Err: lastErr}
}

// Quit terminates the browser process. Idempotent and safe to call when no
// session exists.
func (m *Manager) Quit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur != nil {
		m.logger.Info("Shutting down browser session")
		m.cur.cancel()
		m.cur = nil
	}
}

// candidate is one binary resolution strategy, tried in order.
type candidate struct {
	name string
	path string // empty means chromedp's own executable lookup
}

func (m *Manager) candidates() []candidate {
	var out []candidate
	if p := os.Getenv(EnvChromeBinary); p != "" {
		out = append(out, candidate{name: "env", path: p})
	}
	if m.cfg.ChromePath != "" {
		out = append(out, candidate{name: "config", path: m.cfg.ChromePath})
	}
	if p := defaultChromePath(); fileExists(p) {
		out = append(out, candidate{name: "default-path", path: p})
	}
	out = append(out, candidate{name: "lookup", path: ""})
	return out
}

func defaultChromePath() string {
	if runtime.GOOS == "windows" {
		return `C:/Program Files/Google/Chrome/Application/chrome.exe`
	}
	return "/usr/bin/google-chrome"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// chromedpProbe runs a trivial evaluation against the tab. A dead browser
// process fails it immediately; a healthy one answers well inside the
// deadline.
func chromedpProbe(tabCtx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(tabCtx, 5*time.Second)
	defer cancel()
	var ready string
	err := chromedp.Run(probeCtx, chromedp.Evaluate(`document.readyState`, &ready))
	return err == nil
}

// execLaunch starts a browser process with the fixed capture configuration
// and verifies it responds before handing it out.
func (m *Manager) execLaunch(cfg config.BrowserConfig, execPath string) (*session, error) {
	side := int(math.Ceil(1024 * cfg.Scale))

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-logging", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("incognito", true),
		chromedp.WindowSize(side, side),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}

	// The session spans the process lifetime, not the lifetime of the
	// request that happened to trigger the launch.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		tabCancel()
		allocCancel()
	}

	probeCtx, probeCancel := context.WithTimeout(tabCtx, cfg.LaunchTimeout)
	defer probeCancel()
	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		cancel()
		return nil, fmt.Errorf("browser failed to start or respond: %w", err)
	}

	return &session{tabCtx: tabCtx, cancel: cancel}, nil
}
