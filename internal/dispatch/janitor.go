// internal/dispatch/janitor.go
package dispatch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gallodest/tweetframe/internal/config"
)

// Janitor deletes aged capture output. Directories are registered only after
// their completion callback has returned, so consumers always get a chance
// to read or forward the files before the retention clock starts.
type Janitor struct {
	logger    *zap.Logger
	root      string
	retention time.Duration
	interval  time.Duration

	mu      sync.Mutex
	pending map[string]time.Time

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewJanitor creates a janitor over the given output root.
func NewJanitor(logger *zap.Logger, cfg config.CleanupConfig, root string) *Janitor {
	return &Janitor{
		logger:    logger.With(zap.String("component", "janitor")),
		root:      root,
		retention: cfg.Retention,
		interval:  cfg.Interval,
		pending:   make(map[string]time.Time),
		stop:      make(chan struct{}),
	}
}

// Start sweeps leftovers from previous runs, then begins the periodic sweep
// loop.
func (j *Janitor) Start() {
	j.sweepLeftovers()

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-j.stop:
				return
			case <-ticker.C:
				j.sweep(time.Now())
			}
		}
	}()
}

// Register marks dir for deletion once the retention period elapses.
func (j *Janitor) Register(dir string) {
	j.mu.Lock()
	j.pending[dir] = time.Now()
	j.mu.Unlock()
	j.logger.Debug("Directory registered for cleanup",
		zap.String("dir", dir), zap.Duration("retention", j.retention))
}

// Stop halts the sweep loop. Registered directories that have not aged out
// yet are left on disk; the leftover sweep on next start picks them up.
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
	j.wg.Wait()
}

// sweep removes every registered directory whose retention has elapsed.
func (j *Janitor) sweep(now time.Time) {
	j.mu.Lock()
	var due []string
	for dir, at := range j.pending {
		if now.Sub(at) >= j.retention {
			due = append(due, dir)
			delete(j.pending, dir)
		}
	}
	j.mu.Unlock()

	for _, dir := range due {
		j.remove(dir)
	}
}

// sweepLeftovers deletes aged capture directories that survived a previous
// process, judged by modification time.
func (j *Janitor) sweepLeftovers() {
	entries, err := os.ReadDir(j.root)
	if err != nil {
		if !os.IsNotExist(err) {
			j.logger.Warn("Leftover sweep failed", zap.Error(err))
		}
		return
	}

	cutoff := time.Now().Add(-j.retention)
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "screenshots-") {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		j.remove(filepath.Join(j.root, e.Name()))
	}
}

func (j *Janitor) remove(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		j.logger.Warn("Failed to remove capture output", zap.String("dir", dir), zap.Error(err))
		return
	}
	j.logger.Info("Capture output removed", zap.String("dir", dir))
}
