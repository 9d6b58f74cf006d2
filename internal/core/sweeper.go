package core

// sweeper.go removes files the import pipeline no longer needs.
//
// Job state lives in memory, so after a restart the staged uploads and error
// reports of earlier jobs are unreachable. The sweeper runs periodically and
// deletes:
//  1. Staged files whose job is unknown or finished
//  2. Reports no tracked job references
//
// Files younger than MinAge are always kept, which covers uploads still
// being staged and reports written moments before their job completes.

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SweepConfig holds configuration for the file sweeper.
// Zero values fall back to the defaults below.
type SweepConfig struct {
	Interval time.Duration // How often to run (default: 1h)
	MinAge   time.Duration // Files younger than this are kept (default: 1h)
}

const (
	DefaultSweepInterval = time.Hour
	DefaultSweepMinAge   = time.Hour
)

func (c SweepConfig) withDefaults() SweepConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultSweepInterval
	}
	if c.MinAge <= 0 {
		c.MinAge = DefaultSweepMinAge
	}
	return c
}

// SweepResult counts the files removed by one sweep.
type SweepResult struct {
	Staged  int
	Reports int
}

// StartSweeper runs Sweep immediately, then every Interval, until ctx is
// cancelled. It blocks; run it in its own goroutine.
func (s *Service) StartSweeper(ctx context.Context, cfg SweepConfig) {
	cfg = cfg.withDefaults()
	s.logger.Info("file sweeper started",
		"interval", cfg.Interval,
		"min_age", cfg.MinAge,
	)

	s.runSweep(cfg)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("file sweeper stopped")
			return
		case <-ticker.C:
			s.runSweep(cfg)
		}
	}
}

func (s *Service) runSweep(cfg SweepConfig) {
	start := time.Now()
	res := s.Sweep(start.Add(-cfg.MinAge))
	if res.Staged > 0 || res.Reports > 0 {
		s.logger.Info("swept orphaned files",
			"staged_removed", res.Staged,
			"reports_removed", res.Reports,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// Sweep deletes orphaned staged files and reports last modified before
// cutoff. Errors on individual files are logged and skipped.
func (s *Service) Sweep(cutoff time.Time) SweepResult {
	var res SweepResult

	res.Staged = s.sweepDir(s.cfg.StagingDir, cutoff, func(name string) bool {
		return !s.registry.Running(strings.TrimSuffix(name, filepath.Ext(name)))
	})

	referenced := s.registry.ReportFiles()
	res.Reports = s.sweepDir(s.cfg.ReportDir, cutoff, func(name string) bool {
		return !referenced[name]
	})
	return res
}

// sweepDir removes regular files in dir older than cutoff for which orphan
// returns true.
func (s *Service) sweepDir(dir string, cutoff time.Time, orphan func(name string) bool) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Error("sweep: read directory", "dir", dir, "error", err)
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if !orphan(entry.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			s.logger.Warn("sweep: remove file", "file", entry.Name(), "error", err)
			continue
		}
		removed++
	}
	return removed
}
