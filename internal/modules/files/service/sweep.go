package service

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// orphanSafetyWindow is the minimum age a blob on disk must reach before
// the sweep will consider removing it, so a blob mid-upload (its metadata
// record not yet committed) is never swept out from under it.
const orphanSafetyWindow = 24 * time.Hour

// SweepOrphans walks the blob store root and removes any blob older than
// orphanSafetyWindow that no metadata record — live or trashed —
// references. It is best-effort: a walk or remove error is logged and
// skipped rather than aborting the whole pass.
func (s *Service) SweepOrphans(ctx context.Context) error {
	known, err := s.files.AllStoragePaths(ctx)
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-orphanSafetyWindow)
	root := s.blobs.Root()

	removed := 0
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			s.log.Warn("orphan sweep: walk error", zap.String("path", path), zap.Error(walkErr))
			return nil
		}
		if d.IsDir() || known[path] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.log.Warn("orphan sweep: stat error", zap.String("path", path), zap.Error(err))
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}

		if err := s.blobs.Remove(path); err != nil {
			s.log.Warn("orphan sweep: remove failed", zap.String("path", path), zap.Error(err))
			return nil
		}
		removed++
		return nil
	})
	if err != nil {
		return err
	}

	if removed > 0 {
		s.log.Info("orphan sweep complete", zap.Int("removed", removed))
	}
	return nil
}

// Run adapts SweepOrphans to the cron scheduler's func() signature,
// logging rather than propagating a failure since there is no caller to
// hand it to.
func (s *Service) Run() {
	if err := s.SweepOrphans(context.Background()); err != nil {
		s.log.Error("orphan sweep failed", zap.Error(err))
	}
}
