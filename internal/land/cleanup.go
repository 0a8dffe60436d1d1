package land

import (
	"context"
	"os"

	"github.com/timmy/dsaingest/internal/logger"
)

// DeleteFile removes a single file, logging instead of failing: cleanup runs
// on every exit path and must never mask the run's real outcome. A missing
// file is a warning only.
func DeleteFile(ctx context.Context, path, reason string) {
	log := logger.FromContext(ctx).WithFields(logger.Fields{
		"file":    path,
		"context": reason,
	})

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		log.Warn("File not found, nothing to delete")
		return
	}

	if err := os.Remove(path); err != nil {
		log.WithError(err).Error("Failed to delete file")
		return
	}
	log.Info("Deleted file")
}

// DeleteTree removes a whole directory tree, logging failures.
func DeleteTree(ctx context.Context, path, reason string) {
	log := logger.FromContext(ctx).WithFields(logger.Fields{
		"file":    path,
		"context": reason,
	})

	if err := os.RemoveAll(path); err != nil {
		log.WithError(err).Error("Failed to delete directory tree")
		return
	}
	log.Info("Deleted directory tree")
}
