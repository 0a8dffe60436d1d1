package land

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/timmy/dsaingest/internal/logger"
)

// WalkFinder discovers Parquet shards under an extraction directory.
type WalkFinder struct{}

// FindShards recursively finds all .parquet files in dir. Order is not
// significant.
// Parameters:
//   - ctx: context carrying the run's log fields.
//   - dir: directory to walk.
// Returns:
//   - []string: full paths of discovered shards.
//   - error: non-nil if the walk fails.
func (WalkFinder) FindShards(ctx context.Context, dir string) ([]string, error) {
	var shards []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".parquet") {
			shards = append(shards, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldCount: len(shards),
		"directory":       dir,
	}).Infof("Found %d parquet file(s) in %s", len(shards), dir)
	return shards, nil
}
