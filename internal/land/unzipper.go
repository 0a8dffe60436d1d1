package land

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/timmy/dsaingest/internal/logger"
)

// ZipExtractor expands zip archives into a target directory, rejecting
// entries whose resolved path would escape it.
type ZipExtractor struct{}

// Extract expands the archive at zipPath into outputDir.
// Parameters:
//   - ctx: context carrying the run's log fields.
//   - zipPath: archive to expand.
//   - outputDir: destination directory, created if missing.
// Returns:
//   - string: outputDir.
//   - error: ErrArchiveCorrupt if the archive cannot be read,
//     ErrUnsafeArchiveEntry if any entry path escapes outputDir.
func (ZipExtractor) Extract(ctx context.Context, zipPath, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}

	log := logger.FromContext(ctx)
	log.WithFields(logger.Fields{
		"archive":    zipPath,
		"target_dir": outputDir,
	}).Infof("Starting extraction of archive %s", filepath.Base(zipPath))

	zr, err := zip.OpenReader(zipPath)
	if errors.Is(err, zip.ErrInsecurePath) {
		zr.Close()
		return "", fmt.Errorf("%w: %s", ErrUnsafeArchiveEntry, zipPath)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrArchiveCorrupt, zipPath, err)
	}
	defer zr.Close()

	// Total *uncompressed* size, for progress logging
	var totalSize uint64
	for _, f := range zr.File {
		totalSize += f.UncompressedSize64
	}

	var extractedSize uint64
	lastLogged := 0
	for _, f := range zr.File {
		destPath := filepath.Join(outputDir, f.Name)
		if !isWithinDirectory(outputDir, destPath) {
			return "", fmt.Errorf("%w: %s", ErrUnsafeArchiveEntry, f.Name)
		}

		if err := extractEntry(f, destPath); err != nil {
			return "", fmt.Errorf("%w: extracting %s: %v", ErrArchiveCorrupt, f.Name, err)
		}

		extractedSize += f.UncompressedSize64
		if totalSize > 0 {
			percent := int(extractedSize * 100 / totalSize)
			if percent >= lastLogged+10 {
				log.WithField("extracted_bytes", extractedSize).
					Infof("Extraction progress: %d%% complete", percent)
				lastLogged = percent
			}
		}
	}

	log.Infof("Extraction complete for %s", filepath.Base(zipPath))
	return outputDir, nil
}

// extractEntry writes one archive member to destPath.
func extractEntry(f *zip.File, destPath string) error {
	if f.FileInfo().IsDir() {
		return os.MkdirAll(destPath, 0755)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// isWithinDirectory guards against zip-slip: the resolved target must stay
// inside the intended output directory.
func isWithinDirectory(directory, target string) bool {
	rel, err := filepath.Rel(filepath.Clean(directory), filepath.Clean(target))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}
