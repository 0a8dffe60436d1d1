package land

import "errors"

var (
	// ErrInvalidDate is returned before any network call when the requested
	// day does not match YYYY-MM-DD. It is fatal and never retried.
	ErrInvalidDate = errors.New("invalid date, expected format YYYY-MM-DD")

	// ErrTransfer wraps download failures after transport-level retries are
	// exhausted.
	ErrTransfer = errors.New("archive transfer failed")

	// ErrUnsafeArchiveEntry marks a zip entry whose resolved path escapes the
	// extraction directory.
	ErrUnsafeArchiveEntry = errors.New("unsafe archive entry")

	// ErrArchiveCorrupt marks an archive that cannot be opened or read.
	ErrArchiveCorrupt = errors.New("archive corrupt")
)
