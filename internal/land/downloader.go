package land

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/dsaingest/internal/logger"
)

const dateLayout = "2006-01-02"

// ValidateDate checks that day is a well-formed YYYY-MM-DD calendar date.
// Returns ErrInvalidDate otherwise.
func ValidateDate(day string) error {
	t, err := time.Parse(dateLayout, day)
	if err != nil || t.Format(dateLayout) != day {
		return fmt.Errorf("%w: %q", ErrInvalidDate, day)
	}
	return nil
}

// ArchiveName returns the canonical file name of a day's dump archive.
func ArchiveName(day string) string {
	return "sor-global-" + day + "-full.parquet.zip"
}

// DownloadConfig holds transport settings for the HTTP downloader.
type DownloadConfig struct {
	BaseURL         string
	ConnectTimeout  time.Duration
	TransferTimeout time.Duration
	RetryCount      int
	RetryWait       time.Duration
	RetryMaxWait    time.Duration
}

// HTTPDownloader fetches a day's dump archive over HTTP. Transient server
// errors are retried with exponential backoff up to the configured cap;
// anything left over surfaces as ErrTransfer.
type HTTPDownloader struct {
	client  *resty.Client
	baseURL string
}

// NewHTTPDownloader creates an HTTPDownloader from transport settings.
func NewHTTPDownloader(cfg *DownloadConfig) *HTTPDownloader {
	client := resty.New()
	client.SetTimeout(cfg.TransferTimeout)
	client.SetRetryCount(cfg.RetryCount)
	client.SetRetryWaitTime(cfg.RetryWait)
	client.SetRetryMaxWaitTime(cfg.RetryMaxWait)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err == nil && r.StatusCode() >= http.StatusInternalServerError
	})
	client.SetTransport(&http.Transport{
		DialContext: (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
	})
	// Response body is streamed to disk manually for progress logging
	client.SetDoNotParseResponse(true)

	return &HTTPDownloader{client: client, baseURL: cfg.BaseURL}
}

// FetchDay downloads the archive for one day into the system temp directory.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - day: calendar date in YYYY-MM-DD form.
// Returns:
//   - string: path of the downloaded archive.
//   - error: ErrInvalidDate before any network call on a malformed day,
//     ErrTransfer on exhausted retries or HTTP failure.
func (d *HTTPDownloader) FetchDay(ctx context.Context, day string) (string, error) {
	if err := ValidateDate(day); err != nil {
		logger.FromContext(ctx).WithField(logger.FieldFileDate, day).
			Error("Invalid date format provided")
		return "", err
	}

	name := ArchiveName(day)
	url := d.baseURL + "/" + name
	filePath := filepath.Join(os.TempDir(), name)

	resp, err := d.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("%w: GET %s: %v", ErrTransfer, url, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("%w: GET %s: status %d", ErrTransfer, url, resp.StatusCode())
	}

	if err := saveBody(ctx, body, resp.RawResponse.ContentLength, filePath, day); err != nil {
		return "", fmt.Errorf("%w: saving %s: %v", ErrTransfer, filePath, err)
	}
	return filePath, nil
}

// saveBody streams the response body to filePath, logging progress every 10%.
func saveBody(ctx context.Context, body io.Reader, totalSize int64, filePath, day string) error {
	log := logger.FromContext(ctx).WithField(logger.FieldFileDate, day)
	log.WithField(logger.FieldSize, totalSize).Infof("Starting download for %s", filepath.Base(filePath))

	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	var written int64
	lastLogged := 0
	buf := make([]byte, 8192)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, wErr := f.Write(buf[:n]); wErr != nil {
				return wErr
			}
			written += int64(n)
			if totalSize > 0 {
				percent := int(written * 100 / totalSize)
				if percent >= lastLogged+10 {
					log.WithFields(logger.Fields{
						"percent":         percent,
						logger.FieldSize: written,
					}).Infof("Download in progress for %s: %d%% complete", filepath.Base(filePath), percent)
					lastLogged = percent
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return readErr
		}
	}

	log.WithField(logger.FieldSize, written).Infof("Download complete for %s", filepath.Base(filePath))
	return nil
}
