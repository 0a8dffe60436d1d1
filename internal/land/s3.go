package land

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/timmy/dsaingest/internal/logger"
)

// S3Config holds settings for the S3 mirror source.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3Downloader fetches a day's dump archive from an S3-compatible mirror
// bucket holding the same sor-global-<date>-full.parquet.zip objects.
type S3Downloader struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Downloader creates a new S3-backed downloader.
// Parameters:
//   - cfg: mirror bucket settings; Endpoint may be empty for plain AWS S3.
// Returns:
//   - *S3Downloader: downloader bound to the bucket.
//   - error: non-nil if client construction fails.
func NewS3Downloader(cfg *S3Config) (*S3Downloader, error) {
	region := cfg.Region
	if region == "" {
		region = "eu-central-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			scheme := "http"
			if cfg.UseSSL {
				scheme = "https"
			}
			o.BaseEndpoint = aws.String(fmt.Sprintf("%s://%s", scheme, normalizeEndpoint(cfg.Endpoint)))
			o.UsePathStyle = true
		}
	})

	return &S3Downloader{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// normalizeEndpoint removes protocol prefix and path from endpoint
func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	if idx := strings.Index(endpoint, "/"); idx != -1 {
		endpoint = endpoint[:idx]
	}
	return strings.TrimSuffix(endpoint, "/")
}

// FetchDay downloads the archive object for one day into the system temp
// directory. Same contract as the HTTP downloader: ErrInvalidDate before any
// network call on a malformed day, ErrTransfer on a failed object fetch.
func (d *S3Downloader) FetchDay(ctx context.Context, day string) (string, error) {
	if err := ValidateDate(day); err != nil {
		logger.FromContext(ctx).WithField(logger.FieldFileDate, day).
			Error("Invalid date format provided")
		return "", err
	}

	name := ArchiveName(day)
	key := name
	if d.prefix != "" {
		key = path.Join(d.prefix, name)
	}

	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("%w: s3://%s/%s: %v", ErrTransfer, d.bucket, key, err)
	}
	defer out.Body.Close()

	filePath := filepath.Join(os.TempDir(), name)
	f, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("%w: creating %s: %v", ErrTransfer, filePath, err)
	}
	defer f.Close()

	written, err := io.Copy(f, out.Body)
	if err != nil {
		return "", fmt.Errorf("%w: saving %s: %v", ErrTransfer, filePath, err)
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldFileDate: day,
		logger.FieldSize:     written,
	}).Infof("Download complete for %s from s3://%s", name, d.bucket)
	return filePath, nil
}
