// Package reliability keeps the generated data safe: it publishes CSV
// outputs to S3-compatible storage and maintains the history database.
package reliability

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aristath/merval/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Uploader is the part of manager.Uploader the publisher needs
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Publisher uploads generated CSV files to an S3 bucket (AWS, Cloudflare R2
// or MinIO), keyed by their path below the data directory.
type Publisher struct {
	uploader Uploader
	bucket   string
	prefix   string
	root     string
	log      zerolog.Logger
}

// NewPublisher builds an S3 client from the storage settings. A custom
// endpoint switches to path-style addressing as R2 and MinIO expect.
func NewPublisher(ctx context.Context, cfg *config.StorageConfig, dataDir string, log zerolog.Logger) (*Publisher, error) {
	if cfg == nil {
		return nil, errors.New("object storage is not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewPublisherWithUploader(manager.NewUploader(client), cfg.Bucket, cfg.Prefix, dataDir, log), nil
}

// NewPublisherWithUploader creates a publisher around an existing uploader
func NewPublisherWithUploader(uploader Uploader, bucket, prefix, dataDir string, log zerolog.Logger) *Publisher {
	return &Publisher{
		uploader: uploader,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		root:     dataDir,
		log:      log.With().Str("service", "publisher").Logger(),
	}
}

// ObjectKey maps a local file to its key: the prefix followed by the path
// relative to the data directory. Files outside the data directory are
// published by base name.
func (p *Publisher) ObjectKey(localPath string) string {
	rel, err := filepath.Rel(p.root, localPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(localPath)
	}
	return path.Join(p.prefix, filepath.ToSlash(rel))
}

// Publish uploads every file. A failed upload does not stop the others;
// all failures are returned joined.
func (p *Publisher) Publish(ctx context.Context, paths []string) error {
	startTime := time.Now()
	var errs []error
	var published int

	for _, local := range paths {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		key := p.ObjectKey(local)
		if err := p.upload(ctx, local, key); err != nil {
			p.log.Warn().Err(err).Str("key", key).Msg("Upload failed")
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		published++
	}

	p.log.Info().
		Int("published", published).
		Int("failed", len(paths)-published).
		Dur("duration_ms", time.Since(startTime)).
		Str("bucket", p.bucket).
		Msg("Publish completed")

	return errors.Join(errs...)
}

func (p *Publisher) upload(ctx context.Context, local, key string) error {
	checksum, err := calculateChecksum(local)
	if err != nil {
		return err
	}

	f, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	_, err = p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(local)),
		Metadata:    map[string]string{"sha256": checksum},
	})
	if err != nil {
		return fmt.Errorf("failed to upload: %w", err)
	}
	return nil
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return "text/csv; charset=utf-8"
	case ".db":
		return "application/vnd.sqlite3"
	default:
		return "application/octet-stream"
	}
}

// calculateChecksum returns the hex SHA-256 of a file
func calculateChecksum(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
