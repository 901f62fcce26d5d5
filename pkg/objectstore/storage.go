package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rendezvous-csd/rendezvous-api/pkg/circuitbreaker"
	"github.com/rendezvous-csd/rendezvous-api/pkg/logger"
	"github.com/rendezvous-csd/rendezvous-api/pkg/metrics"
	"github.com/rendezvous-csd/rendezvous-api/pkg/retry"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// XLSXContentType is the MIME type uploaded workbooks are archived with
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config holds S3-compatible storage settings
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string
	Region          string
	Prefix          string
}

// ArchiveClient stores uploaded spreadsheets in an S3-compatible bucket
type ArchiveClient struct {
	s3      putObjectAPI
	bucket  string
	prefix  string
	retry   retry.Config
	breaker *gobreaker.CircuitBreaker
	now     func() time.Time
}

// NewArchiveClient creates an archive client using the S3 SDK.
// Path-style addressing keeps it compatible with MinIO and similar stores.
func NewArchiveClient(cfg Config) (*ArchiveClient, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: true,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	logger.Info("Upload archive client initialized",
		zap.String("bucket", cfg.Bucket),
		zap.String("endpoint", cfg.Endpoint),
		zap.String("region", cfg.Region),
	)

	return newArchiveClient(s3.New(opts), cfg.Bucket, cfg.Prefix), nil
}

func newArchiveClient(api putObjectAPI, bucket, prefix string) *ArchiveClient {
	return &ArchiveClient{
		s3:      api,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		retry:   retry.ArchiveConfig(),
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig("upload-archive")),
		now:     time.Now,
	}
}

// ObjectKey builds a collision-free key: <prefix>/<target>/<date>/<uuid>-<filename>
func (c *ArchiveClient) ObjectKey(target, fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload.xlsx"
	}
	key := path.Join(target, c.now().UTC().Format("2006-01-02"), uuid.NewString()+"-"+base)
	if c.prefix != "" {
		key = path.Join(c.prefix, key)
	}
	return key
}

// Archive uploads the raw workbook and returns the object key.
// Failed puts are retried; a run of failures opens the breaker and
// later calls fail fast until it half-opens.
func (c *ArchiveClient) Archive(ctx context.Context, target, fileName string, data []byte) (string, error) {
	start := time.Now()
	operation := "archiveUpload"
	key := c.ObjectKey(target, fileName)

	_, err := circuitbreaker.Execute(c.breaker, func() (struct{}, error) {
		return struct{}{}, retry.Do(ctx, c.retry, operation, func() error {
			_, putErr := c.s3.PutObject(ctx, &s3.PutObjectInput{
				Bucket:      aws.String(c.bucket),
				Key:         aws.String(key),
				Body:        bytes.NewReader(data),
				ContentType: aws.String(XLSXContentType),
			})
			return putErr
		})
	})

	duration := metrics.MeasureDuration(start)

	if err != nil {
		metrics.StorageRequestDuration.WithLabelValues(operation, "error").Observe(duration)
		metrics.StorageRequestTotal.WithLabelValues(operation, "error").Inc()
		logger.LogAPICall(ctx, "object_storage", operation, "error", duration,
			zap.Error(err),
			zap.String("key", key),
			zap.Bool("breaker_open", circuitbreaker.IsOpen(err)),
		)
		return "", fmt.Errorf("failed to archive upload: %w", err)
	}

	metrics.StorageRequestDuration.WithLabelValues(operation, "success").Observe(duration)
	metrics.StorageRequestTotal.WithLabelValues(operation, "success").Inc()
	logger.LogAPICall(ctx, "object_storage", operation, "success", duration,
		zap.String("key", key),
		zap.Int("size_bytes", len(data)),
	)

	return key, nil
}
