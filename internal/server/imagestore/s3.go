package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/kabyedict/internal/common"
	"github.com/dmitrijs2005/kabyedict/internal/logging"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newUUID = uuid.NewString
	now     = time.Now
)

// ObjectAPI is the subset of the S3 client used by S3Store.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config configures an S3 or MinIO backed store.
type S3Config struct {
	Region    string
	AccessKey string
	SecretKey string
	// Endpoint overrides the AWS endpoint, e.g. a MinIO address.
	Endpoint string
	Bucket   string
	// PublicURL prefixes object keys in the returned URLs. Defaults to
	// Endpoint/Bucket.
	PublicURL string
	// Prefix is the folder objects are stored under.
	Prefix string

	// Timeout bounds each attempt; Retries is the number of extra attempts.
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

// S3Store implements Store with bounded retries around every call.
type S3Store struct {
	api    ObjectAPI
	cfg    S3Config
	logger logging.Logger
}

// NewS3Store builds the AWS client from static credentials.
func NewS3Store(ctx context.Context, cfg S3Config, logger logging.Logger) (*S3Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3StoreWithAPI(client, cfg, logger), nil
}

// NewS3StoreWithAPI wraps an existing client.
func NewS3StoreWithAPI(api ObjectAPI, cfg S3Config, logger logging.Logger) *S3Store {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	cfg.Prefix = strings.Trim(cfg.Prefix, "/")

	if logger == nil {
		logger = logging.Nop()
	}
	return &S3Store{api: api, cfg: cfg, logger: logger.With("module", "imagestore")}
}

func (s *S3Store) newKey(ext string) string {
	d := now()
	key := fmt.Sprintf("%d/%02d/%s%s", d.Year(), d.Month(), newUUID(), ext)
	if s.cfg.Prefix != "" {
		key = s.cfg.Prefix + "/" + key
	}
	return key
}

// Upload stores data under a fresh key and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	key := s.newKey(extensionFor(contentType))

	err := s.withRetry(ctx, "upload", func(ctx context.Context) error {
		_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.cfg.Bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(data),
			ContentType:   aws.String(contentType),
			ContentLength: aws.Int64(int64(len(data))),
		})
		return err
	})
	if err != nil {
		return "", err
	}
	return s.cfg.PublicURL + "/" + key, nil
}

// Delete removes the object behind url. URLs outside PublicURL are refused.
func (s *S3Store) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.cfg.PublicURL+"/")
	if !ok || key == "" {
		return fmt.Errorf("%w: %s is not stored in bucket %s", common.ErrorStorage, url, s.cfg.Bucket)
	}

	return s.withRetry(ctx, "delete", func(ctx context.Context) error {
		_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.cfg.Bucket),
			Key:    aws.String(key),
		})
		return err
	})
}

func (s *S3Store) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(uint64(s.cfg.Retries), retry.NewExponential(s.cfg.Backoff))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		actx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()

		if err := fn(actx); err != nil {
			s.logger.Warn(ctx, "image store call failed", "op", op, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s failed after %d attempt(s): %v", common.ErrorStorage, op, attempt, err)
	}
	return nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
