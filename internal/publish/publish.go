package publish

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"portfolio-site/internal/images"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// cacheControl is sent with every object; derived names change whenever
// their content would, so they can be cached for a long time.
const cacheControl = "public, max-age=31536000"

// Publisher copies a local file to remote storage under key.
type Publisher interface {
	Publish(ctx context.Context, localPath, key string) error
}

// Nop is a Publisher that does nothing.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, string, string) error { return nil }

// S3Config holds the connection settings for an S3 bucket.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// Enabled reports whether a bucket is configured.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// putObjectAPI is the subset of the S3 client the publisher uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads files with PutObject.
type S3Publisher struct {
	client putObjectAPI
	bucket string
	prefix string
}

// NewS3Publisher builds an S3 client from cfg. Static credentials are used
// when both keys are set; otherwise the default AWS credential chain applies.
func NewS3Publisher(ctx context.Context, cfg S3Config) (*S3Publisher, error) {
	if !cfg.Enabled() {
		return nil, errors.New("S3 bucket not configured")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Publisher(client, cfg), nil
}

func newS3Publisher(client putObjectAPI, cfg S3Config) *S3Publisher {
	return &S3Publisher{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}
}

// Publish implements Publisher.
func (p *S3Publisher) Publish(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", localPath, err)
	}

	fullKey := p.objectKey(key)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(fullKey),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(ContentType(localPath)),
		CacheControl:  aws.String(cacheControl),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to s3://%s/%s: %w", localPath, p.bucket, fullKey, err)
	}

	logging.Debug("Uploaded %s to s3://%s/%s (%d bytes)", filepath.Base(localPath), p.bucket, fullKey, info.Size())
	return nil
}

func (p *S3Publisher) objectKey(key string) string {
	key = strings.TrimPrefix(filepath.ToSlash(key), "/")
	if p.prefix == "" {
		return key
	}
	return path.Join(p.prefix, key)
}

// ContentType returns the MIME type for a file name, defaulting to
// application/octet-stream.
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".webp" {
		return "image/webp"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// PublishResult uploads every derived file of result, keyed by its path
// relative to root. It returns the number of files published and the first
// error; one failed upload does not stop the rest.
func PublishResult(ctx context.Context, p Publisher, root string, result *images.Result) (int, error) {
	if p == nil || result == nil {
		return 0, nil
	}

	var firstErr error
	published := 0
	for _, local := range result.Paths() {
		rel, err := filepath.Rel(root, local)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			logging.Warn("Not publishing %s: outside %s", local, root)
			continue
		}

		if err := p.Publish(ctx, local, filepath.ToSlash(rel)); err != nil {
			metrics.ImagePublishTotal.WithLabelValues("error").Inc()
			logging.Warn("Publish failed for %s: %v", local, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		metrics.ImagePublishTotal.WithLabelValues("success").Inc()
		published++
	}
	return published, firstErr
}
