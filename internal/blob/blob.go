// Package blob stores flyer images in S3-compatible object storage so each
// spreadsheet row can link back to its source image.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config holds S3-compatible storage configuration.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// PublicBaseURL is the URL prefix objects are reachable under. When
	// empty, a path-style URL is derived from Endpoint or the AWS default.
	PublicBaseURL string
}

// Uploader uploads flyer images and returns their public URLs. An
// unconfigured uploader degrades to a no-op returning an empty reference.
type Uploader struct {
	cfg    Config
	client s3Client
	logger *slog.Logger
}

func NewUploader(cfg Config, logger *slog.Logger) *Uploader {
	u := &Uploader{cfg: cfg, logger: logger}
	if cfg.Bucket != "" && cfg.AccessKey != "" && cfg.SecretKey != "" {
		u.client = newS3Client(cfg)
	}
	return u
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Configured returns true if credentials and a bucket are set.
func (u *Uploader) Configured() bool {
	return u.client != nil
}

// Upload stores one image under a collision-free key and returns its URL.
func (u *Uploader) Upload(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	if u.client == nil {
		u.logger.Debug("blob storage not configured, skipping flyer upload",
			slog.String("filename", filename))
		return "", nil
	}

	key := fmt.Sprintf("flyers/%s-%s", uuid.NewString(), sanitizeFilename(filename))
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("upload flyer %s: %w", filename, err)
	}

	return u.objectURL(key), nil
}

func (u *Uploader) objectURL(key string) string {
	if u.cfg.PublicBaseURL != "" {
		return strings.TrimSuffix(u.cfg.PublicBaseURL, "/") + "/" + key
	}
	if u.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(u.cfg.Endpoint, "/"), u.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, key)
}

// sanitizeFilename keeps object keys to a safe character set.
func sanitizeFilename(name string) string {
	if name == "" {
		return "flyer"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
