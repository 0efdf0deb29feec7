package publisher

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/zlog"
)

// MinioOptions configures the S3-compatible fallback publisher.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration
	Logger    *zlog.Zerolog
}

// Minio uploads the image to an S3-compatible bucket and hands out a
// presigned GET URL. The presign expiry keeps the URL as short-lived as the
// primary publisher's uploads.
type Minio struct {
	client    *minio.Client
	bucket    string
	urlExpiry time.Duration
	logger    *zlog.Zerolog
}

func NewMinio(opts MinioOptions) (*Minio, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, &PublishError{Host: "minio", Message: "endpoint not configured"}
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, &PublishError{Host: "minio", Message: "client init: " + err.Error()}
	}
	expiry := opts.URLExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = &zlog.Logger
	}
	return &Minio{
		client:    client,
		bucket:    opts.Bucket,
		urlExpiry: expiry,
		logger:    logger,
	}, nil
}

func (p *Minio) Name() string { return "minio" }

func (p *Minio) Publish(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", &PublishError{Host: p.Name(), Message: "empty image payload"}
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	objectName := fmt.Sprintf("uploads/%s%s", uuid.New().String(), extensionFor(mimeType))

	_, err := p.client.PutObject(ctx, p.bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: mimeType})
	if err != nil {
		return "", &PublishError{Host: p.Name(), Message: "put object: " + err.Error()}
	}

	presigned, err := p.client.PresignedGetObject(ctx, p.bucket, objectName, p.urlExpiry, nil)
	if err != nil {
		return "", &PublishError{Host: p.Name(), Message: "presign: " + err.Error()}
	}

	p.logger.Debug().
		Str("publisher", p.Name()).
		Str("object", objectName).
		Dur("expiry", p.urlExpiry).
		Msg("Image published")
	return presigned.String(), nil
}

func extensionFor(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}

var _ Publisher = (*Minio)(nil)
