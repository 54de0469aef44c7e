// Package storage uploads user images (avatars, profile backgrounds,
// video thumbnails) to a MinIO bucket and hands back public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/xid"

	"github.com/sakif/community-hub/internal/apperror"
	"github.com/sakif/community-hub/internal/config"
)

// Prefixes group objects by what they decorate.
const (
	KindAvatar     = "avatars"
	KindBackground = "backgrounds"
	KindThumbnail  = "thumbnails"
)

const maxUploadSize = 8 << 20 // 8 MiB

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ObjectStore is what the services depend on. Replacement flows upload
// the new image first, then delete the object the old URL named.
type ObjectStore interface {
	UploadImage(ctx context.Context, kind, fileName string, file io.Reader, size int64) (string, error)
	DeleteImage(ctx context.Context, objectName string) error
	ObjectNameFromURL(rawURL string) string
}

// MinIOClient implements ObjectStore against a MinIO (or any S3
// compatible) endpoint.
type MinIOClient struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinIOClient connects and makes sure the bucket exists. Callers
// treat a nil store as "uploads disabled", so a missing endpoint is an
// error here rather than a silent no-op.
func NewMinIOClient(ctx context.Context, cfg config.MinIO) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to minio: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("creating bucket %q: %w", cfg.Bucket, err)
		}
	}

	return &MinIOClient{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}, nil
}

// UploadImage stores the file under kind/<xid><ext> and returns the
// public URL. Only image extensions are accepted.
func (m *MinIOClient) UploadImage(ctx context.Context, kind, fileName string, file io.Reader, size int64) (string, error) {
	if size <= 0 || size > maxUploadSize {
		return "", apperror.ValidationFailed("file", "image must be between 1 byte and 8 MiB")
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	contentType, ok := allowedExtensions[ext]
	if !ok {
		return "", apperror.ValidationFailed("file", "unsupported image type, use jpg, png, gif or webp")
	}
	if fromMime := mime.TypeByExtension(ext); fromMime != "" {
		contentType = fromMime
	}

	objectName := fmt.Sprintf("%s/%s%s", kind, xid.New().String(), ext)
	_, err := m.client.PutObject(ctx, m.bucket, objectName, file, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"original-filename": fileName,
			"uploaded-at":       time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", objectName, err)
	}

	return fmt.Sprintf("%s/%s/%s", m.publicURL, m.bucket, objectName), nil
}

// DeleteImage removes a previously uploaded object. Unknown objects
// are not an error; replacement flows call this with whatever URL the
// profile held before.
func (m *MinIOClient) DeleteImage(ctx context.Context, objectName string) error {
	err := m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("removing %s: %w", objectName, err)
	}
	return nil
}

// ObjectNameFromURL recovers the object name from a public URL issued
// by UploadImage, or "" if the URL points elsewhere.
func (m *MinIOClient) ObjectNameFromURL(rawURL string) string {
	prefix := m.publicURL + "/" + m.bucket + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return ""
	}
	return strings.TrimPrefix(rawURL, prefix)
}
