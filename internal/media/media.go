// Package media stores product images in Google Cloud Storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

const (
	publicBaseURL = "https://storage.googleapis.com"
	prefix        = "products/"

	// MaxImageSize bounds a single uploaded image.
	MaxImageSize = 5 << 20
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}

type GCSUploader struct {
	client *storage.Client
	bucket string
	logger *zap.Logger
}

func NewGCS(client *storage.Client, bucket string, logger *zap.Logger) *GCSUploader {
	return &GCSUploader{
		client: client,
		bucket: strings.TrimSpace(bucket),
		logger: logging.OrNop(logger).Named("media"),
	}
}

func (u *GCSUploader) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	ct, err := ContentType(filename, contentType)
	if err != nil {
		return "", err
	}
	name := ObjectName(ct)

	w := u.client.Bucket(u.bucket).Object(name).NewWriter(ctx)
	w.ContentType = ct
	w.CacheControl = "public, max-age=31536000"
	w.Metadata = map[string]string{
		"originalName": path.Base(filename),
		"uploadedAt":   time.Now().UTC().Format(time.RFC3339),
	}

	n, err := io.Copy(w, io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", name, err)
	}
	if n > MaxImageSize {
		_ = w.Close()
		_ = u.client.Bucket(u.bucket).Object(name).Delete(ctx)
		return "", fmt.Errorf("%w: image larger than %d bytes", domain.ErrInvalidInput, MaxImageSize)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object %s: %w", name, err)
	}

	url := PublicURL(u.bucket, name)
	u.logger.Info("image uploaded", zap.String("object", name), zap.Int64("bytes", n))
	return url, nil
}

// Delete removes the object behind a URL returned by Upload. Unknown URLs and
// missing objects are not errors.
func (u *GCSUploader) Delete(ctx context.Context, url string) error {
	base := PublicURL(u.bucket, "")
	if !strings.HasPrefix(url, base) {
		return nil
	}
	err := u.client.Bucket(u.bucket).Object(strings.TrimPrefix(url, base)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	return nil
}

// ContentType resolves the image type from the declared header or, failing
// that, the file extension. Non-image types are rejected.
func ContentType(filename, declared string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if _, ok := allowedTypes[ct]; ok {
		return ct, nil
	}
	if byExt := mime.TypeByExtension(strings.ToLower(path.Ext(filename))); byExt != "" {
		byExt, _, _ = strings.Cut(byExt, ";")
		if _, ok := allowedTypes[byExt]; ok {
			return byExt, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported image type %q", domain.ErrInvalidInput, declared)
}

func ObjectName(contentType string) string {
	return prefix + uuid.NewString() + allowedTypes[contentType]
}

func PublicURL(bucket, object string) string {
	return fmt.Sprintf("%s/%s/%s", publicBaseURL, bucket, object)
}
