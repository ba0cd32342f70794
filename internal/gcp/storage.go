package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/Lllllllleong/intakeledger/internal/models"
)

// MetadataToEmail is the object metadata key naming the intake address.
const MetadataToEmail = "to-email"

var (
	// ErrObjectNotFound is returned when the key does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrObjectTooLarge is returned when an object exceeds the read cap.
	ErrObjectTooLarge = errors.New("object exceeds size limit")
)

// Object is one stored document.
type Object struct {
	Key         string
	Data        []byte
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo is an object's attributes without its bytes.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectStore stores raw submissions in a single bucket.
type ObjectStore struct {
	client     *storage.Client
	bucket     string
	maxRetries int
	backoff    time.Duration
}

// NewObjectStore creates a storage client bound to bucket.
func NewObjectStore(ctx context.Context, bucket string) (*ObjectStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket must be provided to create an object store")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &ObjectStore{client: client, bucket: bucket, maxRetries: 4, backoff: time.Second}, nil
}

// Close releases the underlying client.
func (s *ObjectStore) Close() error {
	return s.client.Close()
}

// Put writes data under key only if the key does not exist yet. created is
// false when the object was already stored; that is not an error.
func (s *ObjectStore) Put(ctx context.Context, key string, data []byte, metadata map[string]string) (bool, error) {
	logCtx := slog.With("gcsObject", key, "bucket", s.bucket)

	err := retry(ctx, logCtx, s.maxRetries, s.backoff, func() error {
		writeCtx, cancel := context.WithTimeout(ctx, 50*time.Second)
		defer cancel()

		w := s.client.Bucket(s.bucket).Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(writeCtx)
		w.ContentType = ContentType(key)
		w.Metadata = metadata

		if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
			_ = w.Close()
			return fmt.Errorf("io.Copy to GCS failed: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("failed to close GCS writer (finalize upload): %w", err)
		}
		return nil
	})
	if isPreconditionFailed(err) {
		logCtx.Info("Object already exists; skipping write.")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Stat returns the object's attributes.
func (s *ObjectStore) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	attrs, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ObjectInfo{}, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to read attributes of %s: %w", key, err)
	}
	return ObjectInfo{Key: key, Size: attrs.Size, ContentType: attrs.ContentType, Metadata: attrs.Metadata}, nil
}

// Get reads the object, refusing anything larger than maxBytes before
// downloading. maxBytes <= 0 disables the cap.
func (s *ObjectStore) Get(ctx context.Context, key string, maxBytes int64) (Object, error) {
	info, err := s.Stat(ctx, key)
	if err != nil {
		return Object{}, err
	}
	if maxBytes > 0 && info.Size > maxBytes {
		return Object{}, fmt.Errorf("%w: %s is %d bytes", ErrObjectTooLarge, key, info.Size)
	}

	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return Object{}, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	if err != nil {
		return Object{}, fmt.Errorf("failed to open %s: %w", key, err)
	}
	defer r.Close()

	data, err := readCapped(r, maxBytes)
	if err != nil {
		return Object{}, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return Object{
		Key:         key,
		Data:        data,
		Size:        int64(len(data)),
		ContentType: info.ContentType,
		Metadata:    info.Metadata,
	}, nil
}

// readCapped reads r fully, failing when more than maxBytes arrive.
func readCapped(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrObjectTooLarge
	}
	return data, nil
}

// retry runs op with doubling backoff. A precondition failure is final.
func retry(ctx context.Context, logCtx *slog.Logger, maxRetries int, backoff time.Duration, op func() error) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := op()
		if err == nil || isPreconditionFailed(err) {
			return err
		}
		lastErr = err
		if i == maxRetries-1 {
			break
		}
		logCtx.Warn(
			"Upload failed, will retry.",
			"attempt", i+1,
			"maxRetries", maxRetries,
			"backoff", backoff.String(),
			"error", err,
		)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			logCtx.Error("Context cancelled during backoff. Aborting retries.", "error", ctx.Err())
			return ctx.Err()
		}
	}
	logCtx.Error("Upload failed after all retries.", "error", lastErr)
	return fmt.Errorf("upload failed after all retries: %w", lastErr)
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

// ObjectKey builds the storage key for a new submission:
// <prefix><RFC3339 UTC>_<sanitized name><ext>.
func ObjectKey(prefix string, now time.Time, filename string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	ext := strings.ToLower(path.Ext(base))
	name := SanitizeFileName(strings.TrimSuffix(base, path.Ext(base)))
	if name == "" {
		name = "document"
	}
	return prefix + now.UTC().Format(time.RFC3339) + "_" + name + ext
}

var nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeFileName converts a filename stem into a safe object name component.
func SanitizeFileName(name string) string {
	sanitized := nonAlphanumericRegex.ReplaceAllString(strings.ToLower(name), "_")
	sanitized = strings.Trim(sanitized, "_")

	const maxLength = 100
	if len(sanitized) > maxLength {
		sanitized = sanitized[:maxLength]
		// cut may land on an underscore
		sanitized = strings.Trim(sanitized, "_")
	}
	return sanitized
}

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain; charset=utf-8",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ContentType returns the MIME type stored for key's extension.
func ContentType(key string) string {
	if ct, ok := contentTypes[models.Extension(key)]; ok {
		return ct
	}
	return "application/octet-stream"
}
