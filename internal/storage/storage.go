// Package storage uploads call recordings to an object store and fetches
// them back by reference.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/Yates-Labs/auditbot/internal/logger"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBucket = "augusta-bbog-dev-sandbox"
	DefaultPrefix = "casos-uso/monitor-cobranzas/cobranzas-transcripcion"
	AudioMIMEType = "audio/mpeg"

	blobTimeLayout = "20060102_150405"
)

var (
	ErrNotFound       = errors.New("object not found")
	ErrEmptyPayload   = errors.New("empty upload payload")
	ErrNoFilename     = errors.New("filename required")
	ErrNoBucket       = errors.New("bucket not configured")
	ErrSchemeMismatch = errors.New("reference scheme not served by backend")
)

var refPattern = regexp.MustCompile(`^([a-z][a-z0-9+.-]*)://([^/]+)/(.+)$`)

// Ref locates one object: scheme://bucket/object.
type Ref struct {
	Scheme string
	Bucket string
	Object string
}

func (r Ref) String() string {
	return fmt.Sprintf("%s://%s/%s", r.Scheme, r.Bucket, r.Object)
}

// ParseRef recognizes scheme://bucket/path with a non-empty bucket and path.
func ParseRef(uri string) (Ref, bool) {
	m := refPattern.FindStringSubmatch(strings.TrimSpace(uri))
	if m == nil {
		return Ref{}, false
	}
	return Ref{Scheme: m[1], Bucket: m[2], Object: m[3]}, true
}

// BlobPath builds the object name for an uploaded recording.
func BlobPath(prefix, filename string, now time.Time) string {
	name := fmt.Sprintf("audio_transcripcion_%s_%s", now.Format(blobTimeLayout), path.Base(filename))
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Backend is a raw object store.
type Backend interface {
	Scheme() string
	Put(ctx context.Context, bucket, object, contentType string, data []byte) error
	Get(ctx context.Context, bucket, object string) ([]byte, error)
}

// Config selects the upload destination.
type Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// DefaultConfig returns the stock upload destination.
func DefaultConfig() Config {
	return Config{Bucket: DefaultBucket, Prefix: DefaultPrefix}
}

// Uploader places recordings under the configured bucket and prefix.
type Uploader struct {
	backend Backend
	cfg     Config
	log     *logger.Logger
	now     func() time.Time
}

// NewUploader wraps backend with the upload naming rules.
func NewUploader(backend Backend, cfg Config, log *logger.Logger) *Uploader {
	if log == nil {
		log = logger.Discard()
	}
	return &Uploader{backend: backend, cfg: cfg, log: log, now: time.Now}
}

// Upload stores data under a timestamped name derived from filename and
// returns its reference. On failure the reference is empty.
func (u *Uploader) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyPayload
	}
	if strings.TrimSpace(filename) == "" {
		return "", ErrNoFilename
	}
	if u.cfg.Bucket == "" {
		return "", ErrNoBucket
	}

	object := BlobPath(u.cfg.Prefix, filename, u.now())
	fields := logrus.Fields{
		"bucket": u.cfg.Bucket,
		"object": object,
		"bytes":  len(data),
	}

	if err := u.backend.Put(ctx, u.cfg.Bucket, object, AudioMIMEType, data); err != nil {
		u.log.WithFields(fields).WithError(err).Error("audio upload failed")
		return "", fmt.Errorf("upload %s: %w", object, err)
	}

	ref := Ref{Scheme: u.backend.Scheme(), Bucket: u.cfg.Bucket, Object: object}
	u.log.WithFields(fields).Info("audio uploaded")
	return ref.String(), nil
}

// Fetch downloads the object behind ref.
// References with another scheme fail with ErrSchemeMismatch.
func (u *Uploader) Fetch(ctx context.Context, ref Ref) ([]byte, error) {
	if ref.Scheme != u.backend.Scheme() {
		return nil, fmt.Errorf("fetch %s: %w (want %s)", ref, ErrSchemeMismatch, u.backend.Scheme())
	}
	data, err := u.backend.Get(ctx, ref.Bucket, ref.Object)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}
	return data, nil
}
