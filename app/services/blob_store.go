package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/amirphl/trip-to-travel/config"
	"google.golang.org/api/option"
)

// BlobStore persists image and export bytes under object names.
// Every method except Put and URI addresses the object by the URI Put returned.
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Exists(ctx context.Context, uri string) (bool, error)
	Get(ctx context.Context, uri string) ([]byte, error)
	Delete(ctx context.Context, uri string) (bool, error)
	SignedURL(ctx context.Context, uri string, ttl time.Duration) (string, error)
	URI(name string) string
}

var ErrInvalidBlobURI = errors.New("invalid blob uri")

// ErrBlobNotFound is returned by Get when the object does not exist.
var ErrBlobNotFound = errors.New("blob not found")

// splitBlobURI splits scheme://bucket/name into its bucket and object name.
func splitBlobURI(uri, scheme string) (string, string, error) {
	prefix := scheme + "://"
	if !strings.HasPrefix(uri, prefix) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidBlobURI, uri)
	}
	bucket, name, ok := strings.Cut(strings.TrimPrefix(uri, prefix), "/")
	if !ok || bucket == "" || name == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidBlobURI, uri)
	}
	return bucket, name, nil
}

func contentTypeForName(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// ClientOptionsFromConfig picks inline JSON credentials, then a credentials file,
// then application default credentials.
func ClientOptionsFromConfig(cfg config.StorageConfig) []option.ClientOption {
	if creds := strings.TrimSpace(cfg.CredentialsJSON); creds != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	if creds := strings.TrimSpace(cfg.CredentialsFile); creds != "" {
		if strings.HasPrefix(creds, "{") {
			return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
		}
		return []option.ClientOption{option.WithCredentialsFile(creds)}
	}
	return nil
}

// GCSBlobStore stores objects in one Google Cloud Storage bucket.
type GCSBlobStore struct {
	client  *storage.Client
	bucket  string
	timeout time.Duration
}

// NewGCSBlobStore creates the storage client. Close releases it.
func NewGCSBlobStore(ctx context.Context, cfg config.StorageConfig) (*GCSBlobStore, error) {
	opts := append(ClientOptionsFromConfig(cfg), option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	timeout := cfg.OperationTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &GCSBlobStore{client: client, bucket: cfg.Bucket, timeout: timeout}, nil
}

func (s *GCSBlobStore) Close() error {
	return s.client.Close()
}

func (s *GCSBlobStore) URI(name string) string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, name)
}

func (s *GCSBlobStore) object(uri string) (*storage.ObjectHandle, error) {
	bucket, name, err := splitBlobURI(uri, "gs")
	if err != nil {
		return nil, err
	}
	return s.client.Bucket(bucket).Object(name), nil
}

func (s *GCSBlobStore) Put(ctx context.Context, name string, data []byte, contentType string) (uri string, err error) {
	start := time.Now()
	defer func() { observeCall(collaboratorBlobStore, "put", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if contentType == "" {
		contentType = contentTypeForName(name)
	}
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err = w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err = w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return s.URI(name), nil
}

func (s *GCSBlobStore) Exists(ctx context.Context, uri string) (ok bool, err error) {
	start := time.Now()
	defer func() { observeCall(collaboratorBlobStore, "exists", start, err) }()

	obj, err := s.object(uri)
	if err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err = obj.Attrs(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", uri, err)
	}
	return true, nil
}

func (s *GCSBlobStore) Get(ctx context.Context, uri string) (data []byte, err error) {
	start := time.Now()
	defer func() { observeCall(collaboratorBlobStore, "get", start, err) }()

	obj, err := s.object(uri)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rc, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, uri)
		}
		return nil, fmt.Errorf("failed to open %s: %w", uri, err)
	}
	defer rc.Close()

	if data, err = io.ReadAll(rc); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", uri, err)
	}
	return data, nil
}

func (s *GCSBlobStore) Delete(ctx context.Context, uri string) (deleted bool, err error) {
	start := time.Now()
	defer func() { observeCall(collaboratorBlobStore, "delete", start, err) }()

	obj, err := s.object(uri)
	if err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err = obj.Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete %s: %w", uri, err)
	}
	return true, nil
}

func (s *GCSBlobStore) SignedURL(ctx context.Context, uri string, ttl time.Duration) (signed string, err error) {
	start := time.Now()
	defer func() { observeCall(collaboratorBlobStore, "sign", start, err) }()

	bucket, name, err := splitBlobURI(uri, "gs")
	if err != nil {
		return "", err
	}
	signed, err = s.client.Bucket(bucket).SignedURL(name, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign %s: %w", uri, err)
	}
	return signed, nil
}

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryBlobStore keeps objects in process memory. Used for local runs and tests.
type MemoryBlobStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]memoryObject
}

func NewMemoryBlobStore(bucket string) *MemoryBlobStore {
	return &MemoryBlobStore{
		bucket:  bucket,
		objects: make(map[string]memoryObject),
	}
}

func (s *MemoryBlobStore) URI(name string) string {
	return fmt.Sprintf("memory://%s/%s", s.bucket, name)
}

func (s *MemoryBlobStore) key(uri string) (string, error) {
	bucket, name, err := splitBlobURI(uri, "memory")
	if err != nil {
		return "", err
	}
	if bucket != s.bucket {
		return "", fmt.Errorf("%w: unknown bucket %q", ErrInvalidBlobURI, bucket)
	}
	return name, nil
}

func (s *MemoryBlobStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = contentTypeForName(name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return s.URI(name), nil
}

func (s *MemoryBlobStore) Exists(ctx context.Context, uri string) (bool, error) {
	name, err := s.key(uri)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[name]
	return ok, nil
}

func (s *MemoryBlobStore) Get(ctx context.Context, uri string) ([]byte, error) {
	name, err := s.key(uri)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, uri)
	}
	return append([]byte(nil), obj.data...), nil
}

func (s *MemoryBlobStore) Delete(ctx context.Context, uri string) (bool, error) {
	name, err := s.key(uri)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[name]; !ok {
		return false, nil
	}
	delete(s.objects, name)
	return true, nil
}

func (s *MemoryBlobStore) SignedURL(ctx context.Context, uri string, ttl time.Duration) (string, error) {
	if _, err := s.key(uri); err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("expires", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))
	return uri + "?" + q.Encode(), nil
}

// ContentType returns the stored content type of an object, empty when absent.
func (s *MemoryBlobStore) ContentType(uri string) string {
	name, err := s.key(uri)
	if err != nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[name].contentType
}

// Len reports how many objects are stored.
func (s *MemoryBlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
