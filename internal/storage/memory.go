package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"strconv"
	"sync"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStore is an in-process object store used when MINIO_ENDPOINT is unset.
// Its presigned URLs point at baseURL and are not served by anything.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	now     func() time.Time
	objects map[string]memoryObject
}

// NewMemory creates an in-memory store whose URLs are rooted at baseURL.
func NewMemory(baseURL string, now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{baseURL: baseURL, now: now, objects: make(map[string]memoryObject)}
}

// PutObject stores body under key.
func (s *MemoryStore) PutObject(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memoryObject{data: buf.Bytes(), contentType: contentType}
	return nil
}

// PresignedURL returns a URL for key that carries its expiry time.
func (s *MemoryStore) PresignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return "", ErrObjectNotFound
	}

	q := url.Values{}
	q.Set("expires", strconv.FormatInt(s.now().Add(expiry).Unix(), 10))
	return s.baseURL + "/" + key + "?" + q.Encode(), nil
}

// RemoveObject deletes key. Missing keys are not an error.
func (s *MemoryStore) RemoveObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Object returns a stored object's bytes and content type.
func (s *MemoryStore) Object(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj.data, obj.contentType, ok
}
