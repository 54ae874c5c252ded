package storage

import (
	"context"
	"sync"
	"sync/atomic"
)

type memObject struct {
	data        []byte
	contentType string
}

// MemoryBackend keeps objects in process memory. Used offline and in tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[string]memObject
	gets    atomic.Int64
	// PutErr, when set, is returned by every Put.
	PutErr error
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{objects: make(map[string]memObject)}
}

func (m *MemoryBackend) Scheme() string { return "mem" }

func (m *MemoryBackend) Put(_ context.Context, bucket, object, contentType string, data []byte) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+object] = memObject{data: buf, contentType: contentType}
	return nil
}

func (m *MemoryBackend) Get(_ context.Context, bucket, object string) ([]byte, error) {
	m.gets.Add(1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[bucket+"/"+object]
	if !ok {
		return nil, ErrNotFound
	}
	buf := make([]byte, len(obj.data))
	copy(buf, obj.data)
	return buf, nil
}

// ContentType reports the stored content type of an object.
func (m *MemoryBackend) ContentType(bucket, object string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[bucket+"/"+object]
	return obj.contentType, ok
}

// Gets is the number of Get calls served, found or not.
func (m *MemoryBackend) Gets() int64 {
	return m.gets.Load()
}

// Len is the number of stored objects.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
