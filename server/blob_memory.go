package main

import (
	"bytes"
	"context"
	"io"
	"sync"
)

type memoryBlob struct {
	data        []byte
	contentType string
}

type memoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob
}

// NewMemoryBlobStore returns an in-memory BlobStore suitable for tests.
func NewMemoryBlobStore() BlobStore {
	return &memoryBlobStore{blobs: make(map[string]memoryBlob)}
}

func (m *memoryBlobStore) Driver() BlobDriver { return BlobDriverMemory }

func (m *memoryBlobStore) Put(ctx context.Context, id string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.blobs[id] = memoryBlob{data: data, contentType: contentType}
	m.mu.Unlock()
	return nil
}

func (m *memoryBlobStore) Get(ctx context.Context, id string) (io.ReadCloser, string, error) {
	m.mu.RLock()
	b, ok := m.blobs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, "", ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b.data)), b.contentType, nil
}

func (m *memoryBlobStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.blobs, id)
	m.mu.Unlock()
	return nil
}
