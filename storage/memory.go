package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// MemoryStore keeps blobs in memory. FailAfter makes every upload after
// the given count fail, which lets callers exercise partial failures.
type MemoryStore struct {
	mu        sync.Mutex
	seq       int
	objects   map[string][]byte
	FailAfter int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string][]byte{}, FailAfter: -1}
}

func (m *MemoryStore) Upload(ctx context.Context, obj Object) (StoredObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAfter >= 0 && m.seq >= m.FailAfter {
		return StoredObject{}, errors.New("memory store: upload refused")
	}
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return StoredObject{}, err
	}
	m.seq++
	id := fmt.Sprintf("%s/%d-%s", obj.Folder, m.seq, obj.Filename)
	m.objects[id] = data
	return StoredObject{URL: "mem://" + id, PublicID: id}, nil
}

func (m *MemoryStore) Delete(ctx context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[publicID]; !ok {
		return errors.New("memory store: no object " + publicID)
	}
	delete(m.objects, publicID)
	return nil
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
