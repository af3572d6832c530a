package artifact

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps artifacts in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, renderID, name string, content []byte) error {
	renderID, name, err := checkKey(renderID, name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[objectKey(renderID, name)] = append([]byte(nil), content...)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, renderID, name string) ([]byte, error) {
	renderID, name, err := checkKey(renderID, name)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.files[objectKey(renderID, name)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryStore) List(_ context.Context, renderID string) ([]string, error) {
	prefix := strings.TrimSpace(renderID) + "/"
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for k := range m.files {
		if strings.HasPrefix(k, prefix) {
			names = append(names, strings.TrimPrefix(k, prefix))
		}
	}
	sort.Strings(names)
	return names, nil
}
