package artifact

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

type memoryObject struct {
	content     []byte
	contentType string
}

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryObject
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]memoryObject),
	}
}

func (s *MemoryStore) Put(_ context.Context, owner, name string, content []byte, contentType string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	owner, name, err := normalizeKey(owner, name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[objectKey(owner, name)] = memoryObject{content: append([]byte(nil), content...), contentType: contentType}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, owner, name string) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	owner, name, err := normalizeKey(owner, name)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.data[objectKey(owner, name)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), obj.content...), nil
}

func (s *MemoryStore) List(_ context.Context, owner string) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	owner = strings.Trim(strings.TrimSpace(owner), "/")
	if owner == "" {
		return nil, fmt.Errorf("owner is required")
	}
	prefix := owner + "/"
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, 8)
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			out = append(out, strings.TrimPrefix(key, prefix))
		}
	}
	sort.Strings(out)
	return out, nil
}

// URL is always empty: memory objects are only reachable through Get.
func (s *MemoryStore) URL(context.Context, string, string) (string, error) {
	return "", nil
}
