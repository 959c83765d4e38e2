package tokens

import (
	"sync"

	"github.com/desertthunder/upl/internal/models"
)

// MemoryStore keeps the credential in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[Field]string
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[Field]string)}
}

func (m *MemoryStore) Set(cred models.Credential) error {
	next := make(map[Field]string, len(Fields))
	for field, v := range values(cred) {
		if v != nil {
			next[field] = *v
		}
	}

	m.mu.Lock()
	m.values = next
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(field Field) (string, bool, error) {
	if err := validField(field); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[field]
	return v, ok, nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.values = make(map[Field]string)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
