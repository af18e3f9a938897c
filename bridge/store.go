package bridge

import (
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
)

const (
	DefaultPayloadTTL = 600 * time.Second // staged payloads older than this are gone
)

// Store is the app-group storage a share extension writes to and the host
// app reads from, keyed by "<scheme>ShareKey".
type Store interface {
	Load(key string) ([]byte, bool)
	Save(key string, data []byte) error
	Delete(key string) error
}

// KeyNotifier is implemented by stores that can report keys written by
// another process.
type KeyNotifier interface {
	NotifyKeys(fn func(key string)) error
}

// MemoryStore keeps staged payloads in a TTL cache.
type MemoryStore struct {
	mu    sync.RWMutex
	cache *ttlworker.Cache[string, []byte]
}

// NewMemoryStore creates a store whose entries expire after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultPayloadTTL
	}
	return &MemoryStore{
		cache: ttlworker.NewCache[string, []byte](ttl),
	}
}

func (m *MemoryStore) Load(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data := m.cache.Get(key)
	if data == nil {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

func (m *MemoryStore) Save(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	m.cache.Set(key, copied)
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Delete(key)
	return nil
}
