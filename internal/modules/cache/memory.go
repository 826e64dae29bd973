package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"
)

// memoryEntry is one cached value plus its bookkeeping.
type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
	elem      *list.Element
}

// MemoryStore is an in-process cache backend. Entries expire lazily on read
// and are evicted strictly in write order once the aggregate value size
// passes the configured bound. An entry larger than the bound is still
// accepted; it just evicts everything written before it.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]*memoryEntry
	order     *list.List // front = oldest write
	totalSize int64
	maxSize   int64
	now       func() time.Time
}

// NewMemoryStore creates a memory backend bounded by maxSize bytes of
// values. maxSize <= 0 disables the bound.
func NewMemoryStore(maxSize int64) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		order:   list.New(),
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if s.now().After(entry.expiresAt) {
		s.remove(entry)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[key]; ok {
		s.remove(existing)
	}

	entry := &memoryEntry{
		key:       key,
		value:     value,
		expiresAt: s.now().Add(ttl),
	}
	entry.elem = s.order.PushBack(entry)
	s.entries[key] = entry
	s.totalSize += int64(len(value))

	s.evict(entry)
	return nil
}

// evict drops oldest-written entries until the size bound holds. The entry
// just written is never evicted by its own insertion.
func (s *MemoryStore) evict(keep *memoryEntry) {
	if s.maxSize <= 0 {
		return
	}
	for s.totalSize > s.maxSize {
		front := s.order.Front()
		if front == nil {
			return
		}
		oldest := front.Value.(*memoryEntry)
		if oldest == keep {
			return
		}
		s.remove(oldest)
	}
}

func (s *MemoryStore) remove(entry *memoryEntry) {
	delete(s.entries, entry.key)
	s.order.Remove(entry.elem)
	s.totalSize -= int64(len(entry.value))
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[key]; ok {
		s.remove(entry)
	}
	return nil
}

func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if strings.HasPrefix(key, prefix) {
			s.remove(entry)
		}
	}
	return nil
}

// Len reports the number of live entries, expired ones included until read.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
