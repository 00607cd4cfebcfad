// internal/ledger/memory_store.go
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type memoryEntry struct {
	value   []byte
	version uint64
}

// MemoryStore keeps committed state and history in process. It backs tests and the
// development gateway.
type MemoryStore struct {
	mu      sync.RWMutex
	version uint64
	state   map[string]memoryEntry
	keys    []string
	history map[string][]Modification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state:   make(map[string]memoryEntry),
		history: make(map[string][]Modification),
	}
}

func (s *MemoryStore) Load(_ context.Context, key string) (Versioned, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.state[key]
	if !ok {
		return Versioned{}, nil
	}
	return Versioned{Value: append([]byte(nil), e.value...), Version: e.version}, nil
}

func (s *MemoryStore) Range(_ context.Context, start, end string) ([]KV, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := sort.SearchStrings(s.keys, start)
	var out []KV
	for ; i < len(s.keys) && s.keys[i] < end; i++ {
		k := s.keys[i]
		out = append(out, KV{Key: k, Value: append([]byte(nil), s.state[k].value...)})
	}
	return out, nil
}

func (s *MemoryStore) Versions(_ context.Context, key string) ([]Modification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.history[key]
	out := make([]Modification, len(versions))
	copy(out, versions)
	return out, nil
}

func (s *MemoryStore) Commit(_ context.Context, txID string, ts time.Time, reads map[string]uint64, writes []KV) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, seen := range reads {
		if current := s.state[key].version; current != seen {
			return fmt.Errorf("%w: %q read at version %d, now %d", ErrConflict, key, seen, current)
		}
	}

	s.version++
	for _, w := range writes {
		if _, exists := s.state[w.Key]; !exists {
			i := sort.SearchStrings(s.keys, w.Key)
			s.keys = append(s.keys, "")
			copy(s.keys[i+1:], s.keys[i:])
			s.keys[i] = w.Key
		}
		value := append([]byte(nil), w.Value...)
		s.state[w.Key] = memoryEntry{value: value, version: s.version}
		s.history[w.Key] = append(s.history[w.Key], Modification{
			TxID:      txID,
			Value:     value,
			Timestamp: ts,
		})
	}
	return nil
}
