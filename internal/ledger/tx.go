// internal/ledger/tx.go
package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Versioned is a committed value and the store-wide version that wrote it. Version 0 means
// the key is absent.
type Versioned struct {
	Value   []byte
	Version uint64
}

// Store is a committed, versioned key space. A Tx stages writes against it.
type Store interface {
	Load(ctx context.Context, key string) (Versioned, error)
	// Range returns committed keys in [start, end), ordered by key.
	Range(ctx context.Context, start, end string) ([]KV, error)
	// Versions returns every committed version of key, oldest first.
	Versions(ctx context.Context, key string) ([]Modification, error)
	// Commit applies writes atomically after checking that every key in reads is still at
	// the recorded version. It returns ErrConflict otherwise.
	Commit(ctx context.Context, txID string, ts time.Time, reads map[string]uint64, writes []KV) error
}

// Tx implements Ledger over a Store with Fabric semantics: reads see committed state only,
// writes are staged until Commit. A Tx is single use.
type Tx struct {
	ctx    context.Context
	store  Store
	id     string
	ts     time.Time
	reads  map[string]uint64
	writes map[string][]byte
	closed bool
}

// Begin starts a transaction stamped with the current time.
func Begin(ctx context.Context, store Store) *Tx {
	return BeginAt(ctx, store, time.Now().UTC())
}

func BeginAt(ctx context.Context, store Store, ts time.Time) *Tx {
	return &Tx{
		ctx:    ctx,
		store:  store,
		id:     uuid.NewString(),
		ts:     ts,
		reads:  make(map[string]uint64),
		writes: make(map[string][]byte),
	}
}

func (t *Tx) ID() string { return t.id }

func (t *Tx) Get(key string) ([]byte, error) {
	if t.closed {
		return nil, ErrTxClosed
	}
	if key == "" {
		return nil, ErrEmptyKey
	}

	v, err := t.store.Load(t.ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", key, err)
	}
	if _, seen := t.reads[key]; !seen {
		t.reads[key] = v.Version
	}
	if v.Version == 0 || len(v.Value) == 0 {
		return nil, ErrNotFound
	}
	return v.Value, nil
}

func (t *Tx) Put(key string, value []byte) error {
	if t.closed {
		return ErrTxClosed
	}
	if key == "" {
		return ErrEmptyKey
	}
	if value == nil {
		return ErrNilValue
	}
	t.writes[key] = append([]byte(nil), value...)
	return nil
}

func (t *Tx) ScanByPrefix(namespace string, attributes []string) (StateIterator, error) {
	if t.closed {
		return nil, ErrTxClosed
	}
	start, end, err := PrefixRange(namespace, attributes)
	if err != nil {
		return nil, err
	}
	items, err := t.store.Range(t.ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", namespace, err)
	}
	return &sliceStateIterator{items: items}, nil
}

func (t *Tx) History(key string) (HistoryIterator, error) {
	if t.closed {
		return nil, ErrTxClosed
	}
	if key == "" {
		return nil, ErrEmptyKey
	}
	items, err := t.store.Versions(t.ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load history of %q: %w", key, err)
	}
	return &sliceHistoryIterator{items: items}, nil
}

func (t *Tx) CreateCompositeKey(namespace string, attributes []string) (string, error) {
	return CreateCompositeKey(namespace, attributes)
}

func (t *Tx) SplitCompositeKey(key string) (string, []string, error) {
	return SplitCompositeKey(key)
}

func (t *Tx) Timestamp() (time.Time, error) {
	return t.ts, nil
}

// Commit publishes the staged writes. The Tx is closed whether or not Commit succeeds.
func (t *Tx) Commit() error {
	if t.closed {
		return ErrTxClosed
	}
	t.closed = true

	if len(t.writes) == 0 {
		return nil
	}

	writes := make([]KV, 0, len(t.writes))
	for k, v := range t.writes {
		writes = append(writes, KV{Key: k, Value: v})
	}
	sort.Slice(writes, func(i, j int) bool { return writes[i].Key < writes[j].Key })

	return t.store.Commit(t.ctx, t.id, t.ts, t.reads, writes)
}

// Rollback discards staged writes. It is safe to call after Commit.
func (t *Tx) Rollback() {
	t.closed = true
	t.writes = nil
}
