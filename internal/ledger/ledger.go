// internal/ledger/ledger.go
package ledger

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("ledger: key not found")
	// ErrConflict is returned by Commit when a key read during the transaction changed
	// before the transaction committed.
	ErrConflict  = errors.New("ledger: read conflict")
	ErrTxClosed  = errors.New("ledger: transaction already closed")
	ErrEmptyKey  = errors.New("ledger: empty key")
	ErrNilValue  = errors.New("ledger: nil value")
	ErrExhausted = errors.New("ledger: iterator exhausted")
)

// Ledger is everything the contract needs from the hosting ledger platform. All calls made
// through one Ledger belong to one transaction; the platform commits them together or not at
// all.
type Ledger interface {
	// Get returns ErrNotFound when the key has no current value.
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	// ScanByPrefix iterates the keys of a namespace that start with the given leading
	// attributes, in key order.
	ScanByPrefix(namespace string, attributes []string) (StateIterator, error)
	// History iterates every committed version of key, oldest first.
	History(key string) (HistoryIterator, error)
	CreateCompositeKey(namespace string, attributes []string) (string, error)
	SplitCompositeKey(key string) (string, []string, error)
	// Timestamp is the transaction timestamp proposed by the client.
	Timestamp() (time.Time, error)
}

type KV struct {
	Key   string
	Value []byte
}

type Modification struct {
	TxID      string
	Value     []byte
	Timestamp time.Time
	IsDelete  bool
}

// StateIterator is a single forward pass over scan results. Callers must Close it.
type StateIterator interface {
	HasNext() bool
	Next() (*KV, error)
	Close() error
}

// HistoryIterator is a single forward pass over the versions of one key. It cannot be
// restarted. Callers must Close it.
type HistoryIterator interface {
	HasNext() bool
	Next() (*Modification, error)
	Close() error
}

type sliceStateIterator struct {
	items  []KV
	pos    int
	closed bool
}

func (it *sliceStateIterator) HasNext() bool {
	return !it.closed && it.pos < len(it.items)
}

func (it *sliceStateIterator) Next() (*KV, error) {
	if !it.HasNext() {
		return nil, ErrExhausted
	}
	kv := it.items[it.pos]
	it.pos++
	return &kv, nil
}

func (it *sliceStateIterator) Close() error {
	it.closed = true
	it.items = nil
	return nil
}

type sliceHistoryIterator struct {
	items  []Modification
	pos    int
	closed bool
}

func (it *sliceHistoryIterator) HasNext() bool {
	return !it.closed && it.pos < len(it.items)
}

func (it *sliceHistoryIterator) Next() (*Modification, error) {
	if !it.HasNext() {
		return nil, ErrExhausted
	}
	m := it.items[it.pos]
	it.pos++
	return &m, nil
}

func (it *sliceHistoryIterator) Close() error {
	it.closed = true
	it.items = nil
	return nil
}
