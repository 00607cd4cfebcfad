// internal/ledger/fabric.go
package ledger

import (
	"fmt"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shim"
)

// StubLedger adapts a Fabric chaincode stub to the Ledger port. Atomicity, ordering and
// MVCC validation are the peer's responsibility.
type StubLedger struct {
	stub shim.ChaincodeStubInterface
}

func NewStubLedger(stub shim.ChaincodeStubInterface) *StubLedger {
	return &StubLedger{stub: stub}
}

func (l *StubLedger) Get(key string) ([]byte, error) {
	value, err := l.stub.GetState(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", key, err)
	}
	if len(value) == 0 {
		return nil, ErrNotFound
	}
	return value, nil
}

func (l *StubLedger) Put(key string, value []byte) error {
	if err := l.stub.PutState(key, value); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

func (l *StubLedger) ScanByPrefix(namespace string, attributes []string) (StateIterator, error) {
	it, err := l.stub.GetStateByPartialCompositeKey(namespace, attributes)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", namespace, err)
	}
	return &stubStateIterator{it: it}, nil
}

// History returns the versions of key oldest first. Since Fabric v2.0 GetHistoryForKey yields
// newest first, so the peer's iterator is drained and replayed in reverse.
func (l *StubLedger) History(key string) (HistoryIterator, error) {
	it, err := l.stub.GetHistoryForKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to load history of %q: %w", key, err)
	}
	defer it.Close()

	var versions []Modification
	for it.HasNext() {
		m, err := it.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to read history of %q: %w", key, err)
		}
		versions = append(versions, Modification{
			TxID:      m.GetTxId(),
			Value:     m.GetValue(),
			Timestamp: m.GetTimestamp().AsTime(),
			IsDelete:  m.GetIsDelete(),
		})
	}

	for i, j := 0, len(versions)-1; i < j; i, j = i+1, j-1 {
		versions[i], versions[j] = versions[j], versions[i]
	}
	return &sliceHistoryIterator{items: versions}, nil
}

func (l *StubLedger) CreateCompositeKey(namespace string, attributes []string) (string, error) {
	return l.stub.CreateCompositeKey(namespace, attributes)
}

func (l *StubLedger) SplitCompositeKey(key string) (string, []string, error) {
	return l.stub.SplitCompositeKey(key)
}

func (l *StubLedger) Timestamp() (time.Time, error) {
	ts, err := l.stub.GetTxTimestamp()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read tx timestamp: %w", err)
	}
	return ts.AsTime(), nil
}

type stubStateIterator struct {
	it shim.StateQueryIteratorInterface
}

func (s *stubStateIterator) HasNext() bool { return s.it.HasNext() }
func (s *stubStateIterator) Close() error  { return s.it.Close() }

func (s *stubStateIterator) Next() (*KV, error) {
	kv, err := s.it.Next()
	if err != nil {
		return nil, err
	}
	return &KV{Key: kv.GetKey(), Value: kv.GetValue()}, nil
}
