package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func mustKey(t *testing.T, namespace string, attrs ...string) string {
	t.Helper()
	key, err := CreateCompositeKey(namespace, attrs)
	require.NoError(t, err)
	return key
}

func seed(t *testing.T, store Store, values map[string]string) {
	t.Helper()
	tx := Begin(testContext(t), store)
	for k, v := range values {
		require.NoError(t, tx.Put(k, []byte(v)))
	}
	require.NoError(t, tx.Commit())
}

func TestTxStagesWritesUntilCommit(t *testing.T) {
	store := NewMemoryStore()
	key := mustKey(t, DrugNamespace, "Paracetamol", "001")

	tx := Begin(testContext(t), store)
	require.NoError(t, tx.Put(key, []byte(`{"owner":"m"}`)))

	// reads see committed state only
	_, err := tx.Get(key)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, tx.Commit())

	reader := Begin(testContext(t), store)
	defer reader.Rollback()
	value, err := reader.Get(key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"m"}`, string(value))
}

func TestTxRollbackDiscardsWrites(t *testing.T) {
	store := NewMemoryStore()
	key := mustKey(t, DrugNamespace, "Paracetamol", "001")

	tx := Begin(testContext(t), store)
	require.NoError(t, tx.Put(key, []byte(`{}`)))
	tx.Rollback()

	assert.ErrorIs(t, tx.Put(key, []byte(`{}`)), ErrTxClosed)
	assert.ErrorIs(t, tx.Commit(), ErrTxClosed)

	loaded, err := store.Load(testContext(t), key)
	require.NoError(t, err)
	assert.Zero(t, loaded.Version)
}

func TestTxRejectsEmptyKeyAndNilValue(t *testing.T) {
	tx := Begin(testContext(t), NewMemoryStore())
	defer tx.Rollback()

	assert.ErrorIs(t, tx.Put("", []byte(`{}`)), ErrEmptyKey)
	assert.ErrorIs(t, tx.Put("k", nil), ErrNilValue)
	_, err := tx.Get("")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestTxCommitDetectsStaleRead(t *testing.T) {
	store := NewMemoryStore()
	key := mustKey(t, DrugNamespace, "Paracetamol", "001")
	seed(t, store, map[string]string{key: `{"owner":"m"}`})

	first := Begin(testContext(t), store)
	second := Begin(testContext(t), store)

	_, err := first.Get(key)
	require.NoError(t, err)
	_, err = second.Get(key)
	require.NoError(t, err)

	require.NoError(t, first.Put(key, []byte(`{"owner":"t"}`)))
	require.NoError(t, second.Put(key, []byte(`{"owner":"x"}`)))

	require.NoError(t, first.Commit())
	assert.ErrorIs(t, second.Commit(), ErrConflict)

	reader := Begin(testContext(t), store)
	defer reader.Rollback()
	value, err := reader.Get(key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"t"}`, string(value))
}

func TestTxHistoryIsSinglePassOldestFirst(t *testing.T) {
	store := NewMemoryStore()
	key := mustKey(t, DrugNamespace, "Paracetamol", "001")

	stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range []string{`{"v":1}`, `{"v":2}`, `{"v":3}`} {
		tx := BeginAt(testContext(t), store, stamp.Add(time.Duration(i)*time.Minute))
		require.NoError(t, tx.Put(key, []byte(v)))
		require.NoError(t, tx.Commit())
	}

	tx := Begin(testContext(t), store)
	defer tx.Rollback()

	it, err := tx.History(key)
	require.NoError(t, err)

	var values []string
	var stamps []time.Time
	for it.HasNext() {
		m, err := it.Next()
		require.NoError(t, err)
		values = append(values, string(m.Value))
		stamps = append(stamps, m.Timestamp)
	}
	assert.Equal(t, []string{`{"v":1}`, `{"v":2}`, `{"v":3}`}, values)
	assert.True(t, stamps[0].Before(stamps[2]))

	_, err = it.Next()
	assert.ErrorIs(t, err, ErrExhausted)
	require.NoError(t, it.Close())
	assert.False(t, it.HasNext())
}

func TestTxScanByPrefixInKeyOrder(t *testing.T) {
	store := NewMemoryStore()
	seed(t, store, map[string]string{
		mustKey(t, DrugNamespace, "Paracetamol", "003"): `3`,
		mustKey(t, DrugNamespace, "Paracetamol", "001"): `1`,
		mustKey(t, DrugNamespace, "Aspirin", "001"):     `a`,
	})

	tx := Begin(testContext(t), store)
	defer tx.Rollback()

	it, err := tx.ScanByPrefix(DrugNamespace, []string{"Paracetamol"})
	require.NoError(t, err)
	defer it.Close()

	var values []string
	for it.HasNext() {
		kv, err := it.Next()
		require.NoError(t, err)
		values = append(values, string(kv.Value))
	}
	assert.Equal(t, []string{"1", "3"}, values)
}

func TestCommitWithoutWritesIsNoop(t *testing.T) {
	store := NewMemoryStore()
	tx := Begin(testContext(t), store)
	_, err := tx.Get(mustKey(t, DrugNamespace, "x", "y"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, tx.Commit())
}
