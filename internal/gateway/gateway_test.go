package gateway

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exploreiib/pharma-net/internal/contract"
	"github.com/exploreiib/pharma-net/internal/identity"
	"github.com/exploreiib/pharma-net/internal/ledger"
	"github.com/exploreiib/pharma-net/internal/metrics"
	"github.com/exploreiib/pharma-net/internal/models"
	"github.com/exploreiib/pharma-net/internal/services"
)

func newTestGateway(t *testing.T, opts ...Option) (*Gateway, *ledger.MemoryStore) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	store := ledger.NewMemoryStore()
	profiles := NewProfiles(map[string]string{
		"Manufacturer": identity.ManufacturerMSP,
		"distributor":  identity.DistributorMSP,
		"consumer":     identity.ConsumerMSP,
	})
	return New(store, contract.New(log), profiles, log, opts...), store
}

func register(t *testing.T, gw *Gateway, org string, args ...string) []byte {
	t.Helper()
	var payload []byte
	err := gw.WithConnection(context.Background(), org, func(conn *Connection) error {
		var err error
		payload, err = conn.Submit("registerCompany", args...)
		return err
	})
	require.NoError(t, err)
	return payload
}

func TestNewProfiles(t *testing.T) {
	profiles := NewProfiles(map[string]string{"Manufacturer": identity.ManufacturerMSP})
	p, ok := profiles["manufacturer"]
	require.True(t, ok)
	assert.Equal(t, "MANUFACTURER_ADMIN", p.User)
	assert.Equal(t, "x509::CN=MANUFACTURER_ADMIN::O=manufacturer", p.RawIdentity())
}

func TestConnectUnknownOrganization(t *testing.T) {
	gw, _ := newTestGateway(t)
	_, err := gw.Connect(context.Background(), "pharmacist")
	assert.ErrorIs(t, err, ErrUnknownOrganization)

	conn, err := gw.Connect(context.Background(), "  MANUFACTURER ")
	require.NoError(t, err)
	assert.Equal(t, identity.ManufacturerMSP, conn.Profile().MSPID)
	assert.Equal(t, []string{"consumer", "distributor", "manufacturer"}, gw.Organizations())
}

func TestSubmitCommitsAndEvaluateDiscards(t *testing.T) {
	gw, store := newTestGateway(t)
	ctx := context.Background()

	conn, err := gw.Connect(ctx, "manufacturer")
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Evaluate("registerCompany", "MAN001", "Sun Pharma", "Mumbai", "Manufacturer")
	require.NoError(t, err)
	_, err = ledger.ResolvePrefix(ledger.Begin(ctx, store), ledger.CompanyNamespace, "MAN001")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	_, err = conn.Submit("registerCompany", "MAN001", "Sun Pharma", "Mumbai", "Manufacturer")
	require.NoError(t, err)
	_, err = ledger.ResolvePrefix(ledger.Begin(ctx, store), ledger.CompanyNamespace, "MAN001")
	assert.NoError(t, err)
}

func TestFailedSubmitLeavesLedgerUntouched(t *testing.T) {
	gw, store := newTestGateway(t)
	register(t, gw, "manufacturer", "MAN001", "Sun Pharma", "Mumbai", "Manufacturer")

	err := gw.WithConnection(context.Background(), "distributor", func(conn *Connection) error {
		_, err := conn.Submit("addDrug", "Paracetamol", "001", "2024-01-01", "2026-01-01", "MAN001")
		return err
	})
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	start, end, err := ledger.PrefixRange(ledger.DrugNamespace, nil)
	require.NoError(t, err)
	drugs, err := store.Range(context.Background(), start, end)
	require.NoError(t, err)
	assert.Empty(t, drugs)
}

func TestClosedConnectionRejectsCalls(t *testing.T) {
	gw, _ := newTestGateway(t)
	var kept *Connection
	require.NoError(t, gw.WithConnection(context.Background(), "consumer", func(conn *Connection) error {
		kept = conn
		return nil
	}))

	_, err := kept.Evaluate("viewHistory", "Paracetamol", "001")
	assert.ErrorIs(t, err, ErrConnectionClosed)
	kept.Close()
}

func TestCanceledContext(t *testing.T) {
	gw, _ := newTestGateway(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn, err := gw.Connect(ctx, "consumer")
	require.NoError(t, err)
	_, err = conn.Evaluate("viewHistory", "Paracetamol", "001")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClockStampsTransactions(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	gw, _ := newTestGateway(t, WithClock(func() time.Time { return at }))

	payload := register(t, gw, "manufacturer", "MAN001", "Sun Pharma", "Mumbai", "Manufacturer")
	var company models.Company
	require.NoError(t, json.Unmarshal(payload, &company))
	assert.True(t, at.Equal(company.CreatedAt))
}

func TestMetricsRecordOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(registry, registry)
	gw, _ := newTestGateway(t, WithMetrics(m))

	register(t, gw, "manufacturer", "MAN001", "Sun Pharma", "Mumbai", "Manufacturer")
	_ = gw.WithConnection(context.Background(), "consumer", func(conn *Connection) error {
		_, err := conn.Evaluate("viewDrugCurrentState", "Paracetamol", "001")
		return err
	})

	count, err := testutil.GatherAndCount(registry, "pharmanet_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
