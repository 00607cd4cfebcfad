// internal/gateway/gateway.go
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/exploreiib/pharma-net/internal/contract"
	"github.com/exploreiib/pharma-net/internal/identity"
	"github.com/exploreiib/pharma-net/internal/ledger"
	"github.com/exploreiib/pharma-net/internal/metrics"
	"github.com/exploreiib/pharma-net/internal/services"
)

var (
	ErrUnknownOrganization = errors.New("unknown organization")
	ErrConnectionClosed    = errors.New("connection closed")
)

// Profile is the credential an organization connects with.
type Profile struct {
	Organization string
	MSPID        string
	User         string
}

// RawIdentity renders the caller the way the platform reports an x509 client.
func (p Profile) RawIdentity() string {
	return fmt.Sprintf("x509::CN=%s::O=%s", p.User, p.Organization)
}

// NewProfiles builds one admin profile per organization name -> MSP id entry.
func NewProfiles(organizations map[string]string) map[string]Profile {
	profiles := make(map[string]Profile, len(organizations))
	for name, mspID := range organizations {
		name = strings.ToLower(name)
		profiles[name] = Profile{
			Organization: name,
			MSPID:        mspID,
			User:         strings.ToUpper(name) + "_ADMIN",
		}
	}
	return profiles
}

// Gateway hands out per-call connections to the contract running over a local ledger store.
type Gateway struct {
	store    ledger.Store
	contract *contract.Contract
	profiles map[string]Profile
	metrics  *metrics.OperationMetrics
	log      logrus.FieldLogger
	now      func() time.Time
}

type Option func(*Gateway)

func WithMetrics(m *metrics.OperationMetrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithClock overrides the transaction timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

func New(store ledger.Store, c *contract.Contract, profiles map[string]Profile, log logrus.FieldLogger, opts ...Option) *Gateway {
	g := &Gateway{
		store:    store,
		contract: c,
		profiles: profiles,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Organizations lists the configured organization names.
func (g *Gateway) Organizations() []string {
	names := make([]string, 0, len(g.profiles))
	for name := range g.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Connect opens a connection as the named organization. Callers must Close it.
func (g *Gateway) Connect(ctx context.Context, organization string) (*Connection, error) {
	profile, ok := g.profiles[strings.ToLower(strings.TrimSpace(organization))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOrganization, organization)
	}
	g.log.WithFields(logrus.Fields{
		"org":  profile.Organization,
		"user": profile.User,
	}).Debug("Connected to network")
	return &Connection{gateway: g, ctx: ctx, profile: profile}, nil
}

// WithConnection runs fn on a fresh connection and closes it on every exit path.
func (g *Gateway) WithConnection(ctx context.Context, organization string, fn func(*Connection) error) error {
	conn, err := g.Connect(ctx, organization)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn)
}

// Connection is bound to one organization and one request.
type Connection struct {
	gateway *Gateway
	ctx     context.Context
	profile Profile

	mu     sync.Mutex
	closed bool
}

func (c *Connection) Profile() Profile { return c.profile }

// Submit runs a state-changing operation and commits its writes. Any failure, including a
// read conflict at commit, leaves the ledger untouched.
func (c *Connection) Submit(fn string, args ...string) ([]byte, error) {
	return c.run(fn, args, true)
}

// Evaluate runs an operation and discards whatever it staged.
func (c *Connection) Evaluate(fn string, args ...string) ([]byte, error) {
	return c.run(fn, args, false)
}

func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.gateway.log.WithField("org", c.profile.Organization).Debug("Disconnected from network")
}

func (c *Connection) run(fn string, args []string, commit bool) (payload []byte, err error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrConnectionClosed
	}
	if err := c.ctx.Err(); err != nil {
		return nil, err
	}

	g := c.gateway
	start := time.Now()
	defer func() {
		if g.metrics != nil {
			g.metrics.Observe(fn, err, time.Since(start))
		}
	}()

	tx := ledger.BeginAt(c.ctx, g.store, g.now())
	defer tx.Rollback()

	ctx := services.TxContext{
		Ledger: tx,
		Identity: identity.Static{
			MSPID: c.profile.MSPID,
			ID:    c.profile.RawIdentity(),
		},
	}

	payload, err = g.contract.Invoke(ctx, fn, args)
	if err != nil {
		return nil, err
	}

	if commit {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit %s: %w", fn, err)
		}
		g.log.WithFields(logrus.Fields{
			"operation": fn,
			"org":       c.profile.Organization,
			"tx_id":     tx.ID(),
		}).Info("Transaction committed")
	}
	return payload, nil
}
