// Package testutil provides in-memory connector strategy fakes for
// exercising the orchestrator and registry without a live backend.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/attrflow/attrflow/pkg/attribute"
	"github.com/attrflow/attrflow/pkg/config"
	"github.com/attrflow/attrflow/pkg/connector/core"
)

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// TestConfig creates a validated in-memory connector configuration
func TestConfig(id, backend string) *config.ConnectorConfig {
	cfg := config.New(id, backend)
	cfg.Connection.URL = "fake://localhost"
	return cfg
}

// Conn is the fake leased connection type
type Conn struct {
	Seq int
}

// Raw is the fake raw result type. Attrs feeds the fake mapper.
type Raw struct {
	Attrs map[string][]string
}

// FakeProvider implements core.ConnectionProvider over in-memory
// connections, counting every call so tests can assert lease discipline.
type FakeProvider struct {
	InitErr    error
	AcquireErr error
	DestroyErr error

	mu       sync.Mutex
	seq      int
	inits    int
	acquires int
	releases int
	destroys int
}

func (p *FakeProvider) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inits++
	return p.InitErr
}

func (p *FakeProvider) Acquire(ctx context.Context) (*Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.AcquireErr != nil {
		return nil, p.AcquireErr
	}
	p.seq++
	p.acquires++
	return &Conn{Seq: p.seq}, nil
}

func (p *FakeProvider) Release(conn *Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releases++
}

func (p *FakeProvider) Destroy() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroys++
	return p.DestroyErr
}

func (p *FakeProvider) Stats() core.PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return core.PoolStats{
		Active:  p.acquires - p.releases,
		MaxSize: 1,
	}
}

// Counts returns (inits, acquires, releases, destroys)
func (p *FakeProvider) Counts() (int, int, int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inits, p.acquires, p.releases, p.destroys
}

// FakeQuery implements core.ExecutableQuery, returning a fixed result
type FakeQuery struct {
	Key     string
	Result  *Raw
	ExecErr error

	mu    sync.Mutex
	execs int
}

func (q *FakeQuery) CacheKey() string {
	return q.Key
}

func (q *FakeQuery) Execute(ctx context.Context, conn *Conn) (*Raw, error) {
	q.mu.Lock()
	q.execs++
	q.mu.Unlock()
	if q.ExecErr != nil {
		return nil, q.ExecErr
	}
	return q.Result, nil
}

// Execs returns how many times the query ran
func (q *FakeQuery) Execs() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.execs
}

// FakeBuilder implements core.QueryBuilder, handing out a fixed query
type FakeBuilder struct {
	Query    *FakeQuery
	BuildErr error
}

func (b *FakeBuilder) Build(rc *core.ResolutionContext) (core.ExecutableQuery[*Conn, *Raw], error) {
	if b.BuildErr != nil {
		return nil, b.BuildErr
	}
	return b.Query, nil
}

// FakeMapper implements core.ResultMapper over Raw.Attrs
type FakeMapper struct {
	MapErr error
}

func (m *FakeMapper) Map(raw *Raw) (attribute.Map, error) {
	if m.MapErr != nil {
		return nil, m.MapErr
	}
	result := attribute.NewMap()
	for id, values := range raw.Attrs {
		result.AddStrings(id, values...)
	}
	return result, nil
}

// FakeValidator implements core.Validator, failing with the queued errors
// in order and then succeeding.
type FakeValidator struct {
	mu    sync.Mutex
	queue []error
	calls int
}

// FailNext queues validation failures to return before succeeding
func (v *FakeValidator) FailNext(errs ...error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.queue = append(v.queue, errs...)
}

func (v *FakeValidator) Validate(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	if len(v.queue) > 0 {
		err := v.queue[0]
		v.queue = v.queue[1:]
		return err
	}
	return nil
}

// Calls returns how many times the validator ran
func (v *FakeValidator) Calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}
