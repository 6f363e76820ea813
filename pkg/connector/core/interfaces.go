// Package core defines the contracts of the attribute-resolution data
// connector framework. A connector composes four strategies behind a common
// lifecycle: a QueryBuilder turns a per-request ResolutionContext into an
// immutable ExecutableQuery, a ConnectionProvider leases a backend
// connection, the query runs against the lease, and a ResultMapper
// normalizes the backend-native result into an attribute map. A Validator
// provides the health check consulted at initialization and on demand.
//
// The contracts are generic over two backend-specific types: C, the leased
// connection handle, and R, the raw result. Backend bindings instantiate
// them (for example *ldap.Conn and *ldap.SearchResult for the directory
// binding) so no type assertions cross the framework boundary.
package core

import (
	"context"

	"github.com/attrflow/attrflow/pkg/attribute"
)

// ExecutableQuery is an immutable, ready-to-run query produced by a
// QueryBuilder. It must not retain a reference to any connection.
type ExecutableQuery[C any, R any] interface {
	// Execute runs the query against a leased connection. Failures are
	// execution errors; an exceeded deadline is a timeout error, never a
	// silent empty result.
	Execute(ctx context.Context, conn C) (R, error)

	// CacheKey returns a deterministic key: two contexts yielding equal
	// queries yield equal keys. Consumed by an external result cache.
	CacheKey() string
}

// QueryBuilder turns a resolution context into an executable query. Build
// must be a pure function of the context and static configuration: no I/O,
// and equal contexts always produce equal queries and cache keys. It fails
// with a query construction error when the context lacks a required value.
type QueryBuilder[C any, R any] interface {
	Build(rc *ResolutionContext) (ExecutableQuery[C, R], error)
}

// ConnectionProvider abstracts acquisition and release of backend
// connections. Its lifecycle (Init/Destroy) is owned by the connector that
// composes it but is distinct from the connector's own lifecycle.
//
// Implementations must be safe for concurrent Acquire/Release.
type ConnectionProvider[C any] interface {
	// Init establishes backend-wide resources such as the pool
	Init(ctx context.Context) error

	// Acquire leases a connection. It fails with a connection error if
	// the backend is unreachable or the pool is exhausted within the
	// configured acquire timeout.
	Acquire(ctx context.Context) (C, error)

	// Release returns a lease. It is idempotent and must never
	// propagate failures past this boundary; they are logged instead.
	Release(conn C)

	// Destroy releases backend-wide resources. Idempotent.
	Destroy() error

	// Stats reports current pool utilization
	Stats() PoolStats
}

// ResultMapper converts a raw backend result into a normalized attribute
// map. Mapping is total over the entries present: a raw result representing
// zero matches maps to an explicitly empty map, which is distinct from a
// mapping failure.
type ResultMapper[R any] interface {
	Map(raw R) (attribute.Map, error)
}

// Validator is a pluggable health check, run at start-up and on demand.
// Backend bindings provide a default (acquire a connection and trivially
// probe it); custom validators may be substituted.
type Validator interface {
	Validate(ctx context.Context) error
}

// ValidatorFunc adapts a function to the Validator interface
type ValidatorFunc func(ctx context.Context) error

// Validate implements Validator
func (f ValidatorFunc) Validate(ctx context.Context) error {
	return f(ctx)
}

// DataConnector is the backend-agnostic surface exposed to the resolver
// layer that schedules connectors per request.
type DataConnector interface {
	// ID returns the connector instance identifier
	ID() string

	// Backend returns the backend binding name
	Backend() string

	// Initialize moves the connector to Ready (or Failed under
	// fail-fast validation failure). Required strategies must be bound.
	Initialize(ctx context.Context) error

	// Validate re-runs the connector's health check; callable post-init
	Validate(ctx context.Context) error

	// Resolve retrieves attributes for the given resolution context.
	// Valid only in Ready.
	Resolve(ctx context.Context, rc *ResolutionContext) (attribute.Map, error)

	// Destroy releases backend-wide resources; further retrievals fail
	// with a state error
	Destroy(ctx context.Context) error

	// State returns the current lifecycle state
	State() LifecycleState
}

// PoolStats represents connection pool statistics
type PoolStats struct {
	Active   int
	Idle     int
	Total    int
	MaxSize  int
	Waits    int64
	Timeouts int64
}
