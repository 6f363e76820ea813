// Package config provides the unified configuration system for attrflow
// data connectors. It defines a single ConnectorConfig structure that all
// backend bindings use, organized into logical sections:
//
//   - Connection: addresses and credentials for the backend store
//   - Pool: connection pool sizing and lease timeouts
//   - Timeouts: per-call query and validation deadlines
//   - Policy: no-result and fail-fast behavior
//   - Observability: metrics, tracing, periodic revalidation
//   - Options: backend-specific settings (query templates, base DNs, keys)
//
// A ConnectorConfig is mutable while a connector is being assembled and is
// frozen when the connector initializes. Mutating a frozen configuration
// through its setters fails with a state error.
package config

import (
	"sync/atomic"
	"time"

	"github.com/attrflow/attrflow/pkg/errors"
)

// ConnectorConfig is the configuration for a single data connector instance
type ConnectorConfig struct {
	// ID identifies the connector instance; used as the logging and
	// metrics key
	ID string `yaml:"id" json:"id"`
	// Backend names the backend binding (directory, relational,
	// keyvalue, document)
	Backend string `yaml:"backend" json:"backend"`

	Connection    ConnectionConfig    `yaml:"connection" json:"connection"`
	Pool          PoolConfig          `yaml:"pool" json:"pool"`
	Timeouts      TimeoutConfig       `yaml:"timeouts" json:"timeouts"`
	Policy        PolicyConfig        `yaml:"policy" json:"policy"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`

	// Options carries backend-specific settings such as query templates,
	// search base DNs and key patterns
	Options map[string]string `yaml:"options" json:"options"`

	frozen atomic.Bool
}

// ConnectionConfig contains backend address and credential settings
type ConnectionConfig struct {
	// URL is the backend address (ldap://, postgres://, redis://,
	// mongodb:// or a driver DSN)
	URL string `yaml:"url" json:"url"`
	// Driver selects the database/sql driver for the relational backend
	Driver string `yaml:"driver" json:"driver"`
	// Credentials stores authentication material (use env substitution
	// in config files rather than literals)
	Credentials map[string]string `yaml:"credentials" json:"credentials"`
	// EnableTLS enables TLS for backends where it is optional
	EnableTLS bool `yaml:"enable_tls" json:"enable_tls"`
	// TLSSkipVerify disables certificate verification (insecure)
	TLSSkipVerify bool `yaml:"tls_skip_verify" json:"tls_skip_verify"`
}

// PoolConfig contains connection pool settings
type PoolConfig struct {
	// MaxOpen limits concurrently leased connections
	MaxOpen int `yaml:"max_open" json:"max_open"`
	// MinIdle keeps warm connections ready
	MinIdle int `yaml:"min_idle" json:"min_idle"`
	// AcquireTimeout bounds the wait for a lease; exhausting it is a
	// connection error, not a silent hang
	AcquireTimeout time.Duration `yaml:"acquire_timeout" json:"acquire_timeout"`
	// IdleTimeout closes connections idle longer than this
	IdleTimeout time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	// MaxLifetime recycles connections older than this
	MaxLifetime time.Duration `yaml:"max_lifetime" json:"max_lifetime"`
}

// TimeoutConfig contains per-call deadlines
type TimeoutConfig struct {
	// Query bounds a single query execution; exceeding it is a timeout
	// error, never a silent empty result
	Query time.Duration `yaml:"query" json:"query"`
	// Validate bounds a single health-check probe
	Validate time.Duration `yaml:"validate" json:"validate"`
}

// PolicyConfig contains the behavioral policy flags of the connector
type PolicyConfig struct {
	// NoResultIsError reports zero matches as an error instead of an
	// empty attribute map
	NoResultIsError bool `yaml:"no_result_is_error" json:"no_result_is_error"`
	// FailFastInitialize aborts initialization when the validator fails;
	// otherwise the connector starts degraded and revalidates on first use
	FailFastInitialize bool `yaml:"fail_fast_initialize" json:"fail_fast_initialize"`
}

// ObservabilityConfig contains monitoring settings
type ObservabilityConfig struct {
	// EnableMetrics activates Prometheus metrics for this connector
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
	// EnableTracing activates OpenTelemetry spans per retrieval
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
	// RevalidateInterval re-runs the validator periodically after
	// initialization; zero disables the runner
	RevalidateInterval time.Duration `yaml:"revalidate_interval" json:"revalidate_interval"`
}

// New creates a ConnectorConfig with defaults applied
func New(id, backend string) *ConnectorConfig {
	cfg := &ConnectorConfig{
		ID:      id,
		Backend: backend,
		Options: make(map[string]string),
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued settings with defaults
func (c *ConnectorConfig) ApplyDefaults() {
	if c.Pool.MaxOpen <= 0 {
		c.Pool.MaxOpen = 10
	}
	if c.Pool.MinIdle < 0 {
		c.Pool.MinIdle = 0
	}
	if c.Pool.AcquireTimeout <= 0 {
		c.Pool.AcquireTimeout = 5 * time.Second
	}
	if c.Pool.IdleTimeout <= 0 {
		c.Pool.IdleTimeout = 5 * time.Minute
	}
	if c.Pool.MaxLifetime <= 0 {
		c.Pool.MaxLifetime = time.Hour
	}
	if c.Timeouts.Query <= 0 {
		c.Timeouts.Query = 10 * time.Second
	}
	if c.Timeouts.Validate <= 0 {
		c.Timeouts.Validate = 5 * time.Second
	}
	if c.Options == nil {
		c.Options = make(map[string]string)
	}
}

// Validate checks the configuration for structural problems
func (c *ConnectorConfig) Validate() error {
	if c.ID == "" {
		return errors.New(errors.ErrorTypeConfig, "connector id is required")
	}
	if c.Backend == "" {
		return errors.New(errors.ErrorTypeConfig, "backend is required")
	}
	if c.Connection.URL == "" {
		return errors.New(errors.ErrorTypeConfig, "connection url is required").
			WithDetail("connector", c.ID)
	}
	if c.Pool.MinIdle > c.Pool.MaxOpen {
		return errors.Newf(errors.ErrorTypeConfig,
			"pool min_idle %d exceeds max_open %d", c.Pool.MinIdle, c.Pool.MaxOpen).
			WithDetail("connector", c.ID)
	}
	return nil
}

// Freeze marks the configuration immutable. Called by the connector at
// initialization; idempotent.
func (c *ConnectorConfig) Freeze() {
	c.frozen.Store(true)
}

// Frozen reports whether the configuration has been finalized
func (c *ConnectorConfig) Frozen() bool {
	return c.frozen.Load()
}

func (c *ConnectorConfig) ensureMutable() error {
	if c.frozen.Load() {
		return errors.Newf(errors.ErrorTypeState,
			"configuration of connector %q is frozen", c.ID)
	}
	return nil
}

// SetOption sets a backend-specific option; fails once frozen
func (c *ConnectorConfig) SetOption(key, value string) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	if c.Options == nil {
		c.Options = make(map[string]string)
	}
	c.Options[key] = value
	return nil
}

// Option returns a backend-specific option value
func (c *ConnectorConfig) Option(key string) (string, bool) {
	v, ok := c.Options[key]
	return v, ok
}

// RequireOption returns an option value or a config error naming the key
func (c *ConnectorConfig) RequireOption(key string) (string, error) {
	v, ok := c.Options[key]
	if !ok || v == "" {
		return "", errors.Newf(errors.ErrorTypeConfig,
			"option %q is required for connector %q", key, c.ID)
	}
	return v, nil
}

// SetNoResultIsError sets the no-result policy; fails once frozen
func (c *ConnectorConfig) SetNoResultIsError(v bool) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	c.Policy.NoResultIsError = v
	return nil
}

// SetFailFastInitialize sets the fail-fast policy; fails once frozen
func (c *ConnectorConfig) SetFailFastInitialize(v bool) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	c.Policy.FailFastInitialize = v
	return nil
}

// SetQueryTimeout sets the execution deadline; fails once frozen
func (c *ConnectorConfig) SetQueryTimeout(d time.Duration) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	c.Timeouts.Query = d
	return nil
}
