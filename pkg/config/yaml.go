package config

import (
	"time"

	"gopkg.in/yaml.v3"

	"github.com/attrflow/attrflow/pkg/errors"
)

// The pool, timeout and observability sections accept Go duration strings
// ("2s", "500ms") in YAML. Marshaling emits the same notation so saved
// files round-trip.

// UnmarshalYAML implements yaml.Unmarshaler
func (p *PoolConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		MaxOpen        int    `yaml:"max_open"`
		MinIdle        int    `yaml:"min_idle"`
		AcquireTimeout string `yaml:"acquire_timeout"`
		IdleTimeout    string `yaml:"idle_timeout"`
		MaxLifetime    string `yaml:"max_lifetime"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	p.MaxOpen = raw.MaxOpen
	p.MinIdle = raw.MinIdle

	var err error
	if p.AcquireTimeout, err = parseDuration(raw.AcquireTimeout); err != nil {
		return err
	}
	if p.IdleTimeout, err = parseDuration(raw.IdleTimeout); err != nil {
		return err
	}
	p.MaxLifetime, err = parseDuration(raw.MaxLifetime)
	return err
}

// MarshalYAML implements yaml.Marshaler
func (p PoolConfig) MarshalYAML() (interface{}, error) {
	return map[string]interface{}{
		"max_open":        p.MaxOpen,
		"min_idle":        p.MinIdle,
		"acquire_timeout": p.AcquireTimeout.String(),
		"idle_timeout":    p.IdleTimeout.String(),
		"max_lifetime":    p.MaxLifetime.String(),
	}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (t *TimeoutConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Query    string `yaml:"query"`
		Validate string `yaml:"validate"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	var err error
	if t.Query, err = parseDuration(raw.Query); err != nil {
		return err
	}
	t.Validate, err = parseDuration(raw.Validate)
	return err
}

// MarshalYAML implements yaml.Marshaler
func (t TimeoutConfig) MarshalYAML() (interface{}, error) {
	return map[string]interface{}{
		"query":    t.Query.String(),
		"validate": t.Validate.String(),
	}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (o *ObservabilityConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		EnableMetrics      bool   `yaml:"enable_metrics"`
		EnableTracing      bool   `yaml:"enable_tracing"`
		RevalidateInterval string `yaml:"revalidate_interval"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	o.EnableMetrics = raw.EnableMetrics
	o.EnableTracing = raw.EnableTracing

	var err error
	o.RevalidateInterval, err = parseDuration(raw.RevalidateInterval)
	return err
}

// MarshalYAML implements yaml.Marshaler
func (o ObservabilityConfig) MarshalYAML() (interface{}, error) {
	return map[string]interface{}{
		"enable_metrics":      o.EnableMetrics,
		"enable_tracing":      o.EnableTracing,
		"revalidate_interval": o.RevalidateInterval.String(),
	}, nil
}

// parseDuration parses a Go duration string; empty means zero
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeConfig, "invalid duration")
	}
	return d, nil
}
