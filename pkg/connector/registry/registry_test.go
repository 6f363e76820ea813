package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attrflow/attrflow/pkg/attribute"
	"github.com/attrflow/attrflow/pkg/config"
	"github.com/attrflow/attrflow/pkg/connector/core"
	"github.com/attrflow/attrflow/pkg/errors"
)

// stubConnector is a minimal DataConnector for factory wiring tests
type stubConnector struct {
	cfg *config.ConnectorConfig
}

func (s *stubConnector) ID() string                        { return s.cfg.ID }
func (s *stubConnector) Backend() string                   { return s.cfg.Backend }
func (s *stubConnector) Initialize(context.Context) error  { return nil }
func (s *stubConnector) Validate(context.Context) error    { return nil }
func (s *stubConnector) Destroy(context.Context) error     { return nil }
func (s *stubConnector) State() core.LifecycleState        { return core.StateUninitialized }
func (s *stubConnector) Resolve(ctx context.Context, rc *core.ResolutionContext) (attribute.Map, error) {
	return attribute.NewMap(), nil
}

func stubFactory(cfg *config.ConnectorConfig) (core.DataConnector, error) {
	return &stubConnector{cfg: cfg}, nil
}

func TestRegisterAndCreate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("stub", stubFactory))

	cfg := config.New("test-conn", "stub")
	conn, err := r.Create(cfg)
	require.NoError(t, err)
	assert.Equal(t, "test-conn", conn.ID())
	assert.Equal(t, "stub", conn.Backend())
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("stub", stubFactory))

	err := r.Register("stub", stubFactory)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestCreateUnknownBackend(t *testing.T) {
	r := NewRegistry()

	_, err := r.Create(config.New("test-conn", "nonexistent"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestCreateWrapsFactoryError(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("failing", func(cfg *config.ConnectorConfig) (core.DataConnector, error) {
		return nil, errors.New(errors.ErrorTypeConfig, "missing option")
	}))

	_, err := r.Create(config.New("test-conn", "failing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test-conn")
}

func TestListSorted(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("relational", stubFactory))
	require.NoError(t, r.Register("directory", stubFactory))
	require.NoError(t, r.Register("keyvalue", stubFactory))

	assert.Equal(t, []string{"directory", "keyvalue", "relational"}, r.List())
}

func TestHasAndClear(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("stub", stubFactory))
	assert.True(t, r.Has("stub"))

	r.Clear()
	assert.False(t, r.Has("stub"))
	assert.Empty(t, r.List())
}
