package directory

import (
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attrflow/attrflow/pkg/attribute"
	"github.com/attrflow/attrflow/pkg/connector/core"
	"github.com/attrflow/attrflow/pkg/errors"
	"github.com/attrflow/attrflow/pkg/template"
)

func newBuilder(t *testing.T, filter string) *FilterBuilder {
	t.Helper()
	tmpl, err := template.Parse(filter)
	require.NoError(t, err)
	return NewFilterBuilder("ou=people,dc=example,dc=org", ldap.ScopeWholeSubtree, tmpl, []string{"uid", "mail"}, 0)
}

func TestBuildRendersFilter(t *testing.T) {
	b := newBuilder(t, "(&(uid={principal}))")
	rc := core.NewResolutionContext("alice", "req-1", nil)

	query, err := b.Build(rc)
	require.NoError(t, err)
	assert.Equal(t, "(&(uid=alice))", query.CacheKey())
}

func TestBuildDeterministicCacheKey(t *testing.T) {
	b := newBuilder(t, "(&(uid={principal})(dept={department}))")

	resolved := attribute.NewMap()
	resolved.AddStrings("department", "engineering")

	first, err := b.Build(core.NewResolutionContext("alice", "req-1", resolved))
	require.NoError(t, err)
	second, err := b.Build(core.NewResolutionContext("alice", "req-2", resolved))
	require.NoError(t, err)

	assert.Equal(t, first.CacheKey(), second.CacheKey())
	assert.Equal(t, "(&(uid=alice)(dept=engineering))", first.CacheKey())
}

func TestBuildEscapesSubstitutedValues(t *testing.T) {
	b := newBuilder(t, "(uid={principal})")
	rc := core.NewResolutionContext("al*ce)(cn=admin", "req-1", nil)

	query, err := b.Build(rc)
	require.NoError(t, err)

	// Metacharacters in values cannot alter the filter structure
	assert.Equal(t, `(uid=al\2ace\29\28cn=admin)`, query.CacheKey())
}

func TestBuildMissingPlaceholder(t *testing.T) {
	b := newBuilder(t, "(&(uid={principal})(dept={department}))")
	rc := core.NewResolutionContext("alice", "req-1", nil)

	_, err := b.Build(rc)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeQueryConstruction))
	assert.Contains(t, err.Error(), "department")
}

func TestBuildUsesUpstreamAttribute(t *testing.T) {
	b := newBuilder(t, "(manager={managerDN})")

	resolved := attribute.NewMap()
	resolved.AddStrings("managerDN", "uid=boss,ou=people,dc=example,dc=org")

	query, err := b.Build(core.NewResolutionContext("alice", "req-1", resolved))
	require.NoError(t, err)
	assert.Contains(t, query.CacheKey(), "uid=boss")
}
