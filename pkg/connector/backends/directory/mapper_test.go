package directory

import (
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attrflow/attrflow/pkg/errors"
)

func entry(dn string, attrs map[string][]string) *ldap.Entry {
	e := &ldap.Entry{DN: dn}
	for name, values := range attrs {
		e.Attributes = append(e.Attributes, &ldap.EntryAttribute{Name: name, Values: values})
	}
	return e
}

func TestEntryMapper(t *testing.T) {
	m := NewEntryMapper(nil)

	result, err := m.Map(&ldap.SearchResult{Entries: []*ldap.Entry{
		entry("uid=alice,ou=people,dc=example,dc=org", map[string][]string{
			"uid":  {"alice"},
			"mail": {"a@example.org", "alice@example.org"},
		}),
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"alice"}, result.Strings("uid"))
	assert.Equal(t, []string{"a@example.org", "alice@example.org"}, result.Strings("mail"))
}

func TestEntryMapperMultipleEntriesAppend(t *testing.T) {
	m := NewEntryMapper(nil)

	result, err := m.Map(&ldap.SearchResult{Entries: []*ldap.Entry{
		entry("cn=devs,ou=groups,dc=example,dc=org", map[string][]string{"cn": {"devs"}}),
		entry("cn=ops,ou=groups,dc=example,dc=org", map[string][]string{"cn": {"ops"}}),
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"devs", "ops"}, result.Strings("cn"))
}

func TestEntryMapperRename(t *testing.T) {
	m := NewEntryMapper(map[string]string{"mail": "email"})

	result, err := m.Map(&ldap.SearchResult{Entries: []*ldap.Entry{
		entry("uid=alice,ou=people,dc=example,dc=org", map[string][]string{
			"mail": {"a@example.org"},
		}),
	}})
	require.NoError(t, err)

	assert.False(t, result.Has("mail"))
	assert.Equal(t, []string{"a@example.org"}, result.Strings("email"))
}

func TestEntryMapperZeroEntries(t *testing.T) {
	m := NewEntryMapper(nil)

	result, err := m.Map(&ldap.SearchResult{})
	require.NoError(t, err)
	assert.True(t, result.IsEmpty())
}

func TestEntryMapperNilResult(t *testing.T) {
	m := NewEntryMapper(nil)

	_, err := m.Map(nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeMapping))
}
