package relational

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attrflow/attrflow/pkg/errors"
)

func ns(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func TestColumnMapperSingleRow(t *testing.T) {
	m := NewColumnMapper(nil)

	result, err := m.Map(&RowSet{
		Columns: []string{"uid", "mail", "cn"},
		Rows: [][]sql.NullString{
			{ns("alice"), ns("a@example.org"), ns("Alice A")},
		},
	})
	require.NoError(t, err)

	// Every column of a non-empty result becomes an attribute
	assert.Equal(t, []string{"alice"}, result.Strings("uid"))
	assert.Equal(t, []string{"a@example.org"}, result.Strings("mail"))
	assert.Equal(t, []string{"Alice A"}, result.Strings("cn"))
}

func TestColumnMapperMultiRowAppends(t *testing.T) {
	m := NewColumnMapper(nil)

	result, err := m.Map(&RowSet{
		Columns: []string{"group_name"},
		Rows: [][]sql.NullString{
			{ns("devs")},
			{ns("ops")},
			{ns("oncall")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"devs", "ops", "oncall"}, result.Strings("group_name"))
}

func TestColumnMapperNullSkipped(t *testing.T) {
	m := NewColumnMapper(nil)

	result, err := m.Map(&RowSet{
		Columns: []string{"uid", "mail"},
		Rows: [][]sql.NullString{
			{ns("alice"), {}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"alice"}, result.Strings("uid"))
	assert.False(t, result.Has("mail"))
}

func TestColumnMapperRename(t *testing.T) {
	m := NewColumnMapper(map[string]string{"mail": "email"})

	result, err := m.Map(&RowSet{
		Columns: []string{"mail"},
		Rows:    [][]sql.NullString{{ns("a@example.org")}},
	})
	require.NoError(t, err)

	assert.False(t, result.Has("mail"))
	assert.Equal(t, []string{"a@example.org"}, result.Strings("email"))
}

func TestColumnMapperZeroRows(t *testing.T) {
	m := NewColumnMapper(nil)

	result, err := m.Map(&RowSet{Columns: []string{"uid", "mail"}})
	require.NoError(t, err)
	assert.True(t, result.IsEmpty())
}

func TestColumnMapperShapeMismatch(t *testing.T) {
	m := NewColumnMapper(nil)

	_, err := m.Map(&RowSet{
		Columns: []string{"uid", "mail"},
		Rows:    [][]sql.NullString{{ns("alice")}},
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeMapping))
}

func TestColumnMapperNilRowSet(t *testing.T) {
	m := NewColumnMapper(nil)

	_, err := m.Map(nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeMapping))
}
