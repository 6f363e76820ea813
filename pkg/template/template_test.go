package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attrflow/attrflow/pkg/errors"
)

func TestParse(t *testing.T) {
	tmpl, err := Parse("(&(uid={principal})(dept={department}))")
	require.NoError(t, err)

	assert.Equal(t, []string{"principal", "department"}, tmpl.Names())
	assert.Equal(t, "(&(uid={principal})(dept={department}))", tmpl.Raw())
}

func TestParseDuplicateNames(t *testing.T) {
	tmpl, err := Parse("{a} and {b} and {a}")
	require.NoError(t, err)

	// Duplicates kept, in order of appearance
	assert.Equal(t, []string{"a", "b", "a"}, tmpl.Names())
}

func TestParseNoPlaceholders(t *testing.T) {
	tmpl, err := Parse("(objectClass=person)")
	require.NoError(t, err)

	assert.Empty(t, tmpl.Names())

	out, err := tmpl.Render(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "(objectClass=person)", out)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unclosed placeholder", "(uid={principal"},
		{"stray closer", "(uid=principal})"},
		{"empty placeholder", "(uid={})"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeQueryConstruction))
		})
	}
}

func TestRender(t *testing.T) {
	tmpl := MustParse("user:{principal}:attrs")

	out, err := tmpl.Render(map[string]string{"principal": "alice"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "user:alice:attrs", out)
}

func TestRenderMissingValue(t *testing.T) {
	tmpl := MustParse("(uid={principal})")

	_, err := tmpl.Render(map[string]string{}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeQueryConstruction))
	assert.Contains(t, err.Error(), "principal")
}

func TestRenderEscapesValuesOnly(t *testing.T) {
	tmpl := MustParse("(uid={principal})")
	upper := strings.ToUpper

	// Literal text is untouched, substituted values pass the escape hook
	out, err := tmpl.Render(map[string]string{"principal": "alice"}, upper)
	require.NoError(t, err)
	assert.Equal(t, "(uid=ALICE)", out)
}

func TestRenderDeterministic(t *testing.T) {
	tmpl := MustParse("SELECT * FROM users WHERE uid = {principal} AND dept = {department}")
	values := map[string]string{"principal": "alice", "department": "eng"}

	first, err := tmpl.Render(values, nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := tmpl.Render(values, nil)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("{") })
}
