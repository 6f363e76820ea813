package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/attrflow/attrflow/pkg/attribute"
)

func TestResolutionContextAccessors(t *testing.T) {
	resolved := attribute.NewMap()
	resolved.AddStrings("department", "engineering")

	rc := NewResolutionContext("alice", "req-42", resolved)

	assert.Equal(t, "alice", rc.Principal())
	assert.Equal(t, "req-42", rc.RequestID())
	assert.Equal(t, []string{"department"}, rc.AttributeIDs())
}

func TestResolutionContextCopiesUpstream(t *testing.T) {
	resolved := attribute.NewMap()
	resolved.AddStrings("department", "engineering")

	rc := NewResolutionContext("alice", "req-42", resolved)

	// Caller mutation after construction does not leak in
	resolved.AddStrings("department", "sales")
	resolved.AddStrings("title", "director")

	value, ok := rc.SubstitutionValue("department")
	assert.True(t, ok)
	assert.Equal(t, "engineering", value)
	assert.Empty(t, rc.Attribute("title"))
}

func TestSubstitutionValue(t *testing.T) {
	resolved := attribute.NewMap()
	resolved.AddStrings("department", "engineering", "platform")

	rc := NewResolutionContext("alice", "req-42", resolved)

	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"principal", "alice", true},
		{"department", "engineering", true}, // first value wins
		{"missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := rc.SubstitutionValue(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubstitutionValueEmptyPrincipal(t *testing.T) {
	rc := NewResolutionContext("", "req-42", nil)

	_, ok := rc.SubstitutionValue("principal")
	assert.False(t, ok)
}
