package attribute

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueString(t *testing.T) {
	assert.Equal(t, "alice", String("alice").String())
	assert.Equal(t, "raw-bytes", Bytes([]byte("raw-bytes")).String())
}

func TestMapAddAndGet(t *testing.T) {
	m := NewMap()
	m.AddStrings("mail", "a@example.org")
	m.AddStrings("mail", "b@example.org")

	assert.Equal(t, []string{"a@example.org", "b@example.org"}, m.Strings("mail"))
	assert.True(t, m.Has("mail"))
	assert.False(t, m.Has("uid"))
	assert.Nil(t, m.Get("uid"))
}

func TestMapValueOrderPreserved(t *testing.T) {
	m := NewMap()
	m.AddStrings("member", "c", "a", "b")

	assert.Equal(t, []string{"c", "a", "b"}, m.Strings("member"))
}

func TestMapIsEmpty(t *testing.T) {
	m := NewMap()
	assert.True(t, m.IsEmpty())

	m.AddStrings("uid", "alice")
	assert.False(t, m.IsEmpty())
}

func TestMapIDsSorted(t *testing.T) {
	m := NewMap()
	m.AddStrings("uid", "alice")
	m.AddStrings("cn", "Alice A")
	m.AddStrings("mail", "a@example.org")

	assert.Equal(t, []string{"cn", "mail", "uid"}, m.IDs())
}

func TestMapClone(t *testing.T) {
	m := NewMap()
	m.AddStrings("uid", "alice")

	clone := m.Clone()
	clone.AddStrings("uid", "bob")
	clone.AddStrings("cn", "Bob B")

	assert.Equal(t, []string{"alice"}, m.Strings("uid"))
	assert.False(t, m.Has("cn"))
	assert.Equal(t, []string{"alice", "bob"}, clone.Strings("uid"))
}

func TestMapMerge(t *testing.T) {
	m := NewMap()
	m.AddStrings("uid", "alice")

	other := NewMap()
	other.AddStrings("uid", "alice-alt")
	other.AddStrings("mail", "a@example.org")

	m.Merge(other)
	assert.Equal(t, []string{"alice", "alice-alt"}, m.Strings("uid"))
	assert.Equal(t, []string{"a@example.org"}, m.Strings("mail"))
}
