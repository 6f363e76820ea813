package directory

import (
	"github.com/go-ldap/ldap/v3"

	"github.com/attrflow/attrflow/pkg/attribute"
	"github.com/attrflow/attrflow/pkg/errors"
)

// EntryMapper converts directory search entries into an attribute map.
// Every attribute of every entry is reflected; values keep the order the
// directory returned them in, and multiple entries append. An optional
// rename table maps directory attribute names to attribute identifiers.
type EntryMapper struct {
	rename map[string]string
}

// NewEntryMapper creates a mapper. rename may be nil, in which case
// directory attribute names are used as attribute identifiers directly.
func NewEntryMapper(rename map[string]string) *EntryMapper {
	return &EntryMapper{rename: rename}
}

// Map normalizes a search result. Zero entries map to an explicitly empty
// attribute map, which is distinct from a mapping failure.
func (m *EntryMapper) Map(raw *ldap.SearchResult) (attribute.Map, error) {
	if raw == nil {
		return nil, errors.New(errors.ErrorTypeMapping, "nil directory search result")
	}

	result := attribute.NewMap()
	for _, entry := range raw.Entries {
		for _, attr := range entry.Attributes {
			id := attr.Name
			if renamed, ok := m.rename[attr.Name]; ok {
				id = renamed
			}
			result.AddStrings(id, attr.Values...)
		}
	}

	return result, nil
}
