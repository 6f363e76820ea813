package directory

import (
	"github.com/go-ldap/ldap/v3"

	"github.com/attrflow/attrflow/pkg/connector/core"
	"github.com/attrflow/attrflow/pkg/template"
)

// FilterBuilder renders a search filter template against the resolution
// context. Substituted values are escaped per RFC 4515 so a principal value
// can never alter the filter structure. Build is a pure function of the
// context and this static configuration.
type FilterBuilder struct {
	baseDN     string
	scope      int
	filterTmpl *template.Template
	attributes []string
	sizeLimit  int
}

// NewFilterBuilder creates a directory query builder
func NewFilterBuilder(baseDN string, scope int, filterTmpl *template.Template, attributes []string, sizeLimit int) *FilterBuilder {
	return &FilterBuilder{
		baseDN:     baseDN,
		scope:      scope,
		filterTmpl: filterTmpl,
		attributes: attributes,
		sizeLimit:  sizeLimit,
	}
}

// Build renders the filter. It fails with a query construction error when
// the context lacks a value for any placeholder; no partially-built query
// is ever returned.
func (b *FilterBuilder) Build(rc *core.ResolutionContext) (core.ExecutableQuery[*ldap.Conn, *ldap.SearchResult], error) {
	values := make(map[string]string)
	for _, name := range b.filterTmpl.Names() {
		value, ok := rc.SubstitutionValue(name)
		if !ok {
			// Render reports the missing placeholder
			break
		}
		values[name] = value
	}

	filter, err := b.filterTmpl.Render(values, ldap.EscapeFilter)
	if err != nil {
		return nil, err
	}

	return &SearchQuery{
		baseDN:     b.baseDN,
		scope:      b.scope,
		filter:     filter,
		attributes: b.attributes,
		sizeLimit:  b.sizeLimit,
	}, nil
}
