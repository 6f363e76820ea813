package document

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/attrflow/attrflow/pkg/connector/core"
	"github.com/attrflow/attrflow/pkg/template"
)

// MatchBuilder renders the match-value template against the resolution
// context and pairs it with the configured match field. Build is a pure
// function of the context and this static configuration.
type MatchBuilder struct {
	database   string
	collection string
	field      string
	matchTmpl  *template.Template
}

// NewMatchBuilder creates a document-store query builder
func NewMatchBuilder(database, collection, field string, matchTmpl *template.Template) *MatchBuilder {
	return &MatchBuilder{
		database:   database,
		collection: collection,
		field:      field,
		matchTmpl:  matchTmpl,
	}
}

// Build renders the match value. A placeholder the context cannot satisfy
// is a query construction error.
func (b *MatchBuilder) Build(rc *core.ResolutionContext) (core.ExecutableQuery[*mongo.Client, *DocumentResult], error) {
	values := make(map[string]string)
	for _, name := range b.matchTmpl.Names() {
		if value, ok := rc.SubstitutionValue(name); ok {
			values[name] = value
		}
	}

	value, err := b.matchTmpl.Render(values, nil)
	if err != nil {
		return nil, err
	}

	return &FindQuery{
		database:   b.database,
		collection: b.collection,
		field:      b.field,
		value:      value,
	}, nil
}
