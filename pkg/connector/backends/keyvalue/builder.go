package keyvalue

import (
	"github.com/redis/go-redis/v9"

	"github.com/attrflow/attrflow/pkg/connector/core"
	"github.com/attrflow/attrflow/pkg/template"
)

// KeyBuilder renders the storage key template against the resolution
// context. Build is a pure function of the context and this static
// configuration.
type KeyBuilder struct {
	keyTmpl *template.Template
	format  RecordFormat
}

// NewKeyBuilder creates a storage-service query builder
func NewKeyBuilder(keyTmpl *template.Template, format RecordFormat) *KeyBuilder {
	return &KeyBuilder{keyTmpl: keyTmpl, format: format}
}

// Build renders the storage key. A placeholder the context cannot satisfy
// is a query construction error.
func (b *KeyBuilder) Build(rc *core.ResolutionContext) (core.ExecutableQuery[*redis.Client, *Record], error) {
	values := make(map[string]string)
	for _, name := range b.keyTmpl.Names() {
		if value, ok := rc.SubstitutionValue(name); ok {
			values[name] = value
		}
	}

	key, err := b.keyTmpl.Render(values, nil)
	if err != nil {
		return nil, err
	}

	return &LookupQuery{key: key, format: b.format}, nil
}
