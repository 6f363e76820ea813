package document

import (
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/attrflow/attrflow/pkg/config"
	"github.com/attrflow/attrflow/pkg/connector/core"
	"github.com/attrflow/attrflow/pkg/connector/orchestrator"
	"github.com/attrflow/attrflow/pkg/connector/registry"
	"github.com/attrflow/attrflow/pkg/errors"
	"github.com/attrflow/attrflow/pkg/template"
)

// BackendName is the registry name of the document-store binding
const BackendName = "document"

func init() {
	registry.MustRegister(BackendName, NewConnector)
}

// Connector is the document-store instantiation of the shared orchestrator
type Connector = orchestrator.Connector[*mongo.Client, *DocumentResult]

// NewConnector assembles a document-store connector from configuration.
// Recognized options:
//
//	database        database name (required)
//	collection      collection name (required)
//	match_field     document field the lookup matches on (required)
//	match           match-value template with {name} placeholders (required)
//	rename.<field>  map document field <field> to a different ID
func NewConnector(cfg *config.ConnectorConfig) (core.DataConnector, error) {
	database, err := cfg.RequireOption("database")
	if err != nil {
		return nil, err
	}
	collection, err := cfg.RequireOption("collection")
	if err != nil {
		return nil, err
	}
	field, err := cfg.RequireOption("match_field")
	if err != nil {
		return nil, err
	}
	rawMatch, err := cfg.RequireOption("match")
	if err != nil {
		return nil, err
	}

	matchTmpl, err := template.Parse(rawMatch)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid match template")
	}

	rename := make(map[string]string)
	for key, value := range cfg.Options {
		if name, ok := strings.CutPrefix(key, "rename."); ok {
			rename[name] = value
		}
	}

	provider := NewClientProvider(cfg)
	builder := NewMatchBuilder(database, collection, field, matchTmpl)
	mapper := NewFieldMapper(rename)
	validator := NewPingValidator(provider)

	return orchestrator.New[*mongo.Client, *DocumentResult](cfg, provider, builder, mapper, validator), nil
}
