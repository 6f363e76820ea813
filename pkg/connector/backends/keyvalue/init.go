package keyvalue

import (
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/attrflow/attrflow/pkg/config"
	"github.com/attrflow/attrflow/pkg/connector/core"
	"github.com/attrflow/attrflow/pkg/connector/orchestrator"
	"github.com/attrflow/attrflow/pkg/connector/registry"
	"github.com/attrflow/attrflow/pkg/errors"
	"github.com/attrflow/attrflow/pkg/template"
)

// BackendName is the registry name of the storage-service binding
const BackendName = "keyvalue"

func init() {
	registry.MustRegister(BackendName, NewConnector)
}

// Connector is the storage-service instantiation of the shared orchestrator
type Connector = orchestrator.Connector[*redis.Client, *Record]

// NewConnector assembles a storage-service connector from configuration.
// Recognized options:
//
//	key             storage key template with {name} placeholders (required)
//	record_format   json (default) or hash
//	rename.<field>  map record field <field> to a different ID
func NewConnector(cfg *config.ConnectorConfig) (core.DataConnector, error) {
	rawKey, err := cfg.RequireOption("key")
	if err != nil {
		return nil, err
	}

	keyTmpl, err := template.Parse(rawKey)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid key template")
	}

	format := FormatJSON
	if raw, ok := cfg.Option("record_format"); ok && raw != "" {
		switch RecordFormat(raw) {
		case FormatJSON, FormatHash:
			format = RecordFormat(raw)
		default:
			return nil, errors.Newf(errors.ErrorTypeConfig,
				"unknown record_format %q, want json or hash", raw)
		}
	}

	rename := make(map[string]string)
	for key, value := range cfg.Options {
		if name, ok := strings.CutPrefix(key, "rename."); ok {
			rename[name] = value
		}
	}

	provider := NewClientProvider(cfg)
	builder := NewKeyBuilder(keyTmpl, format)
	mapper := NewRecordMapper(rename)
	validator := NewPingValidator(provider)

	return orchestrator.New[*redis.Client, *Record](cfg, provider, builder, mapper, validator), nil
}
