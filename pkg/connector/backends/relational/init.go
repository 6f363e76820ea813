package relational

import (
	"database/sql"
	"strings"

	"github.com/attrflow/attrflow/pkg/config"
	"github.com/attrflow/attrflow/pkg/connector/core"
	"github.com/attrflow/attrflow/pkg/connector/orchestrator"
	"github.com/attrflow/attrflow/pkg/connector/registry"
	"github.com/attrflow/attrflow/pkg/errors"
	"github.com/attrflow/attrflow/pkg/template"
)

// BackendName is the registry name of the relational binding
const BackendName = "relational"

func init() {
	registry.MustRegister(BackendName, NewConnector)
}

// Connector is the relational instantiation of the shared orchestrator
type Connector = orchestrator.Connector[*sql.Conn, *RowSet]

// NewConnector assembles a relational connector from configuration.
// Recognized options:
//
//	statement        SQL template with {name} placeholders (required)
//	param_style      question (MySQL) or dollar (PostgreSQL); defaults
//	                 by driver
//	rename.<column>  map result column <column> to a different ID
func NewConnector(cfg *config.ConnectorConfig) (core.DataConnector, error) {
	rawStatement, err := cfg.RequireOption("statement")
	if err != nil {
		return nil, err
	}

	tmpl, err := template.Parse(rawStatement)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid statement template")
	}

	style, err := paramStyle(cfg)
	if err != nil {
		return nil, err
	}

	builder, err := NewStatementBuilder(tmpl, style)
	if err != nil {
		return nil, err
	}

	rename := make(map[string]string)
	for key, value := range cfg.Options {
		if name, ok := strings.CutPrefix(key, "rename."); ok {
			rename[name] = value
		}
	}

	provider := NewDBProvider(cfg)
	mapper := NewColumnMapper(rename)
	validator := NewPingValidator(provider)

	return orchestrator.New[*sql.Conn, *RowSet](cfg, provider, builder, mapper, validator), nil
}

// paramStyle resolves the bind-parameter style from the option or, absent
// that, from the driver name
func paramStyle(cfg *config.ConnectorConfig) (ParamStyle, error) {
	if raw, ok := cfg.Option("param_style"); ok && raw != "" {
		return ParamStyle(raw), nil
	}
	switch cfg.Connection.Driver {
	case "pgx", "postgres":
		return ParamStyleDollar, nil
	default:
		return ParamStyleQuestion, nil
	}
}
