package directory

import (
	"strconv"
	"strings"

	"github.com/go-ldap/ldap/v3"

	"github.com/attrflow/attrflow/pkg/config"
	"github.com/attrflow/attrflow/pkg/connector/core"
	"github.com/attrflow/attrflow/pkg/connector/orchestrator"
	"github.com/attrflow/attrflow/pkg/connector/registry"
	"github.com/attrflow/attrflow/pkg/errors"
	"github.com/attrflow/attrflow/pkg/template"
)

// BackendName is the registry name of the directory binding
const BackendName = "directory"

func init() {
	registry.MustRegister(BackendName, NewConnector)
}

// Connector is the directory instantiation of the shared orchestrator
type Connector = orchestrator.Connector[*ldap.Conn, *ldap.SearchResult]

// NewConnector assembles a directory connector from configuration.
// Recognized options:
//
//	base_dn          search base (required)
//	filter           filter template with {name} placeholders (required)
//	attributes       comma-separated directory attributes to return
//	scope            base, one or sub (default sub)
//	size_limit       maximum entries per search (default 0, no limit)
//	rename.<attr>    map directory attribute <attr> to a different ID
func NewConnector(cfg *config.ConnectorConfig) (core.DataConnector, error) {
	baseDN, err := cfg.RequireOption("base_dn")
	if err != nil {
		return nil, err
	}
	rawFilter, err := cfg.RequireOption("filter")
	if err != nil {
		return nil, err
	}

	filterTmpl, err := template.Parse(rawFilter)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid filter template")
	}

	scope, err := parseScope(cfg)
	if err != nil {
		return nil, err
	}

	var attributes []string
	if raw, ok := cfg.Option("attributes"); ok && raw != "" {
		for _, a := range strings.Split(raw, ",") {
			attributes = append(attributes, strings.TrimSpace(a))
		}
	}

	sizeLimit := 0
	if raw, ok := cfg.Option("size_limit"); ok && raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 0 {
			return nil, errors.Newf(errors.ErrorTypeConfig,
				"invalid size_limit %q", raw)
		}
		sizeLimit = n
	}

	rename := make(map[string]string)
	for key, value := range cfg.Options {
		if name, ok := strings.CutPrefix(key, "rename."); ok {
			rename[name] = value
		}
	}

	provider := NewPooledProvider(cfg)
	builder := NewFilterBuilder(baseDN, scope, filterTmpl, attributes, sizeLimit)
	mapper := NewEntryMapper(rename)
	validator := NewProbeValidator(provider, baseDN)

	return orchestrator.New[*ldap.Conn, *ldap.SearchResult](cfg, provider, builder, mapper, validator), nil
}

func parseScope(cfg *config.ConnectorConfig) (int, error) {
	raw, ok := cfg.Option("scope")
	if !ok || raw == "" {
		return ldap.ScopeWholeSubtree, nil
	}
	switch raw {
	case "base":
		return ldap.ScopeBaseObject, nil
	case "one":
		return ldap.ScopeSingleLevel, nil
	case "sub":
		return ldap.ScopeWholeSubtree, nil
	default:
		return 0, errors.Newf(errors.ErrorTypeConfig, "invalid search scope %q", raw)
	}
}
