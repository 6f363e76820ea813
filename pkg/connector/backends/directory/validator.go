package directory

import (
	"context"

	"github.com/go-ldap/ldap/v3"

	"github.com/attrflow/attrflow/pkg/errors"
)

// ProbeValidator is the default directory health check: acquire a
// connection and read the search base as a base-scope object. Custom
// validators may be substituted through the orchestrator.
type ProbeValidator struct {
	provider *PooledProvider
	baseDN   string
}

// NewProbeValidator creates the default directory validator
func NewProbeValidator(provider *PooledProvider, baseDN string) *ProbeValidator {
	return &ProbeValidator{provider: provider, baseDN: baseDN}
}

// Validate acquires a connection and probes the search base
func (v *ProbeValidator) Validate(ctx context.Context) error {
	conn, err := v.provider.Acquire(ctx)
	if err != nil {
		return err
	}
	defer v.provider.Release(conn)

	request := ldap.NewSearchRequest(
		v.baseDN,
		ldap.ScopeBaseObject,
		ldap.NeverDerefAliases,
		1,
		0,
		false,
		"(objectClass=*)",
		[]string{"1.1"},
		nil,
	)

	if _, err := conn.Search(request); err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation,
			"directory probe failed").WithDetail("base_dn", v.baseDN)
	}
	return nil
}
