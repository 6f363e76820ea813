package core

import (
	"github.com/attrflow/attrflow/pkg/attribute"
)

// ResolutionContext is the caller-owned, per-request input to a retrieval:
// the principal being resolved plus attributes already resolved by upstream
// connectors. It is read-only to the connector; the constructor copies the
// upstream map so later caller mutation cannot leak in.
type ResolutionContext struct {
	principal string
	requestID string
	resolved  attribute.Map
}

// NewResolutionContext creates a resolution context. The resolved map may be
// nil when no upstream attributes exist.
func NewResolutionContext(principal, requestID string, resolved attribute.Map) *ResolutionContext {
	rc := &ResolutionContext{
		principal: principal,
		requestID: requestID,
		resolved:  attribute.NewMap(),
	}
	if resolved != nil {
		rc.resolved = resolved.Clone()
	}
	return rc
}

// Principal returns the identity being resolved
func (rc *ResolutionContext) Principal() string {
	return rc.principal
}

// RequestID returns the resolution request identifier
func (rc *ResolutionContext) RequestID() string {
	return rc.requestID
}

// Attribute returns the upstream values for an attribute identifier
func (rc *ResolutionContext) Attribute(id string) []attribute.Value {
	return rc.resolved.Get(id)
}

// AttributeIDs returns the upstream attribute identifiers in sorted order
func (rc *ResolutionContext) AttributeIDs() []string {
	return rc.resolved.IDs()
}

// SubstitutionValue resolves a template placeholder name against the
// context. The name "principal" is reserved for the principal itself; any
// other name resolves to the first value of the matching upstream
// attribute. The second return is false when the context has no value for
// the name, which query builders surface as a construction error.
func (rc *ResolutionContext) SubstitutionValue(name string) (string, bool) {
	if name == "principal" {
		if rc.principal == "" {
			return "", false
		}
		return rc.principal, true
	}

	values := rc.resolved.Get(name)
	if len(values) == 0 {
		return "", false
	}
	return values[0].String(), true
}
