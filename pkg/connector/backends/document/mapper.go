package document

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/attrflow/attrflow/pkg/attribute"
	"github.com/attrflow/attrflow/pkg/errors"
)

// FieldMapper converts a stored document into an attribute map. Fields
// hold a string, an array of strings, or an object ID rendered to hex. A
// missing document maps to an explicitly empty attribute map.
type FieldMapper struct {
	rename map[string]string
}

// NewFieldMapper creates a document mapper. rename redirects a document
// field to a different attribute ID.
func NewFieldMapper(rename map[string]string) *FieldMapper {
	return &FieldMapper{rename: rename}
}

// Map normalizes a stored document
func (m *FieldMapper) Map(raw *DocumentResult) (attribute.Map, error) {
	if raw == nil {
		return nil, errors.New(errors.ErrorTypeMapping, "nil document result")
	}

	result := attribute.NewMap()
	if !raw.Found {
		return result, nil
	}

	for field, value := range raw.Fields {
		id := m.attributeID(field)
		switch v := value.(type) {
		case string:
			result.AddStrings(id, v)
		case primitive.ObjectID:
			result.AddStrings(id, v.Hex())
		case primitive.A:
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, errors.Newf(errors.ErrorTypeMapping,
						"field %q has non-string array element %T", field, item)
				}
				result.AddStrings(id, s)
			}
		case nil:
			// absent value, contributes nothing
		default:
			return nil, errors.Newf(errors.ErrorTypeMapping,
				"field %q has unsupported type %T", field, value)
		}
	}

	return result, nil
}

func (m *FieldMapper) attributeID(field string) string {
	if id, ok := m.rename[field]; ok {
		return id
	}
	return field
}
