package keyvalue

import (
	"github.com/goccy/go-json"

	"github.com/attrflow/attrflow/pkg/attribute"
	"github.com/attrflow/attrflow/pkg/errors"
)

// RecordMapper converts a stored record into an attribute map. JSON
// records are flat documents whose fields hold a string or an array of
// strings; hash records hold one value per field. A missing record maps to
// an explicitly empty attribute map.
type RecordMapper struct {
	rename map[string]string
}

// NewRecordMapper creates a storage-record mapper. rename redirects a
// record field to a different attribute ID.
func NewRecordMapper(rename map[string]string) *RecordMapper {
	return &RecordMapper{rename: rename}
}

// Map normalizes a stored record
func (m *RecordMapper) Map(raw *Record) (attribute.Map, error) {
	if raw == nil {
		return nil, errors.New(errors.ErrorTypeMapping, "nil storage record")
	}

	result := attribute.NewMap()
	if !raw.Found {
		return result, nil
	}

	if raw.Fields != nil {
		for field, value := range raw.Fields {
			result.AddStrings(m.attributeID(field), value)
		}
		return result, nil
	}

	var document map[string]interface{}
	if err := json.Unmarshal(raw.JSON, &document); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeMapping,
			"stored record is not a JSON document")
	}

	for field, value := range document {
		id := m.attributeID(field)
		switch v := value.(type) {
		case string:
			result.AddStrings(id, v)
		case []interface{}:
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

func (m *RecordMapper) attributeID(field string) string {
	if id, ok := m.rename[field]; ok {
		return id
	}
	return field
}
