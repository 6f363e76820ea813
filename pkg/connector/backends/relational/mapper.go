package relational

import (
	"github.com/attrflow/attrflow/pkg/attribute"
	"github.com/attrflow/attrflow/pkg/errors"
)

// ColumnMapper converts a materialized row set into an attribute map. The
// contract: every column of a non-empty result becomes an attribute, and
// each row appends that column's value in row order, so a multi-row result
// yields multi-valued attributes. NULL columns contribute no value. An
// optional rename table maps column names to attribute identifiers.
type ColumnMapper struct {
	rename map[string]string
}

// NewColumnMapper creates a mapper. rename may be nil, in which case
// column names are used as attribute identifiers directly.
func NewColumnMapper(rename map[string]string) *ColumnMapper {
	return &ColumnMapper{rename: rename}
}

// Map normalizes a row set. Zero rows map to an explicitly empty attribute
// map, which is distinct from a mapping failure.
func (m *ColumnMapper) Map(raw *RowSet) (attribute.Map, error) {
	if raw == nil {
		return nil, errors.New(errors.ErrorTypeMapping, "nil row set")
	}

	result := attribute.NewMap()
	for _, row := range raw.Rows {
		if len(row) != len(raw.Columns) {
			return nil, errors.Newf(errors.ErrorTypeMapping,
				"row has %d values for %d columns", len(row), len(raw.Columns))
		}
		for i, column := range raw.Columns {
			if !row[i].Valid {
				continue
			}
			id := column
			if renamed, ok := m.rename[column]; ok {
				id = renamed
			}
			result.AddStrings(id, row[i].String)
		}
	}

	return result, nil
}
