package relational

import (
	"context"
	"database/sql"

	"github.com/attrflow/attrflow/pkg/errors"
)

// RowSet is the materialized result of a relational query: the column
// names plus every row, snapshotted during execution so nothing retains the
// leased connection afterwards.
type RowSet struct {
	Columns []string
	Rows    [][]sql.NullString
}

// Empty reports whether the query matched zero rows
func (rs *RowSet) Empty() bool {
	return len(rs.Rows) == 0
}

// StatementQuery is an immutable, parameterized SQL query. Substituted
// context values travel as bind parameters, never as statement text.
type StatementQuery struct {
	statement string
	args      []interface{}
	cacheKey  string
}

// CacheKey returns the deterministic key for this query
func (q *StatementQuery) CacheKey() string {
	return q.cacheKey
}

// Statement returns the parameterized SQL text
func (q *StatementQuery) Statement() string {
	return q.statement
}

// Execute runs the statement and materializes the full result set. An
// exceeded deadline is a timeout error, never a silent empty result.
func (q *StatementQuery) Execute(ctx context.Context, conn *sql.Conn) (*RowSet, error) {
	rows, err := conn.QueryContext(ctx, q.statement, q.args...)
	if err != nil {
		return nil, translateExecError(ctx, err, q.statement)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, translateExecError(ctx, err, q.statement)
	}

	rs := &RowSet{Columns: columns}
	for rows.Next() {
		row := make([]sql.NullString, len(columns))
		scan := make([]interface{}, len(columns))
		for i := range row {
			scan[i] = &row[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeExecution,
				"failed to scan result row").WithDetail("statement", q.statement)
		}
		rs.Rows = append(rs.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, translateExecError(ctx, err, q.statement)
	}

	return rs, nil
}

// translateExecError converts driver failures into the common error
// taxonomy at the binding boundary.
func translateExecError(ctx context.Context, err error, statement string) error {
	if ctx.Err() == context.DeadlineExceeded || err == context.DeadlineExceeded {
		return errors.Wrap(err, errors.ErrorTypeTimeout,
			"query exceeded its deadline").WithDetail("statement", statement)
	}
	return errors.Wrap(err, errors.ErrorTypeExecution,
		"query execution failed").WithDetail("statement", statement)
}
