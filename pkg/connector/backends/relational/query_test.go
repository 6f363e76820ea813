package relational

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attrflow/attrflow/pkg/errors"
)

func mockConn(t *testing.T) (*sql.Conn, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	conn, err := db.Conn(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, mock
}

func TestExecuteMaterializesRows(t *testing.T) {
	conn, mock := mockConn(t)
	mock.ExpectQuery("SELECT uid, mail FROM profiles").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"uid", "mail"}).
			AddRow("alice", "a@example.org").
			AddRow("alice", nil))

	q := &StatementQuery{
		statement: "SELECT uid, mail FROM profiles WHERE uid = ?",
		args:      []interface{}{"alice"},
	}

	rs, err := q.Execute(context.Background(), conn)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, []string{"uid", "mail"}, rs.Columns)
	require.Len(t, rs.Rows, 2)
	assert.Equal(t, "alice", rs.Rows[0][0].String)
	assert.Equal(t, "a@example.org", rs.Rows[0][1].String)
	assert.False(t, rs.Rows[1][1].Valid)
	assert.False(t, rs.Empty())
}

func TestExecuteZeroRows(t *testing.T) {
	conn, mock := mockConn(t)
	mock.ExpectQuery("SELECT uid FROM profiles").
		WillReturnRows(sqlmock.NewRows([]string{"uid"}))

	q := &StatementQuery{statement: "SELECT uid FROM profiles WHERE uid = ?", args: []interface{}{"ghost"}}

	rs, err := q.Execute(context.Background(), conn)
	require.NoError(t, err)
	assert.True(t, rs.Empty())
	assert.Equal(t, []string{"uid"}, rs.Columns)
}

func TestExecuteQueryFailure(t *testing.T) {
	conn, mock := mockConn(t)
	mock.ExpectQuery("SELECT uid FROM profiles").
		WillReturnError(sql.ErrConnDone)

	q := &StatementQuery{statement: "SELECT uid FROM profiles WHERE uid = ?", args: []interface{}{"alice"}}

	_, err := q.Execute(context.Background(), conn)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeExecution))
}

func TestExecuteDeadlineExceeded(t *testing.T) {
	conn, mock := mockConn(t)
	mock.ExpectQuery("SELECT uid FROM profiles").
		WillReturnError(context.DeadlineExceeded)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := &StatementQuery{statement: "SELECT uid FROM profiles WHERE uid = ?", args: []interface{}{"alice"}}

	_, err := q.Execute(ctx, conn)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTimeout))
	// A timeout still classifies as an execution failure
	assert.True(t, errors.IsType(err, errors.ErrorTypeExecution))
}
