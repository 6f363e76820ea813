package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loaderFixture = `
connectors:
  - id: ldap-users
    backend: directory
    connection:
      url: ldap://directory.example.org:389
      credentials:
        bind_dn: cn=reader,dc=example,dc=org
        bind_password: ${TEST_BIND_PASSWORD}
    timeouts:
      query: 2s
    policy:
      no_result_is_error: true
    options:
      base_dn: ou=people,dc=example,dc=org
      filter: (uid={principal})
  - id: sql-profiles
    backend: relational
    connection:
      url: postgres://db.example.org/profiles
      driver: pgx
    options:
      statement: SELECT uid, mail FROM profiles WHERE uid = {principal}
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "attrflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_BIND_PASSWORD", "s3cret")

	file, err := Load(writeFixture(t, loaderFixture))
	require.NoError(t, err)
	require.Len(t, file.Connectors, 2)

	ldap := file.Connectors[0]
	assert.Equal(t, "ldap-users", ldap.ID)
	assert.Equal(t, "directory", ldap.Backend)
	assert.Equal(t, "s3cret", ldap.Connection.Credentials["bind_password"])
	assert.Equal(t, 2*time.Second, ldap.Timeouts.Query)
	assert.True(t, ldap.Policy.NoResultIsError)

	// Defaults fill what the file leaves out
	assert.Equal(t, 10, ldap.Pool.MaxOpen)
	assert.Equal(t, 5*time.Second, ldap.Timeouts.Validate)

	sql := file.Connectors[1]
	assert.Equal(t, "pgx", sql.Connection.Driver)
	statement, ok := sql.Option("statement")
	assert.True(t, ok)
	assert.Contains(t, statement, "{principal}")
}

func TestLoadRejectsInvalidConnector(t *testing.T) {
	_, err := Load(writeFixture(t, "connectors:\n  - id: broken\n    backend: directory\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url is required")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("LOADER_TEST_VAR", "value")

	assert.Equal(t, "prefix-value-suffix", substituteEnvVars("prefix-${LOADER_TEST_VAR}-suffix"))
	assert.Equal(t, "", substituteEnvVars("${LOADER_TEST_UNSET}"))
	assert.Equal(t, "no placeholders", substituteEnvVars("no placeholders"))
}
