package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLitePath(t *testing.T) {
	cases := map[string]string{
		"sqlite:///./sql_app.db": "./sql_app.db",
		"sqlite://./sql_app.db":  "./sql_app.db",
		"sqlite:////var/data.db": "/var/data.db",
		"notebook.db":            "notebook.db",
		"sqlite://":              ":memory:",
		":memory:":               ":memory:",
	}
	for in, want := range cases {
		assert.Equal(t, want, SQLitePath(in), in)
	}
}

func TestDialectorSelection(t *testing.T) {
	_, isSQLite := dialectorFor("postgres://user:pw@localhost:5432/medreport")
	assert.False(t, isSQLite)
	_, isSQLite = dialectorFor("POSTGRESQL://localhost/medreport")
	assert.False(t, isSQLite)
	_, isSQLite = dialectorFor("sqlite:///./sql_app.db")
	assert.True(t, isSQLite)
}

func TestOpenAndMigrateInMemory(t *testing.T) {
	db, err := Open(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, table := range []string{"reports", "chats", "messages"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
