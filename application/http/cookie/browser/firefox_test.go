package browser

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type firefoxRow struct {
	Name, Value, Host, Path    string
	Expiry                     int64
	IsSecure, IsHTTPOnly       int
	CreationTime, LastAccessed int64
}

func createFirefoxFixture(t *testing.T, rows []firefoxRow) string {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "cookies.sqlite")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE moz_cookies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		value TEXT NOT NULL,
		host TEXT NOT NULL,
		path TEXT NOT NULL DEFAULT '/',
		expiry INTEGER NOT NULL DEFAULT 0,
		lastAccessed INTEGER NOT NULL DEFAULT 0,
		creationTime INTEGER NOT NULL DEFAULT 0,
		isSecure INTEGER NOT NULL DEFAULT 0,
		isHttpOnly INTEGER NOT NULL DEFAULT 0
	)`)
	require.NoError(t, err)

	for _, r := range rows {
		_, err := db.Exec(
			`INSERT INTO moz_cookies (name, value, host, path, expiry, isSecure, isHttpOnly, creationTime, lastAccessed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Name, r.Value, r.Host, r.Path, r.Expiry, r.IsSecure, r.IsHTTPOnly, r.CreationTime, r.LastAccessed,
		)
		require.NoError(t, err)
	}

	return dbPath
}

func TestLoadFirefox(t *testing.T) {
	dbPath := createFirefoxFixture(t, []firefoxRow{
		{"sid", "abc", ".example.com", "/", 1_800_000_000, 1, 1, 1_600_000_000_000_000, 1_650_000_000_000_000},
		{"lang", "en", "www.example.com", "/docs", 1_800_000_000, 0, 0, 1_600_000_000_000_000, 1_600_000_000_000_000},
	})

	records, err := LoadFirefox(context.Background(), afero.NewOsFs(), dbPath)
	require.NoError(t, err)
	require.Len(t, records, 2)

	sid := records[0]
	assert.Equal(t, "sid", sid.Name)
	assert.Equal(t, "example.com", sid.Domain)
	assert.False(t, sid.HostOnly)
	assert.True(t, sid.SecureOnly)
	assert.True(t, sid.HTTPOnly)
	assert.True(t, sid.Persistent)
	assert.Equal(t, int64(1_600_000_000), sid.CreationTime)
	assert.Equal(t, int64(1_650_000_000), sid.LastAccessTime)

	lang := records[1]
	assert.Equal(t, "www.example.com", lang.Domain)
	assert.True(t, lang.HostOnly)
	assert.Equal(t, "/docs", lang.Path)
}

func TestLoadFirefoxMissing(t *testing.T) {
	_, err := LoadFirefox(context.Background(), afero.NewMemMapFs(), "/missing.sqlite")
	assert.Error(t, err)
}
