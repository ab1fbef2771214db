package browser

import (
	"context"
	"database/sql"
	"httpjar/application/http/cookie"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	_ "modernc.org/sqlite"
)

const firefoxQuery = `
	SELECT name, value, host, path, expiry, isSecure, isHttpOnly, creationTime, lastAccessed
	FROM moz_cookies
	ORDER BY id ASC
`

// LoadFirefox reads every cookie of a Firefox cookies.sqlite database on fs.
// The database and its -wal and -shm companions are copied to a temporary
// directory first, so a running browser keeps its lock.
func LoadFirefox(ctx context.Context, fs afero.Fs, path string) ([]cookie.Record, error) {
	tempDir, err := os.MkdirTemp("", "httpjar-firefox-*")
	if err != nil {
		return nil, errors.Wrap(err, "creating temporary directory")
	}
	defer os.RemoveAll(tempDir)

	copied := filepath.Join(tempDir, filepath.Base(path))
	if err := copyToOS(fs, path, copied); err != nil {
		return nil, err
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if ok, _ := afero.Exists(fs, path+suffix); ok {
			if err := copyToOS(fs, path+suffix, copied+suffix); err != nil {
				return nil, err
			}
		}
	}

	return readFirefox(ctx, copied)
}

func readFirefox(ctx context.Context, dbPath string) ([]cookie.Record, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, errors.Wrap(err, "opening firefox cookie database")
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, firefoxQuery)
	if err != nil {
		return nil, errors.Wrap(err, "querying firefox cookies")
	}
	defer rows.Close()

	var records []cookie.Record
	for rows.Next() {
		var (
			name, value, host, path    string
			expiry                     int64
			isSecure, isHTTPOnly       int
			creationTime, lastAccessed int64
		)
		if err := rows.Scan(
			&name, &value, &host, &path, &expiry,
			&isSecure, &isHTTPOnly, &creationTime, &lastAccessed,
		); err != nil {
			return nil, errors.Wrap(err, "scanning firefox cookie row")
		}

		domain, hostOnly := domainOf(host, false)
		records = append(records, cookie.Record{
			Name:     name,
			Value:    value,
			Domain:   domain,
			HostOnly: hostOnly,
			Path:     path,
			// Firefox keeps expiry in seconds, the others in microseconds.
			ExpiryTime:     expiry,
			Persistent:     true,
			CreationTime:   creationTime / 1_000_000,
			LastAccessTime: lastAccessed / 1_000_000,
			SecureOnly:     isSecure != 0,
			HTTPOnly:       isHTTPOnly != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating firefox cookie rows")
	}

	return records, nil
}

func copyToOS(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return errors.Wrapf(err, "opening %q", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "creating %q", dst)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Wrapf(err, "copying %q", src)
	}
	return nil
}
