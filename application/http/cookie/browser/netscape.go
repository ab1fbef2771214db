package browser

import (
	"bufio"
	"httpjar/application/http/cookie"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const httpOnlyPrefix = "#HttpOnly_"

// ParseNetscape reads a cookies.txt file.
// Comment lines are skipped except for the #HttpOnly_ prefix. Malformed lines are skipped.
// now is used as creation and access time.
func ParseNetscape(r io.Reader, now int64, logger *slog.Logger) ([]cookie.Record, error) {
	var records []cookie.Record

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		httpOnly := false
		if rest, ok := strings.CutPrefix(line, httpOnlyPrefix); ok {
			httpOnly = true
			line = rest
		} else if strings.HasPrefix(line, "#") {
			continue
		}

		// domain, include subdomains, path, secure, expiry, name, value
		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			logger.Warn("Skipping malformed cookie line", slog.Int("line", lineNo))
			continue
		}

		expiry, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			logger.Warn("Skipping cookie with invalid expiry", slog.Int("line", lineNo))
			continue
		}

		domain, hostOnly := domainOf(strings.ToLower(fields[0]), strings.EqualFold(fields[1], "TRUE"))
		rec := cookie.Record{
			Name:           fields[5],
			Value:          fields[6],
			Domain:         domain,
			HostOnly:       hostOnly,
			Path:           fields[2],
			ExpiryTime:     expiry,
			Persistent:     expiry > 0,
			CreationTime:   now,
			LastAccessTime: now,
			SecureOnly:     strings.EqualFold(fields[3], "TRUE"),
			HTTPOnly:       httpOnly,
		}
		if !rec.Persistent {
			rec.ExpiryTime = cookie.SessionExpiry
		}

		if rec.Name == "" || rec.Domain == "" {
			logger.Warn("Skipping cookie without name or domain", slog.Int("line", lineNo))
			continue
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading netscape cookie file")
	}

	return records, nil
}

// LoadNetscape opens path on fs and parses it with [ParseNetscape].
func LoadNetscape(fs afero.Fs, path string, now int64, logger *slog.Logger) ([]cookie.Record, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening netscape cookie file %q", path)
	}
	defer f.Close()

	return ParseNetscape(f, now, logger)
}
