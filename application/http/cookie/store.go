package cookie

import (
	"bufio"
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

var ErrPersistence = errors.New("cookie persistence failed")

// Keys of a record block. Every key is required.
const (
	keyName           = "name"
	keyValue          = "value"
	keyExpiryTime     = "expiry_time"
	keyDomain         = "domain"
	keyPath           = "path"
	keyCreationTime   = "creation_time"
	keyLastAccessTime = "last_access_time"
	keyPersistent     = "persistent"
	keyHostOnly       = "host_only"
	keySecureOnly     = "secure_only"
	keyHTTPOnly       = "http_only"
)

var blockKeys = []string{
	keyName, keyValue, keyExpiryTime, keyDomain, keyPath,
	keyCreationTime, keyLastAccessTime, keyPersistent,
	keyHostOnly, keySecureOnly, keyHTTPOnly,
}

// LoadCookies adds records stored in the file at path.
// Malformed blocks are skipped.
func (j *Jar) LoadCookies(path string) error {
	f, err := j.fs.Open(path)
	if err != nil {
		return errors.Wrapf(ErrPersistence, "opening %q: %s", path, err)
	}
	defer f.Close()

	records, skipped, err := DecodeRecords(f)
	if err != nil {
		return errors.Wrapf(ErrPersistence, "reading %q: %s", path, err)
	}
	if skipped > 0 {
		j.logger.Warn("Skipped malformed cookie blocks", slog.String("path", path), slog.Int("count", skipped))
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	for _, rec := range records {
		j.upsert(rec)
	}

	return nil
}

// StoreCookies writes every record to the file at path.
// The file is replaced atomically.
func (j *Jar) StoreCookies(path string) error {
	data := EncodeRecords(j.Records())

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := afero.TempFile(j.fs, dir, base+".tmp-*")
	if err != nil {
		return errors.Wrapf(ErrPersistence, "creating temporary file for %q: %s", path, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		j.fs.Remove(tmp.Name())
		return errors.Wrapf(ErrPersistence, "writing %q: %s", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		j.fs.Remove(tmp.Name())
		return errors.Wrapf(ErrPersistence, "closing %q: %s", tmp.Name(), err)
	}

	if err := j.fs.Rename(tmp.Name(), path); err != nil {
		j.fs.Remove(tmp.Name())
		return errors.Wrapf(ErrPersistence, "renaming to %q: %s", path, err)
	}

	return nil
}

// EncodeRecords serializes records as blocks of "key: value" lines separated by a blank line.
func EncodeRecords(records []Record) []byte {
	buf := bytes.NewBuffer(nil)
	for idx, rec := range records {
		if idx > 0 {
			buf.WriteString("\n")
		}
		for _, kv := range [][2]string{
			{keyName, rec.Name},
			{keyValue, rec.Value},
			{keyExpiryTime, strconv.FormatInt(rec.ExpiryTime, 10)},
			{keyDomain, rec.Domain},
			{keyPath, rec.Path},
			{keyCreationTime, strconv.FormatInt(rec.CreationTime, 10)},
			{keyLastAccessTime, strconv.FormatInt(rec.LastAccessTime, 10)},
			{keyPersistent, formatBool(rec.Persistent)},
			{keyHostOnly, formatBool(rec.HostOnly)},
			{keySecureOnly, formatBool(rec.SecureOnly)},
			{keyHTTPOnly, formatBool(rec.HTTPOnly)},
		} {
			buf.WriteString(kv[0])
			buf.WriteString(": ")
			buf.WriteString(kv[1])
			buf.WriteString("\n")
		}
	}
	return buf.Bytes()
}

// DecodeRecords parses blocks written by [EncodeRecords].
// It returns valid records and the number of skipped blocks.
// Lines have no length limit.
func DecodeRecords(r io.Reader) (records []Record, skipped int, err error) {
	block := make(map[string]string)

	flush := func() {
		if len(block) == 0 {
			return
		}
		if rec, ok := decodeBlock(block); ok {
			records = append(records, rec)
		} else {
			skipped++
		}
		block = make(map[string]string)
	}

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, 0, errors.Wrap(err, "reading cookie blocks")
		}
		if line == "" && err != nil {
			break
		}

		line = strings.TrimRight(line, "\r\n")
		switch k, v, found := strings.Cut(line, ":"); {
		case strings.TrimSpace(line) == "":
			flush()
		case !found:
			// Poisons the block.
			block[""] = line
		default:
			block[strings.TrimSpace(k)] = strings.TrimPrefix(v, " ")
		}

		if err != nil {
			break
		}
	}
	flush()

	return records, skipped, nil
}

func decodeBlock(block map[string]string) (Record, bool) {
	if _, ok := block[""]; ok {
		return Record{}, false
	}
	for _, key := range blockKeys {
		if _, ok := block[key]; !ok {
			return Record{}, false
		}
	}

	var (
		rec Record
		ok  = true
	)

	parseInt := func(key string) int64 {
		n, err := strconv.ParseInt(strings.TrimSpace(block[key]), 10, 64)
		if err != nil {
			ok = false
		}
		return n
	}
	parseBool := func(key string) bool {
		switch strings.TrimSpace(block[key]) {
		case "TRUE":
			return true
		case "FALSE":
			return false
		}
		ok = false
		return false
	}

	rec.Name = block[keyName]
	rec.Value = block[keyValue]
	rec.Domain = block[keyDomain]
	rec.Path = block[keyPath]
	rec.ExpiryTime = clampExpiry(parseInt(keyExpiryTime))
	rec.CreationTime = parseInt(keyCreationTime)
	rec.LastAccessTime = parseInt(keyLastAccessTime)
	rec.Persistent = parseBool(keyPersistent)
	rec.HostOnly = parseBool(keyHostOnly)
	rec.SecureOnly = parseBool(keySecureOnly)
	rec.HTTPOnly = parseBool(keyHTTPOnly)

	if rec.validate() != nil {
		return Record{}, false
	}

	return rec, ok
}

func formatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
