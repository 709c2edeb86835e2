package repository

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Field encoding conventions for the stored hash form: booleans as "true"
// or "false", timestamps as RFC 3339 text, nested documents as JSON text.

func encodeBool(b bool) string {
	return strconv.FormatBool(b)
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "encode nested document")
	}
	return string(data), nil
}

// fieldReader reads typed values out of a stored hash. A missing or
// malformed field yields the caller's default; malformed values are logged
// so corruption is visible without making the record unreadable.
type fieldReader struct {
	fields map[string]string
	log    zerolog.Logger
	id     string
}

func (f fieldReader) str(name, def string) string {
	raw, ok := f.fields[name]
	if !ok || raw == "" {
		return def
	}
	return raw
}

func (f fieldReader) boolean(name string, def bool) bool {
	raw, ok := f.fields[name]
	if !ok {
		return def
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	f.warn(name, raw, "bad boolean field")
	return def
}

func (f fieldReader) timestamp(name string) time.Time {
	raw, ok := f.fields[name]
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		f.warn(name, raw, "bad timestamp field")
		return time.Time{}
	}
	return t
}

// document unmarshals a JSON-encoded field into v and reports whether it
// succeeded. Callers substitute a default document on failure.
func (f fieldReader) document(name string, v any) bool {
	raw, ok := f.fields[name]
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		f.warn(name, raw, "bad nested document")
		return false
	}
	return true
}

func (f fieldReader) warn(name, raw, msg string) {
	f.log.Warn().Str("id", f.id).Str("field", name).Str("raw", raw).Msg(msg + ", using default")
}
