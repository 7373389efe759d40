// Package codec converts Go values to and from the serialized formats txio
// reads and writes.
package codec

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format names a serialization format.
type Format string

// Built-in formats.
const (
	JSON Format = "json"
	BSON Format = "bson"
	XML  Format = "xml"
	CSV  Format = "csv"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// zstdSuffix marks a format whose payload is zstd-compressed.
const zstdSuffix = "+zstd"

// ErrUnknownFormat is returned when no codec is registered for a format.
var ErrUnknownFormat = errors.New("unknown format")

// Codec marshals and unmarshals values in one format.
type Codec interface {
	Format() Format
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Options tunes the built-in codecs.
type Options struct {
	// JSONIndent pretty-prints JSON with two-space indentation.
	JSONIndent bool

	// CSVComma is the CSV field delimiter. Zero means ','.
	CSVComma rune
}

// DefaultOptions returns indented JSON and comma-separated CSV.
func DefaultOptions() Options {
	return Options{JSONIndent: true, CSVComma: ','}
}

// Compressed reports whether f is a zstd-wrapped format and returns the
// inner format.
func (f Format) Compressed() (Format, bool) {
	inner, ok := strings.CutSuffix(string(f), zstdSuffix)
	return Format(inner), ok
}

var extensionToFormat = map[string]Format{
	".json": JSON,
	".bson": BSON,
	".xml":  XML,
	".csv":  CSV,
	".yaml": YAML,
	".yml":  YAML,
	".toml": TOML,
}

// FormatFromPath guesses the format from the file extension. A trailing
// ".zst" yields the zstd-wrapped variant, e.g. "data.json.zst" is
// "json+zstd".
func FormatFromPath(path string) (Format, bool) {
	name := strings.ToLower(filepath.Base(path))
	compressed := false
	if trimmed, ok := strings.CutSuffix(name, ".zst"); ok {
		name, compressed = trimmed, true
	}

	f, ok := extensionToFormat[filepath.Ext(name)]
	if !ok {
		return "", false
	}
	if compressed {
		f += zstdSuffix
	}
	return f, true
}

// Detect sniffs the format from content. Only text formats with a
// recognizable signature are detected.
func Detect(data []byte) (Format, bool) {
	if len(data) == 0 {
		return "", false
	}
	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is("application/json"):
		return JSON, true
	case mtype.Is("text/xml"), mtype.Is("application/xml"):
		return XML, true
	case mtype.Is("text/csv"):
		return CSV, true
	}
	return "", false
}
