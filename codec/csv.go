package codec

import (
	"bytes"
	"encoding/csv"

	"github.com/gocarina/gocsv"
)

// csvCodec maps a slice of structs to rows using `csv:"name"` tags. The
// first row is the header.
type csvCodec struct {
	comma rune
}

func (csvCodec) Format() Format { return CSV }

func (c csvCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = c.comma
	if err := gocsv.MarshalCSV(v, gocsv.NewSafeCSVWriter(w)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c csvCodec) Unmarshal(data []byte, v any) error {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = c.comma
	r.TrimLeadingSpace = true
	return gocsv.UnmarshalCSV(r, v)
}
