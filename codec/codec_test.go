package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `json:"name" bson:"name" xml:"name" yaml:"name" toml:"name" csv:"name"`
	Count int    `json:"count" bson:"count" xml:"count" yaml:"count" toml:"count" csv:"count"`
}

func TestRoundTrip(t *testing.T) {
	reg := NewRegistry(DefaultOptions())
	in := record{Name: "alpha", Count: 3}

	for _, f := range []Format{JSON, BSON, XML, YAML, TOML, "json+zstd", "toml+zstd"} {
		t.Run(string(f), func(t *testing.T) {
			c, err := reg.Get(f)
			require.NoError(t, err)
			assert.Equal(t, f, c.Format())

			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out record
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestCSV(t *testing.T) {
	rows := []record{{Name: "a", Count: 1}, {Name: "b", Count: 2}}

	t.Run("default comma", func(t *testing.T) {
		c, err := NewRegistry(DefaultOptions()).Get(CSV)
		require.NoError(t, err)

		data, err := c.Marshal(rows)
		require.NoError(t, err)
		assert.Equal(t, "name,count\na,1\nb,2\n", string(data))

		var out []record
		require.NoError(t, c.Unmarshal(data, &out))
		assert.Equal(t, rows, out)
	})

	t.Run("semicolon", func(t *testing.T) {
		c, err := NewRegistry(Options{CSVComma: ';'}).Get(CSV)
		require.NoError(t, err)

		data, err := c.Marshal(rows)
		require.NoError(t, err)
		assert.Equal(t, "name;count\na;1\nb;2\n", string(data))

		var out []record
		require.NoError(t, c.Unmarshal(data, &out))
		assert.Equal(t, rows, out)
	})
}

func TestJSONIndent(t *testing.T) {
	in := map[string]int{"a": 1}

	indented, err := NewRegistry(Options{JSONIndent: true}).Get(JSON)
	require.NoError(t, err)
	data, err := indented.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(data))

	compact, err := NewRegistry(Options{}).Get(JSON)
	require.NoError(t, err)
	data, err = compact.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
}

func TestXMLHeader(t *testing.T) {
	c, err := NewRegistry(DefaultOptions()).Get(XML)
	require.NoError(t, err)

	data, err := c.Marshal(record{Name: "x"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, string(data), "\n  <name>x</name>")
}

func TestZstdCompresses(t *testing.T) {
	reg := NewRegistry(Options{})
	plain, err := reg.Get(JSON)
	require.NoError(t, err)

	in := map[string]string{"payload": strings.Repeat("abcdef", 1000)}
	raw, err := plain.Marshal(in)
	require.NoError(t, err)
	packed, err := Zstd(plain).Marshal(in)
	require.NoError(t, err)

	assert.Less(t, len(packed), len(raw))
	assert.False(t, bytes.Equal(raw, packed))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(DefaultOptions())
	assert.Equal(t, []Format{BSON, CSV, JSON, TOML, XML, YAML}, reg.Formats())

	_, err := reg.Get("ini")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = reg.Get("ini+zstd")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	reg.Register(upperCodec{})
	c, err := reg.Get("upper")
	require.NoError(t, err)
	data, err := c.Marshal("hi")
	require.NoError(t, err)
	assert.Equal(t, "HI", string(data))
}

type upperCodec struct{}

func (upperCodec) Format() Format { return "upper" }

func (upperCodec) Marshal(v any) ([]byte, error) {
	return []byte(strings.ToUpper(v.(string))), nil
}

func (upperCodec) Unmarshal(data []byte, v any) error {
	*(v.(*string)) = strings.ToLower(string(data))
	return nil
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"data.json", JSON, true},
		{"/tmp/DATA.JSON", JSON, true},
		{"doc.bson", BSON, true},
		{"feed.xml", XML, true},
		{"rows.csv", CSV, true},
		{"conf.yml", YAML, true},
		{"conf.yaml", YAML, true},
		{"pyproject.toml", TOML, true},
		{"data.json.zst", "json+zstd", true},
		{"notes.txt", "", false},
		{"archive.zst", "", false},
		{"noext", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := FormatFromPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompressed(t *testing.T) {
	inner, ok := Format("yaml+zstd").Compressed()
	assert.True(t, ok)
	assert.Equal(t, YAML, inner)

	_, ok = JSON.Compressed()
	assert.False(t, ok)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Format
		ok   bool
	}{
		{"json object", `{"a": 1, "b": [1, 2]}`, JSON, true},
		{"xml", `<?xml version="1.0"?><root><a>1</a></root>`, XML, true},
		{"empty", "", "", false},
		{"plain text", "just some words", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Detect([]byte(tt.data))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeepClone(t *testing.T) {
	type nested struct {
		Tags  []string          `bson:"tags"`
		Attrs map[string]string `bson:"attrs"`
	}
	src := nested{Tags: []string{"a", "b"}, Attrs: map[string]string{"k": "v"}}

	c, err := NewRegistry(DefaultOptions()).Get(BSON)
	require.NoError(t, err)

	var dst nested
	require.NoError(t, DeepClone(c, src, &dst))
	assert.Equal(t, src, dst)

	dst.Tags[0] = "changed"
	dst.Attrs["k"] = "changed"
	assert.Equal(t, "a", src.Tags[0])
	assert.Equal(t, "v", src.Attrs["k"])
}
