package codec

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps formats to codecs. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codecs map[Format]Codec
}

// NewRegistry returns a registry holding every built-in codec configured
// with opts.
func NewRegistry(opts Options) *Registry {
	if opts.CSVComma == 0 {
		opts.CSVComma = ','
	}
	r := &Registry{codecs: make(map[Format]Codec)}
	r.Register(jsonCodec{indent: opts.JSONIndent})
	r.Register(bsonCodec{})
	r.Register(xmlCodec{})
	r.Register(csvCodec{comma: opts.CSVComma})
	r.Register(yamlCodec{})
	r.Register(tomlCodec{})
	return r
}

// Register adds c, replacing any codec already registered for its format.
func (r *Registry) Register(c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[c.Format()] = c
}

// Get returns the codec for f. A "+zstd" format without an explicit
// registration is served by wrapping the inner codec.
func (r *Registry) Get(f Format) (Codec, error) {
	r.mu.RLock()
	c, exists := r.codecs[f]
	r.mu.RUnlock()
	if exists {
		return c, nil
	}

	if inner, ok := f.Compressed(); ok {
		c, err := r.Get(inner)
		if err != nil {
			return nil, err
		}
		return Zstd(c), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Formats lists the registered formats in sorted order.
func (r *Registry) Formats() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]Format, 0, len(r.codecs))
	for f := range r.codecs {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}
