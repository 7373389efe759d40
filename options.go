package txio

// Option configures a single file or directory operation
type Option func(*Options)

// Options contains every setting an operation may consult
type Options struct {
	// Overwrite allows replacing an existing target. When false, an existing
	// target fails the operation before anything is touched.
	Overwrite bool

	// BufferSize switches Copy to a read/write loop with a buffer of this
	// many bytes. Only honored when BufferSet is true.
	BufferSize int
	BufferSet  bool

	// Verify compares source and destination checksums after a copy.
	Verify ChecksumAlgorithm

	// Selector filters the entries of a directory copy. Nil copies everything.
	Selector FileSelector

	// Concurrency bounds the goroutines started per directory level by
	// CopyConcurrent. Zero means unbounded.
	Concurrency int
}

// WithOverwrite enables or disables overwriting existing targets
func WithOverwrite(overwrite bool) Option {
	return func(o *Options) {
		o.Overwrite = overwrite
	}
}

// WithBufferSize makes Copy stream through a buffer of n bytes.
// n must be positive.
func WithBufferSize(n int) Option {
	return func(o *Options) {
		o.BufferSize = n
		o.BufferSet = true
	}
}

// WithVerify checks the copied file against the source using algorithm
func WithVerify(algorithm ChecksumAlgorithm) Option {
	return func(o *Options) {
		o.Verify = algorithm
	}
}

// WithSelector limits a directory copy to the entries selector accepts
func WithSelector(selector FileSelector) Option {
	return func(o *Options) {
		o.Selector = selector
	}
}

// WithConcurrency bounds per-level parallelism of CopyConcurrent
func WithConcurrency(n int) Option {
	return func(o *Options) {
		o.Concurrency = n
	}
}

func buildOptions(defaults, opts []Option) *Options {
	o := &Options{}
	for _, opt := range defaults {
		opt(o)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
