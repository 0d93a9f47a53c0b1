package options

const (
	// DefaultService is the logger tag used when the caller doesn't
	// provide one.
	DefaultService = "sauron"

	// DefaultArchiveBatchSize is how many 6-byte entries the archive
	// writer batches before a flush.
	DefaultArchiveBatchSize = 4096
)

// defaultOptions holds the default configuration for a new Context.
var defaultOptions = Options{
	Service:          DefaultService,
	LockKind:         LockKindSpin,
	HugePageHint:     false,
	ArchiveBatchSize: DefaultArchiveBatchSize,
}

// NewDefaultOptions returns a copy of the default configuration.
func NewDefaultOptions() Options {
	return defaultOptions
}

// Apply builds an Options value from the defaults plus any overrides.
func Apply(opts ...Option) Options {
	o := NewDefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
