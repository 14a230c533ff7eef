package analysis

// DefaultSampleSize is the fixed classification window: the first N rows, not a random sample.
const DefaultSampleSize = 100

// Option configures the engine via functional options.
type Option func(*options)

type options struct {
	sampleSize int
}

// WithSampleSize widens or narrows the classification window. Larger windows
// trade speed for accuracy on columns whose type drifts further down the file.
// Non-positive values keep the default.
func WithSampleSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.sampleSize = n
		}
	}
}

func applyOptions(opts []Option) *options {
	o := &options{sampleSize: DefaultSampleSize}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
