package bloomfilter

import "log/slog"

type options struct {
	strategy Strategy
	hasher   Hasher128
	logger   *slog.Logger
}

func defaultOptions() options {
	return options{
		strategy: StrategyMitz64,
		hasher:   Murmur3Hasher{},
		logger:   slog.New(slog.DiscardHandler),
	}
}

// Option configures filter construction.
type Option func(*options)

// WithStrategy selects the hashing strategy. The strategy becomes part of the
// filter's persisted identity. It is ignored when decoding a serialized
// filter, which carries its own strategy.
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithHasher replaces the 128-bit hash function. If nil is passed,
// Murmur3Hasher is used.
func WithHasher(h Hasher128) Option {
	return func(o *options) {
		if h == nil {
			h = Murmur3Hasher{}
		}
		o.hasher = h
	}
}

// WithLogger sets the structured logger. If nil is passed, logging is
// disabled.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = slog.New(slog.DiscardHandler)
		}
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
