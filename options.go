package avi

import (
	"go.uber.org/zap"
)

type options struct {
	logger       *zap.Logger
	lenientIndex bool
}

func (o *options) setDefault() {
	*o = options{
		logger: zap.NewNop(),
	}
}

type Option func(*options) error

func WithLogger(l *zap.Logger) Option {
	return func(o *options) error { o.logger = l; return nil }
}

// WithLenientIndex makes Open ignore a trailing partial index entry instead of failing
// with ErrTruncatedIndex.
func WithLenientIndex() Option {
	return func(o *options) error { o.lenientIndex = true; return nil }
}
