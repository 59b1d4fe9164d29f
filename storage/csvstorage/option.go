package csvstorage

import (
	"go.uber.org/zap"
)

type options struct {
	logger *zap.Logger
	path   string
	comma  rune
}

var defaultOptions = options{
	logger: zap.NewNop(),
	comma:  ';',
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// 输出文件路径
func WithPath(path string) Option {
	return func(opts *options) {
		opts.path = path
	}
}

// 字段分隔符，默认为分号
func WithComma(comma rune) Option {
	return func(opts *options) {
		opts.comma = comma
	}
}
