package spider

import (
	"time"

	"github.com/dszqbsm/volby/limiter"
	"github.com/dszqbsm/volby/proxy"
	"go.uber.org/zap"
)

const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

type Option func(opts *options)

// 采集器配置选项
type options struct {
	Timeout   time.Duration       // 单个请求的超时时间，包含读取响应体
	UserAgent string              // 请求头中的User-Agent
	Proxy     proxy.ProxyFunc     // 代理函数，为空时直连
	Limit     limiter.RateLimiter // 限速器，为空时不限速
	Logger    *zap.Logger
}

var defaultOptions = options{
	Timeout:   10 * time.Second,
	UserAgent: DefaultUserAgent,
	Logger:    zap.NewNop(),
}

func WithTimeout(timeout time.Duration) Option {
	return func(opts *options) {
		opts.Timeout = timeout
	}
}

func WithUserAgent(userAgent string) Option {
	return func(opts *options) {
		opts.UserAgent = userAgent
	}
}

func WithProxy(p proxy.ProxyFunc) Option {
	return func(opts *options) {
		opts.Proxy = p
	}
}

func WithLimiter(l limiter.RateLimiter) Option {
	return func(opts *options) {
		opts.Limit = l
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.Logger = logger
	}
}
