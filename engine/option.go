package engine

import (
	"github.com/dszqbsm/volby/spider"
	"go.uber.org/zap"
)

// 选举结果总览页，地区地址必须出现在该页面的链接中
const DefaultListingURL = "https://www.volby.cz/pls/ps2017nss/ps3?xjazyk=CZ"

type Option func(opts *options)

// 爬虫配置选项
type options struct {
	WorkCount  int                   // 同时处理的市镇数，1表示按地区顺序逐个处理
	FetchLimit int                   // 展开投票区时同时在途的请求数
	ListingURL string                // 校验地区地址时使用的总览页
	Fetcher    spider.Fetcher        // 采集器
	Logger     *zap.Logger           // 日志
	Progress   func(done, total int) // 每完成一个市镇回调一次
}

var defaultOptions = options{
	WorkCount:  1,
	FetchLimit: spider.DefaultFetchLimit,
	ListingURL: DefaultListingURL,
	Logger:     zap.NewNop(),
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.Logger = logger
	}
}

func WithFetcher(fetcher spider.Fetcher) Option {
	return func(opts *options) {
		opts.Fetcher = fetcher
	}
}

func WithWorkCount(workCount int) Option {
	return func(opts *options) {
		opts.WorkCount = workCount
	}
}

func WithFetchLimit(limit int) Option {
	return func(opts *options) {
		opts.FetchLimit = limit
	}
}

func WithListingURL(listingURL string) Option {
	return func(opts *options) {
		opts.ListingURL = listingURL
	}
}

func WithProgress(progress func(done, total int)) Option {
	return func(opts *options) {
		opts.Progress = progress
	}
}
