package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dszqbsm/volby/engine"
	"github.com/dszqbsm/volby/limiter"
	"github.com/dszqbsm/volby/spider"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel   string        `yaml:"logLevel"`
	LogFile    string        `yaml:"logFile"`
	ListingURL string        `yaml:"listingURL"`
	Fetcher    FetcherConfig `yaml:"fetcher"`
	Crawler    CrawlerConfig `yaml:"crawler"`
	Storage    StorageConfig `yaml:"storage"`
}

type FetcherConfig struct {
	Timeout   time.Duration  `yaml:"timeout"`
	UserAgent string         `yaml:"userAgent"`
	Proxy     []string       `yaml:"proxy"`
	Limits    []limiter.Rule `yaml:"limits"`
}

type CrawlerConfig struct {
	FetchLimit int `yaml:"fetchLimit"` // 单个市镇内同时采集的投票区页面数
	WorkCount  int `yaml:"workCount"`  // 同时处理的市镇数，1表示逐个处理
}

// SQLURL为空时只输出CSV
type StorageConfig struct {
	SQLURL     string `yaml:"sqlURL"`
	Table      string `yaml:"table"`
	BatchCount int    `yaml:"batchCount"`
}

func Default() Config {
	return Config{
		LogLevel:   "info",
		ListingURL: engine.DefaultListingURL,
		Fetcher: FetcherConfig{
			Timeout:   10 * time.Second,
			UserAgent: spider.DefaultUserAgent,
		},
		Crawler: CrawlerConfig{
			FetchLimit: spider.DefaultFetchLimit,
			WorkCount:  1,
		},
		Storage: StorageConfig{
			Table:      "volby_results",
			BatchCount: 500,
		},
	}
}

/*
输入配置文件路径，输出配置和错误

路径为空时直接返回默认配置；文件中出现的键覆盖默认值，未出现的键保持默认
*/
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var err error
	if c.ListingURL == "" {
		err = multierr.Append(err, errors.New("listingURL is empty"))
	}
	if c.Fetcher.Timeout <= 0 {
		err = multierr.Append(err, errors.New("fetcher.timeout must be positive"))
	}
	if c.Crawler.FetchLimit <= 0 {
		err = multierr.Append(err, errors.New("crawler.fetchLimit must be positive"))
	}
	if c.Crawler.WorkCount <= 0 {
		err = multierr.Append(err, errors.New("crawler.workCount must be positive"))
	}
	if c.Storage.SQLURL != "" && c.Storage.BatchCount <= 0 {
		err = multierr.Append(err, errors.New("storage.batchCount must be positive"))
	}
	return err
}
