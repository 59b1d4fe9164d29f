package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dszqbsm/volby/config"
	"github.com/dszqbsm/volby/engine"
	"github.com/dszqbsm/volby/limiter"
	"github.com/dszqbsm/volby/log"
	"github.com/dszqbsm/volby/proxy"
	"github.com/dszqbsm/volby/spider"
	"github.com/dszqbsm/volby/storage"
	"github.com/dszqbsm/volby/storage/csvstorage"
	"github.com/dszqbsm/volby/storage/sqlstorage"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var errOutputName = errors.New("output file must have a .csv extension")

// 命令行参数，显式给出时覆盖配置文件
type runFlags struct {
	configPath string
	listingURL string
	logLevel   string
	logFile    string
	workers    int
}

func (f runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("listing") {
		cfg.ListingURL = f.listingURL
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("log-file") {
		cfg.LogFile = f.logFile
	}
	if changed("workers") {
		cfg.Crawler.WorkCount = f.workers
	}
}

/*
输入上下文、命令、参数、地区地址和输出文件，输出error

先校验地区地址和文件名，校验失败打印提示；采集成功后才写出结果，任何错误都不会留下不完整的文件
*/
func run(ctx context.Context, cmd *cobra.Command, flags runFlags, regionURL, outputPath string) (err error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	flags.apply(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := log.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, closeLog())
	}()
	logger.Info("log init end", zap.String("level", cfg.LogLevel))

	fetcher, err := newFetcher(cfg.Fetcher, logger.Named("fetcher"))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	crawler := engine.NewCrawler(
		engine.WithFetcher(fetcher),
		engine.WithLogger(logger.Named("engine")),
		engine.WithListingURL(cfg.ListingURL),
		engine.WithFetchLimit(cfg.Crawler.FetchLimit),
		engine.WithWorkCount(cfg.Crawler.WorkCount),
		engine.WithProgress(func(done, total int) {
			fmt.Fprintf(out, "I have %d out of %d parts ready.\n", done, total)
		}),
	)

	if err := validate(ctx, crawler, regionURL, outputPath); err != nil {
		fmt.Fprintf(out, "\nYour web address %s or CSV file name %s is incorrect.\n\n", regionURL, outputPath)
		return err
	}

	stores, closeStores, err := newStorages(cfg.Storage, outputPath, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, closeStores())
	}()

	fmt.Fprintln(out, "The script is running.")
	table, err := crawler.Crawl(ctx, regionURL)
	if err != nil {
		return err
	}
	logger.Info("crawl finished", zap.String("region", regionURL), zap.Int("rows", len(table.Rows)))

	for _, s := range stores {
		if err := s.Save(table); err != nil {
			return err
		}
	}
	fmt.Fprintln(out, "CSV file is ready.")
	return nil
}

func validate(ctx context.Context, crawler *engine.Crawler, regionURL, outputPath string) error {
	if !strings.EqualFold(filepath.Ext(outputPath), ".csv") {
		return fmt.Errorf("%w: %s", errOutputName, outputPath)
	}
	return crawler.Validate(ctx, regionURL)
}

func newFetcher(cfg config.FetcherConfig, logger *zap.Logger) (spider.Fetcher, error) {
	opts := []spider.Option{
		spider.WithTimeout(cfg.Timeout),
		spider.WithLogger(logger),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, spider.WithUserAgent(cfg.UserAgent))
	}
	if len(cfg.Proxy) > 0 {
		p, err := proxy.RoundRobinProxySwitcher(cfg.Proxy...)
		if err != nil {
			return nil, fmt.Errorf("set proxy failed:%w", err)
		}
		opts = append(opts, spider.WithProxy(p))
	}
	if l := limiter.New(cfg.Limits...); l != nil {
		opts = append(opts, spider.WithLimiter(l))
	}
	return spider.NewFetchService(opts...), nil
}

// CSV总是输出；配置了数据库地址时同时写入MySQL
func newStorages(cfg config.StorageConfig, outputPath string, logger *zap.Logger) ([]storage.Storage, func() error, error) {
	csvStore, err := csvstorage.New(
		csvstorage.WithPath(outputPath),
		csvstorage.WithLogger(logger.Named("csv")),
	)
	if err != nil {
		return nil, nil, err
	}
	stores := []storage.Storage{csvStore}
	if cfg.SQLURL == "" {
		return stores, func() error { return nil }, nil
	}

	sqlStore, err := sqlstorage.New(
		sqlstorage.WithSqlURL(cfg.SQLURL),
		sqlstorage.WithTable(cfg.Table),
		sqlstorage.WithBatchCount(cfg.BatchCount),
		sqlstorage.WithLogger(logger.Named("sqlDB")),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create sqlstorage failed:%w", err)
	}
	return append(stores, sqlStore), sqlStore.Close, nil
}
