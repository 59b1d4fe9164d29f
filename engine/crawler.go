package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"

	"github.com/dszqbsm/volby/aggregate"
	"github.com/dszqbsm/volby/extract"
	"github.com/dszqbsm/volby/spider"
	"github.com/dszqbsm/volby/storage"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotListed        = errors.New("region is not listed")
	ErrNoMunicipalities = errors.New("no municipalities found")
	ErrNoHeader         = errors.New("no municipality produced results")
)

// 地区页面
var (
	codePattern     = extract.Required("t_sa1 t_sb1")
	locationPattern = extract.Required("t_sa1 t_sb2")
	linkPattern     = extract.Required("t_sa2")
)

// 结果页面
var (
	leafProbe       = extract.Optional("sa2")
	labelPattern    = extract.Optional("t_sa1 t_sb2")
	precinctPattern = extract.Required("s1")
	fieldSet        = []extract.Pattern{
		extract.Required("sa2"),         // 登记选民
		extract.Required("sa3"),         // 发出的信封
		extract.Required("sa6"),         // 有效票
		extract.Required("t_sa2 t_sb3"), // 各政党得票
	}
)

// 总览页中地区链接所在的列
var listingPattern = extract.Required("t_sa3")

var baseHeader = []string{"code", "location", "registered", "envelopes", "valid"}

// 爬虫实例，按地区、市镇、投票区三级采集并汇总
type Crawler struct {
	options
}

func NewCrawler(opts ...Option) *Crawler {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	if options.WorkCount <= 0 {
		options.WorkCount = 1
	}
	if options.Fetcher == nil {
		options.Fetcher = spider.NewFetchService(spider.WithLogger(options.Logger))
	}
	return &Crawler{options: options}
}

// 单个市镇的处理结果，skipped为true时不输出该行
type outcome struct {
	values  []string
	labels  []string
	skipped bool
}

var skipped = outcome{skipped: true}

/*
输入上下文和地区页面地址，输出结果表和错误

地区页面采集失败直接返回错误。市镇按地区页面中的顺序输出；市镇页面采集失败或全部投票区失败时跳过该市镇，
数据格式错误或字段数量不一致时终止整个运行，不返回部分结果
*/
func (c *Crawler) Crawl(ctx context.Context, regionURL string) (*storage.Table, error) {
	region, err := c.Fetcher.Get(ctx, regionURL)
	if err != nil {
		return nil, fmt.Errorf("fetch region failed:%w", err)
	}
	entries, err := extract.Entries(region, codePattern, locationPattern, linkPattern)
	if err != nil {
		return nil, fmt.Errorf("scan region %s failed:%w", regionURL, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMunicipalities, regionURL)
	}
	c.Logger.Info("municipalities found", zap.String("region", regionURL), zap.Int("count", len(entries)))

	outcomes := make([]outcome, len(entries))
	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.WorkCount)
	for i, e := range entries {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					c.Logger.Error("worker panic",
						zap.Any("err", r),
						zap.String("stack", string(debug.Stack())))
					err = fmt.Errorf("municipality %s %s: panic: %v", e.Code, e.Location, r)
				}
			}()

			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := c.municipality(gctx, e)
			if err != nil {
				return fmt.Errorf("municipality %s %s: %w", e.Code, e.Location, err)
			}
			outcomes[i] = out

			mu.Lock()
			done++
			if c.Progress != nil {
				c.Progress(done, len(entries))
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table := &storage.Table{}
	for i, out := range outcomes {
		if out.skipped {
			continue
		}
		if table.Header == nil {
			table.Header = append(slices.Clone(baseHeader), out.labels...)
		}
		row := append([]string{entries[i].Code, entries[i].Location}, out.values...)
		table.Rows = append(table.Rows, row)
	}
	if table.Header == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoHeader, regionURL)
	}
	return table, nil
}

func (c *Crawler) municipality(ctx context.Context, e extract.Entry) (outcome, error) {
	doc, err := c.Fetcher.Get(ctx, e.URL)
	if err != nil {
		if ctx.Err() != nil {
			return outcome{}, ctx.Err()
		}
		c.Logger.Error("Failed", zap.String("url", e.URL), zap.Error(err))
		return skipped, nil
	}

	probe, _ := extract.Text(doc, leafProbe)
	if len(probe) > 0 {
		return c.leaf(doc, e)
	}
	return c.expand(ctx, doc, e)
}

// 市镇页面直接包含汇总结果，单个向量经过Reduce规范化，与展开投票区后的输出格式一致
func (c *Crawler) leaf(doc *spider.Document, e extract.Entry) (outcome, error) {
	fields, err := extract.Text(doc, fieldSet...)
	if err != nil {
		c.Logger.Error("leaf page incomplete", zap.String("url", e.URL), zap.Error(err))
		return skipped, nil
	}
	values, err := aggregate.Reduce(fields)
	if err != nil {
		return outcome{}, err
	}
	labels, _ := extract.Text(doc, labelPattern)
	return outcome{values: values, labels: labels}, nil
}

/*
输入上下文、市镇页面和市镇，输出所有投票区逐位置求和后的结果

投票区按页面中链接的顺序累加，重复的链接按出现次数计入；采集失败或缺少必需列的投票区记录日志后跳过
*/
func (c *Crawler) expand(ctx context.Context, doc *spider.Document, e extract.Entry) (outcome, error) {
	links, err := extract.Links(doc, precinctPattern)
	if err != nil {
		c.Logger.Error("no precinct links", zap.String("url", e.URL), zap.Error(err))
		return skipped, nil
	}

	results := spider.FetchAll(ctx, c.Fetcher, links, c.FetchLimit)
	if ctx.Err() != nil {
		return outcome{}, ctx.Err()
	}

	acc := aggregate.NewAccumulator()
	var (
		labels []string
		errs   error
	)
	for _, link := range links {
		r := results[link]
		if r.Err != nil {
			c.Logger.Error("Failed", zap.String("url", link), zap.Error(r.Err))
			continue
		}
		fields, err := extract.Text(r.Doc, fieldSet...)
		if err != nil {
			c.Logger.Error("Failed", zap.String("url", link), zap.Error(err))
			continue
		}
		if err := acc.Add(fields); err != nil {
			if errors.Is(err, aggregate.ErrLengthMismatch) {
				return outcome{}, fmt.Errorf("precinct %s: %w", link, err)
			}
			errs = multierr.Append(errs, fmt.Errorf("precinct %s: %w", link, err))
			continue
		}
		if labels == nil {
			labels, _ = extract.Text(r.Doc, labelPattern)
		}
	}
	if errs != nil {
		return outcome{}, errs
	}

	values, err := acc.Result()
	if errors.Is(err, aggregate.ErrEmpty) {
		c.Logger.Error("all precincts failed", zap.String("url", e.URL), zap.Int("precincts", len(links)))
		return skipped, nil
	}
	if err != nil {
		return outcome{}, err
	}
	c.Logger.Debug("precincts aggregated", zap.String("url", e.URL), zap.Int("precincts", acc.Count()))
	return outcome{values: values, labels: labels}, nil
}

// 地区地址必须是总览页中列出的链接之一
func (c *Crawler) Validate(ctx context.Context, regionURL string) error {
	listing, err := c.Fetcher.Get(ctx, c.ListingURL)
	if err != nil {
		return fmt.Errorf("fetch listing failed:%w", err)
	}
	links, err := extract.Links(listing, listingPattern)
	if err != nil {
		return fmt.Errorf("scan listing failed:%w", err)
	}
	if !slices.Contains(links, regionURL) {
		return fmt.Errorf("%w: %s", ErrNotListed, regionURL)
	}
	return nil
}
