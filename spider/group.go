package spider

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// 同时在途的请求数上限
const DefaultFetchLimit = 10

// 单个URL的采集结果，Doc和Err只有一个非空
type Result struct {
	Doc *Document
	Err error
}

/*
输入上下文、采集器、URL列表和并发上限，输出以URL为键的结果表

重复的URL只采集一次；单个URL失败只记录在该URL的结果中，不会取消其它请求；
函数在所有请求结束后才返回，每个不同的URL在结果表中恰好有一项
*/
func FetchAll(ctx context.Context, f Fetcher, urls []string, limit int) map[string]Result {
	if limit <= 0 {
		limit = DefaultFetchLimit
	}

	unique := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		unique = append(unique, u)
	}

	// 每个协程只写自己下标的位置，不需要加锁
	slots := make([]Result, len(unique))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, u := range unique {
		g.Go(func() error {
			doc, err := f.Get(ctx, u)
			slots[i] = Result{Doc: doc, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	results := make(map[string]Result, len(unique))
	for i, u := range unique {
		results[u] = slots[i]
	}
	return results
}
