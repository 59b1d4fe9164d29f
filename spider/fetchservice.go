package spider

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type Fetcher interface {
	/*
	   输入上下文和URL，输出解析好的文档和错误

	   任何失败（网络错误、超时、非200状态码、解析失败）都以*FetchError返回，不会panic
	*/
	Get(ctx context.Context, url string) (*Document, error)
}

// 单个URL的采集失败，记录URL和原因
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type BaseFetch struct {
	client *http.Client
	options
}

/*
输入若干配置选项，输出一个采集器

配置了代理时复制默认Transport再设置Proxy，避免修改全局的http.DefaultTransport
*/
func NewFetchService(opts ...Option) *BaseFetch {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	client := &http.Client{
		Timeout: options.Timeout,
	}
	if options.Proxy != nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = options.Proxy
		client.Transport = transport
	}

	return &BaseFetch{
		client:  client,
		options: options,
	}
}

func (b *BaseFetch) Get(ctx context.Context, url string) (*Document, error) {
	doc, err := b.get(ctx, url)
	if err != nil {
		b.Logger.Debug("fetch failed", zap.String("url", url), zap.Error(err))
		return nil, &FetchError{URL: url, Err: err}
	}
	b.Logger.Debug("fetch done", zap.String("url", url), zap.Int("tables", doc.TableCount()))
	return doc, nil
}

func (b *BaseFetch) get(ctx context.Context, url string) (*Document, error) {
	if b.Limit != nil {
		if err := b.Limit.Wait(ctx); err != nil {
			return nil, err
		}
	}

	// 超时覆盖整个请求以及响应体的读取和解析
	ctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("get url failed:%w", err)
	}
	req.Header.Set("User-Agent", b.UserAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error status code:%d", resp.StatusCode)
	}

	bodyReader := bufio.NewReader(resp.Body)
	e := DeterminEncoding(bodyReader, resp.Header.Get("Content-Type"))
	utf8Reader := transform.NewReader(bodyReader, e.NewDecoder())

	// 跟随重定向后以最终地址作为相对链接的基准
	return NewDocument(resp.Request.URL.String(), utf8Reader)
}

/*
输入带缓冲的响应体和Content-Type，输出页面编码

读取前1024字节交给charset.DetermineEncoding判断，页面不足1024字节时使用已读到的部分
*/
func DeterminEncoding(r *bufio.Reader, contentType string) encoding.Encoding {
	bytes, err := r.Peek(1024)
	if err != nil && !errors.Is(err, io.EOF) {
		zap.L().Error("peek body failed", zap.Error(err))
		return unicode.UTF8
	}

	e, _, _ := charset.DetermineEncoding(bytes, contentType)
	return e
}
