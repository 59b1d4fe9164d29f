package proxy

import (
	"errors"
	"net/http"
	"net/url"
	"sync/atomic"
)

// 与http.Transport.Proxy签名一致
type ProxyFunc func(*http.Request) (*url.URL, error)

var ErrEmptyProxy = errors.New("proxy url list is empty")

type roundRobinSwitcher struct {
	proxyURLs []*url.URL
	index     uint32
}

// 按轮询顺序为每个请求选择代理
func (r *roundRobinSwitcher) GetProxy(pr *http.Request) (*url.URL, error) {
	index := atomic.AddUint32(&r.index, 1) - 1
	u := r.proxyURLs[index%uint32(len(r.proxyURLs))]
	return u, nil
}

/*
输入代理服务器地址列表，输出轮询代理函数和错误

地址列表为空时返回ErrEmptyProxy，调用方据此使用直连
*/
func RoundRobinProxySwitcher(proxyURLs ...string) (ProxyFunc, error) {
	if len(proxyURLs) < 1 {
		return nil, ErrEmptyProxy
	}
	urls := make([]*url.URL, len(proxyURLs))
	for i, u := range proxyURLs {
		parsedU, err := url.Parse(u)
		if err != nil {
			return nil, err
		}
		urls[i] = parsedU
	}
	return (&roundRobinSwitcher{proxyURLs: urls}).GetProxy, nil
}
