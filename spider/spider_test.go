package spider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const twoTables = `<html><body>
<table><tr><td headers="t1sa1 t1sb2">A</td></tr></table>
<table><tr><td headers="t2sa1 t2sb2"><a href="ps311?xobec=1">B</a></td></tr></table>
</body></html>`

func newServer(t *testing.T) *httptest.Server {
	cp1250, err := charmap.Windows1250.NewEncoder().String(`<html><head><meta charset="windows-1250"></head><body><table><tr><td headers="sa1">Čáslav</td></tr></table></body></html>`)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/pls/ps2017nss/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, twoTables)
	})
	mux.HandleFunc("/pls/ps2017nss/cp1250", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, cp1250)
	})
	mux.HandleFunc("/pls/ps2017nss/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/pls/ps2017nss/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestBaseFetchGet(t *testing.T) {
	srv := newServer(t)
	f := NewFetchService(WithTimeout(200 * time.Millisecond))

	tests := []struct {
		name    string
		path    string
		wantErr bool
		tables  int
	}{
		{name: "ok", path: "/pls/ps2017nss/page", tables: 2},
		{name: "not found", path: "/pls/ps2017nss/missing", wantErr: true},
		{name: "timeout", path: "/pls/ps2017nss/slow", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := srv.URL + tt.path
			doc, err := f.Get(context.Background(), url)
			if tt.wantErr {
				require.Error(t, err)
				var fe *FetchError
				require.True(t, errors.As(err, &fe))
				assert.Equal(t, url, fe.URL)
				assert.Nil(t, doc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.tables, doc.TableCount())
			assert.Equal(t, url, doc.URL())
		})
	}
}

func TestBaseFetchCharset(t *testing.T) {
	srv := newServer(t)
	doc, err := NewFetchService().Get(context.Background(), srv.URL+"/pls/ps2017nss/cp1250")
	require.NoError(t, err)
	assert.Equal(t, "Čáslav", doc.Find("td").Text())
}

func TestDocumentResolve(t *testing.T) {
	doc, err := NewDocument("https://www.volby.cz/pls/ps2017nss/ps32?xjazyk=CZ", strings.NewReader(twoTables))
	require.NoError(t, err)

	got, err := doc.Resolve("ps311?xobec=1")
	require.NoError(t, err)
	assert.Equal(t, "https://www.volby.cz/pls/ps2017nss/ps311?xobec=1", got)

	got, err = doc.Resolve("https://example.org/x")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/x", got)
}

type fakeFetcher struct {
	delay    time.Duration
	fail     map[string]bool
	inFlight int32
	maxSeen  int32
	mu       sync.Mutex
	calls    map[string]int
}

func (f *fakeFetcher) Get(ctx context.Context, url string) (*Document, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		old := atomic.LoadInt32(&f.maxSeen)
		if n <= old || atomic.CompareAndSwapInt32(&f.maxSeen, old, n) {
			break
		}
	}
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[url]++
	f.mu.Unlock()

	time.Sleep(f.delay)
	if f.fail[url] {
		return nil, &FetchError{URL: url, Err: errors.New("connection refused")}
	}
	return NewDocument(url, strings.NewReader(twoTables))
}

func TestFetchAll(t *testing.T) {
	var urls []string
	for i := 1; i <= 12; i++ {
		urls = append(urls, fmt.Sprintf("https://www.volby.cz/pls/ps2017nss/ps311?xokrsek=%d", i))
	}
	f := &fakeFetcher{
		delay: 20 * time.Millisecond,
		fail:  map[string]bool{urls[3]: true, urls[9]: true},
	}

	results := FetchAll(context.Background(), f, urls, DefaultFetchLimit)
	require.Len(t, results, 12)

	var ok, failed int
	for _, u := range urls {
		r, found := results[u]
		require.True(t, found, u)
		if r.Err != nil {
			failed++
			assert.Nil(t, r.Doc)
		} else {
			ok++
			assert.NotNil(t, r.Doc)
		}
	}
	assert.Equal(t, 10, ok)
	assert.Equal(t, 2, failed)
	assert.LessOrEqual(t, atomic.LoadInt32(&f.maxSeen), int32(DefaultFetchLimit))
}

func TestFetchAllDuplicates(t *testing.T) {
	urls := []string{"https://a/1", "https://a/2", "https://a/1"}
	f := &fakeFetcher{}
	results := FetchAll(context.Background(), f, urls, 2)
	assert.Len(t, results, 2)
	assert.Equal(t, 1, f.calls["https://a/1"])
	assert.LessOrEqual(t, atomic.LoadInt32(&f.maxSeen), int32(2))
}
