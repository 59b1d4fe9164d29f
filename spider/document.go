package spider

import (
	"fmt"
	"io"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

var tableCountExpr = xpath.MustCompile("count(//table)")

// 一次采集得到的页面，解析后只读；通过内嵌的goquery.Document查询单元格
type Document struct {
	*goquery.Document
	root   *html.Node
	tables int
}

/*
输入页面地址和UTF-8编码的页面内容，输出文档和错误

页面地址作为文档中相对链接的基准地址，表格数量在解析时统计一次
*/
func NewDocument(rawURL string, r io.Reader) (*Document, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url failed:%w", err)
	}

	root, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html failed:%w", err)
	}

	count, _ := tableCountExpr.Evaluate(htmlquery.CreateXPathNavigator(root)).(float64)

	doc := goquery.NewDocumentFromNode(root)
	doc.Url = base

	return &Document{
		Document: doc,
		root:     root,
		tables:   int(count),
	}, nil
}

// 文档中<table>元素的数量，包括嵌套的表格
func (d *Document) TableCount() int {
	return d.tables
}

// 将href解析为以文档地址为基准的绝对地址
func (d *Document) Resolve(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if d.Url == nil {
		return ref.String(), nil
	}
	return d.Url.ResolveReference(ref).String(), nil
}

// 页面的地址
func (d *Document) URL() string {
	if d.Url == nil {
		return ""
	}
	return d.Url.String()
}
