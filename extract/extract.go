package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/dszqbsm/volby/spider"
)

var (
	ErrMissingHeader = errors.New("required header not found")
	ErrIncompleteRow = errors.New("incomplete table row")
)

var (
	cellMatcher   = cascadia.MustCompile("td[headers]")
	anchorMatcher = cascadia.MustCompile("a[href]")
	rowMatcher    = cascadia.MustCompile("tr")
)

// headers属性值到单元格内容的映射，同一个键下保持文档顺序
type buckets map[string][]string

// headers是以空白分隔的id列表，统一成单个空格连接
func headerID(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.AttrOr("headers", "")), " ")
}

func cellText(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}

func textBuckets(doc *spider.Document) buckets {
	b := make(buckets)
	doc.FindMatcher(cellMatcher).Each(func(_ int, td *goquery.Selection) {
		id := headerID(td)
		if id == "" {
			return
		}
		b[id] = append(b[id], cellText(td))
	})
	return b
}

// 无法解析的href直接跳过
func linkBuckets(doc *spider.Document) buckets {
	b := make(buckets)
	doc.FindMatcher(cellMatcher).Each(func(_ int, td *goquery.Selection) {
		id := headerID(td)
		if id == "" {
			return
		}
		td.FindMatcher(anchorMatcher).Each(func(_ int, a *goquery.Selection) {
			link, err := doc.Resolve(a.AttrOr("href", ""))
			if err != nil {
				return
			}
			b[id] = append(b[id], link)
		})
	})
	return b
}

func (b buckets) collect(tables int, patterns []Pattern) ([]string, error) {
	var out []string
	for _, p := range patterns {
		matched := 0
		for _, id := range p.Expand(tables) {
			out = append(out, b[id]...)
			matched += len(b[id])
		}
		if matched == 0 && p.Required {
			return nil, fmt.Errorf("%w: %q", ErrMissingHeader, p.Template)
		}
	}
	return out, nil
}

/*
输入文档和若干模板，输出匹配到的单元格文本

先扫描一遍所有带headers属性的单元格建立映射，再按模板顺序拼接；可选模板匹配不到时不贡献任何值，
必需模板匹配不到时返回ErrMissingHeader。结果长度等于所有展开后键的单元格数量之和
*/
func Text(doc *spider.Document, patterns ...Pattern) ([]string, error) {
	return textBuckets(doc).collect(doc.TableCount(), patterns)
}

/*
输入文档和模板，输出匹配单元格中链接的绝对地址

链接以文档地址为基准解析；重复的链接保留，位置代表对应的投票区
*/
func Links(doc *spider.Document, pattern Pattern) ([]string, error) {
	return linkBuckets(doc).collect(doc.TableCount(), []Pattern{pattern})
}
