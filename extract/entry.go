package extract

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/dszqbsm/volby/spider"
)

// 地区页面中的一个市镇：代码、名称和结果页地址来自同一行
type Entry struct {
	Code     string
	Location string
	URL      string
}

func idSet(p Pattern, tables int) map[string]struct{} {
	set := make(map[string]struct{})
	for _, id := range p.Expand(tables) {
		set[id] = struct{}{}
	}
	return set
}

/*
输入文档以及代码、名称、链接三个模板，输出市镇列表

按表格行扫描，一行内同时取出三项，不依赖三个独立列表的位置对齐。
链接单元格中没有链接的行（表头行、页面末尾的填充行）被跳过；有链接但缺少代码或名称的行返回ErrIncompleteRow
*/
func Entries(doc *spider.Document, code, location, link Pattern) ([]Entry, error) {
	tables := doc.TableCount()
	codeIDs := idSet(code, tables)
	locationIDs := idSet(location, tables)
	linkIDs := idSet(link, tables)

	var (
		entries []Entry
		err     error
	)
	doc.FindMatcher(rowMatcher).EachWithBreak(func(i int, tr *goquery.Selection) bool {
		var (
			e                    Entry
			hasCode, hasLocation bool
		)
		tr.FindMatcher(cellMatcher).Each(func(_ int, td *goquery.Selection) {
			id := headerID(td)
			if _, ok := codeIDs[id]; ok && !hasCode {
				e.Code, hasCode = cellText(td), true
			}
			if _, ok := locationIDs[id]; ok && !hasLocation {
				e.Location, hasLocation = cellText(td), true
			}
			if _, ok := linkIDs[id]; ok && e.URL == "" {
				if a := td.FindMatcher(anchorMatcher).First(); a.Length() > 0 {
					if u, rerr := doc.Resolve(a.AttrOr("href", "")); rerr == nil {
						e.URL = u
					}
				}
			}
		})
		if e.URL == "" {
			return true
		}
		if !hasCode || !hasLocation {
			err = fmt.Errorf("%w: row %d links %s without code or location", ErrIncompleteRow, i, e.URL)
			return false
		}
		entries = append(entries, e)
		return true
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
