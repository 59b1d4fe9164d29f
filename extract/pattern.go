package extract

import (
	"strconv"
	"strings"
)

// 表格序号占位符，例如"t_sa1 t_sb2"在第2个表格中展开为"t2sa1 t2sb2"
const Placeholder = "_"

// 单元格headers属性的匹配模板
type Pattern struct {
	Template string
	Required bool // 必需的模板在页面中一个单元格都匹配不到时视为错误
}

func Optional(template string) Pattern {
	return Pattern{Template: template}
}

func Required(template string) Pattern {
	return Pattern{Template: template, Required: true}
}

// 含占位符的模板按表格序号展开
func (p Pattern) Indexed() bool {
	return strings.Contains(p.Template, Placeholder)
}

/*
输入文档中的表格数量，输出展开后的headers属性值列表

字面模板只有一项；带序号的模板对1..tables逐个替换所有占位符，按序号顺序返回
*/
func (p Pattern) Expand(tables int) []string {
	if !p.Indexed() {
		return []string{p.Template}
	}
	ids := make([]string, 0, tables)
	for i := 1; i <= tables; i++ {
		ids = append(ids, strings.ReplaceAll(p.Template, Placeholder, strconv.Itoa(i)))
	}
	return ids
}
