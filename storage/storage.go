package storage

// 一次运行的输出：表头加每个市镇一行
type Table struct {
	Header []string
	Rows   [][]string
}

// 表头在前，数据行在后
func (t *Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, t.Header)
	return append(records, t.Rows...)
}

// 存储引擎的统一规范
type Storage interface {
	Save(t *Table) error
}
