package sqlstorage

// 将结果表以长表形式（代码、名称、字段、数值）分批写入MySQL，便于在数据库中按政党汇总

import (
	"fmt"
	"io"

	"github.com/dszqbsm/volby/sqldb"
	"github.com/dszqbsm/volby/storage"
	"go.uber.org/zap"
)

var columnNames = []sqldb.Field{
	{Title: "code", Type: "VARCHAR(32)"},
	{Title: "location", Type: "VARCHAR(255)"},
	{Title: "field", Type: "VARCHAR(255)"},
	{Title: "value", Type: "BIGINT"},
}

// 长表中的一条记录
type record struct {
	code     string
	location string
	field    string
	value    string
}

type SqlStore struct {
	dataDocker []record // 待插入的记录缓存
	db         sqldb.DBer
	created    bool
	options
}

func New(opts ...Option) (*SqlStore, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	s := &SqlStore{}
	s.options = options
	var err error
	s.db, err = sqldb.New(
		sqldb.WithConnURL(s.sqlURL),
		sqldb.WithLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

/*
输入一张表，输出error

第一次保存时建表；每行从第3列开始拆成多条记录，缓存达到BatchCount时批量插入，最后把剩余记录刷入数据库
*/
func (s *SqlStore) Save(t *storage.Table) error {
	if !s.created {
		if err := s.db.CreateTable(sqldb.TableData{
			TableName:   s.table,
			ColumnNames: columnNames,
			AutoKey:     true,
		}); err != nil {
			return fmt.Errorf("create table failed: %w", err)
		}
		s.created = true
	}

	for _, row := range t.Rows {
		if len(row) < 2 {
			continue
		}
		for i := 2; i < len(row); i++ {
			if len(s.dataDocker) >= s.BatchCount {
				if err := s.Flush(); err != nil {
					return err
				}
			}
			s.dataDocker = append(s.dataDocker, record{
				code:     row[0],
				location: row[1],
				field:    fieldName(t.Header, i),
				value:    row[i],
			})
		}
	}
	return s.Flush()
}

func fieldName(header []string, i int) string {
	if i < len(header) {
		return header[i]
	}
	return fmt.Sprintf("field_%d", i-1)
}

// 把缓存中的记录一次性插入数据库，无论成功与否都清空缓存
func (s *SqlStore) Flush() error {
	if len(s.dataDocker) == 0 {
		return nil
	}
	defer func() {
		s.dataDocker = nil
	}()

	args := make([]interface{}, 0, len(s.dataDocker)*len(columnNames))
	for _, r := range s.dataDocker {
		args = append(args, r.code, r.location, r.field, r.value)
	}

	s.logger.Debug("flush records", zap.Int("count", len(s.dataDocker)))
	return s.db.Insert(sqldb.TableData{
		TableName:   s.table,
		ColumnNames: columnNames,
		Args:        args,
		DataCount:   len(s.dataDocker),
	})
}

func (s *SqlStore) Close() error {
	if c, ok := s.db.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
