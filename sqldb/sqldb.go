package sqldb

import (
	"database/sql"
	"errors"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

var ErrEmptyColumn = errors.New("column can not be empty")

// 数据库操作的统一规范
type DBer interface {
	CreateTable(t TableData) error
	Insert(t TableData) error
}

type Sqldb struct {
	options
	db *sql.DB
}

/*
无输入，输出一个error

打开MySQL连接并通过Ping检查连接是否可用
*/
func (d *Sqldb) OpenDB() error {
	db, err := sql.Open("mysql", d.sqlURL)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(16)
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return err
	}
	d.db = db
	return nil
}

// 表名和列名来自程序内部常量，这里只做反引号转义
func quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

/*
输入表数据，输出error

根据列定义拼接CREATE TABLE IF NOT EXISTS语句，AutoKey为true时增加自增主键
*/
func (d *Sqldb) CreateTable(t TableData) error {
	if len(t.ColumnNames) == 0 {
		return ErrEmptyColumn
	}
	sql := `CREATE TABLE IF NOT EXISTS ` + quote(t.TableName) + " ("
	if t.AutoKey {
		sql += `id INT(12) NOT NULL PRIMARY KEY AUTO_INCREMENT,`
	}
	for _, c := range t.ColumnNames {
		sql += quote(c.Title) + ` ` + c.Type + `,`
	}
	sql = sql[:len(sql)-1] + `) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

	d.logger.Debug("create table", zap.String("sql", sql))

	_, err := d.db.Exec(sql)
	return err
}

/*
输入表数据，输出error

拼接形如INSERT INTO t(a,b) VALUES (?,?),(?,?);的批量插入语句，问号个数等于列数乘以DataCount
*/
func (d *Sqldb) Insert(t TableData) error {
	if len(t.ColumnNames) == 0 {
		return ErrEmptyColumn
	}
	sql := `INSERT INTO ` + quote(t.TableName) + `(`

	for _, v := range t.ColumnNames {
		sql += quote(v.Title) + ","
	}

	sql = sql[:len(sql)-1] + `) VALUES `

	blank := ",(" + strings.Repeat(",?", len(t.ColumnNames))[1:] + ")"
	sql += strings.Repeat(blank, t.DataCount)[1:] + `;`
	d.logger.Debug("insert table", zap.String("sql", sql))
	_, err := d.db.Exec(sql, t.Args...)
	return err
}

func (d *Sqldb) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// 表中的一列
type Field struct {
	Title string
	Type  string
}

type TableData struct {
	TableName   string
	ColumnNames []Field
	Args        []interface{}
	DataCount   int // 插入的行数
	AutoKey     bool
}

func New(opts ...Option) (*Sqldb, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	d := &Sqldb{}
	d.options = options
	if err := d.OpenDB(); err != nil {
		return nil, err
	}
	return d, nil
}
