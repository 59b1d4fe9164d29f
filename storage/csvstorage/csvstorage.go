package csvstorage

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"

	"github.com/dszqbsm/volby/storage"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var ErrNoPath = errors.New("csv output path is empty")

type CSVStore struct {
	options
}

func New(opts ...Option) (*CSVStore, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	if options.path == "" {
		return nil, ErrNoPath
	}
	return &CSVStore{options: options}, nil
}

/*
输入一张表，输出错误

先写到同目录下的临时文件，成功后再重命名为目标文件，失败时不会留下写了一半的输出文件
*/
func (s *CSVStore) Save(t *storage.Table) (err error) {
	dir, base := filepath.Split(s.path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	w := csv.NewWriter(f)
	w.Comma = s.comma
	if werr := w.WriteAll(t.Records()); werr != nil {
		return multierr.Append(werr, f.Close())
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp, 0o644); err != nil {
		return err
	}
	if err = os.Rename(tmp, s.path); err != nil {
		return err
	}

	s.logger.Info("csv saved", zap.String("path", s.path), zap.Int("rows", len(t.Rows)))
	return nil
}
