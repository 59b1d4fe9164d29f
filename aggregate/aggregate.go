package aggregate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// 投票区在该位置没有数据的占位符，累加时跳过而不是当作0
const Sentinel = "-"

var (
	ErrEmpty          = errors.New("no vectors to aggregate")
	ErrLengthMismatch = errors.New("vector length mismatch")
)

// 既不是数字也不是占位符的单元格
type FormatError struct {
	Vector   int
	Position int
	Value    string
	Err      error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("vector %d position %d: invalid count %q: %v", e.Vector, e.Position, e.Value, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// 结果页使用的千位分隔符：不换行空格和窄不换行空格
var separators = strings.NewReplacer("\u00a0", "", "\u202f", "")

// 解析带千位分隔符的整数，例如"1\u00a0205"
func ParseCount(s string) (int64, error) {
	return strconv.ParseInt(separators.Replace(strings.TrimSpace(s)), 10, 64)
}

// 按位置累加多个字段向量，第一个向量决定宽度
type Accumulator struct {
	sums  []int64
	seen  int
	count int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

/*
输入一个字段向量，输出错误

向量中只要有一个非法单元格，整个向量都不计入累加结果，该向量的所有非法单元格通过multierr一起返回
*/
func (a *Accumulator) Add(v []string) error {
	index := a.seen
	a.seen++
	if index == 0 {
		a.sums = make([]int64, len(v))
	} else if len(v) != len(a.sums) {
		return fmt.Errorf("%w: vector %d has %d fields, want %d", ErrLengthMismatch, index, len(v), len(a.sums))
	}

	parsed := make([]int64, len(v))
	var errs error
	for pos, cell := range v {
		if strings.TrimSpace(cell) == Sentinel {
			continue
		}
		n, err := ParseCount(cell)
		if err != nil {
			errs = multierr.Append(errs, &FormatError{Vector: index, Position: pos, Value: cell, Err: err})
			continue
		}
		parsed[pos] = n
	}
	if errs != nil {
		return errs
	}

	for pos, n := range parsed {
		a.sums[pos] += n
	}
	a.count++
	return nil
}

// 已累加的向量数量
func (a *Accumulator) Count() int {
	return a.count
}

// 以十进制字符串输出累加结果，全部为占位符的位置输出"0"；没有累加任何向量时返回ErrEmpty，避免空结果被当成0
func (a *Accumulator) Result() ([]string, error) {
	if a.count == 0 {
		return nil, ErrEmpty
	}
	out := make([]string, len(a.sums))
	for i, n := range a.sums {
		out[i] = strconv.FormatInt(n, 10)
	}
	return out, nil
}

/*
输入若干等长的字段向量，输出逐位置求和的结果和错误

只传入一个向量时相当于规范化：去掉千位分隔符，占位符变为"0"。长度不一致立即返回ErrLengthMismatch，
非法单元格会在检查完所有向量后一起返回
*/
func Reduce(vectors ...[]string) ([]string, error) {
	acc := NewAccumulator()
	var errs error
	for _, v := range vectors {
		err := acc.Add(v)
		if errors.Is(err, ErrLengthMismatch) {
			return nil, err
		}
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return nil, errs
	}
	return acc.Result()
}
