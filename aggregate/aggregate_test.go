package aggregate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestReduce(t *testing.T) {
	tests := []struct {
		name    string
		vectors [][]string
		want    []string
	}{
		{
			name: "precincts",
			vectors: [][]string{
				{"40", "35", "34", "20", "14"},
				{"30", "28", "27", "15", "12"},
				{"30", "27", "27", "15", "12"},
			},
			want: []string{"100", "90", "88", "50", "38"},
		},
		{
			name: "thousands separators",
			vectors: [][]string{
				{"1\u00a0205", "999"},
				{"1\u00a0000", "1"},
			},
			want: []string{"2205", "1000"},
		},
		{
			name: "sentinel is skipped",
			vectors: [][]string{
				{"-", "5"},
				{"7", "-"},
			},
			want: []string{"7", "5"},
		},
		{
			name: "all sentinel",
			vectors: [][]string{
				{"-", "-"},
				{"-", "-"},
			},
			want: []string{"0", "0"},
		},
		{
			name:    "single vector is normalized",
			vectors: [][]string{{" 1\u00a0205 ", "-", "0"}},
			want:    []string{"1205", "0", "0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reduce(tt.vectors...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReduceOrderIndependent(t *testing.T) {
	a := []string{"10", "1\u00a0000", "3"}
	b := []string{"20", "5", "0"}
	c := []string{"7", "12", "9"}

	abc, err := Reduce(a, b, c)
	require.NoError(t, err)
	cab, err := Reduce(c, a, b)
	require.NoError(t, err)
	assert.Equal(t, abc, cab)

	ab, err := Reduce(a, b)
	require.NoError(t, err)
	grouped, err := Reduce(ab, c)
	require.NoError(t, err)
	assert.Equal(t, abc, grouped)
}

func TestReduceErrors(t *testing.T) {
	_, err := Reduce()
	assert.True(t, errors.Is(err, ErrEmpty))

	_, err = Reduce([]string{"1", "2"}, []string{"1"})
	assert.True(t, errors.Is(err, ErrLengthMismatch))

	_, err = Reduce([]string{"1", "x"}, []string{"n/a", "2"})
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 2)

	var fe *FormatError
	require.True(t, errors.As(errs[0], &fe))
	assert.Equal(t, 0, fe.Vector)
	assert.Equal(t, 1, fe.Position)
	assert.Equal(t, "x", fe.Value)
	require.True(t, errors.As(errs[1], &fe))
	assert.Equal(t, 1, fe.Vector)
	assert.Equal(t, 0, fe.Position)
}

func TestAccumulatorRejectsInvalidVector(t *testing.T) {
	acc := NewAccumulator()
	require.NoError(t, acc.Add([]string{"1", "2"}))
	require.Error(t, acc.Add([]string{"5", "bad"}))
	require.NoError(t, acc.Add([]string{"3", "-"}))

	assert.Equal(t, 2, acc.Count())
	got, err := acc.Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "2"}, got)

	_, err = NewAccumulator().Result()
	assert.True(t, errors.Is(err, ErrEmpty))
}

func TestParseCount(t *testing.T) {
	n, err := ParseCount("12\u202f345\u00a0678")
	require.NoError(t, err)
	assert.Equal(t, int64(12345678), n)

	_, err = ParseCount("12,5")
	assert.Error(t, err)
}
