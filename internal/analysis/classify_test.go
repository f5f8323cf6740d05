package analysis

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/dataprobe/internal/dataset"
)

func seqInts(name string, n int, f func(i int) int64) *dataset.Column {
	vals := make([]int64, n)
	for i := range vals {
		vals[i] = f(i)
	}
	return dataset.Ints(name, vals...)
}

func TestIsLowVariance(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name string
		col  *dataset.Column
		th   Thresholds
		want bool
	}{
		{"few distinct", dataset.Ints("x", 1, 1, 1, 1, 2), QualityThresholds(), true},
		{"all distinct", seqInts("x", 10, func(i int) int64 { return int64(i) }), QualityThresholds(), false},
		{"empty", dataset.Ints("x"), QualityThresholds(), false},
		{"missing counts once", dataset.Floats("x", nan, nan, 1, 2, 3, 4, 5), QualityThresholds(), false},
		{"absolute boundary", seqInts("x", 10, func(i int) int64 { return int64(i % 5) }), QualityThresholds(), true},
		{"zero thresholds", dataset.Ints("x", 1, 1, 1), Thresholds{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLowVariance(tt.col, tt.th))
		})
	}
}

func TestLowVarianceThresholdsDiverge(t *testing.T) {
	// 15 distinct values over 2000 rows: ratio 0.0075.
	col := seqInts("code", 2000, func(i int) int64 { return int64(i % 15) })
	assert.True(t, IsLowVariance(col, QualityThresholds()))
	assert.False(t, IsLowVariance(col, ClassifierThresholds()))
	assert.Equal(t, Integer, Classify(col))
}

func TestLowVarianceColumns(t *testing.T) {
	ds := dataset.MustNew(
		dataset.Ints("flag", 0, 1, 0, 1, 0, 1, 0),
		dataset.Ints("id", 1, 2, 3, 4, 5, 6, 7),
		dataset.Strings("kind", "a", "a", "a", "a", "a", "a", "a"),
	)
	got, err := LowVarianceColumns(ds, QualityThresholds())
	require.NoError(t, err)
	assert.Equal(t, []string{"flag", "kind"}, got)

	_, err = LowVarianceColumns(ds, Thresholds{Relative: 1.5, Absolute: 5})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = LowVarianceColumns(ds, Thresholds{Relative: 0.1, Absolute: -1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestClassify(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, 8)
	for i := range times {
		times[i] = base.AddDate(0, 0, i)
	}
	lists := make([]any, 8)
	for i := range lists {
		lists[i] = []any{i, "x"}
	}

	tests := []struct {
		name string
		col  *dataset.Column
		want Category
	}{
		{"integers", seqInts("n", 10, func(i int) int64 { return int64(i) }), Integer},
		{"whole floats", dataset.Floats("f", 1, 2, 3, 4, 5, 6, 7, 8), Integer},
		{"fractional floats", dataset.Floats("f", 0.5, 1.5, 2.5, 3.5, 4.5, 5.5, 6.5), Float},
		{"few distinct ints", dataset.Ints("n", 1, 2, 1, 2, 1, 2, 1, 2), Categorical},
		{"bools are low variance", dataset.Bools("b", true, false, true, true, false, true), Categorical},
		{"timestamps", dataset.Times("t", times...), Datetime},
		{"free text", dataset.Strings("s", "a", "b", "c", "d", "e", "f", "g"), Text},
		{"repeated text", dataset.Strings("s", "a", "b", "a", "b", "a", "b", "a"), Categorical},
		{"declared categories", dataset.Categories("c", "a", "b", "c", "d", "e", "f", "g"), Categorical},
		{"lists", dataset.MustColumn("l", dataset.KindCompound, lists...), Mixed},
		{"objects", dataset.MustColumn("o", dataset.KindObject, 1, "a", 2.5, true, 'x', uint(9)), Unknown},
		{"object holding lists", dataset.MustColumn("o", dataset.KindObject, lists...), Mixed},
		{"empty ints", dataset.Ints("n"), Float},
		{"empty bools", dataset.Bools("b"), Boolean},
		{"empty times", dataset.Times("t"), Datetime},
		{"empty strings", dataset.Strings("s"), Unknown},
		{"empty categories", dataset.Categories("c"), Unknown},
		{"all missing floats", dataset.MustColumn("f", dataset.KindFloat, nil, nil, nil), Categorical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.col)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Classify(tt.col), "classification must be deterministic")
			assert.Contains(t, AllCategories, got)
		})
	}
}

func TestClassifyWithoutVarianceRule(t *testing.T) {
	assert.Equal(t, Boolean, ClassifyWith(dataset.Bools("b", true, false), Thresholds{}))
	assert.Equal(t, Integer, ClassifyWith(dataset.Ints("n", 1, 1, 1), Thresholds{}))
	assert.Equal(t, Text, ClassifyWith(dataset.Strings("s", "x", "x"), Thresholds{}))
}

func TestClassifyAllIsTotal(t *testing.T) {
	ds := dataset.MustNew(
		dataset.Ints("age", 25, 25, 25, 25, 90),
		dataset.Strings("city", "NY", "NY", "LA", "NY", "LA"),
		dataset.Floats("income", 50, 52, 51, 53, 200),
		dataset.MustColumn("raw", dataset.KindObject, 1, 2, 3, 4, 5),
	)
	cats := ClassifyAll(ds)
	require.Len(t, cats, len(AllCategories))
	seen := map[string]int{}
	for _, names := range cats {
		for _, n := range names {
			seen[n]++
		}
	}
	assert.Equal(t, map[string]int{"age": 1, "city": 1, "income": 1, "raw": 1}, seen)
	assert.Equal(t, []string{"age", "city", "income", "raw"}, cats[Categorical])
	assert.Empty(t, cats[Text])

	cat, ok := cats.Of("city")
	assert.True(t, ok)
	assert.Equal(t, Categorical, cat)
	_, ok = cats.Of("nope")
	assert.False(t, ok)
}

func TestClassifyAllWithWorkersKeepsOrder(t *testing.T) {
	var cols []*dataset.Column
	for i := 0; i < 40; i++ {
		name := string(rune('a'+i%26)) + string(rune('0'+i/26))
		if i%2 == 0 {
			cols = append(cols, seqInts(name, 50, func(r int) int64 { return int64(r * i) }))
		} else {
			cols = append(cols, seqInts(name, 50, func(r int) int64 { return int64(r % 3) }))
		}
	}
	ds := dataset.MustNew(cols...)

	opt := DefaultOptions()
	serial, err := ClassifyAllWith(ds, opt)
	require.NoError(t, err)
	opt.Workers = 8
	parallel, err := ClassifyAllWith(ds, opt)
	require.NoError(t, err)
	assert.Equal(t, serial, parallel)

	opt.Classifier.Relative = -1
	_, err = ClassifyAllWith(ds, opt)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestEndToEndSmallDataset(t *testing.T) {
	ds := dataset.MustNew(
		dataset.Ints("age", 25, 25, 25, 25, 90),
		dataset.Strings("city", "NY", "NY", "LA", "NY", "LA"),
		dataset.Ints("income", 50, 52, 51, 53, 200),
	)
	cats := ClassifyAll(ds)
	age, _ := cats.Of("age")
	city, _ := cats.Of("city")
	assert.Equal(t, Categorical, age)
	assert.Equal(t, Categorical, city)

	res, err := DetectOutliers(ds, "income", MethodZScore, 1.0)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, res.Rows)
}

func TestErrorFormatting(t *testing.T) {
	err := newError(ErrNotFound, "price", "")
	assert.Equal(t, `column not found: "price"`, err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))

	err = newError(ErrInvalidArgument, "", "bad %d", 3)
	assert.Equal(t, "invalid argument: bad 3", err.Error())

	var target *Error
	require.True(t, errors.As(err, &target))
	assert.Equal(t, ErrInvalidArgument, target.Kind)
}
