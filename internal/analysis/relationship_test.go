package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/dataprobe/internal/dataset"
)

func TestSummarizeNumeric(t *testing.T) {
	x := dataset.Ints("x", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	y := dataset.Ints("y", 2, 4, 6, 8, 10, 12, 14, 16, 18, 20)
	rel, err := Summarize(x, y)
	require.NoError(t, err)
	assert.Equal(t, Integer, rel.Category)
	require.NotNil(t, rel.Correlation)
	assert.InDelta(t, 1.0, *rel.Correlation, 1e-12)
	assert.Equal(t, 10, rel.Pairs)
	assert.Empty(t, rel.Groups)

	neg := dataset.Floats("neg", -1.5, -2.5, -3.5, -4.5, -5.5, -6.5, -7.5, -8.5, -9.5, -10.5)
	rel, err = Summarize(neg, y)
	require.NoError(t, err)
	assert.Equal(t, Float, rel.Category)
	assert.InDelta(t, -1.0, *rel.Correlation, 1e-12)
}

func TestSummarizeNumericPairwiseComplete(t *testing.T) {
	nan := math.NaN()
	x := dataset.Floats("x", 1.5, 2.5, nan, 4.5, 5.5, 6.5, 7.5)
	y := dataset.Floats("y", 1, 2, 3, nan, 5, 6, 7)
	rel, err := Summarize(x, y)
	require.NoError(t, err)
	assert.Equal(t, 5, rel.Pairs)
	require.NotNil(t, rel.Correlation)
	assert.InDelta(t, 1.0, *rel.Correlation, 1e-12)

	sparse := dataset.Floats("t", nan, nan, nan, nan, nan, nan, 3)
	rel, err = Summarize(x, sparse)
	require.NoError(t, err)
	assert.Nil(t, rel.Correlation)
	assert.Equal(t, 1, rel.Pairs)
}

func TestSummarizeCategorical(t *testing.T) {
	city := dataset.Strings("city", "NY", "NY", "LA", "NY", "LA")
	income := dataset.Ints("income", 50, 52, 51, 53, 200)
	rel, err := Summarize(city, income)
	require.NoError(t, err)
	assert.Equal(t, Categorical, rel.Category)
	assert.Nil(t, rel.Correlation)
	require.Len(t, rel.Groups, 2)
	assert.Equal(t, "NY", rel.Groups[0].Label)
	assert.InDelta(t, 155.0/3, rel.Groups[0].Mean, 1e-9)
	assert.Equal(t, 3, rel.Groups[0].Count)
	assert.Equal(t, "LA", rel.Groups[1].Label)
	assert.InDelta(t, 125.5, rel.Groups[1].Mean, 1e-9)
}

func TestSummarizeCategoricalTiesAndMissing(t *testing.T) {
	feature := dataset.Categories("g", "b", "a", "b", "a", "c")
	target := dataset.Ints("t", 1, 1, 1, 1, 0)
	rel, err := Summarize(feature, target)
	require.NoError(t, err)
	labels := []string{}
	for _, g := range rel.Groups {
		labels = append(labels, g.Label)
	}
	assert.Equal(t, []string{"c", "b", "a"}, labels)

	feature = dataset.MustColumn("g", dataset.KindString, "p", "q", "p", nil)
	target = dataset.Floats("t", 1, math.NaN(), 3, 5)
	rel, err = Summarize(feature, target)
	require.NoError(t, err)
	require.Len(t, rel.Groups, 1)
	assert.Equal(t, "p", rel.Groups[0].Label)
	assert.Equal(t, "p", rel.Groups[0].Value)
	assert.InDelta(t, 2.0, rel.Groups[0].Mean, 1e-12)
}

func TestSummarizeErrors(t *testing.T) {
	text := dataset.Strings("bio", "a", "b", "c", "d", "e", "f")
	target := dataset.Ints("t", 1, 2, 3, 4, 5, 6)
	_, err := Summarize(text, target)
	assert.ErrorIs(t, err, ErrUnsupportedCategory)

	_, err = Summarize(target, text)
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = Summarize(dataset.Ints("short", 1, 2), target)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Summarize(target, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func relationshipFixture() *dataset.Dataset {
	return dataset.MustNew(
		dataset.Ints("score", 3, 1, 4, 1, 5, 9, 2, 6),
		dataset.Strings("bio", "aa", "bb", "cc", "dd", "ee", "ff", "gg", "hh"),
		dataset.Categories("group", "x", "y", "x", "y", "x", "y", "x", "y"),
		dataset.Floats("income", 10, 20, 30, 40, 50, 60, 70, 80),
	)
}

func TestSummarizeAll(t *testing.T) {
	ds := relationshipFixture()
	rels, err := SummarizeAll(ds, "income")
	require.NoError(t, err)
	require.Len(t, rels, 2)

	assert.Equal(t, "score", rels[0].Feature)
	assert.Equal(t, Integer, rels[0].Category)
	require.NotNil(t, rels[0].Correlation)

	assert.Equal(t, "group", rels[1].Feature)
	assert.Equal(t, Categorical, rels[1].Category)
	require.Len(t, rels[1].Groups, 2)
	assert.Equal(t, "x", rels[1].Groups[0].Label)
	assert.InDelta(t, 40.0, rels[1].Groups[0].Mean, 1e-12)
	assert.Equal(t, "y", rels[1].Groups[1].Label)
	assert.InDelta(t, 50.0, rels[1].Groups[1].Mean, 1e-12)
	assert.True(t, rels[1].Groups[0].Mean <= rels[1].Groups[1].Mean)

	for _, r := range rels {
		assert.NotEqual(t, "bio", r.Feature)
		assert.Equal(t, "income", r.Target)
	}
}

func TestSummarizeAllErrors(t *testing.T) {
	ds := relationshipFixture()
	_, err := SummarizeAll(ds, "absent")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = SummarizeAll(ds, "bio")
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestTextStatistics(t *testing.T) {
	col := dataset.MustColumn("bio", dataset.KindString, "hello world", "a b a", nil, "one")
	ts, err := TextStatistics(col)
	require.NoError(t, err)
	assert.Equal(t, "bio", ts.Column)
	assert.Equal(t, 4, ts.Total)
	assert.Equal(t, 1, ts.Empty)
	assert.InDelta(t, 2.0, ts.AvgWords, 1e-12)
	assert.InDelta(t, 2.0, ts.MedianWords, 1e-12)
	assert.InDelta(t, 5.0/3, ts.AvgUniqueWords, 1e-12)

	ts, err = TextStatistics(dataset.MustColumn("blank", dataset.KindString, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 2, ts.Empty)
	assert.Zero(t, ts.AvgWords)

	_, err = TextStatistics(dataset.Ints("n", 1, 2))
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestCorrelationMatrix(t *testing.T) {
	ds := dataset.MustNew(
		dataset.Ints("a", 1, 2, 3, 4, 5, 6, 7, 8),
		dataset.Ints("b", 2, 4, 6, 8, 10, 12, 14, 16),
		dataset.Floats("c", -0.5, -1.5, -2.5, -3.5, -4.5, -5.5, -6.5, -7.5),
		dataset.Strings("label", "q", "w", "e", "r", "t", "y", "u", "i"),
	)
	m := CorrelationMatrix(ds, ClassifyAll(ds))
	require.NotNil(t, m)
	assert.Equal(t, []string{"a", "b", "c"}, m.Columns)
	assert.InDelta(t, 1.0, m.Values[0][1], 1e-12)
	assert.InDelta(t, -1.0, m.Values[0][2], 1e-12)
	assert.Equal(t, m.Values[1][2], m.Values[2][1])
	for i := range m.Columns {
		assert.Equal(t, 1.0, m.Values[i][i])
	}

	single := dataset.MustNew(dataset.Ints("a", 1, 2, 3, 4, 5, 6, 7))
	assert.Nil(t, CorrelationMatrix(single, ClassifyAll(single)))
}

func TestSummarizeAllFiltered(t *testing.T) {
	ds := dataset.MustNew(
		dataset.Categories("city", "NY", "NY", "LA", "NY", "LA"),
		dataset.Ints("income", 50, 52, 51, 53, 200),
	)
	opt := DefaultOptions()
	opt.OutlierMethod = MethodZScore
	opt.ZThreshold = 1

	rels, out, err := SummarizeAllFiltered(ds, "income", opt)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, out.Rows)
	require.Len(t, rels, 1)
	require.Len(t, rels[0].Groups, 2)
	assert.Equal(t, "LA", rels[0].Groups[0].Label)
	assert.InDelta(t, 51.0, rels[0].Groups[0].Mean, 1e-12)
	assert.Equal(t, 3, rels[0].Groups[1].Count)
	assert.Equal(t, 5, ds.Rows(), "source dataset must not change")

	_, _, err = SummarizeAllFiltered(ds, "city", opt)
	assert.ErrorIs(t, err, ErrInvalidType)
}
