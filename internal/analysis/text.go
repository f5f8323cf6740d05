package analysis

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/dataprobe/internal/dataset"
)

// TextStats describes a free-text column by whitespace tokens.
type TextStats struct {
	Column         string  `json:"column" yaml:"column"`
	Total          int     `json:"total" yaml:"total"`
	Empty          int     `json:"empty" yaml:"empty"`
	AvgWords       float64 `json:"avg_words" yaml:"avg_words"`
	MedianWords    float64 `json:"median_words" yaml:"median_words"`
	AvgUniqueWords float64 `json:"avg_unique_words" yaml:"avg_unique_words"`
}

// TextStatistics counts words per non-missing entry of a string column.
// Empty counts missing entries; averages are over the present ones.
func TextStatistics(col *dataset.Column) (*TextStats, error) {
	if col == nil {
		return nil, newError(ErrInvalidArgument, "", "column is nil")
	}
	if col.Kind() != dataset.KindString && col.Kind() != dataset.KindCategory {
		return nil, newError(ErrInvalidType, col.Name(), "text statistics need a string column, got %s", col.Kind())
	}
	ts := &TextStats{Column: col.Name(), Total: col.Len()}
	var words []float64
	var unique float64
	for i := 0; i < col.Len(); i++ {
		v := col.Value(i)
		if v == nil {
			ts.Empty++
			continue
		}
		toks := strings.Fields(v.(string))
		words = append(words, float64(len(toks)))
		set := make(map[string]struct{}, len(toks))
		for _, t := range toks {
			set[t] = struct{}{}
		}
		unique += float64(len(set))
	}
	if len(words) == 0 {
		return ts, nil
	}
	ts.AvgWords = stat.Mean(words, nil)
	ts.AvgUniqueWords = unique / float64(len(words))
	sort.Float64s(words)
	ts.MedianWords = quantile(words, 0.5)
	return ts, nil
}
