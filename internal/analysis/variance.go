package analysis

import (
	"github.com/KaramelBytes/dataprobe/internal/dataset"
)

// DistinctCount counts distinct values, with missing counted as one value.
func DistinctCount(col *dataset.Column) int {
	seen := make(map[string]struct{})
	for i := 0; i < col.Len(); i++ {
		seen[dataset.ValueKey(col.Value(i))] = struct{}{}
	}
	return len(seen)
}

// IsLowVariance reports whether distinct/rows <= th.Relative or
// distinct <= th.Absolute. An empty column is never low-variance.
//
// Ratio thresholds are only meaningful on larger datasets (roughly 1000+
// rows); on small inputs the absolute threshold dominates.
func IsLowVariance(col *dataset.Column, th Thresholds) bool {
	n := col.Len()
	if n == 0 {
		return false
	}
	u := DistinctCount(col)
	return float64(u)/float64(n) <= th.Relative || u <= th.Absolute
}

// LowVarianceColumns returns the flagged column names in dataset order.
func LowVarianceColumns(ds *dataset.Dataset, th Thresholds) ([]string, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	out := []string{}
	for _, c := range ds.Columns() {
		if IsLowVariance(c, th) {
			out = append(out, c.Name())
		}
	}
	return out, nil
}
