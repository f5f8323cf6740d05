package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/dataprobe/internal/dataset"
)

// presentFloats returns the non-missing numeric values of col together with
// their row indices.
func presentFloats(col *dataset.Column) ([]float64, []int) {
	vals := make([]float64, 0, col.Len())
	rows := make([]int, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		if v, ok := col.Float(i); ok {
			vals = append(vals, v)
			rows = append(rows, i)
		}
	}
	return vals, rows
}

// quantile interpolates linearly between closest ranks of a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// pearson computes the correlation over rows where both columns are present.
// ok is false when fewer than two complete pairs exist or either side is
// constant.
func pearson(x, y *dataset.Column) (r float64, pairs int, ok bool) {
	xs := make([]float64, 0, x.Len())
	ys := make([]float64, 0, x.Len())
	for i := 0; i < x.Len() && i < y.Len(); i++ {
		xv, okx := x.Float(i)
		yv, oky := y.Float(i)
		if !okx || !oky {
			continue
		}
		xs = append(xs, xv)
		ys = append(ys, yv)
	}
	if len(xs) < 2 {
		return 0, len(xs), false
	}
	r = stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, len(xs), false
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, len(xs), true
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string    `json:"columns" yaml:"columns"`
	Values  [][]float64 `json:"values" yaml:"values"` // row-major, Values[i][j]
}

// CorrelationMatrix correlates every pair of Integer/Float columns in cats.
// Undefined coefficients are reported as 0. Nil when fewer than two columns
// qualify.
func CorrelationMatrix(ds *dataset.Dataset, cats Categories) *CorrMatrix {
	var cols []*dataset.Column
	for _, c := range ds.Columns() {
		cat, _ := cats.Of(c.Name())
		if cat.IsNumeric() {
			cols = append(cols, c)
		}
	}
	if len(cols) < 2 {
		return nil
	}
	n := len(cols)
	m := &CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n)}
	for i := range cols {
		m.Columns[i] = cols[i].Name()
		m.Values[i] = make([]float64, n)
		m.Values[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			r, _, _ := pearson(cols[a], cols[b])
			m.Values[a][b] = r
			m.Values[b][a] = r
		}
	}
	return m
}
