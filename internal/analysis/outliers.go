package analysis

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/dataprobe/internal/dataset"
)

// OutlierMethod selects the outlier rule.
type OutlierMethod string

const (
	MethodIQR    OutlierMethod = "IQR"
	MethodZScore OutlierMethod = "Z-score"
)

// ParseOutlierMethod accepts the canonical names case-insensitively, plus
// "zscore" and "z".
func ParseOutlierMethod(s string) (OutlierMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "iqr":
		return MethodIQR, nil
	case "z-score", "zscore", "z":
		return MethodZScore, nil
	}
	return "", newError(ErrInvalidArgument, "", "unknown outlier method %q (use IQR or Z-score)", s)
}

// OutlierResult lists the rows of one column falling outside the bounds.
type OutlierResult struct {
	Column    string        `json:"column" yaml:"column"`
	Method    OutlierMethod `json:"method" yaml:"method"`
	Threshold float64       `json:"threshold" yaml:"threshold"`
	Lower     float64       `json:"lower" yaml:"lower"`
	Upper     float64       `json:"upper" yaml:"upper"`
	Rows      []int         `json:"rows" yaml:"rows"`
}

// Count returns the number of outlier rows.
func (r *OutlierResult) Count() int { return len(r.Rows) }

// DetectOutliers flags rows of a numeric column.
//
// IQR: rows strictly outside [Q1-1.5*IQR, Q3+1.5*IQR] with linearly
// interpolated quartiles. Z-score: rows with |x-mean|/stddev > zThreshold
// using the sample standard deviation; a zero or undefined deviation yields
// no outliers. Missing values are never outliers. zThreshold is ignored for IQR.
func DetectOutliers(ds *dataset.Dataset, column string, method OutlierMethod, zThreshold float64) (*OutlierResult, error) {
	col, ok := ds.Column(column)
	if !ok {
		return nil, newError(ErrNotFound, column, "")
	}
	if !col.Kind().IsNumeric() {
		return nil, newError(ErrInvalidType, column, "outlier detection needs a numeric column, got %s", col.Kind())
	}
	switch method {
	case MethodIQR:
		return iqrOutliers(col), nil
	case MethodZScore:
		if zThreshold <= 0 || math.IsNaN(zThreshold) {
			return nil, newError(ErrInvalidArgument, column, "z threshold must be positive, got %g", zThreshold)
		}
		return zScoreOutliers(col, zThreshold), nil
	}
	return nil, newError(ErrInvalidArgument, column, "unknown outlier method %q (use IQR or Z-score)", method)
}

func iqrOutliers(col *dataset.Column) *OutlierResult {
	res := &OutlierResult{Column: col.Name(), Method: MethodIQR, Threshold: iqrFence, Rows: []int{}}
	vals, rows := presentFloats(col)
	if len(vals) == 0 {
		return res
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	res.Lower = q1 - iqrFence*iqr
	res.Upper = q3 + iqrFence*iqr
	for i, v := range vals {
		if v < res.Lower || v > res.Upper {
			res.Rows = append(res.Rows, rows[i])
		}
	}
	return res
}

func zScoreOutliers(col *dataset.Column, z float64) *OutlierResult {
	res := &OutlierResult{Column: col.Name(), Method: MethodZScore, Threshold: z, Rows: []int{}}
	vals, rows := presentFloats(col)
	if len(vals) < 2 {
		return res
	}
	mean, std := stat.MeanStdDev(vals, nil)
	res.Lower = mean - z*std
	res.Upper = mean + z*std
	if std == 0 || math.IsNaN(std) {
		return res
	}
	for i, v := range vals {
		if math.Abs(v-mean)/std > z {
			res.Rows = append(res.Rows, rows[i])
		}
	}
	return res
}
