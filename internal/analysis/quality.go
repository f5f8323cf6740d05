package analysis

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/dataprobe/internal/dataset"
)

// MissingStat is the missing-value tally of one column.
type MissingStat struct {
	Column  string  `json:"column" yaml:"column"`
	Missing int     `json:"missing" yaml:"missing"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// MissingData returns 100*m/n per column ordered by descending percentage;
// ties keep dataset order.
func MissingData(ds *dataset.Dataset) []MissingStat {
	n := ds.Rows()
	out := make([]MissingStat, 0, ds.Width())
	for _, c := range ds.Columns() {
		m := c.MissingCount()
		pct := 0.0
		if n > 0 {
			pct = float64(m) * 100.0 / float64(n)
		}
		out = append(out, MissingStat{Column: c.Name(), Missing: m, Percent: pct})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Percent > out[j].Percent })
	return out
}

// ColumnPair names a column and the earlier column it duplicates.
type ColumnPair struct {
	Original  string `json:"original" yaml:"original"`
	Duplicate string `json:"duplicate" yaml:"duplicate"`
}

// DuplicateInfo counts repeated rows and columns. The first occurrence is
// never counted.
type DuplicateInfo struct {
	Rows        int          `json:"rows" yaml:"rows"`
	RowIndices  []int        `json:"row_indices" yaml:"row_indices"`
	Columns     int          `json:"columns" yaml:"columns"`
	ColumnPairs []ColumnPair `json:"column_pairs" yaml:"column_pairs"`
}

// tupleKey joins value keys so that distinct sequences never share a key:
// every part carries its length.
func tupleKey(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strconv.Itoa(len(p)))
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

// Duplicates finds rows whose full value tuple repeats an earlier row and
// columns whose value sequence, missing positions included, repeats an
// earlier column.
func Duplicates(ds *dataset.Dataset) DuplicateInfo {
	info := DuplicateInfo{RowIndices: []int{}, ColumnPairs: []ColumnPair{}}
	cols := ds.Columns()

	seenRows := make(map[string]struct{}, ds.Rows())
	parts := make([]string, len(cols))
	for i := 0; i < ds.Rows(); i++ {
		for j, c := range cols {
			parts[j] = dataset.ValueKey(c.Value(i))
		}
		key := tupleKey(parts)
		if _, dup := seenRows[key]; dup {
			info.RowIndices = append(info.RowIndices, i)
			continue
		}
		seenRows[key] = struct{}{}
	}
	info.Rows = len(info.RowIndices)

	seenCols := make(map[string]string, len(cols))
	for _, c := range cols {
		vals := make([]string, c.Len())
		for i := range vals {
			vals[i] = dataset.ValueKey(c.Value(i))
		}
		key := tupleKey(vals)
		if orig, dup := seenCols[key]; dup {
			info.ColumnPairs = append(info.ColumnPairs, ColumnPair{Original: orig, Duplicate: c.Name()})
			continue
		}
		seenCols[key] = c.Name()
	}
	info.Columns = len(info.ColumnPairs)
	return info
}

// QualityReport bundles the four quality checks.
type QualityReport struct {
	Rows        int             `json:"rows" yaml:"rows"`
	Missing     []MissingStat   `json:"missing" yaml:"missing"`
	Duplicates  DuplicateInfo   `json:"duplicates" yaml:"duplicates"`
	LowVariance []string        `json:"low_variance" yaml:"low_variance"`
	Outliers    []OutlierResult `json:"outliers" yaml:"outliers"`
}

// GenerateQualityReport runs every check with default options.
func GenerateQualityReport(ds *dataset.Dataset) *QualityReport {
	r, _ := GenerateQualityReportWith(ds, DefaultOptions())
	return r
}

// GenerateQualityReportWith runs missing-data, duplicate and low-variance
// checks, plus outlier detection with opt.OutlierMethod over every numeric
// column.
func GenerateQualityReportWith(ds *dataset.Dataset, opt Options) (*QualityReport, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	method, _ := ParseOutlierMethod(string(opt.OutlierMethod))
	low, err := LowVarianceColumns(ds, opt.Quality)
	if err != nil {
		return nil, err
	}
	rep := &QualityReport{
		Rows:        ds.Rows(),
		Missing:     MissingData(ds),
		Duplicates:  Duplicates(ds),
		LowVariance: low,
		Outliers:    []OutlierResult{},
	}
	for _, c := range ds.Columns() {
		if !c.Kind().IsNumeric() {
			continue
		}
		res, err := DetectOutliers(ds, c.Name(), method, opt.ZThreshold)
		if err != nil {
			return nil, err
		}
		rep.Outliers = append(rep.Outliers, *res)
	}
	slog.Debug("quality report generated",
		"rows", rep.Rows,
		"duplicate_rows", rep.Duplicates.Rows,
		"low_variance", len(rep.LowVariance),
	)
	return rep, nil
}

// FindingKind tags a quality finding.
type FindingKind string

const (
	FindingMissingData      FindingKind = "MissingData"
	FindingDuplicateRows    FindingKind = "DuplicateRows"
	FindingDuplicateColumns FindingKind = "DuplicateColumns"
	FindingLowVariance      FindingKind = "LowVariance"
	FindingOutlier          FindingKind = "Outlier"
)

// Finding is one flagged issue. Count is always set; Percent is set for
// missing data and outliers.
type Finding struct {
	Kind    FindingKind `json:"kind" yaml:"kind"`
	Columns []string    `json:"columns" yaml:"columns"`
	Count   int         `json:"count" yaml:"count"`
	Percent float64     `json:"percent,omitempty" yaml:"percent,omitempty"`
	Rows    []int       `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// Findings flattens the report into one record per issue. Clean checks
// produce no record.
func (r *QualityReport) Findings() []Finding {
	var out []Finding
	for _, m := range r.Missing {
		if m.Missing > 0 {
			out = append(out, Finding{Kind: FindingMissingData, Columns: []string{m.Column}, Count: m.Missing, Percent: m.Percent})
		}
	}
	if r.Duplicates.Rows > 0 {
		out = append(out, Finding{Kind: FindingDuplicateRows, Count: r.Duplicates.Rows, Rows: r.Duplicates.RowIndices})
	}
	for _, p := range r.Duplicates.ColumnPairs {
		out = append(out, Finding{Kind: FindingDuplicateColumns, Columns: []string{p.Original, p.Duplicate}, Count: 1})
	}
	for _, name := range r.LowVariance {
		out = append(out, Finding{Kind: FindingLowVariance, Columns: []string{name}, Count: 1})
	}
	for _, o := range r.Outliers {
		if o.Count() == 0 {
			continue
		}
		f := Finding{Kind: FindingOutlier, Columns: []string{o.Column}, Count: o.Count(), Rows: o.Rows}
		if r.Rows > 0 {
			f.Percent = float64(o.Count()) * 100.0 / float64(r.Rows)
		}
		out = append(out, f)
	}
	return out
}
