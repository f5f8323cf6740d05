package report

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/dataprobe/internal/analysis"
	"github.com/KaramelBytes/dataprobe/internal/dataset"
)

// topValuesLimit caps the per-column value counts kept for categorical columns.
const topValuesLimit = 5

// NumSummary holds basic statistics of a numeric column's present values.
type NumSummary struct {
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
	Mean float64 `json:"mean" yaml:"mean"`
	Std  float64 `json:"std" yaml:"std"`
}

// ValueCount is one frequent value of a categorical column.
type ValueCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// ColumnProfile summarizes a single column.
type ColumnProfile struct {
	Name       string            `json:"name" yaml:"name"`
	Kind       dataset.Kind      `json:"kind" yaml:"kind"`
	Category   analysis.Category `json:"category" yaml:"category"`
	Missing    int               `json:"missing" yaml:"missing"`
	MissingPct float64           `json:"missing_pct" yaml:"missing_pct"`
	Unique     int               `json:"unique" yaml:"unique"`
	Numeric    *NumSummary       `json:"numeric,omitempty" yaml:"numeric,omitempty"`
	TopValues  []ValueCount      `json:"top_values,omitempty" yaml:"top_values,omitempty"`
}

// Profile is the full analysis of one dataset. Sections left nil or empty
// were not requested and are skipped by renderers.
type Profile struct {
	ID              string                   `json:"id" yaml:"id"`
	Name            string                   `json:"name" yaml:"name"`
	GeneratedAt     time.Time                `json:"generated_at" yaml:"generated_at"`
	Rows            int                      `json:"rows" yaml:"rows"`
	Columns         int                      `json:"columns" yaml:"columns"`
	Target          string                   `json:"target,omitempty" yaml:"target,omitempty"`
	Kinds           []dataset.KindCount      `json:"kinds" yaml:"kinds"`
	ColumnProfiles  []ColumnProfile          `json:"column_profiles,omitempty" yaml:"column_profiles,omitempty"`
	Categories      analysis.Categories      `json:"categories,omitempty" yaml:"categories,omitempty"`
	Quality         *analysis.QualityReport  `json:"quality,omitempty" yaml:"quality,omitempty"`
	Findings        []analysis.Finding       `json:"findings,omitempty" yaml:"findings,omitempty"`
	Outliers        []analysis.OutlierResult `json:"outliers,omitempty" yaml:"outliers,omitempty"`
	DroppedOutliers *analysis.OutlierResult  `json:"dropped_outliers,omitempty" yaml:"dropped_outliers,omitempty"`
	Relationships   []analysis.Relationship  `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	Text            []analysis.TextStats     `json:"text,omitempty" yaml:"text,omitempty"`
	Corr            *analysis.CorrMatrix     `json:"correlations,omitempty" yaml:"correlations,omitempty"`
	Warnings        []string                 `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Options controls Build.
type Options struct {
	Analysis analysis.Options
	// DropOutliers removes the target's outlier rows before relating features.
	DropOutliers bool
}

// DefaultOptions returns the analysis defaults without outlier filtering.
func DefaultOptions() Options {
	return Options{Analysis: analysis.DefaultOptions()}
}

// New starts a profile holding only the dataset summary.
func New(name string, ds *dataset.Dataset) *Profile {
	p := &Profile{
		ID:          uuid.NewString(),
		Name:        name,
		GeneratedAt: time.Now().UTC(),
		Rows:        ds.Rows(),
		Columns:     ds.Width(),
		Kinds:       ds.KindCounts(),
	}
	if ds.Width() > 0 && ds.Rows() == 0 {
		p.Warnings = append(p.Warnings, "dataset has a header but no rows")
	}
	return p
}

// Build runs every analysis over ds. target may be empty, in which case the
// relationship section is skipped.
func Build(name string, ds *dataset.Dataset, target string, opt Options) (*Profile, error) {
	if err := opt.Analysis.Validate(); err != nil {
		return nil, err
	}
	p := New(name, ds)
	if err := p.AddClassification(ds, opt.Analysis); err != nil {
		return nil, err
	}
	if err := p.AddQuality(ds, opt.Analysis); err != nil {
		return nil, err
	}
	p.AddText(ds)
	p.Corr = analysis.CorrelationMatrix(ds, p.Categories)
	if target != "" {
		if err := p.AddRelationships(ds, target, opt); err != nil {
			return nil, err
		}
	}
	slog.Debug("profile built", "name", name, "id", p.ID, "rows", p.Rows, "columns", p.Columns)
	return p, nil
}

// AddClassification fills Categories and ColumnProfiles.
func (p *Profile) AddClassification(ds *dataset.Dataset, opt analysis.Options) error {
	cats, err := analysis.ClassifyAllWith(ds, opt)
	if err != nil {
		return err
	}
	p.Categories = cats
	p.ColumnProfiles = make([]ColumnProfile, 0, ds.Width())
	for _, c := range ds.Columns() {
		cat, _ := cats.Of(c.Name())
		p.ColumnProfiles = append(p.ColumnProfiles, profileColumn(c, cat))
		switch cat {
		case analysis.Mixed, analysis.Unknown:
			p.Warnings = append(p.Warnings, fmt.Sprintf("column %q classified as %s; excluded from relationships", c.Name(), cat))
		}
	}
	return nil
}

// AddQuality fills Quality and Findings.
func (p *Profile) AddQuality(ds *dataset.Dataset, opt analysis.Options) error {
	q, err := analysis.GenerateQualityReportWith(ds, opt)
	if err != nil {
		return err
	}
	p.Quality = q
	p.Findings = q.Findings()
	return nil
}

// AddText computes text statistics for every Text-classified column. It
// classifies on demand when AddClassification has not run.
func (p *Profile) AddText(ds *dataset.Dataset) {
	cats := p.Categories
	if cats == nil {
		cats = analysis.ClassifyAll(ds)
	}
	for _, name := range cats[analysis.Text] {
		col, _ := ds.Column(name)
		ts, err := analysis.TextStatistics(col)
		if err != nil {
			continue
		}
		p.Text = append(p.Text, *ts)
	}
}

// AddRelationships relates every supported column to target, optionally
// after dropping the target's outliers.
func (p *Profile) AddRelationships(ds *dataset.Dataset, target string, opt Options) error {
	p.Target = target
	if !opt.DropOutliers {
		rels, err := analysis.SummarizeAllWith(ds, target, opt.Analysis)
		if err != nil {
			return err
		}
		p.Relationships = rels
		return nil
	}
	rels, out, err := analysis.SummarizeAllFiltered(ds, target, opt.Analysis)
	if err != nil {
		return err
	}
	p.Relationships = rels
	p.DroppedOutliers = out
	if out.Count() > 0 {
		p.Warnings = append(p.Warnings, fmt.Sprintf("dropped %d %s outlier rows of %q before relating features", out.Count(), out.Method, target))
	}
	return nil
}

func profileColumn(c *dataset.Column, cat analysis.Category) ColumnProfile {
	cp := ColumnProfile{
		Name:     c.Name(),
		Kind:     c.Kind(),
		Category: cat,
		Missing:  c.MissingCount(),
		Unique:   analysis.DistinctCount(c),
	}
	if c.Len() > 0 {
		cp.MissingPct = float64(cp.Missing) * 100.0 / float64(c.Len())
	}
	if c.Kind().IsNumeric() {
		cp.Numeric = numSummary(c)
	}
	if cat == analysis.Categorical {
		cp.TopValues = topValues(c, topValuesLimit)
	}
	return cp
}

func numSummary(c *dataset.Column) *NumSummary {
	vals := make([]float64, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Float(i); ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return nil
	}
	s := &NumSummary{Min: floats.Min(vals), Max: floats.Max(vals), Mean: stat.Mean(vals, nil)}
	if len(vals) > 1 {
		s.Std = stat.StdDev(vals, nil)
	}
	return s
}

// topValues counts present values, most frequent first; ties sort by label.
func topValues(c *dataset.Column, limit int) []ValueCount {
	counts := make(map[string]int)
	labels := make(map[string]string)
	for i := 0; i < c.Len(); i++ {
		v := c.Value(i)
		if v == nil {
			continue
		}
		k := dataset.ValueKey(v)
		if _, ok := labels[k]; !ok {
			labels[k] = dataset.FormatValue(v)
		}
		counts[k]++
	}
	out := make([]ValueCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, ValueCount{Value: labels[k], Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value < out[j].Value
		}
		return out[i].Count > out[j].Count
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
