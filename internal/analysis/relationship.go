package analysis

import (
	"log/slog"
	"sort"

	"github.com/KaramelBytes/dataprobe/internal/dataset"
)

// GroupMean is the mean target value over the rows sharing one feature value.
type GroupMean struct {
	Label string  `json:"label" yaml:"label"`
	Value any     `json:"-" yaml:"-"`
	Mean  float64 `json:"mean" yaml:"mean"`
	Count int     `json:"count" yaml:"count"`
}

// Relationship summarizes how one feature relates to the target. Numeric
// features carry Correlation (nil when undefined) and Pairs; categorical
// features carry Groups ordered by ascending mean.
type Relationship struct {
	Feature     string      `json:"feature" yaml:"feature"`
	Target      string      `json:"target" yaml:"target"`
	Category    Category    `json:"category" yaml:"category"`
	Correlation *float64    `json:"correlation,omitempty" yaml:"correlation,omitempty"`
	Pairs       int         `json:"pairs,omitempty" yaml:"pairs,omitempty"`
	Groups      []GroupMean `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// Summarize relates feature to target using the default classifier.
func Summarize(feature, target *dataset.Column) (*Relationship, error) {
	return SummarizeWith(feature, target, ClassifierThresholds())
}

// SummarizeWith relates feature to target, classifying feature with th.
func SummarizeWith(feature, target *dataset.Column, th Thresholds) (*Relationship, error) {
	if err := checkTarget(target); err != nil {
		return nil, err
	}
	if feature == nil {
		return nil, newError(ErrInvalidArgument, "", "feature column is nil")
	}
	if feature.Len() != target.Len() {
		return nil, newError(ErrInvalidArgument, feature.Name(),
			"feature has %d rows, target %q has %d", feature.Len(), target.Name(), target.Len())
	}
	return summarize(feature, target, ClassifyWith(feature, th))
}

func checkTarget(target *dataset.Column) error {
	if target == nil {
		return newError(ErrInvalidArgument, "", "target column is nil")
	}
	if !target.Kind().IsNumeric() {
		return newError(ErrInvalidType, target.Name(), "target must be numeric, got %s", target.Kind())
	}
	return nil
}

func summarize(feature, target *dataset.Column, cat Category) (*Relationship, error) {
	rel := &Relationship{Feature: feature.Name(), Target: target.Name(), Category: cat}
	switch cat {
	case Integer, Float:
		r, pairs, ok := pearson(feature, target)
		rel.Pairs = pairs
		if ok {
			rel.Correlation = &r
		}
	case Categorical:
		rel.Groups = groupMeans(feature, target)
	default:
		return nil, newError(ErrUnsupportedCategory, feature.Name(), "no relationship statistic for %s columns", cat)
	}
	return rel, nil
}

// groupMeans aggregates target by feature value into a new slice. Missing
// feature values form no group and groups without a present target are
// dropped.
func groupMeans(feature, target *dataset.Column) []GroupMean {
	type acc struct {
		value any
		sum   float64
		n     int
	}
	index := make(map[string]int)
	var groups []*acc
	for i := 0; i < feature.Len(); i++ {
		fv := feature.Value(i)
		if fv == nil {
			continue
		}
		key := dataset.ValueKey(fv)
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, &acc{value: fv})
		}
		if tv, ok := target.Float(i); ok {
			groups[gi].sum += tv
			groups[gi].n++
		}
	}
	out := make([]GroupMean, 0, len(groups))
	for _, g := range groups {
		if g.n == 0 {
			continue
		}
		out = append(out, GroupMean{
			Label: dataset.FormatValue(g.value),
			Value: g.value,
			Mean:  g.sum / float64(g.n),
			Count: g.n,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mean < out[j].Mean })
	return out
}

// SummarizeAll relates every supported column of ds to the named target
// using default options.
func SummarizeAll(ds *dataset.Dataset, target string) ([]Relationship, error) {
	return SummarizeAllWith(ds, target, DefaultOptions())
}

// SummarizeAllWith walks ds in column order, classifies each column and
// summarizes the Integer, Float and Categorical ones. Other categories and
// the target itself are skipped.
func SummarizeAllWith(ds *dataset.Dataset, target string, opt Options) ([]Relationship, error) {
	if err := opt.Classifier.Validate(); err != nil {
		return nil, err
	}
	tcol, ok := ds.Column(target)
	if !ok {
		return nil, newError(ErrNotFound, target, "")
	}
	if err := checkTarget(tcol); err != nil {
		return nil, err
	}
	out := []Relationship{}
	for _, c := range ds.Columns() {
		if c.Name() == target {
			continue
		}
		cat := ClassifyWith(c, opt.Classifier)
		if !cat.IsNumeric() && cat != Categorical {
			slog.Debug("skipping relationship", "column", c.Name(), "category", cat)
			continue
		}
		rel, err := summarize(c, tcol, cat)
		if err != nil {
			return nil, err
		}
		out = append(out, *rel)
	}
	return out, nil
}

// SummarizeAllFiltered drops the target's outlier rows, found with
// opt.OutlierMethod, then summarizes the remaining dataset. ds itself is left
// untouched.
func SummarizeAllFiltered(ds *dataset.Dataset, target string, opt Options) ([]Relationship, *OutlierResult, error) {
	if err := opt.Validate(); err != nil {
		return nil, nil, err
	}
	method, _ := ParseOutlierMethod(string(opt.OutlierMethod))
	out, err := DetectOutliers(ds, target, method, opt.ZThreshold)
	if err != nil {
		return nil, nil, err
	}
	filtered := ds.DropRows(out.Rows)
	slog.Debug("dropped target outliers", "target", target, "method", method, "rows", out.Count())
	rels, err := SummarizeAllWith(filtered, target, opt)
	if err != nil {
		return nil, nil, err
	}
	return rels, out, nil
}
