package analysis

import (
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/dataprobe/internal/dataset"
)

// Category is the semantic type assigned to a column.
type Category string

const (
	Integer     Category = "Integer"
	Float       Category = "Float"
	Boolean     Category = "Boolean"
	Datetime    Category = "Datetime"
	Categorical Category = "Categorical"
	Mixed       Category = "Mixed"
	Text        Category = "Text"
	Unknown     Category = "Unknown"
)

// AllCategories lists every category in report order.
var AllCategories = []Category{Integer, Float, Boolean, Datetime, Categorical, Mixed, Text, Unknown}

// IsNumeric reports whether the category is Integer or Float.
func (c Category) IsNumeric() bool { return c == Integer || c == Float }

// classifyRule pairs a predicate with the category it assigns. Rules are
// evaluated top to bottom and the first match wins.
type classifyRule struct {
	name   string
	match  func(c *dataset.Column, th Thresholds) bool
	assign func(c *dataset.Column) Category
}

var classifyRules = []classifyRule{
	{name: "low-variance", match: IsLowVariance, assign: always(Categorical)},
	{name: "numeric", match: func(c *dataset.Column, _ Thresholds) bool { return c.Kind().IsNumeric() }, assign: numericCategory},
	{name: "bool", match: kindIs(dataset.KindBool, false), assign: always(Boolean)},
	{name: "time", match: kindIs(dataset.KindTime, false), assign: always(Datetime)},
	{name: "category", match: kindIs(dataset.KindCategory, true), assign: always(Categorical)},
	{name: "string", match: kindIs(dataset.KindString, true), assign: always(Text)},
	{name: "compound", match: firstIsCompound, assign: always(Mixed)},
}

func always(c Category) func(*dataset.Column) Category {
	return func(*dataset.Column) Category { return c }
}

// kindIs matches a declared kind; nonEmpty additionally requires rows.
func kindIs(k dataset.Kind, nonEmpty bool) func(*dataset.Column, Thresholds) bool {
	return func(c *dataset.Column, _ Thresholds) bool {
		return c.Kind() == k && (!nonEmpty || c.Len() > 0)
	}
}

func firstIsCompound(c *dataset.Column, _ Thresholds) bool {
	switch c.FirstPresent().(type) {
	case []any, map[string]any:
		return true
	}
	return false
}

// numericCategory is Integer when every present value is whole. A column
// without present values has no integer evidence and is Float.
func numericCategory(c *dataset.Column) Category {
	seen := false
	for i := 0; i < c.Len(); i++ {
		v, ok := c.Float(i)
		if !ok {
			continue
		}
		seen = true
		if math.Floor(v) != v {
			return Float
		}
	}
	if !seen {
		return Float
	}
	return Integer
}

// Classify assigns a category using the classifier thresholds.
func Classify(col *dataset.Column) Category {
	return ClassifyWith(col, ClassifierThresholds())
}

// ClassifyWith assigns a category using the given low-variance thresholds.
func ClassifyWith(col *dataset.Column, th Thresholds) Category {
	for _, r := range classifyRules {
		if r.match(col, th) {
			return r.assign(col)
		}
	}
	return Unknown
}

// Categories maps every category to its columns in dataset order.
type Categories map[Category][]string

func newCategories() Categories {
	out := make(Categories, len(AllCategories))
	for _, c := range AllCategories {
		out[c] = []string{}
	}
	return out
}

// Of returns the category holding column.
func (c Categories) Of(column string) (Category, bool) {
	for cat, names := range c {
		for _, n := range names {
			if n == column {
				return cat, true
			}
		}
	}
	return "", false
}

// ClassifyAll classifies every column with default options.
func ClassifyAll(ds *dataset.Dataset) Categories {
	out, _ := ClassifyAllWith(ds, DefaultOptions())
	return out
}

// ClassifyAllWith classifies every column, fanning out over opt.Workers
// goroutines when greater than one. Output order is dataset order either way.
func ClassifyAllWith(ds *dataset.Dataset, opt Options) (Categories, error) {
	if err := opt.Classifier.Validate(); err != nil {
		return nil, err
	}
	cols := ds.Columns()
	assigned := make([]Category, len(cols))
	if opt.Workers <= 1 {
		for i, c := range cols {
			assigned[i] = ClassifyWith(c, opt.Classifier)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(opt.Workers)
		for i, c := range cols {
			g.Go(func() error {
				assigned[i] = ClassifyWith(c, opt.Classifier)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	out := newCategories()
	for i, c := range cols {
		out[assigned[i]] = append(out[assigned[i]], c.Name())
	}
	slog.Debug("classified columns", "columns", len(cols), "workers", opt.Workers)
	return out, nil
}
