// Package dataset holds the in-memory tabular model shared by loaders,
// the analysis core and the report renderers. A Dataset is never mutated
// after construction; row filtering builds a new one.
package dataset

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrRowMismatch indicates columns of different lengths.
	ErrRowMismatch = errors.New("columns have different row counts")
	// ErrDuplicateName indicates two columns share a name.
	ErrDuplicateName = errors.New("duplicate column name")
)

// Dataset is an ordered collection of uniquely named columns.
type Dataset struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New assembles columns into a dataset. All columns must share one row count
// and names must be unique and non-empty.
func New(columns ...*Column) (*Dataset, error) {
	d := &Dataset{index: make(map[string]int, len(columns))}
	for i, c := range columns {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if strings.TrimSpace(c.name) == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := d.index[c.name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, c.name)
		}
		if i == 0 {
			d.rows = c.Len()
		} else if c.Len() != d.rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrRowMismatch, c.name, c.Len(), d.rows)
		}
		d.index[c.name] = i
		d.columns = append(d.columns, c)
	}
	return d, nil
}

// MustNew is New that panics on error. Intended for fixtures.
func MustNew(columns ...*Column) *Dataset {
	d, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return d
}

// Rows returns the row count.
func (d *Dataset) Rows() int { return d.rows }

// Width returns the number of columns.
func (d *Dataset) Width() int { return len(d.columns) }

// Columns returns the columns in dataset order.
func (d *Dataset) Columns() []*Column {
	out := make([]*Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// Names returns column names in dataset order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.columns))
	for i, c := range d.columns {
		out[i] = c.name
	}
	return out
}

// Column looks up a column by name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.columns[i], true
}

// Row returns the values of row i across all columns.
func (d *Dataset) Row(i int) []any {
	out := make([]any, len(d.columns))
	for j, c := range d.columns {
		out[j] = c.values[i]
	}
	return out
}

// SelectRows returns a new dataset holding the given rows in the given order.
func (d *Dataset) SelectRows(rows []int) (*Dataset, error) {
	for _, r := range rows {
		if r < 0 || r >= d.rows {
			return nil, fmt.Errorf("row %d out of range [0,%d)", r, d.rows)
		}
	}
	cols := make([]*Column, len(d.columns))
	for i, c := range d.columns {
		cols[i] = c.Select(rows)
	}
	return &Dataset{columns: cols, index: d.index, rows: len(rows)}, nil
}

// DropRows returns a new dataset without the given rows. Out-of-range
// indices are ignored.
func (d *Dataset) DropRows(rows []int) *Dataset {
	drop := make(map[int]struct{}, len(rows))
	for _, r := range rows {
		drop[r] = struct{}{}
	}
	keep := make([]int, 0, d.rows)
	for i := 0; i < d.rows; i++ {
		if _, ok := drop[i]; !ok {
			keep = append(keep, i)
		}
	}
	out, _ := d.SelectRows(keep)
	return out
}

// KindCounts returns how many columns use each storage kind, ordered by
// descending count then kind name.
func (d *Dataset) KindCounts() []KindCount {
	counts := map[Kind]int{}
	for _, c := range d.columns {
		counts[c.kind]++
	}
	out := make([]KindCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, KindCount{Kind: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Kind.String() < out[j].Kind.String()
		}
		return out[i].Count > out[j].Count
	})
	return out
}

// KindCount pairs a storage kind with the number of columns using it.
type KindCount struct {
	Kind  Kind `json:"kind" yaml:"kind"`
	Count int  `json:"count" yaml:"count"`
}
