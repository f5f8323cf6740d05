package loader

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/KaramelBytes/dataprobe/internal/dataset"
)

// frameOptions translates loader options into gota load options.
func frameOptions(opt Options) []dataframe.LoadOption {
	missing := opt.MissingValues
	if missing == nil {
		missing = DefaultMissingValues
	}
	lo := []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(missing),
	}
	if len(opt.Categorical) > 0 {
		types := make(map[string]series.Type, len(opt.Categorical))
		for _, name := range opt.Categorical {
			types[name] = series.String
		}
		lo = append(lo, dataframe.WithTypes(types))
	}
	return lo
}

// fromFrame converts a gota frame into a dataset. Integer, float and bool
// series map directly; string series go through timestamp and locale-aware
// numeric promotion unless declared categorical.
func fromFrame(df dataframe.DataFrame, opt Options) (*dataset.Dataset, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("parse table: %w", df.Err)
	}
	if opt.MaxRows > 0 && df.Nrow() > opt.MaxRows {
		idx := make([]int, opt.MaxRows)
		for i := range idx {
			idx[i] = i
		}
		df = df.Subset(idx)
		if df.Err != nil {
			return nil, fmt.Errorf("limit rows: %w", df.Err)
		}
	}
	cols := make([]*dataset.Column, 0, df.Ncol())
	for _, name := range df.Names() {
		col, err := seriesColumn(name, df.Col(name), opt)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return dataset.New(cols...)
}

func seriesColumn(name string, s series.Series, opt Options) (*dataset.Column, error) {
	n := s.Len()
	vals := make([]any, n)
	switch s.Type() {
	case series.Int:
		for i := 0; i < n; i++ {
			e := s.Elem(i)
			if e.IsNA() {
				continue
			}
			if v, err := e.Int(); err == nil {
				vals[i] = int64(v)
			}
		}
		return dataset.NewColumn(name, dataset.KindInt, vals)
	case series.Float:
		for i := 0; i < n; i++ {
			e := s.Elem(i)
			if e.IsNA() {
				continue
			}
			vals[i] = e.Float()
		}
		return dataset.NewColumn(name, dataset.KindFloat, vals)
	case series.Bool:
		for i := 0; i < n; i++ {
			e := s.Elem(i)
			if e.IsNA() {
				continue
			}
			if v, err := e.Bool(); err == nil {
				vals[i] = v
			}
		}
		return dataset.NewColumn(name, dataset.KindBool, vals)
	}
	cells := make([]*string, n)
	for i := 0; i < n; i++ {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		v := e.String()
		cells[i] = &v
	}
	return stringColumn(name, cells, opt)
}

// stringColumn builds a column from text cells (nil is missing). A column
// whose every present cell is a timestamp becomes Time; one whose every
// present cell is a locale-formatted number becomes Float.
func stringColumn(name string, cells []*string, opt Options) (*dataset.Column, error) {
	vals := make([]any, len(cells))
	present := 0
	for i, c := range cells {
		if c != nil {
			vals[i] = *c
			present++
		}
	}
	if opt.isCategorical(name) {
		return dataset.NewColumn(name, dataset.KindCategory, vals)
	}
	if present == 0 {
		return dataset.NewColumn(name, dataset.KindString, vals)
	}
	if times, ok := convertAll(cells, parseTimeMaybe); ok {
		return dataset.NewColumn(name, dataset.KindTime, times)
	}
	num := func(s string) (float64, bool) { return parseNumeric(s, opt) }
	if floats, ok := convertAll(cells, num); ok {
		return dataset.NewColumn(name, dataset.KindFloat, floats)
	}
	return dataset.NewColumn(name, dataset.KindString, vals)
}

func convertAll[T any](cells []*string, parse func(string) (T, bool)) ([]any, bool) {
	out := make([]any, len(cells))
	for i, c := range cells {
		if c == nil {
			continue
		}
		v, ok := parse(strings.TrimSpace(*c))
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

func parseTimeMaybe(s string) (time.Time, bool) {
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumeric reads numbers such as "1.000,5", "12 %" or "3e4". With no
// configured decimal separator the last of ',' and '.' wins.
func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.ReplaceAll(s, "%", "")
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "\u00A0", " "))
	if raw == "" {
		return 0, false
	}
	dec, thou := opt.DecimalSeparator, opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0 && cpos > dpos:
			dec, thou = ',', '.'
		case cpos >= 0 && dpos >= 0:
			dec, thou = '.', ','
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
