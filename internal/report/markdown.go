package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/dataprobe/internal/analysis"
)

// maxCorrPairs caps the correlation pairs listed in text renderers.
const maxCorrPairs = 10

// Markdown renders bracketed plain-text sections suited to pasting into
// notes or prompts.
type Markdown struct{}

func (Markdown) Extension() string { return ".md" }

func (Markdown) Render(w io.Writer, p *Profile) error {
	_, err := io.WriteString(w, p.Markdown())
	return err
}

// Markdown returns the profile as bracketed sections.
func (p *Profile) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if p.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", p.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", p.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", p.Columns))
	if len(p.Kinds) > 0 {
		parts := make([]string, 0, len(p.Kinds))
		for _, k := range p.Kinds {
			parts = append(parts, fmt.Sprintf("%s=%d", k.Kind, k.Count))
		}
		b.WriteString(fmt.Sprintf("Storage kinds: %s\n", strings.Join(parts, ", ")))
	}

	if len(p.ColumnProfiles) > 0 {
		b.WriteString("\n[SCHEMA]\n")
		for _, c := range p.ColumnProfiles {
			b.WriteString(fmt.Sprintf("- %s: %s (%s, missing %.1f%%, unique %d)",
				safeName(c.Name), c.Category, c.Kind, c.MissingPct, c.Unique))
			if c.Numeric != nil {
				b.WriteString(fmt.Sprintf("; min %.4g, max %.4g, mean %.4g, std %.4g",
					c.Numeric.Min, c.Numeric.Max, c.Numeric.Mean, c.Numeric.Std))
			}
			if len(c.TopValues) > 0 {
				b.WriteString("; top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
			}
			b.WriteString("\n")
		}
	}

	if p.Categories != nil {
		b.WriteString("\n[CATEGORIES]\n")
		for _, cat := range analysis.AllCategories {
			names := p.Categories[cat]
			if len(names) == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("- %s: %s\n", cat, strings.Join(names, ", ")))
		}
	}

	if q := p.Quality; q != nil {
		b.WriteString("\n[DATA QUALITY]\n")
		missing := 0
		for _, m := range q.Missing {
			if m.Missing > 0 {
				missing++
				b.WriteString(fmt.Sprintf("- missing %s: %d (%.1f%%)\n", safeName(m.Column), m.Missing, m.Percent))
			}
		}
		if missing == 0 {
			b.WriteString("- missing: none\n")
		}
		b.WriteString(fmt.Sprintf("- duplicate rows: %d\n", q.Duplicates.Rows))
		for _, cp := range q.Duplicates.ColumnPairs {
			b.WriteString(fmt.Sprintf("- duplicate column: %s repeats %s\n", cp.Duplicate, cp.Original))
		}
		if len(q.LowVariance) > 0 {
			b.WriteString(fmt.Sprintf("- low variance: %s\n", strings.Join(q.LowVariance, ", ")))
		}
		for _, o := range q.Outliers {
			if o.Count() > 0 {
				b.WriteString(fmt.Sprintf("- outliers %s: %d by %s (bounds %.4g..%.4g)\n", o.Column, o.Count(), o.Method, o.Lower, o.Upper))
			}
		}
	}

	if len(p.Outliers) > 0 {
		b.WriteString("\n[OUTLIERS]\n")
		for _, o := range p.Outliers {
			writeOutlier(&b, o)
		}
	}

	if len(p.Relationships) > 0 || p.Target != "" {
		b.WriteString(fmt.Sprintf("\n[RELATIONSHIPS TO %s]\n", safeName(p.Target)))
		if p.DroppedOutliers != nil {
			b.WriteString(fmt.Sprintf("Filtered: %d %s outlier rows removed\n", p.DroppedOutliers.Count(), p.DroppedOutliers.Method))
		}
		for _, rel := range p.Relationships {
			b.WriteString(fmt.Sprintf("- %s (%s): ", safeName(rel.Feature), rel.Category))
			if rel.Category == analysis.Categorical {
				for i, g := range rel.Groups {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s=%.4g(n=%d)", safeVal(g.Label), g.Mean, g.Count))
				}
				if len(rel.Groups) == 0 {
					b.WriteString("no groups")
				}
			} else {
				b.WriteString(correlationText(rel))
			}
			b.WriteString("\n")
		}
	}

	if len(p.Text) > 0 {
		b.WriteString("\n[TEXT]\n")
		for _, t := range p.Text {
			b.WriteString(fmt.Sprintf("- %s: total %d, empty %d, avg words %.2f, median words %.1f, avg unique words %.2f\n",
				safeName(t.Column), t.Total, t.Empty, t.AvgWords, t.MedianWords, t.AvgUniqueWords))
		}
	}

	if pairs := topCorrPairs(p.Corr, maxCorrPairs); len(pairs) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, pr := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", pr.A, pr.B, pr.R))
		}
	}

	if len(p.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range p.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeOutlier(b *strings.Builder, o analysis.OutlierResult) {
	b.WriteString(fmt.Sprintf("- %s by %s: %d rows outside %.4g..%.4g", o.Column, o.Method, o.Count(), o.Lower, o.Upper))
	if o.Method == analysis.MethodZScore {
		b.WriteString(fmt.Sprintf(" (|z|>%.2g)", o.Threshold))
	}
	if o.Count() > 0 {
		b.WriteString(": rows ")
		b.WriteString(joinInts(o.Rows))
	}
	b.WriteString("\n")
}

func correlationText(rel analysis.Relationship) string {
	if rel.Correlation == nil {
		return fmt.Sprintf("r undefined (pairs %d)", rel.Pairs)
	}
	return fmt.Sprintf("r=%.3f (pairs %d)", *rel.Correlation, rel.Pairs)
}

type corrPair struct {
	A, B string
	R    float64
}

// topCorrPairs lists the off-diagonal pairs by descending |r|.
func topCorrPairs(m *analysis.CorrMatrix, limit int) []corrPair {
	if m == nil || len(m.Columns) < 2 {
		return nil
	}
	var pairs []corrPair
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, corrPair{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai := math.Abs(pairs[i].R)
		aj := math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
