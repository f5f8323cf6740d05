package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/KaramelBytes/dataprobe/internal/analysis"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#FF6B6B")
	// SuccessColor marks clean checks.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// WarningColor marks findings.
	WarningColor = lipgloss.Color("#FFE66D")
	// SubtleColor is used for secondary details.
	SubtleColor = lipgloss.Color("#666666")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#333"))

	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(SubtleColor)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	CellStyle = lipgloss.NewStyle().PaddingRight(2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠"
)

// Console renders a styled terminal report.
type Console struct{}

func (Console) Extension() string { return ".txt" }

func (Console) Render(w io.Writer, p *Profile) error {
	_, err := io.WriteString(w, p.Console())
	return err
}

// Console returns the styled terminal rendering of the profile.
func (p *Profile) Console() string {
	var sections []string

	summary := []string{
		TitleStyle.Render(safeName(p.Name)),
		fmt.Sprintf("Rows: %d   Columns: %d", p.Rows, p.Columns),
	}
	if len(p.Kinds) > 0 {
		parts := make([]string, 0, len(p.Kinds))
		for _, k := range p.Kinds {
			parts = append(parts, fmt.Sprintf("%s %d", k.Kind, k.Count))
		}
		summary = append(summary, SubtleStyle.Render(strings.Join(parts, " · ")))
	}
	sections = append(sections, BoxStyle.Render(strings.Join(summary, "\n")))

	if len(p.ColumnProfiles) > 0 {
		rows := [][]string{{"COLUMN", "CATEGORY", "KIND", "MISSING", "UNIQUE", "DETAIL"}}
		for _, c := range p.ColumnProfiles {
			detail := ""
			switch {
			case c.Numeric != nil:
				detail = fmt.Sprintf("mean %.4g, std %.4g, range %.4g..%.4g", c.Numeric.Mean, c.Numeric.Std, c.Numeric.Min, c.Numeric.Max)
			case len(c.TopValues) > 0:
				vals := make([]string, len(c.TopValues))
				for i, kv := range c.TopValues {
					vals[i] = fmt.Sprintf("%s(%d)", kv.Value, kv.Count)
				}
				detail = strings.Join(vals, ", ")
			}
			rows = append(rows, []string{
				c.Name, string(c.Category), c.Kind.String(),
				fmt.Sprintf("%.1f%%", c.MissingPct), fmt.Sprint(c.Unique), detail,
			})
		}
		sections = append(sections, section("Columns", table(rows)))
	}

	if q := p.Quality; q != nil {
		var lines []string
		if len(p.Findings) == 0 {
			lines = append(lines, SuccessStyle.Render(SuccessIcon+" no quality issues"))
		}
		for _, f := range p.Findings {
			lines = append(lines, WarningStyle.Render(WarningIcon+" "+findingText(f)))
		}
		sections = append(sections, section("Data quality", strings.Join(lines, "\n")))
	}

	if len(p.Outliers) > 0 {
		var b strings.Builder
		for _, o := range p.Outliers {
			writeOutlier(&b, o)
		}
		sections = append(sections, section("Outliers", strings.TrimRight(b.String(), "\n")))
	}

	if len(p.Relationships) > 0 {
		rows := [][]string{{"FEATURE", "CATEGORY", "RELATIONSHIP"}}
		for _, rel := range p.Relationships {
			desc := correlationText(rel)
			if rel.Category == analysis.Categorical {
				parts := make([]string, len(rel.Groups))
				for i, g := range rel.Groups {
					parts[i] = fmt.Sprintf("%s=%.4g", g.Label, g.Mean)
				}
				desc = strings.Join(parts, " < ")
			}
			rows = append(rows, []string{rel.Feature, string(rel.Category), desc})
		}
		title := "Relationships to " + p.Target
		if p.DroppedOutliers != nil {
			title += SubtleStyle.Render(fmt.Sprintf(" (%d outliers dropped)", p.DroppedOutliers.Count()))
		}
		sections = append(sections, section(title, table(rows)))
	}

	if len(p.Text) > 0 {
		rows := [][]string{{"COLUMN", "TOTAL", "EMPTY", "AVG WORDS", "MEDIAN", "AVG UNIQUE"}}
		for _, t := range p.Text {
			rows = append(rows, []string{
				t.Column, fmt.Sprint(t.Total), fmt.Sprint(t.Empty),
				fmt.Sprintf("%.2f", t.AvgWords), fmt.Sprintf("%.1f", t.MedianWords), fmt.Sprintf("%.2f", t.AvgUniqueWords),
			})
		}
		sections = append(sections, section("Text", table(rows)))
	}

	if pairs := topCorrPairs(p.Corr, maxCorrPairs); len(pairs) > 0 {
		lines := make([]string, len(pairs))
		for i, pr := range pairs {
			lines[i] = fmt.Sprintf("%s ~ %s  r=%.3f", pr.A, pr.B, pr.R)
		}
		sections = append(sections, section("Correlations", strings.Join(lines, "\n")))
	}

	if len(p.Warnings) > 0 {
		lines := make([]string, len(p.Warnings))
		for i, w := range p.Warnings {
			lines[i] = WarningStyle.Render(WarningIcon + " " + w)
		}
		sections = append(sections, section("Notes", strings.Join(lines, "\n")))
	}
	return strings.Join(sections, "\n\n") + "\n"
}

func section(title, body string) string {
	return SectionStyle.Render(title) + "\n" + body
}

// table aligns rows into padded columns; the first row is the header.
func table(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	widths := make([]int, len(rows[0]))
	for _, r := range rows {
		for i, cell := range r {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	lines := make([]string, len(rows))
	for ri, r := range rows {
		cells := make([]string, len(r))
		for i, cell := range r {
			st := CellStyle.Width(widths[i] + 2)
			if ri == 0 {
				st = st.Bold(true)
			}
			cells[i] = st.Render(cell)
		}
		lines[ri] = strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cells...), " ")
	}
	return strings.Join(lines, "\n")
}

func findingText(f analysis.Finding) string {
	switch f.Kind {
	case analysis.FindingMissingData:
		return fmt.Sprintf("%s: %d missing (%.1f%%)", f.Columns[0], f.Count, f.Percent)
	case analysis.FindingDuplicateRows:
		return fmt.Sprintf("%d duplicate rows", f.Count)
	case analysis.FindingDuplicateColumns:
		return fmt.Sprintf("%s duplicates %s", f.Columns[1], f.Columns[0])
	case analysis.FindingLowVariance:
		return fmt.Sprintf("%s: low variance", f.Columns[0])
	case analysis.FindingOutlier:
		return fmt.Sprintf("%s: %d outliers (%.1f%%)", f.Columns[0], f.Count, f.Percent)
	}
	return string(f.Kind)
}
