package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataprobe/internal/analysis"
	cfgpkg "github.com/KaramelBytes/dataprobe/internal/config"
	"github.com/KaramelBytes/dataprobe/internal/dataset"
	"github.com/KaramelBytes/dataprobe/internal/loader"
	"github.com/KaramelBytes/dataprobe/internal/report"
	"github.com/KaramelBytes/dataprobe/internal/utils"
)

// sourceFlags are the file parsing flags shared by commands reading a file.
type sourceFlags struct {
	delimiter   string
	decimal     string
	thousands   string
	maxRows     int
	sheetName   string
	sheetIndex  int
	categorical []string
	missing     []string
}

func (s *sourceFlags) register(c *cobra.Command) {
	f := c.Flags()
	f.StringVar(&s.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (default from extension)")
	f.StringVar(&s.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	f.StringVar(&s.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	f.IntVar(&s.maxRows, "max-rows", 0, "maximum rows to load (0 = unlimited)")
	f.StringVar(&s.sheetName, "sheet-name", "", "XLSX: sheet name to load")
	f.IntVar(&s.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	f.StringSliceVar(&s.categorical, "categorical", nil, "columns to load as categories (repeatable)")
	f.StringSliceVar(&s.missing, "missing", nil, "tokens read as missing values (default from config)")
}

// options layers changed flags over the configured loader options.
func (s *sourceFlags) options(c *cobra.Command, conf *cfgpkg.Global) (loader.Options, error) {
	opt, err := conf.LoaderOptions()
	if err != nil {
		return loader.Options{}, err
	}
	f := c.Flags()
	if f.Changed("delimiter") {
		d, err := cfgpkg.ParseDelimiter(s.delimiter)
		if err != nil {
			return loader.Options{}, err
		}
		opt.Delimiter = d
	}
	if f.Changed("max-rows") {
		if s.maxRows < 0 {
			return loader.Options{}, fmt.Errorf("--max-rows must be >= 0")
		}
		opt.MaxRows = s.maxRows
	}
	if f.Changed("missing") {
		opt.MissingValues = s.missing
	}
	switch strings.ToLower(strings.TrimSpace(s.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return loader.Options{}, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", s.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(s.thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return loader.Options{}, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", s.thousands)
	}
	opt.Categorical = s.categorical
	opt.SheetName = s.sheetName
	opt.SheetIndex = s.sheetIndex
	return opt, nil
}

// load reads path with the merged loader options.
func (s *sourceFlags) load(c *cobra.Command, path string) (*dataset.Dataset, error) {
	opt, err := s.options(c, config())
	if err != nil {
		return nil, err
	}
	return loader.LoadFile(path, opt)
}

// analysisFlags tune classification and outlier detection.
type analysisFlags struct {
	method  string
	z       float64
	workers int
}

func (a *analysisFlags) register(c *cobra.Command) {
	f := c.Flags()
	f.StringVar(&a.method, "method", "", "outlier method: IQR | Z-score (default from config)")
	f.Float64Var(&a.z, "z", 0, "|z| threshold for the Z-score method (default from config)")
	f.IntVar(&a.workers, "workers", 0, "parallel column classification workers (default from config)")
}

func (a *analysisFlags) options(c *cobra.Command, conf *cfgpkg.Global) (analysis.Options, error) {
	opt, err := conf.AnalysisOptions()
	if err != nil {
		return analysis.Options{}, err
	}
	f := c.Flags()
	if f.Changed("method") {
		m, err := analysis.ParseOutlierMethod(a.method)
		if err != nil {
			return analysis.Options{}, err
		}
		opt.OutlierMethod = m
	}
	if f.Changed("z") {
		opt.ZThreshold = a.z
	}
	if f.Changed("workers") {
		opt.Workers = a.workers
	}
	if err := opt.Validate(); err != nil {
		return analysis.Options{}, err
	}
	return opt, nil
}

// renderer picks the --format flag, else the configured output format.
func renderer() (report.Renderer, error) {
	name := flagFormat
	if name == "" {
		name = config().OutputFormat
	}
	return report.ForFormat(name)
}

// emit renders p to output when set, else to the command's stdout.
func emit(c *cobra.Command, p *report.Profile, output string) error {
	r, err := renderer()
	if err != nil {
		return err
	}
	if output == "" {
		return r.Render(c.OutOrStdout(), p)
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, p); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(output, buf.Bytes()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(c.OutOrStdout(), "✓ Wrote report to %s\n", output)
	return nil
}
