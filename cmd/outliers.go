package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataprobe/internal/analysis"
	"github.com/KaramelBytes/dataprobe/internal/dataset"
	"github.com/KaramelBytes/dataprobe/internal/report"
)

var (
	outSource   sourceFlags
	outAnalysis analysisFlags
	outColumn   string
	outShowRows bool
	outOutput   string
)

var outliersCmd = &cobra.Command{
	Use:   "outliers <file>",
	Short: "Flag outlier rows of a numeric column (IQR or Z-score)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := outSource.load(cmd, args[0])
		if err != nil {
			return err
		}
		opt, err := outAnalysis.options(cmd, config())
		if err != nil {
			return err
		}
		res, err := analysis.DetectOutliers(ds, outColumn, opt.OutlierMethod, opt.ZThreshold)
		if err != nil {
			return err
		}
		p := report.New(filepath.Base(args[0]), ds)
		p.Outliers = append(p.Outliers, *res)
		if err := emit(cmd, p, outOutput); err != nil {
			return err
		}
		if outShowRows && res.Count() > 0 {
			fmt.Fprint(cmd.OutOrStdout(), outlierRows(ds, res.Rows))
		}
		return nil
	},
}

// outlierRows lists the full records of the given rows, one per line.
func outlierRows(ds *dataset.Dataset, rows []int) string {
	var b strings.Builder
	names := ds.Names()
	for _, r := range rows {
		vals := ds.Row(r)
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = fmt.Sprintf("%s=%s", names[i], dataset.FormatValue(v))
		}
		b.WriteString(fmt.Sprintf("row %d: %s\n", r, strings.Join(parts, ", ")))
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(outliersCmd)
	outSource.register(outliersCmd)
	outAnalysis.register(outliersCmd)
	outliersCmd.Flags().StringVarP(&outColumn, "column", "c", "", "numeric column to inspect")
	outliersCmd.Flags().BoolVar(&outShowRows, "show-rows", false, "print the full outlier records")
	outliersCmd.Flags().StringVarP(&outOutput, "output", "o", "", "write the report to a file instead of stdout")
	_ = outliersCmd.MarkFlagRequired("column")
}
