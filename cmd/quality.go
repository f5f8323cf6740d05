package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataprobe/internal/report"
)

var (
	qSource   sourceFlags
	qAnalysis analysisFlags
	qOutput   string
	qStrict   bool
)

var qualityCmd = &cobra.Command{
	Use:   "quality <file>",
	Short: "Report missing values, duplicates, low-variance columns and outliers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := qSource.load(cmd, args[0])
		if err != nil {
			return err
		}
		opt, err := qAnalysis.options(cmd, config())
		if err != nil {
			return err
		}
		p := report.New(filepath.Base(args[0]), ds)
		if err := p.AddQuality(ds, opt); err != nil {
			return err
		}
		if err := emit(cmd, p, qOutput); err != nil {
			return err
		}
		if qStrict && len(p.Findings) > 0 {
			return fmt.Errorf("%d data quality findings", len(p.Findings))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(qualityCmd)
	qSource.register(qualityCmd)
	qAnalysis.register(qualityCmd)
	qualityCmd.Flags().StringVarP(&qOutput, "output", "o", "", "write the report to a file instead of stdout")
	qualityCmd.Flags().BoolVar(&qStrict, "strict", false, "exit non-zero when any finding is reported")
}
