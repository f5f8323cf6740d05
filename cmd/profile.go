package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataprobe/internal/analysis"
	"github.com/KaramelBytes/dataprobe/internal/report"
)

var (
	profSource       sourceFlags
	profAnalysis     analysisFlags
	profTarget       string
	profDropOutliers string
	profOutput       string
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Classify, quality-check and relate every column of a CSV/TSV/XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		ds, err := profSource.load(cmd, path)
		if err != nil {
			return err
		}
		opt, err := reportOptions(cmd, &profAnalysis, profDropOutliers)
		if err != nil {
			return err
		}
		p, err := report.Build(filepath.Base(path), ds, profTarget, opt)
		if err != nil {
			return err
		}
		return emit(cmd, p, profOutput)
	},
}

// reportOptions merges analysis flags with an optional --drop-outliers
// method, which overrides the outlier method for target filtering.
func reportOptions(cmd *cobra.Command, a *analysisFlags, drop string) (report.Options, error) {
	ao, err := a.options(cmd, config())
	if err != nil {
		return report.Options{}, err
	}
	opt := report.Options{Analysis: ao}
	if drop != "" {
		m, err := analysis.ParseOutlierMethod(drop)
		if err != nil {
			return report.Options{}, err
		}
		opt.Analysis.OutlierMethod = m
		opt.DropOutliers = true
	}
	return opt, nil
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profSource.register(profileCmd)
	profAnalysis.register(profileCmd)
	profileCmd.Flags().StringVarP(&profTarget, "target", "t", "", "numeric target column to relate features to")
	profileCmd.Flags().StringVar(&profDropOutliers, "drop-outliers", "", "drop target outliers before relating: iqr | z-score")
	profileCmd.Flags().StringVarP(&profOutput, "output", "o", "", "write the report to a file instead of stdout")
}
