package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataprobe/internal/report"
)

var (
	relSource       sourceFlags
	relAnalysis     analysisFlags
	relTarget       string
	relDropOutliers string
	relOutput       string
)

var relateCmd = &cobra.Command{
	Use:   "relate <file>",
	Short: "Relate every numeric and categorical feature to a numeric target",
	Long: `relate reports Pearson correlation for numeric features and the mean target
per value, in ascending order, for categorical features. With --drop-outliers
the target's outlier rows are removed first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := relSource.load(cmd, args[0])
		if err != nil {
			return err
		}
		opt, err := reportOptions(cmd, &relAnalysis, relDropOutliers)
		if err != nil {
			return err
		}
		p := report.New(filepath.Base(args[0]), ds)
		if err := p.AddRelationships(ds, relTarget, opt); err != nil {
			return err
		}
		return emit(cmd, p, relOutput)
	},
}

func init() {
	rootCmd.AddCommand(relateCmd)
	relSource.register(relateCmd)
	relAnalysis.register(relateCmd)
	relateCmd.Flags().StringVarP(&relTarget, "target", "t", "", "numeric target column")
	relateCmd.Flags().StringVar(&relDropOutliers, "drop-outliers", "", "drop target outliers first: iqr | z-score")
	relateCmd.Flags().StringVarP(&relOutput, "output", "o", "", "write the report to a file instead of stdout")
	_ = relateCmd.MarkFlagRequired("target")
}
