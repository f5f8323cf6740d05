package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataprobe/internal/report"
)

var (
	clsSource   sourceFlags
	clsAnalysis analysisFlags
	clsOutput   string
)

var classifyCmd = &cobra.Command{
	Use:   "classify <file>",
	Short: "Assign a semantic category to every column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := clsSource.load(cmd, args[0])
		if err != nil {
			return err
		}
		opt, err := clsAnalysis.options(cmd, config())
		if err != nil {
			return err
		}
		p := report.New(filepath.Base(args[0]), ds)
		if err := p.AddClassification(ds, opt); err != nil {
			return err
		}
		return emit(cmd, p, clsOutput)
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	clsSource.register(classifyCmd)
	clsAnalysis.register(classifyCmd)
	classifyCmd.Flags().StringVarP(&clsOutput, "output", "o", "", "write the report to a file instead of stdout")
}
