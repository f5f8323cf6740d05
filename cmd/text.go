package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataprobe/internal/analysis"
	"github.com/KaramelBytes/dataprobe/internal/report"
)

var (
	txtSource  sourceFlags
	txtColumns []string
	txtOutput  string
)

var textCmd = &cobra.Command{
	Use:   "text <file>",
	Short: "Word statistics for free-text columns",
	Long: `text reports entry counts and word statistics for the named string columns,
or for every column classified as Text when --column is omitted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := txtSource.load(cmd, args[0])
		if err != nil {
			return err
		}
		p := report.New(filepath.Base(args[0]), ds)
		if len(txtColumns) == 0 {
			p.AddText(ds)
			if len(p.Text) == 0 {
				p.Warnings = append(p.Warnings, "no Text columns found")
			}
			return emit(cmd, p, txtOutput)
		}
		for _, name := range txtColumns {
			col, ok := ds.Column(name)
			if !ok {
				return fmt.Errorf("%w: %q", analysis.ErrNotFound, name)
			}
			ts, err := analysis.TextStatistics(col)
			if err != nil {
				return err
			}
			p.Text = append(p.Text, *ts)
		}
		return emit(cmd, p, txtOutput)
	},
}

func init() {
	rootCmd.AddCommand(textCmd)
	txtSource.register(textCmd)
	textCmd.Flags().StringSliceVarP(&txtColumns, "column", "c", nil, "string column to describe (repeatable)")
	textCmd.Flags().StringVarP(&txtOutput, "output", "o", "", "write the report to a file instead of stdout")
}
