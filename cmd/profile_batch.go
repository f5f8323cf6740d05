package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataprobe/internal/report"
	"github.com/KaramelBytes/dataprobe/internal/utils"
)

var (
	pbSource       sourceFlags
	pbAnalysis     analysisFlags
	pbTarget       string
	pbDropOutliers string
	pbOutDir       string
	pbQuiet        bool
)

var profileBatchCmd = &cobra.Command{
	Use:   "profile-batch <files...>",
	Short: "Profile multiple CSV/TSV/XLSX files, writing one report per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		opt, err := reportOptions(cmd, &pbAnalysis, pbDropOutliers)
		if err != nil {
			return err
		}
		r, err := renderer()
		if err != nil {
			return err
		}
		if err := utils.EnsureDir(pbOutDir); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}

		bar := progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetVisibility(!pbQuiet),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan][bold]Profiling files...[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(cmd.ErrOrStderr())
			}),
		)

		var written []string
		failed := 0
		for _, path := range files {
			out, err := profileOne(cmd, path, r, opt)
			_ = bar.Add(1)
			if err != nil {
				failed++
				slog.Warn("profile failed", "file", path, "error", err)
				if !pbQuiet {
					fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s: %v\n", filepath.Base(path), err)
				}
				continue
			}
			written = append(written, out)
		}
		if !pbQuiet {
			for _, w := range written {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", w)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(files))
		}
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths that exist, drops
// duplicates and sorts the result.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

func profileOne(cmd *cobra.Command, path string, r report.Renderer, opt report.Options) (string, error) {
	ds, err := pbSource.load(cmd, path)
	if err != nil {
		return "", err
	}
	p, err := report.Build(filepath.Base(path), ds, pbTarget, opt)
	if err != nil {
		return "", err
	}
	outFile := uniquePath(filepath.Join(pbOutDir, utils.ReportName(path, r.Extension())))
	var b strings.Builder
	if err := r.Render(&b, p); err != nil {
		return "", err
	}
	if err := utils.SafeWriteFile(outFile, []byte(b.String())); err != nil {
		return "", err
	}
	return outFile, nil
}

// uniquePath appends __2, __3, ... before the extension until the name is free.
func uniquePath(p string) string {
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return p
	}
	ext := filepath.Ext(p)
	stem := strings.TrimSuffix(p, ext)
	for idx := 2; ; idx++ {
		cand := fmt.Sprintf("%s__%d%s", stem, idx, ext)
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand
		}
	}
}

func init() {
	rootCmd.AddCommand(profileBatchCmd)
	pbSource.register(profileBatchCmd)
	pbAnalysis.register(profileBatchCmd)
	profileBatchCmd.Flags().StringVarP(&pbTarget, "target", "t", "", "numeric target column present in every file")
	profileBatchCmd.Flags().StringVar(&pbDropOutliers, "drop-outliers", "", "drop target outliers before relating: iqr | z-score")
	profileBatchCmd.Flags().StringVar(&pbOutDir, "out-dir", "reports", "directory receiving one report per input file")
	profileBatchCmd.Flags().BoolVar(&pbQuiet, "quiet", false, "suppress progress and non-essential output")
}
