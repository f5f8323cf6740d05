package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cfgpkg "github.com/KaramelBytes/dataprobe/internal/config"
)

var (
	// Global flags
	cfgFile    string
	flagFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "dataprobe",
	Short: "dataprobe: classify columns and inspect data quality",
	Long: `dataprobe loads tabular data from CSV, TSV, XLSX or a SQL query, assigns each
column a semantic category, reports data-quality problems (missing values,
duplicates, low variance, outliers) and relates features to a numeric target.`,
	PersistentPreRunE: initConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute is the entry point called by main.main()
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.dataprobe/config.yaml)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (console, json)")
	pf.StringVarP(&flagFormat, "format", "f", "", "output format: console | markdown | json | yaml (default from config)")
}

// initConfig loads configuration with flags > env > file > defaults and
// installs the slog handler.
func initConfig(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	_ = v.BindPFlag("log_level", cmd.Flags().Lookup("log-level"))
	_ = v.BindPFlag("log_format", cmd.Flags().Lookup("log-format"))
	c, err := cfgpkg.LoadViper(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = c
	if err := setupLogging(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	slog.Debug("configuration loaded", "config", cfgFile, "output_format", cfg.OutputFormat)
	return nil
}

func setupLogging(w io.Writer, level, format string) error {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return fmt.Errorf("invalid log level: %s", level)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: slogLevel,
	}
	switch format {
	case "console":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("invalid log format: %s", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// config returns the loaded configuration, or defaults when loading was
// skipped.
func config() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Default()
	}
	return cfg
}
