package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/dataprobe/internal/analysis"
	"github.com/KaramelBytes/dataprobe/internal/loader"
	"github.com/KaramelBytes/dataprobe/internal/report"
	"github.com/KaramelBytes/dataprobe/internal/utils"
)

// Global configuration structure.
type Global struct {
	// Low-variance thresholds
	ClassifierRelative float64 `mapstructure:"classifier_relative" yaml:"classifier_relative"`
	ClassifierAbsolute int     `mapstructure:"classifier_absolute" yaml:"classifier_absolute"`
	QualityRelative    float64 `mapstructure:"quality_relative" yaml:"quality_relative"`
	QualityAbsolute    int     `mapstructure:"quality_absolute" yaml:"quality_absolute"`

	OutlierMethod string  `mapstructure:"outlier_method" yaml:"outlier_method"`
	ZThreshold    float64 `mapstructure:"z_threshold" yaml:"z_threshold"`
	Workers       int     `mapstructure:"workers" yaml:"workers"`

	// Loading
	MissingValues []string `mapstructure:"missing_values" yaml:"missing_values"`
	Delimiter     string   `mapstructure:"delimiter" yaml:"delimiter"`
	MaxRows       int      `mapstructure:"max_rows" yaml:"max_rows"`

	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat    string `mapstructure:"log_format" yaml:"log_format"`

	// SQL source defaults for profile-sql
	SQLDriver string `mapstructure:"sql_driver" yaml:"sql_driver"`
	SQLDSN    string `mapstructure:"sql_dsn" yaml:"sql_dsn"`
}

// Keys lists every configuration key in display order.
var Keys = []string{
	"classifier_relative", "classifier_absolute", "quality_relative", "quality_absolute",
	"outlier_method", "z_threshold", "workers",
	"missing_values", "delimiter", "max_rows",
	"output_format", "log_level", "log_format",
	"sql_driver", "sql_dsn",
}

// Default returns the built-in configuration.
func Default() *Global {
	return &Global{
		ClassifierRelative: analysis.DefaultClassifierRelative,
		ClassifierAbsolute: analysis.DefaultAbsolute,
		QualityRelative:    analysis.DefaultQualityRelative,
		QualityAbsolute:    analysis.DefaultAbsolute,
		OutlierMethod:      string(analysis.MethodIQR),
		ZThreshold:         analysis.DefaultZThreshold,
		Workers:            1,
		MissingValues:      append([]string(nil), loader.DefaultMissingValues...),
		Delimiter:          "",
		MaxRows:            0,
		OutputFormat:       "console",
		LogLevel:           "warn",
		LogFormat:          "console",
	}
}

// Path resolves the config file location. An empty cfgFile means
// ~/.dataprobe/config.yaml.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".dataprobe", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path, creating the
// directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env (DATAPROBE_*) > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	return LoadViper(viper.New(), cfgFile)
}

// LoadViper is Load over a caller-supplied viper instance, so command flags
// bound with BindPFlag take precedence over everything else.
func LoadViper(v *viper.Viper, cfgFile string) (*Global, error) {
	v.SetEnvPrefix("DATAPROBE")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("classifier_relative", d.ClassifierRelative)
	v.SetDefault("classifier_absolute", d.ClassifierAbsolute)
	v.SetDefault("quality_relative", d.QualityRelative)
	v.SetDefault("quality_absolute", d.QualityAbsolute)
	v.SetDefault("outlier_method", d.OutlierMethod)
	v.SetDefault("z_threshold", d.ZThreshold)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("missing_values", d.MissingValues)
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("max_rows", d.MaxRows)
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("sql_driver", "")
	v.SetDefault("sql_dsn", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".dataprobe"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(cfgFile != "" && os.IsNotExist(err)) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// AnalysisOptions converts the thresholds and outlier settings.
func (c *Global) AnalysisOptions() (analysis.Options, error) {
	method, err := analysis.ParseOutlierMethod(c.OutlierMethod)
	if err != nil {
		return analysis.Options{}, err
	}
	opt := analysis.Options{
		Classifier:    analysis.Thresholds{Relative: c.ClassifierRelative, Absolute: c.ClassifierAbsolute},
		Quality:       analysis.Thresholds{Relative: c.QualityRelative, Absolute: c.QualityAbsolute},
		OutlierMethod: method,
		ZThreshold:    c.ZThreshold,
		Workers:       c.Workers,
	}
	if err := opt.Validate(); err != nil {
		return analysis.Options{}, err
	}
	return opt, nil
}

// LoaderOptions converts the loading settings.
func (c *Global) LoaderOptions() (loader.Options, error) {
	opt := loader.DefaultOptions()
	if c.MissingValues != nil {
		opt.MissingValues = c.MissingValues
	}
	d, err := ParseDelimiter(c.Delimiter)
	if err != nil {
		return loader.Options{}, err
	}
	opt.Delimiter = d
	if c.MaxRows < 0 {
		return loader.Options{}, fmt.Errorf("max_rows must be >= 0, got %d", c.MaxRows)
	}
	opt.MaxRows = c.MaxRows
	return opt, nil
}

// ParseDelimiter accepts ",", ";", "|", "tab" or a literal tab. Empty means
// detect from the file extension.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	case "\t", "tab", `\t`:
		return '\t', nil
	}
	return 0, fmt.Errorf("unsupported delimiter: %q (use ',' | ';' | '|' | 'tab')", s)
}

// Set validates and assigns one key.
func (c *Global) Set(key, val string) error {
	switch key {
	case "classifier_relative", "quality_relative":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("invalid ratio for %s: %v (use 0..1)", key, val)
		}
		if key == "classifier_relative" {
			c.ClassifierRelative = f
		} else {
			c.QualityRelative = f
		}
	case "classifier_absolute", "quality_absolute", "workers", "max_rows":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		switch key {
		case "classifier_absolute":
			c.ClassifierAbsolute = i
		case "quality_absolute":
			c.QualityAbsolute = i
		case "workers":
			c.Workers = i
		default:
			c.MaxRows = i
		}
	case "outlier_method":
		m, err := analysis.ParseOutlierMethod(val)
		if err != nil {
			return err
		}
		c.OutlierMethod = string(m)
	case "z_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid float for z_threshold: %v", val)
		}
		c.ZThreshold = f
	case "missing_values":
		var tokens []string
		for _, t := range strings.Split(val, ",") {
			tokens = append(tokens, strings.TrimSpace(t))
		}
		c.MissingValues = tokens
	case "delimiter":
		if _, err := ParseDelimiter(val); err != nil {
			return err
		}
		c.Delimiter = val
	case "output_format":
		if _, err := report.ForFormat(val); err != nil {
			return err
		}
		c.OutputFormat = strings.ToLower(val)
	case "log_level":
		switch val {
		case "debug", "info", "warn", "error":
			c.LogLevel = val
		default:
			return fmt.Errorf("invalid log_level: %s (use debug|info|warn|error)", val)
		}
	case "log_format":
		switch val {
		case "console", "json":
			c.LogFormat = val
		default:
			return fmt.Errorf("invalid log_format: %s (use console|json)", val)
		}
	case "sql_driver":
		name, err := loader.DriverName(val)
		if err != nil {
			return err
		}
		c.SQLDriver = name
	case "sql_dsn":
		c.SQLDSN = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// Show writes every key in display order. The DSN is masked.
func (c *Global) Show(w io.Writer) {
	fmt.Fprintf(w, "classifier_relative: %g\n", c.ClassifierRelative)
	fmt.Fprintf(w, "classifier_absolute: %d\n", c.ClassifierAbsolute)
	fmt.Fprintf(w, "quality_relative: %g\n", c.QualityRelative)
	fmt.Fprintf(w, "quality_absolute: %d\n", c.QualityAbsolute)
	fmt.Fprintf(w, "outlier_method: %s\n", c.OutlierMethod)
	fmt.Fprintf(w, "z_threshold: %g\n", c.ZThreshold)
	fmt.Fprintf(w, "workers: %d\n", c.Workers)
	fmt.Fprintf(w, "missing_values: %s\n", strings.Join(quoteAll(c.MissingValues), ", "))
	fmt.Fprintf(w, "delimiter: %q\n", c.Delimiter)
	fmt.Fprintf(w, "max_rows: %d\n", c.MaxRows)
	fmt.Fprintf(w, "output_format: %s\n", c.OutputFormat)
	fmt.Fprintf(w, "log_level: %s\n", c.LogLevel)
	fmt.Fprintf(w, "log_format: %s\n", c.LogFormat)
	if c.SQLDriver != "" {
		fmt.Fprintf(w, "sql_driver: %s\n", c.SQLDriver)
	}
	if c.SQLDSN != "" {
		fmt.Fprintf(w, "sql_dsn: %s\n", mask(c.SQLDSN))
	}
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strconv.Quote(s)
	}
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
