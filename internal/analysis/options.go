package analysis

import "fmt"

const (
	// DefaultQualityRelative is the distinct/rows ratio the quality report flags.
	DefaultQualityRelative = 0.01
	// DefaultClassifierRelative is tighter: the classifier is slower to call a
	// column categorical than the quality report is to flag it.
	DefaultClassifierRelative = 0.005
	// DefaultAbsolute flags any column with at most this many distinct values.
	DefaultAbsolute = 5
	// DefaultZThreshold is the |z| above which a value is a Z-score outlier.
	DefaultZThreshold = 3.0
	// iqrFence is the Tukey fence multiplier.
	iqrFence = 1.5
)

// Thresholds is a low-variance threshold pair.
type Thresholds struct {
	Relative float64 `json:"relative" yaml:"relative"`
	Absolute int     `json:"absolute" yaml:"absolute"`
}

// QualityThresholds returns the pair used by the quality report.
func QualityThresholds() Thresholds {
	return Thresholds{Relative: DefaultQualityRelative, Absolute: DefaultAbsolute}
}

// ClassifierThresholds returns the pair used by the type classifier.
func ClassifierThresholds() Thresholds {
	return Thresholds{Relative: DefaultClassifierRelative, Absolute: DefaultAbsolute}
}

// Validate rejects ratios outside [0,1] and negative absolute counts.
func (t Thresholds) Validate() error {
	if t.Relative < 0 || t.Relative > 1 {
		return newError(ErrInvalidArgument, "", "relative threshold %g outside [0,1]", t.Relative)
	}
	if t.Absolute < 0 {
		return newError(ErrInvalidArgument, "", "absolute threshold %d is negative", t.Absolute)
	}
	return nil
}

// Options bundles the tunables of the analysis pipeline.
type Options struct {
	Classifier    Thresholds
	Quality       Thresholds
	OutlierMethod OutlierMethod
	ZThreshold    float64
	// Workers bounds per-column classification fan-out; <= 1 runs inline.
	Workers int
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Classifier:    ClassifierThresholds(),
		Quality:       QualityThresholds(),
		OutlierMethod: MethodIQR,
		ZThreshold:    DefaultZThreshold,
		Workers:       1,
	}
}

// Validate checks every field.
func (o Options) Validate() error {
	if err := o.Classifier.Validate(); err != nil {
		return fmt.Errorf("classifier thresholds: %w", err)
	}
	if err := o.Quality.Validate(); err != nil {
		return fmt.Errorf("quality thresholds: %w", err)
	}
	if _, err := ParseOutlierMethod(string(o.OutlierMethod)); err != nil {
		return err
	}
	if o.ZThreshold <= 0 {
		return newError(ErrInvalidArgument, "", "z threshold must be positive, got %g", o.ZThreshold)
	}
	return nil
}
