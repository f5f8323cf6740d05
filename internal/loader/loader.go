// Package loader turns files and database queries into datasets.
package loader

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/dataprobe/internal/dataset"
)

// Loader defines a dataset source for one family of file formats.
type Loader interface {
	CanLoad(filename string) bool
	Load(path string, opt Options) (*dataset.Dataset, error)
}

// Options controls parsing of tabular sources.
type Options struct {
	// Delimiter is the CSV field separator; 0 picks one from the extension.
	Delimiter rune
	// MissingValues are cell tokens read as missing.
	MissingValues []string
	// MaxRows caps the rows loaded; <= 0 loads everything.
	MaxRows int
	// Categorical names columns declared as categories.
	Categorical []string
	// DecimalSeparator and ThousandsSeparator steer locale-aware numeric
	// parsing; 0 auto-detects per cell.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// SheetName or 1-based SheetIndex selects the XLSX sheet.
	SheetName  string
	SheetIndex int
}

// DefaultMissingValues are the tokens treated as missing unless overridden.
var DefaultMissingValues = []string{"", "NA", "NaN", "null", "<nil>"}

// DefaultOptions returns options with the default missing tokens.
func DefaultOptions() Options {
	return Options{MissingValues: append([]string(nil), DefaultMissingValues...)}
}

func (o Options) isCategorical(name string) bool {
	for _, c := range o.Categorical {
		if c == name {
			return true
		}
	}
	return false
}

// ErrUnsupported indicates no registered loader accepts the file.
var ErrUnsupported = errors.New("unsupported data format")

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// LoadFile selects a loader by filename and reads the dataset.
func LoadFile(path string, opt Options) (*dataset.Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	for _, l := range registry {
		if l.CanLoad(path) {
			ds, err := l.Load(path, opt)
			if err != nil {
				return nil, err
			}
			slog.Debug("loaded dataset", "path", path, "rows", ds.Rows(), "columns", ds.Width())
			return ds, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}
