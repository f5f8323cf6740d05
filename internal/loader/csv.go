package loader

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"github.com/KaramelBytes/dataprobe/internal/dataset"
)

type csvLoader struct{}

func (csvLoader) CanLoad(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvLoader) Load(path string, opt Options) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return ReadCSV(f, opt)
}

// ReadCSV parses delimited text with a header row. A zero Delimiter means ','.
func ReadCSV(r io.Reader, opt Options) (*dataset.Dataset, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = ','
	}
	lo := append(frameOptions(opt), dataframe.WithDelimiter(delim), dataframe.WithLazyQuotes(true))
	ds, err := fromFrame(dataframe.ReadCSV(r, lo...), opt)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return ds, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
