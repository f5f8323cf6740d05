package report

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/dataprobe/internal/utils"
)

// Renderer writes a profile in one output format.
type Renderer interface {
	Render(w io.Writer, p *Profile) error
	// Extension is the file suffix used when writing reports to disk.
	Extension() string
}

// Formats lists the canonical format names accepted by ForFormat.
var Formats = []string{"markdown", "console", "json", "yaml"}

// ForFormat returns the renderer for a format name or alias.
func ForFormat(name string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "markdown", "md":
		return Markdown{}, nil
	case "console", "text", "":
		return Console{}, nil
	case "json":
		return JSON{}, nil
	case "yaml", "yml":
		return YAML{}, nil
	}
	return nil, fmt.Errorf("unknown format %q (use one of %s)", name, strings.Join(Formats, ", "))
}

// JSON renders the profile as indented JSON.
type JSON struct{}

func (JSON) Extension() string { return ".json" }

func (JSON) Render(w io.Writer, p *Profile) error {
	b, err := utils.PrettyJSON(p)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// YAML renders the profile as a YAML document.
type YAML struct{}

func (YAML) Extension() string { return ".yaml" }

func (YAML) Render(w io.Writer, p *Profile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	return enc.Close()
}
