package seed

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var templateVar = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Loader reads a sources seed file.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load reads and parses the seed file. {{VAR}} placeholders are replaced
// with the value of the environment variable VAR.
func (l *Loader) Load() (File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return File{}, fmt.Errorf("failed to read sources file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(data []byte) (File, error) {
	data = expandTemplateVariables(data, os.Getenv)

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("failed to parse sources yaml: %w", err)
	}
	if len(f.Sources) == 0 {
		return File{}, fmt.Errorf("no sources found in seed")
	}
	return f, nil
}

func expandTemplateVariables(data []byte, lookup func(string) string) []byte {
	return templateVar.ReplaceAllFunc(data, func(m []byte) []byte {
		name := templateVar.FindSubmatch(m)[1]
		return []byte(lookup(string(name)))
	})
}
