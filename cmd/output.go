package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// writeStructured encodes v as JSON or YAML. It reports false for text
// output, which each command renders itself.
func writeStructured(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case outputText, "":
		return false, nil
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return true, fmt.Errorf("unknown output format %q (want %s, %s or %s)", format, outputText, outputJSON, outputYAML)
}
