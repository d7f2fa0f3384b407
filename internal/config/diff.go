package config

import (
	"strings"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

// Serialize renders cfg in canonical YAML, so that two configs can be compared
// line by line regardless of how their source files were formatted.
func Serialize(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, nil
	}
	return yaml.Marshal(cfg)
}

// DiffSerialized returns a line diff between two serialized configurations, or ""
// when they are equal.
func DiffSerialized(previous, current []byte) string {
	return cmp.Diff(lines(previous), lines(current))
}

func lines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	text := strings.TrimSuffix(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	return strings.Split(text, "\n")
}
