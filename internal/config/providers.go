package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed providers_default.yaml
var defaultProvidersYAML []byte

// ProviderDefaults holds the default base URL and model for a provider.
type ProviderDefaults struct {
	BaseURL      string `yaml:"base_url"`
	DefaultModel string `yaml:"default_model"`
}

// LoadProviderDefaults parses the embedded defaults and merges the file at
// overridePath over them, field by field. An empty path skips the override.
func LoadProviderDefaults(overridePath string) (map[string]ProviderDefaults, error) {
	defs := make(map[string]ProviderDefaults)
	if err := yaml.Unmarshal(defaultProvidersYAML, &defs); err != nil {
		return nil, fmt.Errorf("parse embedded provider defaults: %w", err)
	}

	if overridePath == "" {
		return defs, nil
	}

	data, err := os.ReadFile(overridePath)
	if err != nil {
		return nil, fmt.Errorf("read provider defaults: %w", err)
	}

	userDefs := make(map[string]ProviderDefaults)
	if err := yaml.Unmarshal(data, &userDefs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", overridePath, err)
	}
	for name, ud := range userDefs {
		d := defs[name]
		if ud.BaseURL != "" {
			d.BaseURL = ud.BaseURL
		}
		if ud.DefaultModel != "" {
			d.DefaultModel = ud.DefaultModel
		}
		defs[name] = d
	}
	return defs, nil
}
