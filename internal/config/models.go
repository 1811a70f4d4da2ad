package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelProvider identifies where a model's vectors come from.
type ModelProvider string

// ModelProvider values.
const (
	ModelProviderOpenAI ModelProvider = "openai"
	ModelProviderLocal  ModelProvider = "local"
)

// ModelSpec describes a single embedding model in the registry.
type ModelSpec struct {
	// Name is the model identifier clients submit jobs with.
	Name string `yaml:"name"`

	// Provider selects the backend (openai or local).
	Provider ModelProvider `yaml:"provider"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible servers).
	BaseURL string `yaml:"base_url,omitempty"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	// Path points at a local ONNX model directory (local provider).
	Path string `yaml:"path,omitempty"`

	// BatchSize overrides the texts-per-request batch size.
	BatchSize int `yaml:"batch_size,omitempty"`

	// Default marks the model used when a job omits model_name.
	Default bool `yaml:"default,omitempty"`
}

// APIKey resolves the model's API key from the environment.
func (s ModelSpec) APIKey() string {
	if s.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(s.APIKeyEnv)
}

// ModelRegistry maps model names to provider settings.
type ModelRegistry struct {
	models []ModelSpec
}

type modelRegistryFile struct {
	Models []ModelSpec `yaml:"models"`
}

// LoadModelRegistry reads a YAML model registry file.
func LoadModelRegistry(path string) (ModelRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ModelRegistry{}, fmt.Errorf("read model registry: %w", err)
	}
	return ParseModelRegistry(data)
}

// ParseModelRegistry parses YAML model registry content.
func ParseModelRegistry(data []byte) (ModelRegistry, error) {
	var file modelRegistryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return ModelRegistry{}, fmt.Errorf("parse model registry: %w", err)
	}

	seen := make(map[string]bool, len(file.Models))
	for _, m := range file.Models {
		if m.Name == "" {
			return ModelRegistry{}, fmt.Errorf("model registry: entry without name")
		}
		if seen[m.Name] {
			return ModelRegistry{}, fmt.Errorf("model registry: duplicate model %q", m.Name)
		}
		seen[m.Name] = true
		switch m.Provider {
		case ModelProviderOpenAI, ModelProviderLocal:
		default:
			return ModelRegistry{}, fmt.Errorf("model registry: model %q has unknown provider %q", m.Name, m.Provider)
		}
	}

	return ModelRegistry{models: file.Models}, nil
}

// NewModelRegistry creates a registry from specs directly.
func NewModelRegistry(specs ...ModelSpec) ModelRegistry {
	models := make([]ModelSpec, len(specs))
	copy(models, specs)
	return ModelRegistry{models: models}
}

// Lookup returns the spec for a model name.
func (r ModelRegistry) Lookup(name string) (ModelSpec, bool) {
	for _, m := range r.models {
		if m.Name == name {
			return m, true
		}
	}
	return ModelSpec{}, false
}

// Default returns the default model spec. It prefers the entry marked
// default and falls back to the first entry.
func (r ModelRegistry) Default() (ModelSpec, bool) {
	for _, m := range r.models {
		if m.Default {
			return m, true
		}
	}
	if len(r.models) > 0 {
		return r.models[0], true
	}
	return ModelSpec{}, false
}

// Names returns all registered model names in file order.
func (r ModelRegistry) Names() []string {
	names := make([]string, len(r.models))
	for i, m := range r.models {
		names[i] = m.Name
	}
	return names
}

// IsEmpty returns true when no models are registered.
func (r ModelRegistry) IsEmpty() bool {
	return len(r.models) == 0
}
