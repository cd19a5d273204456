package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/richinex/llmbridge/llm"
)

// File is the optional YAML configuration. Every field is optional; set
// fields override the environment.
type File struct {
	Provider    string                `yaml:"provider"`
	MaxTokens   int                   `yaml:"max_tokens"`
	Temperature *float64              `yaml:"temperature"`
	Providers   map[string]llm.Config `yaml:"providers"`
	Server      ServerFile            `yaml:"server"`
	Storage     StorageFile           `yaml:"storage"`
}

// ServerFile holds the server section of the YAML file.
type ServerFile struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// StorageFile holds the storage section of the YAML file.
type StorageFile struct {
	Path string `yaml:"path"`
}

// Load reads and parses a YAML config file at the given path.
// It returns an error if the file cannot be read or parsed.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	f := &File{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return f, nil
}

// LoadOrDefault loads config from the given path. If the file does not exist,
// it returns an empty File. Other errors (e.g. parse failures) are still returned.
func LoadOrDefault(path string) (*File, error) {
	f, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &File{}, nil
		}
		return nil, err
	}
	return f, nil
}

// Validate checks the file for invalid values and returns a descriptive
// error listing every problem found.
func (f *File) Validate() error {
	var errs []error

	if f.Provider != "" {
		if _, err := llm.ParseProviderType(f.Provider); err != nil {
			errs = append(errs, fmt.Errorf("provider: unknown provider %q", f.Provider))
		}
	}
	if f.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("max_tokens must be >= 0, got %d", f.MaxTokens))
	}
	if f.Temperature != nil && (*f.Temperature < 0 || *f.Temperature > 2) {
		errs = append(errs, fmt.Errorf("temperature must be in [0, 2], got %g", *f.Temperature))
	}
	if f.Server.ReadTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout must be >= 0, got %s", f.Server.ReadTimeout))
	}
	if f.Server.WriteTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.write_timeout must be >= 0, got %s", f.Server.WriteTimeout))
	}

	for name := range f.Providers {
		if _, err := llm.ParseProviderType(name); err != nil {
			errs = append(errs, fmt.Errorf("providers: unknown provider %q", name))
		}
	}

	return errors.Join(errs...)
}

// Resolve builds settings from the environment and then applies the YAML
// file at path, if it exists. A non-empty provider argument wins over both.
func Resolve(path, provider string) (Settings, error) {
	f := &File{}
	if path != "" {
		loaded, err := LoadOrDefault(path)
		if err != nil {
			return Settings{}, err
		}
		if err := loaded.Validate(); err != nil {
			return Settings{}, fmt.Errorf("invalid config file %s: %w", path, err)
		}
		f = loaded
	}

	if provider == "" {
		provider = f.Provider
	}
	settings, err := New(provider)
	if err != nil {
		return Settings{}, err
	}

	f.apply(&settings)
	return settings, nil
}

// apply overlays the file's set fields onto s.
func (f *File) apply(s *Settings) {
	if f.MaxTokens > 0 {
		s.LLM.MaxTokens = f.MaxTokens
	}
	if f.Temperature != nil {
		s.LLM.Temperature = *f.Temperature
	}
	if f.Server.Addr != "" {
		s.Server.Addr = f.Server.Addr
	}
	if f.Server.ReadTimeout > 0 {
		s.Server.ReadTimeout = f.Server.ReadTimeout
	}
	if f.Server.WriteTimeout > 0 {
		s.Server.WriteTimeout = f.Server.WriteTimeout
	}
	if f.Storage.Path != "" {
		s.Storage.Path = f.Storage.Path
	}

	for name, override := range f.Providers {
		pt, err := llm.ParseProviderType(name)
		if err != nil {
			continue
		}
		merged := mergeProviderConfig(s.Providers[pt], override)
		merged.Model = expandModel(pt, merged.Model)
		s.Providers[pt] = merged
	}
	s.LLM.Model = s.Providers[s.LLM.Provider].Model
}

func mergeProviderConfig(base, override llm.Config) llm.Config {
	if override.APIKey != "" {
		base.APIKey = override.APIKey
	}
	if override.AccessKeyID != "" {
		base.AccessKeyID = override.AccessKeyID
	}
	if override.SecretAccessKey != "" {
		base.SecretAccessKey = override.SecretAccessKey
	}
	if override.SessionToken != "" {
		base.SessionToken = override.SessionToken
	}
	if override.Region != "" {
		base.Region = override.Region
	}
	if override.Model != "" {
		base.Model = override.Model
	}
	if override.UseCrossRegionInference {
		base.UseCrossRegionInference = true
	}
	return base
}
