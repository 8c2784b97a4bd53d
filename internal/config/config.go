package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard-library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// RepoRef identifies a definition or template repository.
type RepoRef struct {
	URL    string `yaml:"url"`
	Branch string `yaml:"branch"`
}

// Config holds everything the engine consumes as plain inputs: the two
// repository references, cache settings and matching tunables.
type Config struct {
	DefinitionRepo RepoRef  `yaml:"definition_repo"`
	TemplateRepo   RepoRef  `yaml:"template_repo"`
	CacheDir       string   `yaml:"cache_dir"`
	Staleness      Duration `yaml:"staleness"`
	FuzzyThreshold float64  `yaml:"fuzzy_threshold"`
	Workers        int      `yaml:"workers"`
	Projects       []string `yaml:"projects"`
}

// Load reads configuration from an optional YAML file, then applies
// environment overrides and defaults. An empty path skips the file and uses
// environment and defaults only.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.DefinitionRepo.URL, "JOBMAP_DEFINITION_URL")
	setString(&cfg.DefinitionRepo.Branch, "JOBMAP_DEFINITION_BRANCH")
	setString(&cfg.TemplateRepo.URL, "JOBMAP_TEMPLATE_URL")
	setString(&cfg.TemplateRepo.Branch, "JOBMAP_TEMPLATE_BRANCH")
	setString(&cfg.CacheDir, "JOBMAP_CACHE_DIR")

	if v := os.Getenv("JOBMAP_STALENESS"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Staleness = Duration(parsed)
		}
	}
	if v := os.Getenv("JOBMAP_FUZZY_THRESHOLD"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.FuzzyThreshold = parsed
		}
	}
	if v := os.Getenv("JOBMAP_WORKERS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Workers = parsed
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.DefinitionRepo.Branch == "" {
		cfg.DefinitionRepo.Branch = "master"
	}
	if cfg.TemplateRepo.Branch == "" {
		cfg.TemplateRepo.Branch = "master"
	}
	if cfg.CacheDir == "" {
		if base, err := os.UserCacheDir(); err == nil {
			cfg.CacheDir = filepath.Join(base, "jobmap")
		} else {
			cfg.CacheDir = ".jobmap-cache"
		}
	}
	if cfg.FuzzyThreshold <= 0 {
		cfg.FuzzyThreshold = 0.6
	}
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
