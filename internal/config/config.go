package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tellerj/ollama-stack-sub001/internal/platform"
)

const (
	envConfigDir = "OLLAMA_STACK_CONFIG_DIR"
	envPlatform  = "OLLAMA_STACK_PLATFORM"

	configFileName = "config.yaml"
	envFileName    = ".env"

	// CurrentVersion is the stack version written into fresh configurations
	// and compared by migrate.
	CurrentVersion = "0.3.0"
)

// Extension is an optional compose project layered on top of the core stack.
type Extension struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
}

// Config is the resolved stack configuration for one invocation. It is
// read-only for the orchestrator except through the install/migrate
// write-back path (Save).
type Config struct {
	Version     string                       `yaml:"version"`
	ProjectName string                       `yaml:"project_name"`
	Platform    platform.Platform            `yaml:"platform,omitempty"`
	Services    []platform.ServiceDefinition `yaml:"services"`
	Extensions  []Extension                  `yaml:"extensions,omitempty"`
	BackupsDir  string                       `yaml:"backups_dir,omitempty"`

	// Dir is the configuration root the config was loaded from. Not
	// serialized; set by Load and New.
	Dir string `yaml:"-"`
}

// DefaultDir returns the configuration root directory, honoring the
// OLLAMA_STACK_CONFIG_DIR override.
func DefaultDir() string {
	if dir, ok := os.LookupEnv(envConfigDir); ok && strings.TrimSpace(dir) != "" {
		return strings.TrimSpace(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ollama-stack"
	}
	return filepath.Join(home, ".ollama-stack")
}

// Default returns a fresh configuration for the given platform with the core
// service set.
func Default(dir string, p platform.Platform) Config {
	return Config{
		Version:     CurrentVersion,
		ProjectName: "ollama-stack",
		Platform:    p,
		Services: []platform.ServiceDefinition{
			{
				Name:           "ollama",
				ComposeService: "ollama",
				HealthEndpoint: "http://localhost:11434",
				ProcessPattern: "ollama serve",
			},
			{Name: "webui", ComposeService: "webui"},
			{Name: "mcp_proxy", ComposeService: "mcp_proxy"},
		},
		BackupsDir: filepath.Join(dir, "backups"),
		Dir:        dir,
	}
}

// Exists reports whether a configuration file is present under dir.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, configFileName))
	return err == nil
}

// Load reads the configuration file and the sibling .env file from dir.
// Values already present in the environment take precedence over .env.
// A platform stored in the configuration overrides live detection for
// reproducibility; the OLLAMA_STACK_PLATFORM variable overrides both.
func Load(dir string) (Config, error) {
	if err := loadDotEnvIfPresent(filepath.Join(dir, envFileName)); err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(filepath.Join(dir, configFileName))
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.Dir = dir

	if value, ok := os.LookupEnv(envPlatform); ok && strings.TrimSpace(value) != "" {
		cfg.Platform = platform.Platform(strings.TrimSpace(value))
	}
	if cfg.Platform == "" {
		cfg.Platform = platform.Detect()
	}
	if cfg.ProjectName == "" {
		cfg.ProjectName = "ollama-stack"
	}
	if cfg.BackupsDir == "" {
		cfg.BackupsDir = filepath.Join(dir, "backups")
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the configuration file atomically under cfg.Dir, creating the
// directory if needed.
func Save(cfg Config) error {
	if cfg.Dir == "" {
		return errors.New("config dir is empty")
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	path := filepath.Join(cfg.Dir, configFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// EnvFilePath returns the path of the secrets .env file under dir.
func EnvFilePath(dir string) string {
	return filepath.Join(dir, envFileName)
}

// ComposePath resolves a compose overlay file name against the config dir.
func (c Config) ComposePath(name string) string {
	return filepath.Join(c.Dir, name)
}

// ServiceOrder returns the configured service names in declaration order.
func (c Config) ServiceOrder() []string {
	names := make([]string, 0, len(c.Services))
	for _, svc := range c.Services {
		names = append(names, svc.Name)
	}
	return names
}

// EnabledExtensions returns the names of enabled extensions in config order.
func (c Config) EnabledExtensions() []string {
	names := make([]string, 0, len(c.Extensions))
	for _, ext := range c.Extensions {
		if ext.Enabled {
			names = append(names, ext.Name)
		}
	}
	return names
}

func (c Config) validate() error {
	if c.Version == "" {
		return errors.New("config version is required")
	}
	if !c.Platform.Valid() {
		return fmt.Errorf("invalid platform %q", c.Platform)
	}
	seen := make(map[string]bool, len(c.Services))
	for _, svc := range c.Services {
		if svc.Name == "" {
			return errors.New("service name is required")
		}
		if seen[svc.Name] {
			return fmt.Errorf("duplicate service %q", svc.Name)
		}
		seen[svc.Name] = true
	}
	if len(c.Services) == 0 {
		return errors.New("config declares no services")
	}
	return nil
}

func loadDotEnvIfPresent(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return nil
	}

	return err
}
