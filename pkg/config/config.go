// Package config loads the CLI configuration from flags, AGENTS_* environment
// variables and an optional config.yaml.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/spec"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/telemetry"
)

const (
	// EnvPrefix prefixes every environment variable read by the CLI.
	EnvPrefix = "AGENTS"
	// FileName is the config file name, without extension.
	FileName = "config"
)

// Config is the decoded CLI configuration.
type Config struct {
	AgentsDir    string           `mapstructure:"agents_dir"`
	RecipesDir   string           `mapstructure:"recipes_dir"`
	SchemasDir   string           `mapstructure:"schemas_dir"`
	TemplatesDir string           `mapstructure:"templates_dir"`
	OutputDir    string           `mapstructure:"output_dir"`
	InstallDir   string           `mapstructure:"install_dir"`
	LogLevel     string           `mapstructure:"log_level"`
	LogFormat    string           `mapstructure:"log_format"`
	Exclude      []string         `mapstructure:"exclude"`
	Tracing      telemetry.Config `mapstructure:"tracing"`
}

// NewConfig returns the default configuration.
func NewConfig() Config {
	return Config{
		AgentsDir:  "agents",
		RecipesDir: "recipes",
		OutputDir:  "generated",
		InstallDir: "~/.claude/agents",
		LogLevel:   "warn",
		LogFormat:  "text",
		Exclude:    append([]string(nil), spec.DefaultExcludes...),
		Tracing:    telemetry.NewConfig(),
	}
}

// Init sets defaults, environment binding and config file lookup on v, then
// reads the config file if one exists. Without paths the file is looked up
// in $HOME/.agents and the working directory.
func Init(v *viper.Viper, paths ...string) error {
	defaults := NewConfig()
	v.SetDefault("agents_dir", defaults.AgentsDir)
	v.SetDefault("recipes_dir", defaults.RecipesDir)
	v.SetDefault("schemas_dir", defaults.SchemasDir)
	v.SetDefault("templates_dir", defaults.TemplatesDir)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("install_dir", defaults.InstallDir)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("exclude", defaults.Exclude)
	v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	v.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)
	v.SetDefault("tracing.sampler_type", defaults.Tracing.SamplerType)
	v.SetDefault("tracing.sampler_ratio", defaults.Tracing.SamplerRatio)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"$HOME/.agents", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "failed to read config file")
	}
	return nil
}

// Load decodes the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	cfg := NewConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "failed to unmarshal configuration")
	}

	installDir, err := ExpandHome(cfg.InstallDir)
	if err != nil {
		return cfg, err
	}
	cfg.InstallDir = installDir

	return cfg, nil
}

// DiscoverOptions returns discovery options honouring the exclude list.
func (c Config) DiscoverOptions() spec.DiscoverOptions {
	opts := spec.NewDiscoverOptions()
	opts.Exclude = c.Exclude
	return opts
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
