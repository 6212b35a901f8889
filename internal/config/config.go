package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Output formats accepted by output.format
var outputFormats = []string{"text", "json", "yaml", "csv"}

// Config represents the main configuration structure
type Config struct {
	Repository RepositorySettings `yaml:"repository" mapstructure:"repository"`
	Index      IndexConfig        `yaml:"index"      mapstructure:"index"`
	Cache      CacheConfig        `yaml:"cache"      mapstructure:"cache"`
	Tools      ToolsConfig        `yaml:"tools"      mapstructure:"tools"`
	Project    ProjectConfig      `yaml:"project"    mapstructure:"project"`
	Internal   InternalConfig     `yaml:"internal"   mapstructure:"internal"`
	Output     OutputConfig       `yaml:"output"     mapstructure:"output"`
	Logging    LoggingConfig      `yaml:"logging"    mapstructure:"logging"`
}

// RepositorySettings locates the local repository and lists remote ones
type RepositorySettings struct {
	Local         string   `yaml:"local"          mapstructure:"local"`
	Remotes       []string `yaml:"remotes"        mapstructure:"remotes"`
	Mirror        string   `yaml:"mirror"         mapstructure:"mirror"`
	SettingsFiles []string `yaml:"settings_files" mapstructure:"settings_files"`
}

// IndexConfig controls the repository walk
type IndexConfig struct {
	Exclude      []string `yaml:"exclude"       mapstructure:"exclude"`
	VersionOrder string   `yaml:"version_order" mapstructure:"version_order"`
}

// CacheConfig controls the structure cache
type CacheConfig struct {
	Capacity   int    `yaml:"capacity"   mapstructure:"capacity"`
	Persistent bool   `yaml:"persistent" mapstructure:"persistent"`
	Path       string `yaml:"path"       mapstructure:"path"`
}

// ToolsConfig locates the external decompiler and disassembler
type ToolsConfig struct {
	Java           string `yaml:"java"            mapstructure:"java"`
	DecompilerJar  string `yaml:"decompiler_jar"  mapstructure:"decompiler_jar"`
	Disassembler   string `yaml:"disassembler"    mapstructure:"disassembler"`
	ScratchDir     string `yaml:"scratch_dir"     mapstructure:"scratch_dir"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// ProjectConfig points at the project descriptor of the current build
type ProjectConfig struct {
	POM string `yaml:"pom" mapstructure:"pom"`
}

// InternalConfig represents internal group classification settings
type InternalConfig struct {
	Patterns []string `yaml:"patterns" mapstructure:"patterns"`
}

// OutputConfig represents output settings
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
}

// LoggingConfig represents logging settings
type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// LoadOption adjusts the viper instance before the config is read
type LoadOption func(*viper.Viper) error

// WithFlags binds command-line flags to config keys. A flag overrides the file
// and the environment only when it was set explicitly.
func WithFlags(bindings map[string]*pflag.Flag) LoadOption {
	return func(v *viper.Viper) error {
		for key, flag := range bindings {
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
			}
		}
		return nil
	}
}

// LoadConfig loads configuration from an optional file, environment variables
// and bound flags. An empty path uses defaults and environment only.
func LoadConfig(configPath string, opts ...LoadOption) (*Config, error) {
	// Create a new Viper instance to avoid data races in concurrent tests
	v := viper.New()

	// Set default values
	setDefaultValues(v)

	// Enable reading from environment variables
	v.SetEnvPrefix("MVNSRC")
	v.AutomaticEnv()

	// Set environment variable key replacer for nested config
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind the conventional repository variables
	_ = v.BindEnv("repository.local", "MAVEN_REPOSITORY", "M2_REPO")
	_ = v.BindEnv("repository.remotes", "MAVEN_REPOSITORIES")
	_ = v.BindEnv("repository.mirror", "MAVEN_MIRROR_URL")

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configPath)
		}

		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Repository.Remotes = splitList(config.Repository.Remotes)

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaultValues sets default configuration values
func setDefaultValues(v *viper.Viper) {
	// Repository defaults
	v.SetDefault("repository.local", "")
	v.SetDefault("repository.remotes", []string{})
	v.SetDefault("repository.mirror", "")
	v.SetDefault("repository.settings_files", DefaultSettingsPaths())

	// Index defaults
	v.SetDefault("index.exclude", []string{})
	v.SetDefault("index.version_order", "lexicographic")

	// Cache defaults
	v.SetDefault("cache.capacity", 1024)
	v.SetDefault("cache.persistent", true)
	v.SetDefault("cache.path", "")

	// Tool defaults
	v.SetDefault("tools.java", "java")
	v.SetDefault("tools.decompiler_jar", "tools/cfr.jar")
	v.SetDefault("tools.disassembler", "javap")
	v.SetDefault("tools.scratch_dir", "")
	v.SetDefault("tools.timeout_seconds", 30)

	v.SetDefault("project.pom", "pom.xml")

	// Internal classification defaults
	v.SetDefault("internal.patterns", []string{})

	v.SetDefault("output.format", "text")

	// Logging defaults
	v.SetDefault("logging.level", "info")
}

// validateConfig validates the configuration
func validateConfig(config Config) error {
	if !contains(outputFormats, config.Output.Format) {
		return fmt.Errorf("output.format must be one of %s", strings.Join(outputFormats, ", "))
	}

	switch strings.ToLower(config.Index.VersionOrder) {
	case "", "lexicographic", "semantic":
	default:
		return fmt.Errorf("index.version_order must be lexicographic or semantic, got %q", config.Index.VersionOrder)
	}

	if config.Cache.Capacity < 0 {
		return fmt.Errorf("cache.capacity must not be negative")
	}

	if config.Tools.TimeoutSeconds < 0 {
		return fmt.Errorf("tools.timeout_seconds must not be negative")
	}

	return nil
}

// splitList flattens comma-separated entries and drops blanks
func splitList(values []string) []string {
	result := []string{}
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
