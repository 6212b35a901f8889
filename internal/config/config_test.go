package config_test

import (
	"mvnsrc-cli/internal/config"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearConfigEnvVars blanks environment variables that might interfere with config tests
func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		"MAVEN_REPOSITORY",
		"M2_REPO",
		"MAVEN_REPOSITORIES",
		"MAVEN_MIRROR_URL",
		"MVNSRC_OUTPUT_FORMAT",
		"MVNSRC_TOOLS_TIMEOUT_SECONDS",
		"MVNSRC_LOGGING_LEVEL",
	}
	for _, envVar := range envVars {
		t.Setenv(envVar, "")
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mvnsrc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

//nolint:paralleltest // Cannot use t.Parallel() with t.Setenv()
func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnvVars(t)

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Empty(t, cfg.Repository.Local)
	assert.Empty(t, cfg.Repository.Remotes)
	assert.NotEmpty(t, cfg.Repository.SettingsFiles)
	assert.Equal(t, "lexicographic", cfg.Index.VersionOrder)
	assert.Equal(t, 1024, cfg.Cache.Capacity)
	assert.True(t, cfg.Cache.Persistent)
	assert.Equal(t, "java", cfg.Tools.Java)
	assert.Equal(t, "javap", cfg.Tools.Disassembler)
	assert.Equal(t, 30, cfg.Tools.TimeoutSeconds)
	assert.Equal(t, "pom.xml", cfg.Project.POM)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
}

//nolint:paralleltest // Cannot use t.Parallel() with t.Setenv()
func TestLoadConfig_ValidConfig(t *testing.T) {
	clearConfigEnvVars(t)

	configContent := `
repository:
  local: /data/m2
  remotes: ["https://nexus.company.com/repository/maven-public/"]
  settings_files: []

index:
  exclude: ["org/apache/**"]
  version_order: semantic

cache:
  capacity: 64
  persistent: false

tools:
  decompiler_jar: /opt/cfr/cfr.jar
  timeout_seconds: 10

internal:
  patterns: ["com.company."]

output:
  format: json
`

	cfg, err := config.LoadConfig(createTempConfigFile(t, configContent))
	require.NoError(t, err)

	assert.Equal(t, "/data/m2", cfg.Repository.Local)
	assert.Equal(t, []string{"https://nexus.company.com/repository/maven-public/"}, cfg.Repository.Remotes)
	assert.Empty(t, cfg.Repository.SettingsFiles)
	assert.Equal(t, []string{"org/apache/**"}, cfg.Index.Exclude)
	assert.Equal(t, "semantic", cfg.Index.VersionOrder)
	assert.Equal(t, 64, cfg.Cache.Capacity)
	assert.False(t, cfg.Cache.Persistent)
	assert.Equal(t, "/opt/cfr/cfr.jar", cfg.Tools.DecompilerJar)
	assert.Equal(t, 10, cfg.Tools.TimeoutSeconds)
	assert.Equal(t, []string{"com.company."}, cfg.Internal.Patterns)
	assert.Equal(t, "json", cfg.Output.Format)
}

//nolint:paralleltest // Cannot use t.Parallel() with t.Setenv()
func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	clearConfigEnvVars(t)
	t.Setenv("M2_REPO", "/env/m2")
	t.Setenv("MAVEN_REPOSITORIES", "https://a.example.com/maven, https://b.example.com/maven")
	t.Setenv("MAVEN_MIRROR_URL", "https://mirror.example.com/maven2")
	t.Setenv("MVNSRC_OUTPUT_FORMAT", "yaml")

	cfg, err := config.LoadConfig(createTempConfigFile(t, "repository:\n  local: /file/m2\n"))
	require.NoError(t, err)

	assert.Equal(t, "/env/m2", cfg.Repository.Local)
	assert.Equal(t, []string{"https://a.example.com/maven", "https://b.example.com/maven"}, cfg.Repository.Remotes)
	assert.Equal(t, "https://mirror.example.com/maven2", cfg.Repository.Mirror)
	assert.Equal(t, "yaml", cfg.Output.Format)
}

//nolint:paralleltest // Cannot use t.Parallel() with t.Setenv()
func TestLoadConfig_MavenRepositoryBeatsM2Repo(t *testing.T) {
	clearConfigEnvVars(t)
	t.Setenv("MAVEN_REPOSITORY", "/primary")
	t.Setenv("M2_REPO", "/secondary")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/primary", cfg.Repository.Local)
}

func TestLoadConfig_InvalidPath(t *testing.T) {
	t.Parallel()
	_, err := config.LoadConfig("nonexistent.yaml")
	require.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	t.Parallel()
	_, err := config.LoadConfig(createTempConfigFile(t, `invalid: yaml: content: [`))
	require.Error(t, err)
}

//nolint:paralleltest // Cannot use t.Parallel() with t.Setenv()
func TestLoadConfig_Validation(t *testing.T) {
	clearConfigEnvVars(t)

	tests := []struct {
		name    string
		content string
	}{
		{"unknown output format", "output:\n  format: html\n"},
		{"unknown version order", "index:\n  version_order: calendar\n"},
		{"negative capacity", "cache:\n  capacity: -1\n"},
		{"negative timeout", "tools:\n  timeout_seconds: -5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfig(createTempConfigFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config validation failed")
		})
	}
}

//nolint:paralleltest // Cannot use t.Parallel() with t.Setenv()
func TestLoadConfig_FlagsOverrideFileAndEnv(t *testing.T) {
	clearConfigEnvVars(t)
	t.Setenv("MVNSRC_OUTPUT_FORMAT", "yaml")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("format", "text", "")
	flags.Int("timeout", 0, "")
	require.NoError(t, flags.Parse([]string{"--format", "csv"}))

	path := createTempConfigFile(t, "tools:\n  timeout_seconds: 12\n")
	cfg, err := config.LoadConfig(path, config.WithFlags(map[string]*pflag.Flag{
		"output.format":         flags.Lookup("format"),
		"tools.timeout_seconds": flags.Lookup("timeout"),
		"logging.level":         nil,
	}))
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.Output.Format, "explicit flag wins")
	assert.Equal(t, 12, cfg.Tools.TimeoutSeconds, "unset flag leaves the file value")
}
