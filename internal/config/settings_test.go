package config_test

import (
	"mvnsrc-cli/internal/config"
	"mvnsrc-cli/internal/domain"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleSettings = `<?xml version="1.0" encoding="UTF-8"?>
<settings xmlns="http://maven.apache.org/SETTINGS/1.0.0">
  <localRepository>/srv/maven/repository</localRepository>
  <mirrors>
    <mirror>
      <id>corp</id>
      <mirrorOf>central</mirrorOf>
      <url>https://nexus.corp.example/maven2</url>
    </mirror>
    <mirror>
      <id>incomplete</id>
      <url>https://nowhere.example</url>
    </mirror>
  </mirrors>
  <profiles>
    <profile>
      <id>corp</id>
      <repositories>
        <repository>
          <id>corp-releases</id>
          <name>Corp Releases</name>
          <url>https://nexus.corp.example/releases</url>
        </repository>
        <repository>
          <id>corp-snapshots</id>
          <url>https://nexus.corp.example/snapshots</url>
        </repository>
      </repositories>
    </profile>
  </profiles>
</settings>`

func TestParseSettings(t *testing.T) {
	t.Parallel()

	settings, err := config.ParseSettings([]byte(sampleSettings))
	require.NoError(t, err)

	assert.Equal(t, "/srv/maven/repository", settings.LocalRepository)
	assert.Equal(t, []domain.RemoteRepository{
		{ID: "corp-releases", URL: "https://nexus.corp.example/releases", Name: "Corp Releases"},
		{ID: "corp-snapshots", URL: "https://nexus.corp.example/snapshots", Name: "corp-snapshots"},
	}, settings.Repositories)
	assert.Equal(t, map[string]string{"central": "https://nexus.corp.example/maven2"}, settings.Mirrors)
}

func TestLoadSettings_FirstExistingFileWins(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	first := filepath.Join(dir, "user-settings.xml")
	second := filepath.Join(dir, "global-settings.xml")
	require.NoError(t, os.WriteFile(first, []byte(sampleSettings), 0o600))
	require.NoError(t, os.WriteFile(second, []byte(`<settings><localRepository>/other</localRepository></settings>`), 0o600))

	settings := config.LoadSettings([]string{filepath.Join(dir, "missing.xml"), first, second}, zap.NewNop())
	assert.Equal(t, first, settings.Path)
	assert.Equal(t, "/srv/maven/repository", settings.LocalRepository)
}

func TestLoadSettings_MalformedIsEmpty(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "settings.xml")
	require.NoError(t, os.WriteFile(path, []byte("<settings><mirrors>"), 0o600))

	settings := config.LoadSettings([]string{path}, zap.NewNop())
	assert.Empty(t, settings.LocalRepository)
	assert.Empty(t, settings.Repositories)
	assert.NotNil(t, settings.Mirrors)
}

func TestResolveRepositoryConfig(t *testing.T) {
	t.Parallel()

	settings, err := config.ParseSettings([]byte(sampleSettings))
	require.NoError(t, err)

	cfg := &config.Config{Repository: config.RepositorySettings{
		Remotes: []string{"https://env.example/maven"},
		Mirror:  "https://env-mirror.example/maven2",
	}}

	resolved := config.ResolveRepositoryConfig(cfg, settings)

	assert.Equal(t, "/srv/maven/repository", resolved.LocalRepository)
	assert.Equal(t, "https://env-mirror.example/maven2", resolved.Mirrors["central"], "environment mirror wins")

	ids := make([]string, 0, len(resolved.Repositories))
	for _, r := range resolved.Repositories {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"central", "env-repo-0", "corp-releases", "corp-snapshots", "spring-releases", "spring-milestones"}, ids)
	assert.Equal(t, "Environment Repository 1", resolved.Repositories[1].Name)
}

func TestResolveRepositoryConfig_LocalPrecedence(t *testing.T) {
	t.Parallel()

	settings := &config.Settings{LocalRepository: "/from/settings", Mirrors: map[string]string{}}
	resolved := config.ResolveRepositoryConfig(&config.Config{Repository: config.RepositorySettings{Local: "/from/env"}}, settings)
	assert.Equal(t, "/from/env", resolved.LocalRepository)

	resolved = config.ResolveRepositoryConfig(&config.Config{}, &config.Settings{Mirrors: map[string]string{}})
	assert.Equal(t, config.DefaultLocalRepository(), resolved.LocalRepository)
}

func TestEnsureDefaultRepositories(t *testing.T) {
	t.Parallel()

	repos := config.EnsureDefaultRepositories([]domain.RemoteRepository{
		{ID: "mirror-of-central", URL: "https://repo1.maven.org/maven2/"},
		{ID: "spring-releases", URL: "https://internal/spring"},
	})

	require.Len(t, repos, 3)
	assert.Equal(t, "mirror-of-central", repos[0].ID, "central is not added when its URL is present")
	assert.Equal(t, "https://internal/spring", repos[1].URL)
	assert.Equal(t, "spring-milestones", repos[2].ID)
}
