package config

import (
	"fmt"
	"mvnsrc-cli/internal/domain"
	"os"
	"path/filepath"
	"strings"
)

const centralID = "central"

var centralRepository = domain.RemoteRepository{
	ID:   centralID,
	URL:  "https://repo1.maven.org/maven2/",
	Name: "Maven Central Repository",
}

var commonRepositories = []domain.RemoteRepository{
	{ID: "spring-releases", URL: "https://repo.spring.io/release/", Name: "Spring Releases"},
	{ID: "spring-milestones", URL: "https://repo.spring.io/milestone/", Name: "Spring Milestones"},
}

// DefaultLocalRepository is ~/.m2/repository.
func DefaultLocalRepository() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".m2", "repository")
	}
	return filepath.Join(home, ".m2", "repository")
}

// ResolveRepositoryConfig merges the application config (file and environment)
// over the Maven settings document. The application config wins on conflict.
func ResolveRepositoryConfig(cfg *Config, settings *Settings) domain.RepositoryConfig {
	local := cfg.Repository.Local
	if local == "" {
		local = settings.LocalRepository
	}
	if local == "" {
		local = DefaultLocalRepository()
	}

	repos := make([]domain.RemoteRepository, 0, len(cfg.Repository.Remotes)+len(settings.Repositories)+3)
	for i, url := range cfg.Repository.Remotes {
		repos = append(repos, domain.RemoteRepository{
			ID:   fmt.Sprintf("env-repo-%d", i),
			URL:  url,
			Name: fmt.Sprintf("Environment Repository %d", i+1),
		})
	}
	repos = append(repos, settings.Repositories...)

	mirrors := make(map[string]string, len(settings.Mirrors)+1)
	for of, url := range settings.Mirrors {
		mirrors[of] = url
	}
	if cfg.Repository.Mirror != "" {
		mirrors[centralID] = cfg.Repository.Mirror
	}

	return domain.RepositoryConfig{
		LocalRepository: expandHome(local),
		Repositories:    EnsureDefaultRepositories(repos),
		Mirrors:         mirrors,
	}
}

// EnsureDefaultRepositories puts central first when no repository points at it
// and appends the Spring repositories when their ids are absent.
func EnsureDefaultRepositories(repos []domain.RemoteRepository) []domain.RemoteRepository {
	hasCentral := false
	for _, repo := range repos {
		if repo.ID == centralID || strings.Contains(repo.URL, "repo1.maven.org") {
			hasCentral = true
			break
		}
	}

	result := make([]domain.RemoteRepository, 0, len(repos)+3)
	if !hasCentral {
		result = append(result, centralRepository)
	}
	result = append(result, repos...)

	for _, common := range commonRepositories {
		found := false
		for _, repo := range result {
			if repo.ID == common.ID {
				found = true
				break
			}
		}
		if !found {
			result = append(result, common)
		}
	}
	return result
}
