package config

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"mvnsrc-cli/internal/domain"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// Settings is the subset of a Maven settings document the tool reads.
type Settings struct {
	Path            string
	LocalRepository string
	Repositories    []domain.RemoteRepository
	Mirrors         map[string]string
}

type settingsXML struct {
	LocalRepository string `xml:"localRepository"`
	Profiles        []struct {
		ID           string `xml:"id"`
		Repositories []struct {
			ID   string `xml:"id"`
			Name string `xml:"name"`
			URL  string `xml:"url"`
		} `xml:"repositories>repository"`
	} `xml:"profiles>profile"`
	Mirrors []struct {
		ID       string `xml:"id"`
		URL      string `xml:"url"`
		MirrorOf string `xml:"mirrorOf"`
	} `xml:"mirrors>mirror"`
}

// DefaultSettingsPaths lists settings documents in lookup order: the user file,
// then the installation directories named by M2_HOME and MAVEN_HOME, then common
// system locations.
func DefaultSettingsPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".m2", "settings.xml"))
	}
	for _, env := range []string{"M2_HOME", "MAVEN_HOME"} {
		if dir := os.Getenv(env); dir != "" {
			paths = append(paths, filepath.Join(dir, "conf", "settings.xml"))
		}
	}
	return append(paths,
		"/usr/share/maven/conf/settings.xml",
		"/opt/maven/conf/settings.xml",
	)
}

// ParseSettings decodes a settings document. Repositories come from every
// profile; mirrors are keyed by their mirrorOf value.
func ParseSettings(data []byte) (*Settings, error) {
	var doc settingsXML
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = charset.NewReaderLabel
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	settings := &Settings{
		LocalRepository: expandHome(strings.TrimSpace(doc.LocalRepository)),
		Repositories:    []domain.RemoteRepository{},
		Mirrors:         map[string]string{},
	}

	for _, profile := range doc.Profiles {
		for _, repo := range profile.Repositories {
			id, url := strings.TrimSpace(repo.ID), strings.TrimSpace(repo.URL)
			if id == "" || url == "" {
				continue
			}
			name := strings.TrimSpace(repo.Name)
			if name == "" {
				name = id
			}
			settings.Repositories = append(settings.Repositories, domain.RemoteRepository{ID: id, URL: url, Name: name})
		}
	}

	for _, mirror := range doc.Mirrors {
		id, url, of := strings.TrimSpace(mirror.ID), strings.TrimSpace(mirror.URL), strings.TrimSpace(mirror.MirrorOf)
		if id == "" || url == "" || of == "" {
			continue
		}
		settings.Mirrors[of] = url
	}

	return settings, nil
}

// LoadSettings parses the first existing file in paths. A missing or malformed
// document yields empty settings; parse failures are logged.
func LoadSettings(paths []string, logger *zap.Logger) *Settings {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}

		data, err := os.ReadFile(path)
		if err == nil {
			var settings *Settings
			settings, err = ParseSettings(data)
			if err == nil {
				settings.Path = path
				logger.Debug("Loaded Maven settings",
					zap.String("path", path),
					zap.Int("repository_count", len(settings.Repositories)),
					zap.Int("mirror_count", len(settings.Mirrors)))
				return settings
			}
		}

		logger.Warn("Failed to read Maven settings, ignoring", zap.String("path", path), zap.Error(err))
		break
	}

	return &Settings{Repositories: []domain.RemoteRepository{}, Mirrors: map[string]string{}}
}

// expandHome resolves "~" and "${user.home}" against the current user's home directory
func expandHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || path == "" {
		return path
	}
	path = strings.ReplaceAll(path, "${user.home}", home)
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
