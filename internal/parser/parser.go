package parser

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"mvnsrc-cli/internal/domain"
	"os"
	"strings"

	"golang.org/x/net/html/charset"
)

const (
	defaultScope   = "compile"
	compilerPlugin = "maven-compiler-plugin"
)

// pomProject is the subset of a project descriptor the parser reads
type pomProject struct {
	GroupID      string          `xml:"groupId"`
	ArtifactID   string          `xml:"artifactId"`
	Version      string          `xml:"version"`
	Parent       pomParent       `xml:"parent"`
	Properties   pomProperties   `xml:"properties"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
	Plugins      []pomPlugin     `xml:"build>plugins>plugin"`
}

type pomParent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type pomProperties struct {
	Entries []pomProperty `xml:",any"`
}

type pomProperty struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
}

type pomPlugin struct {
	GroupID       string          `xml:"groupId"`
	ArtifactID    string          `xml:"artifactId"`
	Configuration pomCompilerConf `xml:"configuration"`
}

type pomCompilerConf struct {
	Source  string `xml:"source"`
	Target  string `xml:"target"`
	Release string `xml:"release"`
}

// Parser reads project descriptors
type Parser struct{}

// NewParser creates a new project descriptor parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseProject reads and parses the descriptor at path
func (p *Parser) ParseProject(ctx context.Context, path string) (*domain.ProjectInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project descriptor %s: %w", path, err)
	}

	info, err := p.Parse(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse project descriptor %s: %w", path, err)
	}
	return info, nil
}

// Parse extracts the declared Java version and non-test dependencies.
// Dependency versions of the form ${name} are resolved from properties, then
// from the parent version. Dependencies whose version stays unresolved are dropped.
func (p *Parser) Parse(ctx context.Context, data []byte) (*domain.ProjectInfo, error) {
	var project pomProject
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = charset.NewReaderLabel
	if err := decoder.Decode(&project); err != nil {
		return nil, fmt.Errorf("failed to decode XML: %w", err)
	}

	props := project.properties()
	info := &domain.ProjectInfo{
		JavaVersion:   firstNonEmpty(props["java.version"], props["maven.compiler.release"], props["maven.compiler.source"], props["maven.compiler.target"]),
		SourceVersion: props["maven.compiler.source"],
		TargetVersion: props["maven.compiler.target"],
		Dependencies:  []domain.ProjectDependency{},
	}

	for _, plugin := range project.Plugins {
		if plugin.ArtifactID != compilerPlugin {
			continue
		}
		conf := plugin.Configuration
		if v := resolve(conf.Source, props); v != "" {
			info.SourceVersion = v
		}
		if v := resolve(conf.Target, props); v != "" {
			info.TargetVersion = v
		}
		if v := resolve(conf.Release, props); v != "" {
			info.JavaVersion = v
			info.SourceVersion = v
			info.TargetVersion = v
		}
	}

	parentVersion := strings.TrimSpace(project.Parent.Version)
	for _, dep := range project.Dependencies {
		scope := strings.TrimSpace(dep.Scope)
		if scope == "" {
			scope = defaultScope
		}
		if scope == "test" {
			continue
		}

		version := p.resolveVersion(strings.TrimSpace(dep.Version), props, parentVersion)
		groupID := strings.TrimSpace(dep.GroupID)
		artifactID := strings.TrimSpace(dep.ArtifactID)
		if groupID == "" || artifactID == "" || version == "" || strings.Contains(version, "${") {
			continue
		}

		info.Dependencies = append(info.Dependencies, domain.ProjectDependency{
			Coordinate: domain.Coordinate{GroupID: groupID, ArtifactID: artifactID, Version: version},
			Scope:      scope,
		})
	}

	return info, nil
}

func (p *Parser) resolveVersion(version string, props map[string]string, parentVersion string) string {
	if name, ok := placeholder(version); ok {
		if v, found := props[name]; found && v != "" {
			version = v
		} else if strings.HasSuffix(name, ".version") && parentVersion != "" {
			version = parentVersion
		}
	}
	if version == "" || strings.Contains(version, "${") {
		version = parentVersion
	}
	return version
}

// properties returns declared properties plus the project coordinates
func (p *pomProject) properties() map[string]string {
	props := make(map[string]string, len(p.Properties.Entries)+2)
	if v := strings.TrimSpace(p.Version); v != "" {
		props["project.version"] = v
	} else if v := strings.TrimSpace(p.Parent.Version); v != "" {
		props["project.version"] = v
	}
	if v := strings.TrimSpace(p.Parent.Version); v != "" {
		props["project.parent.version"] = v
	}
	for _, entry := range p.Properties.Entries {
		props[entry.XMLName.Local] = strings.TrimSpace(entry.Value)
	}
	return props
}

func placeholder(value string) (string, bool) {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		return value[2 : len(value)-1], true
	}
	return "", false
}

func resolve(value string, props map[string]string) string {
	value = strings.TrimSpace(value)
	if name, ok := placeholder(value); ok {
		return props[name]
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
