package domain

import (
	"fmt"
	"sort"
	"strings"
)

type RemoteRepository struct {
	ID   string `json:"id"   yaml:"id"`   // "central"
	URL  string `json:"url"  yaml:"url"`  // "https://repo1.maven.org/maven2/"
	Name string `json:"name" yaml:"name"` // "Maven Central Repository"
}

// RepositoryConfig is the resolved repository configuration. It is built once
// and never mutated afterwards.
type RepositoryConfig struct {
	LocalRepository string             `json:"local_repository" yaml:"local_repository"`
	Repositories    []RemoteRepository `json:"repositories"     yaml:"repositories"`
	Mirrors         map[string]string  `json:"mirrors"          yaml:"mirrors"`
}

type Coordinate struct {
	GroupID    string `json:"group_id"    yaml:"group_id"`    // "org.springframework"
	ArtifactID string `json:"artifact_id" yaml:"artifact_id"` // "spring-core"
	Version    string `json:"version"     yaml:"version"`     // "5.3.21"
}

// Key returns the cache key "group:artifact:version".
func (c Coordinate) Key() string {
	return fmt.Sprintf("%s:%s:%s", c.GroupID, c.ArtifactID, c.Version)
}

func (c Coordinate) String() string {
	return c.Key()
}

// Artifact is a probed coordinate. Recomputing an artifact replaces it.
type Artifact struct {
	Coordinate        `json:",inline"       yaml:",inline"`
	Available         bool   `json:"available"           yaml:"available"`
	HasSourceArchive  bool   `json:"has_source_archive"  yaml:"has_source_archive"`
	MainArchivePath   string `json:"main_archive_path"   yaml:"main_archive_path"`
	SourceArchivePath string `json:"source_archive_path" yaml:"source_archive_path,omitempty"`
	IsInternal        bool   `json:"is_internal"         yaml:"is_internal"`
}

type ArtifactVersions struct {
	Versions      []string `json:"versions"       yaml:"versions"`
	LatestVersion string   `json:"latest_version" yaml:"latest_version"`
}

type GroupTree struct {
	GroupID   string                      `json:"group_id"  yaml:"group_id"`
	Artifacts map[string]ArtifactVersions `json:"artifacts" yaml:"artifacts"`
}

// ArtifactIDs returns the artifact ids of the group in sorted order.
func (g GroupTree) ArtifactIDs() []string {
	ids := make([]string, 0, len(g.Artifacts))
	for id := range g.Artifacts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type RepositoryTree struct {
	Groups map[string]GroupTree `json:"groups" yaml:"groups"`
}

// GroupIDs returns the group ids of the tree in sorted order.
func (t RepositoryTree) GroupIDs() []string {
	ids := make([]string, 0, len(t.Groups))
	for id := range t.Groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type DependencyStructure struct {
	Coordinate      `json:",inline"   yaml:",inline"`
	JarFiles        []string `json:"jar_files"         yaml:"jar_files"`
	Classes         []string `json:"classes"           yaml:"classes"`
	Packages        []string `json:"packages"          yaml:"packages"`
	HasSource       bool     `json:"has_source"        yaml:"has_source"`
	SourcePath      string   `json:"source_path"       yaml:"source_path,omitempty"`
	MainArchivePath string   `json:"main_archive_path" yaml:"main_archive_path"`
}

type SourceType string

const (
	SourceTypeSourceArchive SourceType = "source-archive"
	SourceTypeDecompiled    SourceType = "decompiled"
)

type ClassSearchResult struct {
	ClassName     string     `json:"class_name"      yaml:"class_name"`      // "SpringVersion"
	PackageName   string     `json:"package_name"    yaml:"package_name"`    // "org.springframework.core"
	FullClassName string     `json:"full_class_name" yaml:"full_class_name"` // "org.springframework.core.SpringVersion"
	Artifact      Artifact   `json:"artifact"        yaml:"artifact"`
	SourceType    SourceType `json:"source_type"     yaml:"source_type"`
}

// DependencyMatch is a keyword hit against group or artifact ids.
type DependencyMatch struct {
	GroupID    string   `json:"group_id"    yaml:"group_id"`
	ArtifactID string   `json:"artifact_id" yaml:"artifact_id"`
	Versions   []string `json:"versions"    yaml:"versions"`
}

type Provenance string

const (
	ProvenanceSourceArchive    Provenance = "source-archive"
	ProvenanceNativeDecompiler Provenance = "native-decompiler"
	ProvenanceDisassembler     Provenance = "disassembler"
	ProvenanceSyntheticStub    Provenance = "synthetic-stub"
)

// StrategyAttempt records why a recovery strategy did not produce output.
type StrategyAttempt struct {
	Strategy Provenance `json:"strategy" yaml:"strategy"`
	Reason   string     `json:"reason"   yaml:"reason"`
}

type SourceResult struct {
	ClassName    string            `json:"class_name"    yaml:"class_name"`
	Artifact     Artifact          `json:"artifact"      yaml:"artifact"`
	Provenance   Provenance        `json:"provenance"    yaml:"provenance"`
	Tool         string            `json:"tool"          yaml:"tool"`
	BytecodeOnly bool              `json:"bytecode_only" yaml:"bytecode_only"`
	Header       string            `json:"header"        yaml:"header"`
	Content      string            `json:"content"       yaml:"content"`
	Attempts     []StrategyAttempt `json:"attempts"      yaml:"attempts,omitempty"`
}

// Text returns the content wrapped with its provenance header.
func (r *SourceResult) Text() string {
	if r.Header == "" {
		return r.Content
	}
	var sb strings.Builder
	sb.WriteString(r.Header)
	sb.WriteString("\n")
	sb.WriteString(r.Content)
	if !strings.HasSuffix(r.Content, "\n") {
		sb.WriteString("\n")
	}
	return sb.String()
}

// ProjectInfo is what the project descriptor declares about the build.
type ProjectInfo struct {
	JavaVersion   string              `json:"java_version"   yaml:"java_version"`
	SourceVersion string              `json:"source_version" yaml:"source_version"`
	TargetVersion string              `json:"target_version" yaml:"target_version"`
	Dependencies  []ProjectDependency `json:"dependencies"   yaml:"dependencies"`
}

// DeclaredJavaVersion returns the most specific version the project declares.
func (p *ProjectInfo) DeclaredJavaVersion() string {
	if p == nil {
		return ""
	}
	if p.JavaVersion != "" {
		return p.JavaVersion
	}
	return p.SourceVersion
}

type ProjectDependency struct {
	Coordinate `json:",inline" yaml:",inline"`
	Scope      string `json:"scope" yaml:"scope"` // "compile", "runtime", "provided"
}

// ProjectDependencyStatus reports whether a declared dependency is present locally.
type ProjectDependencyStatus struct {
	Dependency ProjectDependency `json:"dependency" yaml:"dependency"`
	Available  bool              `json:"available"  yaml:"available"`
	HasSource  bool              `json:"has_source" yaml:"has_source"`
}
