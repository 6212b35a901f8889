package generator

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"mvnsrc-cli/internal/domain"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// Supported output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// Renderer writes query results in one of the supported formats
type Renderer struct {
	format  string
	out     io.Writer
	heading *color.Color
	accent  *color.Color
}

// Option configures a Renderer
type Option func(*Renderer)

// WithColor forces colored headings on or off. By default fatih/color decides
// from the terminal.
func WithColor(enabled bool) Option {
	return func(r *Renderer) {
		for _, c := range []*color.Color{r.heading, r.accent} {
			if enabled {
				c.EnableColor()
			} else {
				c.DisableColor()
			}
		}
	}
}

// NewRenderer creates a renderer for format writing to out
func NewRenderer(format string, out io.Writer, opts ...Option) (*Renderer, error) {
	switch format {
	case FormatText, FormatJSON, FormatYAML, FormatCSV:
	case "":
		format = FormatText
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}

	r := &Renderer{
		format:  format,
		out:     out,
		heading: color.New(color.Bold, color.FgCyan),
		accent:  color.New(color.FgGreen),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Format returns the output format
func (r *Renderer) Format() string {
	return r.format
}

// table is the flat form of a result used for csv output
type table struct {
	header []string
	rows   [][]string
}

// render dispatches value to the structured encoders, rows to csv and text to
// the plain writer
func (r *Renderer) render(value any, rows func() table, text func(w io.Writer) error) error {
	switch r.format {
	case FormatJSON:
		encoder := json.NewEncoder(r.out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(value); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case FormatYAML:
		encoder := yaml.NewEncoder(r.out)
		encoder.SetIndent(2)
		if err := encoder.Encode(value); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return nil
	case FormatCSV:
		return r.writeCSV(rows())
	default:
		return text(r.out)
	}
}

func (r *Renderer) writeCSV(t table) error {
	writer := csv.NewWriter(r.out)
	if err := writer.Write(t.header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range t.rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// Summary aggregates counts over scanned artifacts
type Summary struct {
	TotalArtifacts int `json:"total_artifacts" yaml:"total_artifacts"`
	WithSources    int `json:"with_sources"    yaml:"with_sources"`
	Internal       int `json:"internal"        yaml:"internal"`
	External       int `json:"external"        yaml:"external"`
	Groups         int `json:"groups"          yaml:"groups"`
}

// Summarize counts artifacts, source archives and the internal/external split
func Summarize(artifacts []domain.Artifact) Summary {
	groups := make(map[string]struct{})
	summary := Summary{TotalArtifacts: len(artifacts)}
	for _, artifact := range artifacts {
		groups[artifact.GroupID] = struct{}{}
		if artifact.HasSourceArchive {
			summary.WithSources++
		}
		if artifact.IsInternal {
			summary.Internal++
		} else {
			summary.External++
		}
	}
	summary.Groups = len(groups)
	return summary
}

// RenderArtifacts writes scanned artifacts followed by a summary in text mode
func (r *Renderer) RenderArtifacts(artifacts []domain.Artifact) error {
	summary := Summarize(artifacts)
	value := struct {
		Artifacts []domain.Artifact `json:"artifacts" yaml:"artifacts"`
		Summary   Summary           `json:"summary"   yaml:"summary"`
	}{artifacts, summary}

	return r.render(value, func() table {
		t := table{header: []string{"Group ID", "Artifact ID", "Version", "Has Sources", "Is Internal", "Main Archive"}}
		for _, a := range artifacts {
			t.rows = append(t.rows, []string{
				a.GroupID, a.ArtifactID, a.Version,
				strconv.FormatBool(a.HasSourceArchive),
				strconv.FormatBool(a.IsInternal),
				a.MainArchivePath,
			})
		}
		return t
	}, func(w io.Writer) error {
		for _, a := range artifacts {
			marks := ""
			if a.HasSourceArchive {
				marks += " [sources]"
			}
			if a.IsInternal {
				marks += " [internal]"
			}
			fmt.Fprintf(w, "%s%s\n", a.Key(), marks)
		}
		r.heading.Fprintln(w, "Summary")
		fmt.Fprintf(w, "  Artifacts: %d (%d groups)\n", summary.TotalArtifacts, summary.Groups)
		fmt.Fprintf(w, "  With sources: %d\n", summary.WithSources)
		fmt.Fprintf(w, "  Internal: %d, external: %d\n", summary.Internal, summary.External)
		return nil
	})
}

// RenderTree writes the repository tree grouped by group id
func (r *Renderer) RenderTree(tree domain.RepositoryTree) error {
	return r.render(tree, func() table {
		t := table{header: []string{"Group ID", "Artifact ID", "Versions", "Latest Version"}}
		for _, groupID := range tree.GroupIDs() {
			group := tree.Groups[groupID]
			for _, artifactID := range group.ArtifactIDs() {
				av := group.Artifacts[artifactID]
				t.rows = append(t.rows, []string{groupID, artifactID, strings.Join(av.Versions, ";"), av.LatestVersion})
			}
		}
		return t
	}, func(w io.Writer) error {
		for _, groupID := range tree.GroupIDs() {
			r.writeGroup(w, tree.Groups[groupID])
		}
		return nil
	})
}

// RenderGroup writes a single group of the tree
func (r *Renderer) RenderGroup(group domain.GroupTree) error {
	return r.RenderTree(domain.RepositoryTree{Groups: map[string]domain.GroupTree{group.GroupID: group}})
}

func (r *Renderer) writeGroup(w io.Writer, group domain.GroupTree) {
	r.heading.Fprintln(w, group.GroupID)
	for _, artifactID := range group.ArtifactIDs() {
		av := group.Artifacts[artifactID]
		fmt.Fprintf(w, "  %s ", artifactID)
		r.accent.Fprint(w, av.LatestVersion)
		fmt.Fprintf(w, " (%s)\n", strings.Join(av.Versions, ", "))
	}
}

// RenderMatches writes dependency keyword matches
func (r *Renderer) RenderMatches(matches []domain.DependencyMatch) error {
	return r.render(matches, func() table {
		t := table{header: []string{"Group ID", "Artifact ID", "Versions"}}
		for _, m := range matches {
			t.rows = append(t.rows, []string{m.GroupID, m.ArtifactID, strings.Join(m.Versions, ";")})
		}
		return t
	}, func(w io.Writer) error {
		if len(matches) == 0 {
			fmt.Fprintln(w, "No matching dependencies")
			return nil
		}
		for _, m := range matches {
			fmt.Fprintf(w, "%s:%s [%s]\n", m.GroupID, m.ArtifactID, strings.Join(m.Versions, ", "))
		}
		return nil
	})
}

// RenderClassResults writes class search hits
func (r *Renderer) RenderClassResults(results []domain.ClassSearchResult) error {
	return r.render(results, func() table {
		t := table{header: []string{"Class Name", "Package Name", "Full Class Name", "Artifact", "Source Type"}}
		for _, res := range results {
			t.rows = append(t.rows, []string{res.ClassName, res.PackageName, res.FullClassName, res.Artifact.Key(), string(res.SourceType)})
		}
		return t
	}, func(w io.Writer) error {
		if len(results) == 0 {
			fmt.Fprintln(w, "No matching classes")
			return nil
		}
		for _, res := range results {
			fmt.Fprintf(w, "%s  %s (%s)\n", res.FullClassName, res.Artifact.Key(), res.SourceType)
		}
		return nil
	})
}

// RenderStructure writes the structure of one artifact
func (r *Renderer) RenderStructure(structure *domain.DependencyStructure) error {
	return r.render(structure, func() table {
		t := table{header: []string{"Kind", "Name"}}
		for _, jar := range structure.JarFiles {
			t.rows = append(t.rows, []string{"jar", jar})
		}
		for _, pkg := range structure.Packages {
			t.rows = append(t.rows, []string{"package", pkg})
		}
		for _, cls := range structure.Classes {
			t.rows = append(t.rows, []string{"class", cls})
		}
		return t
	}, func(w io.Writer) error {
		r.heading.Fprintln(w, structure.Key())
		fmt.Fprintf(w, "Main archive: %s\n", structure.MainArchivePath)
		if structure.HasSource {
			fmt.Fprintf(w, "Sources: %s\n", structure.SourcePath)
		} else {
			fmt.Fprintln(w, "Sources: none")
		}
		fmt.Fprintf(w, "Archives: %s\n", strings.Join(structure.JarFiles, ", "))
		fmt.Fprintf(w, "Packages (%d):\n", len(structure.Packages))
		for _, pkg := range structure.Packages {
			fmt.Fprintf(w, "  %s\n", pkg)
		}
		fmt.Fprintf(w, "Classes (%d):\n", len(structure.Classes))
		for _, cls := range structure.Classes {
			fmt.Fprintf(w, "  %s\n", cls)
		}
		return nil
	})
}

// RenderClasses writes a flat class list
func (r *Renderer) RenderClasses(classes []string) error {
	return r.renderList("Class Name", classes)
}

// RenderClassifiers writes the classifiers present for a coordinate
func (r *Renderer) RenderClassifiers(classifiers []string) error {
	return r.renderList("Classifier", classifiers)
}

func (r *Renderer) renderList(column string, values []string) error {
	return r.render(values, func() table {
		t := table{header: []string{column}}
		for _, v := range values {
			t.rows = append(t.rows, []string{v})
		}
		return t
	}, func(w io.Writer) error {
		for _, v := range values {
			fmt.Fprintln(w, v)
		}
		return nil
	})
}

// RenderSource writes recovered text. Text mode writes exactly the framed text
// so the output can be redirected into a file.
func (r *Renderer) RenderSource(result *domain.SourceResult) error {
	return r.render(result, func() table {
		return table{
			header: []string{"Class Name", "Artifact", "Provenance", "Tool", "Bytecode Only", "Content"},
			rows: [][]string{{
				result.ClassName, result.Artifact.Key(), string(result.Provenance), result.Tool,
				strconv.FormatBool(result.BytecodeOnly), result.Text(),
			}},
		}
	}, func(w io.Writer) error {
		_, err := io.WriteString(w, result.Text())
		return err
	})
}

// RenderProjectDependencies writes the declared dependencies of the current project
func (r *Renderer) RenderProjectDependencies(info *domain.ProjectInfo, statuses []domain.ProjectDependencyStatus) error {
	value := struct {
		JavaVersion  string                           `json:"java_version" yaml:"java_version"`
		Dependencies []domain.ProjectDependencyStatus `json:"dependencies" yaml:"dependencies"`
	}{info.DeclaredJavaVersion(), statuses}

	return r.render(value, func() table {
		t := table{header: []string{"Group ID", "Artifact ID", "Version", "Scope", "Available", "Has Sources"}}
		for _, s := range statuses {
			d := s.Dependency
			t.rows = append(t.rows, []string{
				d.GroupID, d.ArtifactID, d.Version, d.Scope,
				strconv.FormatBool(s.Available), strconv.FormatBool(s.HasSource),
			})
		}
		return t
	}, func(w io.Writer) error {
		javaVersion := info.DeclaredJavaVersion()
		if javaVersion == "" {
			javaVersion = "unknown"
		}
		r.heading.Fprintf(w, "Project Java version: %s\n", javaVersion)
		for _, s := range statuses {
			state := "missing"
			if s.Available {
				state = "local"
				if s.HasSource {
					state = "local, sources"
				}
			}
			fmt.Fprintf(w, "%s (%s) %s\n", s.Dependency.Key(), s.Dependency.Scope, state)
		}
		return nil
	})
}

// RenderConfig writes the resolved repository configuration
func (r *Renderer) RenderConfig(cfg domain.RepositoryConfig) error {
	return r.render(cfg, func() table {
		t := table{header: []string{"Kind", "ID", "URL", "Name"}}
		t.rows = append(t.rows, []string{"local", "", cfg.LocalRepository, ""})
		for _, repo := range cfg.Repositories {
			t.rows = append(t.rows, []string{"repository", repo.ID, repo.URL, repo.Name})
		}
		for _, of := range sortedKeys(cfg.Mirrors) {
			t.rows = append(t.rows, []string{"mirror", of, cfg.Mirrors[of], ""})
		}
		return t
	}, func(w io.Writer) error {
		r.heading.Fprintln(w, "Local repository")
		fmt.Fprintf(w, "  %s\n", cfg.LocalRepository)
		r.heading.Fprintln(w, "Remote repositories")
		for _, repo := range cfg.Repositories {
			fmt.Fprintf(w, "  %s  %s (%s)\n", repo.ID, repo.URL, repo.Name)
		}
		if len(cfg.Mirrors) > 0 {
			r.heading.Fprintln(w, "Mirrors")
			for _, of := range sortedKeys(cfg.Mirrors) {
				fmt.Fprintf(w, "  %s -> %s\n", of, cfg.Mirrors[of])
			}
		}
		return nil
	})
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
