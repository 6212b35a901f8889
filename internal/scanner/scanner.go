package scanner

import (
	"context"
	"fmt"
	"mvnsrc-cli/internal/coordinate"
	"mvnsrc-cli/internal/domain"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// Scanner walks a local repository and builds its group/artifact/version tree
type Scanner struct {
	comparator VersionComparator
	excludes   []string
	logger     *zap.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithComparator overrides the ordering used to pick each artifact's latest version.
func WithComparator(cmp VersionComparator) Option {
	return func(s *Scanner) {
		if cmp != nil {
			s.comparator = cmp
		}
	}
}

// WithExcludes prunes directories whose root-relative slash path matches any glob.
func WithExcludes(patterns []string) Option {
	return func(s *Scanner) {
		s.excludes = append(s.excludes, patterns...)
	}
}

// NewScanner creates a new repository scanner
func NewScanner(logger *zap.Logger, opts ...Option) *Scanner {
	s := &Scanner{
		comparator: Lexicographic{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateExcludes reports the first malformed exclude glob.
func ValidateExcludes(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return nil
}

// Comparator returns the active version ordering.
func (s *Scanner) Comparator() VersionComparator {
	return s.comparator
}

// treeBuilder is the walk accumulator. It is owned by a single BuildTree call.
type treeBuilder struct {
	groups   map[string]map[string][]string
	versions []domain.Coordinate
}

func (b *treeBuilder) add(coord domain.Coordinate) {
	artifacts, ok := b.groups[coord.GroupID]
	if !ok {
		artifacts = make(map[string][]string)
		b.groups[coord.GroupID] = artifacts
	}
	for _, v := range artifacts[coord.ArtifactID] {
		if v == coord.Version {
			return
		}
	}
	artifacts[coord.ArtifactID] = append(artifacts[coord.ArtifactID], coord.Version)
	b.versions = append(b.versions, coord)
}

func (b *treeBuilder) build(cmp VersionComparator) *domain.IndexResult {
	tree := domain.RepositoryTree{Groups: make(map[string]domain.GroupTree, len(b.groups))}
	for groupID, artifacts := range b.groups {
		group := domain.GroupTree{GroupID: groupID, Artifacts: make(map[string]domain.ArtifactVersions, len(artifacts))}
		for artifactID, versions := range artifacts {
			sorted := append([]string(nil), versions...)
			sort.SliceStable(sorted, func(i, j int) bool { return cmp.Compare(sorted[i], sorted[j]) < 0 })
			group.Artifacts[artifactID] = domain.ArtifactVersions{
				Versions:      sorted,
				LatestVersion: Latest(cmp, sorted),
			}
		}
		tree.Groups[groupID] = group
	}
	return &domain.IndexResult{Tree: tree, Versions: b.versions}
}

// BuildTree walks root depth-first. A directory with at least one archive child is
// a version directory and is not descended into. A missing root yields an empty tree.
func (s *Scanner) BuildTree(ctx context.Context, root string) (*domain.IndexResult, error) {
	builder := &treeBuilder{groups: make(map[string]map[string][]string)}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		s.logger.Warn("Repository root not found, returning empty tree", zap.String("root", root))
		return builder.build(s.comparator), nil
	}

	s.logger.Info("Indexing repository", zap.String("root", root))

	stack := []string{root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("failed to index repository: %w", err)
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			s.logger.Warn("Failed to read directory", zap.String("dir", dir), zap.Error(err))
			continue
		}

		if hasArchive(entries) {
			if coord, ok := coordinateOf(root, dir); ok {
				builder.add(coord)
			} else {
				s.logger.Debug("Skipping malformed version directory", zap.String("dir", dir))
			}
			continue
		}

		// push in reverse so children pop in name order
		for i := len(entries) - 1; i >= 0; i-- {
			entry := entries[i]
			if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			child := filepath.Join(dir, entry.Name())
			if s.excluded(root, child) {
				s.logger.Debug("Excluded directory", zap.String("dir", child))
				continue
			}
			stack = append(stack, child)
		}
	}

	result := builder.build(s.comparator)
	s.logger.Info("Indexed repository",
		zap.Int("group_count", len(result.Tree.Groups)),
		zap.Int("version_count", len(result.Versions)))
	return result, nil
}

func hasArchive(entries []os.DirEntry) bool {
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), coordinate.ArchiveExt) {
			return true
		}
	}
	return false
}

// coordinateOf maps <root>/g1/.../gn/artifact/version onto a coordinate.
func coordinateOf(root, dir string) (domain.Coordinate, bool) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return domain.Coordinate{}, false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 3 {
		return domain.Coordinate{}, false
	}
	n := len(parts)
	return domain.Coordinate{
		GroupID:    strings.Join(parts[:n-2], "."),
		ArtifactID: parts[n-2],
		Version:    parts[n-1],
	}, true
}

func (s *Scanner) excluded(root, dir string) bool {
	if len(s.excludes) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range s.excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
