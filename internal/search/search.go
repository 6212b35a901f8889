// Package search finds classes by name across indexed artifacts.
package search

import (
	"context"
	"mvnsrc-cli/internal/coordinate"
	"mvnsrc-cli/internal/domain"
	"strings"

	"go.uber.org/zap"
)

// ClassLister enumerates class names inside archives.
type ClassLister interface {
	ListSources(archivePath string) ([]string, error)
	ListRawClasses(archivePath string) ([]string, error)
}

// StructureFunc computes or fetches the structure of one coordinate.
type StructureFunc func(ctx context.Context, coord domain.Coordinate) (*domain.DependencyStructure, error)

// Searcher matches a term against bare class names, case-insensitively.
type Searcher struct {
	lister ClassLister
	logger *zap.Logger
}

// NewSearcher creates a new class searcher
func NewSearcher(lister ClassLister, logger *zap.Logger) *Searcher {
	return &Searcher{lister: lister, logger: logger}
}

// Matches reports whether the simple name of className contains term, ignoring case.
func Matches(className, term string) bool {
	_, simple := coordinate.SplitClassName(className)
	return strings.Contains(strings.ToLower(simple), strings.ToLower(term))
}

// Search scans each artifact's sources archive, then its main archive. A class
// already found in the sources archive is not reported again from the main archive.
// Archives that cannot be read are skipped.
func (s *Searcher) Search(ctx context.Context, artifacts []domain.Artifact, term string) ([]domain.ClassSearchResult, error) {
	results := []domain.ClassSearchResult{}
	for _, artifact := range artifacts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		seen := make(map[string]bool)
		if artifact.HasSourceArchive {
			results = s.collect(results, seen, artifact, artifact.SourceArchivePath, s.lister.ListSources, term, domain.SourceTypeSourceArchive)
		}
		if artifact.Available {
			results = s.collect(results, seen, artifact, artifact.MainArchivePath, s.lister.ListRawClasses, term, domain.SourceTypeDecompiled)
		}
	}
	return results, nil
}

func (s *Searcher) collect(
	results []domain.ClassSearchResult,
	seen map[string]bool,
	artifact domain.Artifact,
	archivePath string,
	list func(string) ([]string, error),
	term string,
	sourceType domain.SourceType,
) []domain.ClassSearchResult {
	names, err := list(archivePath)
	if err != nil {
		s.logger.Warn("Skipping unreadable archive",
			zap.String("archive", archivePath),
			zap.Error(err))
		return results
	}

	for _, name := range names {
		if seen[name] || !Matches(name, term) {
			continue
		}
		seen[name] = true
		results = append(results, newResult(name, artifact, sourceType))
	}
	return results
}

// SearchLatest scans the latest version of every artifact in the tree through
// structure. Artifacts whose structure cannot be computed are skipped.
func (s *Searcher) SearchLatest(ctx context.Context, tree domain.RepositoryTree, structure StructureFunc, term string) ([]domain.ClassSearchResult, error) {
	results := []domain.ClassSearchResult{}
	for _, groupID := range tree.GroupIDs() {
		group := tree.Groups[groupID]
		for _, artifactID := range group.ArtifactIDs() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			coord := domain.Coordinate{
				GroupID:    groupID,
				ArtifactID: artifactID,
				Version:    group.Artifacts[artifactID].LatestVersion,
			}
			st, err := structure(ctx, coord)
			if err != nil {
				s.logger.Debug("Skipping artifact", zap.String("coordinate", coord.Key()), zap.Error(err))
				continue
			}

			artifact := domain.Artifact{
				Coordinate:        st.Coordinate,
				Available:         true,
				HasSourceArchive:  st.HasSource,
				MainArchivePath:   st.MainArchivePath,
				SourceArchivePath: st.SourcePath,
			}
			sourceType := domain.SourceTypeDecompiled
			if st.HasSource {
				sourceType = domain.SourceTypeSourceArchive
			}
			for _, name := range st.Classes {
				if Matches(name, term) {
					results = append(results, newResult(name, artifact, sourceType))
				}
			}
		}
	}
	return results, nil
}

func newResult(fullName string, artifact domain.Artifact, sourceType domain.SourceType) domain.ClassSearchResult {
	pkg, simple := coordinate.SplitClassName(fullName)
	return domain.ClassSearchResult{
		ClassName:     simple,
		PackageName:   pkg,
		FullClassName: fullName,
		Artifact:      artifact,
		SourceType:    sourceType,
	}
}
