package usecases

import (
	"context"
	"errors"
	"fmt"
	"mvnsrc-cli/internal/cache"
	"mvnsrc-cli/internal/classifier"
	"mvnsrc-cli/internal/coordinate"
	"mvnsrc-cli/internal/domain"
	"mvnsrc-cli/internal/search"
	"mvnsrc-cli/internal/storage"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Inspector is the archive reader the service and its class search share
type Inspector interface {
	domain.ArchiveInspector
	search.ClassLister
}

// Service answers repository queries from its caches, computing and storing
// missing entries on demand
type Service struct {
	repoConfig domain.RepositoryConfig
	indexer    domain.TreeIndexer
	inspector  Inspector
	recoverer  domain.SourceRecoverer
	searcher   *search.Searcher
	classifier domain.GroupClassifier
	parser     domain.ProjectParser
	projectPOM string
	store      domain.StructureStore
	logger     *zap.Logger

	structures   cache.Cache[string, *domain.DependencyStructure]
	dependencies *cache.Ordered[string, domain.Artifact]
	trees        *cache.Ordered[string, domain.RepositoryTree]

	flight singleflight.Group

	mu      sync.RWMutex
	indexed bool
}

// Option configures a Service
type Option func(*Service)

// WithStructureCache replaces the default in-memory structure cache
func WithStructureCache(c cache.Cache[string, *domain.DependencyStructure]) Option {
	return func(s *Service) {
		s.structures = c
	}
}

// WithStructureStore persists computed structures across runs
func WithStructureStore(store domain.StructureStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithClassifier marks artifacts of internal groups
func WithClassifier(c domain.GroupClassifier) Option {
	return func(s *Service) {
		s.classifier = c
	}
}

// WithProjectParser sets the descriptor reader and the descriptor path used by ProjectDependencies
func WithProjectParser(p domain.ProjectParser, pomPath string) Option {
	return func(s *Service) {
		s.parser = p
		s.projectPOM = pomPath
	}
}

// NewService creates a new service with dependency injection
func NewService(
	repoConfig domain.RepositoryConfig,
	indexer domain.TreeIndexer,
	inspector Inspector,
	recoverer domain.SourceRecoverer,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		repoConfig:   repoConfig,
		indexer:      indexer,
		inspector:    inspector,
		recoverer:    recoverer,
		searcher:     search.NewSearcher(inspector, logger),
		classifier:   classifier.NewClassifier(nil),
		store:        storage.NullStore{},
		logger:       logger,
		dependencies: cache.NewOrdered[string, domain.Artifact](),
		trees:        cache.NewOrdered[string, domain.RepositoryTree](),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.structures == nil {
		// positive capacity never fails
		s.structures, _ = cache.NewLRU[string, *domain.DependencyStructure](cache.DefaultCapacity)
	}
	return s
}

// Root returns the local repository root
func (s *Service) Root() string {
	return s.repoConfig.LocalRepository
}

// Initialize checks the repository root and builds the tree and dependency caches
func (s *Service) Initialize(ctx context.Context) error {
	info, err := os.Stat(s.Root())
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", domain.ErrConfigurationMissing, s.Root())
	}

	s.logger.Info("Initializing repository index", zap.String("root", s.Root()))
	return s.buildIndex(ctx)
}

// Refresh drops the in-memory caches and rebuilds the index. Persisted
// structures stay; their fingerprints catch archives that changed.
func (s *Service) Refresh(ctx context.Context) error {
	s.clearMemory()
	return s.Initialize(ctx)
}

func (s *Service) buildIndex(ctx context.Context) error {
	result, err := s.indexer.BuildTree(ctx, s.Root())
	if err != nil {
		return fmt.Errorf("failed to build repository tree: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dependencies.Clear()
	for _, coord := range result.Versions {
		artifact := s.probe(coord)
		if !artifact.Available {
			s.logger.Debug("Skipping version without main archive", zap.String("coordinate", coord.Key()))
			continue
		}
		s.dependencies.Put(coord.Key(), artifact)
	}

	s.trees.Clear()
	s.trees.Put(s.Root(), result.Tree)
	s.indexed = true

	s.logger.Info("Repository indexed",
		zap.Int("groups", len(result.Tree.Groups)),
		zap.Int("versions", len(result.Versions)),
		zap.Int("artifacts", s.dependencies.Len()))
	return nil
}

func (s *Service) probe(coord domain.Coordinate) domain.Artifact {
	artifact := coordinate.Probe(s.Root(), coord)
	artifact.IsInternal = s.classifier.IsInternalGroup(coord.GroupID)
	return artifact
}

func (s *Service) ensureIndexed() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.indexed {
		return domain.ErrNotIndexed
	}
	return nil
}

// ScanRepository returns the available artifacts in walk order
func (s *Service) ScanRepository() ([]domain.Artifact, error) {
	if err := s.ensureIndexed(); err != nil {
		return nil, err
	}
	return s.dependencies.Values(), nil
}

// RepositoryTree returns the cached group tree
func (s *Service) RepositoryTree() (domain.RepositoryTree, error) {
	if err := s.ensureIndexed(); err != nil {
		return domain.RepositoryTree{}, err
	}
	tree, ok := s.trees.Get(s.Root())
	if !ok {
		return domain.RepositoryTree{}, domain.ErrNotIndexed
	}
	return tree, nil
}

// GroupTree returns one group of the tree. The boolean is false for an unknown group.
func (s *Service) GroupTree(groupID string) (domain.GroupTree, bool, error) {
	tree, err := s.RepositoryTree()
	if err != nil {
		return domain.GroupTree{}, false, err
	}
	group, ok := tree.Groups[groupID]
	return group, ok, nil
}

// SearchDependencies matches keyword against group ids, case-insensitively.
// A matching group contributes every artifact; otherwise artifact ids are matched.
func (s *Service) SearchDependencies(keyword string) ([]domain.DependencyMatch, error) {
	tree, err := s.RepositoryTree()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(keyword)
	matches := []domain.DependencyMatch{}
	for _, groupID := range tree.GroupIDs() {
		group := tree.Groups[groupID]
		groupMatched := strings.Contains(strings.ToLower(groupID), needle)
		for _, artifactID := range group.ArtifactIDs() {
			if groupMatched || strings.Contains(strings.ToLower(artifactID), needle) {
				matches = append(matches, domain.DependencyMatch{
					GroupID:    groupID,
					ArtifactID: artifactID,
					Versions:   group.Artifacts[artifactID].Versions,
				})
			}
		}
	}
	return matches, nil
}

// GetDependencyStructure returns the structure of a coordinate from the memory
// cache, then the persistent store, computing it on a miss. Concurrent callers
// for the same coordinate share one computation.
func (s *Service) GetDependencyStructure(ctx context.Context, groupID, artifactID, version string) (*domain.DependencyStructure, error) {
	if err := s.ensureIndexed(); err != nil {
		return nil, err
	}
	return s.structure(ctx, domain.Coordinate{GroupID: groupID, ArtifactID: artifactID, Version: version})
}

func (s *Service) structure(ctx context.Context, coord domain.Coordinate) (*domain.DependencyStructure, error) {
	key := coord.Key()
	if st, ok := s.structures.Get(key); ok {
		return st, nil
	}

	v, err := s.share(ctx, "structure:"+key, func(ctx context.Context) (any, error) {
		if st, ok := s.structures.Get(key); ok {
			return st, nil
		}

		st, found, err := s.store.Load(ctx, s.Root(), coord)
		if err != nil {
			s.logger.Warn("Failed to load persisted structure", zap.String("coordinate", key), zap.Error(err))
		}
		if !found {
			st, err = s.computeStructure(coord)
			if err != nil {
				return nil, err
			}
			if err := s.store.Save(ctx, s.Root(), st); err != nil {
				s.logger.Warn("Failed to persist structure", zap.String("coordinate", key), zap.Error(err))
			}
		}

		s.structures.Put(key, st)
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.DependencyStructure), nil
}

// share runs fn once per key across concurrent callers. fn sees a context
// that is not cancelled with the caller's; each caller stops waiting when its
// own context ends.
func (s *Service) share(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(key, func() (any, error) {
		return fn(shared)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// computeStructure lists the version directory and the main archive. An
// unreadable main archive yields an empty class list.
func (s *Service) computeStructure(coord domain.Coordinate) (*domain.DependencyStructure, error) {
	dir := coordinate.VersionDir(s.Root(), coord.GroupID, coord.ArtifactID, coord.Version)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: version directory %s", domain.ErrArtifactNotFound, dir)
	}

	jarFiles := []string{}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), coordinate.ArchiveExt) {
			jarFiles = append(jarFiles, entry.Name())
		}
	}

	artifact := coordinate.Probe(s.Root(), coord)
	if !artifact.Available {
		return nil, fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, artifact.MainArchivePath)
	}

	classes, err := s.inspector.ListClasses(artifact.MainArchivePath)
	if err != nil {
		s.logger.Warn("Failed to list classes", zap.String("archive", artifact.MainArchivePath), zap.Error(err))
		classes = []string{}
	}
	classes = sortedUnique(classes)

	packageSet := make(map[string]struct{})
	for _, cls := range classes {
		if pkg, _ := coordinate.SplitClassName(cls); pkg != "" {
			packageSet[pkg] = struct{}{}
		}
	}
	packages := make([]string, 0, len(packageSet))
	for pkg := range packageSet {
		packages = append(packages, pkg)
	}
	sort.Strings(packages)

	s.logger.Debug("Computed dependency structure",
		zap.String("coordinate", coord.Key()),
		zap.Int("classes", len(classes)),
		zap.Int("packages", len(packages)))

	return &domain.DependencyStructure{
		Coordinate:      coord,
		JarFiles:        jarFiles,
		Classes:         classes,
		Packages:        packages,
		HasSource:       artifact.HasSourceArchive,
		SourcePath:      artifact.SourceArchivePath,
		MainArchivePath: artifact.MainArchivePath,
	}, nil
}

// ListClasses returns the union of the classes named in the sources archive
// and the top-level classes of the main archive, sorted
func (s *Service) ListClasses(ctx context.Context, groupID, artifactID, version string) ([]string, error) {
	if err := s.ensureIndexed(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	artifact := s.probe(domain.Coordinate{GroupID: groupID, ArtifactID: artifactID, Version: version})
	var classes []string
	if artifact.HasSourceArchive {
		sources, err := s.inspector.ListSources(artifact.SourceArchivePath)
		if err != nil {
			s.logger.Warn("Failed to list sources", zap.String("archive", artifact.SourceArchivePath), zap.Error(err))
		}
		classes = append(classes, sources...)
	}
	if artifact.Available {
		compiled, err := s.inspector.ListClasses(artifact.MainArchivePath)
		if err != nil {
			s.logger.Warn("Failed to list classes", zap.String("archive", artifact.MainArchivePath), zap.Error(err))
		}
		classes = append(classes, compiled...)
	}
	return sortedUnique(classes), nil
}

// GetClassSource recovers the best available text for className
func (s *Service) GetClassSource(ctx context.Context, groupID, artifactID, version, className string) (*domain.SourceResult, error) {
	if err := s.ensureIndexed(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(className) == "" {
		return nil, fmt.Errorf("empty class name: %w", domain.ErrClassNotFound)
	}

	coord := domain.Coordinate{GroupID: groupID, ArtifactID: artifactID, Version: version}
	artifact := s.probe(coord)
	if !artifact.Available {
		return nil, fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, artifact.MainArchivePath)
	}

	v, err := s.share(ctx, "source:"+coord.Key()+":"+className, func(ctx context.Context) (any, error) {
		return s.recoverer.Recover(ctx, artifact, className)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.SourceResult), nil
}

// SearchClass scans every indexed artifact for classes whose simple name contains term
func (s *Service) SearchClass(ctx context.Context, term string) ([]domain.ClassSearchResult, error) {
	artifacts, err := s.ScanRepository()
	if err != nil {
		return nil, err
	}
	return s.searcher.Search(ctx, artifacts, term)
}

// SearchClassLatest scans only the latest version of each artifact through the structure cache
func (s *Service) SearchClassLatest(ctx context.Context, term string) ([]domain.ClassSearchResult, error) {
	tree, err := s.RepositoryTree()
	if err != nil {
		return nil, err
	}
	return s.searcher.SearchLatest(ctx, tree, s.structure, term)
}

// Classifiers lists the classifiers present in a version directory
func (s *Service) Classifiers(groupID, artifactID, version string) ([]string, error) {
	return coordinate.ProbeClassifiers(s.Root(), groupID, artifactID, version)
}

// Config returns the resolved repository configuration
func (s *Service) Config() domain.RepositoryConfig {
	return s.repoConfig
}

// ProjectDependencies parses the project descriptor and reports which declared
// dependencies exist in the local repository
func (s *Service) ProjectDependencies(ctx context.Context) (*domain.ProjectInfo, []domain.ProjectDependencyStatus, error) {
	if s.parser == nil {
		return nil, nil, errors.New("no project descriptor reader configured")
	}

	pomPath, err := filepath.Abs(s.projectPOM)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve project descriptor path: %w", err)
	}

	info, err := s.parser.ParseProject(ctx, pomPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse project descriptor: %w", err)
	}

	statuses := make([]domain.ProjectDependencyStatus, 0, len(info.Dependencies))
	for _, dep := range info.Dependencies {
		artifact := coordinate.Probe(s.Root(), dep.Coordinate)
		statuses = append(statuses, domain.ProjectDependencyStatus{
			Dependency: dep,
			Available:  artifact.Available,
			HasSource:  artifact.HasSourceArchive,
		})
	}
	return info, statuses, nil
}

// InvalidateStructure forgets one computed structure in memory and in the store
func (s *Service) InvalidateStructure(ctx context.Context, coord domain.Coordinate) error {
	s.structures.Invalidate(coord.Key())
	if err := s.store.Delete(ctx, s.Root(), coord); err != nil {
		return fmt.Errorf("failed to delete persisted structure: %w", err)
	}
	return nil
}

// ClearCaches drops every cache, including persisted structures. Queries fail
// with ErrNotIndexed until the next Initialize or Refresh.
func (s *Service) ClearCaches(ctx context.Context) error {
	s.clearMemory()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear persisted structures: %w", err)
	}
	s.logger.Info("Caches cleared")
	return nil
}

func (s *Service) clearMemory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.structures.Clear()
	s.dependencies.Clear()
	s.trees.Clear()
	s.indexed = false
}

func sortedUnique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	sort.Strings(result)
	return result
}
