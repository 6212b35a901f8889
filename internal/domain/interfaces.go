package domain

import (
	"context"
	"iter"
)

type ArchiveInspector interface {
	// lazily enumerates entry names ending in suffix; each call reopens the archive
	ListEntries(archivePath, suffix string) iter.Seq2[string, error]

	// returns top-level class names, nested classes excluded
	ListClasses(archivePath string) ([]string, error)

	// returns class names derived from source file entries
	ListSources(archivePath string) ([]string, error)

	// reads one entry fully into memory
	ExtractEntry(archivePath, entryName string) ([]byte, error)
}

type TreeIndexer interface {
	// walks the repository root and returns the tree and the version directories found
	BuildTree(ctx context.Context, root string) (*IndexResult, error)
}

// IndexResult is the immutable output of one repository walk.
type IndexResult struct {
	Tree     RepositoryTree
	Versions []Coordinate // in walk order
}

type StructureStore interface {
	// returns the persisted structure of coord under the repository root, if any
	Load(ctx context.Context, root string, coord Coordinate) (*DependencyStructure, bool, error)
	// persists a structure under the repository root and its coordinate
	Save(ctx context.Context, root string, structure *DependencyStructure) error
	// removes one persisted structure
	Delete(ctx context.Context, root string, coord Coordinate) error
	// removes every persisted structure
	Clear(ctx context.Context) error
}

type SourceRecoverer interface {
	// recovers the best available text for a class inside an artifact
	Recover(ctx context.Context, artifact Artifact, className string) (*SourceResult, error)
}

type ProjectParser interface {
	// parses a project descriptor
	ParseProject(ctx context.Context, path string) (*ProjectInfo, error)
}

type GroupClassifier interface {
	// checks if a group id belongs to the internal namespace
	IsInternalGroup(groupID string) bool
}
