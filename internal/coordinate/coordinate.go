// Package coordinate maps group/artifact/version coordinates onto the
// on-disk layout of a local repository.
//
// Layout: <root>/<group with dots as separators>/<artifactId>/<version>/<artifactId>-<version>[-<classifier>].jar
package coordinate

import (
	"fmt"
	"mvnsrc-cli/internal/domain"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// ArchiveExt is the extension of every archive in the repository.
	ArchiveExt = ".jar"
	// SourcesClassifier marks the source archive variant of a coordinate.
	SourcesClassifier = "sources"
	// DefaultClassifier names the unsuffixed main archive.
	DefaultClassifier = "default"

	ClassSuffix  = ".class"
	SourceSuffix = ".java"
)

// ResolvePath returns the archive path for a coordinate. It does not touch the filesystem.
func ResolvePath(root, groupID, artifactID, version, classifier string) string {
	return filepath.Join(VersionDir(root, groupID, artifactID, version), ArchiveName(artifactID, version, classifier))
}

// VersionDir returns the directory holding every archive of a coordinate.
func VersionDir(root, groupID, artifactID, version string) string {
	groupPath := strings.ReplaceAll(groupID, ".", string(filepath.Separator))
	return filepath.Join(root, groupPath, artifactID, version)
}

// ArchiveName returns "artifactId-version[-classifier].jar".
func ArchiveName(artifactID, version, classifier string) string {
	if classifier == "" {
		return fmt.Sprintf("%s-%s%s", artifactID, version, ArchiveExt)
	}
	return fmt.Sprintf("%s-%s-%s%s", artifactID, version, classifier, ArchiveExt)
}

// MainArchiveName returns the file name of the unclassified archive.
func MainArchiveName(artifactID, version string) string {
	return ArchiveName(artifactID, version, "")
}

// SourceArchiveName returns the file name of the source archive.
func SourceArchiveName(artifactID, version string) string {
	return ArchiveName(artifactID, version, SourcesClassifier)
}

// ProbeClassifiers lists the classifiers present in a version directory.
// The main archive is reported as "default". A missing directory yields an empty list.
func ProbeClassifiers(root, groupID, artifactID, version string) ([]string, error) {
	dir := VersionDir(root, groupID, artifactID, version)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list version directory %s: %w", dir, err)
	}

	base := fmt.Sprintf("%s-%s", artifactID, version)
	classifiers := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ArchiveExt) {
			continue
		}
		if classifier, ok := classifierOf(name, base); ok {
			classifiers = append(classifiers, classifier)
		}
	}
	sort.Strings(classifiers)
	return classifiers, nil
}

func classifierOf(fileName, base string) (string, bool) {
	if fileName == base+ArchiveExt {
		return DefaultClassifier, true
	}
	if strings.HasPrefix(fileName, base+"-") {
		return strings.TrimSuffix(strings.TrimPrefix(fileName, base+"-"), ArchiveExt), true
	}
	return "", false
}

// Probe stats the main and source archives of a coordinate.
func Probe(root string, coord domain.Coordinate) domain.Artifact {
	dir := VersionDir(root, coord.GroupID, coord.ArtifactID, coord.Version)
	mainPath := filepath.Join(dir, MainArchiveName(coord.ArtifactID, coord.Version))
	sourcePath := filepath.Join(dir, SourceArchiveName(coord.ArtifactID, coord.Version))

	artifact := domain.Artifact{
		Coordinate:      coord,
		Available:       isRegularFile(mainPath),
		MainArchivePath: mainPath,
	}
	if isRegularFile(sourcePath) {
		artifact.HasSourceArchive = true
		artifact.SourceArchivePath = sourcePath
	}
	return artifact
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ClassEntryPath converts "a.b.Foo" into the archive entry "a/b/Foo.class".
func ClassEntryPath(className string) string {
	return strings.ReplaceAll(className, ".", "/") + ClassSuffix
}

// SourceEntryPath converts "a.b.Foo" into "a/b/Foo.java". Nested class names
// map to the source file of their top-level class.
func SourceEntryPath(className string) string {
	return strings.ReplaceAll(TopLevelName(className), ".", "/") + SourceSuffix
}

// TopLevelName strips a nested-class suffix: "a.Outer$Inner" becomes "a.Outer".
func TopLevelName(className string) string {
	if i := strings.Index(className, "$"); i >= 0 {
		return className[:i]
	}
	return className
}

// SplitClassName returns the package and simple name of a fully-qualified class name.
func SplitClassName(className string) (string, string) {
	i := strings.LastIndex(className, ".")
	if i < 0 {
		return "", className
	}
	return className[:i], className[i+1:]
}
