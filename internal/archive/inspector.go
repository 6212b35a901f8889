package archive

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"mvnsrc-cli/internal/coordinate"
	"mvnsrc-cli/internal/domain"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ErrEntryNotFound is returned by ExtractEntry when the archive lacks the entry.
// It wraps domain.ErrClassNotFound.
var ErrEntryNotFound = fmt.Errorf("entry not found: %w", domain.ErrClassNotFound)

// Inspector reads zip-format archives. It holds no state; every call reopens the archive.
type Inspector struct{}

// NewInspector creates a new archive inspector
func NewInspector() *Inspector {
	return &Inspector{}
}

func open(archivePath string) (*zip.ReadCloser, error) {
	rc, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w: %w", archivePath, domain.ErrArchiveUnreadable, err)
	}
	return rc, nil
}

// ListEntries yields the names of file entries ending in suffix. An empty suffix
// yields every file entry. The sequence is single-use and stops at the first error.
func (i *Inspector) ListEntries(archivePath, suffix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		rc, err := open(archivePath)
		if err != nil {
			yield("", err)
			return
		}
		defer rc.Close()

		for _, f := range rc.File {
			if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, suffix) {
				continue
			}
			if !yield(f.Name, nil) {
				return
			}
		}
	}
}

// ListClasses returns sorted, deduplicated top-level class names of compiled entries.
func (i *Inspector) ListClasses(archivePath string) ([]string, error) {
	return i.collect(archivePath, coordinate.ClassSuffix, true)
}

// ListRawClasses is ListClasses including nested and anonymous classes.
func (i *Inspector) ListRawClasses(archivePath string) ([]string, error) {
	return i.collect(archivePath, coordinate.ClassSuffix, false)
}

// ListSources returns sorted class names derived from source file entries.
func (i *Inspector) ListSources(archivePath string) ([]string, error) {
	return i.collect(archivePath, coordinate.SourceSuffix, false)
}

func (i *Inspector) collect(archivePath, suffix string, skipNested bool) ([]string, error) {
	seen := make(map[string]bool)
	var names []string
	for entry, err := range i.ListEntries(archivePath, suffix) {
		if err != nil {
			return nil, err
		}
		name := ClassNameFromEntry(entry, suffix)
		if skipNested && IsNested(name) {
			continue
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ExtractEntry reads one entry fully into memory.
func (i *Inspector) ExtractEntry(archivePath, entryName string) ([]byte, error) {
	rc, err := open(archivePath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	for _, f := range rc.File {
		if f.Name != entryName {
			continue
		}
		r, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open entry %s: %w: %w", entryName, domain.ErrArchiveUnreadable, err)
		}
		defer r.Close()

		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read entry %s: %w: %w", entryName, domain.ErrArchiveUnreadable, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s in %s: %w", entryName, archivePath, ErrEntryNotFound)
}

// HasEntry reports whether the archive contains entryName. Open failures are returned.
func (i *Inspector) HasEntry(archivePath, entryName string) (bool, error) {
	for entry, err := range i.ListEntries(archivePath, "") {
		if err != nil {
			return false, err
		}
		if entry == entryName {
			return true, nil
		}
	}
	return false, nil
}

// IsEntryNotFound reports whether err came from a missing entry.
func IsEntryNotFound(err error) bool {
	return errors.Is(err, ErrEntryNotFound)
}

// ClassNameFromEntry turns "a/b/Foo.class" into "a.b.Foo".
func ClassNameFromEntry(entry, suffix string) string {
	return strings.ReplaceAll(strings.TrimSuffix(entry, suffix), "/", ".")
}

// IsNested reports whether a class name denotes a nested or anonymous class.
func IsNested(className string) bool {
	return strings.Contains(className, "$")
}
