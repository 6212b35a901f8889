// Package testutil builds on-disk repository fixtures for tests.
package testutil

import (
	"encoding/binary"
	"mvnsrc-cli/internal/coordinate"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// WriteJar writes a zip archive holding entries at path, creating parent directories.
// Entries are written in sorted name order.
func WriteJar(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(entries[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

// WriteArtifact writes the main archive of a coordinate under root and returns its path.
func WriteArtifact(t *testing.T, root, groupID, artifactID, version string, entries map[string][]byte) string {
	t.Helper()
	path := coordinate.ResolvePath(root, groupID, artifactID, version, "")
	WriteJar(t, path, entries)
	return path
}

// WriteSources writes the source archive of a coordinate under root and returns its path.
func WriteSources(t *testing.T, root, groupID, artifactID, version string, entries map[string][]byte) string {
	t.Helper()
	path := coordinate.ResolvePath(root, groupID, artifactID, version, coordinate.SourcesClassifier)
	WriteJar(t, path, entries)
	return path
}

// ClassBytes returns a minimal compiled-class header with the given major version,
// padded to size bytes (at least 10).
func ClassBytes(major uint16, size int) []byte {
	if size < 10 {
		size = 10
	}
	data := make([]byte, size)
	binary.BigEndian.PutUint32(data[0:4], 0xCAFEBABE)
	binary.BigEndian.PutUint16(data[4:6], 0)
	binary.BigEndian.PutUint16(data[6:8], major)
	binary.BigEndian.PutUint16(data[8:10], 12)
	return data
}
