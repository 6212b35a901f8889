package storage_test

import (
	"context"
	"mvnsrc-cli/internal/domain"
	"mvnsrc-cli/internal/storage"
	"mvnsrc-cli/internal/testutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var libCoord = domain.Coordinate{GroupID: "org.example", ArtifactID: "lib", Version: "1.0"}

func openStore(t *testing.T) (*storage.StructureStore, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "cache", "structures.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return storage.NewStructureStore(db, zap.NewNop()), db
}

// sampleRepository writes lib-1.0.jar under a fresh root and returns the root
// with a structure describing it
func sampleRepository(t *testing.T) (string, *domain.DependencyStructure) {
	t.Helper()
	root := t.TempDir()
	jar := testutil.WriteArtifact(t, root, "org.example", "lib", "1.0", map[string][]byte{
		"org/example/Foo.class": testutil.ClassBytes(52, 16),
	})
	return root, &domain.DependencyStructure{
		Coordinate:      libCoord,
		JarFiles:        []string{"lib-1.0.jar"},
		Classes:         []string{"org.example.Foo"},
		Packages:        []string{"org.example"},
		MainArchivePath: jar,
	}
}

func TestStructureStore_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := openStore(t)
	root, structure := sampleRepository(t)

	_, ok, err := store.Load(ctx, root, libCoord)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, root, structure))
	loaded, ok, err := store.Load(ctx, root+string(filepath.Separator), libCoord)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, structure, loaded)

	// upsert keeps one row
	structure.Classes = append(structure.Classes, "org.example.Bar")
	require.NoError(t, store.Save(ctx, root, structure))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStructureStore_RowsAreScopedByRoot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := openStore(t)

	rootA, structureA := sampleRepository(t)
	rootB, structureB := sampleRepository(t)
	structureB.Classes = []string{"org.example.Bar"}

	require.NoError(t, store.Save(ctx, rootA, structureA))

	_, ok, err := store.Load(ctx, rootB, libCoord)
	require.NoError(t, err)
	assert.False(t, ok, "another root must not see the row")

	require.NoError(t, store.Save(ctx, rootB, structureB))
	loadedA, ok, err := store.Load(ctx, rootA, libCoord)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"org.example.Foo"}, loadedA.Classes)

	loadedB, ok, err := store.Load(ctx, rootB, libCoord)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"org.example.Bar"}, loadedB.Classes)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStructureStore_StaleArchiveIsMiss(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := openStore(t)
	root, structure := sampleRepository(t)
	require.NoError(t, store.Save(ctx, root, structure))

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(structure.MainArchivePath, later, later))

	_, ok, err := store.Load(ctx, root, libCoord)
	require.NoError(t, err)
	assert.False(t, ok)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestStructureStore_AddedSourcesArchiveIsMiss(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := openStore(t)
	root, structure := sampleRepository(t)
	require.NoError(t, store.Save(ctx, root, structure))

	testutil.WriteSources(t, root, "org.example", "lib", "1.0", map[string][]byte{
		"org/example/Foo.java": []byte("package org.example;\npublic class Foo {}\n"),
	})

	_, ok, err := store.Load(ctx, root, libCoord)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFingerprint(t *testing.T) {
	t.Parallel()
	root, _ := sampleRepository(t)

	first := storage.Fingerprint(root, libCoord)
	assert.Contains(t, first, "lib-1.0.jar:")
	assert.Equal(t, first, storage.Fingerprint(root, libCoord))
	assert.Equal(t, "missing", storage.Fingerprint(root, domain.Coordinate{GroupID: "org.example", ArtifactID: "lib", Version: "9.9"}))

	testutil.WriteSources(t, root, "org.example", "lib", "1.0", map[string][]byte{"org/example/Foo.java": []byte("x")})
	assert.NotEqual(t, first, storage.Fingerprint(root, libCoord))
}

func TestStructureStore_DeleteAndClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := openStore(t)

	root, first := sampleRepository(t)
	otherRoot, second := sampleRepository(t)
	require.NoError(t, store.Save(ctx, root, first))
	require.NoError(t, store.Save(ctx, otherRoot, second))

	require.NoError(t, store.Delete(ctx, root, libCoord))
	_, ok, err := store.Load(ctx, root, libCoord)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.Load(ctx, otherRoot, libCoord)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Clear(ctx))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStructureStore_ReopenKeepsRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "structures.db")
	root, structure := sampleRepository(t)

	db, err := storage.Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, storage.NewStructureStore(db, zap.NewNop()).Save(ctx, root, structure))
	require.NoError(t, db.Close())

	db, err = storage.Open(path, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()
	_, ok, err := storage.NewStructureStore(db, zap.NewNop()).Load(ctx, root, libCoord)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNullStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	var store domain.StructureStore = storage.NullStore{}

	require.NoError(t, store.Save(ctx, "/repo", &domain.DependencyStructure{}))
	_, ok, err := store.Load(ctx, "/repo", libCoord)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, store.Delete(ctx, "/repo", libCoord))
}
