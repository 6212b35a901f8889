package search_test

import (
	"context"
	"errors"
	"mvnsrc-cli/internal/archive"
	"mvnsrc-cli/internal/coordinate"
	"mvnsrc-cli/internal/domain"
	"mvnsrc-cli/internal/search"
	"mvnsrc-cli/internal/testutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func libCoord(version string) domain.Coordinate {
	return domain.Coordinate{GroupID: "org.example", ArtifactID: "lib", Version: version}
}

func TestSearch_DeduplicatesAcrossArchives(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	testutil.WriteArtifact(t, root, "org.example", "lib", "1.0", map[string][]byte{
		"org/example/Foo.class":       testutil.ClassBytes(52, 16),
		"org/example/Foo$Inner.class": testutil.ClassBytes(52, 16),
		"org/example/Bar.class":       testutil.ClassBytes(52, 16),
	})
	testutil.WriteSources(t, root, "org.example", "lib", "1.0", map[string][]byte{
		"org/example/Foo.java": []byte("public class Foo {}"),
	})
	artifact := coordinate.Probe(root, libCoord("1.0"))

	s := search.NewSearcher(archive.NewInspector(), zap.NewNop())
	results, err := s.Search(context.Background(), []domain.Artifact{artifact}, "foo")
	require.NoError(t, err)

	var foo []domain.ClassSearchResult
	for _, r := range results {
		if r.FullClassName == "org.example.Foo" {
			foo = append(foo, r)
		}
	}
	require.Len(t, foo, 1)
	assert.Equal(t, domain.SourceTypeSourceArchive, foo[0].SourceType)
	assert.Equal(t, "Foo", foo[0].ClassName)
	assert.Equal(t, "org.example", foo[0].PackageName)

	// nested classes take part in raw search
	assert.Len(t, results, 2)
	assert.Equal(t, "org.example.Foo$Inner", results[1].FullClassName)
	assert.Equal(t, domain.SourceTypeDecompiled, results[1].SourceType)
}

func TestSearch_SkipsUnreadableArchive(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	broken := testutil.WriteArtifact(t, root, "org.example", "broken", "1.0", map[string][]byte{})
	require.NoError(t, os.WriteFile(broken, []byte("not a zip"), 0o600))
	testutil.WriteArtifact(t, root, "org.example", "lib", "1.0", map[string][]byte{
		"org/example/Foo.class": testutil.ClassBytes(52, 16),
	})

	artifacts := []domain.Artifact{
		coordinate.Probe(root, domain.Coordinate{GroupID: "org.example", ArtifactID: "broken", Version: "1.0"}),
		coordinate.Probe(root, libCoord("1.0")),
	}

	results, err := search.NewSearcher(archive.NewInspector(), zap.NewNop()).Search(context.Background(), artifacts, "FOO")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "lib", results[0].Artifact.ArtifactID)
}

func TestSearchLatest(t *testing.T) {
	t.Parallel()
	tree := domain.RepositoryTree{Groups: map[string]domain.GroupTree{
		"org.example": {
			GroupID: "org.example",
			Artifacts: map[string]domain.ArtifactVersions{
				"lib":    {Versions: []string{"1.0", "2.0"}, LatestVersion: "2.0"},
				"broken": {Versions: []string{"1.0"}, LatestVersion: "1.0"},
			},
		},
	}}

	var requested []string
	structure := func(_ context.Context, coord domain.Coordinate) (*domain.DependencyStructure, error) {
		requested = append(requested, coord.Key())
		if coord.ArtifactID == "broken" {
			return nil, errors.New("boom")
		}
		return &domain.DependencyStructure{
			Coordinate: coord,
			Classes:    []string{"org.example.FooBar", "org.example.Baz"},
			HasSource:  true,
		}, nil
	}

	results, err := search.NewSearcher(archive.NewInspector(), zap.NewNop()).
		SearchLatest(context.Background(), tree, structure, "bar")
	require.NoError(t, err)

	assert.Equal(t, []string{"org.example:broken:1.0", "org.example:lib:2.0"}, requested)
	require.Len(t, results, 1)
	assert.Equal(t, "org.example.FooBar", results[0].FullClassName)
	assert.Equal(t, "2.0", results[0].Artifact.Version)
	assert.Equal(t, domain.SourceTypeSourceArchive, results[0].SourceType)
}

func TestMatches(t *testing.T) {
	t.Parallel()

	assert.True(t, search.Matches("org.example.StringUtils", "stringu"))
	assert.False(t, search.Matches("org.example.Foo", "example"), "package path is not matched")
}
