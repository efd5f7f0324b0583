package graphbuild

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cartograph/pkg/graphmodel"
	"github.com/kraklabs/cartograph/pkg/langsupport"
)

func newTestFile(id, path, language string) *graphmodel.File {
	return &graphmodel.File{
		ID:               id,
		RepoRelativePath: path,
		Language:         language,
	}
}

func TestGraph_AddExtraction_BuildsClusters(t *testing.T) {
	g := NewGraph()
	file := newTestFile("file-1", "auth/session.rb", "ruby")
	require.NoError(t, g.AddFile(file))

	out := &langsupport.ExtractorOutput{
		Definitions: []*graphmodel.Definition{
			{ID: "def-1", FileID: file.ID, Kind: graphmodel.KindNamespace, FullyQualifiedName: "Authentication", SimpleName: "Authentication"},
		},
	}
	require.NoError(t, g.AddExtraction(file, out))

	cluster := g.Cluster("ruby", "Authentication")
	require.NotNil(t, cluster)
	assert.Len(t, cluster.Members, 1)
}

func TestGraph_AddExtraction_ReopenedModuleSharesCluster(t *testing.T) {
	g := NewGraph()
	fileA := newTestFile("file-a", "auth/token.rb", "ruby")
	fileB := newTestFile("file-b", "auth/session.rb", "ruby")
	require.NoError(t, g.AddFile(fileA))
	require.NoError(t, g.AddFile(fileB))

	require.NoError(t, g.AddExtraction(fileA, &langsupport.ExtractorOutput{
		Definitions: []*graphmodel.Definition{
			{ID: "def-a", FileID: fileA.ID, Kind: graphmodel.KindNamespace, FullyQualifiedName: "Authentication", SimpleName: "Authentication"},
		},
	}))
	require.NoError(t, g.AddExtraction(fileB, &langsupport.ExtractorOutput{
		Definitions: []*graphmodel.Definition{
			{ID: "def-b", FileID: fileB.ID, Kind: graphmodel.KindNamespace, FullyQualifiedName: "Authentication", SimpleName: "Authentication"},
		},
	}))

	cluster := g.Cluster("ruby", "Authentication")
	require.NotNil(t, cluster)
	assert.Len(t, cluster.Members, 2)
}

func TestGraph_AddExtraction_DuplicateDefinitionIDIsError(t *testing.T) {
	g := NewGraph()
	file := newTestFile("file-1", "pkg/a.go", "go")
	require.NoError(t, g.AddFile(file))

	def := &graphmodel.Definition{ID: "dup", FileID: file.ID, Kind: graphmodel.KindFunction, FullyQualifiedName: "F", SimpleName: "F"}
	require.NoError(t, g.AddExtraction(file, &langsupport.ExtractorOutput{Definitions: []*graphmodel.Definition{def}}))

	err := g.AddExtraction(file, &langsupport.ExtractorOutput{Definitions: []*graphmodel.Definition{def}})
	assert.Error(t, err)
}

func TestGraph_FinalizeContainment_NoCycles(t *testing.T) {
	g := NewGraph()
	root := &graphmodel.Directory{ID: "dir-root", AbsPath: "/repo"}
	sub := &graphmodel.Directory{ID: "dir-sub", AbsPath: "/repo/pkg", ParentDirID: root.ID}
	g.AddDirectory(root)
	g.AddDirectory(sub)

	file := newTestFile("file-1", "pkg/a.go", "go")
	file.ParentDirID = sub.ID
	require.NoError(t, g.AddFile(file))

	class := &graphmodel.Definition{ID: "def-class", FileID: file.ID, Kind: graphmodel.KindClass, FullyQualifiedName: "A", SimpleName: "A"}
	method := &graphmodel.Definition{ID: "def-method", FileID: file.ID, Kind: graphmodel.KindMethod, FullyQualifiedName: "A.F", SimpleName: "F", OwnerDefID: class.ID}
	require.NoError(t, g.AddExtraction(file, &langsupport.ExtractorOutput{Definitions: []*graphmodel.Definition{class, method}}))

	g.FinalizeContainment()

	parentOf := make(map[string]string)
	for _, e := range g.Edges {
		require.Equal(t, graphmodel.EdgeContains, e.Label)
		parentOf[e.TargetID] = e.SourceID
	}

	assert.Equal(t, root.ID, parentOf[sub.ID])
	assert.Equal(t, sub.ID, parentOf[file.ID])
	assert.Equal(t, file.ID, parentOf[class.ID])
	assert.Equal(t, class.ID, parentOf[method.ID])

	seen := map[string]bool{}
	node := method.ID
	for {
		if seen[node] {
			t.Fatalf("cycle detected through %s", node)
		}
		seen[node] = true
		next, ok := parentOf[node]
		if !ok {
			break
		}
		node = next
	}
}

func TestChangeSet_UnchangedDetectsContentHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "changeset.json")

	cs, err := LoadChangeSet(path)
	require.NoError(t, err)

	hash := ContentHash([]byte("package main"))
	assert.False(t, cs.Unchanged("main.go", hash), "first run has no prior hash")
	require.NoError(t, cs.Save())

	cs2, err := LoadChangeSet(path)
	require.NoError(t, err)
	assert.True(t, cs2.Unchanged("main.go", hash))
	assert.False(t, cs2.Unchanged("main.go", ContentHash([]byte("package main\n\nfunc main() {}"))))
}
