package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cartograph/pkg/graphbuild"
	"github.com/kraklabs/cartograph/pkg/graphmodel"
	"github.com/kraklabs/cartograph/pkg/langsupport"
)

func newFile(id, path, language string) *graphmodel.File {
	return &graphmodel.File{ID: id, RepoRelativePath: path, Language: language}
}

// TestResolve_SingleFileInheritanceAndSuperCall mirrors the Kotlin
// single-file inheritance scenario: class Foo : Bar { fun f() { super.f() } }.
func TestResolve_SingleFileInheritanceAndSuperCall(t *testing.T) {
	g := graphbuild.NewGraph()
	file := newFile("file-1", "A.kt", "kotlin")
	require.NoError(t, g.AddFile(file))

	bar := &graphmodel.Definition{ID: "def-bar", FileID: file.ID, Kind: graphmodel.KindClass, FullyQualifiedName: "Bar", SimpleName: "Bar"}
	barF := &graphmodel.Definition{ID: "def-bar-f", FileID: file.ID, Kind: graphmodel.KindMethod, FullyQualifiedName: "Bar.f", SimpleName: "f", OwnerDefID: bar.ID}
	foo := &graphmodel.Definition{ID: "def-foo", FileID: file.ID, Kind: graphmodel.KindClass, FullyQualifiedName: "Foo", SimpleName: "Foo", ParentNames: []string{"Bar"}}
	fooF := &graphmodel.Definition{ID: "def-foo-f", FileID: file.ID, Kind: graphmodel.KindMethod, FullyQualifiedName: "Foo.f", SimpleName: "f", OwnerDefID: foo.ID}

	superRef := &graphmodel.Reference{ID: "ref-1", FileID: file.ID, EnclosingDefID: fooF.ID, NamePath: []string{"super", "f"}, KindHint: graphmodel.RefCall}

	require.NoError(t, g.AddExtraction(file, &langsupport.ExtractorOutput{
		Definitions: []*graphmodel.Definition{bar, barF, foo, fooF},
		References:  []*graphmodel.Reference{superRef},
	}))

	stats, err := New(g).Resolve()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.InheritsResolved)
	assert.Equal(t, 1, stats.ReferencesResolved)
	assert.Equal(t, 0, stats.ReferencesDropped)

	var sawInherits, sawCall bool
	for _, e := range g.Edges {
		if e.Label == graphmodel.EdgeInherits && e.SourceID == foo.ID && e.TargetID == bar.ID {
			sawInherits = true
		}
		if e.Label == graphmodel.EdgeCalls && e.SourceID == fooF.ID && e.TargetID == barF.ID {
			sawCall = true
		}
	}
	assert.True(t, sawInherits, "expected Foo INHERITS Bar")
	assert.True(t, sawCall, "expected Foo.f CALLS Bar.f via super")
}

// TestResolve_WildcardImportBindsContainerChildren mirrors scenario 3: a
// wildcard import binds every immediate child of the imported module into
// the importing file's name table.
func TestResolve_WildcardImportBindsContainerChildren(t *testing.T) {
	g := graphbuild.NewGraph()
	utilFile := newFile("file-util", "mod/util.py", "python")
	mainFile := newFile("file-main", "mod/main.py", "python")
	require.NoError(t, g.AddFile(utilFile))
	require.NoError(t, g.AddFile(mainFile))

	modUtil := &graphmodel.Definition{ID: "def-modutil", FileID: utilFile.ID, Kind: graphmodel.KindModule, FullyQualifiedName: "mod.util", SimpleName: "util"}
	helper := &graphmodel.Definition{ID: "def-helper", FileID: utilFile.ID, Kind: graphmodel.KindFunction, FullyQualifiedName: "mod.util.helper", SimpleName: "helper", OwnerDefID: modUtil.ID}
	require.NoError(t, g.AddExtraction(utilFile, &langsupport.ExtractorOutput{Definitions: []*graphmodel.Definition{modUtil, helper}}))

	wildcardImport := &graphmodel.Import{ID: "imp-1", FileID: mainFile.ID, RawSpec: "mod.util", IsWildcard: true}
	ref := &graphmodel.Reference{ID: "ref-1", FileID: mainFile.ID, NamePath: []string{"helper"}, KindHint: graphmodel.RefCall}
	require.NoError(t, g.AddExtraction(mainFile, &langsupport.ExtractorOutput{
		Imports:    []*graphmodel.Import{wildcardImport},
		References: []*graphmodel.Reference{ref},
	}))

	stats, err := New(g).Resolve()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ImportsResolved)
	assert.Equal(t, 1, stats.ReferencesResolved)

	var sawCall bool
	for _, e := range g.Edges {
		if e.Label == graphmodel.EdgeCalls && e.TargetID == helper.ID {
			sawCall = true
		}
	}
	assert.True(t, sawCall, "expected helper() to resolve to mod.util.helper")
}

// TestResolve_UnresolvableExternalReferenceIsDropped mirrors scenario 4: a
// reference to something with no matching in-project definition is dropped
// with a diagnostic, and no edge is written for it.
func TestResolve_UnresolvableExternalReferenceIsDropped(t *testing.T) {
	g := graphbuild.NewGraph()
	file := newFile("file-1", "main.py", "python")
	require.NoError(t, g.AddFile(file))

	ref := &graphmodel.Reference{ID: "ref-1", FileID: file.ID, NamePath: []string{"requests", "get"}, KindHint: graphmodel.RefCall}
	require.NoError(t, g.AddExtraction(file, &langsupport.ExtractorOutput{References: []*graphmodel.Reference{ref}}))

	stats, err := New(g).Resolve()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ReferencesDropped)
	assert.Empty(t, g.Edges)
	require.Len(t, g.Diagnostics, 1)
	assert.Equal(t, "reference_unresolved", g.Diagnostics[0].Kind)
}

// TestResolve_CrossFileJavaCall mirrors scenario 5: Main.main calling
// Outer().outerMethod() defined in another file resolves via the file's
// name table (no import needed within a single project/package).
func TestResolve_CrossFileJavaCall(t *testing.T) {
	g := graphbuild.NewGraph()
	outerFile := newFile("file-outer", "Outer.java", "java")
	mainFile := newFile("file-main", "Main.java", "java")
	require.NoError(t, g.AddFile(outerFile))
	require.NoError(t, g.AddFile(mainFile))

	outer := &graphmodel.Definition{ID: "def-outer", FileID: outerFile.ID, Kind: graphmodel.KindClass, FullyQualifiedName: "Outer", SimpleName: "Outer"}
	outerMethod := &graphmodel.Definition{ID: "def-outer-method", FileID: outerFile.ID, Kind: graphmodel.KindMethod, FullyQualifiedName: "Outer.outerMethod", SimpleName: "outerMethod", OwnerDefID: outer.ID}
	require.NoError(t, g.AddExtraction(outerFile, &langsupport.ExtractorOutput{Definitions: []*graphmodel.Definition{outer, outerMethod}}))

	main := &graphmodel.Definition{ID: "def-main", FileID: mainFile.ID, Kind: graphmodel.KindClass, FullyQualifiedName: "Main", SimpleName: "Main"}
	mainMain := &graphmodel.Definition{ID: "def-main-main", FileID: mainFile.ID, Kind: graphmodel.KindMethod, FullyQualifiedName: "Main.main", SimpleName: "main", OwnerDefID: main.ID}
	ref := &graphmodel.Reference{ID: "ref-1", FileID: mainFile.ID, EnclosingDefID: mainMain.ID, NamePath: []string{"Outer", "outerMethod"}, KindHint: graphmodel.RefCall}
	require.NoError(t, g.AddExtraction(mainFile, &langsupport.ExtractorOutput{
		Definitions: []*graphmodel.Definition{main, mainMain},
		References:  []*graphmodel.Reference{ref},
	}))

	stats, err := New(g).Resolve()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ReferencesResolved)

	var sawCall bool
	for _, e := range g.Edges {
		if e.Label == graphmodel.EdgeCalls && e.SourceID == mainMain.ID && e.TargetID == outerMethod.ID {
			sawCall = true
		}
	}
	assert.True(t, sawCall, "expected Main.main CALLS Outer.outerMethod")
}
