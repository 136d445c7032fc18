package refs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	splice "github.com/oldnordic/splice"
	"github.com/oldnordic/splice/internal/lang"
)

func parseRust(t *testing.T, src string) *lang.Tree {
	t.Helper()
	tree, err := lang.Parse(context.Background(), []byte(src), splice.Rust)
	require.NoError(t, err)
	return tree
}

func TestModulePathForFile(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "widget", ModulePathForFile("/proj", "/proj/src/widget.rs"))
	assert.Equal(t, "foo::bar", ModulePathForFile("/proj", "/proj/src/foo/bar.rs"))
	assert.Equal(t, "foo", ModulePathForFile("/proj", "/proj/src/foo/mod.rs"))
}

func TestFindReferences_SameFileCallSite(t *testing.T) {
	t.Parallel()
	src := "fn greet() {}\n\nfn run() {\n    greet();\n}\n"
	tree := parseRust(t, src)
	defer tree.Close()

	target := splice.Symbol{File: "lib.rs", Name: "greet", Kind: splice.KindFunction, ByteStart: 0, ByteEnd: 14}
	trees := map[string]*lang.Tree{"lib.rs": tree}

	refsFound := FindReferences("/proj", target, "lib", trees)
	require.Len(t, refsFound, 1)
	assert.Equal(t, "lib.rs", refsFound[0].File)
	assert.Equal(t, []byte{}, refsFound[0].NewContent, "bare call expression-statement deletes to nothing")
}

func TestFindReferences_ExpressionPositionUsesUnitSentinel(t *testing.T) {
	t.Parallel()
	src := "fn greet() -> i32 { 1 }\n\nfn run() -> i32 {\n    greet() + 1\n}\n"
	tree := parseRust(t, src)
	defer tree.Close()

	target := splice.Symbol{File: "lib.rs", Name: "greet", Kind: splice.KindFunction, ByteStart: 0, ByteEnd: 23}
	trees := map[string]*lang.Tree{"lib.rs": tree}

	refsFound := FindReferences("/proj", target, "lib", trees)
	require.Len(t, refsFound, 1)
	assert.Equal(t, []byte("()"), refsFound[0].NewContent)
}

func TestFindReferences_ShadowedBindingExcluded(t *testing.T) {
	t.Parallel()
	src := "fn greet() {}\n\nfn run() {\n    let greet = 5;\n    let _ = greet;\n}\n"
	tree := parseRust(t, src)
	defer tree.Close()

	target := splice.Symbol{File: "lib.rs", Name: "greet", Kind: splice.KindFunction, ByteStart: 0, ByteEnd: 14}
	trees := map[string]*lang.Tree{"lib.rs": tree}

	refsFound := FindReferences("/proj", target, "lib", trees)
	assert.Len(t, refsFound, 0, "the second `greet` reads the shadowing let-binding, not the function")
}

func TestFindReferences_NestedFnItemShadowsOuterCall(t *testing.T) {
	t.Parallel()
	src := "fn greet() {}\n\nfn run() {\n    fn greet() {}\n    greet();\n}\n"
	tree := parseRust(t, src)
	defer tree.Close()

	target := splice.Symbol{File: "lib.rs", Name: "greet", Kind: splice.KindFunction, ByteStart: 0, ByteEnd: 14}
	trees := map[string]*lang.Tree{"lib.rs": tree}

	refsFound := FindReferences("/proj", target, "lib", trees)
	assert.Len(t, refsFound, 0, "the nested fn greet shadows the outer one for its whole enclosing block, not just after its declaration point")
}

func TestFindReferences_CrossFileViaImport(t *testing.T) {
	t.Parallel()
	libSrc := "pub fn greet() {}\n"
	mainSrc := "use crate::lib::greet;\n\nfn run() {\n    greet();\n}\n"

	libTree := parseRust(t, libSrc)
	defer libTree.Close()
	mainTree := parseRust(t, mainSrc)
	defer mainTree.Close()

	target := splice.Symbol{File: "src/lib.rs", Name: "greet", Kind: splice.KindFunction, ByteStart: 0, ByteEnd: 18}
	trees := map[string]*lang.Tree{
		"src/lib.rs":  libTree,
		"src/main.rs": mainTree,
	}

	refsFound := FindReferences("/proj", target, "lib", trees)
	require.Len(t, refsFound, 1)
	assert.Equal(t, "src/main.rs", refsFound[0].File)
}

func TestFindReferences_NonImportingFileExcluded(t *testing.T) {
	t.Parallel()
	libSrc := "pub fn greet() {}\n"
	otherSrc := "fn greet() {}\n\nfn run() {\n    greet();\n}\n"

	libTree := parseRust(t, libSrc)
	defer libTree.Close()
	otherTree := parseRust(t, otherSrc)
	defer otherTree.Close()

	target := splice.Symbol{File: "src/lib.rs", Name: "greet", Kind: splice.KindFunction, ByteStart: 0, ByteEnd: 18}
	trees := map[string]*lang.Tree{
		"src/lib.rs":   libTree,
		"src/other.rs": otherTree,
	}

	refsFound := FindReferences("/proj", target, "lib", trees)
	assert.Len(t, refsFound, 0, "other.rs declares its own unrelated greet and never imports lib::greet")
}
