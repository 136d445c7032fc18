package splice

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldnordic/splice/internal/resolve"
)

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	root := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "splice.db")
	e, err := Open(root, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e, root
}

func writeRustFile(t *testing.T, root, name, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	return name
}

func TestEngine_IndexWorkspaceAndPatch(t *testing.T) {
	t.Parallel()
	e, root := newTestEngine(t)
	ctx := context.Background()

	rel := writeRustFile(t, root, "lib.rs", "fn greet() -> i32 {\n    1\n}\n")
	require.NoError(t, e.IndexWorkspace(ctx, []string{rel}))

	result, err := e.Patch(ctx, resolveRequest("greet"), []byte("fn greet() -> i32 {\n    2\n}\n"), BatchOptions{Language: Rust})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)

	after, err := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, err)
	assert.Equal(t, "fn greet() -> i32 {\n    2\n}\n", string(after))
}

func TestEngine_PatchAmbiguousAcrossFiles(t *testing.T) {
	t.Parallel()
	e, root := newTestEngine(t)
	ctx := context.Background()

	a := writeRustFile(t, root, "a.rs", "fn helper() -> i32 { 1 }\n")
	b := writeRustFile(t, root, "b.rs", "fn helper() -> i32 { 2 }\n")
	require.NoError(t, e.IndexWorkspace(ctx, []string{a, b}))

	_, err := e.Patch(ctx, resolveRequest("helper"), []byte("fn helper() -> i32 { 3 }\n"), BatchOptions{Language: Rust})
	require.Error(t, err)
	var ambiguous *AmbiguousSymbolError
	assert.ErrorAs(t, err, &ambiguous)
}

func TestEngine_DeleteRemovesCrossFileReferences(t *testing.T) {
	t.Parallel()
	e, root := newTestEngine(t)
	ctx := context.Background()

	lib := writeRustFile(t, root, "lib.rs", "pub fn widget() -> i32 {\n    1\n}\n")
	main := writeRustFile(t, root, "main.rs", "use crate::widget;\n\nfn run() -> i32 {\n    widget()\n}\n")
	require.NoError(t, e.IndexWorkspace(ctx, []string{lib, main}))

	_, err := e.Delete(ctx, resolveRequest("widget"), BatchOptions{Language: Rust})
	require.NoError(t, err)

	libAfter, err := os.ReadFile(filepath.Join(root, lib))
	require.NoError(t, err)
	assert.NotContains(t, string(libAfter), "pub fn widget")

	mainAfter, err := os.ReadFile(filepath.Join(root, main))
	require.NoError(t, err)
	assert.NotContains(t, string(mainAfter), "widget()")
}

func TestEngine_UndoRestoresBackedUpBytes(t *testing.T) {
	t.Parallel()
	e, root := newTestEngine(t)
	ctx := context.Background()

	rel := writeRustFile(t, root, "lib.rs", "fn greet() -> i32 {\n    1\n}\n")
	require.NoError(t, e.IndexWorkspace(ctx, []string{rel}))

	result, err := e.Patch(ctx, resolveRequest("greet"), []byte("fn greet() -> i32 {\n    2\n}\n"), BatchOptions{
		Language:     Rust,
		CreateBackup: true,
		OperationID:  "op-undo",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Files)

	manifestPath := filepath.Join(root, ".splice-backup", "op-undo")
	entries, err := os.ReadDir(manifestPath)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	manifest := &BackupManifest{
		OperationID: "op-undo",
		Files: []BackupEntry{
			{Path: rel, OriginalHash: "", BackupPath: filepath.Join(manifestPath, entries[0].Name())},
		},
	}

	require.NoError(t, e.Undo(manifest, true))

	after, err := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, err)
	assert.Equal(t, "fn greet() -> i32 {\n    1\n}\n", string(after))
}

func resolveRequest(name string) resolve.Request {
	return resolve.Request{Name: name}
}
