package patch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	splice "github.com/oldnordic/splice"
)

func writeFixture(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return name
}

func TestApplyBatch_EmptyBatchReturnsEmptyFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	e := New(root)

	result, err := e.ApplyBatch(context.Background(), splice.Batch{}, splice.BatchOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Files)
}

func TestApplyBatch_SimpleReplacementSucceeds(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	rel := writeFixture(t, root, "lib.rs", "fn greet() -> i32 {\n    1\n}\n")
	e := New(root)

	src := []byte("fn greet() -> i32 {\n    1\n}\n")
	start := indexOf(src, "1")
	batch := splice.Batch{Replacements: []splice.SpanReplacement{
		{File: rel, ByteStart: start, ByteEnd: start + 1, NewContent: []byte("2")},
	}}

	result, err := e.ApplyBatch(context.Background(), batch, splice.BatchOptions{Language: splice.Rust})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Nil(t, result.PreviewReport)

	after, err := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, err)
	assert.Equal(t, "fn greet() -> i32 {\n    2\n}\n", string(after))
}

func TestApplyBatch_SyntaxGateFailureRollsBack(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	original := "fn greet() -> i32 {\n    1\n}\n"
	rel := writeFixture(t, root, "lib.rs", original)
	e := New(root)

	src := []byte(original)
	start := indexOf(src, "{")
	// Replace the opening brace with garbage that cannot re-parse cleanly.
	batch := splice.Batch{Replacements: []splice.SpanReplacement{
		{File: rel, ByteStart: start, ByteEnd: start + 1, NewContent: []byte("@@@")},
	}}

	_, err := e.ApplyBatch(context.Background(), batch, splice.BatchOptions{Language: splice.Rust})
	require.Error(t, err)
	var parseErr *splice.ParseValidationFailedError
	assert.ErrorAs(t, err, &parseErr)

	after, readErr := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, readErr)
	assert.Equal(t, original, string(after), "file must be restored to its pre-batch bytes after rollback")
}

func TestApplyBatch_MultiFileRollsBackBothFilesTogether(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	originalA := "fn greet() -> i32 {\n    1\n}\n"
	originalB := "fn farewell() -> i32 {\n    1\n}\n"
	relA := writeFixture(t, root, "a.rs", originalA)
	relB := writeFixture(t, root, "b.rs", originalB)
	e := New(root)

	startA := indexOf([]byte(originalA), "1")
	startB := indexOf([]byte(originalB), "{")
	batch := splice.Batch{Replacements: []splice.SpanReplacement{
		// a.rs: a valid edit on its own.
		{File: relA, ByteStart: startA, ByteEnd: startA + 1, NewContent: []byte("2")},
		// b.rs: replaces the opening brace with garbage that cannot re-parse.
		{File: relB, ByteStart: startB, ByteEnd: startB + 1, NewContent: []byte("@@@")},
	}}

	_, err := e.ApplyBatch(context.Background(), batch, splice.BatchOptions{Language: splice.Rust})
	require.Error(t, err)
	var parseErr *splice.ParseValidationFailedError
	assert.ErrorAs(t, err, &parseErr)

	afterA, readErr := os.ReadFile(filepath.Join(root, relA))
	require.NoError(t, readErr)
	assert.Equal(t, originalA, string(afterA), "a.rs must roll back even though its own edit was syntactically valid")

	afterB, readErr := os.ReadFile(filepath.Join(root, relB))
	require.NoError(t, readErr)
	assert.Equal(t, originalB, string(afterB), "b.rs must roll back to its pre-batch bytes")
}

func TestApplyBatch_PreviewDoesNotTouchDisk(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	original := "fn greet() -> i32 {\n    1\n}\n"
	rel := writeFixture(t, root, "lib.rs", original)
	e := New(root)

	src := []byte(original)
	start := indexOf(src, "1")
	batch := splice.Batch{Replacements: []splice.SpanReplacement{
		{File: rel, ByteStart: start, ByteEnd: start + 1, NewContent: []byte("999")},
	}}

	result, err := e.ApplyBatch(context.Background(), batch, splice.BatchOptions{Language: splice.Rust, Preview: true})
	require.NoError(t, err)
	require.NotNil(t, result.PreviewReport)
	assert.Equal(t, 2, result.PreviewReport.BytesAdded)

	after, readErr := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, readErr)
	assert.Equal(t, original, string(after), "preview mode must never write to disk")
}

func TestApplyBatch_UnalignedSpanRejected(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	rel := writeFixture(t, root, "lib.rs", "caf\xc3\xa9")
	e := New(root)

	batch := splice.Batch{Replacements: []splice.SpanReplacement{
		{File: rel, ByteStart: 4, ByteEnd: 5, NewContent: []byte("x")},
	}}

	_, err := e.ApplyBatch(context.Background(), batch, splice.BatchOptions{Language: splice.Rust})
	require.Error(t, err)
	var unaligned *splice.UnalignedSpanError
	assert.ErrorAs(t, err, &unaligned)
}

func TestApplyBatch_OverlappingReplacementsRejected(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	rel := writeFixture(t, root, "lib.rs", "fn greet() -> i32 { 1 }\n")
	e := New(root)

	batch := splice.Batch{Replacements: []splice.SpanReplacement{
		{File: rel, ByteStart: 0, ByteEnd: 10, NewContent: []byte("x")},
		{File: rel, ByteStart: 5, ByteEnd: 15, NewContent: []byte("y")},
	}}

	_, err := e.ApplyBatch(context.Background(), batch, splice.BatchOptions{Language: splice.Rust})
	require.Error(t, err)
	var unaligned *splice.UnalignedSpanError
	assert.ErrorAs(t, err, &unaligned)
}

func TestApplyBatch_BackupManifestRecordsOriginalBytes(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	original := "fn greet() -> i32 {\n    1\n}\n"
	rel := writeFixture(t, root, "lib.rs", original)
	e := New(root)

	src := []byte(original)
	start := indexOf(src, "1")
	batch := splice.Batch{Replacements: []splice.SpanReplacement{
		{File: rel, ByteStart: start, ByteEnd: start + 1, NewContent: []byte("2")},
	}}

	opts := splice.BatchOptions{Language: splice.Rust, CreateBackup: true, OperationID: "op-1"}
	_, err := e.ApplyBatch(context.Background(), batch, opts)
	require.NoError(t, err)

	manifestDir := filepath.Join(root, ".splice-backup", "op-1")
	entries, err := os.ReadDir(manifestDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	backedUp, err := os.ReadFile(filepath.Join(manifestDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, original, string(backedUp))
}

func TestPatternReplace_SkipsMatchInsideStringLiteral(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	rel := writeFixture(t, root, "lib.rs", "fn greet() -> &'static str {\n    \"old\"\n}\nfn old() {}\n")
	e := New(root)

	result, err := e.PatternReplace(context.Background(), []string{rel}, "old", "new", splice.Rust, splice.BatchOptions{Language: splice.Rust})
	require.NoError(t, err)

	after, readErr := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, readErr)
	assert.Contains(t, string(after), "\"old\"", "match inside a string literal must be left untouched")
	assert.Contains(t, string(after), "fn new()", "match outside any string/comment token must be replaced")
	assert.Contains(t, result.Modified, rel)
}

func indexOf(src []byte, substr string) int {
	for i := 0; i+len(substr) <= len(src); i++ {
		if string(src[i:i+len(substr)]) == substr {
			return i
		}
	}
	return -1
}
