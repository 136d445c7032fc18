package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	splice "github.com/oldnordic/splice"
)

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadBatches_InlineContent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeManifest(t, dir, "batch.json", `{
		"batches": [
			{ "replacements": [
				{ "file": "lib.rs", "start": 4, "end": 9, "content": "greet" }
			] }
		]
	}`)

	batches, err := LoadBatches(path)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Len(t, batches[0].Replacements, 1)

	r := batches[0].Replacements[0]
	assert.Equal(t, filepath.Join(dir, "lib.rs"), r.File)
	assert.Equal(t, 4, r.ByteStart)
	assert.Equal(t, 9, r.ByteEnd)
	assert.Equal(t, "greet", string(r.NewContent))
}

func TestLoadBatches_WithFileResolvesRelativeToManifestDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new_body.txt"), []byte("2"), 0o644))
	path := writeManifest(t, dir, "batch.json", `{
		"batches": [
			{ "replacements": [
				{ "file": "lib.rs", "start": 0, "end": 1, "with": "new_body.txt" }
			] }
		]
	}`)

	batches, err := LoadBatches(path)
	require.NoError(t, err)
	assert.Equal(t, "2", string(batches[0].Replacements[0].NewContent))
}

func TestLoadBatches_ContentAndWithMutuallyExclusive(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeManifest(t, dir, "batch.json", `{
		"batches": [
			{ "replacements": [
				{ "file": "lib.rs", "start": 0, "end": 1, "content": "x", "with": "y.txt" }
			] }
		]
	}`)

	_, err := LoadBatches(path)
	require.Error(t, err)
	var schemaErr *splice.InvalidBatchSchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestLoadBatches_MissingContentAndWithRejected(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeManifest(t, dir, "batch.json", `{
		"batches": [
			{ "replacements": [
				{ "file": "lib.rs", "start": 0, "end": 1 }
			] }
		]
	}`)

	_, err := LoadBatches(path)
	require.Error(t, err)
	var schemaErr *splice.InvalidBatchSchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestLoadBatches_MalformedJSONRejected(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeManifest(t, dir, "batch.json", `{ not valid json `)

	_, err := LoadBatches(path)
	require.Error(t, err)
	var schemaErr *splice.InvalidBatchSchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestLoadBatches_InvalidSpanRejected(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeManifest(t, dir, "batch.json", `{
		"batches": [
			{ "replacements": [
				{ "file": "lib.rs", "start": 9, "end": 4, "content": "x" }
			] }
		]
	}`)

	_, err := LoadBatches(path)
	require.Error(t, err)
	var schemaErr *splice.InvalidBatchSchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestLoadPlan_StepsResolveWithPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeManifest(t, dir, "plan.json", `{
		"steps": [
			{ "file": "lib.rs", "symbol": "greet", "with": "body.txt" },
			{ "file": "lib.rs", "symbol": "old_helper" }
		]
	}`)

	steps, err := LoadPlan(path)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, filepath.Join(dir, "body.txt"), steps[0].With)
	assert.Equal(t, "greet", steps[0].Symbol)
	assert.Empty(t, steps[1].With, "a step with no \"with\" field is a delete")
}

func TestLoadPlan_MissingSymbolRejected(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeManifest(t, dir, "plan.json", `{
		"steps": [
			{ "file": "lib.rs" }
		]
	}`)

	_, err := LoadPlan(path)
	require.Error(t, err)
	var schemaErr *splice.InvalidBatchSchemaError
	assert.ErrorAs(t, err, &schemaErr)
}
