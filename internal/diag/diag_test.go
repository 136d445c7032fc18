package diag

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	splice "github.com/oldnordic/splice"
)

func TestParseCargo_ErrorWithLocation(t *testing.T) {
	t.Parallel()
	stdout := "error[E0308]: mismatched types\n  --> src/lib.rs:4:5\n  |\n"
	records := parseCargo("cargo", stdout, "")
	require.Len(t, records, 1)
	assert.Equal(t, splice.LevelError, records[0].Level)
	assert.Equal(t, "E0308", records[0].Code)
	assert.Equal(t, "src/lib.rs", records[0].File)
	assert.Equal(t, 4, records[0].Line)
	assert.Equal(t, 5, records[0].Column)
}

func TestParseCargo_WarningOnlyIsNotError(t *testing.T) {
	t.Parallel()
	stdout := "warning: unused variable: `x`\n  --> src/lib.rs:2:9\n"
	records := parseCargo("cargo", stdout, "")
	require.Len(t, records, 1)
	assert.Equal(t, splice.LevelWarning, records[0].Level)
	assert.False(t, HasErrors(records))
}

func TestParseClang_SyntaxError(t *testing.T) {
	t.Parallel()
	stderr := "foo.c:3:10: error: expected ';' after expression\n"
	records := parseClang("clang", "", stderr)
	require.Len(t, records, 1)
	assert.Equal(t, "foo.c", records[0].File)
	assert.Equal(t, 3, records[0].Line)
	assert.Equal(t, 10, records[0].Column)
	assert.True(t, HasErrors(records))
}

func TestParseJavac_Error(t *testing.T) {
	t.Parallel()
	stderr := "Foo.java:5: error: ';' expected\n"
	records := parseJavac("javac", "", stderr)
	require.Len(t, records, 1)
	assert.Equal(t, 5, records[0].Line)
}

func TestParseTSC_Error(t *testing.T) {
	t.Parallel()
	stdout := "index.ts(10,3): error TS2322: Type 'number' is not assignable to type 'string'.\n"
	records := parseTSC("tsc", stdout, "")
	require.Len(t, records, 1)
	assert.Equal(t, "TS2322", records[0].Code)
	assert.Equal(t, 10, records[0].Line)
	assert.Equal(t, 3, records[0].Column)
}

func TestParseGeneric_EmptyOutputIsClean(t *testing.T) {
	t.Parallel()
	assert.Nil(t, parseGeneric("node", "", ""))
}

func TestParseGeneric_NonEmptyIsOneError(t *testing.T) {
	t.Parallel()
	records := parseGeneric("node", "", "SyntaxError: Unexpected token\n")
	require.Len(t, records, 1)
	assert.Equal(t, splice.LevelError, records[0].Level)
}

func TestNearestTSConfigRoot_FindsAncestor(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	sub := filepath.Join(root, "src", "components")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "tsconfig.json"), []byte("{}"), 0o644))

	file := filepath.Join(sub, "widget.ts")
	assert.Equal(t, root, nearestTSConfigRoot(file))
}

func TestNearestTSConfigRoot_NoneFound(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	file := filepath.Join(root, "widget.ts")
	assert.Equal(t, "", nearestTSConfigRoot(file))
}

func TestHasErrors(t *testing.T) {
	t.Parallel()
	assert.False(t, HasErrors(nil))
	assert.False(t, HasErrors([]splice.DiagnosticRecord{{Level: splice.LevelWarning}}))
	assert.True(t, HasErrors([]splice.DiagnosticRecord{{Level: splice.LevelWarning}, {Level: splice.LevelError}}))
}
