package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	splice "github.com/oldnordic/splice"
)

func symbols() []splice.Symbol {
	return []splice.Symbol{
		{File: "widget.rs", Name: "new", Kind: splice.KindMethod, ByteStart: 10, ByteEnd: 40},
		{File: "widget.rs", Name: "greet", Kind: splice.KindFunction, ByteStart: 50, ByteEnd: 90},
	}
}

func TestResolve_UniqueNameSucceeds(t *testing.T) {
	t.Parallel()
	src := NewInMemorySource("widget.rs", splice.Rust, symbols())
	sym, err := Resolve(src, Request{Name: "greet"})
	require.NoError(t, err)
	assert.Equal(t, "greet", sym.Name)
	assert.Equal(t, "widget.rs", sym.File)
}

func TestResolve_NotFound(t *testing.T) {
	t.Parallel()
	src := NewInMemorySource("widget.rs", splice.Rust, symbols())
	_, err := Resolve(src, Request{Name: "nonexistent"})
	require.Error(t, err)
	var nf *splice.SymbolNotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestResolve_AmbiguousSameFileOverload(t *testing.T) {
	t.Parallel()
	syms := []splice.Symbol{
		{File: "a.rs", Name: "run", Kind: splice.KindFunction, ByteStart: 0, ByteEnd: 10},
	}

	// InMemorySource is single-file by construction, so this checks that a
	// same-file overload is reported as ambiguous; ambiguity across files is
	// exercised against the persistent store by
	// TestEngine_PatchAmbiguousAcrossFiles in splice_test.go.
	multi := append(syms, splice.Symbol{File: "a.rs", Name: "run", Kind: splice.KindMethod, ByteStart: 20, ByteEnd: 30})
	src2 := NewInMemorySource("a.rs", splice.Rust, multi)
	_, err := Resolve(src2, Request{Name: "run"})
	require.Error(t, err)
	var amb *splice.AmbiguousSymbolError
	require.ErrorAs(t, err, &amb)
	assert.Len(t, amb.Candidates, 2)
}

func TestResolve_KindNarrowsToUnique(t *testing.T) {
	t.Parallel()
	multi := []splice.Symbol{
		{File: "a.rs", Name: "run", Kind: splice.KindFunction, ByteStart: 0, ByteEnd: 10},
		{File: "a.rs", Name: "run", Kind: splice.KindMethod, ByteStart: 20, ByteEnd: 30},
	}
	src := NewInMemorySource("a.rs", splice.Rust, multi)
	sym, err := Resolve(src, Request{Name: "run", Kind: splice.KindMethod})
	require.NoError(t, err)
	assert.Equal(t, splice.KindMethod, sym.Kind)
}

func TestResolve_FileRestrictionNoMatch(t *testing.T) {
	t.Parallel()
	src := NewInMemorySource("widget.rs", splice.Rust, symbols())
	_, err := Resolve(src, Request{Name: "greet", File: "other.rs"})
	require.Error(t, err)
	var nf *splice.SymbolNotFoundError
	assert.ErrorAs(t, err, &nf)
}
