package span

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUTF8Boundary_StartAndEnd(t *testing.T) {
	t.Parallel()
	buf := []byte("hello")
	assert.True(t, IsUTF8Boundary(buf, 0))
	assert.True(t, IsUTF8Boundary(buf, len(buf)))
}

func TestIsUTF8Boundary_MultiByteRune(t *testing.T) {
	t.Parallel()
	// "é" is 0xC3 0xA9 — a 2-byte UTF-8 sequence.
	buf := []byte("caf\xc3\xa9")
	assert.True(t, IsUTF8Boundary(buf, 3), "byte before the multi-byte rune is a boundary")
	assert.False(t, IsUTF8Boundary(buf, 4), "continuation byte is not a boundary")
	assert.True(t, IsUTF8Boundary(buf, 5), "end of buffer is a boundary")
}

func TestIsUTF8Boundary_OutOfRange(t *testing.T) {
	t.Parallel()
	buf := []byte("hi")
	assert.False(t, IsUTF8Boundary(buf, -1))
	assert.False(t, IsUTF8Boundary(buf, 99))
}

func TestReplaceRange_PreservesSurroundingBytes(t *testing.T) {
	t.Parallel()
	buf := []byte("pub fn greet() { old() }")
	out, err := ReplaceRange(buf, 17, 22, []byte("new()"))
	require.NoError(t, err)
	assert.Equal(t, "pub fn greet() { new() }", string(out))
}

func TestReplaceRange_EmptyReplacementDeletesSpan(t *testing.T) {
	t.Parallel()
	buf := []byte("foo(bar);")
	out, err := ReplaceRange(buf, 4, 7, nil)
	require.NoError(t, err)
	assert.Equal(t, "foo();", string(out))
}

func TestReplaceRange_InvalidSpanErrors(t *testing.T) {
	t.Parallel()
	buf := []byte("abc")
	_, err := ReplaceRange(buf, 2, 1, nil)
	assert.Error(t, err)

	_, err = ReplaceRange(buf, 0, 10, nil)
	assert.Error(t, err)

	_, err = ReplaceRange(buf, -1, 2, nil)
	assert.Error(t, err)
}

func TestSHA256_Deterministic(t *testing.T) {
	t.Parallel()
	h1 := SHA256([]byte("hello"))
	h2 := SHA256([]byte("hello"))
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestSHA256_DifferentInputsDiffer(t *testing.T) {
	t.Parallel()
	assert.NotEqual(t, SHA256([]byte("hello")), SHA256([]byte("world")))
}

func TestSpan_Overlaps(t *testing.T) {
	t.Parallel()
	a := Span{Start: 10, End: 20}
	b := Span{Start: 15, End: 25}
	c := Span{Start: 20, End: 30}

	assert.True(t, a.Overlaps(b))
	assert.True(t, b.Overlaps(a))
	assert.False(t, a.Overlaps(c), "half-open ranges sharing only the boundary point do not overlap")
}

func TestSpan_Len(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 10, Span{Start: 5, End: 15}.Len())
}
