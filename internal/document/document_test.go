package document

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMappingPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	m := NewMapping()
	m.Set("zebra", int64(1))
	m.Set("apple", int64(2))
	m.Set("mango", int64(3))

	require.Equal(t, []string{"zebra", "apple", "mango"}, m.Keys())

	// Overwriting keeps the original position.
	m.Set("apple", int64(9))
	require.Equal(t, []string{"zebra", "apple", "mango"}, m.Keys())

	v, ok := m.Get("apple")
	require.True(t, ok)
	require.Equal(t, int64(9), v)
}

func TestMappingDelete(t *testing.T) {
	t.Parallel()

	m := NewMapping()
	m.Set("a", int64(1))
	m.Set("b", int64(2))
	m.Set("c", int64(3))
	m.Delete("b")

	require.Equal(t, []string{"a", "c"}, m.Keys())
	require.False(t, m.Has("b"))

	// Deleting an absent key is a no-op.
	m.Delete("b")
	require.Equal(t, 2, m.Len())
}

func TestMappingEqualConsidersKeyOrder(t *testing.T) {
	t.Parallel()

	a := NewMapping()
	a.Set("x", int64(1))
	a.Set("y", int64(2))

	b := NewMapping()
	b.Set("y", int64(2))
	b.Set("x", int64(1))

	require.False(t, a.Equal(b), "same entries in a different order must not compare equal")

	c := NewMapping()
	c.Set("x", int64(1))
	c.Set("y", int64(2))
	require.True(t, a.Equal(c))
}

func TestValueEqualDistinguishesNumericKinds(t *testing.T) {
	t.Parallel()

	require.False(t, ValueEqual(int64(2), float64(2)))
	require.True(t, ValueEqual(float64(2), float64(2)))
	require.True(t, ValueEqual([]any{int64(1), "a"}, []any{int64(1), "a"}))
	require.False(t, ValueEqual([]any{int64(1)}, []any{int64(1), int64(2)}))
}

func TestDocumentCloneIsDeep(t *testing.T) {
	t.Parallel()

	body := NewMapping()
	body.Set("basis", "sto-3g")
	doc := &Document{}
	doc.Append("version", "v1")
	doc.Append("Mole", body)

	clone := doc.Clone()
	require.True(t, doc.Equal(clone))

	// Mutating the clone must not leak into the original.
	clone.Blocks[1].Body.(*Mapping).Set("basis", "ccpvdz")
	v, _ := body.Get("basis")
	require.Equal(t, "sto-3g", v)
	require.False(t, doc.Equal(clone))
}

func TestDocumentNames(t *testing.T) {
	t.Parallel()

	doc := &Document{}
	doc.Append("Mole", NewMapping())
	doc.Append("HF", NewMapping())
	doc.Append("Gradients", nil)

	require.Equal(t, []string{"Mole", "HF", "Gradients"}, doc.Names())

	_, ok := doc.Get("HF")
	require.True(t, ok)
	_, ok = doc.Get("CCSD")
	require.False(t, ok)
}
