package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/debruijn/kmer"
)

func newTestGraph(t *testing.T, k, minCapacity, numColors int) *Graph {
	codec, err := kmer.NewCodec(k)
	require.NoError(t, err)
	g, err := New(codec, minCapacity, numColors, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func TestSplitContigs(t *testing.T) {
	assert.Equal(t, []string{"ACGT", "GGCC"}, splitContigs("ACGTNGGCC"))
	assert.Equal(t, []string{"ACGT"}, splitContigs("ACGT"))
	assert.Nil(t, splitContigs("NNNN"))
	assert.Equal(t, []string{"A", "C"}, splitContigs("ANC"))
}

func TestBuilderLoadsLinearContig(t *testing.T) {
	g := newTestGraph(t, 5, 64, 1)
	b, err := NewBuilder(g, 0, false)
	require.NoError(t, err)

	require.NoError(t, b.AddRead("ACCAGTTGA"))
	stats := b.Stats()
	assert.EqualValues(t, 9, stats.BasesRead)
	assert.EqualValues(t, 5, stats.KmersLoaded) // 9-5+1 windows
	assert.EqualValues(t, 5, stats.KmersNovel)

	first, err := g.Codec.Pack("ACCAG")
	require.NoError(t, err)
	h := g.Table.Find(first)
	require.NotEqual(t, NotFound, h)
	assert.EqualValues(t, 1, g.Colors.Coverage(h, 0))
}

func TestBuilderSkipsShortContigs(t *testing.T) {
	g := newTestGraph(t, 21, 64, 1)
	b, err := NewBuilder(g, 0, false)
	require.NoError(t, err)
	require.NoError(t, b.AddRead("ACGT"))
	assert.EqualValues(t, 0, b.Stats().KmersLoaded)
}

func TestBuilderStrictModeRejectsInvalidBase(t *testing.T) {
	g := newTestGraph(t, 5, 64, 1)
	b, err := NewBuilder(g, 0, true)
	require.NoError(t, err)
	err = b.AddRead("ACGTRCGTA")
	assert.Error(t, err)
}

func TestBuilderEdgesBothDirections(t *testing.T) {
	g := newTestGraph(t, 5, 64, 1)
	b, err := NewBuilder(g, 0, false)
	require.NoError(t, err)
	require.NoError(t, b.AddRead("ACGTACGTA"))

	w1, err := g.Codec.Pack("ACGTA")
	require.NoError(t, err)
	w2, err := g.Codec.Pack("CGTAC")
	require.NoError(t, err)
	h1 := g.Table.Find(w1)
	h2 := g.Table.Find(w2)
	require.NotEqual(t, NotFound, h1)
	require.NotEqual(t, NotFound, h2)

	got := g.Table.NeighborLookup(h1, kmer.Forward, kmer.C)
	assert.Equal(t, h2, got)
}

func TestBuildFromReadsAggregatesStats(t *testing.T) {
	g := newTestGraph(t, 5, 256, 1)
	reads := []string{"ACGTACGTA", "GGGGGCCCCC", "TTTTT"}
	stats, err := BuildFromReads(g, 0, reads, 4)
	require.NoError(t, err)
	assert.Greater(t, stats.KmersLoaded, int64(0))
}

func TestBuilderRejectsBadColor(t *testing.T) {
	g := newTestGraph(t, 5, 64, 2)
	_, err := NewBuilder(g, 5, false)
	assert.Error(t, err)
}
