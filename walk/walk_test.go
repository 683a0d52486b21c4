package walk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/debruijn/dbgerr"
	"github.com/grailbio/debruijn/graph"
	"github.com/grailbio/debruijn/kmer"
	"github.com/grailbio/debruijn/links"
)

func newTestGraph(t *testing.T, k, minCapacity, numColors int) *graph.Graph {
	t.Helper()
	codec, err := kmer.NewCodec(k)
	require.NoError(t, err)
	g, err := graph.New(codec, minCapacity, numColors, 0.9)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func TestWalkLinearChainNoBranches(t *testing.T) {
	g := newTestGraph(t, 5, 64, 1)
	b, err := graph.NewBuilder(g, 0, false)
	require.NoError(t, err)
	require.NoError(t, b.AddRead("ACCAGTTGAC"))

	start := g.Table.Find(mustPack(t, g.Codec, "ACCAG"))
	require.NotEqual(t, graph.NotFound, start)

	w := New(g, nil, g.AllColorsMask(), start, kmer.Forward, 0)
	nodes, err := Walk(w, 20)
	assert.Equal(t, dbgerr.ReasonDeadEnd, dbgerr.ReasonOf(err))
	assert.NotEmpty(t, nodes)
}

func TestWalkBranchWithoutLinksIsAmbiguousOrLinkExhausted(t *testing.T) {
	g := newTestGraph(t, 5, 256, 1)
	b, err := graph.NewBuilder(g, 0, false)
	require.NoError(t, err)
	require.NoError(t, b.AddRead("AAAAACCCCC"))
	require.NoError(t, b.AddRead("AAAAAGGGGG"))

	start := g.Table.Find(mustPack(t, g.Codec, "AAAAA"))
	require.NotEqual(t, graph.NotFound, start)

	w := New(g, nil, g.AllColorsMask(), start, kmer.Forward, 0)
	_, err = Walk(w, 20)
	reason := dbgerr.ReasonOf(err)
	assert.True(t, reason == dbgerr.ReasonLinkExhausted || reason == dbgerr.ReasonAmbiguous)
}

func TestWalkBranchResolvedByLink(t *testing.T) {
	g := newTestGraph(t, 5, 256, 1)
	b, err := graph.NewBuilder(g, 0, false)
	require.NoError(t, err)
	require.NoError(t, b.AddRead("AAAAACCCCC"))
	require.NoError(t, b.AddRead("AAAAAGGGGG"))

	ix := links.NewIndex(g.Codec)
	links.ThreadRead(g, ix, g.AllColorsMask(), "AAAAACCCCC")

	start := g.Table.Find(mustPack(t, g.Codec, "AAAAA"))
	require.NotEqual(t, graph.NotFound, start)

	w := New(g, ix, g.AllColorsMask(), start, kmer.Forward, 0)
	nodes, err := Walk(w, 1)
	// Walk always returns an error; ReasonNone means it stopped at the step limit.
	require.Error(t, err)
	require.Equal(t, dbgerr.ReasonNone, dbgerr.ReasonOf(err))
	require.Len(t, nodes, 1)
}

func mustPack(t *testing.T, codec *kmer.Codec, s string) kmer.Kmer {
	t.Helper()
	km, err := codec.Pack(s)
	require.NoError(t, err)
	return km
}
