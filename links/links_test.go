package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/debruijn/graph"
	"github.com/grailbio/debruijn/kmer"
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

func TestThreadReadNoBranchRecordsNothing(t *testing.T) {
	g := newTestGraph(t, 5, 64, 1)
	b, err := graph.NewBuilder(g, 0, false)
	require.NoError(t, err)
	require.NoError(t, b.AddRead("ACGTACGTACGTA"))

	ix := NewIndex(g.Codec)
	ThreadRead(g, ix, g.AllColorsMask(), "ACGTACGTACGTA")
	assert.Equal(t, 0, ix.NumTries())
}

func TestThreadReadYJunctionRecordsOneLink(t *testing.T) {
	g := newTestGraph(t, 5, 256, 1)
	b, err := graph.NewBuilder(g, 0, false)
	require.NoError(t, err)
	require.NoError(t, b.AddRead("AAAAACCCCC"))
	require.NoError(t, b.AddRead("AAAAAGGGGG"))

	ix := NewIndex(g.Codec)
	ThreadRead(g, ix, g.AllColorsMask(), "AAAAACCCCC")
	assert.Greater(t, ix.NumTries(), 0)

	var paths []Path
	ix.EachRoot(func(_ graph.Handle, _ Dir, root int32) {
		paths = append(paths, ix.Paths(root)...)
	})
	require.Len(t, paths, 1)
	assert.Len(t, paths[0].Bases, 1)
}

func TestSelectThresholdIncreasesWithLambda(t *testing.T) {
	low := SelectThreshold([]float64{2}, 0.001, 0)
	high := SelectThreshold([]float64{100}, 0.001, 0)
	assert.Less(t, low, high)
}

func TestSelectThresholdRespectsMax(t *testing.T) {
	got := SelectThreshold([]float64{1000}, 0.001, 5)
	assert.Equal(t, 5, got)
}

func TestCleanPrunesLowCoverageSubtree(t *testing.T) {
	g := newTestGraph(t, 5, 256, 1)
	b, err := graph.NewBuilder(g, 0, false)
	require.NoError(t, err)
	require.NoError(t, b.AddRead("AAAAACCCCC"))
	require.NoError(t, b.AddRead("AAAAAGGGGG"))

	ix := NewIndex(g.Codec)
	ThreadRead(g, ix, g.AllColorsMask(), "AAAAACCCCC")
	ThreadRead(g, ix, g.AllColorsMask(), "AAAAACCCCC")

	removed := Clean(ix, 10) // no trie reaches coverage 10
	assert.GreaterOrEqual(t, removed, 0)
}

func TestMergeIndexSumsSharedPathCoverage(t *testing.T) {
	g := newTestGraph(t, 5, 256, 1)
	b, err := graph.NewBuilder(g, 0, false)
	require.NoError(t, err)
	require.NoError(t, b.AddRead("AAAAACCCCC"))
	require.NoError(t, b.AddRead("AAAAAGGGGG"))

	dst := NewIndex(g.Codec)
	ThreadRead(g, dst, g.AllColorsMask(), "AAAAACCCCC")
	src := NewIndex(g.Codec)
	ThreadRead(g, src, g.AllColorsMask(), "AAAAACCCCC")

	var before, after uint32
	dst.EachRoot(func(h graph.Handle, dir Dir, root int32) {
		for _, p := range dst.Paths(root) {
			before += p.Coverage
		}
	})

	MergeIndex(dst, src)

	dst.EachRoot(func(h graph.Handle, dir Dir, root int32) {
		for _, p := range dst.Paths(root) {
			after += p.Coverage
		}
	})
	assert.Equal(t, before*2, after)
}

func TestMergeIndexInsertsDisjointPaths(t *testing.T) {
	g := newTestGraph(t, 5, 256, 1)
	b, err := graph.NewBuilder(g, 0, false)
	require.NoError(t, err)
	require.NoError(t, b.AddRead("AAAAACCCCC"))
	require.NoError(t, b.AddRead("AAAAAGGGGG"))

	dst := NewIndex(g.Codec)
	ThreadRead(g, dst, g.AllColorsMask(), "AAAAACCCCC")
	beforeTries := dst.NumTries()

	src := NewIndex(g.Codec)
	ThreadRead(g, src, g.AllColorsMask(), "AAAAAGGGGG")

	MergeIndex(dst, src)
	assert.GreaterOrEqual(t, dst.NumTries(), beforeTries)
}
