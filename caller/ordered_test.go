package caller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/debruijn/graph"
	"github.com/grailbio/debruijn/links"
)

func TestOrderByHandleSortsAscending(t *testing.T) {
	handles := []graph.Handle{5, 1, 3, 2, 4}
	order := orderByHandle(len(handles), func(i int) graph.Handle { return handles[i] })
	require.Len(t, order, len(handles))
	var prev graph.Handle = -1
	for _, idx := range order {
		h := handles[idx]
		assert.Greater(t, h, prev)
		prev = h
	}
}

func TestOrderByHandleBreaksTiesByIndex(t *testing.T) {
	handles := []graph.Handle{7, 7, 7}
	order := orderByHandle(len(handles), func(i int) graph.Handle { return handles[i] })
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestFindBubblesOutputSortedByStart(t *testing.T) {
	g := newTestGraph(t, 5, 256, 1)
	b, err := graph.NewBuilder(g, 0, false)
	require.NoError(t, err)
	require.NoError(t, b.AddRead("AAAAACCCCTTTTT"))
	require.NoError(t, b.AddRead("AAAAAGGGGTTTTT"))
	require.NoError(t, b.AddRead("CCCCCAAAATTTTT"))
	require.NoError(t, b.AddRead("CCCCCGGGGTTTTT"))

	bubbles := FindBubbles(g, g.AllColorsMask(), 20)
	require.NotEmpty(t, bubbles)
	for i := 1; i < len(bubbles); i++ {
		assert.LessOrEqual(t, bubbles[i-1].Start, bubbles[i].Start)
	}
}

func TestFindBreakpointsOutputSortedByAnchor(t *testing.T) {
	g := newTestGraph(t, 5, 256, 2)
	const refColor = 0
	const sampleColor = 1

	ref, err := graph.NewBuilder(g, refColor, false)
	require.NoError(t, err)
	require.NoError(t, ref.AddRead("AAAAACCCCCGGGGGTTTTTAAAAA"))

	sample, err := graph.NewBuilder(g, sampleColor, false)
	require.NoError(t, err)
	require.NoError(t, sample.AddRead("AAAAATTTTTGGGGGCCCCCAAAAA"))

	ix := links.NewIndex(g.Codec)
	links.ThreadRead(g, ix, g.AllColorsMask(), "AAAAATTTTTGGGGGCCCCCAAAAA")

	bps := FindBreakpoints(g, ix, g.AllColorsMask(), refColor, 20)
	require.NotEmpty(t, bps)
	for i := 1; i < len(bps); i++ {
		assert.LessOrEqual(t, bps[i-1].Anchor, bps[i].Anchor)
	}
}
