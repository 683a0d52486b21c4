package caller

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestFindBubblesDetectsYReconvergence(t *testing.T) {
	g := newTestGraph(t, 5, 256, 1)
	b, err := graph.NewBuilder(g, 0, false)
	require.NoError(t, err)
	// AAAAA -> C -> CCCC -> T    \
	//                             > reconverge at TTTTT
	// AAAAA -> G -> GGGG -> T    /
	require.NoError(t, b.AddRead("AAAAACCCCTTTTT"))
	require.NoError(t, b.AddRead("AAAAAGGGGTTTTT"))

	bubbles := FindBubbles(g, g.AllColorsMask(), 20)
	assert.NotEmpty(t, bubbles)
	for _, bub := range bubbles {
		assert.NotEqual(t, bub.Paths[0], bub.Paths[1])
	}
}

func TestFindBreakpointsDetectsNovelInsertion(t *testing.T) {
	g := newTestGraph(t, 5, 256, 2)
	const refColor = 0
	const sampleColor = 1

	ref, err := graph.NewBuilder(g, refColor, false)
	require.NoError(t, err)
	require.NoError(t, ref.AddRead("AAAAACCCCCGGGGG"))

	sample, err := graph.NewBuilder(g, sampleColor, false)
	require.NoError(t, err)
	require.NoError(t, sample.AddRead("AAAAATTTTTGGGGG"))

	ix := links.NewIndex(g.Codec)
	links.ThreadRead(g, ix, g.AllColorsMask(), "AAAAATTTTTGGGGG")

	bps := FindBreakpoints(g, ix, g.AllColorsMask(), refColor, 20)
	assert.NotEmpty(t, bps)
}

func TestAnnotatorSlidingWindowBound(t *testing.T) {
	g := newTestGraph(t, 3, 64, 1)
	b, err := graph.NewBuilder(g, 0, false)
	require.NoError(t, err)
	require.NoError(t, b.AddRead("ACGTACGT"))

	ann := NewAnnotator(g, 2)
	r1 := &Record{Chrom: "chr1", Pos: "1", ID: ".", Ref: "ACG", Alt: "TCG"}
	r2 := &Record{Chrom: "chr1", Pos: "2", ID: ".", Ref: "CGT", Alt: "CGA"}
	r3 := &Record{Chrom: "chr1", Pos: "3", ID: ".", Ref: "GTA", Alt: "GTC"}

	_, _, flushed := ann.Push(r1)
	assert.False(t, flushed)
	assert.LessOrEqual(t, len(ann.buf), 2)

	flushedRec, _, ok := ann.Push(r2)
	assert.True(t, ok)
	assert.Equal(t, r1, flushedRec)
	assert.LessOrEqual(t, len(ann.buf), 2)

	_, _, ok = ann.Push(r3)
	assert.True(t, ok)
	assert.LessOrEqual(t, len(ann.buf), 2)

	rest := ann.Flush()
	assert.Len(t, rest, 1)
}

func TestRunAnnotatesRecordsAndPassesHeaders(t *testing.T) {
	g := newTestGraph(t, 3, 64, 1)
	b, err := graph.NewBuilder(g, 0, false)
	require.NoError(t, err)
	require.NoError(t, b.AddRead("ACGTACGT"))

	input := "##fileformat=VCFv4.2\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"chr1\t1\t.\tACG\tTCG\t.\tPASS\t.\n"

	var out bytes.Buffer
	require.NoError(t, Run(strings.NewReader(input), &out, g, 1))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "##fileformat=VCFv4.2", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "chr1\t1\t.\tACG\tTCG\t.\tPASS\t."))
}
