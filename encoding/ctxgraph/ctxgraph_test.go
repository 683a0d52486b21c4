package ctxgraph

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/debruijn/graph"
	"github.com/grailbio/debruijn/kmer"
)

func TestWriteReadRoundTrip(t *testing.T) {
	codec, err := kmer.NewCodec(5)
	require.NoError(t, err)
	g, err := graph.New(codec, 64, 2, 0.9)
	require.NoError(t, err)
	defer g.Close()

	b0, err := graph.NewBuilder(g, 0, false)
	require.NoError(t, err)
	require.NoError(t, b0.AddRead("AAAAACCCCC"))
	b1, err := graph.NewBuilder(g, 1, false)
	require.NoError(t, err)
	require.NoError(t, b1.AddRead("AAAAAGGGGG"))

	colorHeaders := []ColorHeader{
		{SampleName: "ref"},
		{SampleName: "sample", CleanedTips: true, CleanedUnitigs: true, UnitigCutoff: 3},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, g, colorHeaders, 100, 1000))

	g2, err := graph.New(codec, 64, 2, 0.9)
	require.NoError(t, err)
	defer g2.Close()

	header, err := Read(bytes.NewReader(buf.Bytes()), g2, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 5, header.K)
	assert.EqualValues(t, 2, header.Colors)
	assert.EqualValues(t, 100, header.MeanReadLength)
	assert.EqualValues(t, 1000, header.TotalSequence)
	require.Len(t, header.ColorHeaders, 2)
	assert.Equal(t, "ref", header.ColorHeaders[0].SampleName)
	assert.Equal(t, "sample", header.ColorHeaders[1].SampleName)
	assert.True(t, header.ColorHeaders[1].CleanedTips)
	assert.EqualValues(t, 3, header.ColorHeaders[1].UnitigCutoff)

	km, err := codec.Pack("AAAAA")
	require.NoError(t, err)
	h := g2.Table.Find(km)
	require.NotEqual(t, graph.NotFound, h)
	assert.Greater(t, g2.Colors.Coverage(h, 0), uint8(0))
	assert.Greater(t, g2.Colors.Coverage(h, 1), uint8(0))
}

func TestReadRejectsWrongK(t *testing.T) {
	codec5, err := kmer.NewCodec(5)
	require.NoError(t, err)
	g5, err := graph.New(codec5, 64, 1, 0.9)
	require.NoError(t, err)
	defer g5.Close()
	b, err := graph.NewBuilder(g5, 0, false)
	require.NoError(t, err)
	require.NoError(t, b.AddRead("AAAAACCCCC"))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, g5, []ColorHeader{{SampleName: "x"}}, 0, 0))

	codec7, err := kmer.NewCodec(7)
	require.NoError(t, err)
	g7, err := graph.New(codec7, 64, 1, 0.9)
	require.NoError(t, err)
	defer g7.Close()

	_, err = Read(bytes.NewReader(buf.Bytes()), g7, nil)
	assert.Error(t, err)
}

func TestReadEmptyColoursZeroesDestinationBeforeMerge(t *testing.T) {
	codec, err := kmer.NewCodec(5)
	require.NoError(t, err)

	src, err := graph.New(codec, 64, 1, 0.9)
	require.NoError(t, err)
	defer src.Close()
	sb, err := graph.NewBuilder(src, 0, false)
	require.NoError(t, err)
	require.NoError(t, sb.AddRead("AAAAACCCCC"))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, src, []ColorHeader{{SampleName: "x"}}, 0, 0))

	dst, err := graph.New(codec, 64, 1, 0.9)
	require.NoError(t, err)
	defer dst.Close()
	db, err := graph.NewBuilder(dst, 0, false)
	require.NoError(t, err)
	require.NoError(t, db.AddRead("GAGAGAGAGA"))

	stale, err := codec.Pack("GAGAG")
	require.NoError(t, err)
	staleHandle := dst.Table.Find(stale)
	require.NotEqual(t, graph.NotFound, staleHandle)
	require.Greater(t, dst.Colors.Coverage(staleHandle, 0), uint8(0))

	filter := LoadFilter{SrcToDst: []int{0}, EmptyColours: true}
	_, err = Read(bytes.NewReader(buf.Bytes()), dst, &filter)
	require.NoError(t, err)

	assert.Equal(t, uint8(0), dst.Colors.Coverage(staleHandle, 0))

	loaded, err := codec.Pack("AAAAA")
	require.NoError(t, err)
	loadedHandle := dst.Table.Find(loaded)
	require.NotEqual(t, graph.NotFound, loadedHandle)
	assert.Greater(t, dst.Colors.Coverage(loadedHandle, 0), uint8(0))
}

func TestReadWithoutEmptyColoursMergesIntoDestination(t *testing.T) {
	codec, err := kmer.NewCodec(5)
	require.NoError(t, err)

	src, err := graph.New(codec, 64, 1, 0.9)
	require.NoError(t, err)
	defer src.Close()
	sb, err := graph.NewBuilder(src, 0, false)
	require.NoError(t, err)
	require.NoError(t, sb.AddRead("AAAAACCCCC"))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, src, []ColorHeader{{SampleName: "x"}}, 0, 0))

	dst, err := graph.New(codec, 64, 1, 0.9)
	require.NoError(t, err)
	defer dst.Close()
	db, err := graph.NewBuilder(dst, 0, false)
	require.NoError(t, err)
	require.NoError(t, db.AddRead("GAGAGAGAGA"))

	stale, err := codec.Pack("GAGAG")
	require.NoError(t, err)
	staleHandle := dst.Table.Find(stale)
	require.NotEqual(t, graph.NotFound, staleHandle)
	beforeCov := dst.Colors.Coverage(staleHandle, 0)
	require.Greater(t, beforeCov, uint8(0))

	filter := LoadFilter{SrcToDst: []int{0}}
	_, err = Read(bytes.NewReader(buf.Bytes()), dst, &filter)
	require.NoError(t, err)

	assert.Equal(t, beforeCov, dst.Colors.Coverage(staleHandle, 0))
}

func TestReadRejectsBadMagic(t *testing.T) {
	codec, err := kmer.NewCodec(5)
	require.NoError(t, err)
	g, err := graph.New(codec, 64, 1, 0.9)
	require.NoError(t, err)
	defer g.Close()

	_, err = Read(bytes.NewReader([]byte("not-a-ctx-file")), g, nil)
	assert.Error(t, err)
}
