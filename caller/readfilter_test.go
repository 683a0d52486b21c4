package caller

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/debruijn/graph"
)

func TestFilterReadsRoutesByKmerMembership(t *testing.T) {
	g := newTestGraph(t, 5, 256, 1)
	b, err := graph.NewBuilder(g, 0, false)
	require.NoError(t, err)
	require.NoError(t, b.AddRead("AAAAACCCCCGGGGG"))

	reads := []Seq{
		{ID: "r1", Seq: "AAAAACCCCCGGGGG"}, // fully in the graph
		{ID: "r2", Seq: "ATATATATATATATA"}, // fully absent
	}

	var inGraph, outOfGraph bytes.Buffer
	stats, err := FilterReads(g, 0, 0.5, reads, &inGraph, &outOfGraph, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Total)
	assert.EqualValues(t, 1, stats.InGraph)
	assert.EqualValues(t, 1, stats.OutOfGraph)
	assert.Contains(t, inGraph.String(), "r1")
	assert.Contains(t, outOfGraph.String(), "r2")
}

func TestFilterReadsDropsDuplicateIDs(t *testing.T) {
	g := newTestGraph(t, 5, 256, 1)
	b, err := graph.NewBuilder(g, 0, false)
	require.NoError(t, err)
	require.NoError(t, b.AddRead("AAAAACCCCCGGGGG"))

	reads := []Seq{
		{ID: "dup", Seq: "AAAAACCCCCGGGGG"},
		{ID: "dup", Seq: "AAAAACCCCCGGGGG"},
	}

	var inGraph, outOfGraph bytes.Buffer
	stats, err := FilterReads(g, 0, 0.5, reads, &inGraph, &outOfGraph, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Duplicate)
	assert.EqualValues(t, 1, stats.InGraph)
}

func TestFilterReadsRejectsInvalidColor(t *testing.T) {
	g := newTestGraph(t, 5, 256, 1)
	var inGraph, outOfGraph bytes.Buffer
	_, err := FilterReads(g, 5, 0.5, nil, &inGraph, &outOfGraph, 1)
	assert.Error(t, err)
}
