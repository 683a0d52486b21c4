// Package graph implements the colored de Bruijn graph: a fixed-capacity
// k-mer hash table (Table), parallel per-color edge/coverage arrays
// (ColorStore), a concurrent builder that threads reads into both, and a
// cleaner that removes tips and low-coverage unitigs.
package graph

import (
	"github.com/grailbio/debruijn/dbgerr"
	"github.com/grailbio/debruijn/kmer"
)

// ColorMeta carries the per-color bookkeeping a graph file header records:
// the sample name and a free-form cleaning-history string (e.g.
// "tip_removed;pruned_cutoff=7").
type ColorMeta struct {
	SampleName string
	CleanedBy  string
}

// Graph is a colored de Bruijn graph: a node table plus one edge-mask byte
// and one coverage byte per node per color.
type Graph struct {
	Codec   *kmer.Codec
	Table   *Table
	Colors  *ColorStore
	Meta    []ColorMeta // len == NumColors()
	removed *removedSet
}

// IsRemoved reports whether the cleaner has reclaimed h.
func (g *Graph) IsRemoved(h Handle) bool { return g.removed.IsMarked(h) }

// MarkRemoved flags h as reclaimed.
func (g *Graph) MarkRemoved(h Handle) { g.removed.Mark(h) }

// New allocates an empty graph with room for minCapacity k-mers across
// numColors colors.
func New(codec *kmer.Codec, minCapacity, numColors int, loadFactor float64) (*Graph, error) {
	if numColors <= 0 {
		return nil, dbgerr.E(dbgerr.InvalidInput, "graph.New: numColors must be positive, got %d", numColors)
	}
	tbl, err := NewTable(codec, minCapacity, loadFactor)
	if err != nil {
		return nil, err
	}
	return &Graph{
		Codec:   codec,
		Table:   tbl,
		Colors:  NewColorStore(tbl.Capacity(), numColors),
		Meta:    make([]ColorMeta, numColors),
		removed: newRemovedSet(tbl.Capacity()),
	}, nil
}

// NumColors returns the number of colors the graph was built with.
func (g *Graph) NumColors() int { return g.Colors.NumColors() }

// AllColorsMask returns a bitmask selecting every color in the graph.
func (g *Graph) AllColorsMask() uint64 {
	if g.NumColors() >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(g.NumColors())) - 1
}

// Close releases the graph's backing memory.
func (g *Graph) Close() error { return g.Table.Close() }
