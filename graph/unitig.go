package graph

import "github.com/grailbio/debruijn/kmer"

// Unitig is a maximal non-branching walk: a chain of nodes where every
// internal node has exactly one predecessor and one successor under the
// selected color mask.
type Unitig struct {
	Nodes []Handle
}

// TotalCoverage sums node coverage across colorMask's colors.
func (u Unitig) TotalCoverage(g *Graph, colorMask uint64) int64 {
	var sum int64
	for _, h := range u.Nodes {
		for c := 0; c < g.NumColors(); c++ {
			if colorMask&(1<<uint(c)) != 0 {
				sum += int64(g.Colors.Coverage(h, c))
			}
		}
	}
	return sum
}

// AverageCoverage is TotalCoverage divided by node count.
func (u Unitig) AverageCoverage(g *Graph, colorMask uint64) float64 {
	if len(u.Nodes) == 0 {
		return 0
	}
	return float64(u.TotalCoverage(g, colorMask)) / float64(len(u.Nodes))
}

// singleSuccessor returns the one outgoing base of mask if OutDegree()==1,
// else ok is false.
func singleSuccessor(mask EdgeMask) (base kmer.Base, ok bool) {
	if mask.OutDegree() != 1 {
		return 0, false
	}
	for _, b := range kmer.AllBases {
		if mask.HasOutgoing(uint8(b)) {
			return b, true
		}
	}
	return 0, false
}

func singlePredecessor(mask EdgeMask) (base kmer.Base, ok bool) {
	if mask.InDegree() != 1 {
		return 0, false
	}
	for _, b := range kmer.AllBases {
		if mask.HasIncoming(uint8(b)) {
			return b, true
		}
	}
	return 0, false
}

// Unitigs enumerates every maximal non-branching walk in the graph under
// colorMask, skipping nodes already marked removed. It walks forward first
// from every node that is not the sole successor of a non-branching
// predecessor, then sweeps any still-unvisited nodes as isolated cycles
// (every node in the cycle has in-degree == out-degree == 1, so there is no
// natural starting point).
func Unitigs(g *Graph, colorMask uint64) []Unitig {
	visited := newRemovedSet(g.Table.Capacity())
	var result []Unitig

	extend := func(start Handle, startMask EdgeMask) Unitig {
		u := Unitig{Nodes: []Handle{start}}
		base, ok := singleSuccessor(startMask)
		cur := start
		for ok {
			next := g.Table.NeighborLookup(cur, kmer.Forward, base)
			if next == NotFound || g.IsRemoved(next) || visited.IsMarked(next) {
				break
			}
			nextMask := g.Colors.UnionEdges(next, colorMask)
			if _, predOK := singlePredecessor(nextMask); !predOK {
				// next is itself a branch point; it starts its own unitig.
				break
			}
			u.Nodes = append(u.Nodes, next)
			visited.Mark(next)
			nb, nok := singleSuccessor(nextMask)
			if !nok {
				break
			}
			cur, base, ok = next, nb, true
		}
		return u
	}

	g.Table.Each(func(h Handle, _ kmer.Kmer) {
		if g.IsRemoved(h) || visited.IsMarked(h) {
			return
		}
		mask := g.Colors.UnionEdges(h, colorMask)
		if p, ok := singlePredecessor(mask); ok {
			prev := g.Table.NeighborLookup(h, kmer.Reverse, p)
			if prev != NotFound && !g.IsRemoved(prev) && g.Colors.UnionEdges(prev, colorMask).OutDegree() == 1 {
				return // reached by extending its predecessor's unitig; handled below or by that unitig's start
			}
		}
		visited.Mark(h)
		if _, ok := singleSuccessor(mask); ok {
			result = append(result, extend(h, mask))
		} else {
			result = append(result, Unitig{Nodes: []Handle{h}})
		}
	})

	// Sweep leftover cycles: every remaining node has in==out==1 but none was
	// reachable from a branch point, so the whole graph component is a loop.
	g.Table.Each(func(h Handle, _ kmer.Kmer) {
		if g.IsRemoved(h) || visited.IsMarked(h) {
			return
		}
		mask := g.Colors.UnionEdges(h, colorMask)
		visited.Mark(h)
		result = append(result, extend(h, mask))
	})

	return result
}
