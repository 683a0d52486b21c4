// Package caller implements the variant-calling front ends built on top of
// the traversal engine: the bubble caller, the breakpoint caller, and the
// VCF coverage annotator, grounded on graph/unitig.go's non-branching-walk
// pattern and the walk package's link-guided traversal.
package caller

import (
	"github.com/grailbio/debruijn/graph"
	"github.com/grailbio/debruijn/kmer"
)

// Bubble is a pair of paths that share a common start node, diverge, and
// reconverge at a common end node within the caller's maxBubbleLen steps.
type Bubble struct {
	Start, End graph.Handle
	Paths      [2][]graph.Handle
}

// Sequence reconstructs the nucleotide sequence of one of the bubble's two
// arms, including the shared start node's k-mer.
func Sequence(g *graph.Graph, codec *kmer.Codec, start graph.Handle, path []graph.Handle) string {
	seq := codec.Unpack(g.Table.KeyAt(start))
	for _, h := range path {
		k := g.Table.KeyAt(h)
		seq += string(codec.Unpack(k)[codec.K-1])
	}
	return seq
}

func successorBase(mask graph.EdgeMask) (kmer.Base, bool) {
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

// traceArm follows the single path starting with the step to firstBase from
// branch, stopping at maxLen nodes (reported as branched=true), at a node
// that re-branches (out-degree != 1), or at a dead end. It does not itself
// check for reconvergence; the caller compares the two arms' terminal nodes.
func traceArm(g *graph.Graph, colorMask uint64, branch graph.Handle, dir kmer.Direction, firstBase kmer.Base, maxLen int) (path []graph.Handle, branched bool) {
	next, flipped, ok := g.Table.NeighborLookupOriented(branch, dir, firstBase)
	if !ok || next == graph.NotFound || g.IsRemoved(next) {
		return nil, false
	}
	path = append(path, next)
	cur, curDir := next, dir
	if flipped {
		curDir = dir.Opposite()
	}
	for len(path) < maxLen {
		mask := g.Colors.UnionEdges(cur, colorMask)
		inDeg := mask.InDegree()
		if curDir == kmer.Reverse {
			inDeg = mask.OutDegree()
		}
		if inDeg > 1 {
			// A second junction feeds into this node from elsewhere: it's a
			// legitimate reconvergence candidate, not a same-arm branch.
			return path, false
		}
		var base kmer.Base
		var ok bool
		if curDir == kmer.Reverse {
			base, ok = predecessorBase(mask)
		} else {
			base, ok = successorBase(mask)
		}
		if !ok {
			return path, false
		}
		nextH, flipped, ok := g.Table.NeighborLookupOriented(cur, curDir, base)
		if !ok || nextH == graph.NotFound || g.IsRemoved(nextH) {
			return path, false
		}
		path = append(path, nextH)
		cur = nextH
		if flipped {
			curDir = curDir.Opposite()
		}
	}
	return path, true
}

func predecessorBase(mask graph.EdgeMask) (kmer.Base, bool) {
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

// FindBubbles scans every node with out-degree > 1 under colorMask and
// reports each pair of its outgoing arms that reconverge at a common node
// within maxBubbleLen steps.
func FindBubbles(g *graph.Graph, colorMask uint64, maxBubbleLen int) []Bubble {
	var out []Bubble
	g.Table.Each(func(h graph.Handle, _ kmer.Kmer) {
		if g.IsRemoved(h) {
			return
		}
		mask := g.Colors.UnionEdges(h, colorMask)
		if mask.OutDegree() < 2 {
			return
		}
		var arms [][]graph.Handle
		var bases []kmer.Base
		for _, b := range kmer.AllBases {
			if !mask.HasOutgoing(uint8(b)) {
				continue
			}
			path, branched := traceArm(g, colorMask, h, kmer.Forward, b, maxBubbleLen)
			if branched || len(path) == 0 {
				continue
			}
			arms = append(arms, path)
			bases = append(bases, b)
		}
		for i := 0; i < len(arms); i++ {
			for j := i + 1; j < len(arms); j++ {
				endI := arms[i][len(arms[i])-1]
				endJ := arms[j][len(arms[j])-1]
				if endI == endJ {
					out = append(out, Bubble{
						Start: h,
						End:   endI,
						Paths: [2][]graph.Handle{arms[i], arms[j]},
					})
				}
			}
		}
	})
	order := orderByHandle(len(out), func(i int) graph.Handle { return out[i].Start })
	sorted := make([]Bubble, len(out))
	for i, idx := range order {
		sorted[i] = out[idx]
	}
	return sorted
}
