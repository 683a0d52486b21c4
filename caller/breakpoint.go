package caller

import (
	"github.com/grailbio/debruijn/dbgerr"
	"github.com/grailbio/debruijn/graph"
	"github.com/grailbio/debruijn/kmer"
	"github.com/grailbio/debruijn/links"
	"github.com/grailbio/debruijn/walk"
)

// Breakpoint is a novel (non-reference) stretch of the graph flanked by one
// or two nodes present in the reference color.
type Breakpoint struct {
	Anchor graph.Handle
	Novel  []graph.Handle
	// ReentryAnchor is the node where the walk rejoined the reference
	// color, or graph.NotFound if the walk ran off the reference and never
	// came back within maxLen steps.
	ReentryAnchor graph.Handle
}

func inColor(g *graph.Graph, h graph.Handle, color int) bool {
	return g.Colors.Coverage(h, color) > 0
}

// FindBreakpoints walks forward from every node that is present in refColor
// but has a successor (under colorMask) absent from refColor, following the
// walk package's link-guided traversal until the walk either re-enters
// refColor, terminates, or exceeds maxLen novel nodes.
func FindBreakpoints(g *graph.Graph, ix *links.Index, colorMask uint64, refColor int, maxLen int) []Breakpoint {
	var out []Breakpoint
	g.Table.Each(func(h graph.Handle, _ kmer.Kmer) {
		if g.IsRemoved(h) || !inColor(g, h, refColor) {
			return
		}
		mask := g.Colors.UnionEdges(h, colorMask)
		for _, b := range kmer.AllBases {
			if !mask.HasOutgoing(uint8(b)) {
				continue
			}
			next, _, ok := g.Table.NeighborLookupOriented(h, kmer.Forward, b)
			if !ok || next == graph.NotFound || g.IsRemoved(next) || inColor(g, next, refColor) {
				continue
			}
			if bp, found := traceBreakpoint(g, ix, colorMask, refColor, h, maxLen); found {
				out = append(out, bp)
			}
		}
	})
	order := orderByHandle(len(out), func(i int) graph.Handle { return out[i].Anchor })
	sorted := make([]Breakpoint, len(out))
	for i, idx := range order {
		sorted[i] = out[idx]
	}
	return sorted
}

func traceBreakpoint(g *graph.Graph, ix *links.Index, colorMask uint64, refColor int, anchor graph.Handle, maxLen int) (Breakpoint, bool) {
	w := walk.New(g, ix, colorMask, anchor, kmer.Forward, 0)
	bp := Breakpoint{Anchor: anchor, ReentryAnchor: graph.NotFound}
	for len(bp.Novel) < maxLen {
		next, err := w.Next()
		if err != nil {
			if dbgerr.ReasonOf(err) == dbgerr.ReasonNone {
				break
			}
			return bp, len(bp.Novel) > 0
		}
		if inColor(g, next, refColor) {
			bp.ReentryAnchor = next
			return bp, true
		}
		bp.Novel = append(bp.Novel, next)
	}
	return bp, len(bp.Novel) > 0
}
