package graph

import (
	"fmt"
	"io"
	"sort"

	"github.com/grailbio/base/log"

	"github.com/grailbio/debruijn/kmer"
)

// CleanOpts configures a cleaning pass.
type CleanOpts struct {
	// ColorMask selects which colors' edges participate in unitig/tip
	// detection; the cleaner always operates on their union.
	ColorMask uint64
	// TipLenThreshold is the maximum node count of a removable tip.
	// Zero selects the default, 2*k.
	TipLenThreshold int
	// CoverageCutoff, if non-zero, is used directly instead of being
	// inferred from the coverage histogram.
	CoverageCutoff int
}

// CleanStats reports what a cleaning pass did.
type CleanStats struct {
	TipsRemoved        int
	TipNodesRemoved    int
	UnitigsBefore      int
	UnitigsPruned      int
	CoverageCutoffUsed int
	Histogram          []int // Histogram[cov] = number of unitigs with that rounded average coverage
}

// Clean runs tip removal followed by unitig coverage pruning, per §4.5:
// both phases operate on the union of edges across the colors in
// opts.ColorMask. It writes the pre-pruning coverage histogram to
// histogramCSV if non-nil, for diagnostics.
func Clean(g *Graph, opts CleanOpts, histogramCSV io.Writer) (CleanStats, error) {
	tipLen := opts.TipLenThreshold
	if tipLen <= 0 {
		tipLen = 2 * g.Codec.K
	}

	var stats CleanStats
	stats.TipsRemoved, stats.TipNodesRemoved = removeTips(g, opts.ColorMask, tipLen)

	unitigs := Unitigs(g, opts.ColorMask)
	stats.UnitigsBefore = len(unitigs)

	hist := coverageHistogram(g, unitigs, opts.ColorMask)
	stats.Histogram = hist
	if histogramCSV != nil {
		if err := writeHistogramCSV(histogramCSV, hist); err != nil {
			return stats, err
		}
	}

	cutoff := opts.CoverageCutoff
	if cutoff <= 0 {
		cutoff = inferCutoff(hist)
	}
	stats.CoverageCutoffUsed = cutoff

	for _, u := range unitigs {
		if int(u.AverageCoverage(g, opts.ColorMask)) < cutoff {
			for _, h := range u.Nodes {
				g.MarkRemoved(h)
			}
			stats.UnitigsPruned++
		}
	}
	return stats, nil
}

// removeTips clears the edge into each tip (a unitig with length <
// tipLen whose far end has no neighbors) and marks its nodes for
// reclamation.
func removeTips(g *Graph, colorMask uint64, tipLen int) (tipsRemoved, nodesRemoved int) {
	for _, u := range Unitigs(g, colorMask) {
		if len(u.Nodes) >= tipLen {
			continue
		}
		first, last := u.Nodes[0], u.Nodes[len(u.Nodes)-1]
		firstMask := g.Colors.UnionEdges(first, colorMask)
		lastMask := g.Colors.UnionEdges(last, colorMask)

		deadEndAtStart := firstMask.InDegree() == 0
		deadEndAtEnd := lastMask.OutDegree() == 0
		if !deadEndAtStart && !deadEndAtEnd {
			continue // both ends attach to the rest of the graph: not a tip
		}

		if deadEndAtEnd && firstMask.InDegree() > 0 {
			clearIncomingEdgeInto(g, first, colorMask)
		}
		if deadEndAtStart && lastMask.OutDegree() > 0 {
			clearOutgoingEdgeFrom(g, last, colorMask)
		}
		for _, h := range u.Nodes {
			g.MarkRemoved(h)
		}
		tipsRemoved++
		nodesRemoved += len(u.Nodes)
	}
	return tipsRemoved, nodesRemoved
}

// matchingBase finds the base x such that NeighborLookup(from, dir, x) ==
// to, i.e. the label on from's own side of an edge we only know by
// following it from the other end. The two ends of one edge are not
// generally labeled with the same base (shifting drops a different
// position than it appends), so this re-derivation is needed whenever a
// caller has an edge's far endpoint and must clear the near endpoint's
// matching bit.
func matchingBase(g *Graph, from Handle, dir kmer.Direction, to Handle) (kmer.Base, bool) {
	for _, b := range kmer.AllBases {
		if g.Table.NeighborLookup(from, dir, b) == to {
			return b, true
		}
	}
	return 0, false
}

// clearIncomingEdgeInto severs every edge from h's predecessor(s) into h,
// across all colors in colorMask, so the retained side of the graph no
// longer points at a reclaimed tip.
func clearIncomingEdgeInto(g *Graph, h Handle, colorMask uint64) {
	for c := 0; c < g.NumColors(); c++ {
		if colorMask&(1<<uint(c)) == 0 {
			continue
		}
		mask := g.Colors.Edges(h, c)
		for _, b := range kmer.AllBases {
			if !mask.HasIncoming(uint8(b)) {
				continue
			}
			pred := g.Table.NeighborLookup(h, kmer.Reverse, b)
			if pred == NotFound {
				continue
			}
			if predBase, ok := matchingBase(g, pred, kmer.Forward, h); ok {
				g.Colors.ClearEdge(pred, c, false, uint8(predBase))
			}
			g.Colors.ClearEdge(h, c, true, uint8(b))
		}
	}
}

// clearOutgoingEdgeFrom severs every edge from h into its successor(s).
func clearOutgoingEdgeFrom(g *Graph, h Handle, colorMask uint64) {
	for c := 0; c < g.NumColors(); c++ {
		if colorMask&(1<<uint(c)) == 0 {
			continue
		}
		mask := g.Colors.Edges(h, c)
		for _, b := range kmer.AllBases {
			if !mask.HasOutgoing(uint8(b)) {
				continue
			}
			succ := g.Table.NeighborLookup(h, kmer.Forward, b)
			if succ == NotFound {
				continue
			}
			g.Colors.ClearEdge(h, c, false, uint8(b))
			if succBase, ok := matchingBase(g, succ, kmer.Reverse, h); ok {
				g.Colors.ClearEdge(succ, c, true, uint8(succBase))
			}
		}
	}
}

func coverageHistogram(g *Graph, unitigs []Unitig, colorMask uint64) []int {
	var hist []int
	for _, u := range unitigs {
		cov := int(u.AverageCoverage(g, colorMask))
		for len(hist) <= cov {
			hist = append(hist, 0)
		}
		hist[cov]++
	}
	return hist
}

func writeHistogramCSV(w io.Writer, hist []int) error {
	if _, err := io.WriteString(w, "coverage,unitig_count\n"); err != nil {
		return err
	}
	for cov, n := range hist {
		if _, err := fmt.Fprintf(w, "%d,%d\n", cov, n); err != nil {
			return err
		}
	}
	return nil
}

// inferCutoff fits a two-component model to the coverage histogram (an
// error tail followed by a true-coverage peak) and picks the cutoff as the
// first local minimum above the error tail, or the point below which 99% of
// the error tail's mass falls, whichever is lower. If the histogram shows
// no discernible peak, it defaults to 1 (drop singletons only).
func inferCutoff(hist []int) int {
	if len(hist) == 0 {
		return 1
	}
	// Find the first local minimum: hist[i] < hist[i-1] && hist[i] <= hist[i+1]
	// strictly decreasing-then-increasing, skipping flat runs at the origin.
	firstMin := -1
	for i := 1; i < len(hist)-1; i++ {
		if hist[i] < hist[i-1] && hist[i] <= hist[i+1] {
			firstMin = i
			break
		}
	}
	if firstMin < 0 {
		log.Debug.Printf("inferCutoff: no local minimum in %d-bucket histogram, defaulting to 1", len(hist))
		return 1
	}

	// errorTailTotal is the histogram mass up to firstMin, treated as the
	// error component; find the smallest prefix capturing >=99% of it.
	errorTailTotal := 0
	for i := 0; i <= firstMin; i++ {
		errorTailTotal += hist[i]
	}
	p99 := firstMin
	if errorTailTotal > 0 {
		running := 0
		target := int(0.99 * float64(errorTailTotal))
		for i := 0; i <= firstMin; i++ {
			running += hist[i]
			if running >= target {
				p99 = i
				break
			}
		}
	}

	cutoff := firstMin
	if p99 < cutoff {
		cutoff = p99
	}
	if cutoff < 1 {
		cutoff = 1
	}
	return cutoff
}

// sortedCoverages is a small helper retained for tests that want a
// deterministic ordering of unitig average coverages.
func sortedCoverages(g *Graph, unitigs []Unitig, colorMask uint64) []float64 {
	out := make([]float64, len(unitigs))
	for i, u := range unitigs {
		out[i] = u.AverageCoverage(g, colorMask)
	}
	sort.Float64s(out)
	return out
}
