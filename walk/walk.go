// Package walk implements the traversal engine (§4.9): a directed walk over
// a colored de Bruijn graph that uses link tries to resolve branches,
// guarded against cycles by a bounded ring buffer of recently visited
// nodes, grounded on circular.NextExp2 for sizing that buffer the same way
// the teacher repo sizes its own circular buffers.
package walk

import (
	"github.com/grailbio/debruijn/circular"
	"github.com/grailbio/debruijn/dbgerr"
	"github.com/grailbio/debruijn/graph"
	"github.com/grailbio/debruijn/kmer"
	"github.com/grailbio/debruijn/links"
)

const defaultMaxCycleLen = 1024

func toLinksDir(d kmer.Direction) links.Dir {
	if d == kmer.Forward {
		return links.Fwd
	}
	return links.Rev
}

// Walker performs a directed walk from a start node, consuming active link
// trie cursors to disambiguate branches.
type Walker struct {
	g         *graph.Graph
	ix        *links.Index
	colorMask uint64

	cur graph.Handle
	dir kmer.Direction

	active []links.Cursor

	ring    []graph.Handle
	ringPos int
	ringLen int
}

// New returns a Walker starting at (start, dir). maxCycleLen <= 0 selects
// the default of 1024. ix may be nil, in which case every branching node
// immediately terminates the walk with ReasonLinkExhausted (no links
// available to disambiguate it).
func New(g *graph.Graph, ix *links.Index, colorMask uint64, start graph.Handle, dir kmer.Direction, maxCycleLen int) *Walker {
	if maxCycleLen <= 0 {
		maxCycleLen = defaultMaxCycleLen
	}
	ringCap := circular.NextExp2(maxCycleLen - 1)
	w := &Walker{
		g:         g,
		ix:        ix,
		colorMask: colorMask,
		cur:       start,
		dir:       dir,
		ring:      make([]graph.Handle, ringCap),
	}
	w.remember(start)
	return w
}

// Current returns the walker's current node.
func (w *Walker) Current() graph.Handle { return w.cur }

func (w *Walker) remember(h graph.Handle) {
	w.ring[w.ringPos] = h
	w.ringPos = (w.ringPos + 1) % len(w.ring)
	if w.ringLen < len(w.ring) {
		w.ringLen++
	}
}

func (w *Walker) seen(h graph.Handle) bool {
	for i := 0; i < w.ringLen; i++ {
		if w.ring[i] == h {
			return true
		}
	}
	return false
}

func successorBases(mask graph.EdgeMask, dir kmer.Direction) []kmer.Base {
	var out []kmer.Base
	for _, b := range kmer.AllBases {
		if dir == kmer.Forward {
			if mask.HasOutgoing(uint8(b)) {
				out = append(out, b)
			}
		} else if mask.HasIncoming(uint8(b)) {
			out = append(out, b)
		}
	}
	return out
}

// Next advances the walk by one node. It returns the next node on success,
// or a *dbgerr.Error of Kind WalkTerminated (with a Reason) when the walk
// cannot continue.
func (w *Walker) Next() (graph.Handle, error) {
	mask := w.g.Colors.UnionEdges(w.cur, w.colorMask)
	candidates := successorBases(mask, w.dir)
	if len(candidates) == 0 {
		return graph.NotFound, dbgerr.Walk(dbgerr.ReasonDeadEnd, "walk: dead end at node %d", w.cur)
	}

	base := candidates[0]
	if len(candidates) > 1 {
		// This node is itself a branch point, so its own trie (recording
		// choices taken after it on reads that threaded through here before)
		// is live evidence for resolving this very branch: enter it first,
		// then check endorsement against the full active set.
		if w.ix != nil {
			if fresh, ok := w.ix.NewCursor(w.cur, toLinksDir(w.dir)); ok {
				w.active = append(w.active, fresh)
			}
		}

		var endorsed []kmer.Base
		for _, b := range candidates {
			for _, c := range w.active {
				if w.ix.Endorses(c, b) {
					endorsed = append(endorsed, b)
					break
				}
			}
		}
		switch len(endorsed) {
		case 0:
			return graph.NotFound, dbgerr.Walk(dbgerr.ReasonLinkExhausted, "walk: no active link endorses a branch at node %d", w.cur)
		case 1:
			base = endorsed[0]
		default:
			return graph.NotFound, dbgerr.Walk(dbgerr.ReasonAmbiguous, "walk: %d links endorse conflicting branches at node %d", len(endorsed), w.cur)
		}

		// Advance every active cursor by the chosen base, dropping any that
		// don't cover it.
		if w.ix != nil {
			next := w.active[:0]
			for _, c := range w.active {
				if nc, ok := w.ix.Advance(c, base); ok {
					next = append(next, nc)
				}
			}
			w.active = next
		}
	}

	nextH, flipped, ok := w.g.Table.NeighborLookupOriented(w.cur, w.dir, base)
	if !ok || nextH == graph.NotFound || w.g.IsRemoved(nextH) {
		return graph.NotFound, dbgerr.Walk(dbgerr.ReasonDeadEnd, "walk: neighbor of node %d not resolvable", w.cur)
	}
	if w.seen(nextH) {
		return graph.NotFound, dbgerr.Walk(dbgerr.ReasonCycle, "walk: revisited node %d", nextH)
	}

	nextDir := w.dir
	if flipped {
		nextDir = w.dir.Opposite()
	}
	w.cur, w.dir = nextH, nextDir
	w.remember(nextH)
	return nextH, nil
}

// Walk runs the walker to completion (or maxSteps, whichever comes first),
// returning every node visited after the start node and the termination
// error (always non-nil: a walk that hits maxSteps without terminating
// returns ReasonNone).
func Walk(w *Walker, maxSteps int) ([]graph.Handle, error) {
	var out []graph.Handle
	for i := 0; maxSteps <= 0 || i < maxSteps; i++ {
		h, err := w.Next()
		if err != nil {
			return out, err
		}
		out = append(out, h)
	}
	return out, dbgerr.Walk(dbgerr.ReasonNone, "walk: reached step limit")
}
