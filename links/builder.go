package links

import (
	"github.com/grailbio/debruijn/graph"
	"github.com/grailbio/debruijn/kmer"
)

// activeOrigin is a trie currently being extended as ThreadRead walks past
// more branch points.
type activeOrigin struct {
	cursor int32
}

func successorCount(mask graph.EdgeMask, dir Dir) int {
	if dir == Fwd {
		return mask.OutDegree()
	}
	return mask.InDegree()
}

func hasSuccessor(mask graph.EdgeMask, dir Dir, base kmer.Base) bool {
	if dir == Fwd {
		return mask.HasOutgoing(uint8(base))
	}
	return mask.HasIncoming(uint8(base))
}

// ThreadRead walks seq through g (already built and, typically, cleaned)
// under colorMask, recording a junction choice into every currently active
// origin trie each time the walk passes through a branching node (out-degree
// > 1 in the direction it is being left), per §4.7. A node whose out-degree
// is > 1 at the moment the walk passes through it also becomes a fresh
// active origin of its own. If the walk ever disagrees with the graph (the
// next base isn't a recorded edge) or leaves the graph (a k-mer isn't
// found), every currently active origin simply stops advancing: their tries
// already hold everything this read contributed.
func ThreadRead(g *graph.Graph, ix *Index, colorMask uint64, seq string) {
	codec := g.Codec
	k := codec.K
	var active []activeOrigin
	var prev graph.Handle = graph.NotFound
	var prevFlipped bool

	retire := func() {
		active = nil
		prev = graph.NotFound
	}

	for p := 0; p+k <= len(seq); p++ {
		km, err := codec.Pack(seq[p : p+k])
		if err != nil {
			retire()
			continue
		}
		canon, flipped := codec.CanonicalWithOrientation(km)
		h := g.Table.Find(canon)
		if h == graph.NotFound {
			retire()
			continue
		}

		if prev != graph.NotFound {
			lastBase := codec.Base(km, k-1)
			var prevDir Dir
			var taken kmer.Base
			if !prevFlipped {
				prevDir, taken = Fwd, lastBase
			} else {
				prevDir, taken = Rev, lastBase.Complement()
			}
			prevMask := g.Colors.UnionEdges(prev, colorMask)
			if !hasSuccessor(prevMask, prevDir, taken) {
				retire()
				prev, prevFlipped = h, flipped
				continue
			}
			if successorCount(prevMask, prevDir) > 1 {
				active = append(active, activeOrigin{cursor: ix.rootFor(prev, prevDir)})
				for i := range active {
					active[i].cursor = ix.arena.descend(active[i].cursor, taken)
					ix.arena.node(active[i].cursor).coverage++
				}
			}
		}
		prev, prevFlipped = h, flipped
	}
}

// ThreadReads calls ThreadRead for every read in reads. Link building is
// not parallelized across reads the way graph building is: distinct reads
// can extend the same trie node concurrently, and the arena's append-based
// allocation is not safe for concurrent writers. The link-building pass
// runs after the graph is finalized (§3 Lifecycle), so this is a one-time
// sequential cost, not a hot path.
func ThreadReads(g *graph.Graph, ix *Index, colorMask uint64, reads []string) {
	for _, r := range reads {
		ThreadRead(g, ix, colorMask, r)
	}
}
