package links

import (
	"github.com/grailbio/debruijn/graph"
	"github.com/grailbio/debruijn/kmer"
)

// pruned is a reserved arena index meaning "subtree removed"; it is
// distinct from nilRef so that Clean can tell "never existed" apart from
// "removed for low coverage" if that distinction is ever needed, but both
// currently read back as "no child" to callers via walk/Endorses.
const pruned int32 = -2

// Clean removes, from every trie in ix, every subtree whose root coverage
// falls strictly below threshold (§4.7 Cleaning). It mutates ix in place
// and returns the number of subtrees removed.
func Clean(ix *Index, threshold uint32) int {
	removed := 0
	ix.EachRoot(func(_ graph.Handle, _ Dir, root int32) {
		removed += pruneSubtree(ix.arena, root, threshold)
	})
	return removed
}

// pruneSubtree walks ref's children, recursively removing any whose
// coverage is below threshold, and returns the count removed.
func pruneSubtree(a *arena, ref int32, threshold uint32) int {
	if ref == nilRef || ref == pruned {
		return 0
	}
	removed := 0
	n := a.node(ref)
	for _, b := range kmer.AllBases {
		child := n.children[b]
		if child == nilRef || child == pruned {
			continue
		}
		if a.node(child).coverage < threshold {
			n.children[b] = pruned
			removed++
			continue
		}
		removed += pruneSubtree(a, child, threshold)
	}
	return removed
}
