package links

import "github.com/grailbio/debruijn/kmer"

// Path is one leaf-to-root junction sequence recorded in a trie, read off
// root-to-leaf: Bases[0] is the base chosen at depth 1, and so on.
// Coverage is the leaf node's cumulative coverage (the number of reads
// whose walk took exactly this sequence of junctions).
type Path struct {
	Bases    []kmer.Base
	Coverage uint32
}

// Paths enumerates every leaf of the (h, dir) trie in preorder, as the
// persisted link file format requires (§4.7).
func (ix *Index) Paths(rootRef int32) []Path {
	if rootRef == nilRef {
		return nil
	}
	var out []Path
	var walk func(ref int32, prefix []kmer.Base)
	walk = func(ref int32, prefix []kmer.Base) {
		n := ix.arena.node(ref)
		isLeaf := true
		for b := 0; b < 4; b++ {
			child := ix.arena.walk(ref, kmer.Base(b))
			if child == nilRef {
				continue
			}
			isLeaf = false
			walk(child, append(append([]kmer.Base(nil), prefix...), kmer.Base(b)))
		}
		if isLeaf && len(prefix) > 0 {
			out = append(out, Path{Bases: prefix, Coverage: n.coverage})
		}
	}
	walk(rootRef, nil)
	return out
}
