// Package links builds, cleans, and stores per-kmer junction-choice tries:
// the link structures the traversal engine uses to disambiguate branching
// walks. Tries live in a flat arena indexed by int32, the same
// slice-plus-offset allocation technique encoding/pam's unsafeArena uses for
// its field buffers, specialized here to a typed node struct instead of raw
// bytes since trie nodes need child pointers, not just byte storage.
package links

import "github.com/grailbio/debruijn/kmer"

// nilRef is the arena index meaning "no such child/root".
const nilRef int32 = -1

// trieNode is one node of a per-(node, direction) junction trie. Root nodes
// (depth 0) represent "no junctions recorded yet"; each child edge is
// labeled with the base chosen at that depth.
type trieNode struct {
	children [4]int32 // arena index per kmer.Base, nilRef if absent
	coverage uint32   // number of reads whose walk passed through this node
	depth    uint16
}

// arena is an append-only trie node allocator. Indices into it are stable
// for the arena's lifetime, so tries can reference each other (and be
// walked) by int32 rather than pointer.
type arena struct {
	nodes []trieNode
}

func newArena() *arena {
	return &arena{}
}

func (a *arena) newNode(depth uint16) int32 {
	a.nodes = append(a.nodes, trieNode{children: [4]int32{nilRef, nilRef, nilRef, nilRef}, depth: depth})
	return int32(len(a.nodes) - 1)
}

func (a *arena) node(ref int32) *trieNode { return &a.nodes[ref] }

// descend returns the child of ref along base, creating it (with
// coverage 0) if absent.
func (a *arena) descend(ref int32, base kmer.Base) int32 {
	n := &a.nodes[ref]
	if n.children[base] == nilRef {
		child := a.newNode(n.depth + 1)
		// newNode may have grown a.nodes and invalidated n; re-fetch.
		a.nodes[ref].children[base] = child
	}
	return a.nodes[ref].children[base]
}

// walk returns the child of ref along base, or nilRef if none recorded
// (including subtrees Clean has pruned — a pruned child reads back exactly
// like one that was never recorded).
func (a *arena) walk(ref int32, base kmer.Base) int32 {
	if ref == nilRef {
		return nilRef
	}
	child := a.nodes[ref].children[base]
	if child == pruned {
		return nilRef
	}
	return child
}
