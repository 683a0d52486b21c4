package links

import (
	"github.com/grailbio/debruijn/graph"
	"github.com/grailbio/debruijn/kmer"
)

// Dir selects which of a node's two tries a link belongs to: the trie
// recording junctions seen while walking off the node's forward strand, or
// its reverse strand.
type Dir uint8

const (
	Fwd Dir = iota
	Rev
)

// roots holds the two per-direction trie root indices for one node.
type roots struct {
	root [2]int32
}

// Index is a hash map from node Handle to its two per-direction trie roots,
// plus the arena those tries are allocated from. Distinct colors share one
// Index: links are color-agnostic once built, per the graph's own edge
// model.
type Index struct {
	Codec *kmer.Codec
	arena *arena
	roots map[graph.Handle]*roots
}

// NewIndex returns an empty link index for k-mers packed by codec.
func NewIndex(codec *kmer.Codec) *Index {
	return &Index{
		Codec: codec,
		arena: newArena(),
		roots: make(map[graph.Handle]*roots),
	}
}

// rootFor returns the root arena index for (h, dir), allocating a fresh
// trie root (depth 0, no junctions yet) on first use.
func (ix *Index) rootFor(h graph.Handle, dir Dir) int32 {
	r, ok := ix.roots[h]
	if !ok {
		r = &roots{root: [2]int32{nilRef, nilRef}}
		ix.roots[h] = r
	}
	if r.root[dir] == nilRef {
		r.root[dir] = ix.arena.newNode(0)
	}
	return r.root[dir]
}

// Root returns the root arena index for (h, dir), or nilRef if no link was
// ever recorded for that node/direction.
func (ix *Index) Root(h graph.Handle, dir Dir) int32 {
	r, ok := ix.roots[h]
	if !ok {
		return nilRef
	}
	return r.root[dir]
}

// Cursor is a position within one trie, used by the traversal engine to
// track how far a link has been consumed.
type Cursor struct {
	ref int32
}

// NewCursor returns a cursor positioned at (h, dir)'s root. ok is false if
// no trie exists there (no links ever recorded).
func (ix *Index) NewCursor(h graph.Handle, dir Dir) (Cursor, bool) {
	ref := ix.Root(h, dir)
	if ref == nilRef {
		return Cursor{}, false
	}
	return Cursor{ref: ref}, true
}

// Valid reports whether the cursor still points at a live trie node.
func (c Cursor) Valid() bool { return c.ref != nilRef }

// Advance follows base from c's current position, returning the cursor at
// the child node and whether that edge exists.
func (ix *Index) Advance(c Cursor, base kmer.Base) (Cursor, bool) {
	if !c.Valid() {
		return Cursor{ref: nilRef}, false
	}
	next := ix.arena.walk(c.ref, base)
	if next == nilRef {
		return Cursor{ref: nilRef}, false
	}
	return Cursor{ref: next}, true
}

// Endorses reports whether any child of c's node is labeled base, i.e.
// whether base is a valid next junction choice for the read(s) this trie
// was built from.
func (ix *Index) Endorses(c Cursor, base kmer.Base) bool {
	if !c.Valid() {
		return false
	}
	return ix.arena.walk(c.ref, base) != nilRef
}

// Coverage returns the node's cumulative read coverage.
func (ix *Index) Coverage(c Cursor) uint32 {
	if !c.Valid() {
		return 0
	}
	return ix.arena.node(c.ref).coverage
}

// NumTries returns the number of (node, direction) roots recorded, for
// diagnostics and threshold sampling.
func (ix *Index) NumTries() int {
	n := 0
	for _, r := range ix.roots {
		for _, ref := range r.root {
			if ref != nilRef {
				n++
			}
		}
	}
	return n
}

// InsertPath records a root-to-leaf path of junction choices at (h, dir),
// setting the leaf's coverage to cov. It is used when deserializing a
// persisted link file, where each path is already a complete record rather
// than something built incrementally by threading reads.
func (ix *Index) InsertPath(h graph.Handle, dir Dir, bases []kmer.Base, cov uint32) {
	ref := ix.rootFor(h, dir)
	for _, b := range bases {
		ref = ix.arena.descend(ref, b)
	}
	ix.arena.node(ref).coverage = cov
}

// AddPathCoverage adds delta to the coverage of the path (h, dir, bases),
// creating the path (with that starting coverage) if it is not already
// present. Used by MergeIndex to combine a path independently recorded in
// two indices rather than letting the second recording clobber the first.
func (ix *Index) AddPathCoverage(h graph.Handle, dir Dir, bases []kmer.Base, delta uint32) {
	ref := ix.rootFor(h, dir)
	for _, b := range bases {
		ref = ix.arena.descend(ref, b)
	}
	ix.arena.node(ref).coverage += delta
}

// EachRoot calls f once per (node, direction, rootRef) with a live trie.
func (ix *Index) EachRoot(f func(h graph.Handle, dir Dir, root int32)) {
	for h, r := range ix.roots {
		for d := 0; d < 2; d++ {
			if r.root[d] != nilRef {
				f(h, Dir(d), r.root[d])
			}
		}
	}
}
