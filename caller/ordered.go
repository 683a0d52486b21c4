package caller

import (
	"github.com/biogo/store/llrb"

	"github.com/grailbio/debruijn/graph"
)

// callKey orders an emitted variant call by its anchor node handle, ties
// broken by the position it was found at. It is the llrb.Comparable FindBubbles
// and FindBreakpoints insert into an ordered index before returning, so
// output order is a deterministic total order rather than whatever order
// g.Table.Each's bucket iteration happened to produce — the "explicit sort
// pass downstream" callers that must emit sorted output rely on. Grounded
// on encoding/bampair/shard_info.go's ShardInfo, an llrb.Tree keyed the
// same way: a small Comparable struct wrapping a position plus the index
// of the record it stands for.
type callKey struct {
	pos   graph.Handle
	seq   int
	index int
}

func (k callKey) Compare(c llrb.Comparable) int {
	o := c.(callKey)
	if k.pos != o.pos {
		if k.pos < o.pos {
			return -1
		}
		return 1
	}
	return k.seq - o.seq
}

// orderByHandle returns a permutation of [0,n) that visits pos(i) in
// ascending handle order, ties broken by the original index i.
func orderByHandle(n int, pos func(i int) graph.Handle) []int {
	tree := llrb.Tree{}
	for i := 0; i < n; i++ {
		tree.Insert(callKey{pos: pos(i), seq: i, index: i})
	}
	order := make([]int, 0, n)
	tree.Do(func(c llrb.Comparable) (done bool) {
		order = append(order, c.(callKey).index)
		return false
	})
	return order
}
