package links

import (
	"encoding/binary"

	"github.com/minio/highwayhash"

	"github.com/grailbio/debruijn/graph"
	"github.com/grailbio/debruijn/kmer"
)

// pathKey is a fixed-width digest of one (node, direction, junction path)
// triple, the same highwayhash.Sum shape fusion/postprocess.go uses to key
// its own candidate-grouping map.
type pathKey = [highwayhash.Size]uint8

var zeroSeed = pathKey{}

func hashPath(h graph.Handle, dir Dir, bases []kmer.Base) pathKey {
	buf := make([]byte, 9, 9+len(bases))
	binary.LittleEndian.PutUint64(buf, uint64(h))
	buf[8] = uint8(dir)
	for _, b := range bases {
		buf = append(buf, uint8(b))
	}
	return highwayhash.Sum(buf, zeroSeed[:])
}

// MergeIndex adds every path recorded in src to dst, the operation that
// combines link shards built independently (one per input file, or one per
// pre-existing persisted link file supplied alongside new reads to thread)
// into a single Index. A path already present in dst under the same
// (node, direction, junction-choice sequence) has src's coverage added to
// it rather than letting the later recording clobber the earlier one; a
// path dst has not seen is inserted fresh. seen is a highwayhash-keyed
// dedup set so the O(paths) membership check doesn't require walking dst's
// tries afresh for every src path.
func MergeIndex(dst, src *Index) {
	seen := make(map[pathKey]struct{})
	dst.EachRoot(func(h graph.Handle, dir Dir, root int32) {
		for _, p := range dst.Paths(root) {
			seen[hashPath(h, dir, p.Bases)] = struct{}{}
		}
	})
	src.EachRoot(func(h graph.Handle, dir Dir, root int32) {
		for _, p := range src.Paths(root) {
			key := hashPath(h, dir, p.Bases)
			if _, ok := seen[key]; ok {
				dst.AddPathCoverage(h, dir, p.Bases, p.Coverage)
				continue
			}
			dst.InsertPath(h, dir, p.Bases, p.Coverage)
			seen[key] = struct{}{}
		}
	})
}
