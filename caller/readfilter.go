package caller

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/unsafe"

	"github.com/grailbio/debruijn/dbgerr"
	"github.com/grailbio/debruijn/graph"
)

// numDedupShards matches encoding/bamprovider's concurrentMap: enough shards
// that per-shard lock contention stays negligible at worker-pool scale.
const numDedupShards = 1024

// Seq is one input record to the read filter: an identifier plus sequence.
// Quality strings are not carried through; the filter only ever reports
// membership, not base-level calls.
type Seq struct {
	ID  string
	Seq string
}

// dedupShard holds one bucket of a sharded seen-set.
type dedupShard struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// dedup is a sharded, thread-safe set of read IDs, used to drop duplicate
// records seen from FASTA/FASTQ input (e.g. a read appearing in both mates
// of an interleaved file) before they reach either output mutex.
type dedup struct {
	shards [numDedupShards]dedupShard
}

func newDedup() *dedup {
	d := &dedup{}
	for i := range d.shards {
		d.shards[i].seen = make(map[string]struct{})
	}
	return d
}

// seenOrAdd returns true if id was already recorded, else records it and
// returns false.
func (d *dedup) seenOrAdd(id string) bool {
	h := seahash.Sum64(unsafe.StringToBytes(id))
	shard := &d.shards[h%numDedupShards]
	shard.mu.Lock()
	_, ok := shard.seen[id]
	if !ok {
		shard.seen[id] = struct{}{}
	}
	shard.mu.Unlock()
	return ok
}

// outputWriter serializes FASTA writes from multiple worker goroutines onto
// one underlying io.Writer, the one-mutex-per-output-file discipline.
type outputWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (o *outputWriter) write(rec Seq) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := fmt.Fprintf(o.w, ">%s\n%s\n", rec.ID, rec.Seq); err != nil {
		return err
	}
	return nil
}

// FilterStats tallies the outcome of a FilterReads pass.
type FilterStats struct {
	Total      int64
	Duplicate  int64
	InGraph    int64
	OutOfGraph int64
}

// kmerFraction returns the fraction of seq's overlapping k-mers found
// (under any coverage) in color of g. Sequences shorter than k contribute
// no observations and report a fraction of 0.
func kmerFraction(g *graph.Graph, seq string, color int) float64 {
	k := g.Codec.K
	if len(seq) < k {
		return 0
	}
	var total, present int
	for p := 0; p+k <= len(seq); p++ {
		km, err := g.Codec.Pack(seq[p : p+k])
		if err != nil {
			continue
		}
		total++
		h := g.Table.Find(km)
		if h != graph.NotFound && g.Colors.Coverage(h, color) > 0 {
			present++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(present) / float64(total)
}

// FilterReads classifies each of reads by what fraction of its k-mers are
// present in color of g, routing it to inGraph if the fraction is at least
// minFraction and to outOfGraph otherwise. Records sharing an ID with one
// already routed are dropped and counted in Duplicate. Work is sharded
// across numWorkers goroutines the way graph.BuildFromReads shards
// BuildFromReads's read list.
func FilterReads(g *graph.Graph, color int, minFraction float64, reads []Seq, inGraph, outOfGraph io.Writer, numWorkers int) (FilterStats, error) {
	if color < 0 || color >= g.NumColors() {
		return FilterStats{}, dbgerr.E(dbgerr.InvalidInput, "FilterReads: color %d out of range [0,%d)", color, g.NumColors())
	}
	if minFraction < 0 || minFraction > 1 {
		return FilterStats{}, dbgerr.E(dbgerr.InvalidInput, "FilterReads: minFraction %g out of range [0,1]", minFraction)
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if numWorkers > len(reads) {
		numWorkers = len(reads)
	}
	var stats FilterStats
	if numWorkers == 0 {
		return stats, nil
	}

	d := newDedup()
	in := &outputWriter{w: inGraph}
	out := &outputWriter{w: outOfGraph}

	err := traverse.Each(numWorkers, func(shard int) error {
		startIdx := (shard * len(reads)) / numWorkers
		endIdx := ((shard + 1) * len(reads)) / numWorkers
		for _, r := range reads[startIdx:endIdx] {
			atomic.AddInt64(&stats.Total, 1)
			if d.seenOrAdd(r.ID) {
				atomic.AddInt64(&stats.Duplicate, 1)
				continue
			}
			frac := kmerFraction(g, r.Seq, color)
			if frac >= minFraction {
				atomic.AddInt64(&stats.InGraph, 1)
				if err := in.write(r); err != nil {
					return err
				}
			} else {
				atomic.AddInt64(&stats.OutOfGraph, 1)
				if err := out.write(r); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return stats, err
}
