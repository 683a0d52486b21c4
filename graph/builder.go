package graph

import (
	"sync/atomic"

	"github.com/grailbio/base/traverse"

	"github.com/grailbio/debruijn/dbgerr"
	"github.com/grailbio/debruijn/kmer"
)

// LoadStats tallies the outcome of a build pass: how much sequence was
// seen, how much of it made it into the table, and how many k-mers were new
// versus already present.
type LoadStats struct {
	BasesRead   int64
	BasesLoaded int64
	KmersLoaded int64
	KmersNovel  int64
}

// Builder threads reads into a Graph for a single target color. It is safe
// for concurrent use by multiple goroutines, e.g. via BuildFromReads.
type Builder struct {
	g      *Graph
	color  int
	strict bool // if true, an in-read base outside ACGTN is InvalidInput

	stats LoadStats
}

// NewBuilder returns a Builder that loads reads into color c of g. If
// strict is true, a base outside {A,C,G,T,N} (case-insensitive) is an
// error; otherwise it is treated as an N, ending the current contig.
func NewBuilder(g *Graph, color int, strict bool) (*Builder, error) {
	if color < 0 || color >= g.NumColors() {
		return nil, dbgerr.E(dbgerr.InvalidInput, "NewBuilder: color %d out of range [0,%d)", color, g.NumColors())
	}
	return &Builder{g: g, color: color, strict: strict}, nil
}

// Stats returns a snapshot of the builder's load statistics so far.
func (b *Builder) Stats() LoadStats {
	return LoadStats{
		BasesRead:   atomic.LoadInt64(&b.stats.BasesRead),
		BasesLoaded: atomic.LoadInt64(&b.stats.BasesLoaded),
		KmersLoaded: atomic.LoadInt64(&b.stats.KmersLoaded),
		KmersNovel:  atomic.LoadInt64(&b.stats.KmersNovel),
	}
}

// splitContigs splits seq into maximal runs of in-alphabet (A/C/G/T,
// case-insensitive) bases, the unit the builder slides k-mer windows over.
func splitContigs(seq string) []string {
	var out []string
	start := -1
	isACGT := func(c byte) bool {
		switch c {
		case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't':
			return true
		default:
			return false
		}
	}
	for i := 0; i < len(seq); i++ {
		if isACGT(seq[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, seq[start:i])
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, seq[start:])
	}
	return out
}

// AddRead loads a single read into the graph. It never returns an error
// unless strict mode rejects an out-of-alphabet base, or the table's load
// factor ceiling is breached (CapacityExceeded).
func (b *Builder) AddRead(seq string) error {
	atomic.AddInt64(&b.stats.BasesRead, int64(len(seq)))
	if b.strict {
		for i := 0; i < len(seq); i++ {
			switch seq[i] {
			case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't', 'N', 'n':
			default:
				return dbgerr.E(dbgerr.InvalidInput, "AddRead: invalid base %q at offset %d", seq[i], i)
			}
		}
	}
	codec := b.g.Codec
	k := codec.K
	for _, contig := range splitContigs(seq) {
		if len(contig) < k {
			continue
		}
		if err := b.loadContig(contig); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) loadContig(contig string) error {
	codec := b.g.Codec
	k := codec.K
	var prev Handle = NotFound
	var prevFlipped bool
	var prevFirstBase kmer.Base
	for p := 0; p+k <= len(contig); p++ {
		km, err := codec.Pack(contig[p : p+k])
		if err != nil {
			return dbgerr.E(dbgerr.InvalidInput, "loadContig: %v", err)
		}
		h, inserted, flipped, err := b.g.Table.FindOrInsertOriented(km)
		if err != nil {
			return err
		}
		atomic.AddInt64(&b.stats.BasesLoaded, 1)
		atomic.AddInt64(&b.stats.KmersLoaded, 1)
		if inserted {
			atomic.AddInt64(&b.stats.KmersNovel, 1)
		}
		b.g.Colors.AddCoverage(h, b.color, 1)

		if p > 0 {
			// Edges are recorded relative to each node's canonical strand,
			// so a node whose stored orientation is the reverse complement
			// of the read needs its direction swapped and its base
			// complemented.
			lastBase := codec.Base(km, k-1)
			if !prevFlipped {
				b.g.Colors.SetEdge(prev, b.color, false /*outgoing*/, uint8(lastBase))
			} else {
				b.g.Colors.SetEdge(prev, b.color, true /*incoming*/, uint8(lastBase.Complement()))
			}
			if !flipped {
				b.g.Colors.SetEdge(h, b.color, true /*incoming*/, uint8(prevFirstBase))
			} else {
				b.g.Colors.SetEdge(h, b.color, false /*outgoing*/, uint8(prevFirstBase.Complement()))
			}
		}
		prev = h
		prevFlipped = flipped
		prevFirstBase = codec.Base(km, 0)
	}
	return nil
}

// BuildFromReads loads reads into g's color c concurrently across
// numWorkers goroutines, fanning out the way encoding/converter.go shards
// BAM-to-PAM conversion across traverse.Each. It returns the aggregate
// LoadStats and the first error encountered, if any.
func BuildFromReads(g *Graph, color int, reads []string, numWorkers int) (LoadStats, error) {
	b, err := NewBuilder(g, color, false)
	if err != nil {
		return LoadStats{}, err
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if numWorkers > len(reads) {
		numWorkers = len(reads)
	}
	if numWorkers == 0 {
		return b.Stats(), nil
	}
	err = traverse.Each(numWorkers, func(shard int) error {
		startIdx := (shard * len(reads)) / numWorkers
		endIdx := ((shard + 1) * len(reads)) / numWorkers
		for _, r := range reads[startIdx:endIdx] {
			if err := b.AddRead(r); err != nil {
				return err
			}
		}
		return nil
	})
	return b.Stats(), err
}
