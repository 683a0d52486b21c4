package graph

import (
	"sync"
	"sync/atomic"

	farm "github.com/dgryski/go-farm"
	"golang.org/x/sys/unix"

	"github.com/grailbio/debruijn/dbgerr"
	"github.com/grailbio/debruijn/kmer"
)

// bucketState tags a Table bucket. Readers observe state via an atomic load
// before touching the bucket's key words, so a reader never sees a torn key:
// the words are written first (under the bucket's stripe lock), and the
// occupied state is published last, with a release store.
type bucketState uint32

const (
	stateEmpty bucketState = iota
	stateOccupied
)

const (
	// defaultLoadFactorCeiling matches the table's own §4.2 policy: past
	// this load, find_or_insert fails with CapacityExceeded instead of
	// growing.
	defaultLoadFactorCeiling = 0.75

	// numStripes bounds the number of mutexes used to serialize concurrent
	// claims of distinct buckets, the same sharded-lock fallback
	// bamprovider's concurrentMap uses for keys too wide for a single CAS.
	numStripes = 4096

	hugePageSize = 2 << 20
)

// Table is a fixed-capacity, open-addressed, linear-probed hash table
// mapping canonical k-mers to stable Handles. It never grows: once the
// configured load factor ceiling is reached, find_or_insert returns
// dbgerr.CapacityExceeded.
type Table struct {
	codec    *kmer.Codec
	capacity int // always a power of two
	mask     uint64
	nWords   int

	words   []uint64 // capacity*nWords backing store, mmap'd
	wordsRaw []byte  // the mmap'd region words[] is sliced from

	state []uint32 // capacity entries, atomically accessed

	locks [numStripes]sync.Mutex

	ceiling float64
	count   int64 // atomic: number of occupied buckets
}

// NewTable allocates a table for k-mers packed by codec with room for at
// least minCapacity entries at the given load factor ceiling (0 selects the
// default 0.75). Capacity is rounded up to the next power of two.
func NewTable(codec *kmer.Codec, minCapacity int, ceiling float64) (*Table, error) {
	if minCapacity <= 0 {
		return nil, dbgerr.E(dbgerr.InvalidInput, "NewTable: minCapacity must be positive, got %d", minCapacity)
	}
	if ceiling <= 0 || ceiling >= 1 {
		ceiling = defaultLoadFactorCeiling
	}
	capacity := 1
	for capacity < minCapacity {
		capacity *= 2
	}
	nWords := codec.Words()

	byteLen := capacity * nWords * 8
	buf, err := unix.Mmap(-1, 0, byteLen+hugePageSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, dbgerr.E(dbgerr.IoError, "mmap hash table (%d bytes)", err, byteLen)
	}
	if err := unix.Madvise(buf, unix.MADV_HUGEPAGE); err != nil {
		// Hugepage hinting is an optimization, not a correctness
		// requirement; a failure here is not fatal.
		_ = err
	}
	words := wordsFromBytes(buf, capacity*nWords)

	return &Table{
		codec:    codec,
		capacity: capacity,
		mask:     uint64(capacity - 1),
		nWords:   nWords,
		words:    words,
		wordsRaw: buf,
		state:    make([]uint32, capacity),
		ceiling:  ceiling,
	}, nil
}

// Capacity returns the number of buckets.
func (t *Table) Capacity() int { return t.capacity }

// Len returns the approximate number of occupied buckets. Exact when no
// concurrent insert is in flight.
func (t *Table) Len() int64 { return atomic.LoadInt64(&t.count) }

func (t *Table) hash(k kmer.Kmer) uint64 {
	h := uint64(0)
	var buf [8]byte
	for _, w := range k.Words() {
		buf[0] = byte(w)
		buf[1] = byte(w >> 8)
		buf[2] = byte(w >> 16)
		buf[3] = byte(w >> 24)
		buf[4] = byte(w >> 32)
		buf[5] = byte(w >> 40)
		buf[6] = byte(w >> 48)
		buf[7] = byte(w >> 56)
		h = farm.Hash64WithSeed(buf[:], h)
	}
	return h
}

func (t *Table) bucketWords(b int) []uint64 {
	off := b * t.nWords
	return t.words[off : off+t.nWords]
}

func (t *Table) keyEqual(b int, k kmer.Kmer) bool {
	bw := t.bucketWords(b)
	kw := k.Words()
	for i := range kw {
		if bw[i] != kw[i] {
			return false
		}
	}
	return true
}

func (t *Table) readKey(b int) kmer.Kmer {
	bw := t.bucketWords(b)
	words := make([]uint64, len(bw))
	copy(words, bw)
	return kmer.FromWords(words)
}

// Find canonicalizes k and returns its Handle, or NotFound.
func (t *Table) Find(k kmer.Kmer) Handle {
	canon := t.codec.Canonical(k)
	h := t.hash(canon)
	idx := h & t.mask
	for i := uint64(0); i < uint64(t.capacity); i++ {
		b := int((idx + i) & t.mask)
		switch bucketState(atomic.LoadUint32(&t.state[b])) {
		case stateEmpty:
			return NotFound
		case stateOccupied:
			if t.keyEqual(b, canon) {
				return Handle(b)
			}
		}
	}
	return NotFound
}

// FindOrInsert canonicalizes k, returning its existing Handle if present, or
// claiming a fresh bucket and returning (handle, true). It returns
// dbgerr.CapacityExceeded if inserting would breach the load factor
// ceiling.
func (t *Table) FindOrInsert(k kmer.Kmer) (Handle, bool, error) {
	h, inserted, _, err := t.FindOrInsertOriented(k)
	return h, inserted, err
}

// FindOrInsertOriented is FindOrInsert, additionally reporting whether k's
// canonical form is the reverse complement of k (flipped). Callers that
// record strand-relative edges (the graph builder) need this.
func (t *Table) FindOrInsertOriented(k kmer.Kmer) (Handle, bool, bool, error) {
	canon, flipped := t.codec.CanonicalWithOrientation(k)
	h, inserted, err := t.findOrInsertCanonical(canon)
	return h, inserted, flipped, err
}

func (t *Table) findOrInsertCanonical(canon kmer.Kmer) (Handle, bool, error) {
	h := t.hash(canon)
	idx := h & t.mask
	for i := uint64(0); i < uint64(t.capacity); i++ {
		b := int((idx + i) & t.mask)
		switch bucketState(atomic.LoadUint32(&t.state[b])) {
		case stateOccupied:
			if t.keyEqual(b, canon) {
				return Handle(b), false, nil
			}
			continue
		case stateEmpty:
			lock := &t.locks[b%numStripes]
			lock.Lock()
			if bucketState(atomic.LoadUint32(&t.state[b])) == stateOccupied {
				lock.Unlock()
				if t.keyEqual(b, canon) {
					return Handle(b), false, nil
				}
				continue
			}
			if float64(atomic.LoadInt64(&t.count)+1) > t.ceiling*float64(t.capacity) {
				lock.Unlock()
				return NotFound, false, dbgerr.E(dbgerr.CapacityExceeded,
					"hash table: load factor ceiling %.2f reached at capacity %d", t.ceiling, t.capacity)
			}
			copy(t.bucketWords(b), canon.Words())
			atomic.StoreUint32(&t.state[b], uint32(stateOccupied))
			atomic.AddInt64(&t.count, 1)
			lock.Unlock()
			return Handle(b), true, nil
		}
	}
	return NotFound, false, dbgerr.E(dbgerr.CapacityExceeded, "hash table: no empty bucket found after full probe")
}

// NeighborLookup shifts h's k-mer by base in direction dir and looks up the
// resulting k-mer, returning NotFound if it is not present.
func (t *Table) NeighborLookup(h Handle, dir kmer.Direction, base kmer.Base) Handle {
	h2, _, _ := t.NeighborLookupOriented(h, dir, base)
	return h2
}

// NeighborLookupOriented is NeighborLookup, additionally reporting whether
// the neighbor's stored (canonical) form is the reverse complement of the
// shifted k-mer (flipped). A walker continuing across this neighbor in the
// same physical direction must flip dir for its next step exactly when
// flipped is true, the same rule the builder uses when recording edges
// across a canonicalization boundary.
func (t *Table) NeighborLookupOriented(h Handle, dir kmer.Direction, base kmer.Base) (next Handle, flipped bool, ok bool) {
	k := t.readKey(int(h))
	n := t.codec.Neighbor(k, dir, base)
	canon, fl := t.codec.CanonicalWithOrientation(n)
	found := t.Find(canon)
	if found == NotFound {
		return NotFound, false, false
	}
	return found, fl, true
}

// KeyAt returns the canonical k-mer stored at h.
func (t *Table) KeyAt(h Handle) kmer.Kmer { return t.readKey(int(h)) }

// Occupied reports whether bucket h holds a live key.
func (t *Table) Occupied(h Handle) bool {
	return bucketState(atomic.LoadUint32(&t.state[int(h)])) == stateOccupied
}

// Each calls f once per occupied bucket, in bucket order. f must not insert
// into the table.
func (t *Table) Each(f func(h Handle, k kmer.Kmer)) {
	for b := 0; b < t.capacity; b++ {
		if bucketState(atomic.LoadUint32(&t.state[b])) == stateOccupied {
			f(Handle(b), t.readKey(b))
		}
	}
}

// Close releases the table's backing memory. The table must not be used
// afterward.
func (t *Table) Close() error {
	if t.wordsRaw == nil {
		return nil
	}
	err := unix.Munmap(t.wordsRaw)
	t.wordsRaw = nil
	t.words = nil
	return err
}
