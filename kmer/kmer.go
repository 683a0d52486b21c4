// Package kmer packs DNA strings into fixed-width canonical binary k-mers
// and provides the constant-time operations the graph engine builds on:
// canonicalization, reverse-complement, one-base shifts, and neighbor
// enumeration.
//
// A Kmer is a sequence of bases 0..k-1, two bits per base (A=0, C=1, G=2,
// T=3), packed into ceil(k/32) 64-bit words with the first base in the
// most-significant bits of the first (most significant) word. Comparing two
// Kmers of the same k word-by-word, most-significant word first, is
// equivalent to comparing their base strings from the 5' end, which is what
// Canonical relies on.
package kmer

import (
	"fmt"

	"github.com/grailbio/debruijn/biosimd"
)

// Base is a 2-bit nucleotide code: A=0, C=1, G=2, T=3.
type Base uint8

const (
	A Base = 0
	C Base = 1
	G Base = 2
	T Base = 3
)

var baseToASCII = [4]byte{'A', 'C', 'G', 'T'}

// String returns the single-character ASCII representation of b.
func (b Base) String() string {
	if b > T {
		return "?"
	}
	return string(baseToASCII[b])
}

// Complement returns the Watson-Crick complement of b.
func (b Base) Complement() Base { return 3 - b }

var asciiToBase [256]int8

func init() {
	for i := range asciiToBase {
		asciiToBase[i] = -1
	}
	asciiToBase['A'], asciiToBase['a'] = 0, 0
	asciiToBase['C'], asciiToBase['c'] = 1, 1
	asciiToBase['G'], asciiToBase['g'] = 2, 2
	asciiToBase['T'], asciiToBase['t'] = 3, 3
}

// Kmer is an immutable, fixed-width packed k-mer. Two Kmers are only
// comparable if they were produced by the same Codec (same k).
type Kmer struct {
	words []uint64
}

// Equal reports whether a and b encode the same packed bases.
func (a Kmer) Equal(b Kmer) bool {
	if len(a.words) != len(b.words) {
		return false
	}
	for i := range a.words {
		if a.words[i] != b.words[i] {
			return false
		}
	}
	return true
}

// Less reports whether a sorts before b in 5'-to-3' lexicographic order.
// a and b must share the same word count.
func (a Kmer) Less(b Kmer) bool {
	for i := range a.words {
		if a.words[i] != b.words[i] {
			return a.words[i] < b.words[i]
		}
	}
	return false
}

// Words returns the raw packed words of the k-mer, most-significant word
// first. Callers must not mutate the returned slice.
func (k Kmer) Words() []uint64 { return k.words }

// FromWords wraps an already-packed word slice as a Kmer. Callers must not
// mutate words afterward; storage layers that read packed bits back out of
// their own backing store (e.g. graph.Table) use this to avoid a copy on
// every lookup.
func FromWords(words []uint64) Kmer { return Kmer{words: words} }

// clone returns a deep copy, so in-place bit tricks never alias the caller's
// storage.
func (k Kmer) clone() Kmer {
	w := make([]uint64, len(k.words))
	copy(w, k.words)
	return Kmer{words: w}
}

// Codec packs and unpacks k-mers of a single, fixed odd length k.
type Codec struct {
	K             int
	nWords        int
	firstWordBase int // number of bases packed into the first (partial) word
}

// NewCodec returns a Codec for k-mers of length k. k must be odd (so a
// k-mer can never equal its own reverse complement) and in [3, 255].
func NewCodec(k int) (*Codec, error) {
	if k < 3 || k > 255 {
		return nil, fmt.Errorf("kmer: k=%d out of range [3,255]", k)
	}
	if k%2 == 0 {
		return nil, fmt.Errorf("kmer: k=%d must be odd", k)
	}
	nWords := (k + 31) / 32
	firstWordBase := k - 32*(nWords-1)
	return &Codec{K: k, nWords: nWords, firstWordBase: firstWordBase}, nil
}

// Words returns ceil(k/32), the number of 64-bit words per Kmer.
func (c *Codec) Words() int { return c.nWords }

func (c *Codec) wordPosition(p int) (wordIdx int, shift uint) {
	if p < c.firstWordBase {
		return 0, uint(2 * (c.firstWordBase - 1 - p))
	}
	p -= c.firstWordBase
	return 1 + p/32, uint(2 * (31 - p%32))
}

// Pack encodes an ASCII DNA string of length k into a Kmer. It returns an
// error if seq contains a non-ACGT base (case-insensitive) or the wrong
// length.
func (c *Codec) Pack(seq string) (Kmer, error) {
	if len(seq) != c.K {
		return Kmer{}, fmt.Errorf("kmer: Pack: len(seq)=%d, want %d", len(seq), c.K)
	}
	words := make([]uint64, c.nWords)
	for p := 0; p < c.K; p++ {
		code := asciiToBase[seq[p]]
		if code < 0 {
			return Kmer{}, fmt.Errorf("kmer: Pack: invalid base %q at position %d", seq[p], p)
		}
		wordIdx, shift := c.wordPosition(p)
		words[wordIdx] |= uint64(code) << shift
	}
	return Kmer{words: words}, nil
}

// Unpack decodes a Kmer back into an ASCII DNA string.
func (c *Codec) Unpack(k Kmer) string {
	buf := make([]byte, c.K)
	for p := 0; p < c.K; p++ {
		wordIdx, shift := c.wordPosition(p)
		code := (k.words[wordIdx] >> shift) & 3
		buf[p] = baseToASCII[code]
	}
	return string(buf)
}

// Base returns the base at 0-based position p (0 is the 5' end).
func (c *Codec) Base(k Kmer, p int) Base {
	wordIdx, shift := c.wordPosition(p)
	return Base((k.words[wordIdx] >> shift) & 3)
}

// ReverseComplement returns the reverse complement of k. It round-trips
// through ASCII using biosimd, the same technique the sibling repo's kmer
// scanner used for variable-length revcomp work.
func (c *Codec) ReverseComplement(k Kmer) Kmer {
	fwd := []byte(c.Unpack(k))
	rc := make([]byte, len(fwd))
	biosimd.ReverseComp8NoValidate(rc, fwd)
	out, err := c.Pack(string(rc))
	if err != nil {
		// fwd was already validated by Unpack's caller; revcomp of valid ACGT
		// is always valid ACGT.
		panic(err)
	}
	return out
}

// Canonical returns the lexicographically smaller of k and its reverse
// complement.
func (c *Codec) Canonical(k Kmer) Kmer {
	canon, _ := c.CanonicalWithOrientation(k)
	return canon
}

// CanonicalWithOrientation is Canonical, additionally reporting whether the
// returned k-mer is the reverse complement of k (flipped) or k itself.
// Callers that maintain edges relative to a node's canonical strand (the
// graph builder) need this to know whether a read-order base must be
// complemented and its edge direction swapped before being recorded.
func (c *Codec) CanonicalWithOrientation(k Kmer) (canon Kmer, flipped bool) {
	rc := c.ReverseComplement(k)
	if rc.Less(k) {
		return rc, true
	}
	return k, false
}

// IsCanonical reports whether k already equals its own canonical form.
func (c *Codec) IsCanonical(k Kmer) bool {
	return !c.ReverseComplement(k).Less(k)
}

// Direction is a traversal direction relative to a k-mer's forward strand.
type Direction uint8

const (
	Forward Direction = iota
	Reverse
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Forward {
		return Reverse
	}
	return Forward
}

// ShiftLeftAppend drops the leftmost (5') base of k and appends base on the
// right, returning the new k-mer. This is the forward-strand sliding-window
// step used when walking the graph in the Forward direction.
func (c *Codec) ShiftLeftAppend(k Kmer, base Base) Kmer {
	out := k.clone()
	carry := uint64(base)
	for i := c.nWords - 1; i >= 0; i-- {
		newCarry := out.words[i] >> 62
		out.words[i] = (out.words[i] << 2) | carry
		carry = newCarry
	}
	out.words[0] &= c.firstWordMask()
	return out
}

// ShiftRightPrepend drops the rightmost (3') base of k and prepends base on
// the left; the mirror image of ShiftLeftAppend, used when walking in the
// Reverse direction.
func (c *Codec) ShiftRightPrepend(k Kmer, base Base) Kmer {
	out := k.clone()
	for i := c.nWords - 1; i > 0; i-- {
		out.words[i] = (out.words[i] >> 2) | (out.words[i-1] << 62)
	}
	out.words[0] >>= 2
	wordIdx, shift := c.wordPosition(0)
	out.words[wordIdx] |= uint64(base) << shift
	return out
}

func (c *Codec) firstWordMask() uint64 {
	bits := uint(2 * c.firstWordBase)
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bits) - 1
}

// Neighbor computes the k-mer reached by extending k with base in the given
// direction: ShiftLeftAppend for Forward, ShiftRightPrepend for Reverse.
func (c *Codec) Neighbor(k Kmer, dir Direction, base Base) Kmer {
	if dir == Forward {
		return c.ShiftLeftAppend(k, base)
	}
	return c.ShiftRightPrepend(k, base)
}

// AllBases enumerates the four bases, for iterating over candidate
// neighbors or edge-mask bits.
var AllBases = [4]Base{A, C, G, T}
