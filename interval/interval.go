// Package interval represents unions of half-open genomic intervals as
// sorted endpoint sequences, grounded on grailbio-bio's interval package
// (specifically endpoint_index.go's UnionScanner/EndpointIndex machinery).
// No other package in this module imports it.
package interval

import (
	"math"
	"sort"
)

// PosType is the type used to represent interval coordinates. int32 is wide
// enough for any single reference contig we expect to walk.
type PosType int32

// PosTypeMax is the maximum value representable by a PosType.
const PosTypeMax = math.MaxInt32

// Interval is a half-open span [Start, End) on some reference contig.
type Interval struct {
	Start, End PosType
}

// Len returns End - Start.
func (iv Interval) Len() PosType { return iv.End - iv.Start }

// Overlaps reports whether iv and other share any position.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// SearchPosTypes returns the index of x in a, or the position where x would
// be inserted if absent.
func SearchPosTypes(a []PosType, x PosType) EndpointIndex {
	return EndpointIndex(sort.Search(len(a), func(i int) bool { return a[i] >= x }))
}

// EndpointIndex represents the result of SearchPosTypes(endpoints, pos+1);
// the "+1" keeps it aligned with half-open [start, end) semantics.
type EndpointIndex uint32

// Contained reports whether ei refers to a position inside an interval.
func (ei EndpointIndex) Contained() bool { return ei&1 != 0 }

// Finished reports whether ei is past every interval in endpoints.
func (ei EndpointIndex) Finished(endpoints []PosType) bool {
	return ei >= EndpointIndex(len(endpoints))
}

// Set is a union of disjoint, sorted half-open intervals, represented as a
// flat sequence of endpoints: {s0, e0, s1, e1, ...}.
type Set struct {
	endpoints []PosType
}

// Build merges a (possibly overlapping, unsorted) slice of intervals into a
// Set of disjoint, sorted spans.
func Build(ivs []Interval) *Set {
	if len(ivs) == 0 {
		return &Set{}
	}
	sorted := append([]Interval(nil), ivs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	endpoints := make([]PosType, 0, 2*len(sorted))
	curStart, curEnd := sorted[0].Start, sorted[0].End
	for _, iv := range sorted[1:] {
		if iv.Start > curEnd {
			endpoints = append(endpoints, curStart, curEnd)
			curStart, curEnd = iv.Start, iv.End
			continue
		}
		if iv.End > curEnd {
			curEnd = iv.End
		}
	}
	endpoints = append(endpoints, curStart, curEnd)
	return &Set{endpoints: endpoints}
}

// Endpoints returns the Set's raw sorted endpoint sequence.
func (s *Set) Endpoints() []PosType { return s.endpoints }

// NumIntervals returns the number of disjoint spans in the set.
func (s *Set) NumIntervals() int { return len(s.endpoints) / 2 }

// At returns the i'th disjoint interval.
func (s *Set) At(i int) Interval {
	return Interval{Start: s.endpoints[2*i], End: s.endpoints[2*i+1]}
}

// Contains reports whether pos falls within some interval of the set.
func (s *Set) Contains(pos PosType) bool {
	return NewEndpointIndex(pos, s.endpoints).Contained()
}

// NewEndpointIndex returns an EndpointIndex for pos against endpoints.
func NewEndpointIndex(pos PosType, endpoints []PosType) EndpointIndex {
	return SearchPosTypes(endpoints, pos+1)
}

// Scanner iterates over a Set's within-interval positions in increasing
// order, advancing incrementally without rescanning from the start each
// time.
type Scanner struct {
	endpoints   []PosType
	pos         PosType
	endpointIdx EndpointIndex
}

// NewScanner returns a Scanner positioned at the start of s's first interval.
func NewScanner(s *Set) *Scanner {
	sc := &Scanner{endpoints: s.endpoints, pos: PosTypeMax}
	if len(s.endpoints) >= 1 {
		sc.pos = s.endpoints[0]
		sc.endpointIdx = 1
	}
	return sc
}

// Pos returns the next position to be scanned, or PosTypeMax once exhausted.
func (sc *Scanner) Pos() PosType { return sc.pos }

// Scan reports the next contiguous within-interval run [start, end) up to
// limit (exclusive), advancing the scanner past it. It returns false once
// pos has reached limit.
func (sc *Scanner) Scan(start, end *PosType, limit PosType) bool {
	if sc.pos >= limit {
		return false
	}
	*start = sc.pos
	intervalEnd := sc.endpoints[sc.endpointIdx]
	if intervalEnd > limit {
		sc.pos = limit
		*end = limit
		return true
	}
	*end = intervalEnd
	sc.endpointIdx++
	if sc.endpointIdx.Finished(sc.endpoints) {
		sc.pos = PosTypeMax
	} else {
		sc.pos = sc.endpoints[sc.endpointIdx]
		sc.endpointIdx++
	}
	return true
}
