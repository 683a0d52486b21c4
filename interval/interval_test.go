package interval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMergesOverlapping(t *testing.T) {
	s := Build([]Interval{
		{Start: 5, End: 15},
		{Start: 7, End: 17},
		{Start: 20, End: 25},
	})
	assert.Equal(t, 2, s.NumIntervals())
	assert.Equal(t, Interval{Start: 5, End: 17}, s.At(0))
	assert.Equal(t, Interval{Start: 20, End: 25}, s.At(1))
}

func TestBuildEmpty(t *testing.T) {
	s := Build(nil)
	assert.Equal(t, 0, s.NumIntervals())
}

func TestContains(t *testing.T) {
	s := Build([]Interval{{Start: 5, End: 15}, {Start: 20, End: 25}})
	assert.True(t, s.Contains(5))
	assert.True(t, s.Contains(14))
	assert.False(t, s.Contains(15))
	assert.False(t, s.Contains(18))
	assert.True(t, s.Contains(24))
}

func TestScannerMatchesEndpointsExample(t *testing.T) {
	s := Build([]Interval{{Start: 5, End: 15}, {Start: 7, End: 17}, {Start: 20, End: 25}})
	sc := NewScanner(s)

	var got []PosType
	var start, end PosType
	for sc.Scan(&start, &end, 22) {
		for pos := start; pos < end; pos++ {
			got = append(got, pos)
		}
	}
	assert.Equal(t, []PosType{5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 20, 21}, got)

	got = nil
	for sc.Scan(&start, &end, 30) {
		for pos := start; pos < end; pos++ {
			got = append(got, pos)
		}
	}
	assert.Equal(t, []PosType{22, 23, 24}, got)
}

func TestOverlaps(t *testing.T) {
	a := Interval{Start: 5, End: 15}
	assert.True(t, a.Overlaps(Interval{Start: 10, End: 20}))
	assert.False(t, a.Overlaps(Interval{Start: 15, End: 20}))
}
