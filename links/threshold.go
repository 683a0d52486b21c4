package links

import (
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/grailbio/debruijn/graph"
	"github.com/grailbio/debruijn/kmer"
)

// SelectThreshold estimates a single coverage threshold for link cleaning
// (§4.8): given per-kmer effective-coverage (lambda) samples, one per
// sampled branching trie, it takes their median as the central coverage
// estimate and returns the smallest integer t such that
// P(X >= t | X ~ Poisson(lambda)) <= falsePositiveRate, capped at max (if
// max > 0).
func SelectThreshold(lambdaSamples []float64, falsePositiveRate float64, max int) int {
	if len(lambdaSamples) == 0 {
		return 1
	}
	lambda := median(lambdaSamples)
	if lambda <= 0 {
		return 1
	}
	if falsePositiveRate <= 0 {
		falsePositiveRate = 0.001
	}
	pois := distuv.Poisson{Lambda: lambda}
	t := 1
	for {
		// P(X >= t) = 1 - P(X <= t-1) = 1 - CDF(t-1).
		tailProb := 1 - pois.CDF(float64(t-1))
		if tailProb <= falsePositiveRate {
			break
		}
		t++
		if max > 0 && t >= max {
			t = max
			break
		}
		if t > 1<<20 {
			// Guards against a pathological lambda never converging; no
			// realistic coverage gets anywhere near this threshold.
			break
		}
	}
	if max > 0 && t > max {
		t = max
	}
	return t
}

func median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// LambdaEstimates returns one effective-coverage estimate per (node,
// direction) trie in ix: the coverage of the trie root's most-covered
// child, a proxy for how many reads passed through that branch at all (the
// root itself carries no coverage — only junction choices do).
func LambdaEstimates(ix *Index) []float64 {
	var out []float64
	ix.EachRoot(func(_ graph.Handle, _ Dir, root int32) {
		var best uint32
		for b := 0; b < 4; b++ {
			child := ix.arena.walk(root, kmer.Base(b))
			if child == nilRef {
				continue
			}
			if cov := ix.arena.node(child).coverage; cov > best {
				best = cov
			}
		}
		if best > 0 {
			out = append(out, float64(best))
		}
	})
	return out
}
