package calibration

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/richmondsunlight/chyrons/internal/analyzer"
)

// Group is a set of candidate boxes treated as sightings of one chyron.
// Members[0] is the seed.
type Group struct {
	Members []analyzer.Rect
}

func (g Group) Seed() analyzer.Rect {
	return g.Members[0]
}

func (g Group) Size() int {
	return len(g.Members)
}

// Similar reports whether every coordinate of b is within tol of a.
func Similar(a, b analyzer.Rect, tol int) bool {
	return abs(a.X-b.X) <= tol &&
		abs(a.Y-b.Y) <= tol &&
		abs(a.W-b.W) <= tol &&
		abs(a.H-b.H) <= tol
}

// Cluster partitions candidates in a single left-to-right pass. Each
// unclaimed candidate seeds a group and claims every later unclaimed
// candidate similar to it. Membership is decided against the seed only and
// never revisited, so the result depends on input order: a box close to two
// seeds joins whichever seed comes first.
func Cluster(candidates []analyzer.Rect, tol int) []Group {
	claimed := make([]bool, len(candidates))
	groups := []Group{}

	for i, seed := range candidates {
		if claimed[i] {
			continue
		}
		claimed[i] = true
		group := Group{Members: []analyzer.Rect{seed}}

		for j := i + 1; j < len(candidates); j++ {
			if claimed[j] {
				continue
			}
			if Similar(seed, candidates[j], tol) {
				claimed[j] = true
				group.Members = append(group.Members, candidates[j])
			}
		}

		groups = append(groups, group)
	}

	return groups
}

// Select keeps the k largest groups. Equal sizes keep discovery order.
func Select(groups []Group, k int) []Group {
	sorted := make([]Group, len(groups))
	copy(sorted, groups)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Size() > sorted[j].Size()
	})

	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

// Aggregate is the per-coordinate mean of the group, rounded half to even.
func Aggregate(g Group) analyzer.Rect {
	n := len(g.Members)
	xs := make([]float64, n)
	ys := make([]float64, n)
	ws := make([]float64, n)
	hs := make([]float64, n)

	for i, r := range g.Members {
		xs[i] = float64(r.X)
		ys[i] = float64(r.Y)
		ws[i] = float64(r.W)
		hs[i] = float64(r.H)
	}

	return analyzer.Rect{
		X: roundMean(xs),
		Y: roundMean(ys),
		W: roundMean(ws),
		H: roundMean(hs),
	}
}

func roundMean(v []float64) int {
	return int(math.RoundToEven(stat.Mean(v, nil)))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
