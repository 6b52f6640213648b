// Package stratify implements iterative stratification for multi-label
// samples (Sechidis, Tsoumakas and Vlahavas, 2011).
//
// Samples are identified by index and labelled with a set of integer labels.
// Split distributes them over folds whose sizes follow the requested
// proportions while keeping each label's share in every fold close to the
// same proportions.
package stratify

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
)

// ErrInvalidProportions is returned for an empty, negative or all-zero
// proportion vector.
var ErrInvalidProportions = errors.New("invalid fold proportions")

// Split assigns every sample to a fold and returns the sample indices of each
// fold in ascending order. labels[i] is the label set of sample i; duplicate
// labels within a set are ignored. proportions need not sum to one.
//
// rng drives tie-breaking and the visiting order inside a label. Passing a
// generator with a fixed seed makes the result reproducible.
func Split(labels [][]int, proportions []float64, rng *rand.Rand) ([][]int, error) {
	if err := checkProportions(proportions); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	s := newState(labels, proportions)
	s.run(rng)

	folds := make([][]int, len(proportions))
	for i := range folds {
		folds[i] = []int{}
	}
	for sample, fold := range s.assigned {
		folds[fold] = append(folds[fold], sample)
	}
	return folds, nil
}

func checkProportions(proportions []float64) error {
	if len(proportions) == 0 {
		return fmt.Errorf("%w: no folds", ErrInvalidProportions)
	}
	var total float64
	for _, p := range proportions {
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: %v", ErrInvalidProportions, proportions)
		}
		total += p
	}
	if total == 0 {
		return fmt.Errorf("%w: all zero", ErrInvalidProportions)
	}
	return nil
}

type state struct {
	labels   [][]int
	byLabel  map[int][]int // label -> samples carrying it
	assigned []int         // sample -> fold, -1 while unassigned

	remaining map[int]int // label -> unassigned samples carrying it

	desired      []float64         // fold -> samples still wanted
	desiredLabel []map[int]float64 // fold -> label -> samples still wanted
}

func newState(labels [][]int, proportions []float64) *state {
	var total float64
	for _, p := range proportions {
		total += p
	}
	ratios := make([]float64, len(proportions))
	for i, p := range proportions {
		ratios[i] = p / total
	}

	s := &state{
		labels:       make([][]int, len(labels)),
		byLabel:      make(map[int][]int),
		assigned:     make([]int, len(labels)),
		remaining:    make(map[int]int),
		desired:      make([]float64, len(ratios)),
		desiredLabel: make([]map[int]float64, len(ratios)),
	}

	for i, set := range labels {
		uniq := slices.Clone(set)
		slices.Sort(uniq)
		uniq = slices.Compact(uniq)
		s.labels[i] = uniq
		s.assigned[i] = -1
		for _, l := range uniq {
			s.byLabel[l] = append(s.byLabel[l], i)
			s.remaining[l]++
		}
	}

	n := float64(len(labels))
	for j, r := range ratios {
		s.desired[j] = r * n
		s.desiredLabel[j] = make(map[int]float64, len(s.remaining))
		for l, count := range s.remaining {
			s.desiredLabel[j][l] = r * float64(count)
		}
	}
	return s
}

func (s *state) run(rng *rand.Rand) {
	for {
		label, ok := s.rarestLabel()
		if !ok {
			break
		}

		pending := make([]int, 0, s.remaining[label])
		for _, sample := range s.byLabel[label] {
			if s.assigned[sample] < 0 {
				pending = append(pending, sample)
			}
		}
		rng.Shuffle(len(pending), func(i, j int) {
			pending[i], pending[j] = pending[j], pending[i]
		})

		for _, sample := range pending {
			s.assign(sample, s.chooseFold(label, true, rng))
		}
	}

	// Unlabelled samples only balance fold sizes
	for sample, fold := range s.assigned {
		if fold < 0 {
			s.assign(sample, s.chooseFold(0, false, rng))
		}
	}
}

// rarestLabel returns the label with the fewest unassigned samples, lowest
// label first on ties.
func (s *state) rarestLabel() (int, bool) {
	best, bestCount := 0, 0
	for l, count := range s.remaining {
		if count == 0 {
			continue
		}
		if bestCount == 0 || count < bestCount || (count == bestCount && l < best) {
			best, bestCount = l, count
		}
	}
	return best, bestCount > 0
}

// chooseFold picks the fold that most wants another sample of label, then the
// fold furthest below its overall target, then a random one. Unlabelled
// samples skip the first step.
func (s *state) chooseFold(label int, labelled bool, rng *rand.Rand) int {
	const eps = 1e-9

	candidates := make([]int, 0, len(s.desired))
	for j := range s.desired {
		candidates = append(candidates, j)
	}

	if labelled {
		candidates = keepMax(candidates, func(j int) float64 { return s.desiredLabel[j][label] }, eps)
	}
	candidates = keepMax(candidates, func(j int) float64 { return s.desired[j] }, eps)

	if len(candidates) == 1 {
		return candidates[0]
	}
	return candidates[rng.IntN(len(candidates))]
}

func keepMax(candidates []int, score func(int) float64, eps float64) []int {
	best := math.Inf(-1)
	for _, j := range candidates {
		best = math.Max(best, score(j))
	}
	out := candidates[:0]
	for _, j := range candidates {
		if score(j) >= best-eps {
			out = append(out, j)
		}
	}
	return out
}

func (s *state) assign(sample, fold int) {
	s.assigned[sample] = fold
	s.desired[fold]--
	for _, l := range s.labels[sample] {
		s.desiredLabel[fold][l]--
		s.remaining[l]--
	}
}
