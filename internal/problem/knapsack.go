package problem

import (
	"fmt"
	"sort"

	"github.com/cwbudde/bitsearch/internal/search"
)

// maxBruteForceItems caps exhaustive search at 2^24 subsets.
const maxBruteForceItems = 24

// Reference instance: 15 items, capacity 25.
var (
	defaultValues   = []int{10, 5, 15, 7, 6, 18, 3, 12, 14, 9, 11, 8, 4, 13, 16}
	defaultWeights  = []int{2, 3, 5, 7, 1, 4, 1, 6, 3, 5, 7, 2, 1, 4, 5}
	defaultCapacity = 25
	defaultPenalty  = 5
)

// Knapsack is a 0/1 knapsack. Gene i selects item i.
//
// Fitness is the total value when the weight fits, otherwise the value
// minus Penalty per unit of overweight, which keeps the landscape smooth
// for the GA.
type Knapsack struct {
	values   []int
	weights  []int
	capacity int
	penalty  int

	// byDensity lists item indices by descending value/weight.
	byDensity []int
}

// NewKnapsack validates an instance. Weights must be positive.
func NewKnapsack(values, weights []int, capacity, penalty int) (*Knapsack, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("knapsack needs at least one item")
	}
	if len(values) != len(weights) {
		return nil, fmt.Errorf("values and weights differ in length: %d vs %d", len(values), len(weights))
	}
	if capacity < 0 {
		return nil, fmt.Errorf("capacity cannot be negative: %d", capacity)
	}
	if penalty < 0 {
		return nil, fmt.Errorf("penalty cannot be negative: %d", penalty)
	}
	for i, w := range weights {
		if w <= 0 {
			return nil, fmt.Errorf("item %d: weight must be positive, got %d", i, w)
		}
		if values[i] < 0 {
			return nil, fmt.Errorf("item %d: value cannot be negative, got %d", i, values[i])
		}
	}

	k := &Knapsack{
		values:   append([]int(nil), values...),
		weights:  append([]int(nil), weights...),
		capacity: capacity,
		penalty:  penalty,
	}
	k.byDensity = make([]int, len(values))
	for i := range k.byDensity {
		k.byDensity[i] = i
	}
	sort.SliceStable(k.byDensity, func(a, b int) bool {
		ia, ib := k.byDensity[a], k.byDensity[b]
		return k.density(ia) > k.density(ib)
	})
	return k, nil
}

// DefaultKnapsack returns the 15-item reference instance.
func DefaultKnapsack() *Knapsack {
	k, err := NewKnapsack(defaultValues, defaultWeights, defaultCapacity, defaultPenalty)
	if err != nil {
		panic(err)
	}
	return k
}

func (k *Knapsack) Name() string   { return "knapsack" }
func (k *Knapsack) Length() int    { return len(k.values) }
func (k *Knapsack) Maximize() bool { return true }
func (k *Knapsack) Capacity() int  { return k.capacity }

func (k *Knapsack) density(i int) float64 {
	return float64(k.values[i]) / float64(k.weights[i])
}

// Evaluate returns the total value and weight of the selected items.
// Genes past the item count are ignored.
func (k *Knapsack) Evaluate(c search.Candidate) (value, weight int) {
	for i, g := range c {
		if i >= len(k.values) {
			break
		}
		if g == 1 {
			value += k.values[i]
			weight += k.weights[i]
		}
	}
	return value, weight
}

// Score is the penalised fitness.
func (k *Knapsack) Score(c search.Candidate) float64 {
	value, weight := k.Evaluate(c)
	if weight <= k.capacity {
		return float64(value)
	}
	return float64(value - k.penalty*(weight-k.capacity))
}

// Feasible reports whether the selection fits the capacity.
func (k *Knapsack) Feasible(c search.Candidate) bool {
	_, weight := k.Evaluate(c)
	return weight <= k.capacity
}

// Bound is the fractional relaxation of a decision prefix: the value fixed
// so far plus the undecided items taken greedily by density, the last one
// fractionally. An overweight prefix gets the penalised value instead.
func (k *Knapsack) Bound(partial search.Candidate) float64 {
	value, weight := k.Evaluate(partial)
	room := k.capacity - weight
	if room < 0 {
		return float64(value + k.penalty*room)
	}

	bound := float64(value)
	for _, i := range k.byDensity {
		if i < len(partial) {
			continue
		}
		if k.weights[i] <= room {
			bound += float64(k.values[i])
			room -= k.weights[i]
			continue
		}
		bound += k.density(i) * float64(room)
		break
	}
	return bound
}

// BruteForce enumerates every subset and returns the best feasible value
// and its chromosome. Ties keep the lowest subset mask.
func (k *Knapsack) BruteForce() (int, search.Candidate, error) {
	n := len(k.values)
	if n > maxBruteForceItems {
		return 0, nil, fmt.Errorf("brute force limited to %d items, instance has %d", maxBruteForceItems, n)
	}

	bestValue := -1
	var bestMask uint32
	for mask := uint32(0); mask < 1<<n; mask++ {
		value, weight := 0, 0
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				value += k.values[i]
				weight += k.weights[i]
			}
		}
		if weight <= k.capacity && value > bestValue {
			bestValue = value
			bestMask = mask
		}
	}

	best := make(search.Candidate, n)
	for i := range best {
		if bestMask&(1<<i) != 0 {
			best[i] = 1
		}
	}
	return bestValue, best, nil
}

// Optimum reports the brute-force optimum.
func (k *Knapsack) Optimum() (float64, search.Candidate, error) {
	value, best, err := k.BruteForce()
	if err != nil {
		return 0, nil, err
	}
	return float64(value), best, nil
}
