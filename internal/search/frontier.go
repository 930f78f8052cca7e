package search

import (
	"container/heap"
	"sort"
)

// scored pairs a state with its ranking key and insertion sequence.
type scored struct {
	state Candidate
	key   float64
	seq   int
}

// frontier keeps the best width states offered to it. Internally it is a
// heap whose root is the weakest kept state, so each offer costs O(log W).
// Ties on key favour the earlier offer.
type frontier struct {
	items    []scored
	width    int
	maximize bool
	seq      int
}

func newFrontier(width int, maximize bool) *frontier {
	return &frontier{
		items:    make([]scored, 0, width),
		width:    width,
		maximize: maximize,
	}
}

// outranks reports whether a ranks ahead of b.
func (f *frontier) outranks(a, b scored) bool {
	if a.key != b.key {
		return better(a.key, b.key, f.maximize)
	}
	return a.seq < b.seq
}

func (f *frontier) Len() int           { return len(f.items) }
func (f *frontier) Less(i, j int) bool { return f.outranks(f.items[j], f.items[i]) }
func (f *frontier) Swap(i, j int)      { f.items[i], f.items[j] = f.items[j], f.items[i] }
func (f *frontier) Push(x any)         { f.items = append(f.items, x.(scored)) }
func (f *frontier) Pop() any {
	last := f.items[len(f.items)-1]
	f.items = f.items[:len(f.items)-1]
	return last
}

// offer inserts state, evicting the weakest kept state when over capacity.
func (f *frontier) offer(state Candidate, key float64) {
	s := scored{state: state, key: key, seq: f.seq}
	f.seq++
	if len(f.items) < f.width {
		heap.Push(f, s)
		return
	}
	if f.outranks(s, f.items[0]) {
		f.items[0] = s
		heap.Fix(f, 0)
	}
}

// states returns the kept states best-first.
func (f *frontier) states() []Candidate {
	sorted := make([]scored, len(f.items))
	copy(sorted, f.items)
	sort.Slice(sorted, func(i, j int) bool { return f.outranks(sorted[i], sorted[j]) })
	out := make([]Candidate, len(sorted))
	for i, s := range sorted {
		out[i] = s.state
	}
	return out
}
