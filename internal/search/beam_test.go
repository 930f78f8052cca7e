package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flipEach yields every single-bit neighbour of c.
var flipEach = ExpandFunc(func(c Candidate) []Candidate {
	out := make([]Candidate, len(c))
	for i := range c {
		n := c.Clone()
		n.Flip(i)
		out[i] = n
	}
	return out
})

func TestBeamSearch_BitFlipFromZeros(t *testing.T) {
	bs, err := NewBeamSearch(BeamConfig{Width: 2, Depth: 5, Maximize: true}, flipEach, countOnes)
	require.NoError(t, err)

	start := NewCandidate(8)
	res := bs.Search(start)

	assert.Greater(t, res.BestScore, 0.0)
	assert.LessOrEqual(t, res.BestScore, 8.0)
	assert.Equal(t, 5.0, res.BestScore)
	assert.Equal(t, 5, res.Best.Ones())
	assert.Equal(t, NewCandidate(8), start, "start state must not be modified")
	assert.Equal(t, -1, res.ExhaustedAt)
	assert.Equal(t, 1+8+2*8*4, res.Evaluations)
}

func TestBeamSearch_TraceIsMonotone(t *testing.T) {
	rs := NewRandomStream(4)
	start := rs.Candidate(18)

	bs, err := NewBeamSearch(BeamConfig{Width: 4, Depth: 25, Maximize: true}, flipEach, countOnes)
	require.NoError(t, err)
	res := bs.Search(start)

	require.Len(t, res.Trace, 25)
	prev := countOnes(start)
	for d, s := range res.Trace {
		assert.GreaterOrEqual(t, s, prev, "best-so-far regressed at depth %d", d+1)
		prev = s
	}
	assert.Equal(t, 18.0, res.BestScore)
}

func TestBeamSearch_KeepsBestAfterItIsPruned(t *testing.T) {
	// Single-bit states score 10; everything else scores its bit count, so
	// the frontier moves on to weaker two-bit states after depth 1.
	peak := ScoreFunc(func(c Candidate) float64 {
		if c.Ones() == 1 {
			return 10
		}
		return float64(c.Ones())
	})

	bs, err := NewBeamSearch(BeamConfig{Width: 1, Depth: 3, Maximize: true}, flipEach, peak)
	require.NoError(t, err)
	res := bs.Search(NewCandidate(4))

	assert.Equal(t, 10.0, res.BestScore)
	assert.Equal(t, 1, res.Best.Ones())
	assert.Equal(t, []float64{10, 10, 10}, res.Trace)
}

func TestBeamSearch_EmptyFrontierStopsQuietly(t *testing.T) {
	calls := 0
	none := ExpandFunc(func(Candidate) []Candidate {
		calls++
		return nil
	})

	bs, err := NewBeamSearch(BeamConfig{Width: 3, Depth: 4, Maximize: true}, none, countOnes)
	require.NoError(t, err)

	start := Candidate{1, 0, 1}
	res := bs.Search(start)

	assert.Equal(t, start, res.Best)
	assert.Equal(t, 2.0, res.BestScore)
	assert.Equal(t, 1, res.ExhaustedAt)
	assert.Equal(t, []float64{2, 2, 2, 2}, res.Trace)
	assert.Equal(t, 1, calls, "nothing left to expand after the frontier empties")
}

func TestBeamSearch_TiesKeepInsertionOrder(t *testing.T) {
	var expanded []string
	recording := ExpandFunc(func(c Candidate) []Candidate {
		expanded = append(expanded, c.String())
		return flipEach(c)
	})
	flat := ScoreFunc(func(Candidate) float64 { return 0 })

	bs, err := NewBeamSearch(BeamConfig{Width: 1, Depth: 3, Maximize: true}, recording, flat)
	require.NoError(t, err)
	res := bs.Search(NewCandidate(3))

	assert.Equal(t, []string{"000", "100", "000"}, expanded)
	assert.Equal(t, NewCandidate(3), res.Best, "no strict improvement keeps the start")
}

func TestBeamSearch_Minimize(t *testing.T) {
	bs, err := NewBeamSearch(BeamConfig{Width: 2, Depth: 6, Maximize: false}, flipEach, countOnes)
	require.NoError(t, err)

	res := bs.Search(Candidate{1, 1, 1, 1, 1, 1})
	assert.Equal(t, 0.0, res.BestScore)
	assert.Equal(t, NewCandidate(6), res.Best)
	for i := 1; i < len(res.Trace); i++ {
		assert.LessOrEqual(t, res.Trace[i], res.Trace[i-1])
	}
}

func TestBeamSearch_ZeroDepth(t *testing.T) {
	bs, err := NewBeamSearch(BeamConfig{Width: 2, Depth: 0, Maximize: true}, flipEach, countOnes)
	require.NoError(t, err)

	res := bs.Search(Candidate{0, 1})
	assert.Equal(t, Candidate{0, 1}, res.Best)
	assert.Equal(t, 1.0, res.BestScore)
	assert.Empty(t, res.Trace)
}

func TestNewBeamSearch_RejectsBadConfig(t *testing.T) {
	_, err := NewBeamSearch(BeamConfig{Width: 0, Depth: 1}, flipEach, countOnes)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewBeamSearch(BeamConfig{Width: 1, Depth: -1}, flipEach, countOnes)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewBeamSearch(BeamConfig{Width: 1, Depth: 1}, nil, countOnes)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewBeamSearch(BeamConfig{Width: 1, Depth: 1}, flipEach, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
}
