package search

import (
	"fmt"
	"strings"
)

// Candidate is a fixed-length ordered sequence of binary genes.
// Each element is 0 or 1. Candidates are compared by value; engines
// clone before mutating so callers never observe shared backing arrays.
type Candidate []byte

// NewCandidate returns an all-zero candidate of the given length.
func NewCandidate(length int) Candidate {
	return make(Candidate, length)
}

// ParseCandidate decodes a string of '0' and '1' runes.
func ParseCandidate(s string) (Candidate, error) {
	c := make(Candidate, len(s))
	for i, r := range s {
		switch r {
		case '0':
			c[i] = 0
		case '1':
			c[i] = 1
		default:
			return nil, fmt.Errorf("invalid gene %q at position %d", r, i)
		}
	}
	return c, nil
}

// Len returns the number of genes.
func (c Candidate) Len() int {
	return len(c)
}

// Clone returns an independent copy.
func (c Candidate) Clone() Candidate {
	out := make(Candidate, len(c))
	copy(out, c)
	return out
}

// Equal reports whether both candidates hold the same genes.
func (c Candidate) Equal(other Candidate) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// Ones counts the genes set to 1.
func (c Candidate) Ones() int {
	n := 0
	for _, g := range c {
		if g != 0 {
			n++
		}
	}
	return n
}

// Append returns a new candidate with gene appended; c is left untouched.
func (c Candidate) Append(gene byte) Candidate {
	out := make(Candidate, len(c)+1)
	copy(out, c)
	out[len(c)] = gene
	return out
}

// Pad returns a copy extended to length with exclude (0) genes.
// If c is already at least length long, the copy is returned unchanged.
func (c Candidate) Pad(length int) Candidate {
	if len(c) >= length {
		return c.Clone()
	}
	out := make(Candidate, length)
	copy(out, c)
	return out
}

// Flip inverts the gene at i in place.
func (c Candidate) Flip(i int) {
	c[i] ^= 1
}

// String renders the genes as a bit string, e.g. "0110".
func (c Candidate) String() string {
	var sb strings.Builder
	sb.Grow(len(c))
	for _, g := range c {
		if g != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
