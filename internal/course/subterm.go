package course

import "fmt"

// Subterm describes which fraction of a term a meeting runs for, without
// reference to any specific term. The term is divided into equal parts and
// each part is either included or not. A Subterm with no parts is the zero
// value and is treated as FullTerm by the JSON encoder.
type Subterm struct {
	parts []bool
}

// NewSubterm constructs a Subterm from inclusion flags, one per part of
// the term. At least one flag must be set.
func NewSubterm(included ...bool) (Subterm, error) {
	if len(included) == 0 {
		return Subterm{}, fmt.Errorf("%w: subterm needs at least one part", ErrInvalid)
	}
	any := false
	for _, in := range included {
		any = any || in
	}
	if !any {
		return Subterm{}, fmt.Errorf("%w: subterm includes no parts", ErrInvalid)
	}
	parts := make([]bool, len(included))
	copy(parts, included)
	return Subterm{parts: parts}, nil
}

// NewSubtermFromIndices reverses Parts/Indices: total parts plus the
// included part indices.
func NewSubtermFromIndices(count int, indices []int) (Subterm, error) {
	if count <= 0 {
		return Subterm{}, fmt.Errorf("%w: subterm part count %d", ErrInvalid, count)
	}
	included := make([]bool, count)
	for _, i := range indices {
		if i < 0 || i >= count {
			return Subterm{}, fmt.Errorf("%w: subterm index %d out of %d parts", ErrInvalid, i, count)
		}
		included[i] = true
	}
	return NewSubterm(included...)
}

func mustSubterm(included ...bool) Subterm {
	st, err := NewSubterm(included...)
	if err != nil {
		panic(err)
	}
	return st
}

// Common subterm shapes.
var (
	FullTerm                 = mustSubterm(true)
	FirstHalfTerm            = mustSubterm(true, false)
	SecondHalfTerm           = mustSubterm(false, true)
	FirstThirdTerm           = mustSubterm(true, false, false)
	MiddleThirdTerm          = mustSubterm(false, true, false)
	LastThirdTerm            = mustSubterm(false, false, true)
	FirstAndMiddleThirdTerms = mustSubterm(true, true, false)
	MiddleAndLastThirdTerms  = mustSubterm(false, true, true)
)

// Empty reports whether the subterm is the zero value.
func (s Subterm) Empty() bool { return len(s.parts) == 0 }

// Parts returns how many parts the term is divided into.
func (s Subterm) Parts() int { return len(s.parts) }

// Indices returns the included part indices in ascending order.
func (s Subterm) Indices() []int {
	out := make([]int, 0, len(s.parts))
	for i, in := range s.parts {
		if in {
			out = append(out, i)
		}
	}
	return out
}

// Validate checks the subterm invariant. The zero value is valid and means
// full term.
func (s Subterm) Validate() error {
	if s.Empty() {
		return nil
	}
	for _, in := range s.parts {
		if in {
			return nil
		}
	}
	return fmt.Errorf("%w: subterm includes no parts", ErrInvalid)
}
