package course

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSubterm(t *testing.T) {
	st, err := NewSubterm(true, false)
	require.NoError(t, err)
	require.Equal(t, 2, st.Parts())
	require.Equal(t, []int{0}, st.Indices())

	_, err = NewSubterm()
	require.ErrorIs(t, err, ErrInvalid)

	_, err = NewSubterm(false, false)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestNewSubtermFromIndices(t *testing.T) {
	st, err := NewSubtermFromIndices(3, []int{0, 2})
	require.NoError(t, err)
	require.Equal(t, 3, st.Parts())
	require.Equal(t, []int{0, 2}, st.Indices())

	_, err = NewSubtermFromIndices(0, nil)
	require.ErrorIs(t, err, ErrInvalid)

	_, err = NewSubtermFromIndices(2, []int{2})
	require.ErrorIs(t, err, ErrInvalid)

	_, err = NewSubtermFromIndices(2, nil)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestSubtermRoundTrip(t *testing.T) {
	for _, st := range []Subterm{FullTerm, FirstHalfTerm, SecondHalfTerm, MiddleThirdTerm, FirstAndMiddleThirdTerms} {
		back, err := NewSubtermFromIndices(st.Parts(), st.Indices())
		require.NoError(t, err)
		require.Equal(t, st, back)
	}
}

func TestSubtermZeroValue(t *testing.T) {
	var st Subterm
	require.True(t, st.Empty())
	require.NoError(t, st.Validate())
	require.False(t, FullTerm.Empty())
}
