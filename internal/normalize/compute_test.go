package normalize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRPKM_MatchesEngine(t *testing.T) {
	tab := exampleTable(t)
	r, err := RPKM(tab, ZeroLibraryDegrade)
	require.NoError(t, err)

	res, err := New(Config{Threads: 3}).Normalize(context.Background(), tab)
	require.NoError(t, err)
	assert.True(t, mat.Equal(r, res.RPKM))
	assert.True(t, mat.Equal(TPM(r), res.TPM))
}

func TestRPKM_Formula(t *testing.T) {
	tab, err := NewTable([]string{"x", "y"}, []int{2000, 500}, []string{"s"}, [][]float64{{30}, {70}})
	require.NoError(t, err)
	r, err := RPKM(tab, ZeroLibraryFail)
	require.NoError(t, err)

	assert.InDelta(t, 30*1e9/(2000*100.0), r.At(0, 0), 1e-6)
	assert.InDelta(t, 70*1e9/(500*100.0), r.At(1, 0), 1e-6)
}

func TestRPKM_PolicyApplies(t *testing.T) {
	_, err := RPKM(zeroLibraryTable(t), ZeroLibraryFail)
	require.ErrorIs(t, err, ErrZeroLibrarySize)

	r, err := RPKM(zeroLibraryTable(t), ZeroLibraryDegrade)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, mat.Col(nil, 1, r))
}

func TestTPM_ZeroColumnStaysZero(t *testing.T) {
	r := mat.NewDense(2, 2, []float64{1, 0, 3, 0})
	out := TPM(r)
	assert.Equal(t, []float64{0.25e6, 0.75e6}, mat.Col(nil, 0, out))
	assert.Equal(t, []float64{0, 0}, mat.Col(nil, 1, out))
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Kind: KindInvalidLength, Gene: "g7", Row: 6, Col: -1, Detail: "length 0"}
	assert.Equal(t, `invalid_length: gene "g7" (row 7) length 0`, err.Error())
	assert.ErrorIs(t, err, ErrInvalidLength)
	assert.NotErrorIs(t, err, ErrInvalidCount)
}
