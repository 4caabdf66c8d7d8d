package normalize

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Validate checks the pre-conditions of Normalize: non-empty consistent shape,
// positive lengths, finite non-negative counts. It does not apply the zero
// library policy; that depends on Config.
func Validate(t *Table) error {
	_, err := librarySizes(t)
	return err
}

// librarySizes validates t and returns the per-sample column totals, summed in
// gene order.
func librarySizes(t *Table) ([]float64, error) {
	if t == nil {
		return nil, shapeError("nil table")
	}
	g, s := t.Dims()
	if g == 0 || s == 0 {
		return nil, shapeError("%d genes x %d samples", g, s)
	}
	if len(t.Lengths) != g {
		return nil, shapeError("%d lengths for %d genes", len(t.Lengths), g)
	}
	if t.Counts == nil {
		return nil, shapeError("no count matrix for %d genes x %d samples", g, s)
	}
	if r, c := t.Counts.Dims(); r != g || c != s {
		return nil, shapeError("count matrix is %dx%d, want %dx%d", r, c, g, s)
	}

	for row, l := range t.Lengths {
		if l <= 0 {
			return nil, &ValidationError{
				Kind: KindInvalidLength, Gene: t.Genes[row], Row: row, Col: -1,
				Value: float64(l), Detail: fmt.Sprintf("length %d", l),
			}
		}
	}

	totals := make([]float64, s)
	col := make([]float64, g)
	for j := 0; j < s; j++ {
		mat.Col(col, j, t.Counts)
		for row, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return nil, &ValidationError{
					Kind: KindInvalidCount, Gene: t.Genes[row], Sample: t.Samples[j], Row: row, Col: j,
					Value: v, Detail: fmt.Sprintf("count %v", v),
				}
			}
		}
		totals[j] = floats.Sum(col)
		if math.IsInf(totals[j], 0) {
			return nil, &ValidationError{
				Kind: KindInvalidCount, Sample: t.Samples[j], Row: -1, Col: j,
				Value: totals[j], Detail: "library size overflows float64",
			}
		}
	}
	return totals, nil
}

// checkFinite guards against NaN/Inf escaping into output. Reaching it with a
// bad value means a guard above is missing.
func checkFinite(name string, m *mat.Dense, genes, samples []string) error {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &ValidationError{
					Kind: KindNumericIntegrity, Gene: genes[i], Sample: samples[j], Row: i, Col: j,
					Value: v, Detail: fmt.Sprintf("%s value %v", name, v),
				}
			}
		}
	}
	return nil
}
