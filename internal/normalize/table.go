package normalize

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Table is one fully loaded count table. Row g of Counts belongs to Genes[g]
// with length Lengths[g]; column s belongs to Samples[s].
type Table struct {
	Genes   []string
	Lengths []int
	Samples []string
	Counts  *mat.Dense // nil when the table has no genes or no samples
}

// NewTable builds a Table from row-major counts. Ragged rows or a row count
// that disagrees with genes/lengths is an input_shape error.
func NewTable(genes []string, lengths []int, samples []string, rows [][]float64) (*Table, error) {
	if len(genes) != len(rows) || len(lengths) != len(rows) {
		return nil, shapeError("%d genes, %d lengths, %d count rows", len(genes), len(lengths), len(rows))
	}
	t := &Table{Genes: genes, Lengths: lengths, Samples: samples}
	if len(rows) == 0 || len(samples) == 0 {
		return t, nil
	}
	data := make([]float64, 0, len(rows)*len(samples))
	for g, r := range rows {
		if len(r) != len(samples) {
			return nil, &ValidationError{
				Kind: KindInputShape, Gene: genes[g], Row: g, Col: -1,
				Detail: fmt.Sprintf("has %d counts, want %d", len(r), len(samples)),
			}
		}
		data = append(data, r...)
	}
	t.Counts = mat.NewDense(len(rows), len(samples), data)
	return t, nil
}

// Dims reports (genes, samples) as declared by the identifier slices.
func (t *Table) Dims() (genes, samples int) { return len(t.Genes), len(t.Samples) }
