package writers

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"genenorm/pkg/api"
)

func init() {
	register(FormatCSV, delimited(','))
	register(FormatTSV, delimited('\t'))
	register(FormatJSON, writeJSON)
}

// GeneHeader names the leading column when Matrix.GeneIDs is set.
const GeneHeader = "gene_id"

func formatValue(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// delimited writes a header of sample names followed by one row per gene,
// without an index column unless GeneIDs is set.
func delimited(comma rune) matrixWriter {
	return func(w io.Writer, m Matrix) error {
		bw := bufio.NewWriter(w)
		cw := csv.NewWriter(bw)
		cw.Comma = comma

		r, c := m.Values.Dims()
		off := 0
		if m.GeneIDs {
			off = 1
		}
		rec := make([]string, c+off)
		if m.GeneIDs {
			rec[0] = GeneHeader
		}
		copy(rec[off:], m.Samples)
		if err := cw.Write(rec); err != nil {
			return err
		}
		for i := 0; i < r; i++ {
			if m.GeneIDs {
				rec[0] = m.Genes[i]
			}
			for j := 0; j < c; j++ {
				rec[off+j] = formatValue(m.Values.At(i, j))
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		return bw.Flush()
	}
}

// ToAPIMatrix converts a matrix to the stable wire schema (v1).
func ToAPIMatrix(m Matrix) api.MatrixV1 {
	r, _ := m.Values.Dims()
	v := api.MatrixV1{
		Kind:    m.Kind,
		Samples: append([]string(nil), m.Samples...),
		Genes:   append([]string(nil), m.Genes...),
		Values:  make([][]float64, r),
	}
	for i := range v.Values {
		v.Values[i] = mat.Row(nil, i, m.Values)
	}
	return v
}

func writeJSON(w io.Writer, m Matrix) error {
	bw := bufio.NewWriter(w)
	if err := json.NewEncoder(bw).Encode(ToAPIMatrix(m)); err != nil {
		return err
	}
	return bw.Flush()
}
