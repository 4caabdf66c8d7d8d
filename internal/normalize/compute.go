package normalize

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	rpkmScale = 1e9 // reads per kilobase per million
	tpmScale  = 1e6
)

// rpkmColumn fills dst with RPKM for one sample given its library size.
// A zero library yields an all-zero column.
func rpkmColumn(dst, counts []float64, lengths []int, library float64) {
	if library == 0 {
		zero(dst)
		return
	}
	// c/library is at most 1, so no intermediate can overflow.
	for g, c := range counts {
		dst[g] = (c / library) * (rpkmScale / float64(lengths[g]))
	}
}

// tpmColumn rescales one RPKM column to sum to one million and returns the
// RPKM total it divided by. A zero total yields an all-zero column.
func tpmColumn(dst, rpkm []float64) float64 {
	total := floats.Sum(rpkm)
	if total == 0 {
		zero(dst)
		return 0
	}
	for g, v := range rpkm {
		dst[g] = (v / total) * tpmScale
	}
	return total
}

func zero(s []float64) {
	for i := range s {
		s[i] = 0
	}
}

// RPKM computes reads per kilobase per million for a validated table, one
// sample at a time in column order. Zero-library samples follow policy.
func RPKM(t *Table, policy ZeroLibraryPolicy) (*mat.Dense, error) {
	libs, err := librarySizes(t)
	if err != nil {
		return nil, err
	}
	if err := policy.check(t.Samples, libs); err != nil {
		return nil, err
	}
	g, s := t.Dims()
	out := mat.NewDense(g, s, nil)
	counts := make([]float64, g)
	col := make([]float64, g)
	for j := 0; j < s; j++ {
		mat.Col(counts, j, t.Counts)
		rpkmColumn(col, counts, t.Lengths, libs[j])
		out.SetCol(j, col)
	}
	if err := checkFinite("rpkm", out, t.Genes, t.Samples); err != nil {
		return nil, err
	}
	return out, nil
}

// TPM rescales every column of an RPKM matrix to sum to one million. Columns
// whose RPKM total is zero stay all-zero.
func TPM(rpkm mat.Matrix) *mat.Dense {
	g, s := rpkm.Dims()
	out := mat.NewDense(g, s, nil)
	in := make([]float64, g)
	col := make([]float64, g)
	for j := 0; j < s; j++ {
		mat.Col(in, j, rpkm)
		tpmColumn(col, in)
		out.SetCol(j, col)
	}
	return out
}
