// Package density estimates per-sample value distributions for plotting.
package density

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultPoints = 200
	cut           = 3 // bandwidths beyond the data on each side
)

// ErrDegenerate is returned when a column has fewer than two values or no
// spread, so no bandwidth can be chosen.
var ErrDegenerate = errors.New("density: need at least two distinct values")

// Curve is a density evaluated on an evenly spaced grid.
type Curve struct {
	Label string
	X, Y  []float64
}

// Log1p returns log(1+v) for each value.
func Log1p(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Log1p(v)
	}
	return out
}

// ScottBandwidth is σ·n^(-1/5) with σ the sample standard deviation.
func ScottBandwidth(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return stat.StdDev(x, nil) * math.Pow(float64(len(x)), -0.2)
}

// Estimate evaluates a Gaussian kernel density estimate of x on points grid
// positions covering [min-3h, max+3h].
func Estimate(x []float64, points int) (xs, ys []float64, err error) {
	h := ScottBandwidth(x)
	if h == 0 || math.IsNaN(h) {
		return nil, nil, ErrDegenerate
	}
	if points < 2 {
		points = DefaultPoints
	}
	lo, hi := floats.Min(x)-cut*h, floats.Max(x)+cut*h
	xs = make([]float64, points)
	floats.Span(xs, lo, hi)

	ys = make([]float64, points)
	norm := 1 / (float64(len(x)) * h)
	for i, at := range xs {
		var sum float64
		for _, v := range x {
			sum += distuv.UnitNormal.Prob((at - v) / h)
		}
		ys[i] = sum * norm
	}
	return xs, ys, nil
}

// Columns estimates the log1p density of every column of m. Columns that
// cannot be estimated are left out and their labels returned in skipped.
func Columns(labels []string, m mat.Matrix, points int) (curves []Curve, skipped []string) {
	r, c := m.Dims()
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, m)
		xs, ys, err := Estimate(Log1p(col), points)
		if err != nil {
			skipped = append(skipped, labels[j])
			continue
		}
		curves = append(curves, Curve{Label: labels[j], X: xs, Y: ys})
	}
	return curves, skipped
}
