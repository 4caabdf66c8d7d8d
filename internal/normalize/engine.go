package normalize

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ZeroLibraryPolicy decides what happens to a sample whose counts sum to zero.
type ZeroLibraryPolicy int

const (
	// ZeroLibraryDegrade emits all-zero RPKM and TPM columns and records the
	// sample in Diagnostics.ZeroLibrary.
	ZeroLibraryDegrade ZeroLibraryPolicy = iota
	// ZeroLibraryFail rejects the table with a zero_library_size error.
	ZeroLibraryFail
)

func (p ZeroLibraryPolicy) String() string {
	switch p {
	case ZeroLibraryDegrade:
		return "zero"
	case ZeroLibraryFail:
		return "fail"
	}
	return fmt.Sprintf("ZeroLibraryPolicy(%d)", int(p))
}

// ParseZeroLibraryPolicy accepts "zero" (or "degrade") and "fail".
func ParseZeroLibraryPolicy(s string) (ZeroLibraryPolicy, error) {
	switch s {
	case "zero", "degrade", "":
		return ZeroLibraryDegrade, nil
	case "fail":
		return ZeroLibraryFail, nil
	}
	return 0, fmt.Errorf("unknown zero-library policy %q (want zero|fail)", s)
}

func (p ZeroLibraryPolicy) check(samples []string, libs []float64) error {
	if p != ZeroLibraryFail {
		return nil
	}
	for j, l := range libs {
		if l == 0 {
			return &ValidationError{
				Kind: KindZeroLibrarySize, Sample: samples[j], Row: -1, Col: j,
				Detail: "total mapped reads is 0",
			}
		}
	}
	return nil
}

// Config tunes an Engine. The zero value is usable.
type Config struct {
	Threads     int // 0 = all CPUs
	ZeroLibrary ZeroLibraryPolicy
}

// Diagnostics are per-sample totals observed while normalizing, indexed like
// Result.Samples.
type Diagnostics struct {
	LibrarySizes []float64
	RPKMTotals   []float64
	TPMTotals    []float64
	ZeroLibrary  []string
}

// Result holds both normalized matrices. Shapes and sample order equal the
// input table's.
type Result struct {
	Genes       []string
	Samples     []string
	RPKM        *mat.Dense
	TPM         *mat.Dense
	Diagnostics Diagnostics
}

// Engine normalizes tables under a fixed Config. It holds no per-call state.
type Engine struct{ cfg Config }

// New returns an Engine for c.
func New(c Config) *Engine { return &Engine{cfg: c} }

func (e *Engine) threads() int {
	if e.cfg.Threads > 0 {
		return e.cfg.Threads
	}
	return runtime.NumCPU()
}

// Normalize validates t and computes RPKM then TPM. Samples are fanned out
// over Config.Threads goroutines; each column is reduced by a single goroutine
// in gene order, so output is bit-identical for any thread count.
func (e *Engine) Normalize(ctx context.Context, t *Table) (*Result, error) {
	libs, err := librarySizes(t)
	if err != nil {
		return nil, err
	}
	if err := e.cfg.ZeroLibrary.check(t.Samples, libs); err != nil {
		return nil, err
	}

	ng, ns := t.Dims()
	rpkm := mat.NewDense(ng, ns, nil)
	tpm := mat.NewDense(ng, ns, nil)
	diag := Diagnostics{
		LibrarySizes: libs,
		RPKMTotals:   make([]float64, ns),
		TPMTotals:    make([]float64, ns),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.threads())
	for j := 0; j < ns; j++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			counts := mat.Col(nil, j, t.Counts)
			rcol := make([]float64, ng)
			rpkmColumn(rcol, counts, t.Lengths, libs[j])
			tcol := make([]float64, ng)
			diag.RPKMTotals[j] = tpmColumn(tcol, rcol)
			diag.TPMTotals[j] = floats.Sum(tcol)
			// Distinct columns touch disjoint elements of the backing slices.
			rpkm.SetCol(j, rcol)
			tpm.SetCol(j, tcol)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := checkFinite("rpkm", rpkm, t.Genes, t.Samples); err != nil {
		return nil, err
	}
	if err := checkFinite("tpm", tpm, t.Genes, t.Samples); err != nil {
		return nil, err
	}
	for j, l := range libs {
		if l == 0 {
			diag.ZeroLibrary = append(diag.ZeroLibrary, t.Samples[j])
		}
	}

	return &Result{
		Genes:       append([]string(nil), t.Genes...),
		Samples:     append([]string(nil), t.Samples...),
		RPKM:        rpkm,
		TPM:         tpm,
		Diagnostics: diag,
	}, nil
}
