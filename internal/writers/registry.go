package writers

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatTSV  = "tsv"
	FormatJSON = "json"
)

// Matrix is what every writer receives. Genes and Samples label the rows and
// columns of Values.
type Matrix struct {
	Kind    string // "rpkm" | "tpm"
	Genes   []string
	Samples []string
	Values  mat.Matrix
	GeneIDs bool // prefix each delimited row with its gene id
}

type matrixWriter func(w io.Writer, m Matrix) error

// Format registry (format → writer). Populated in init() blocks.
var matrixWriters = map[string]matrixWriter{}

func register(format string, fn matrixWriter) { matrixWriters[format] = fn }

// Formats lists registered formats, sorted.
func Formats() []string {
	out := make([]string, 0, len(matrixWriters))
	for f := range matrixWriters {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// WriteMatrix dispatches to the writer registered for format.
func WriteMatrix(format string, w io.Writer, m Matrix) error {
	fn, ok := matrixWriters[format]
	if !ok {
		return fmt.Errorf("unknown matrix format %q (no writer registered)", format)
	}
	return fn(w, m)
}
