package writers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"genenorm/pkg/api"
)

func sample() Matrix {
	return Matrix{
		Kind:    "tpm",
		Genes:   []string{"gene1", "gene2"},
		Samples: []string{"S1", "S,2"},
		Values:  mat.NewDense(2, 2, []float64{0.5, 1e6, 0, 123456.789}),
	}
}

func TestFormats_Stable(t *testing.T) {
	if FormatCSV != "csv" || FormatTSV != "tsv" || FormatJSON != "json" {
		t.Fatalf("output format constants changed")
	}
	assert.Equal(t, []string{"csv", "json", "tsv"}, Formats())
}

func TestWriteMatrix_CSVNoIndex(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, WriteMatrix(FormatCSV, &b, sample()))
	assert.Equal(t, "S1,\"S,2\"\n0.5,1e+06\n0,123456.789\n", b.String())
}

func TestWriteMatrix_TSVWithGeneIDs(t *testing.T) {
	m := sample()
	m.GeneIDs = true
	var b bytes.Buffer
	require.NoError(t, WriteMatrix(FormatTSV, &b, m))
	assert.Equal(t, "gene_id\tS1\tS,2\ngene1\t0.5\t1e+06\ngene2\t0\t123456.789\n", b.String())
}

func TestWriteMatrix_JSON(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, WriteMatrix(FormatJSON, &b, sample()))

	var got api.MatrixV1
	require.NoError(t, json.Unmarshal(b.Bytes(), &got))
	assert.Equal(t, "tpm", got.Kind)
	assert.Equal(t, []string{"gene1", "gene2"}, got.Genes)
	assert.Equal(t, [][]float64{{0.5, 1e6}, {0, 123456.789}}, got.Values)
}

func TestWriteMatrix_UnknownFormat(t *testing.T) {
	err := WriteMatrix("xlsx", io.Discard, sample())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown matrix format")
}

func TestWriteMatrixFile_Atomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tpm.csv")
	require.NoError(t, WriteMatrixFile(path, FormatCSV, sample()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "0,123456.789")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be renamed away")
}

func TestWriteFileAtomic_FailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rpkm.csv")
	boom := errors.New("boom")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	require.ErrorIs(t, err, boom)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIsBrokenPipe(t *testing.T) {
	assert.True(t, IsBrokenPipe(syscall.EPIPE))
	assert.True(t, IsBrokenPipe(&os.PathError{Op: "write", Path: "/dev/stdout", Err: syscall.EPIPE}))
	assert.True(t, IsBrokenPipe(io.ErrClosedPipe))
	assert.False(t, IsBrokenPipe(nil))
	assert.False(t, IsBrokenPipe(io.EOF))
}
