package integration

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genenorm/internal/app"
)

const example = "GeneID\tLength\tSample1\tSample2\n" +
	"gene1\t1000\t50\t100\n" +
	"gene2\t2000\t200\t400\n" +
	"gene3\t1500\t300\t600\n"

func write(t *testing.T, data string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "counts.tsv")
	require.NoError(t, os.WriteFile(fn, []byte(data), 0o644))
	return fn
}

func runApp(t *testing.T, argv ...string) (int, []string, string) {
	t.Helper()
	var out, errb bytes.Buffer
	code := app.Run(argv, &out, &errb)
	var paths []string
	if s := strings.TrimSpace(out.String()); s != "" {
		paths = strings.Split(s, "\n")
	}
	return code, paths, errb.String()
}

func readMatrix(t *testing.T, path string) [][]float64 {
	t.Helper()
	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	recs, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	rows := make([][]float64, 0, len(recs)-1)
	for _, rec := range recs[1:] {
		row := make([]float64, len(rec))
		for i, s := range rec {
			row[i], err = strconv.ParseFloat(s, 64)
			require.NoError(t, err)
		}
		rows = append(rows, row)
	}
	return rows
}

func TestEndToEnd(t *testing.T) {
	out := t.TempDir()
	code, paths, errOut := runApp(t, "-q", "--out-dir", out, write(t, example))
	require.Equal(t, 0, code, errOut)
	require.Len(t, paths, 5)
	for _, p := range paths {
		assert.FileExists(t, p)
	}

	rpkm := readMatrix(t, paths[0])
	require.Len(t, rpkm, 3)
	assert.InDelta(t, 90909.09, rpkm[0][0], 0.01)
	assert.InDelta(t, 181818.18, rpkm[1][0], 0.01)
	assert.InDelta(t, 363636.36, rpkm[2][0], 0.01)

	tpm := readMatrix(t, paths[1])
	var sum float64
	for _, row := range tpm {
		assert.InDelta(t, row[0], row[1], 1e-6)
		assert.GreaterOrEqual(t, row[0], 0.0)
		sum += row[0]
	}
	assert.InDelta(t, 1e6, sum, 1e-6)
}

func TestParallelMatchesSerial(t *testing.T) {
	var b strings.Builder
	b.WriteString("gene\tLength")
	for s := 0; s < 12; s++ {
		fmt.Fprintf(&b, "\tS%d", s)
	}
	b.WriteString("\n")
	for g := 0; g < 500; g++ {
		fmt.Fprintf(&b, "g%d\t%d", g, 100+g*7)
		for s := 0; s < 12; s++ {
			fmt.Fprintf(&b, "\t%d", (g*31+s*17)%997)
		}
		b.WriteString("\n")
	}
	in := write(t, b.String())

	run := func(threads int) [][]byte {
		code, paths, errOut := runApp(t, "-q", "--no-plot", "--out-dir", t.TempDir(), "--threads", fmt.Sprint(threads), in)
		require.Equal(t, 0, code, errOut)
		var files [][]byte
		for _, p := range paths[:2] {
			data, err := os.ReadFile(p)
			require.NoError(t, err)
			files = append(files, data)
		}
		return files
	}

	serial := run(1)
	parallel := run(4)
	assert.Equal(t, serial, parallel)
}

func TestValidationFailureExit2(t *testing.T) {
	out := t.TempDir()
	in := write(t, "GeneID\tLength\tS1\ng1\t1000\t5\ng2\t0\t7\n")
	code, paths, errOut := runApp(t, "--out-dir", out, in)
	assert.Equal(t, 2, code)
	assert.Empty(t, paths)
	assert.Contains(t, errOut, "invalid_length")
	assert.Contains(t, errOut, `"g2"`)

	matrices, err := filepath.Glob(filepath.Join(out, "*", "*.csv"))
	require.NoError(t, err)
	assert.Empty(t, matrices)
}

func TestNegativeCountExit2(t *testing.T) {
	in := write(t, "GeneID\tLength\tS1\ng1\t1000\t-5\n")
	code, _, errOut := runApp(t, "--out-dir", t.TempDir(), in)
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "invalid_count")
}

func TestZeroLibraryPolicies(t *testing.T) {
	in := write(t, "GeneID\tLength\tS1\tS2\ng1\t1000\t5\t0\ng2\t500\t7\t0\n")

	code, paths, errOut := runApp(t, "-q", "--no-plot", "--out-dir", t.TempDir(), in)
	require.Equal(t, 0, code, errOut)
	for _, row := range readMatrix(t, paths[1]) {
		assert.Equal(t, 0.0, row[1])
	}

	code, paths, errOut = runApp(t, "--zero-library", "fail", "--out-dir", t.TempDir(), in)
	assert.Equal(t, 2, code)
	assert.Empty(t, paths)
	assert.Contains(t, errOut, "zero_library_size")
}

func TestCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out, errb bytes.Buffer
	code := app.RunContext(ctx, []string{"-q", "--out-dir", t.TempDir(), write(t, example)}, &out, &errb)
	assert.Equal(t, 130, code)
	assert.Empty(t, out.String())
}
