package manifest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genenorm/internal/normalize"
	"genenorm/pkg/api"
)

func result(t *testing.T) *normalize.Result {
	t.Helper()
	tab, err := normalize.NewTable([]string{"g1", "g2"}, []int{100, 200}, []string{"a", "b"},
		[][]float64{{5, 0}, {10, 0}})
	require.NoError(t, err)
	res, err := normalize.New(normalize.Config{}).Normalize(context.Background(), tab)
	require.NoError(t, err)
	return res
}

func TestBuild(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	m := Build(Run{
		ID:          "run-1",
		Input:       "counts.tsv",
		StartedAt:   start,
		FinishedAt:  start.Add(time.Second),
		PlotSkipped: []string{"b"},
		Artifacts:   []api.ArtifactV1{{Kind: "tpm", Path: "x.csv"}},
	}, result(t))

	assert.Equal(t, "run-1", m.RunID)
	assert.Equal(t, 2, m.Genes)
	assert.Equal(t, "zero", m.ZeroLibraryPolicy)
	assert.Equal(t, time.UTC, m.StartedAt.Location())
	require.Len(t, m.Samples, 2)
	assert.Equal(t, api.SampleStatsV1{Name: "a", LibrarySize: 15, RPKMTotal: m.Samples[0].RPKMTotal, TPMTotal: m.Samples[0].TPMTotal}, m.Samples[0])
	assert.InEpsilon(t, 1e6, m.Samples[0].TPMTotal, 1e-9)
	assert.True(t, m.Samples[1].ZeroLibrary)
	assert.True(t, m.Samples[1].PlotSkipped)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	in := Build(Run{ID: "abc"}, result(t))
	require.NoError(t, WriteFile(path, in))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out api.ManifestV1
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "abc", out.RunID)
	assert.Len(t, out.Samples, 2)
	assert.Contains(t, string(data), "\n  \"run_id\": \"abc\"")
}
