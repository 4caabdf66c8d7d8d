// Package manifest records what a run read, computed and wrote.
package manifest

import (
	"encoding/json"
	"io"
	"slices"
	"time"

	"genenorm/internal/normalize"
	"genenorm/internal/version"
	"genenorm/internal/writers"
	"genenorm/pkg/api"
)

// Run carries the boundary facts the engine does not know about.
type Run struct {
	ID          string
	Input       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Policy      normalize.ZeroLibraryPolicy
	PlotSkipped []string
	Artifacts   []api.ArtifactV1
}

// Build assembles a v1 manifest from a run and its normalization result.
func Build(r Run, res *normalize.Result) api.ManifestV1 {
	m := api.ManifestV1{
		RunID:             r.ID,
		ToolVersion:       version.Version,
		StartedAt:         r.StartedAt.UTC(),
		FinishedAt:        r.FinishedAt.UTC(),
		Input:             r.Input,
		Genes:             len(res.Genes),
		ZeroLibraryPolicy: r.Policy.String(),
		Samples:           make([]api.SampleStatsV1, len(res.Samples)),
		Artifacts:         append([]api.ArtifactV1(nil), r.Artifacts...),
	}
	d := res.Diagnostics
	for j, name := range res.Samples {
		m.Samples[j] = api.SampleStatsV1{
			Name:        name,
			LibrarySize: d.LibrarySizes[j],
			RPKMTotal:   d.RPKMTotals[j],
			TPMTotal:    d.TPMTotals[j],
			ZeroLibrary: slices.Contains(d.ZeroLibrary, name),
			PlotSkipped: slices.Contains(r.PlotSkipped, name),
		}
	}
	return m
}

// Encode writes m as indented JSON.
func Encode(w io.Writer, m api.ManifestV1) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// WriteFile writes m to path atomically.
func WriteFile(path string, m api.ManifestV1) error {
	return writers.WriteFileAtomic(path, func(w io.Writer) error { return Encode(w, m) })
}
