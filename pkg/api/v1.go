// Package api holds the stable JSON wire types written by genenorm.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
package api

import "time"

// MatrixV1 is a gene by sample matrix. Values[g][s] belongs to Genes[g] and
// Samples[s].
type MatrixV1 struct {
	Kind    string      `json:"kind"` // "rpkm" | "tpm"
	Samples []string    `json:"samples"`
	Genes   []string    `json:"genes"`
	Values  [][]float64 `json:"values"`
}

// SampleStatsV1 summarizes one sample column.
type SampleStatsV1 struct {
	Name        string  `json:"name"`
	LibrarySize float64 `json:"library_size"`
	RPKMTotal   float64 `json:"rpkm_total"`
	TPMTotal    float64 `json:"tpm_total"`
	ZeroLibrary bool    `json:"zero_library,omitempty"`
	PlotSkipped bool    `json:"plot_skipped,omitempty"`
}

// ArtifactV1 is one file produced by a run.
type ArtifactV1 struct {
	Kind string `json:"kind"` // "rpkm" | "tpm" | "plot" | "log"
	Path string `json:"path"`
	URI  string `json:"uri,omitempty"` // set once published
}

// ManifestV1 describes a finished run.
type ManifestV1 struct {
	RunID             string          `json:"run_id"`
	ToolVersion       string          `json:"tool_version"`
	StartedAt         time.Time       `json:"started_at"`
	FinishedAt        time.Time       `json:"finished_at"`
	Input             string          `json:"input"`
	Genes             int             `json:"genes"`
	ZeroLibraryPolicy string          `json:"zero_library_policy"`
	Samples           []SampleStatsV1 `json:"samples"`
	Artifacts         []ArtifactV1    `json:"artifacts"`
}
