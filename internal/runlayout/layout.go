// Package runlayout names the timestamped directory and artifacts of one run.
// The clock is supplied by the caller; nothing here reads wall time.
package runlayout

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StampFormat is minute resolution, so two runs in the same minute share a
// directory and the later one overwrites.
const StampFormat = "20060102_1504"

const (
	DefaultRoot     = "./data"
	DefaultPrefix   = "genenorm"
	DefaultMonogram = "SM"
)

type Layout struct {
	Root     string
	Prefix   string
	Monogram string
	Stamp    string
}

// New fills empty fields with defaults and stamps the layout with now.
func New(root, prefix, monogram string, now time.Time) Layout {
	if root == "" {
		root = DefaultRoot
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if monogram == "" {
		monogram = DefaultMonogram
	}
	return Layout{Root: root, Prefix: prefix, Monogram: monogram, Stamp: now.Format(StampFormat)}
}

// Dir is Root/Stamp.
func (l Layout) Dir() string { return filepath.Join(l.Root, l.Stamp) }

// Ensure creates Dir.
func (l Layout) Ensure() error {
	if err := os.MkdirAll(l.Dir(), 0o755); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}
	return nil
}

func (l Layout) file(kind, suffix string) string {
	return filepath.Join(l.Dir(), fmt.Sprintf("%s__%s_%s_1%s", l.Prefix, kind, l.Stamp, suffix))
}

func (l Layout) RPKMPath(ext string) string { return l.file("rpkm", "."+ext) }
func (l Layout) TPMPath(ext string) string  { return l.file("tpm", "."+ext) }
func (l Layout) PlotPath() string           { return l.file("abundance_distribution", l.Monogram+".pdf") }
func (l Layout) LogPath() string            { return l.file("abundance_distribution", l.Monogram+".log") }
func (l Layout) ManifestPath() string       { return l.file("manifest", ".json") }
