// Package config reads the optional YAML run configuration. Every field is
// optional; unset fields leave the command-line default in place.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File mirrors genenorm.yaml.
type File struct {
	Schema    Schema    `yaml:"schema"`
	Normalize Normalize `yaml:"normalize"`
	Output    Output    `yaml:"output"`
	Plot      Plot      `yaml:"plot"`
	Publish   Publish   `yaml:"publish"`
	LogLevel  string    `yaml:"log_level"`
}

// Schema selects the gene, length and count columns of the input table.
type Schema struct {
	GeneColumn   string   `yaml:"gene_column"`
	LengthColumn string   `yaml:"length_column"`
	CountColumns []string `yaml:"count_columns"`
	CountsFrom   *int     `yaml:"counts_from"`
	Delimiter    string   `yaml:"delimiter"`
}

type Normalize struct {
	ZeroLibrary string `yaml:"zero_library"` // zero | fail
	Threads     *int   `yaml:"threads"`
}

type Output struct {
	Dir      string `yaml:"dir"`
	Prefix   string `yaml:"prefix"`
	Monogram string `yaml:"monogram"`
	Format   string `yaml:"format"`
	GeneIDs  *bool  `yaml:"gene_ids"`
}

type Plot struct {
	Enabled *bool `yaml:"enabled"`
	Points  *int  `yaml:"points"`
}

type Publish struct {
	Target   string `yaml:"target"` // s3://bucket/prefix
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// Load reads and strictly decodes the file at path. Unknown keys are errors.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	f, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return f, nil
}

// Decode parses one YAML document. An empty document yields a zero File.
func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &f, nil
}
