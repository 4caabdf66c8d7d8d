package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/pflag"

	"genenorm/internal/config"
	"genenorm/internal/counts"
	"genenorm/internal/density"
	"genenorm/internal/logging"
	"genenorm/internal/normalize"
	"genenorm/internal/publish"
	"genenorm/internal/runlayout"
	"genenorm/internal/writers"
)

// Options holds all CLI flags and arguments.
type Options struct {
	// Input
	Input      string // "" = stdin
	ConfigPath string

	// Schema
	GeneColumn   string
	LengthColumn string
	CountColumns []string
	CountsFrom   int // -1 = after the length column
	Delimiter    string

	// Normalization
	ZeroLibrary string
	Threads     int

	// Output
	OutDir   string
	Prefix   string
	Monogram string
	Format   string
	GeneIDs  bool

	// Plot
	NoPlot     bool
	PlotPoints int

	// Publish
	Publish    string
	S3Region   string
	S3Endpoint string

	// Misc
	LogLevel string
	Quiet    bool
}

// Register wires all flags onto fs.
func Register(fs *pflag.FlagSet, o *Options) {
	fs.StringVarP(&o.Input, "input", "i", "", "count table (TSV, optionally .gz; '-' or omitted = stdin)")
	fs.StringVarP(&o.ConfigPath, "config", "c", "", "YAML config file")

	fs.StringVar(&o.GeneColumn, "gene-column", "", "gene id column name (default: first column)")
	fs.StringVar(&o.LengthColumn, "length-column", counts.DefaultLengthColumn, "gene length column name")
	fs.StringSliceVar(&o.CountColumns, "count-columns", nil, "sample count columns, comma-separated (default: all columns after the length column)")
	fs.IntVar(&o.CountsFrom, "counts-from", -1, "0-based index of the first count column (-1 = after the length column)")
	fs.StringVar(&o.Delimiter, "delimiter", "tab", "input delimiter: tab | comma | semicolon")

	fs.StringVar(&o.ZeroLibrary, "zero-library", "zero", "samples with zero mapped reads: zero (all-zero output) | fail")
	fs.IntVarP(&o.Threads, "threads", "t", 0, "worker threads (0 = all CPUs)")

	fs.StringVarP(&o.OutDir, "out-dir", "d", runlayout.DefaultRoot, "root directory for timestamped run folders")
	fs.StringVar(&o.Prefix, "prefix", runlayout.DefaultPrefix, "artifact file name prefix")
	fs.StringVarP(&o.Monogram, "monogram", "m", runlayout.DefaultMonogram, "user monogram appended to plot and log names")
	fs.StringVarP(&o.Format, "format", "o", writers.FormatCSV, "matrix format: csv | tsv | json")
	fs.BoolVar(&o.GeneIDs, "gene-ids", false, "prefix matrix rows with the gene id")

	fs.BoolVar(&o.NoPlot, "no-plot", false, "skip the density plot PDF")
	fs.IntVar(&o.PlotPoints, "plot-points", density.DefaultPoints, "grid points per density curve")

	fs.StringVar(&o.Publish, "publish", "", "upload artifacts to s3://bucket/prefix")
	fs.StringVar(&o.S3Region, "s3-region", "", "S3 region (default $AWS_REGION or "+publish.DefaultRegion+")")
	fs.StringVar(&o.S3Endpoint, "s3-endpoint", "", "S3-compatible endpoint URL (enables path-style addressing)")

	fs.StringVar(&o.LogLevel, "log-level", "info", "run log level: debug | info | warn | error")
	fs.BoolVarP(&o.Quiet, "quiet", "q", false, "do not echo warnings to stderr")
}

// ApplyFile copies config values into o for every flag the user did not set.
func ApplyFile(fs *pflag.FlagSet, o *Options, f *config.File) {
	str := func(name string, dst *string, v string) {
		if v != "" && !fs.Changed(name) {
			*dst = v
		}
	}
	num := func(name string, dst *int, v *int) {
		if v != nil && !fs.Changed(name) {
			*dst = *v
		}
	}
	flag := func(name string, dst *bool, v bool) {
		if !fs.Changed(name) {
			*dst = v
		}
	}

	str("gene-column", &o.GeneColumn, f.Schema.GeneColumn)
	str("length-column", &o.LengthColumn, f.Schema.LengthColumn)
	if len(f.Schema.CountColumns) > 0 && !fs.Changed("count-columns") {
		o.CountColumns = slices.Clone(f.Schema.CountColumns)
	}
	num("counts-from", &o.CountsFrom, f.Schema.CountsFrom)
	str("delimiter", &o.Delimiter, f.Schema.Delimiter)

	str("zero-library", &o.ZeroLibrary, f.Normalize.ZeroLibrary)
	num("threads", &o.Threads, f.Normalize.Threads)

	str("out-dir", &o.OutDir, f.Output.Dir)
	str("prefix", &o.Prefix, f.Output.Prefix)
	str("monogram", &o.Monogram, f.Output.Monogram)
	str("format", &o.Format, f.Output.Format)
	if f.Output.GeneIDs != nil {
		flag("gene-ids", &o.GeneIDs, *f.Output.GeneIDs)
	}

	if f.Plot.Enabled != nil {
		flag("no-plot", &o.NoPlot, !*f.Plot.Enabled)
	}
	num("plot-points", &o.PlotPoints, f.Plot.Points)

	str("publish", &o.Publish, f.Publish.Target)
	str("s3-region", &o.S3Region, f.Publish.Region)
	str("s3-endpoint", &o.S3Endpoint, f.Publish.Endpoint)

	str("log-level", &o.LogLevel, f.LogLevel)
}

// Validate applies CLI invariants after flags and config are merged.
func Validate(o *Options) error {
	if o.Threads < 0 {
		return errors.New("--threads must be ≥ 0")
	}
	if o.CountsFrom < -1 {
		return errors.New("--counts-from must be ≥ -1")
	}
	if len(o.CountColumns) > 0 && o.CountsFrom >= 0 {
		return errors.New("--count-columns conflicts with --counts-from")
	}
	if _, err := counts.ParseDelimiter(o.Delimiter); err != nil {
		return err
	}
	if _, err := normalize.ParseZeroLibraryPolicy(o.ZeroLibrary); err != nil {
		return err
	}
	if !slices.Contains(writers.Formats(), o.Format) {
		return fmt.Errorf("invalid --format %q", o.Format)
	}
	if o.PlotPoints < 2 {
		return errors.New("--plot-points must be ≥ 2")
	}
	if o.OutDir == "" {
		return errors.New("--out-dir must not be empty")
	}
	if o.Publish != "" {
		if _, err := publish.ParseTarget(o.Publish); err != nil {
			return err
		}
	}
	if _, err := logging.ParseLevel(o.LogLevel); err != nil {
		return err
	}
	return nil
}
