// Package appcore runs one normalization job end to end and maps every
// failure to a process exit code.
package appcore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"genenorm/internal/counts"
	"genenorm/internal/density"
	"genenorm/internal/logging"
	"genenorm/internal/manifest"
	"genenorm/internal/normalize"
	"genenorm/internal/plotting"
	"genenorm/internal/publish"
	"genenorm/internal/runlayout"
	"genenorm/internal/version"
	"genenorm/internal/writers"
	"genenorm/pkg/api"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitNoInput   = 1
	ExitUsage     = 2
	ExitIO        = 3
	ExitCancelled = 130
)

// Artifact kinds, as recorded in the manifest.
const (
	KindRPKM = "rpkm"
	KindTPM  = "tpm"
	KindPlot = "plot"
	KindLog  = "log"
)

type Options struct {
	Input     string // "" or "-" = stdin
	Schema    counts.Schema
	Delimiter rune

	Normalize normalize.Config

	OutDir   string
	Prefix   string
	Monogram string
	Format   string
	GeneIDs  bool

	Plot       bool
	PlotPoints int

	Publish string // s3://bucket/prefix, "" = local only
	S3      publish.Options

	LogLevel slog.Level
	Quiet    bool

	// Boundaries; nil means the process default.
	Stdin           io.Reader
	StdinIsTerminal func() bool
	Now             func() time.Time
	NewID           func() string
	NewUploader     func(publish.Options) (publish.Uploader, error)
}

func (o *Options) defaults() {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.StdinIsTerminal == nil {
		o.StdinIsTerminal = counts.StdinIsTerminal
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.NewUploader == nil {
		o.NewUploader = func(po publish.Options) (publish.Uploader, error) { return publish.NewClient(po) }
	}
	if o.Format == "" {
		o.Format = writers.FormatCSV
	}
	if o.PlotPoints == 0 {
		o.PlotPoints = density.DefaultPoints
	}
}

// Run loads the table, normalizes it, writes the run artifacts and prints
// their paths to stdout, one per line.
func Run(ctx context.Context, stdout, stderr io.Writer, o Options) int {
	o.defaults()
	started := o.Now()

	if o.Input == "" && o.StdinIsTerminal() {
		fmt.Fprintln(stderr, "error: no input file given and no data on stdin")
		return ExitNoInput
	}
	tbl, source, err := load(o)
	if err == nil {
		err = normalize.Validate(tbl)
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitUsage
	}

	lay := runlayout.New(o.OutDir, o.Prefix, o.Monogram, started)
	if err := lay.Ensure(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitIO
	}
	logFile, err := os.Create(lay.LogPath())
	if err != nil {
		fmt.Fprintf(stderr, "error: create log: %v\n", err)
		return ExitIO
	}
	defer func() { _ = logFile.Close() }()

	r := &run{
		opts:    o,
		layout:  lay,
		log:     logging.New(logFile, o.LogLevel, stderr, o.Quiet),
		fileLog: logging.New(logFile, o.LogLevel, nil, true),
		stderr:  stderr,
		id:      o.NewID(),
		source:  source,
		started: started,
	}
	return r.execute(ctx, tbl, stdout)
}

func load(o Options) (*normalize.Table, string, error) {
	opt := counts.Options{Schema: o.Schema, Delimiter: o.Delimiter}
	if o.Input != "" && o.Input != "-" {
		tbl, err := counts.Load(o.Input, opt)
		return tbl, o.Input, err
	}
	const name = "<stdin>"
	rc, err := counts.NewReader(o.Stdin)
	if err != nil {
		return nil, name, fmt.Errorf("%s: %w", name, err)
	}
	defer func() { _ = rc.Close() }()
	tbl, err := counts.Read(rc, name, opt)
	return tbl, name, err
}

type run struct {
	opts    Options
	layout  runlayout.Layout
	log     *slog.Logger // file, warnings echoed to stderr
	fileLog *slog.Logger // file only; errors are printed to stderr separately
	stderr  io.Writer

	id        string
	source    string
	started   time.Time
	artifacts []api.ArtifactV1
	skipped   []string
}

func (r *run) fail(code int, msg string, err error) int {
	r.fileLog.Error(msg, "err", err)
	fmt.Fprintf(r.stderr, "error: %v\n", err)
	return code
}

func (r *run) cancelled(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		r.fileLog.Warn("run cancelled", "err", err)
		return true
	}
	return false
}

func (r *run) execute(ctx context.Context, tbl *normalize.Table, stdout io.Writer) int {
	o := r.opts
	ng, ns := tbl.Dims()
	r.log.Info("run started", "run_id", r.id, "version", version.Version, "dir", r.layout.Dir())
	r.log.Info("input loaded", "source", r.source, "genes", ng, "samples", ns)

	r.log.Info("normalizing", "threads", o.Normalize.Threads, "zero_library", o.Normalize.ZeroLibrary)
	res, err := normalize.New(o.Normalize).Normalize(ctx, tbl)
	if err != nil {
		if r.cancelled(err) {
			return ExitCancelled
		}
		return r.fail(ExitUsage, "normalization failed", err)
	}
	d := res.Diagnostics
	for j, s := range res.Samples {
		r.log.Debug("sample", "name", s, "library_size", d.LibrarySizes[j], "rpkm_total", d.RPKMTotals[j], "tpm_total", d.TPMTotals[j])
	}
	r.log.Info("RPKM computed", "samples", ns)
	r.log.Info("TPM computed", "samples", ns)
	for _, s := range d.ZeroLibrary {
		r.log.Warn("sample has no mapped reads; RPKM and TPM set to 0", "sample", s)
	}

	if code := r.writeMatrices(res); code != ExitOK {
		return code
	}
	if o.Plot {
		if code := r.writePlot(tbl, res); code != ExitOK {
			return code
		}
	}
	r.artifacts = append(r.artifacts, api.ArtifactV1{Kind: KindLog, Path: r.layout.LogPath()})

	pubCode := r.publish(ctx)
	if pubCode == ExitCancelled {
		return pubCode
	}

	mf := manifest.Build(manifest.Run{
		ID:          r.id,
		Input:       r.source,
		StartedAt:   r.started,
		FinishedAt:  o.Now(),
		Policy:      o.Normalize.ZeroLibrary,
		PlotSkipped: r.skipped,
		Artifacts:   r.artifacts,
	}, res)
	mfPath := r.layout.ManifestPath()
	if err := manifest.WriteFile(mfPath, mf); err != nil {
		return r.fail(ExitIO, "write manifest failed", err)
	}
	r.log.Info("wrote manifest", "path", mfPath)
	if pubCode == ExitOK && o.Publish != "" {
		pubCode = r.upload(ctx, []string{mfPath}, nil)
	}

	if code := r.printPaths(stdout, mfPath); code != ExitOK {
		return code
	}
	if pubCode != ExitOK {
		return pubCode
	}
	r.log.Info("run finished", "run_id", r.id)
	return ExitOK
}

func (r *run) writeMatrices(res *normalize.Result) int {
	o := r.opts
	for _, m := range []struct {
		kind, path string
		values     *mat.Dense
	}{
		{KindRPKM, r.layout.RPKMPath(o.Format), res.RPKM},
		{KindTPM, r.layout.TPMPath(o.Format), res.TPM},
	} {
		err := writers.WriteMatrixFile(m.path, o.Format, writers.Matrix{
			Kind: m.kind, Genes: res.Genes, Samples: res.Samples, Values: m.values, GeneIDs: o.GeneIDs,
		})
		if err != nil {
			// Matrices are published as a pair.
			for _, a := range r.artifacts {
				_ = os.Remove(a.Path)
			}
			r.artifacts = nil
			return r.fail(ExitIO, "write matrix failed", err)
		}
		r.log.Info("wrote matrix", "kind", m.kind, "path", m.path)
		r.artifacts = append(r.artifacts, api.ArtifactV1{Kind: m.kind, Path: m.path})
	}
	return ExitOK
}

func (r *run) writePlot(tbl *normalize.Table, res *normalize.Result) int {
	points := r.opts.PlotPoints
	raw, skippedRaw := density.Columns(tbl.Samples, tbl.Counts, points)
	tpm, skippedTPM := density.Columns(res.Samples, res.TPM, points)
	for _, s := range skippedRaw {
		r.log.Warn("density skipped, no spread in raw counts", "sample", s)
	}
	for _, s := range skippedTPM {
		r.log.Warn("density skipped, no spread in TPM", "sample", s)
	}
	r.skipped = union(skippedRaw, skippedTPM)

	pages := []plotting.Page{
		{Title: plotting.TitleRaw, Curves: raw},
		{Title: plotting.TitleTPM, Curves: tpm},
	}
	path := r.layout.PlotPath()
	err := writers.WriteFileAtomic(path, func(w io.Writer) error {
		return plotting.WritePDF(w, pages, plotting.DefaultWidth, plotting.DefaultHeight)
	})
	if err != nil {
		return r.fail(ExitIO, "write plot failed", err)
	}
	r.log.Info("wrote plot", "path", path)
	r.artifacts = append(r.artifacts, api.ArtifactV1{Kind: KindPlot, Path: path})
	return ExitOK
}

// publish uploads every artifact recorded so far and stores their URIs.
func (r *run) publish(ctx context.Context) int {
	if r.opts.Publish == "" {
		return ExitOK
	}
	files := make([]string, len(r.artifacts))
	for i, a := range r.artifacts {
		files[i] = a.Path
	}
	return r.upload(ctx, files, func(i int, uri string) { r.artifacts[i].URI = uri })
}

func (r *run) upload(ctx context.Context, files []string, record func(i int, uri string)) int {
	target, err := publish.ParseTarget(r.opts.Publish)
	if err != nil {
		return r.fail(ExitUsage, "bad publish target", err)
	}
	up, err := r.opts.NewUploader(r.opts.S3)
	if err != nil {
		return r.fail(ExitIO, "publish failed", err)
	}
	uris, err := publish.Files(ctx, up, target, r.layout.Stamp, files)
	for i, uri := range uris {
		if record != nil {
			record(i, uri)
		}
		r.log.Info("published", "uri", uri)
	}
	if err != nil {
		if r.cancelled(ctx.Err()) {
			return ExitCancelled
		}
		return r.fail(ExitIO, "publish failed", err)
	}
	return ExitOK
}

func (r *run) printPaths(stdout io.Writer, manifestPath string) int {
	out := bufio.NewWriter(stdout)
	for _, a := range r.artifacts {
		fmt.Fprintln(out, a.Path)
	}
	fmt.Fprintln(out, manifestPath)
	if err := out.Flush(); writers.IsBrokenPipe(err) {
		return ExitOK
	} else if err != nil {
		return r.fail(ExitIO, "write stdout failed", err)
	}
	return ExitOK
}

func union(a, b []string) []string {
	var out []string
	seen := make(map[string]bool, len(a)+len(b))
	for _, s := range append(append([]string(nil), a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
