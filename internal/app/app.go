// Package app wires the genenorm command line onto appcore.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"genenorm/internal/appcore"
	"genenorm/internal/cli"
	"genenorm/internal/config"
	"genenorm/internal/counts"
	"genenorm/internal/logging"
	"genenorm/internal/normalize"
	"genenorm/internal/publish"
	"genenorm/internal/version"
)

const long = `genenorm converts a table of raw per-gene read counts into RPKM and TPM
matrices, draws density plots of the raw and normalized values, and records
the run in a timestamped folder under --out-dir.

The table is read from the positional argument, --input, or stdin.`

// RunContext parses argv, runs the job and returns the process exit code.
func RunContext(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	root, code := newRootCmd(stdout, stderr)
	root.SetArgs(argv)

	cmd, err := root.ExecuteContextC(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		_, _ = fmt.Fprint(stderr, cmd.UsageString())
		return appcore.ExitUsage
	}
	return *code
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func newRootCmd(stdout, stderr io.Writer) (*cobra.Command, *int) {
	var o cli.Options
	code := appcore.ExitOK

	root := &cobra.Command{
		Use:           "genenorm [counts.tsv]",
		Short:         "Normalize gene read counts to RPKM and TPM",
		Long:          long,
		Version:       version.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if cmd.Flags().Changed("input") && o.Input != args[0] {
					return fmt.Errorf("input given twice: --input %q and %q", o.Input, args[0])
				}
				o.Input = args[0]
			}
			if o.ConfigPath != "" {
				f, err := config.Load(o.ConfigPath)
				if err != nil {
					return err
				}
				cli.ApplyFile(cmd.Flags(), &o, f)
			}
			if err := cli.Validate(&o); err != nil {
				return err
			}
			co, err := coreOptions(o)
			if err != nil {
				return err
			}
			code = appcore.Run(cmd.Context(), stdout, stderr, co)
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("genenorm version {{.Version}}\n")
	cli.Register(root.Flags(), &o)
	root.AddCommand(newVersionCmd())
	return root, &code
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the genenorm version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "genenorm version %s\n", version.Version)
			return nil
		},
	}
}

// coreOptions converts validated CLI options.
func coreOptions(o cli.Options) (appcore.Options, error) {
	delim, err := counts.ParseDelimiter(o.Delimiter)
	if err != nil {
		return appcore.Options{}, err
	}
	policy, err := normalize.ParseZeroLibraryPolicy(o.ZeroLibrary)
	if err != nil {
		return appcore.Options{}, err
	}
	level, err := logging.ParseLevel(o.LogLevel)
	if err != nil {
		return appcore.Options{}, err
	}

	s3 := publish.OptionsFromEnv()
	if o.S3Region != "" {
		s3.Region = o.S3Region
	}
	s3.Endpoint = o.S3Endpoint

	return appcore.Options{
		Input: o.Input,
		Schema: counts.Schema{
			GeneColumn:   o.GeneColumn,
			LengthColumn: o.LengthColumn,
			CountColumns: o.CountColumns,
			CountsFrom:   o.CountsFrom,
		},
		Delimiter:  delim,
		Normalize:  normalize.Config{Threads: o.Threads, ZeroLibrary: policy},
		OutDir:     o.OutDir,
		Prefix:     o.Prefix,
		Monogram:   o.Monogram,
		Format:     o.Format,
		GeneIDs:    o.GeneIDs,
		Plot:       !o.NoPlot,
		PlotPoints: o.PlotPoints,
		Publish:    o.Publish,
		S3:         s3,
		LogLevel:   level,
		Quiet:      o.Quiet,
	}, nil
}
