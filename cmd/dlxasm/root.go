package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/bassosimone/dlxasm/pkg/asm"
)

// options contains the command line configuration.
type options struct {
	itypes  string
	jtypes  string
	rtypes  string
	outDir  string
	jobs    int
	listing bool
	verbose bool
	debug   bool
	noColor bool
	stdout  bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "dlxasm [flags] file.dlx...",
		Short: "A simplified two-pass DLX assembler",
		Long: `Dlxasm translates DLX assembly source into .hex listings.

Each source file is assembled independently: labels are local to the
file defining them. The instruction set is read from tab separated
Itypes, Jtypes and Rtypes definition files when given, otherwise the
built-in DLX definitions are used. The output of file.dlx is written
to file.hex, one "<address>: <value>" record per line.
`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.itypes, "itypes", "", "I-type definition file")
	flags.StringVar(&opts.jtypes, "jtypes", "", "J-type definition file")
	flags.StringVar(&opts.rtypes, "rtypes", "", "R-type definition file")
	flags.StringVarP(&opts.outDir, "out-dir", "o", "", "directory for .hex files (default: next to each source)")
	flags.IntVarP(&opts.jobs, "jobs", "j", 1, "number of files assembled concurrently")
	flags.BoolVarP(&opts.listing, "listing", "l", false, "print a listing of each assembled file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&opts.debug, "debug", false, "trace address assignment and dump symbol tables")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored status messages")
	flags.BoolVar(&opts.stdout, "stdout", false, "print the records on standard output instead of writing .hex files")
	return cmd
}

func setupLogging(opts *options) {
	level := slog.LevelWarn
	switch {
	case opts.debug:
		level = asm.LevelTrace
	case opts.verbose:
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func run(ctx context.Context, opts *options, args []string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	setupLogging(opts)
	statusOut := stdout
	if opts.stdout {
		statusOut = stderr
	}
	status := newStatus(statusOut, opts.noColor)
	status.begin()
	if err := validateInputs(status, args); err != nil {
		return err
	}
	catalog, err := loadCatalog(status, opts)
	if err != nil {
		status.fail(err.Error())
		return err
	}
	sources, err := readSources(args)
	if err != nil {
		status.fail(err.Error())
		return err
	}
	if opts.stdout {
		if err := streamSources(ctx, catalog, sources, stdout); err != nil {
			status.fail(err.Error())
			return err
		}
		status.end()
		return nil
	}
	assembler := &asm.Assembler{Catalog: catalog, Jobs: opts.jobs}
	results, err := assembler.AssembleFiles(ctx, sources)
	if err != nil {
		status.fail(err.Error())
		return err
	}
	for _, result := range results {
		path := outputPath(result.File, opts.outDir)
		if err := writeHexFile(path, result.Rows); err != nil {
			status.fail(err.Error())
			return err
		}
		status.info(fmt.Sprintf("%s file written", path))
		if opts.listing {
			fmt.Fprintln(stdout, renderListing(result))
		}
		if opts.debug {
			pp.Fprintln(stderr, result.Symbols)
		}
	}
	status.end()
	return nil
}

// streamSources assembles each source in turn and prints its records
// on stdout as they are produced.
func streamSources(ctx context.Context, catalog *asm.Catalog, sources []asm.Source, stdout io.Writer) error {
	for _, source := range sources {
		for roe := range asm.StartAssembler(ctx, source.Name, source.Reader, catalog) {
			record, err := roe.Encode()
			if err != nil {
				return err
			}
			if _, err := io.WriteString(stdout, record); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// validateInputs checks that every argument is a .dlx file.
func validateInputs(status *status, args []string) error {
	status.section("VALIDATING INPUTS")
	for _, arg := range args {
		if filepath.Ext(arg) != ".dlx" {
			status.fail(fmt.Sprintf("%s is an invalid input", arg))
			return fmt.Errorf("dlxasm: %s is not a .dlx file", arg)
		}
		status.info(fmt.Sprintf("%s file valid", arg))
	}
	status.done()
	return nil
}

// loadCatalog loads the instruction definitions named by opts, or the
// built-in ones when no definition file is given.
func loadCatalog(status *status, opts *options) (*asm.Catalog, error) {
	status.section("CREATING INSTRUCTION MAP")
	defs := []struct {
		name  string
		path  string
		class asm.Class
	}{
		{"Itypes", opts.itypes, asm.ClassI},
		{"Jtypes", opts.jtypes, asm.ClassJ},
		{"Rtypes", opts.rtypes, asm.ClassR},
	}
	if opts.itypes == "" && opts.jtypes == "" && opts.rtypes == "" {
		catalog := asm.DefaultCatalog()
		status.info(fmt.Sprintf("built-in definitions ==> %d instructions", catalog.Len()))
		status.done()
		return catalog, nil
	}
	catalog := asm.NewCatalog()
	for _, def := range defs {
		if def.path == "" {
			continue
		}
		fp, err := os.Open(def.path)
		if err != nil {
			return nil, err
		}
		count, err := catalog.Load(def.class, fp)
		fp.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", def.path, err)
		}
		status.info(fmt.Sprintf("%s downloaded ==> %d instructions", def.name, count))
	}
	status.done()
	return catalog, nil
}

func readSources(args []string) ([]asm.Source, error) {
	sources := make([]asm.Source, 0, len(args))
	for _, arg := range args {
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, err
		}
		sources = append(sources, asm.Source{Name: arg, Reader: bytes.NewReader(data)})
	}
	return sources, nil
}

// outputPath maps file.dlx to file.hex, optionally inside outDir.
func outputPath(file, outDir string) string {
	path := strings.TrimSuffix(file, ".dlx") + ".hex"
	if outDir != "" {
		path = filepath.Join(outDir, filepath.Base(path))
	}
	return path
}
