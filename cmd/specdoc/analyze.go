package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	specdoc "github.com/reoring/specdoc"
)

var treeDumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	DisableMethods:          true,
	SortKeys:                true,
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		version string
		out     string
		format  string
		tree    bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <spec> <file|glob>...",
		Short: "Read, check and rebuild documents",
		Long: `Analyze resolves each input's reader from its extension, binds the requested
version (or the configured pin, or the specification default) and writes the
built output. Globs support "**".`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandInputs(args[1:], false)
			if err != nil {
				return err
			}
			if out != "" && len(files) != 1 {
				return fmt.Errorf("--out needs exactly one input, got %d", len(files))
			}
			reg, err := a.registry(format, nil)
			if err != nil {
				return err
			}
			spec := args[0]
			emit := func(path string, res *specdoc.Result) error {
				if tree {
					treeDumper.Fdump(a.stdout, res.Tree)
					return nil
				}
				if out != "" {
					return os.WriteFile(out, res.Output, 0o644)
				}
				_, err := a.stdout.Write(withNewline(res.Output))
				return err
			}
			var onFailure func(string, *specdoc.Result)
			if tree {
				onFailure = func(path string, res *specdoc.Result) {
					if res.Tree != nil {
						fmt.Fprintf(a.stderr, "%s: partial tree\n", path)
						treeDumper.Fdump(a.stderr, res.Tree)
					}
				}
			}
			failed, err := a.analyzeFiles(cmd.Context(), reg, spec, a.versionFor(spec, version), files, emit, onFailure)
			if err != nil {
				return err
			}
			if failed > 0 {
				return &exitError{code: 1, err: fmt.Errorf("%d of %d documents failed", failed, len(files))}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&version, "version", "", "specification version (default: config pin, then the specification default)")
	f.StringVarP(&out, "out", "o", "", "write output to this file instead of stdout")
	f.StringVar(&format, "format", "json", "output format: json or yaml")
	f.BoolVar(&tree, "tree", false, "dump the parsed element tree instead of the built output")
	return cmd
}

// analyzeFiles analyzes files in order, reporting failures on stderr and
// passing successes to emit. onFailure, when set, also sees failed results. It
// returns the number of failed documents; the
// error is non-nil only for emit failures and cancellation.
func (a *app) analyzeFiles(ctx context.Context, reg *specdoc.Registry, spec, version string, files []string, emit func(string, *specdoc.Result) error, onFailure func(string, *specdoc.Result)) (int, error) {
	var opts []specdoc.AnalyzeOption
	if version != "" {
		opts = append(opts, specdoc.WithVersion(version))
	}
	failed := 0
	for _, path := range files {
		res, err := reg.AnalyzeFile(ctx, spec, path, opts...)
		if errors.Is(err, context.Canceled) {
			return failed, err
		}
		for _, w := range res.Warnings {
			a.logger.Warn(w.Message, "path", path, "at", w.Path, "code", w.Code)
		}
		if err != nil {
			failed++
			a.report(path, err)
			if onFailure != nil {
				onFailure(path, res)
			}
			continue
		}
		a.logger.Debug("analyzed", "path", path, "version", res.Version, "duration", res.Duration)
		if err := emit(path, res); err != nil {
			return failed, err
		}
	}
	return failed, nil
}

func (a *app) report(path string, err error) {
	if vs, ok := specdoc.AsViolations(err); ok && len(vs) > 1 {
		fmt.Fprintf(a.stderr, "%s: %d rule violations\n", path, len(vs))
		for _, v := range vs {
			fmt.Fprintf(a.stderr, "  - %v\n", v)
		}
		return
	}
	fmt.Fprintf(a.stderr, "%s: %v\n", path, err)
}

// expandInputs resolves literal paths and doublestar globs into a
// deduplicated list of files. Unless allowEmpty, a glob matching nothing is
// an error.
func expandInputs(args []string, allowEmpty bool) ([]string, error) {
	var files []string
	for _, arg := range args {
		if !containsGlob(arg) {
			files = append(files, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", arg, err)
		}
		if len(matches) == 0 && !allowEmpty {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		slices.Sort(matches)
		files = append(files, matches...)
	}
	return dedupe(files), nil
}

func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func withNewline(b []byte) []byte {
	if len(b) == 0 || bytes.HasSuffix(b, []byte("\n")) {
		return b
	}
	return append(b, '\n')
}
