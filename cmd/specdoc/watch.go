package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	specdoc "github.com/reoring/specdoc"
	"github.com/reoring/specdoc/internal/watch"
	"github.com/reoring/specdoc/metrics"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		version     string
		debounce    time.Duration
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "watch <spec> <glob>...",
		Short: "Re-analyze matching documents whenever they change",
		Long: `Watch analyzes every matching document once, then again each time one of
them changes, until interrupted. Globs are relative to the working directory.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			spec := args[0]
			patterns, err := watchPatterns(args[1:])
			if err != nil {
				return err
			}

			preg := prometheus.NewRegistry()
			collector, err := metrics.NewCollector(preg)
			if err != nil {
				return err
			}
			reg, err := a.registry("json", collector)
			if err != nil {
				return err
			}
			if metricsAddr != "" {
				stop := serveMetrics(ctx, metricsAddr, preg, a.logger)
				defer stop()
			}

			ver := a.versionFor(spec, version)
			analyze := func(ctx context.Context, files []string) {
				failed, err := a.analyzeFiles(ctx, reg, spec, ver, files, func(path string, res *specdoc.Result) error {
					a.logger.Info("ok", "path", path, "version", res.Version)
					return nil
				}, nil)
				if err != nil {
					return
				}
				a.logger.Info("analysis finished", "documents", len(files), "failed", failed)
			}

			initial, err := expandInputs(patterns, true)
			if err != nil {
				return err
			}
			analyze(ctx, existing(initial))

			w, err := watch.New(watch.Options{
				Patterns: patterns,
				Debounce: debounce,
				Logger:   a.logger,
				OnChange: func(ctx context.Context, changed []string) error {
					files := make([]string, 0, len(changed))
					for _, c := range changed {
						files = append(files, filepath.FromSlash(c))
					}
					analyze(ctx, existing(files))
					return nil
				},
			})
			if err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			a.logger.Info("watching for changes", "patterns", patterns)
			return w.Run(ctx)
		},
	}
	f := cmd.Flags()
	f.StringVar(&version, "version", "", "specification version (default: config pin, then the specification default)")
	f.DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before re-analyzing")
	f.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

// watchPatterns turns CLI globs into slash-separated patterns relative to the
// working directory.
func watchPatterns(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if filepath.IsAbs(a) {
			return nil, fmt.Errorf("watch pattern %q must be relative to the working directory", a)
		}
		p := path.Clean(filepath.ToSlash(a))
		if p == ".." || strings.HasPrefix(p, "../") {
			return nil, fmt.Errorf("watch pattern %q leaves the working directory", a)
		}
		out = append(out, p)
	}
	return out, nil
}

// existing drops paths that were removed since the event fired.
func existing(files []string) []string {
	out := files[:0]
	for _, f := range files {
		if fileExists(f) {
			out = append(out, f)
		}
	}
	return out
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func serveMetrics(ctx context.Context, addr string, g prometheus.Gatherer, logger *log.Logger) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "addr", addr, "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}
}
