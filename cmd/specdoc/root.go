package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	specdoc "github.com/reoring/specdoc"
	"github.com/reoring/specdoc/builder"
	"github.com/reoring/specdoc/config"
	"github.com/reoring/specdoc/dialect/petstore"
	"github.com/reoring/specdoc/i18n"
)

// app holds the state shared by all subcommands of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// lookupEnv and searchDirs feed config.Load; tests override them.
	lookupEnv  func(string) (string, bool)
	searchDirs []string

	cfgFile   string
	verbose   bool
	logFormat string
	lang      string

	cfg    *config.Config
	logger *log.Logger
}

func newApp(stdout, stderr io.Writer) *app {
	a := &app{stdout: stdout, stderr: stderr}
	if wd, err := os.Getwd(); err == nil {
		a.searchDirs = []string{wd}
	}
	return a
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "specdoc",
		Short: "Analyze structured documents against versioned specifications",
		Long: `specdoc reads JSON, YAML, TOML and CUE documents, checks them against the
rules of a registered specification version and writes the normalized result.

Examples:
  specdoc analyze petstore api.yaml
  specdoc analyze petstore --version 2.0 'specs/**/*.json'
  specdoc watch petstore 'specs/**/*.yaml'`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ./specdoc.{yaml,yml,toml,json,cue})")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text, json or logfmt (overrides config)")
	pf.StringVar(&a.lang, "lang", "en", "message language: en or ja")

	root.AddCommand(newAnalyzeCmd(a))
	root.AddCommand(newSpecsCmd(a))
	root.AddCommand(newVersionsCmd(a))
	root.AddCommand(newExtensionsCmd(a))
	root.AddCommand(newWatchCmd(a))
	return root
}

// setup loads configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, path, err := config.Load(cmd.Context(), config.LoadOptions{
		ConfigFilePath: a.cfgFile,
		SearchDirs:     a.searchDirs,
		LookupEnv:      a.lookupEnv,
	})
	if err != nil {
		return err
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := newLogger(a.stderr, cfg.Log)
	if err != nil {
		return err
	}
	i18n.SetLanguage(a.lang)
	a.cfg = cfg
	a.logger = logger
	if path != "" {
		logger.Debug("loaded config", "path", path)
	}
	return nil
}

func newLogger(w io.Writer, lc config.LogConfig) (*log.Logger, error) {
	level, err := log.ParseLevel(strings.ToLower(lc.Level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	var formatter log.Formatter
	switch strings.ToLower(lc.Format) {
	case "", "text":
		formatter = log.TextFormatter
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("log format: unknown format %q", lc.Format)
	}
	return log.NewWithOptions(w, log.Options{
		Level:     level,
		Formatter: formatter,
		Prefix:    "specdoc",
	}), nil
}

// registry returns a Registry holding every built-in specification, with the
// builder selected by format ("json" or "yaml").
func (a *app) registry(format string, obs specdoc.Observer) (*specdoc.Registry, error) {
	var b specdoc.Builder
	switch strings.ToLower(format) {
	case "", "json":
		b = builder.JSON(builder.WithIndent(a.cfg.Output.Indent), builder.WithTrailingNewline())
	case "yaml", "yml":
		b = builder.YAML(builder.WithYAMLIndent(yamlIndent(a.cfg.Output.Indent)))
	default:
		return nil, fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
	parse := a.cfg.ParseOptions()
	spec, err := petstore.New(petstore.WithBuilder(b), petstore.WithParseOptions(parse))
	if err != nil {
		return nil, err
	}
	opts := []specdoc.RegistryOption{
		specdoc.WithLogger(a.logger),
		specdoc.WithParseOptions(parse),
		specdoc.WithMaxInputBytes(a.cfg.Parse.MaxBytes),
	}
	if obs != nil {
		opts = append(opts, specdoc.WithObserver(obs))
	}
	reg := specdoc.NewRegistry(opts...)
	if err := reg.Register(spec); err != nil {
		return nil, err
	}
	return reg, nil
}

// yamlIndent maps the configured indent string to a YAML indent width.
func yamlIndent(indent string) int {
	if n := len(indent); n >= 2 && strings.Trim(indent, " ") == "" {
		return n
	}
	return 2
}

// versionFor returns the explicit version, else the config pin for spec.
func (a *app) versionFor(spec, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return a.cfg.SpecVersion(spec)
}
