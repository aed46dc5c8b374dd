package specdoc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Registry is the engine entry point: a read-only (after setup) collection of
// Specifications keyed by name. Construct one at process start and pass it to
// callers; there is no package-level registry.
//
// Analyze is safe for concurrent use. Registration should happen during setup;
// it is still safe to call concurrently because the name table is swapped
// copy-on-write.
type Registry struct {
	mu       sync.Mutex
	specs    atomic.Pointer[map[string]*Specification]
	logger   *log.Logger
	observer Observer
	parseOpt *ParseOptions
	maxInput int64
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger; the default discards output.
func WithLogger(l *log.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver sets the Observer notified after every analyze call.
func WithObserver(o Observer) RegistryOption {
	return func(r *Registry) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithParseOptions overrides the parse options of every Parser that honors
// context-carried options.
func WithParseOptions(opt ParseOptions) RegistryOption {
	return func(r *Registry) { r.parseOpt = &opt }
}

// WithMaxInputBytes rejects inputs larger than n bytes in the read stage.
func WithMaxInputBytes(n int64) RegistryOption {
	return func(r *Registry) { r.maxInput = n }
}

// NewRegistry returns an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		logger:   log.NewWithOptions(io.Discard, log.Options{Prefix: "specdoc"}),
		observer: nopObserver{},
	}
	empty := map[string]*Specification{}
	r.specs.Store(&empty)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a complete specification. Names are unique.
func (r *Registry) Register(spec *Specification) error {
	if spec == nil {
		return registrationError(CodeInvalidRegistration, "", "specification", errors.New("nil specification"))
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := *r.specs.Load()
	if _, dup := cur[spec.Name()]; dup {
		return registrationError(CodeDuplicateRegistration, spec.Name(), "specification "+spec.Name(), nil)
	}
	next := maps.Clone(cur)
	next[spec.Name()] = spec
	r.specs.Store(&next)
	r.logger.Debug("registered specification", "spec", spec.Name(), "versions", spec.Versions(), "extensions", spec.SupportedExtensions())
	return nil
}

// MustRegister registers specs and panics on the first error, so a process
// never starts with an inconsistent registry.
func (r *Registry) MustRegister(specs ...*Specification) {
	for _, s := range specs {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the specification registered under name.
func (r *Registry) Lookup(name string) (*Specification, error) {
	s, ok := (*r.specs.Load())[name]
	if !ok {
		return nil, &Error{Code: CodeUnknownSpecification, Stage: StageResolve, Spec: name}
	}
	return s, nil
}

// Names returns the registered specification names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(*r.specs.Load()))
}

// Versions returns the versions supported by the named specification.
func (r *Registry) Versions(name string) ([]string, error) {
	s, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return s.Versions(), nil
}

// SupportedExtensions returns the extensions the named specification reads.
func (r *Registry) SupportedExtensions(name string) ([]string, error) {
	s, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return s.SupportedExtensions(), nil
}

// AnalyzeOption tunes a single analyze call.
type AnalyzeOption func(*analyzeConfig)

type analyzeConfig struct {
	version string
}

// WithVersion selects an explicit version instead of the default.
func WithVersion(v string) AnalyzeOption {
	return func(c *analyzeConfig) { c.version = v }
}

// Analyze resolves the named specification, reads, parses and builds in. The
// returned Result is never nil; on failure its State is StateFailed and Stage
// names the failing stage. Errors are *Error values wrapping the cause.
func (r *Registry) Analyze(ctx context.Context, name string, in Input, opts ...AnalyzeOption) (*Result, error) {
	return r.analyze(ctx, name, in.Extension, func() ([]byte, error) { return in.Data, nil }, opts)
}

// AnalyzeFile is Analyze for a file on disk; the extension comes from path.
func (r *Registry) AnalyzeFile(ctx context.Context, name, path string, opts ...AnalyzeOption) (*Result, error) {
	return r.analyze(ctx, name, filepath.Ext(path), func() ([]byte, error) { return os.ReadFile(path) }, opts)
}

func (r *Registry) analyze(ctx context.Context, name, ext string, load func() ([]byte, error), opts []AnalyzeOption) (*Result, error) {
	start := time.Now()
	var cfg analyzeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	res := &Result{
		RunID:     uuid.NewString(),
		Spec:      name,
		Extension: NormalizeExtension(ext),
		State:     StatePending,
		Stage:     StageResolve,
	}
	logger := r.logger.With("run_id", res.RunID, "spec", name)

	err := r.run(ctx, res, ext, load, cfg, logger)
	res.Duration = time.Since(start)
	if err != nil {
		res.State = StateFailed
		res.Output = nil
		logger.Warn("analyze failed", "stage", res.Stage.String(), "version", res.Version, "err", err)
	} else {
		logger.Debug("analyze done", "version", res.Version, "bytes", len(res.Output), "duration", res.Duration)
	}
	vs, _ := AsViolations(err)
	r.observer.ObserveAnalyze(AnalyzeEvent{
		RunID:      res.RunID,
		Spec:       name,
		Version:    res.Version,
		Extension:  res.Extension,
		State:      res.State,
		Stage:      res.Stage,
		Err:        err,
		Violations: vs,
		Duration:   res.Duration,
	})
	return res, err
}

func (r *Registry) run(ctx context.Context, res *Result, ext string, load func() ([]byte, error), cfg analyzeConfig, logger *log.Logger) error {
	spec, err := r.Lookup(res.Spec)
	if err != nil {
		return err
	}
	res.State = StateResolved

	reader, err := spec.GetReader(ext)
	if err != nil {
		return err
	}
	var rs *RuleSet
	if cfg.version != "" {
		rs, err = spec.GetVersion(cfg.version)
	} else {
		rs, err = spec.DefaultVersion()
	}
	if err != nil {
		return err
	}
	res.Version = rs.Version()
	res.State = StateVersionBound
	logger.Debug("version bound", "version", res.Version, "extension", res.Extension)

	stageErr := func(code string, err error) error {
		return &Error{Code: code, Stage: res.Stage, Spec: res.Spec, Version: res.Version, Extension: res.Extension, Err: err}
	}

	// read
	res.Stage = StageRead
	if err := ctx.Err(); err != nil {
		return stageErr(CodeReaderFailure, err)
	}
	data, err := load()
	if err != nil {
		return stageErr(CodeReaderFailure, err)
	}
	if r.maxInput > 0 && int64(len(data)) > r.maxInput {
		return stageErr(CodeReaderFailure, fmt.Errorf("input of %d bytes exceeds limit of %d", len(data), r.maxInput))
	}
	content, err := safeRead(ctx, reader, data)
	if err != nil {
		return stageErr(CodeReaderFailure, err)
	}
	if content == nil {
		return stageErr(CodeReaderFailure, errors.New("reader returned no content"))
	}
	if content.Extension == "" {
		content.Extension = res.Extension
	}
	logger.Debug("read", "format", content.Format, "bytes", len(content.Text))

	// parse
	res.Stage = StageParse
	if err := ctx.Err(); err != nil {
		return stageErr(CodeParserFailure, err)
	}
	pctx := ctx
	if r.parseOpt != nil {
		opt := *r.parseOpt
		userWarn := opt.OnWarning
		opt.OnWarning = func(w Warning) {
			res.Warnings = append(res.Warnings, w)
			if userWarn != nil {
				userWarn(w)
			}
		}
		pctx = ContextWithParseOptions(ctx, opt)
	}
	tree, err := safeParse(pctx, spec.Parser(), content, rs)
	res.Tree = tree
	if err != nil {
		if errors.Is(err, ErrRuleViolation) {
			return stageErr(CodeRuleViolation, err)
		}
		return stageErr(CodeParserFailure, err)
	}
	if tree == nil {
		return stageErr(CodeParserFailure, errors.New("parser returned no tree"))
	}
	res.State = StateParsed
	logger.Debug("parsed", "elements", countElements(tree))

	// build
	res.Stage = StageBuild
	if err := ctx.Err(); err != nil {
		return stageErr(CodeBuilderFailure, err)
	}
	out, err := safeBuild(ctx, spec.Builder(), tree.Clone(), rs)
	if err != nil {
		if errors.Is(err, ErrRuleViolation) {
			return stageErr(CodeRuleViolation, err)
		}
		return stageErr(CodeBuilderFailure, err)
	}
	res.Output = out
	res.State = StateBuilt
	return nil
}

// The safe* helpers turn collaborator panics into errors of their stage.

func safeRead(ctx context.Context, r Reader, data []byte) (c *Content, err error) {
	defer recoverInto(&err, "reader")
	return r.Read(ctx, data)
}

func safeParse(ctx context.Context, p Parser, c *Content, rs *RuleSet) (el *Element, err error) {
	defer recoverInto(&err, "parser")
	return p.Parse(ctx, c, rs)
}

func safeBuild(ctx context.Context, b Builder, root *Element, rs *RuleSet) (out []byte, err error) {
	defer recoverInto(&err, "builder")
	return b.Build(ctx, root, rs)
}

func recoverInto(err *error, who string) {
	if p := recover(); p != nil {
		*err = fmt.Errorf("%s panicked: %v", who, p)
	}
}

func countElements(root *Element) int {
	n := 0
	root.Walk(func(*Element) bool { n++; return true })
	return n
}
