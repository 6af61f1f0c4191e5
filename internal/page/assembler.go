// Package page assembles a single output page from its sections.
//
// A build moves through a fixed sequence of states:
//
//	Init -> SectionsBuilt -> OutlinePopulated -> Rendered -> Written -> Done
//
// Any stage failure moves the build to Failed. Nothing is written unless
// the page template rendered successfully.
package page

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pagekit/internal/config"
	"pagekit/internal/errors"
	"pagekit/internal/markup"
	"pagekit/internal/metrics"
	"pagekit/internal/outline"
	"pagekit/internal/section"
	"pagekit/internal/templating"
)

// Data context keys derived during a build.
const (
	KeySections = "sections"
	KeyOutline  = "outline"
)

// Stage names reported in errors, logs and metrics.
const (
	StageConfig   = "config"
	StageSections = "sections"
	StageOutline  = "outline"
	StageRender   = "render"
	StageWrite    = "write"
)

// Result is the state of a build after its last completed stage.
type Result struct {
	State    State
	Data     templating.Data
	Sections []string
	Page     []byte
	Path     string
}

type stage struct {
	name string
	to   State
	run  func(req config.PageRequest, in Result) (Result, error)
}

// Assembler builds pages for one set of resolved options. It keeps no
// per-build state, so concurrent calls are safe.
type Assembler struct {
	opts     config.BuildOptions
	sections *section.Builder
	writer   Writer
	recorder metrics.Recorder
	logger   zerolog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithWriter replaces the filesystem writer.
func WithWriter(w Writer) Option {
	return func(a *Assembler) { a.writer = w }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(a *Assembler) { a.recorder = r }
}

// WithLogger sets the logger. Without it the Assembler is silent.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

// New creates an Assembler.
func New(opts config.BuildOptions, options ...Option) *Assembler {
	a := &Assembler{
		opts:     opts,
		writer:   FileWriter{},
		recorder: metrics.NoopRecorder{},
		logger:   zerolog.Nop(),
	}
	for _, o := range options {
		o(a)
	}

	var compilerOpts []markup.Option
	if opts.RewriteMarkdownLinks {
		compilerOpts = append(compilerOpts, markup.WithLinkRewrite())
	}
	if opts.Sanitize {
		compilerOpts = append(compilerOpts, markup.WithSanitizer())
	}
	a.sections = section.NewBuilder(opts, markup.NewCompiler(compilerOpts...), a.logger)
	return a
}

// Create resolves o and builds and writes req.
func Create(req config.PageRequest, o config.Options, options ...Option) (Result, error) {
	opts, err := config.Resolve(o)
	if err != nil {
		return Result{State: StateFailed}, errors.Enrich(err, req.FileName, StageConfig, errors.CodeConfig)
	}
	return New(opts, options...).Create(req)
}

// Create builds req and writes it to Dest/FileName.
func (a *Assembler) Create(req config.PageRequest) (Result, error) {
	return a.run(req, append(a.renderStages(), stage{StageWrite, StateWritten, a.write}))
}

// Render builds req without writing it.
func (a *Assembler) Render(req config.PageRequest) (Result, error) {
	return a.run(req, a.renderStages())
}

func (a *Assembler) renderStages() []stage {
	return []stage{
		{StageSections, StateSectionsBuilt, a.buildSections},
		{StageOutline, StateOutlinePopulated, a.populateOutline},
		{StageRender, StateRendered, a.render},
	}
}

func (a *Assembler) run(req config.PageRequest, stages []stage) (Result, error) {
	req = req.Clone()
	logger := a.logger.With().Str("page", req.FileName).Logger()
	start := time.Now()

	fail := func(st string, err error, from State) (Result, error) {
		be := errors.Enrich(err, req.FileName, st, errors.CodeUnknown)
		a.recorder.ObserveBuildDuration(time.Since(start))
		a.recorder.IncStageResult(st, metrics.OutcomeFailed)
		a.recorder.IncBuildOutcome(metrics.OutcomeFailed)
		logger.Error().Err(be).Str("stage", st).Stringer("state", from).Msg("Page build failed")
		return Result{State: StateFailed}, be
	}

	if err := req.Validate(); err != nil {
		return fail(StageConfig, err, StateInit)
	}

	res := Result{State: StateInit, Data: templating.NewData(a.opts.Data)}
	for _, st := range stages {
		stageStart := time.Now()
		next, err := st.run(req, res)
		a.recorder.ObserveStageDuration(st.name, time.Since(stageStart))
		if err != nil {
			return fail(st.name, err, res.State)
		}
		a.recorder.IncStageResult(st.name, metrics.OutcomeSuccess)
		next.State = st.to
		logger.Debug().
			Str("stage", st.name).
			Stringer("from", res.State).
			Stringer("to", next.State).
			Dur("duration", time.Since(stageStart)).
			Msg("Stage complete")
		res = next
	}

	if res.State == StateWritten {
		res.State = StateDone
		logger.Info().
			Str("path", res.Path).
			Int("sections", len(res.Sections)).
			Dur("duration", time.Since(start)).
			Msg("Page written")
	}
	a.recorder.ObserveBuildDuration(time.Since(start))
	a.recorder.IncBuildOutcome(metrics.OutcomeSuccess)
	return res, nil
}

func (a *Assembler) buildSections(req config.PageRequest, in Result) (Result, error) {
	built, err := a.sections.BuildAll(req.Sections, in.Data)
	if err != nil {
		return Result{}, err
	}
	a.recorder.ObserveSections(len(built))

	out := in
	out.Sections = built
	out.Data = in.Data.With(KeySections, built)
	return out, nil
}

// populateOutline only runs over compiled output; uncompiled Markdown has
// no heading elements to find.
func (a *Assembler) populateOutline(_ config.PageRequest, in Result) (Result, error) {
	if !a.opts.Compile {
		return in, nil
	}
	forest := outline.Extract(strings.Join(in.Sections, "\n"), a.opts.OutlineDepth)

	out := in
	out.Data = in.Data.With(KeyOutline, forest)
	return out, nil
}

func (a *Assembler) render(_ config.PageRequest, in Result) (Result, error) {
	path := a.opts.PageTemplatePath
	src, err := os.ReadFile(path)
	if err != nil {
		code := errors.CodeIO
		if stderrors.Is(err, fs.ErrNotExist) {
			code = errors.CodeNotFound
		}
		return Result{}, errors.Wrap(err, code, "failed to read page template").WithDetail("path", path)
	}

	engine := templating.ForPath(path)
	page, err := engine.Expand(filepath.Base(path), string(src), in.Data, a.opts.Helpers, a.opts.Partials)
	if err != nil {
		return Result{}, errors.Wrap(err, errors.CodeTemplate, "page template expansion failed").
			WithDetail("engine", engine.Name()).WithDetail("path", path)
	}

	out := in
	out.Page = []byte(page)
	return out, nil
}

func (a *Assembler) write(req config.PageRequest, in Result) (Result, error) {
	if err := a.writer.Write(in.Page, a.opts.Dest, req.FileName); err != nil {
		return Result{}, err
	}
	out := in
	out.Path = filepath.Join(a.opts.Dest, req.FileName)
	return out, nil
}
