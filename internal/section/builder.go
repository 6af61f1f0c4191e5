package section

import (
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"pagekit/internal/config"
	"pagekit/internal/errors"
	"pagekit/internal/markup"
	"pagekit/internal/templating"
)

// Stage names reported in errors and logs.
const (
	StageResolve   = "resolve"
	StageTemplate  = "template"
	StageEditMarks = "editmarks"
	StageCompile   = "compile"
)

// Builder runs the per-section pipeline: resolve, then template expansion,
// then markup compilation.
type Builder struct {
	resolver       *Resolver
	compiler       *markup.Compiler
	compile        bool
	cleanEditMarks bool
	cleanMarks     func(string) (string, error)
	helpers        map[string]any
	partials       map[string]string
	concurrency    int
	logger         zerolog.Logger
}

// NewBuilder creates a Builder for resolved options.
func NewBuilder(opts config.BuildOptions, compiler *markup.Compiler, logger zerolog.Logger) *Builder {
	return &Builder{
		resolver:       NewResolver(opts.Root, opts.SectionContents),
		compiler:       compiler,
		compile:        opts.Compile,
		cleanEditMarks: opts.CleanEditMarks,
		cleanMarks:     markup.CleanEditMarks,
		helpers:        opts.Helpers,
		partials:       opts.Partials,
		concurrency:    opts.Concurrency,
		logger:         logger,
	}
}

// Build produces the final content of one section. Templates are expanded
// against data before compilation, so a template may emit Markdown.
func (b *Builder) Build(ref string, data templating.Data) (string, error) {
	kind := Classify(ref)

	content, err := b.resolver.Resolve(ref)
	if err != nil {
		return "", err
	}

	if kind.Template {
		engine, err := templating.ForMarker(kind.Engine)
		if err != nil {
			return "", errors.Wrap(err, errors.CodeTemplate, "unsupported template").
				WithSection(ref).WithStage(StageTemplate)
		}
		content, err = engine.Expand(ref, content, data, b.helpers, b.partials)
		if err != nil {
			return "", errors.Wrap(err, errors.CodeTemplate, "template expansion failed").
				WithSection(ref).WithStage(StageTemplate).WithDetail("engine", engine.Name())
		}
	}

	if kind.Markup && b.compile {
		if b.cleanEditMarks {
			content, err = b.cleanMarks(content)
			if err != nil {
				return "", errors.Wrap(err, errors.CodeCompile, "edit marks could not be resolved").
					WithSection(ref).WithStage(StageEditMarks)
			}
		}
		content, err = b.compiler.Compile(content)
		if err != nil {
			return "", errors.Wrap(err, errors.CodeCompile, "markup compilation failed").
				WithSection(ref).WithStage(StageCompile)
		}
	}

	b.logger.Trace().
		Str("section", ref).
		Bool("template", kind.Template).
		Bool("markup", kind.Markup).
		Int("bytes", len(content)).
		Msg("Section built")
	return content, nil
}

// BuildAll builds refs in order. The returned slice matches refs index for
// index. On failure nothing is returned and the error is always that of
// the lowest-index failing section, whether or not sections run
// concurrently.
func (b *Builder) BuildAll(refs []string, data templating.Data) ([]string, error) {
	if b.concurrency <= 1 || len(refs) <= 1 {
		return b.buildSequential(refs, data)
	}
	return b.buildConcurrent(refs, data)
}

func (b *Builder) buildSequential(refs []string, data templating.Data) ([]string, error) {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		content, err := b.Build(ref, data)
		if err != nil {
			return nil, err
		}
		out = append(out, content)
	}
	return out, nil
}

func (b *Builder) buildConcurrent(refs []string, data templating.Data) ([]string, error) {
	out := make([]string, len(refs))
	errs := make([]error, len(refs))

	var firstFailed atomic.Int64
	firstFailed.Store(int64(len(refs)))

	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			// A lower index already failed; this result can never be reported.
			if int64(i) > firstFailed.Load() {
				return nil
			}
			content, err := b.Build(ref, data)
			if err != nil {
				errs[i] = err
				lowerTo(&firstFailed, int64(i))
				return nil
			}
			out[i] = content
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func lowerTo(v *atomic.Int64, n int64) {
	for {
		cur := v.Load()
		if n >= cur || v.CompareAndSwap(cur, n) {
			return
		}
	}
}
