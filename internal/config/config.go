package config

import (
	"maps"
	"os"
	"path/filepath"
	"slices"

	"pagekit/internal/errors"
)

// Defaults applied by Resolve.
const (
	DefaultOutlineDepth = 3
	DefaultConcurrency  = 1
)

// PageRequest names the page to build and its sections, in layout order.
type PageRequest struct {
	FileName string   `yaml:"fileName" toml:"fileName"`
	Sections []string `yaml:"sections" toml:"sections"`
}

// Clone returns a deep copy so the build never shares state with the caller.
func (r PageRequest) Clone() PageRequest {
	return PageRequest{
		FileName: r.FileName,
		Sections: slices.Clone(r.Sections),
	}
}

// Validate checks that the request can be built. The file name must stay
// inside the destination directory.
func (r PageRequest) Validate() error {
	if r.FileName == "" {
		return errors.New(errors.CodeConfig, "page file name is required")
	}
	if !filepath.IsLocal(filepath.FromSlash(r.FileName)) {
		return errors.New(errors.CodeConfig, "page file name must be relative to the destination").
			WithDetail("fileName", r.FileName)
	}
	return nil
}

// Options is the caller-facing build configuration. Pointer fields
// distinguish "unset" from an explicit zero value.
type Options struct {
	Root             string
	Dest             string
	Data             map[string]any
	SectionContents  map[string]string
	Compile          *bool
	OutlineDepth     *int
	Helpers          map[string]any
	Partials         map[string]string
	PageTemplatePath string

	Concurrency          int
	Sanitize             bool
	RewriteMarkdownLinks bool
	CleanEditMarks       bool
}

// BuildOptions is the fully resolved configuration. Root, Dest and
// PageTemplatePath are absolute.
type BuildOptions struct {
	Root             string
	Dest             string
	Data             map[string]any
	SectionContents  map[string]string
	Compile          bool
	OutlineDepth     int
	Helpers          map[string]any
	Partials         map[string]string
	PageTemplatePath string

	Concurrency          int
	Sanitize             bool
	RewriteMarkdownLinks bool
	CleanEditMarks       bool
}

// Bool returns a pointer to b, for Options.Compile.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to i, for Options.OutlineDepth.
func Int(i int) *int { return &i }

// Resolve applies defaults, validates and normalizes o. Maps are copied so
// later mutation by the caller cannot leak into a build.
func Resolve(o Options) (BuildOptions, error) {
	if o.PageTemplatePath == "" {
		return BuildOptions{}, errors.New(errors.CodeConfig, "page template path is required")
	}

	root, err := absOrWorkingDir(o.Root)
	if err != nil {
		return BuildOptions{}, errors.Wrap(err, errors.CodeConfig, "cannot resolve root").WithDetail("root", o.Root)
	}
	dest, err := absOrWorkingDir(o.Dest)
	if err != nil {
		return BuildOptions{}, errors.Wrap(err, errors.CodeConfig, "cannot resolve dest").WithDetail("dest", o.Dest)
	}

	tmplPath := o.PageTemplatePath
	if !filepath.IsAbs(tmplPath) {
		tmplPath = filepath.Join(root, tmplPath)
	}

	opts := BuildOptions{
		Root:                 root,
		Dest:                 dest,
		Data:                 cloneMap(o.Data),
		SectionContents:      cloneMap(o.SectionContents),
		Compile:              true,
		OutlineDepth:         DefaultOutlineDepth,
		Helpers:              cloneMap(o.Helpers),
		Partials:             cloneMap(o.Partials),
		PageTemplatePath:     filepath.Clean(tmplPath),
		Concurrency:          o.Concurrency,
		Sanitize:             o.Sanitize,
		RewriteMarkdownLinks: o.RewriteMarkdownLinks,
		CleanEditMarks:       o.CleanEditMarks,
	}
	if o.Compile != nil {
		opts.Compile = *o.Compile
	}
	if o.OutlineDepth != nil {
		if *o.OutlineDepth < 0 {
			return BuildOptions{}, errors.Newf(errors.CodeConfig, "outline depth must be >= 0, got %d", *o.OutlineDepth)
		}
		opts.OutlineDepth = *o.OutlineDepth
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	return opts, nil
}

func absOrWorkingDir(p string) (string, error) {
	if p == "" {
		return os.Getwd()
	}
	return filepath.Abs(p)
}

func cloneMap[M ~map[K]V, K comparable, V any](m M) M {
	if m == nil {
		return M{}
	}
	return maps.Clone(m)
}
