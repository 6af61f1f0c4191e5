package config

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"pagekit/internal/errors"
)

// File mirrors a build file. YAML and TOML use the same keys.
type File struct {
	Root                 string            `yaml:"root" toml:"root"`
	Dest                 string            `yaml:"dest" toml:"dest"`
	PageTemplate         string            `yaml:"pageTemplate" toml:"pageTemplate"`
	Compile              *bool             `yaml:"compile" toml:"compile"`
	OutlineDepth         *int              `yaml:"outlineDepth" toml:"outlineDepth"`
	Concurrency          int               `yaml:"concurrency" toml:"concurrency"`
	Sanitize             bool              `yaml:"sanitize" toml:"sanitize"`
	RewriteMarkdownLinks bool              `yaml:"rewriteMarkdownLinks" toml:"rewriteMarkdownLinks"`
	CleanEditMarks       bool              `yaml:"cleanEditMarks" toml:"cleanEditMarks"`
	Data                 map[string]any    `yaml:"data" toml:"data"`
	SectionContents      map[string]string `yaml:"sectionContents" toml:"sectionContents"`
	Partials             map[string]string `yaml:"partials" toml:"partials"`
	PartialFiles         map[string]string `yaml:"partialFiles" toml:"partialFiles"`
	Page                 PageRequest       `yaml:"page" toml:"page"`
}

// LoadFile reads a YAML or TOML build file. Root and Dest are taken
// relative to the file's directory; partial files are read relative to Root.
func LoadFile(path string) (PageRequest, Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PageRequest{}, Options{}, errors.Wrapf(err, errors.CodeConfig, "could not read build file at %s", path)
	}

	var f File
	if err := decode(path, data, &f); err != nil {
		return PageRequest{}, Options{}, errors.Wrapf(err, errors.CodeConfig, "could not parse build file %s", path)
	}

	base := filepath.Dir(path)
	opts := Options{
		Root:                 relativeTo(base, f.Root),
		Dest:                 relativeTo(base, f.Dest),
		Data:                 f.Data,
		SectionContents:      f.SectionContents,
		Compile:              f.Compile,
		OutlineDepth:         f.OutlineDepth,
		Partials:             make(map[string]string, len(f.Partials)+len(f.PartialFiles)),
		PageTemplatePath:     f.PageTemplate,
		Concurrency:          f.Concurrency,
		Sanitize:             f.Sanitize,
		RewriteMarkdownLinks: f.RewriteMarkdownLinks,
		CleanEditMarks:       f.CleanEditMarks,
	}
	for name, src := range f.Partials {
		opts.Partials[name] = src
	}
	for name, rel := range f.PartialFiles {
		src, err := os.ReadFile(filepath.Join(opts.Root, rel))
		if err != nil {
			return PageRequest{}, Options{}, errors.Wrapf(err, errors.CodeConfig, "could not read partial %q", name).
				WithDetail("path", rel)
		}
		opts.Partials[name] = string(src)
	}
	return f.Page, opts, nil
}

// IsTOML reports whether path names a TOML build file. Anything else is
// read as YAML.
func IsTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func decode(path string, data []byte, f *File) error {
	if IsTOML(path) {
		return toml.Unmarshal(data, f)
	}
	return yaml.Unmarshal(data, f)
}

// WatchPaths lists the directories and files a rebuild depends on.
func (o BuildOptions) WatchPaths() []string {
	return []string{o.Root, filepath.Dir(o.PageTemplatePath)}
}

func relativeTo(base, p string) string {
	if p == "" {
		return base
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
