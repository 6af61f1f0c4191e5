package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagekit/internal/errors"
)

func TestResolveDefaults(t *testing.T) {
	root := t.TempDir()

	opts, err := Resolve(Options{Root: root, PageTemplatePath: "layout.hbs"})
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, root, opts.Root)
	assert.Equal(t, wd, opts.Dest)
	assert.True(t, opts.Compile)
	assert.Equal(t, DefaultOutlineDepth, opts.OutlineDepth)
	assert.Equal(t, DefaultConcurrency, opts.Concurrency)
	assert.Equal(t, filepath.Join(root, "layout.hbs"), opts.PageTemplatePath)
	assert.NotNil(t, opts.Data)
	assert.NotNil(t, opts.SectionContents)
	assert.NotNil(t, opts.Helpers)
	assert.NotNil(t, opts.Partials)
}

func TestResolveExplicitValues(t *testing.T) {
	opts, err := Resolve(Options{
		Root:             "rel/root",
		Dest:             "rel/out",
		Compile:          Bool(false),
		OutlineDepth:     Int(0),
		Concurrency:      4,
		PageTemplatePath: "/abs/layout.tmpl",
	})
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(opts.Root))
	assert.True(t, filepath.IsAbs(opts.Dest))
	assert.False(t, opts.Compile)
	assert.Equal(t, 0, opts.OutlineDepth)
	assert.Equal(t, 4, opts.Concurrency)
	assert.Equal(t, "/abs/layout.tmpl", opts.PageTemplatePath)
}

func TestResolveCopiesMaps(t *testing.T) {
	data := map[string]any{"title": "A"}
	contents := map[string]string{"intro": "hi"}

	opts, err := Resolve(Options{Data: data, SectionContents: contents, PageTemplatePath: "l.hbs"})
	require.NoError(t, err)

	data["title"] = "B"
	contents["intro"] = "changed"
	assert.Equal(t, "A", opts.Data["title"])
	assert.Equal(t, "hi", opts.SectionContents["intro"])
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"missing page template", Options{}},
		{"negative outline depth", Options{PageTemplatePath: "l.hbs", OutlineDepth: Int(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.opts)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeConfig))
		})
	}
}

func TestPageRequest(t *testing.T) {
	req := PageRequest{FileName: "index.html", Sections: []string{"a.md"}}
	clone := req.Clone()
	clone.Sections[0] = "b.md"
	assert.Equal(t, "a.md", req.Sections[0])

	assert.NoError(t, req.Validate())
	err := PageRequest{}.Validate()
	assert.True(t, errors.IsCode(err, errors.CodeConfig))

	assert.NoError(t, PageRequest{FileName: "docs/page.html"}.Validate())
	for _, name := range []string{"../x.html", "docs/../../x.html", "/tmp/x.html"} {
		err := PageRequest{FileName: name}.Validate()
		assert.True(t, errors.IsCode(err, errors.CodeConfig), name)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs", "partials"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "partials", "nav.hbs"), []byte("<nav/>"), 0644))

	buildFile := filepath.Join(dir, "page.yaml")
	require.NoError(t, os.WriteFile(buildFile, []byte(`
root: docs
dest: public
pageTemplate: layout.hbs
compile: false
outlineDepth: 2
concurrency: 3
rewriteMarkdownLinks: true
data:
  title: My Project
sectionContents:
  footer: generated
partials:
  note: "<aside>{{this}}</aside>"
partialFiles:
  nav: partials/nav.hbs
page:
  fileName: index.html
  sections: [intro.md.hbs, usage.md, footer]
`), 0644))

	req, opts, err := LoadFile(buildFile)
	require.NoError(t, err)

	assert.Equal(t, "index.html", req.FileName)
	assert.Equal(t, []string{"intro.md.hbs", "usage.md", "footer"}, req.Sections)
	assert.Equal(t, filepath.Join(dir, "docs"), opts.Root)
	assert.Equal(t, filepath.Join(dir, "public"), opts.Dest)
	assert.Equal(t, "layout.hbs", opts.PageTemplatePath)
	require.NotNil(t, opts.Compile)
	assert.False(t, *opts.Compile)
	require.NotNil(t, opts.OutlineDepth)
	assert.Equal(t, 2, *opts.OutlineDepth)
	assert.Equal(t, 3, opts.Concurrency)
	assert.True(t, opts.RewriteMarkdownLinks)
	assert.Equal(t, "My Project", opts.Data["title"])
	assert.Equal(t, "generated", opts.SectionContents["footer"])
	assert.Equal(t, "<aside>{{this}}</aside>", opts.Partials["note"])
	assert.Equal(t, "<nav/>", opts.Partials["nav"])
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.True(t, errors.IsCode(err, errors.CodeConfig))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("page: [unterminated"), 0644))
	_, _, err = LoadFile(bad)
	assert.True(t, errors.IsCode(err, errors.CodeConfig))

	missingPartial := filepath.Join(dir, "partial.yaml")
	require.NoError(t, os.WriteFile(missingPartial, []byte("partialFiles: {nav: nope.hbs}\n"), 0644))
	_, _, err = LoadFile(missingPartial)
	assert.True(t, errors.IsCode(err, errors.CodeConfig))
}

func TestLoadFileTOML(t *testing.T) {
	dir := t.TempDir()
	buildFile := filepath.Join(dir, "page.toml")
	require.NoError(t, os.WriteFile(buildFile, []byte(`
root = "docs"
pageTemplate = "layout.tmpl"
outlineDepth = 4
sanitize = true

[data]
title = "My Project"

[sectionContents]
footer = "generated"

[page]
fileName = "index.html"
sections = ["intro.md", "footer"]
`), 0644))

	req, opts, err := LoadFile(buildFile)
	require.NoError(t, err)

	assert.Equal(t, "index.html", req.FileName)
	assert.Equal(t, []string{"intro.md", "footer"}, req.Sections)
	assert.Equal(t, filepath.Join(dir, "docs"), opts.Root)
	assert.Equal(t, dir, opts.Dest)
	assert.Equal(t, "layout.tmpl", opts.PageTemplatePath)
	require.NotNil(t, opts.OutlineDepth)
	assert.Equal(t, 4, *opts.OutlineDepth)
	assert.Nil(t, opts.Compile)
	assert.True(t, opts.Sanitize)
	assert.Equal(t, "My Project", opts.Data["title"])
	assert.Equal(t, "generated", opts.SectionContents["footer"])

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("root = "), 0644))
	_, _, err = LoadFile(bad)
	assert.True(t, errors.IsCode(err, errors.CodeConfig))
}
