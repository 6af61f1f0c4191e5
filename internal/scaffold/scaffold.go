// Package scaffold creates starter page projects and new sections.
package scaffold

import (
	"bytes"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"pagekit/internal/config"
	"pagekit/internal/errors"
	"pagekit/internal/markup"
)

// ConfigFile is the build file name written by CreateNewPage.
const ConfigFile = "page.yaml"

const (
	sectionsDir   = "sections"
	archetypePath = "archetypes/section.md"
)

// CreateNewPage writes a starter project into dir and returns the files it
// created, relative to dir. Existing files are never overwritten.
func CreateNewPage(dir string) ([]string, error) {
	files := []struct{ path, content string }{
		{ConfigFile, pageYamlContent},
		{"layout.hbs", layoutContent},
		{"sections/intro.md", introContent},
		{"sections/features.md.hbs", featuresContent},
		{"partials/footer.hbs", footerContent},
		{archetypePath, archetypeContent},
	}

	var created []string
	for _, f := range files {
		path := filepath.Join(dir, filepath.FromSlash(f.path))
		if _, err := os.Stat(path); err == nil {
			return created, errors.New(errors.CodeIO, "refusing to overwrite existing file").WithDetail("path", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return created, errors.Wrapf(err, errors.CodeIO, "failed to create directory for %s", f.path)
		}
		if err := os.WriteFile(path, []byte(f.content), 0644); err != nil {
			return created, errors.Wrapf(err, errors.CodeIO, "failed to write file %s", f.path)
		}
		created = append(created, f.path)
	}
	return created, nil
}

// CreateNewSection renders the section archetype for title into the
// sections directory under the build file's root and appends the new
// reference to the file's page.sections list. It returns the new
// section's reference.
func CreateNewSection(configPath, title string) (string, error) {
	_, opts, err := config.LoadFile(configPath)
	if err != nil {
		return "", err
	}

	ref := filepath.ToSlash(filepath.Join(sectionsDir, markup.Slugify(title)+".md"))
	path := filepath.Join(opts.Root, filepath.FromSlash(ref))
	if _, err := os.Stat(path); err == nil {
		return "", errors.New(errors.CodeIO, "section already exists").WithDetail("path", path)
	}

	src, err := os.ReadFile(filepath.Join(opts.Root, archetypePath))
	if stderrors.Is(err, fs.ErrNotExist) {
		src = []byte(archetypeContent)
	} else if err != nil {
		return "", errors.Wrap(err, errors.CodeIO, "could not read archetype").WithDetail("path", archetypePath)
	}

	tmpl, err := template.New("archetype").Parse(string(src))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeTemplate, "failed to parse archetype")
	}
	data := struct {
		Title string
		Date  string
	}{
		Title: title,
		Date:  time.Now().Format("2006-01-02"),
	}
	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return "", errors.Wrap(err, errors.CodeTemplate, "failed to execute archetype")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", errors.Wrap(err, errors.CodeIO, "failed to create sections directory")
	}
	if err := os.WriteFile(path, out.Bytes(), 0644); err != nil {
		return "", errors.Wrap(err, errors.CodeIO, "failed to write section").WithDetail("path", path)
	}
	if err := appendSection(configPath, ref); err != nil {
		return "", err
	}
	return ref, nil
}

func appendSection(configPath, ref string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, errors.CodeConfig, "could not read build file")
	}
	if config.IsTOML(configPath) {
		data, err = appendTOML(data, ref)
	} else {
		data, err = appendYAML(data, ref)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, errors.CodeIO, "could not write build file")
	}
	return nil
}

// appendTOML round-trips through a map; comments are not kept.
func appendTOML(data []byte, ref string) ([]byte, error) {
	doc := map[string]any{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfig, "could not parse build file")
	}
	page, _ := doc["page"].(map[string]any)
	if page == nil {
		page = map[string]any{}
		doc["page"] = page
	}
	sections, _ := page["sections"].([]any)
	page["sections"] = append(sections, ref)

	out, err := toml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfig, "could not encode build file")
	}
	return out, nil
}

// appendYAML edits the node tree so comments and key order survive.
func appendYAML(data []byte, ref string) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfig, "could not parse build file")
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New(errors.CodeConfig, "build file is not a mapping")
	}

	page := mappingValue(doc.Content[0], "page", yaml.MappingNode)
	sections := mappingValue(page, "sections", yaml.SequenceNode)
	sections.Content = append(sections.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ref})

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfig, "could not encode build file")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfig, "could not encode build file")
	}
	return buf.Bytes(), nil
}

// mappingValue returns the value for key in m, adding an empty node of
// kind when the key is missing or null.
func mappingValue(m *yaml.Node, key string, kind yaml.Kind) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			v := m.Content[i+1]
			if v.Kind != kind {
				*v = yaml.Node{Kind: kind}
			}
			return v
		}
	}
	v := &yaml.Node{Kind: kind}
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, v)
	return v
}

const pageYamlContent = `# Build file for pagekit. Paths are relative to this file.
root: .
dest: public
pageTemplate: layout.hbs
outlineDepth: 3
rewriteMarkdownLinks: true

data:
  title: My Page
  product: pagekit

partialFiles:
  footer: partials/footer.hbs

page:
  fileName: index.html
  sections:
    - sections/intro.md
    - sections/features.md.hbs
`

const layoutContent = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{title}}</title>
</head>
<body>
  <nav>
    <ul>
    {{#each outline}}
      <li>{{Text}}</li>
    {{/each}}
    </ul>
  </nav>
  <main>
  {{#each sections}}
    {{{this}}}
  {{/each}}
  </main>
  {{> footer}}
</body>
</html>
`

const introContent = `# Introduction

This page was assembled from Markdown sections. See the [features](features.md) below.
`

const featuresContent = `## Features of {{product}}

- Sections written in Markdown
- Templated with Handlebars or Go templates
- An outline built from the headings
`

const footerContent = `<footer>Built with {{product}}</footer>
`

const archetypeContent = `## {{.Title}}

Written {{.Date}}.
`
