package templating

import (
	"bytes"
	"fmt"
	"text/template"
)

// GoTemplate expands templates with text/template. Partials are added to the
// template set under their name and are invoked with {{template "name" .}}.
type GoTemplate struct{}

func (GoTemplate) Name() string { return "gotemplate" }

func (GoTemplate) Expand(name, src string, data Data, helpers map[string]any, partials map[string]string) (out string, err error) {
	// Funcs panics when a helper is not a function.
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("register helpers for %s: %v", name, r)
		}
	}()

	tmpl := template.New(name).Funcs(template.FuncMap(helpers))
	for pname, psrc := range partials {
		if _, err := tmpl.New(pname).Parse(psrc); err != nil {
			return "", fmt.Errorf("parse partial %s: %w", pname, err)
		}
	}
	if _, err := tmpl.Parse(src); err != nil {
		return "", fmt.Errorf("parse %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any(data)); err != nil {
		return "", fmt.Errorf("execute %s: %w", name, err)
	}
	return buf.String(), nil
}
