package templating

import (
	"fmt"

	"github.com/aymerick/raymond"
)

// Handlebars expands templates with raymond.
type Handlebars struct{}

func (Handlebars) Name() string { return "handlebars" }

func (Handlebars) Expand(name, src string, data Data, helpers map[string]any, partials map[string]string) (out string, err error) {
	tpl, err := raymond.Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", name, err)
	}

	// raymond panics on invalid helper or partial registrations.
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("register helpers for %s: %v", name, r)
		}
	}()
	if len(helpers) > 0 {
		tpl.RegisterHelpers(helpers)
	}
	if len(partials) > 0 {
		tpl.RegisterPartials(partials)
	}

	out, err = tpl.Exec(map[string]any(data))
	if err != nil {
		return "", fmt.Errorf("execute %s: %w", name, err)
	}
	return out, nil
}
