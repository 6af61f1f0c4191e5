// Package templating is the boundary to the template engines used for
// section fragments and page templates. It supplies data, helpers and
// partials; template semantics belong to the engines themselves.
package templating

import (
	"fmt"
	"maps"
	"path/filepath"
	"strings"
)

// Data is the page data context. It is treated as immutable: With returns
// an updated copy and leaves the receiver untouched.
type Data map[string]any

// NewData copies src into a fresh Data.
func NewData(src map[string]any) Data {
	d := make(Data, len(src)+2)
	maps.Copy(d, src)
	return d
}

// With returns a copy of d with key set to value.
func (d Data) With(key string, value any) Data {
	out := make(Data, len(d)+1)
	maps.Copy(out, d)
	out[key] = value
	return out
}

// Engine expands a template source against data.
type Engine interface {
	// Name identifies the engine in logs and errors.
	Name() string
	// Expand parses src and executes it. name is used for diagnostics only.
	Expand(name, src string, data Data, helpers map[string]any, partials map[string]string) (string, error)
}

// Engine markers, as found in file names.
const (
	MarkerHandlebars = "hbs"
	MarkerGo         = "tmpl"
)

var engines = map[string]Engine{
	MarkerHandlebars: Handlebars{},
	MarkerGo:         GoTemplate{},
}

// ForMarker returns the engine registered for a file-name marker.
func ForMarker(marker string) (Engine, error) {
	e, ok := engines[marker]
	if !ok {
		return nil, fmt.Errorf("no template engine for marker %q", marker)
	}
	return e, nil
}

// ForPath picks the engine for a page template path: Handlebars for .hbs,
// Go templates for everything else.
func ForPath(path string) Engine {
	if strings.EqualFold(filepath.Ext(path), "."+MarkerHandlebars) {
		return Handlebars{}
	}
	return GoTemplate{}
}
