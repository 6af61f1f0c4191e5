// Package section turns section refs into built page fragments.
//
// A ref is either a key into the in-memory override map or a path relative
// to the build root. Its file-name extensions decide which stages run:
//
//	intro.md       resolve, compile
//	footer.hbs     resolve, template
//	usage.md.hbs   resolve, template, compile
//	notes          resolve
package section

import (
	"path/filepath"
	"strings"

	"pagekit/internal/templating"
)

// Kind is the classification of a ref, computed once from its name.
type Kind struct {
	Template bool
	Engine   string // template marker, set when Template is true
	Markup   bool
}

// Classify inspects every dot-separated extension of the ref's base name.
// When several template markers are present the first one wins.
func Classify(ref string) Kind {
	var k Kind
	parts := strings.Split(filepath.Base(ref), ".")
	for _, ext := range parts[1:] {
		switch ext = strings.ToLower(ext); ext {
		case templating.MarkerHandlebars, templating.MarkerGo:
			if !k.Template {
				k.Template = true
				k.Engine = ext
			}
		case "md", "markdown":
			k.Markup = true
		}
	}
	return k
}
