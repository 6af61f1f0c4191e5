package markup

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

var nonWord = regexp.MustCompile(`[^\w]+`)

// Slugify lowercases s and collapses every run of non-word characters into a
// single "-". Identical headings produce identical slugs; callers that need
// unique anchors must de-duplicate themselves.
func Slugify(s string) string {
	return nonWord.ReplaceAllString(strings.ToLower(s), "-")
}

// headingRenderer replaces goldmark's heading output with an anchored form.
type headingRenderer struct{}

func (r *headingRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindHeading, r.renderHeading)
}

func (r *headingRenderer) renderHeading(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Heading)
	if entering {
		slug := Slugify(headingText(n, source))
		fmt.Fprintf(w, `<h%d id="%s"><a href="#%s">`, n.Level, slug, slug)
		return ast.WalkContinue, nil
	}
	fmt.Fprintf(w, "</a></h%d>\n", n.Level)
	return ast.WalkContinue, nil
}

// headingText returns the plain text of a heading, including text nested in
// emphasis, links and code spans.
func headingText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
