// Package markup compiles Markdown fragments into HTML.
//
// Headings are rendered with a stable anchor so that outlines and external
// readers can deep-link into a page:
//
//	<h2 id="getting-started"><a href="#getting-started">Getting started</a></h2>
package markup

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Compiler converts Markdown to HTML. It is safe for concurrent use.
type Compiler struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// Option configures a Compiler.
type Option func(*compilerConfig)

type compilerConfig struct {
	rewriteLinks bool
	sanitize     bool
}

// WithLinkRewrite rewrites relative links to .md files so they point at the
// corresponding .html page.
func WithLinkRewrite() Option {
	return func(c *compilerConfig) { c.rewriteLinks = true }
}

// WithSanitizer runs compiled output through a user-generated-content policy.
func WithSanitizer() Option {
	return func(c *compilerConfig) { c.sanitize = true }
}

// NewCompiler builds a Compiler.
func NewCompiler(opts ...Option) *Compiler {
	var cfg compilerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	parserOpts := []parser.Option{}
	if cfg.rewriteLinks {
		parserOpts = append(parserOpts, parser.WithASTTransformers(
			util.Prioritized(newLinkTransformer(), 100),
		))
	}

	c := &Compiler{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithParserOptions(parserOpts...),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
				renderer.WithNodeRenderers(
					util.Prioritized(&headingRenderer{}, 100),
				),
			),
		),
	}
	if cfg.sanitize {
		c.sanitizer = bluemonday.UGCPolicy()
	}
	return c
}

// Compile renders src to HTML.
func (c *Compiler) Compile(src string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	if c.sanitizer != nil {
		return string(c.sanitizer.SanitizeBytes(buf.Bytes())), nil
	}
	return buf.String(), nil
}
