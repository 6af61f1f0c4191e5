// Package outline builds a nested table of contents from compiled HTML.
package outline

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Node is one heading in the outline.
type Node struct {
	Text     string  `json:"text" yaml:"text"`
	Level    int     `json:"level" yaml:"level"`
	Children []*Node `json:"children" yaml:"children"`
}

// Extract scans doc for <h1>..<hN> elements with N <= maxDepth and nests
// them by level. Deeper headings are dropped without affecting the nesting
// of the headings around them. A heading that skips levels nests under the
// nearest shallower open heading.
func Extract(doc string, maxDepth int) []*Node {
	forest := []*Node{}
	var stack []*Node

	add := func(text string, level int) {
		for len(stack) > 0 && stack[len(stack)-1].Level >= level {
			stack = stack[:len(stack)-1]
		}
		n := &Node{Text: text, Level: level, Children: []*Node{}}
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			top.Children = append(top.Children, n)
		} else {
			forest = append(forest, n)
		}
		stack = append(stack, n)
	}

	var (
		open  int // level of the heading being read, 0 when none
		title strings.Builder
	)
	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF; a strings.Reader has no other failure mode.
			return forest
		case html.StartTagToken:
			name, _ := z.TagName()
			level, ok := headingLevel(name)
			if !ok {
				continue
			}
			// A new heading before the previous one closed: drop the
			// unterminated one.
			open = 0
			title.Reset()
			if level <= maxDepth {
				open = level
			}
		case html.TextToken:
			if open > 0 {
				title.Write(z.Text())
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			level, ok := headingLevel(name)
			if !ok || open == 0 || level != open {
				continue
			}
			add(strings.TrimSpace(title.String()), open)
			open = 0
			title.Reset()
		}
	}
}

// headingLevel parses "h1".."h6". Anything else is not a heading.
func headingLevel(tag []byte) (int, bool) {
	if len(tag) != 2 || tag[0] != 'h' {
		return 0, false
	}
	level, err := strconv.Atoi(string(tag[1:]))
	if err != nil || level < 1 || level > 6 {
		return 0, false
	}
	return level, true
}
