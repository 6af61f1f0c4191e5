package templating

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataWithCopies(t *testing.T) {
	base := NewData(map[string]any{"title": "T"})
	next := base.With("sections", []string{"a"})

	assert.NotContains(t, base, "sections")
	assert.Equal(t, "T", next["title"])
	assert.Equal(t, []string{"a"}, next["sections"])
}

func TestNewDataDoesNotAliasSource(t *testing.T) {
	src := map[string]any{"a": 1}
	d := NewData(src)
	d["a"] = 2
	assert.Equal(t, 1, src["a"])
}

func TestHandlebarsExpand(t *testing.T) {
	helpers := map[string]any{
		"upper": func(s string) string { return strings.ToUpper(s) },
	}
	partials := map[string]string{
		"note": "<aside>{{title}}</aside>",
	}
	data := NewData(map[string]any{"title": "Title", "items": []string{"a", "b"}})

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"variable", "{{title}}", "Title"},
		{"heading markup", "# {{title}}", "# Title"},
		{"helper", "{{upper title}}", "TITLE"},
		{"partial", "{{> note}}", "<aside>Title</aside>"},
		{"each", "{{#each items}}[{{this}}]{{/each}}", "[a][b]"},
		{"missing variable", "{{nothing}}", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Handlebars{}.Expand(tt.name, tt.src, data, helpers, partials)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestHandlebarsErrors(t *testing.T) {
	_, err := Handlebars{}.Expand("broken", "{{#each items}}x", Data{}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	_, err = Handlebars{}.Expand("helper", "{{title}}", Data{}, map[string]any{"bad": 42}, nil)
	require.Error(t, err)
}

func TestGoTemplateExpand(t *testing.T) {
	helpers := map[string]any{
		"upper": strings.ToUpper,
	}
	partials := map[string]string{
		"note": "<aside>{{.title}}</aside>",
	}
	data := NewData(map[string]any{"title": "Title", "items": []string{"a", "b"}})

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"variable", "{{.title}}", "Title"},
		{"helper", "{{upper .title}}", "TITLE"},
		{"partial", `{{template "note" .}}`, "<aside>Title</aside>"},
		{"range", "{{range .items}}[{{.}}]{{end}}", "[a][b]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := GoTemplate{}.Expand(tt.name, tt.src, data, helpers, partials)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestGoTemplateErrors(t *testing.T) {
	_, err := GoTemplate{}.Expand("broken", "{{.title", Data{}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	_, err = GoTemplate{}.Expand("helper", "x", Data{}, map[string]any{"bad": 42}, nil)
	require.Error(t, err)

	_, err = GoTemplate{}.Expand("missing", "{{nope}}", Data{}, nil, nil)
	require.Error(t, err)
}

func TestEngineSelection(t *testing.T) {
	e, err := ForMarker("hbs")
	require.NoError(t, err)
	assert.Equal(t, "handlebars", e.Name())

	e, err = ForMarker("tmpl")
	require.NoError(t, err)
	assert.Equal(t, "gotemplate", e.Name())

	_, err = ForMarker("ejs")
	assert.Error(t, err)

	assert.Equal(t, "handlebars", ForPath("/x/layout.HBS").Name())
	assert.Equal(t, "gotemplate", ForPath("/x/layout.html").Name())
}
