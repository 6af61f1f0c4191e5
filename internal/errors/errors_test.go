package errors_test

import (
	stderrors "errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagekit/internal/errors"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *errors.BuildError
		want string
	}{
		{
			name: "bare",
			err:  errors.New(errors.CodeConfig, "page template path is required"),
			want: "[CONFIG] page template path is required",
		},
		{
			name: "page and section",
			err: errors.New(errors.CodeNotFound, "section not found").
				WithPage("index.html").WithSection("intro.md").WithStage("resolve"),
			want: `[NOT_FOUND] page "index.html": section "intro.md" (resolve): section not found`,
		},
		{
			name: "page stage only",
			err:  errors.New(errors.CodeTemplate, "bad layout").WithPage("a.html").WithStage("render"),
			want: `[TEMPLATE] page "a.html": (render): bad layout`,
		},
		{
			name: "wrapped",
			err:  errors.Wrap(fs.ErrPermission, errors.CodeIO, "read failed"),
			want: "[IO] read failed: permission denied",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.CodeIO, "x"))
	assert.Nil(t, errors.Wrapf(nil, errors.CodeIO, "x %d", 1))
}

func TestIsAndCode(t *testing.T) {
	err := errors.Wrap(fs.ErrNotExist, errors.CodeNotFound, "missing")

	assert.True(t, stderrors.Is(err, fs.ErrNotExist))
	assert.True(t, stderrors.Is(err, errors.New(errors.CodeNotFound, "other message")))
	assert.False(t, stderrors.Is(err, errors.New(errors.CodeIO, "missing")))
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
}

func TestEnrich(t *testing.T) {
	t.Run("keeps existing context", func(t *testing.T) {
		orig := errors.New(errors.CodeCompile, "boom").WithSection("a.md").WithStage("compile")
		got := errors.Enrich(orig, "index.html", "sections", errors.CodeUnknown)
		require.Same(t, orig, got)
		assert.Equal(t, "index.html", got.Page)
		assert.Equal(t, "compile", got.Stage)
	})

	t.Run("wraps foreign errors", func(t *testing.T) {
		got := errors.Enrich(stderrors.New("disk full"), "index.html", "write", errors.CodeIO)
		assert.Equal(t, errors.CodeIO, got.Code)
		assert.Equal(t, "write", got.Stage)
		assert.Contains(t, got.Error(), "disk full")
	})

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, errors.Enrich(nil, "p", "s", errors.CodeIO))
	})
}

func TestWithDetail(t *testing.T) {
	err := (&errors.BuildError{Code: errors.CodeIO}).WithDetail("path", "/tmp/x")
	assert.Equal(t, "/tmp/x", err.Details["path"])
}
