package section

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"pagekit/internal/errors"
)

// Resolver returns the raw contents of a section.
type Resolver struct {
	root      string
	overrides map[string]string
}

// NewResolver reads files under root, an absolute path. Entries in
// overrides take precedence over files of the same name.
func NewResolver(root string, overrides map[string]string) *Resolver {
	return &Resolver{root: root, overrides: overrides}
}

// Resolve returns the override for ref if there is one, and otherwise the
// UTF-8 contents of root/ref. Refs that would leave root are rejected.
func (r *Resolver) Resolve(ref string) (string, error) {
	if content, ok := r.overrides[ref]; ok {
		return content, nil
	}

	if !filepath.IsLocal(filepath.FromSlash(ref)) {
		return "", errors.New(errors.CodeConfig, "section ref must be relative to the root").
			WithSection(ref).WithStage(StageResolve)
	}
	path := filepath.Join(r.root, ref)
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return "", errors.Wrap(err, errors.CodeNotFound, "section not found").
				WithSection(ref).WithStage(StageResolve).WithDetail("path", path)
		}
		return "", errors.Wrap(err, errors.CodeIO, "failed to read section").
			WithSection(ref).WithStage(StageResolve).WithDetail("path", path)
	}
	if !utf8.Valid(data) {
		return "", errors.New(errors.CodeIO, "section is not valid UTF-8").
			WithSection(ref).WithStage(StageResolve).WithDetail("path", path)
	}
	return string(data), nil
}
