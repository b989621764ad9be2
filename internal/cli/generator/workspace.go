package generator

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/servicekit/go-service-template/errors"
)

// Workspace is the staged project tree that plan steps edit in place
type Workspace struct {
	Root   string
	logger *zap.SugaredLogger

	touched map[string]bool
	gofmt   map[string]bool
}

func newWorkspace(root string, logger *zap.SugaredLogger) *Workspace {
	return &Workspace{
		Root:    root,
		logger:  logger,
		touched: make(map[string]bool),
		gofmt:   make(map[string]bool),
	}
}

func (w *Workspace) path(rel string) string {
	return filepath.Join(w.Root, filepath.FromSlash(rel))
}

// Exists reports whether rel exists in the workspace
func (w *Workspace) Exists(rel string) bool {
	_, err := os.Lstat(w.path(rel))
	return err == nil
}

// Edit applies transforms to rel in order and rewrites it, keeping its
// file mode. A missing file is an error.
func (w *Workspace) Edit(rel string, transforms ...Transform) error {
	path := w.path(rel)
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", rel)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", rel)
	}

	text := string(raw)
	for _, t := range transforms {
		if text, err = t.Apply(text); err != nil {
			return errors.Wrapf(err, "failed to edit %s", rel)
		}
	}
	if text == string(raw) {
		return nil
	}

	if err := os.WriteFile(path, []byte(text), info.Mode().Perm()); err != nil {
		return errors.Wrapf(err, "failed to write %s", rel)
	}
	w.touched[rel] = true
	w.logger.Debugw("Edited file", "file", rel, "transforms", len(transforms))
	return nil
}

// EditIfExists is Edit for files a template may omit
func (w *Workspace) EditIfExists(rel string, transforms ...Transform) error {
	if !w.Exists(rel) {
		w.logger.Debugw("Skipping missing file", "file", rel)
		return nil
	}
	return w.Edit(rel, transforms...)
}

// EditGo is Edit for Go files whose structure changes; the result is
// gofmt'd when the plan finishes.
func (w *Workspace) EditGo(rel string, transforms ...Transform) error {
	if err := w.Edit(rel, transforms...); err != nil {
		return err
	}
	w.gofmt[rel] = true
	return nil
}

// Remove deletes a file or directory tree. Missing paths are ignored.
func (w *Workspace) Remove(rel string) error {
	if err := os.RemoveAll(w.path(rel)); err != nil {
		return errors.Wrapf(err, "failed to remove %s", rel)
	}
	delete(w.touched, rel)
	delete(w.gofmt, rel)
	w.logger.Debugw("Removed path", "file", rel)
	return nil
}

// TextFiles lists regular UTF-8 files, slash separated and sorted
func (w *Workspace) TextFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(w.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if !utf8.Valid(raw) || bytes.IndexByte(raw, 0) >= 0 {
			return nil
		}
		rel, err := filepath.Rel(w.Root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan workspace")
	}
	sort.Strings(files)
	return files, nil
}

// Touched lists files changed by Edit, sorted
func (w *Workspace) Touched() []string {
	files := make([]string, 0, len(w.touched))
	for f := range w.touched {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// finish gofmts structurally edited Go files and validates every touched file
func (w *Workspace) finish() error {
	for rel := range w.gofmt {
		path := w.path(rel)
		raw, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", rel)
		}
		formatted, err := Format(rel, raw)
		if err != nil {
			return err
		}
		if !bytes.Equal(raw, formatted) {
			if err := os.WriteFile(path, formatted, 0644); err != nil {
				return errors.Wrapf(err, "failed to write %s", rel)
			}
		}
	}

	for _, rel := range w.Touched() {
		raw, err := os.ReadFile(w.path(rel))
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", rel)
		}
		if err := Validate(rel, raw); err != nil {
			return errors.WithHint(err, "the template may have drifted from the generator's markers")
		}
	}
	return nil
}

// grep returns the files containing any marker
func (w *Workspace) grep(markers ...string) ([]string, error) {
	files, err := w.TextFiles()
	if err != nil {
		return nil, err
	}
	var hits []string
	for _, rel := range files {
		raw, err := os.ReadFile(w.path(rel))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", rel)
		}
		if containsAny(string(raw), markers) {
			hits = append(hits, rel)
		}
	}
	return hits, nil
}
