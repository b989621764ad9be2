package generator

import (
	"bufio"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/servicekit/go-service-template/errors"
)

// Exclusion names a path, relative to the template root, that is never copied
type Exclusion struct {
	Path string
	Dir  bool
}

// DefaultExclusions keeps VCS metadata, build output, scratch space, the
// generator itself, the module checksum file and local secrets out of
// generated projects.
var DefaultExclusions = []Exclusion{
	{Path: ".git", Dir: true},
	{Path: "bin", Dir: true},
	{Path: ".tmp", Dir: true},
	{Path: "internal/cli", Dir: true},
	{Path: "cmd/gsc", Dir: true},
	{Path: "go.sum"},
	{Path: ".env"},
}

// IgnoreFile lists extra template paths to exclude, one per line. A
// trailing slash marks a directory; blank lines and # comments are skipped.
const IgnoreFile = ".gscignore"

// LoadExclusions returns DefaultExclusions plus the entries of the
// template's IgnoreFile, which is itself excluded.
func LoadExclusions(source string) ([]Exclusion, error) {
	rules := append([]Exclusion{}, DefaultExclusions...)
	rules = append(rules, Exclusion{Path: IgnoreFile})

	f, err := os.Open(filepath.Join(source, IgnoreFile))
	if os.IsNotExist(err) {
		return rules, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", IgnoreFile)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		dir := strings.HasSuffix(line, "/")
		path := strings.Trim(filepath.ToSlash(filepath.Clean(line)), "/")
		if path == "" || path == "." || strings.HasPrefix(path, "../") {
			return nil, errors.Newf("%s: invalid entry %q", IgnoreFile, line)
		}
		rules = append(rules, Exclusion{Path: path, Dir: dir})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", IgnoreFile)
	}
	return rules, nil
}

// excluded reports whether rel (slash separated) matches a rule
func excluded(rel string, isDir bool, rules []Exclusion) bool {
	for _, rule := range rules {
		if rule.Dir {
			if rel == rule.Path || strings.HasPrefix(rel, rule.Path+"/") {
				return true
			}
			continue
		}
		if !isDir && rel == rule.Path {
			return true
		}
	}
	return false
}

// within reports whether path is dir or lies beneath it
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// holdsGuard reports whether dir is a strict ancestor of any guard
func holdsGuard(dir string, guards []string) bool {
	for _, g := range guards {
		if g != dir && within(g, dir) {
			return true
		}
	}
	return false
}

// CopyTree copies source into target, skipping excluded paths and any of
// the guard directories, which may lie inside source.
func CopyTree(source, target string, rules []Exclusion, guards ...string) error {
	source, err := filepath.Abs(source)
	if err != nil {
		return errors.Wrap(err, "failed to resolve template path")
	}
	absGuards := make([]string, 0, len(guards))
	for _, g := range guards {
		abs, err := filepath.Abs(g)
		if err != nil {
			return errors.Wrapf(err, "failed to resolve %s", g)
		}
		absGuards = append(absGuards, abs)
	}

	return filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", path)
		}

		for _, g := range absGuards {
			if within(path, g) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		rel, err := filepath.Rel(source, path)
		if err != nil {
			return errors.Wrapf(err, "failed to relativize %s", path)
		}
		if rel == "." {
			return nil
		}
		if excluded(filepath.ToSlash(rel), d.IsDir(), rules) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		dest := filepath.Join(target, rel)
		switch {
		case d.IsDir():
			if holdsGuard(path, absGuards) {
				// created by copyFile if anything beneath it is copied
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return errors.Wrapf(err, "failed to stat %s", path)
			}
			if err := os.MkdirAll(dest, info.Mode().Perm()|0700); err != nil {
				return errors.Wrapf(err, "failed to create directory %s", dest)
			}
			return nil
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return errors.Wrapf(err, "failed to read link %s", path)
			}
			if err := os.Symlink(link, dest); err != nil {
				return errors.Wrapf(err, "failed to create link %s", dest)
			}
			return nil
		default:
			return copyFile(path, dest)
		}
	})
}

func copyFile(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return errors.Wrapf(err, "failed to stat %s", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", src)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", dest)
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", dest)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "failed to copy %s -> %s", src, dest)
	}
	return errors.Wrapf(out.Close(), "failed to close %s", dest)
}
