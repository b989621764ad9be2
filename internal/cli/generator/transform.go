package generator

import (
	"strings"

	"github.com/servicekit/go-service-template/errors"
)

// Transform rewrites the full text of one file
type Transform interface {
	Apply(text string) (string, error)
}

// TransformFunc adapts a function to Transform
type TransformFunc func(text string) (string, error)

// Apply calls f
func (f TransformFunc) Apply(text string) (string, error) {
	return f(text)
}

// splitLines splits on "\n". A trailing newline yields a final empty
// element, so joinLines restores it.
func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// LineFilter drops every line containing any of the markers. Matching is
// plain substring, so comments and string literals match too.
type LineFilter struct {
	Markers []string
}

// Apply implements Transform
func (f LineFilter) Apply(text string) (string, error) {
	lines := splitLines(text)
	out := lines[:0:0]
	for _, line := range lines {
		if containsAny(line, f.Markers) {
			continue
		}
		out = append(out, line)
	}
	return joinLines(out), nil
}

// BlockSkip removes a brace-delimited region: everything from the line
// containing Start up to, but not including, the line containing
// Terminator. At least MinBlocks top-level blocks must close inside the
// region, otherwise the markers have drifted and the edit is refused.
//
// Outside the region, a line containing Field is dropped along with the
// Annotation line directly above it and a blank separator above that.
type BlockSkip struct {
	Start      string
	Terminator string
	MinBlocks  int
	Field      string
	Annotation string
}

type scanState int

const (
	scanning scanState = iota
	skipping
)

// Apply implements Transform
func (b BlockSkip) Apply(text string) (string, error) {
	var (
		out    []string
		state  = scanning
		depth  int
		blocks int
		found  bool
	)

	for _, line := range splitLines(text) {
		switch state {
		case scanning:
			if b.Field != "" && strings.Contains(line, b.Field) {
				out = b.dropAnnotation(out)
				continue
			}
			if strings.Contains(line, b.Start) {
				state, depth, blocks, found = skipping, 0, 0, true
				continue
			}
			out = append(out, line)

		case skipping:
			if strings.Contains(line, b.Terminator) {
				if blocks < b.MinBlocks {
					return "", errors.Newf("block at %q closed %d blocks before %q, expected at least %d",
						b.Start, blocks, b.Terminator, b.MinBlocks)
				}
				if depth != 0 {
					return "", errors.Newf("block at %q is unbalanced at %q (depth %d)", b.Start, b.Terminator, depth)
				}
				state = scanning
				out = append(out, line)
				continue
			}
			depth += braceDelta(line)
			if depth == 0 && strings.TrimSpace(line) == "}" {
				blocks++
			}
		}
	}

	if !found {
		return "", errors.Newf("block start %q not found", b.Start)
	}
	if state == skipping {
		return "", errors.Newf("terminator %q not found after %q", b.Terminator, b.Start)
	}
	return joinLines(out), nil
}

func (b BlockSkip) dropAnnotation(out []string) []string {
	if b.Annotation == "" || len(out) == 0 {
		return out
	}
	if strings.TrimSpace(out[len(out)-1]) != b.Annotation {
		return out
	}
	out = out[:len(out)-1]
	if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) == "" {
		out = out[:len(out)-1]
	}
	return out
}

func braceDelta(line string) int {
	return strings.Count(line, "{") - strings.Count(line, "}")
}

// ExactLineReplace replaces every line equal to Old, indentation included,
// with New. A template without the line is an error.
type ExactLineReplace struct {
	Old string
	New string
}

// Apply implements Transform
func (r ExactLineReplace) Apply(text string) (string, error) {
	lines := splitLines(text)
	replaced := 0
	for i, line := range lines {
		if line == r.Old {
			lines[i] = r.New
			replaced++
		}
	}
	if replaced == 0 {
		return "", errors.Newf("line not found: %q", strings.TrimSpace(r.Old))
	}
	return joinLines(lines), nil
}

// SpanSkip drops the line containing Start and every following line up to
// the first one containing End, which is kept.
type SpanSkip struct {
	Start string
	End   string
}

// Apply implements Transform
func (s SpanSkip) Apply(text string) (string, error) {
	var (
		out      []string
		skipping bool
		found    bool
	)
	for _, line := range splitLines(text) {
		if !found && strings.Contains(line, s.Start) {
			skipping, found = true, true
			continue
		}
		if skipping && strings.Contains(line, s.End) {
			skipping = false
		}
		if skipping {
			continue
		}
		out = append(out, line)
	}

	if !found {
		return "", errors.Newf("span start %q not found", s.Start)
	}
	if skipping {
		return "", errors.Newf("span end %q not found after %q", s.End, s.Start)
	}
	return joinLines(out), nil
}

// LiteralRemove deletes the first occurrence of Literal, if present
type LiteralRemove struct {
	Literal string
}

// Apply implements Transform
func (r LiteralRemove) Apply(text string) (string, error) {
	return strings.Replace(text, r.Literal, "", 1), nil
}

// ReplaceFirst replaces the first occurrence of Old with New
type ReplaceFirst struct {
	Old string
	New string
}

// Apply implements Transform
func (r ReplaceFirst) Apply(text string) (string, error) {
	if !strings.Contains(text, r.Old) {
		return "", errors.Newf("%q not found", r.Old)
	}
	return strings.Replace(text, r.Old, r.New, 1), nil
}

// ReplaceAll replaces every occurrence of Old with New
type ReplaceAll struct {
	Old string
	New string
}

// Apply implements Transform
func (r ReplaceAll) Apply(text string) (string, error) {
	return strings.ReplaceAll(text, r.Old, r.New), nil
}

// TOMLSectionRemove drops the [Table] section and its [Table.*] subtables,
// up to the next unrelated table header.
type TOMLSectionRemove struct {
	Table string
}

// Apply implements Transform
func (r TOMLSectionRemove) Apply(text string) (string, error) {
	var (
		out      []string
		skipping bool
		found    bool
	)
	for _, line := range splitLines(text) {
		if name, ok := tomlHeader(line); ok {
			skipping = name == r.Table || strings.HasPrefix(name, r.Table+".")
			found = found || skipping
		}
		if skipping {
			continue
		}
		out = append(out, line)
	}
	if !found {
		return "", errors.Newf("table [%s] not found", r.Table)
	}
	return joinLines(out), nil
}

// tomlHeader returns the table name of a [table] or [[array]] header line
func tomlHeader(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "[") {
		return "", false
	}
	if i := strings.Index(trimmed, "#"); i >= 0 {
		trimmed = strings.TrimSpace(trimmed[:i])
	}
	trimmed = strings.TrimSuffix(strings.TrimPrefix(trimmed, "[["), "]]")
	trimmed = strings.TrimSuffix(strings.TrimPrefix(trimmed, "["), "]")
	return strings.TrimSpace(trimmed), true
}

// YAMLServiceRemove drops the named entries of a compose file's top-level
// services mapping. An entry spans its key line and every following line
// indented deeper than the key, blank lines included.
type YAMLServiceRemove struct {
	Services []string
}

// Apply implements Transform
func (r YAMLServiceRemove) Apply(text string) (string, error) {
	var (
		out     []string
		section string
		inBlock bool
		indent  int
		entries int // indent of the services mapping keys
		removed = make(map[string]bool, len(r.Services))
	)

	lines := splitLines(text)
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		current := len(line) - len(strings.TrimLeft(line, " "))

		if inBlock {
			if i == len(lines)-1 && line == "" {
				out = append(out, line)
				break
			}
			if trimmed == "" || current > indent {
				continue
			}
			inBlock = false
		}

		if current == 0 && trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			section = strings.TrimSuffix(trimmed, ":")
			entries = 0
		}

		if section == "services" && current > 0 && trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			if entries == 0 {
				entries = current
			}
		}

		if section == "services" && current > 0 && current == entries {
			for _, name := range r.Services {
				if trimmed == name+":" {
					inBlock, indent = true, current
					removed[name] = true
					break
				}
			}
			if inBlock {
				continue
			}
		}
		out = append(out, line)
	}

	for _, name := range r.Services {
		if !removed[name] {
			return "", errors.Newf("service %q not found", name)
		}
	}
	return joinLines(out), nil
}

func containsAny(line string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(line, m) {
			return true
		}
	}
	return false
}
