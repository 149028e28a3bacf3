// Package pattern compiles a single attributes-file glob line into a
// matcher, following the shell-glob dialect described in spec.md §4.1:
// leading "!" negation, trailing "/" for directory-only, and the
// "unescaped slash anywhere but the end anchors" rule.
package pattern

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Flag is a bitmask of the properties recorded on a compiled Pattern.
type Flag uint8

const (
	Negate Flag = 1 << iota
	DirectoryOnly
	Anchored
	HasWildcard
	IsMacroDef
)

// Pattern is one compiled glob line plus the directory context it was
// parsed in, needed because an anchored pattern like "/foo" is relative to
// the directory containing the attribute file that defined it.
type Pattern struct {
	Text    string // the glob text after negation/dir-only trimming
	Flags   Flag
	SrcDir  string // directory containing the attribute file (anchors here)
	globPat string // doublestar-ready pattern, precomputed at Compile time
}

func (p Pattern) Is(f Flag) bool { return p.Flags&f != 0 }

// Compile parses one raw line from an attribute file into a Pattern. The
// second return value is false when the line is blank or a comment and no
// Pattern should be produced (spec.md §4.1 step 1).
func Compile(line, srcDir string) (Pattern, bool) {
	line = strings.TrimLeft(trimTrailingUnescapedWhitespace(line), " \t")
	if line == "" || strings.HasPrefix(line, "#") {
		return Pattern{}, false
	}

	var flags Flag

	if strings.HasPrefix(line, "!") {
		flags |= Negate
		line = line[1:]
	}

	if hasTrailingUnescapedSlash(line) {
		flags |= DirectoryOnly
		line = line[:len(line)-1]
	}

	if line == "" {
		return Pattern{}, false
	}

	if containsUnescapedSlashExceptEnd(line) {
		flags |= Anchored
		// A leading "/" only marks the anchor; Text and the glob are
		// relative to SrcDir without it.
		line = strings.TrimPrefix(line, "/")
	}

	if strings.ContainsAny(line, "*?[") {
		flags |= HasWildcard
	}

	p := Pattern{
		Text:   line,
		Flags:  flags,
		SrcDir: srcDir,
	}
	p.globPat = p.buildGlobPattern()
	return p, true
}

// buildGlobPattern turns the stored text into the doublestar pattern
// actually matched against: anchored patterns match relative to SrcDir
// (the caller always passes a path already made relative to SrcDir, so no
// prefix is needed here); basename-style patterns are expanded to match
// the last path component at any depth.
func (p Pattern) buildGlobPattern() string {
	if p.Is(Anchored) {
		return p.Text
	}
	return "**/" + p.Text
}

// Match reports whether candidate (already normalized to forward slashes
// and made relative to p.SrcDir) matches this pattern, and the negation
// bit surfaced so the rule engine can decide whether a match asserts or
// retracts assignments. ignoreCase follows the filesystem's case-
// sensitivity policy flag at match time (spec.md §4.1); it never applies
// to attribute-name comparison, which is unconditionally case-sensitive
// (spec.md §3).
func (p Pattern) Match(candidate string, isDir bool, ignoreCase bool) (matched bool, negated bool) {
	if p.Is(DirectoryOnly) && !isDir {
		return false, p.Is(Negate)
	}

	candidate = strings.TrimPrefix(candidate, "/")
	globPat, text := p.globPat, p.Text
	if ignoreCase {
		candidate = strings.ToLower(candidate)
		globPat = strings.ToLower(globPat)
		text = strings.ToLower(text)
	}

	ok, _ := doublestar.Match(globPat, candidate)
	if !ok && !p.Is(Anchored) {
		// A basename pattern like "build" must also match the bare
		// top-level name "build" itself, which "**/build" alone does not
		// cover because doublestar requires at least one path segment
		// before "**" to consume zero components only when candidate has
		// no slash; guard explicitly for robustness across versions.
		ok, _ = doublestar.Match(text, candidate)
	}
	return ok, p.Is(Negate)
}

func trimTrailingUnescapedWhitespace(s string) string {
	for len(s) > 0 {
		last := s[len(s)-1]
		if last != ' ' && last != '\t' {
			break
		}
		if len(s) >= 2 && s[len(s)-2] == '\\' {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}

func hasTrailingUnescapedSlash(s string) bool {
	if !strings.HasSuffix(s, "/") {
		return false
	}
	if len(s) >= 2 && s[len(s)-2] == '\\' {
		return false
	}
	return true
}

// containsUnescapedSlashExceptEnd reports whether s has an unescaped "/"
// anywhere other than as its final character.
func containsUnescapedSlashExceptEnd(s string) bool {
	for i := 0; i < len(s)-1; i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == '/' {
			return true
		}
	}
	return false
}
