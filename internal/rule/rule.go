// Package rule implements the AttrFile parser described in spec.md §4.2:
// line-oriented parsing of patterns, attribute assignments, and
// [attr]-prefixed macro definitions.
package rule

import (
	"sort"
	"strings"

	"attrcore/internal/attrtypes"
	"attrcore/internal/pattern"
	"attrcore/internal/source"
)

// Rule is a Pattern plus its ordered, sorted-and-deduplicated list of
// attribute assignments (spec.md §3).
type Rule struct {
	Pattern     pattern.Pattern
	Assignments []attrtypes.Assignment // sorted by (NameHash, Name)
}

// Find binary-searches r's assignment list for name, mirroring the
// (name_hash, name) sort order established at parse time.
func (r Rule) Find(name string) (attrtypes.Assignment, bool) {
	h := attrtypes.NameHash(name)
	list := r.Assignments
	i := sort.Search(len(list), func(i int) bool {
		if list[i].NameHash != h {
			return list[i].NameHash >= h
		}
		return list[i].Name >= name
	})
	if i < len(list) && list[i].NameHash == h && list[i].Name == name {
		return list[i], true
	}
	return attrtypes.Assignment{}, false
}

// AttrFile is the parsed contents of one attribute source: its rules in
// file order (order is significant — later rules override earlier ones
// for the same attribute on a match) plus the content signature it was
// parsed from.
type AttrFile struct {
	Src       source.Source
	Rules     []Rule
	Signature source.Signature
	// MacroDefs holds macro definitions accepted from this file (only
	// non-empty when the source was trusted); the Cache registers these
	// into the shared macro table, not this struct.
	MacroDefs []MacroDef
}

// MacroDef is one accepted "[attr]name assignments..." line.
type MacroDef struct {
	Name        string
	Assignments []attrtypes.Assignment
}

// Parse parses raw attribute-file bytes into an AttrFile. It never fails
// on malformed lines; malformed assignments are skipped and parsing
// continues (spec.md §4.2, §7: PARSE_ERROR never occurs).
func Parse(data []byte, src source.Source, srcDir string, allowMacros bool) *AttrFile {
	af := &AttrFile{Src: src}

	for _, line := range splitLines(data) {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if rest, ok := cutMacroPrefix(trimmed); ok {
			name, assignTokens := splitFields(rest)
			if name == "" {
				continue
			}
			if !allowMacros {
				continue // recognized but discarded: untrusted source
			}
			af.MacroDefs = append(af.MacroDefs, MacroDef{
				Name:        name,
				Assignments: parseAssignments(assignTokens),
			})
			continue
		}

		patText, assignTokens := splitFields(trimmed)
		if patText == "" {
			continue
		}
		p, ok := pattern.Compile(patText, srcDir)
		if !ok {
			continue
		}
		af.Rules = append(af.Rules, Rule{
			Pattern:     p,
			Assignments: parseAssignments(assignTokens),
		})
	}

	return af
}

func splitLines(data []byte) []string {
	return strings.Split(string(data), "\n")
}

// splitFields splits a line into its first whitespace-separated field and
// the (whitespace-trimmed) remainder.
func splitFields(s string) (first string, rest []string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

func cutMacroPrefix(line string) (string, bool) {
	const prefix = "[attr]"
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	// The macro name may follow "[attr]" directly ("[attr]binary") or
	// after whitespace.
	rest := strings.TrimSpace(line[len(prefix):])
	if rest == "" {
		return "", false
	}
	return rest, true
}

// parseAssignments parses a space-separated list of assignment tokens,
// sorts them by (NameHash, Name), and keeps the last occurrence of each
// duplicate name (spec.md §3, §4.2).
func parseAssignments(tokens []string) []attrtypes.Assignment {
	byName := make(map[string]attrtypes.Assignment, len(tokens))
	order := make([]string, 0, len(tokens))

	for _, tok := range tokens {
		a, ok := parseOneAssignment(tok)
		if !ok {
			continue // malformed: skip, don't fail
		}
		if _, existed := byName[a.Name]; !existed {
			order = append(order, a.Name)
		}
		byName[a.Name] = a
	}

	out := make([]attrtypes.Assignment, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NameHash != out[j].NameHash {
			return out[i].NameHash < out[j].NameHash
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// parseOneAssignment parses one token: "name" (TRUE), "-name" (FALSE),
// "!name" (UNSET), or "name=value" (STRING).
func parseOneAssignment(tok string) (attrtypes.Assignment, bool) {
	if tok == "" {
		return attrtypes.Assignment{}, false
	}

	switch tok[0] {
	case '-':
		name := tok[1:]
		if !validName(name) {
			return attrtypes.Assignment{}, false
		}
		return attrtypes.NewAssignment(name, attrtypes.Value{Kind: attrtypes.False}), true
	case '!':
		name := tok[1:]
		if !validName(name) {
			return attrtypes.Assignment{}, false
		}
		return attrtypes.NewAssignment(name, attrtypes.Value{Kind: attrtypes.Unset}), true
	}

	if idx := strings.IndexByte(tok, '='); idx >= 0 {
		name, val := tok[:idx], tok[idx+1:]
		if !validName(name) || val == "" {
			return attrtypes.Assignment{}, false
		}
		return attrtypes.NewAssignment(name, attrtypes.Value{Kind: attrtypes.String, Str: val}), true
	}

	if !validName(tok) {
		return attrtypes.Assignment{}, false
	}
	return attrtypes.NewAssignment(tok, attrtypes.Value{Kind: attrtypes.True}), true
}

// validName enforces spec.md §3: ASCII names containing letters, digits,
// dot, dash, and underscore only.
func validName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.' || c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}
