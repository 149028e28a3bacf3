package rule

import (
	"testing"

	"attrcore/internal/attrtypes"
	"attrcore/internal/pattern"
	"attrcore/internal/source"
)

func TestParseBasicRule(t *testing.T) {
	af := Parse([]byte("*.c diff=cpp text\n"), source.Source{}, "", false)
	if len(af.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(af.Rules))
	}
	r := af.Rules[0]
	a, ok := r.Find("diff")
	if !ok || a.Value.Kind != attrtypes.String || a.Value.Str != "cpp" {
		t.Errorf("diff assignment = %+v, ok=%v", a, ok)
	}
	a, ok = r.Find("text")
	if !ok || a.Value.Kind != attrtypes.True {
		t.Errorf("text assignment = %+v, ok=%v", a, ok)
	}
	if _, ok := r.Find("binary"); ok {
		t.Error("binary should not be assigned")
	}
}

func TestParseAssignmentForms(t *testing.T) {
	af := Parse([]byte("*.png binary -text !diff foo=bar\n"), source.Source{}, "", false)
	r := af.Rules[0]

	cases := []struct {
		name string
		kind attrtypes.ValueKind
		str  string
	}{
		{"binary", attrtypes.True, ""},
		{"text", attrtypes.False, ""},
		{"diff", attrtypes.Unset, ""},
		{"foo", attrtypes.String, "bar"},
	}
	for _, c := range cases {
		a, ok := r.Find(c.name)
		if !ok {
			t.Fatalf("missing assignment %q", c.name)
		}
		if a.Value.Kind != c.kind || a.Value.Str != c.str {
			t.Errorf("%q = %+v, want kind=%v str=%q", c.name, a.Value, c.kind, c.str)
		}
	}
}

func TestParseSkipsMalformed(t *testing.T) {
	af := Parse([]byte("*.c good=1 =novalue bad!name\n"), source.Source{}, "", false)
	r := af.Rules[0]
	if _, ok := r.Find("good"); !ok {
		t.Error("expected good=1 to parse")
	}
	if len(r.Assignments) != 1 {
		t.Errorf("expected 1 valid assignment, got %d: %+v", len(r.Assignments), r.Assignments)
	}
}

func TestParseLastAssignmentWins(t *testing.T) {
	af := Parse([]byte("*.c text -text\n"), source.Source{}, "", false)
	r := af.Rules[0]
	a, _ := r.Find("text")
	if a.Value.Kind != attrtypes.False {
		t.Errorf("expected later -text to win, got %v", a.Value.Kind)
	}
}

func TestParseComments(t *testing.T) {
	af := Parse([]byte("# comment\n\n*.c text\n"), source.Source{}, "", false)
	if len(af.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(af.Rules))
	}
}

func TestParseCRLF(t *testing.T) {
	af := Parse([]byte("*.c text\r\n*.h text\r\n"), source.Source{}, "", false)
	if len(af.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(af.Rules))
	}
}

func TestParseMacroTrustGate(t *testing.T) {
	untrusted := Parse([]byte("[attr]binary -text -diff\n*.png binary\n"), source.Source{}, "", false)
	if len(untrusted.MacroDefs) != 0 {
		t.Errorf("untrusted source should discard macro defs, got %d", len(untrusted.MacroDefs))
	}
	if len(untrusted.Rules) != 1 {
		t.Errorf("expected 1 non-macro rule, got %d", len(untrusted.Rules))
	}

	trusted := Parse([]byte("[attr]binary -text -diff\n*.png binary\n"), source.Source{}, "", true)
	if len(trusted.MacroDefs) != 1 {
		t.Fatalf("trusted source should register macro defs, got %d", len(trusted.MacroDefs))
	}
	if trusted.MacroDefs[0].Name != "binary" {
		t.Errorf("macro name = %q, want binary", trusted.MacroDefs[0].Name)
	}
	if len(trusted.MacroDefs[0].Assignments) != 2 {
		t.Errorf("macro assignments = %d, want 2", len(trusted.MacroDefs[0].Assignments))
	}
}

func TestParseNegatedPattern(t *testing.T) {
	af := Parse([]byte("!*.log text\n"), source.Source{}, "", false)
	r := af.Rules[0]
	if !r.Pattern.Is(pattern.Negate) {
		t.Error("expected pattern to be negated")
	}
}
