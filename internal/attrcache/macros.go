package attrcache

import (
	"sync"

	"attrcore/internal/rule"
)

// MacroTable is the process-wide mapping from macro name to its
// assignment bundle (spec.md §3). It is written rarely (only while
// parsing from trusted sources, or via an explicit AddMacro call) and
// read often, so writes take the exclusive side of the lock and reads
// the shared side (spec.md §5).
type MacroTable struct {
	mu      sync.RWMutex
	entries map[string]rule.MacroDef
}

func newMacroTable() *MacroTable {
	return &MacroTable{entries: make(map[string]rule.MacroDef)}
}

// Register adds or replaces a macro definition. Only called with
// definitions already gated by AllowMacros at parse time, or via an
// explicit trusted AddMacro call.
func (t *MacroTable) Register(def rule.MacroDef) {
	t.mu.Lock()
	t.entries[def.Name] = def
	t.mu.Unlock()
}

// Lookup returns the macro definition for name, if any.
func (t *MacroTable) Lookup(name string) (rule.MacroDef, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	def, ok := t.entries[name]
	return def, ok
}

// Len reports the number of registered macro definitions.
func (t *MacroTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
