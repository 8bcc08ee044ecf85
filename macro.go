package bibtex

// macroKey is a byte slice wrapped so it can be used as a case-insensitive
// map key: ASCII letters are folded before lookup, every other byte
// (including all non-ASCII bytes) compares by value, matching BibTeX's
// historical ASCII-only case folding (spec §4.4).
type macroKey string

func newMacroKey(name []byte) macroKey {
	return macroKey(foldASCII(name))
}

// MacroTable is a case-insensitive, append-or-replace mapping from
// @string abbreviation name to its resolved byte sequence. It is built
// left to right as @string entries are parsed; a later binding with the
// same folded name silently replaces an earlier one. It is never
// retroactively mutated or snapshotted (spec §3, §4.4).
type MacroTable struct {
	bindings map[macroKey]string
}

// NewMacroTable returns an empty table, optionally seeded with the given
// name->value bindings (e.g. StandardMonthMacros()).
func NewMacroTable(seed map[string]string) *MacroTable {
	t := &MacroTable{bindings: make(map[macroKey]string, len(seed)+8)}
	for name, value := range seed {
		t.Set([]byte(name), value)
	}
	return t
}

// Set installs or replaces the binding for name.
func (t *MacroTable) Set(name []byte, value string) {
	t.bindings[newMacroKey(name)] = value
}

// Lookup returns the resolved value bound to name and whether it is
// defined. Comparison is ASCII-case-insensitive.
func (t *MacroTable) Lookup(name []byte) (string, bool) {
	v, ok := t.bindings[newMacroKey(name)]
	return v, ok
}

// Len reports the number of distinct (folded) macro names currently
// bound.
func (t *MacroTable) Len() int {
	return len(t.bindings)
}

// StandardMonthMacros returns the twelve three-letter month abbreviation
// bindings BibTeX style files conventionally seed into the macro table
// (spec §3: "optionally seeded with ... the twelve month abbreviations").
func StandardMonthMacros() map[string]string {
	return map[string]string{
		"jan": "January", "feb": "February", "mar": "March",
		"apr": "April", "may": "May", "jun": "June",
		"jul": "July", "aug": "August", "sep": "September",
		"oct": "October", "nov": "November", "dec": "December",
	}
}
