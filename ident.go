package bibtex

// isReservedByte reports whether b can never appear in an identifier
// (entry_type, entry_key, field_key, or variable), per spec §3.
func isReservedByte(b byte) bool {
	switch b {
	case '{', '}', '(', ')', ',', '=', '\\', '#', '%', '"':
		return true
	}
	return b <= 0x20 || b == 0x7f
}

// isIdentByte reports whether b may appear inside an identifier.
func isIdentByte(b byte) bool {
	return !isReservedByte(b)
}

// foldASCIIByte lowercases b iff it is an ASCII uppercase letter, leaving
// every other byte (including all non-ASCII bytes) untouched. This is the
// only case-folding this package performs; it intentionally avoids
// unicode.ToLower's locale-sensitive behavior (see macro.go).
func foldASCIIByte(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// foldASCII returns a new byte slice with ASCII letters lowercased. Used
// for map keys in MacroTable and for dispatching on entry kind.
func foldASCII(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = foldASCIIByte(c)
	}
	return out
}
