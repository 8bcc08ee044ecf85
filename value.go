package bibtex

import "bytes"

// ResolvedValue is the result of concatenating and macro-expanding a
// field's token sequence (spec §4.5, design note "Borrowed-vs-owned
// values"). When concatenation traverses exactly one Curly or Quoted
// token, Bytes borrows directly from the input buffer and Owned is
// false; any other shape (multiple tokens, a Number, or a Variable
// reference) reports Owned true. Multiple tokens build a fresh buffer; a
// lone Number's Bytes still points into the input buffer.
type ResolvedValue struct {
	bytes []byte
	owned bool
}

func (v ResolvedValue) Bytes() []byte { return v.bytes }
func (v ResolvedValue) Owned() bool   { return v.owned }
func (v ResolvedValue) String() string {
	return string(v.bytes)
}

// resolveTokens implements the Resolved assembly policy of spec §4.5:
// Number/Curly/Quoted tokens contribute their payload bytes verbatim;
// Variable tokens are looked up (ASCII case-insensitively) in macros and
// their bound bytes are appended. Interior whitespace in the source
// around '#' is never part of any token's Text, so no extra trimming is
// needed here. An undefined variable is an UnknownMacroError tagged with
// its name and position.
func resolveTokens(tokens []Token, positions []Position, macros *MacroTable) (ResolvedValue, error) {
	if len(tokens) == 1 {
		switch tokens[0].Kind {
		case TokenCurly, TokenQuoted:
			return ResolvedValue{bytes: tokens[0].Text, owned: false}, nil
		case TokenNumber:
			// A lone Number is still borrowed in Bytes (its Text already
			// points into the input), but spec §4.5 reserves Owned==false
			// for Curly/Quoted alone, so it is labeled owned here.
			return ResolvedValue{bytes: tokens[0].Text, owned: true}, nil
		case TokenVariable:
			resolved, ok := macros.Lookup(tokens[0].Text)
			if !ok {
				return ResolvedValue{}, &UnknownMacroError{Pos: positions[0], Name: string(tokens[0].Text)}
			}
			return ResolvedValue{bytes: []byte(resolved), owned: true}, nil
		}
	}
	var buf bytes.Buffer
	for i, tok := range tokens {
		switch tok.Kind {
		case TokenNumber, TokenCurly, TokenQuoted:
			buf.Write(tok.Text)
		case TokenVariable:
			resolved, ok := macros.Lookup(tok.Text)
			if !ok {
				return ResolvedValue{}, &UnknownMacroError{Pos: positions[i], Name: string(tok.Text)}
			}
			buf.WriteString(resolved)
		}
	}
	return ResolvedValue{bytes: buf.Bytes(), owned: true}, nil
}

// macroTableString renders a fully concatenated value into a plain string
// for storage as a macro binding (the macro table holds resolved strings,
// not token sequences, so a reference to a macro whose own value was
// itself assembled via Resolved costs only a map lookup — spec §4.5's
// "cached so repeated references cost only a lookup").
func macroTableString(v ResolvedValue) string {
	return string(v.bytes)
}
