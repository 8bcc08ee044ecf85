package bibtex

// Visitor is the data-binding protocol a caller implements to receive
// parsed entries (spec §4.6, §6). Methods are called in input order; the
// parser never buffers more than one entry ahead. Embed NoOpVisitor to
// satisfy the interface while overriding only the methods of interest.
type Visitor interface {
	// Regular reports whether a regular entry of this ASCII-lowercased
	// kind should be delivered to Entry at all. When it returns false,
	// the parser still validates brackets and brace balance but skips
	// macro resolution and owned-buffer allocation for the entry's
	// fields (spec §4.6 "skipping policy").
	Regular(kind []byte) (visit bool, err error)

	// Entry delivers one accepted regular entry: kind is the original
	// (non-folded) type identifier, key is the citation key, and fields
	// is a lazy cursor over the entry's (field_key, value) pairs. Both
	// kind and key borrow the input buffer and are valid only for the
	// duration of the call.
	Entry(kind, key []byte, fields *Fields) error

	// Macro is called once a @string entry's single binding has parsed
	// successfully and been committed to the macro table. name borrows
	// the input; value may be Borrowed or Owned (see ResolvedValue).
	// An empty @string body (spec §4.3) calls Macro with a nil name.
	Macro(name []byte, value ResolvedValue) error

	// Preamble is called for a @preamble body only when the
	// deserializer was configured with WithPreambles(true); otherwise
	// the body is discarded without a call.
	Preamble(value ResolvedValue) error

	// Comment is called for a @comment body only when the deserializer
	// was configured with WithComments(true); body borrows the input
	// and is valid only for the duration of the call.
	Comment(body []byte) error
}

// NoOpVisitor implements Visitor with no-op methods that accept every
// regular entry and discard its fields. Embed it to avoid implementing
// methods you don't care about.
type NoOpVisitor struct{}

func (NoOpVisitor) Regular(kind []byte) (bool, error) { return true, nil }

func (NoOpVisitor) Entry(kind, key []byte, fields *Fields) error {
	for {
		_, val, ok, err := fields.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		val.Skip()
	}
}

func (NoOpVisitor) Macro(name []byte, value ResolvedValue) error { return nil }
func (NoOpVisitor) Preamble(value ResolvedValue) error           { return nil }
func (NoOpVisitor) Comment(body []byte) error                    { return nil }

// Fields is a lazy, forward-only cursor over a regular entry's field
// list, handed to Visitor.Entry. Calling Next advances past whatever the
// previous FieldValue was or was not asked to materialize.
type Fields struct {
	d        *Deserializer
	closer   byte
	allowDup bool
	seen     map[string]bool
	done     bool
	err      error
}

// Next scans the next field_key and its value's raw token sequence,
// returning ok=false once the closing bracket has been reached. It is an
// error to call Next again after it returns ok=false or a non-nil error.
func (f *Fields) Next() (key []byte, val *FieldValue, ok bool, err error) {
	if f.done || f.err != nil {
		return nil, nil, false, f.err
	}
	return f.d.nextField(f)
}

// FieldValue projects one field's already-scanned token sequence into
// either the Raw token list or a Resolved, macro-expanded byte sequence
// (spec §4.5). Materializing Resolved is deferred until requested.
type FieldValue struct {
	tokens    []Token
	positions []Position
	macros    *MacroTable
}

// Raw returns the field's token sequence unchanged: no macro lookups, no
// concatenation, Variable tokens emitted verbatim (spec §4.5).
func (v *FieldValue) Raw() []Token {
	return v.tokens
}

// Resolved concatenates the token sequence, resolving Variable tokens
// against the deserializer's macro table. An undefined variable yields
// an *UnknownMacroError tagged with its position.
func (v *FieldValue) Resolved() (ResolvedValue, error) {
	return resolveTokens(v.tokens, v.positions, v.macros)
}

// Skip is a no-op placeholder that documents the visitor's intent not to
// materialize this field's value; the parser has already advanced past
// it by the time FieldValue is constructed; see Fields.Next.
func (v *FieldValue) Skip() {}
