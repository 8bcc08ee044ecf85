package bibtex

import (
	"errors"
	"unicode/utf8"
)

// Deserializer drives the scanner and macro table over a single
// in-memory input buffer, dispatching parsed entries to a Visitor. It is
// single-threaded and synchronous (spec §5): every operation is a
// straight-line computation, and no locking is needed because the reader
// cursor and macro table are owned exclusively by one Deserializer.
type Deserializer struct {
	r      *reader
	macros *MacroTable
	cfg    Config
}

// NewDeserializer constructs a Deserializer over input. The buffer is
// never copied or mutated; every borrowed slice handed to a Visitor
// points into it, so callers must keep input alive for the lifetime of
// the Deserializer.
func NewDeserializer(input []byte, opts ...Option) (*Deserializer, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	if cfg.validateUTF8 {
		if !utf8.Valid(input) {
			offset := firstInvalidUTF8(input)
			return nil, &InvalidUTF8Error{Pos: Position{Offset: offset, input: input}}
		}
	}
	return &Deserializer{
		r:      newReader(input),
		macros: NewMacroTable(cfg.initialMacros),
		cfg:    cfg,
	}, nil
}

func firstInvalidUTF8(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}

// Macro returns the resolved value currently bound to name, honoring the
// same ASCII-case-insensitive comparison Resolved-mode field lookups use.
// It reflects every @string entry parsed so far, not the final state of
// the whole input; see MacroTable for lifecycle details.
func (d *Deserializer) Macro(name string) (string, bool) {
	return d.macros.Lookup([]byte(name))
}

// errDone is an internal sentinel distinguishing clean end-of-input from
// a real parse error; it never escapes to a caller.
var errDone = errors.New("bibtex: no more entries")

// All returns a range-over-func iterator that yields exactly one error
// value (possibly nil) per entry encountered, matching spec §4.6/§7's
// "lazy, finite sequence of Result" contract. Stop ranging early (the
// usual "break" in a for-range) to abandon the remaining input; doing so
// releases the macro table and any owned buffers with nothing further to
// clean up, since every emitted value was either fully delivered to v or
// discarded (spec §5, "no observable half-states").
//
//	for err := range d.All(v) {
//	    if err != nil {
//	        // log and continue, or break to stop
//	    }
//	}
func (d *Deserializer) All(v Visitor) func(func(error) bool) {
	return func(yield func(error) bool) {
		for {
			err := d.step(v)
			if err == errDone {
				return
			}
			if !yield(err) {
				return
			}
			var eofErr *UnexpectedEOFError
			if errors.As(err, &eofErr) {
				return
			}
		}
	}
}

// step parses exactly one entry (or the end of input) and applies the
// error-tolerant recovery policy of spec §4.6/§7.
func (d *Deserializer) step(v Visitor) error {
	d.r.skipJunk()
	if d.r.eof() {
		return errDone
	}
	entryStart := d.r.pos
	d.r.bump() // consume '@'
	err := d.parseEntry(v)
	if err == nil {
		return nil
	}
	switch err.(type) {
	case *SyntaxError, *UnknownMacroError:
		d.resync()
		return err
	default:
		// *UnexpectedEOFError: iterator terminates, no resync possible.
		// *VisitorError: surfaced as-is, no resync; the parser has
		// already positioned itself past the entry's closing bracket
		// (see parseRegular), so the next skipJunk call behaves
		// identically to a clean resync. A plain error here can only
		// come from Visitor.Macro, Preamble or Comment, which run after
		// the closing bracket; it is wrapped so it carries a position.
		if _, ok := err.(Error); !ok {
			return &VisitorError{Pos: Position{Offset: entryStart, input: d.r.buf}, Err: err}
		}
		return err
	}
}

// resync discards bytes until the next '@' seen at outer brace depth
// zero, per spec §4.6. The '@' itself is left unconsumed so the next
// call to step sees it via skipJunk.
func (d *Deserializer) resync() {
	depth := 0
	for {
		b, ok := d.r.bump()
		if !ok {
			return
		}
		switch b {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '@':
			if depth == 0 {
				d.r.pos--
				return
			}
		}
	}
}

func (d *Deserializer) parseEntry(v Visitor) error {
	d.r.skipInsignificant()
	kindStart := d.r.pos
	kind := d.r.consumeWhile(isIdentByte)
	if len(kind) == 0 {
		return &SyntaxError{Pos: Position{Offset: kindStart, input: d.r.buf}, Msg: "missing entry type after '@'"}
	}
	d.r.skipInsignificant()
	ob, ok := d.r.peek()
	if !ok {
		return &UnexpectedEOFError{Pos: d.r.position(), Msg: "expected '{' or '(' after entry type"}
	}
	var closer byte
	switch ob {
	case '{':
		closer = '}'
	case '(':
		closer = ')'
	default:
		return &SyntaxError{Pos: d.r.position(), Msg: "expected '{' or '(' after entry type"}
	}
	d.r.bump()

	switch string(foldASCII(kind)) {
	case "string":
		return d.parseMacro(v, closer)
	case "preamble":
		return d.parsePreamble(v, closer)
	case "comment":
		return d.parseComment(v, ob)
	default:
		return d.parseRegular(v, kind, closer)
	}
}

func (d *Deserializer) parseMacro(v Visitor, closer byte) error {
	d.r.skipInsignificant()
	b, ok := d.r.peek()
	if !ok {
		return &UnexpectedEOFError{Pos: d.r.position(), Msg: "unterminated @string body"}
	}
	if b == closer {
		d.r.bump()
		return v.Macro(nil, ResolvedValue{})
	}
	nameStart := d.r.pos
	name := d.r.consumeWhile(isIdentByte)
	if len(name) == 0 {
		return &SyntaxError{Pos: Position{Offset: nameStart, input: d.r.buf}, Msg: "expected a macro name or closing bracket"}
	}
	if isDigit(name[0]) {
		return &SyntaxError{Pos: Position{Offset: nameStart, input: d.r.buf}, Msg: "macro name cannot start with a digit"}
	}
	d.r.skipInsignificant()
	if eb, ok := d.r.peek(); !ok {
		return &UnexpectedEOFError{Pos: d.r.position(), Msg: "expected '=' in @string body"}
	} else if eb != '=' {
		return &SyntaxError{Pos: d.r.position(), Msg: "expected '=' in @string body"}
	}
	d.r.bump()
	d.r.skipInsignificant()
	tokens, positions, err := scanValueWithPositions(d.r)
	if err != nil {
		return err
	}
	d.r.skipInsignificant()
	b, ok = d.r.peek()
	if !ok {
		return &UnexpectedEOFError{Pos: d.r.position(), Msg: "unterminated @string body"}
	}
	if b == ',' {
		d.r.bump()
		d.r.skipInsignificant()
		b, ok = d.r.peek()
		if !ok {
			return &UnexpectedEOFError{Pos: d.r.position(), Msg: "unterminated @string body"}
		}
	}
	if b != closer {
		return &SyntaxError{Pos: d.r.position(), Msg: "expected closing bracket in @string body"}
	}
	d.r.bump()

	// Resolve before committing: a macro that fails to resolve (e.g. a
	// forward reference to an undefined name) must never touch the
	// table (spec §4.4, §8 "macro-table isolation on failure").
	resolved, err := resolveTokens(tokens, positions, d.macros)
	if err != nil {
		return err
	}
	d.macros.Set(name, macroTableString(resolved))
	return v.Macro(name, resolved)
}

func (d *Deserializer) parsePreamble(v Visitor, closer byte) error {
	d.r.skipInsignificant()
	tokens, positions, err := scanValueWithPositions(d.r)
	if err != nil {
		return err
	}
	d.r.skipInsignificant()
	b, ok := d.r.peek()
	if !ok {
		return &UnexpectedEOFError{Pos: d.r.position(), Msg: "unterminated @preamble body"}
	}
	if b != closer {
		return &SyntaxError{Pos: d.r.position(), Msg: "expected closing bracket in @preamble body"}
	}
	d.r.bump()
	if !d.cfg.surfacePreambles {
		return nil
	}
	resolved, err := resolveTokens(tokens, positions, d.macros)
	if err != nil {
		return err
	}
	return v.Preamble(resolved)
}

func (d *Deserializer) parseComment(v Visitor, opener byte) error {
	body, err := scanCommentBody(d.r, opener)
	if err != nil {
		return err
	}
	if !d.cfg.surfaceComments {
		return nil
	}
	return v.Comment(body)
}

func (d *Deserializer) parseRegular(v Visitor, kindOrig []byte, closer byte) error {
	d.r.skipInsignificant()
	keyStart := d.r.pos
	key := d.r.consumeWhile(isIdentByte)
	if len(key) == 0 {
		return &SyntaxError{Pos: Position{Offset: keyStart, input: d.r.buf}, Msg: "missing entry key"}
	}

	visit, err := v.Regular(foldASCII(kindOrig))
	if err != nil {
		return &VisitorError{Pos: Position{Offset: keyStart, input: d.r.buf}, Err: err}
	}

	fields := &Fields{
		d:        d,
		closer:   closer,
		allowDup: d.cfg.allowDuplicateFields,
		seen:     make(map[string]bool),
	}

	var visitorErr error
	if visit {
		visitorErr = v.Entry(kindOrig, key, fields)
	}

	// Drain whatever the visitor left unconsumed so the reader ends up
	// exactly past the closing bracket either way (spec §3's entry
	// invariant), unless a structural error already ended the entry.
	for !fields.done && fields.err == nil {
		_, val, ok, ferr := fields.Next()
		if ferr != nil {
			break
		}
		if !ok {
			break
		}
		val.Skip()
	}
	if fields.err != nil {
		return fields.err
	}
	if visitorErr != nil {
		return &VisitorError{Pos: Position{Offset: keyStart, input: d.r.buf}, Err: visitorErr}
	}
	return nil
}

// nextField implements Fields.Next. It is a method on Deserializer
// (rather than Fields) so all reader access stays colocated with the
// rest of the state machine.
func (d *Deserializer) nextField(f *Fields) ([]byte, *FieldValue, bool, error) {
	d.r.skipInsignificant()
	b, ok := d.r.peek()
	if !ok {
		err := &UnexpectedEOFError{Pos: d.r.position(), Msg: "unterminated entry body"}
		f.err, f.done = err, true
		return nil, nil, false, err
	}
	if b == f.closer {
		d.r.bump()
		f.done = true
		return nil, nil, false, nil
	}
	if b != ',' {
		err := &SyntaxError{Pos: d.r.position(), Msg: "expected ',' or closing bracket"}
		f.err, f.done = err, true
		return nil, nil, false, err
	}
	d.r.bump()
	d.r.skipInsignificant()
	b, ok = d.r.peek()
	if !ok {
		err := &UnexpectedEOFError{Pos: d.r.position(), Msg: "unterminated entry body"}
		f.err, f.done = err, true
		return nil, nil, false, err
	}
	if b == f.closer { // trailing comma before the closing bracket
		d.r.bump()
		f.done = true
		return nil, nil, false, nil
	}

	keyStart := d.r.pos
	key := d.r.consumeWhile(isIdentByte)
	if len(key) == 0 {
		err := &SyntaxError{Pos: Position{Offset: keyStart, input: d.r.buf}, Msg: "expected a field name"}
		f.err, f.done = err, true
		return nil, nil, false, err
	}
	d.r.skipInsignificant()
	eb, ok := d.r.peek()
	if !ok {
		err := &UnexpectedEOFError{Pos: d.r.position(), Msg: "expected '=' after field name"}
		f.err, f.done = err, true
		return nil, nil, false, err
	}
	if eb != '=' {
		err := &SyntaxError{Pos: d.r.position(), Msg: "expected '=' after field name"}
		f.err, f.done = err, true
		return nil, nil, false, err
	}
	d.r.bump()
	d.r.skipInsignificant()
	tokens, positions, err := scanValueWithPositions(d.r)
	if err != nil {
		f.err, f.done = err, true
		return nil, nil, false, err
	}

	if !f.allowDup {
		folded := string(foldASCII(key))
		if f.seen[folded] {
			err := &SyntaxError{Pos: Position{Offset: keyStart, input: d.r.buf}, Msg: "duplicate field key " + string(key)}
			f.err, f.done = err, true
			return nil, nil, false, err
		}
		f.seen[folded] = true
	}

	val := &FieldValue{tokens: tokens, positions: positions, macros: d.macros}
	return key, val, true, nil
}
