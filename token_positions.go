package bibtex

// scanValueWithPositions scans a '#'-joined value token sequence and also
// records the starting Position of each token, needed so an UnknownMacroError can
// point at the offending Variable reference rather than the field as a
// whole (spec §7: "errors report offset and, where meaningful, the
// offending identifier").
func scanValueWithPositions(r *reader) ([]Token, []Position, error) {
	var tokens []Token
	var positions []Position
	for {
		r.skipInsignificant()
		pos := r.position()
		tok, err := scanToken(r)
		if err != nil {
			return nil, nil, err
		}
		tokens = append(tokens, tok)
		positions = append(positions, pos)
		save := r.pos
		r.skipInsignificant()
		if b, ok := r.peek(); ok && b == '#' {
			r.bump()
			continue
		}
		r.pos = save
		return tokens, positions, nil
	}
}
