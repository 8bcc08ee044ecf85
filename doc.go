// Package bibtex is a zero-copy, pull-style BibTeX deserializer.
//
// It tokenizes and parses .bib input held entirely in memory and drives a
// caller-supplied Visitor for each entry, handing back slices that borrow
// directly from the input buffer wherever possible. Field values are
// macro-expanded and concatenated only when a Visitor asks a FieldValue
// for Resolved, and UTF-8 validation is opt-in via WithUTF8Validation, so
// callers that only need the raw field token stream pay nothing for them.
// @string entries are always resolved and committed to the macro table.
//
// The package does not interpret TeX markup inside field values, does not
// preserve free-form comment text outside @comment blocks, and does not
// serialize entries back to text; see cmd/bibtexfmt for a minimal
// canonical re-emitter built as a consumer of this package.
package bibtex

// BNF (informal):
//
//	Database   ::= (Junk '@' Entry)*
//	Junk       ::= any byte run outside an entry that is not '@' or '%'
//	Entry      ::= ws? Kind ws? Bracket Body Close
//	Kind       ::= Identifier                      -- folded ASCII-lowercase for dispatch
//	Bracket    ::= '{' | '('                       -- remembers matching closer
//	Body       ::= RegularBody | StringBody | PreambleBody | CommentBody
//	RegularBody ::= ws? Key (ws? ',' ws? Field)* ws? ','? ws?
//	Field      ::= FieldKey ws? '=' ws? Value
//	StringBody ::= (ws? Variable ws? '=' ws? Value ws? ','?)? ws?
//	PreambleBody ::= ws? Value ws?
//	CommentBody  ::= balanced bytes up to the matching Close
//	Value      ::= Token (ws? '#' ws? Token)*
//	Token      ::= Number | Curly | Quoted | Variable
//	Number     ::= digit+
//	Curly      ::= '{' balanced-bytes '}'
//	Quoted     ::= '"' ( [^'"'] | Curly )* '"'
//	Identifier ::= byte+ excluding { } ( ) , = \ # % " and ASCII control/DEL
//	Variable   ::= Identifier not starting with a digit
