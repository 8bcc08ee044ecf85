package bibtex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanTokenKinds(t *testing.T) {
	cases := []struct {
		name string
		in   string
		kind TokenKind
		text string
	}{
		{"number", "2014", TokenNumber, "2014"},
		{"curly", "{nested {braces} ok}", TokenCurly, "nested {braces} ok"},
		{"quoted", `"ab{"}cd"`, TokenQuoted, `ab{"}cd`},
		{"variable", "jan,", TokenVariable, "jan"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newReader([]byte(tc.in))
			tok, err := scanToken(r)
			require.NoError(t, err)
			require.Equal(t, tc.kind, tok.Kind)
			require.Equal(t, tc.text, string(tok.Text))
		})
	}
}

func TestScanTokenUnterminatedCurly(t *testing.T) {
	r := newReader([]byte("{unterminated"))
	_, err := scanToken(r)
	var eofErr *UnexpectedEOFError
	require.ErrorAs(t, err, &eofErr)
}

func TestScanTokenUnterminatedQuoted(t *testing.T) {
	r := newReader([]byte(`"unterminated`))
	_, err := scanToken(r)
	var eofErr *UnexpectedEOFError
	require.ErrorAs(t, err, &eofErr)
}

func TestScanTokenEmptyVariable(t *testing.T) {
	r := newReader([]byte(","))
	_, err := scanToken(r)
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
}

func TestScanValueConcatenation(t *testing.T) {
	r := newReader([]byte(`A # "y"`))
	tokens, positions, err := scanValueWithPositions(r)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	require.Len(t, positions, 2)
	require.Equal(t, TokenVariable, tokens[0].Kind)
	require.Equal(t, "A", string(tokens[0].Text))
	require.Equal(t, TokenQuoted, tokens[1].Kind)
	require.Equal(t, "y", string(tokens[1].Text))
}

func TestScanCommentBodyCurly(t *testing.T) {
	r := newReader([]byte("{discard me}"))
	r.bump() // consume opener, as the caller would
	body, err := scanCommentBody(r, '{')
	require.NoError(t, err)
	require.Equal(t, "discard me", string(body))
}

func TestScanCommentBodyParen(t *testing.T) {
	r := newReader([]byte("(discard {nested} me)"))
	r.bump()
	body, err := scanCommentBody(r, '(')
	require.NoError(t, err)
	require.Equal(t, "discard {nested} me", string(body))
}

func TestTokenKindString(t *testing.T) {
	require.Equal(t, "Number", TokenNumber.String())
	require.Equal(t, "Curly", TokenCurly.String())
	require.Equal(t, "Quoted", TokenQuoted.String())
	require.Equal(t, "Variable", TokenVariable.String())
}

// re-scanning a Curly token's own text under the same balance rule must
// stay balanced: this is the "Brace balance" testable property (spec §8).
func TestCurlyTokenReScanIsBalanced(t *testing.T) {
	r := newReader([]byte("{a {b {c} d} e}"))
	tok, err := scanToken(r)
	require.NoError(t, err)
	depth := 0
	for _, b := range tok.Text {
		switch b {
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	require.Zero(t, depth)
}
