package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tokenTypes(src string) []TokenType {
	l := New([]byte(src))
	var types []TokenType
	for {
		tok := l.Next()
		types = append(types, tok.Type)
		if tok.Type == EOF {
			break
		}
	}
	return types
}

func TestLexerScansFunctionSignature(t *testing.T) {
	types := tokenTypes("i32 add(i32 a, i32 b) {")
	require.Equal(t, []TokenType{I32, IDENT, LPAREN, I32, IDENT, COMMA, I32, IDENT, RPAREN, LBRACE, EOF}, types)
}

func TestLexerScansOperators(t *testing.T) {
	types := tokenTypes("== != <= >= && || ! = < >")
	require.Equal(t, []TokenType{EQ, NE, LE, GE, AND, OR, NOT, ASSIGN, LT, GT, EOF}, types)
}

func TestLexerScansIntLiteral(t *testing.T) {
	l := New([]byte("12345"))
	tok := l.Next()
	require.Equal(t, INT_LITERAL, tok.Type)
	require.Equal(t, int64(12345), tok.IntValue)
}

func TestLexerScansKeywords(t *testing.T) {
	types := tokenTypes("if else while for return true false import from dbg")
	require.Equal(t, []TokenType{IF, ELSE, WHILE, FOR, RETURN, TRUE, FALSE, IMPORT, FROM, DBG, EOF}, types)
}

func TestLexerSkipsLineAndBlockComments(t *testing.T) {
	types := tokenTypes("// comment\ni32 /* inline */ x")
	require.Equal(t, []TokenType{I32, IDENT, EOF}, types)
}

func TestLexerStringLiteral(t *testing.T) {
	l := New([]byte(`"hello world"`))
	tok := l.Next()
	require.Equal(t, STRING, tok.Type)
	require.Equal(t, "hello world", tok.StringValue)
}

func TestLexerUnterminatedStringIsError(t *testing.T) {
	l := New([]byte(`"hello`))
	tok := l.Next()
	require.Equal(t, ERROR, tok.Type)
	require.Contains(t, tok.ErrorMessage, "unterminated")
}

func TestLexerUnexpectedCharacterIsError(t *testing.T) {
	l := New([]byte("@"))
	tok := l.Next()
	require.Equal(t, ERROR, tok.Type)
	require.Contains(t, tok.ErrorMessage, "unexpected character")
}

func TestLexerTracksLineAndColumn(t *testing.T) {
	l := New([]byte("i32\nx"))
	first := l.Next()
	require.Equal(t, 1, first.Location.Line)
	second := l.Next()
	require.Equal(t, 2, second.Location.Line)
	require.Equal(t, 0, second.Location.Column)
}

func TestIsTypeKeyword(t *testing.T) {
	for _, tt := range []TokenType{I8, I16, I32, I64, U8, U16, U32, U64, BOOL, VOID} {
		_, ok := IsTypeKeyword(tt)
		require.True(t, ok)
	}
	_, ok := IsTypeKeyword(IDENT)
	require.False(t, ok)
}
