// Package lexer turns CASM source bytes into a token stream. Tokens
// carry their lexeme text as Go strings; identifier, number and string
// lexemes are copied out of the caller's buffer, so each of them is a
// separate allocation.
package lexer

import "github.com/casm-lang/casmc/internal/ast"

// TokenType is the tagged-variant discriminator for a Token.
type TokenType int

const (
	INT_LITERAL TokenType = iota
	IDENT
	STRING

	// Type keywords
	I8
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	BOOL
	VOID

	// Control keywords
	IF
	ELSE
	WHILE
	FOR
	RETURN

	// Literal keywords
	TRUE
	FALSE

	// Module keywords
	IMPORT
	FROM

	// Debug keyword
	DBG

	// Operators
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	ASSIGN
	EQ
	NE
	LT
	GT
	LE
	GE
	AND
	OR
	NOT

	// Delimiters
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	SEMICOLON
	COMMA
	HASH
	COLON

	EOF
	ERROR
)

var tokenNames = map[TokenType]string{
	INT_LITERAL: "INT_LITERAL", IDENT: "IDENT", STRING: "STRING",
	I8: "i8", I16: "i16", I32: "i32", I64: "i64",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64",
	BOOL: "bool", VOID: "void",
	IF: "if", ELSE: "else", WHILE: "while", FOR: "for", RETURN: "return",
	TRUE: "true", FALSE: "false", IMPORT: "import", FROM: "from", DBG: "dbg",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%",
	ASSIGN: "=", EQ: "==", NE: "!=", LT: "<", GT: ">", LE: "<=", GE: ">=",
	AND: "&&", OR: "||", NOT: "!",
	LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}",
	SEMICOLON: ";", COMMA: ",", HASH: "#", COLON: ":",
	EOF: "EOF", ERROR: "ERROR",
}

func (t TokenType) String() string {
	if n, ok := tokenNames[t]; ok {
		return n
	}
	return "<unknown>"
}

var keywords = map[string]TokenType{
	"i8": I8, "i16": I16, "i32": I32, "i64": I64,
	"u8": U8, "u16": U16, "u32": U32, "u64": U64,
	"bool": BOOL, "void": VOID,
	"if": IF, "else": ELSE, "while": WHILE, "for": FOR, "return": RETURN,
	"true": TRUE, "false": FALSE,
	"import": IMPORT, "from": FROM,
	"dbg": DBG,
}

// typeKeywordToType maps a type-keyword token to its ast.Type. Panics if
// tt is not a type keyword; callers must check first.
func typeKeywordToType(tt TokenType) ast.Type {
	switch tt {
	case I8:
		return ast.I8
	case I16:
		return ast.I16
	case I32:
		return ast.I32
	case I64:
		return ast.I64
	case U8:
		return ast.U8
	case U16:
		return ast.U16
	case U32:
		return ast.U32
	case U64:
		return ast.U64
	case BOOL:
		return ast.Bool
	case VOID:
		return ast.Void
	default:
		panic("typeKeywordToType: not a type keyword")
	}
}

// IsTypeKeyword reports whether tt introduces a type in a declaration
// position, and returns the corresponding ast.Type.
func IsTypeKeyword(tt TokenType) (ast.Type, bool) {
	switch tt {
	case I8, I16, I32, I64, U8, U16, U32, U64, BOOL, VOID:
		return typeKeywordToType(tt), true
	default:
		return 0, false
	}
}

// Token is one lexical unit. Lexeme is a copy of the token's source
// text, independent of the source buffer; IntValue and StringValue are only meaningful
// for INT_LITERAL and STRING tokens respectively.
type Token struct {
	Type        TokenType
	Lexeme      string
	Location    ast.SourceLocation
	IntValue    int64
	StringValue string
	// ErrorMessage carries the diagnostic text for an ERROR token (e.g.
	// "integer literal overflows 64-bit range" or "unexpected character '&'").
	ErrorMessage string
}
