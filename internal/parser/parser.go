// Package parser implements the recursive-descent parser for CASM
// source (spec.md §4.2 / component C3). It scans a whole file's tokens
// up front — like the original implementation this compiler is
// descended from — so a lexical error never aborts parsing before the
// rest of the file has a chance to report its own diagnostics.
package parser

import (
	"strconv"
	"strings"

	"github.com/casm-lang/casmc/internal/ast"
	"github.com/casm-lang/casmc/internal/diagnostic"
	"github.com/casm-lang/casmc/internal/lexer"
)

// Parser holds the fully tokenized input for one file plus the cursor
// into it. File is the path recorded on every diagnostic.
type Parser struct {
	file   string
	tokens []lexer.Token
	pos    int
	diags  *diagnostic.Bag
}

// Parse tokenizes and parses src, returning the file's Program and a
// diagnostic bag. Parsing never stops at the first error: it recovers
// to the next top-level boundary and keeps going so one run surfaces
// every detectable problem, per spec.md §4.2's error-recovery rule.
func Parse(file string, src []byte) (*ast.Program, *diagnostic.Bag) {
	p := &Parser{file: file, diags: diagnostic.NewBag()}
	p.tokenize(src)
	prog := p.parseProgram()
	return prog, p.diags
}

func (p *Parser) tokenize(src []byte) {
	lx := lexer.New(src)
	for {
		tok := lx.Next()
		if tok.Type == lexer.ERROR {
			p.diags.Errorf(p.file, tok.Location.Line, tok.Location.Column, "%s", tok.ErrorMessage)
			continue
		}
		p.tokens = append(p.tokens, tok)
		if tok.Type == lexer.EOF {
			break
		}
	}
}

func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(n int) lexer.Token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) check(tt lexer.TokenType) bool {
	return p.current().Type == tt
}

func (p *Parser) match(tt lexer.TokenType) (lexer.Token, bool) {
	if p.check(tt) {
		return p.advance(), true
	}
	return lexer.Token{}, false
}

// expect consumes a token of type tt or records a diagnostic and
// returns the current (unconsumed) token as a placeholder.
func (p *Parser) expect(tt lexer.TokenType, what string) lexer.Token {
	if tok, ok := p.match(tt); ok {
		return tok
	}
	tok := p.current()
	p.errorf(tok, "expected %s, found '%s'", what, tok.Lexeme)
	return tok
}

func (p *Parser) errorf(tok lexer.Token, format string, args ...any) {
	p.diags.Errorf(p.file, tok.Location.Line, tok.Location.Column, format, args...)
}

// syncToTopLevel advances until it reaches a token that can start (or
// follow) a top-level construct: a semicolon at depth 0 (consumed), a
// closing brace that returns to depth 0 (consumed), EOF, or a token
// that can start a function/import. Skipped tokens add no diagnostics
// of their own: every caller has already recorded the error that
// triggered recovery, so no input is discarded silently (spec.md §4.2).
func (p *Parser) syncToTopLevel() {
	depth := 0
	for {
		tok := p.current()
		switch tok.Type {
		case lexer.EOF:
			return
		case lexer.LBRACE:
			depth++
			p.advance()
			continue
		case lexer.RBRACE:
			if depth == 0 {
				p.advance()
				return
			}
			depth--
			p.advance()
			continue
		case lexer.SEMICOLON:
			p.advance()
			if depth == 0 {
				return
			}
			continue
		case lexer.HASH:
			if depth == 0 {
				return
			}
		default:
			if depth == 0 {
				if _, ok := lexer.IsTypeKeyword(tok.Type); ok {
					return
				}
			}
		}
		p.advance()
	}
}

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	for p.check(lexer.HASH) {
		if imp, ok := p.parseImport(); ok {
			prog.Imports = append(prog.Imports, imp)
		} else {
			p.syncToTopLevel()
		}
	}
	for !p.check(lexer.EOF) {
		fn, ok := p.parseFunction()
		if !ok {
			p.syncToTopLevel()
			continue
		}
		prog.Functions = append(prog.Functions, fn)
	}
	return prog
}

// parseImport handles both `# import NAME (, NAME)* from "PATH" ;` and
// the shorthand `# import "PATH" ;`, which desugars to importing the
// basename of PATH without its extension.
func (p *Parser) parseImport() (ast.Import, bool) {
	hash := p.expect(lexer.HASH, "'#'")
	p.expect(lexer.IMPORT, "'import'")

	if str, ok := p.match(lexer.STRING); ok {
		p.expect(lexer.SEMICOLON, "';'")
		return ast.Import{Names: []string{pathBasename(str.StringValue)}, Path: str.StringValue, Location: hash.Location}, true
	}

	var names []string
	name := p.expect(lexer.IDENT, "identifier")
	names = append(names, name.Lexeme)
	for {
		if _, ok := p.match(lexer.COMMA); !ok {
			break
		}
		n := p.expect(lexer.IDENT, "identifier")
		names = append(names, n.Lexeme)
	}
	p.expect(lexer.FROM, "'from'")
	path := p.expect(lexer.STRING, "string literal")
	p.expect(lexer.SEMICOLON, "';'")
	return ast.Import{Names: names, Path: path.StringValue, Location: hash.Location}, true
}

func pathBasename(path string) string {
	base := path
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}

func (p *Parser) parseType() (ast.TypeNode, bool) {
	tok := p.current()
	t, ok := lexer.IsTypeKeyword(tok.Type)
	if !ok {
		p.errorf(tok, "expected type, found '%s'", tok.Lexeme)
		return ast.TypeNode{}, false
	}
	p.advance()
	return ast.TypeNode{Type: t, Location: tok.Location}, true
}

// parseFunction expects `TYPE IDENT ( PARAMS? ) BLOCK`.
func (p *Parser) parseFunction() (*ast.Function, bool) {
	retType, ok := p.parseType()
	if !ok {
		return nil, false
	}
	nameTok := p.expect(lexer.IDENT, "function name")
	p.expect(lexer.LPAREN, "'('")

	var params []ast.Parameter
	if !p.check(lexer.RPAREN) {
		for {
			pt, ok := p.parseType()
			if !ok {
				return nil, false
			}
			pn := p.expect(lexer.IDENT, "parameter name")
			params = append(params, ast.Parameter{Name: pn.Lexeme, Type: pt, Location: pt.Location})
			if _, ok := p.match(lexer.COMMA); !ok {
				break
			}
		}
	}
	p.expect(lexer.RPAREN, "')'")

	body, ok := p.parseBlock()
	if !ok {
		return nil, false
	}

	return &ast.Function{
		Name:       nameTok.Lexeme,
		ReturnType: retType,
		Parameters: params,
		Body:       body,
		Location:   retType.Location,
	}, true
}

func (p *Parser) parseBlock() (ast.Block, bool) {
	lbrace := p.expect(lexer.LBRACE, "'{'")
	block := ast.Block{Location: lbrace.Location}
	for !p.check(lexer.RBRACE) && !p.check(lexer.EOF) {
		stmt, ok := p.parseStatement()
		if !ok {
			p.syncToTopLevel()
			if p.pos > 0 && p.tokens[p.pos-1].Type == lexer.RBRACE {
				return block, true
			}
			continue
		}
		block.Statements = append(block.Statements, stmt)
	}
	p.expect(lexer.RBRACE, "'}'")
	return block, true
}

func (p *Parser) parseStatement() (ast.Stmt, bool) {
	tok := p.current()
	switch {
	case tok.Type == lexer.RETURN:
		return p.parseReturn()
	case tok.Type == lexer.IF:
		return p.parseIf()
	case tok.Type == lexer.WHILE:
		return p.parseWhile()
	case tok.Type == lexer.FOR:
		return p.parseFor()
	case tok.Type == lexer.DBG:
		return p.parseDbg()
	case tok.Type == lexer.LBRACE:
		body, ok := p.parseBlock()
		if !ok {
			return nil, false
		}
		return &ast.BlockStmt{Body: body, Location: tok.Location}, true
	default:
		if _, ok := lexer.IsTypeKeyword(tok.Type); ok {
			return p.parseVarDecl()
		}
		return p.parseExprStatement()
	}
}

func (p *Parser) parseReturn() (ast.Stmt, bool) {
	tok := p.advance() // RETURN
	if _, ok := p.match(lexer.SEMICOLON); ok {
		return &ast.ReturnStmt{Location: tok.Location}, true
	}
	expr, ok := p.parseExpression()
	if !ok {
		return nil, false
	}
	p.expect(lexer.SEMICOLON, "';'")
	return &ast.ReturnStmt{Value: expr, Location: tok.Location}, true
}

func (p *Parser) parseVarDecl() (ast.Stmt, bool) {
	t, ok := p.parseType()
	if !ok {
		return nil, false
	}
	name := p.expect(lexer.IDENT, "variable name")
	var init ast.Expr
	if _, ok := p.match(lexer.ASSIGN); ok {
		init, ok = p.parseExpression()
		if !ok {
			return nil, false
		}
	}
	p.expect(lexer.SEMICOLON, "';'")
	return &ast.VarDeclStmt{Name: name.Lexeme, Type: t, Initializer: init, Location: t.Location}, true
}

func (p *Parser) parseIf() (ast.Stmt, bool) {
	tok := p.advance() // IF
	p.expect(lexer.LPAREN, "'('")
	cond, ok := p.parseExpression()
	if !ok {
		return nil, false
	}
	p.expect(lexer.RPAREN, "')'")
	then, ok := p.parseBlock()
	if !ok {
		return nil, false
	}

	stmt := &ast.IfStmt{Condition: cond, Then: then, Location: tok.Location}
	for p.check(lexer.ELSE) && p.peekAt(1).Type == lexer.IF {
		elseTok := p.advance() // ELSE
		p.advance()            // IF
		p.expect(lexer.LPAREN, "'('")
		eiCond, ok := p.parseExpression()
		if !ok {
			return nil, false
		}
		p.expect(lexer.RPAREN, "')'")
		eiBody, ok := p.parseBlock()
		if !ok {
			return nil, false
		}
		stmt.ElseIfs = append(stmt.ElseIfs, ast.ElseIfClause{Condition: eiCond, Body: eiBody, Location: elseTok.Location})
	}
	if _, ok := p.match(lexer.ELSE); ok {
		elseBody, ok := p.parseBlock()
		if !ok {
			return nil, false
		}
		stmt.Else = &elseBody
	}
	return stmt, true
}

func (p *Parser) parseWhile() (ast.Stmt, bool) {
	tok := p.advance() // WHILE
	p.expect(lexer.LPAREN, "'('")
	cond, ok := p.parseExpression()
	if !ok {
		return nil, false
	}
	p.expect(lexer.RPAREN, "')'")
	body, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	return &ast.WhileStmt{Condition: cond, Body: body, Location: tok.Location}, true
}

func (p *Parser) parseFor() (ast.Stmt, bool) {
	tok := p.advance() // FOR
	p.expect(lexer.LPAREN, "'('")

	var init ast.Stmt
	if !p.check(lexer.SEMICOLON) {
		if _, ok := lexer.IsTypeKeyword(p.current().Type); ok {
			s, ok := p.parseVarDecl()
			if !ok {
				return nil, false
			}
			init = s
		} else {
			expr, ok := p.parseExpression()
			if !ok {
				return nil, false
			}
			p.expect(lexer.SEMICOLON, "';'")
			init = &ast.ExprStmt{X: expr, Location: expr.Loc()}
		}
	} else {
		p.advance() // consume the lone semicolon
	}

	var cond ast.Expr
	if !p.check(lexer.SEMICOLON) {
		var ok bool
		cond, ok = p.parseExpression()
		if !ok {
			return nil, false
		}
	}
	p.expect(lexer.SEMICOLON, "';'")

	var update ast.Expr
	if !p.check(lexer.RPAREN) {
		var ok bool
		update, ok = p.parseExpression()
		if !ok {
			return nil, false
		}
	}
	p.expect(lexer.RPAREN, "')'")

	body, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	return &ast.ForStmt{Init: init, Condition: cond, Update: update, Body: body, Location: tok.Location}, true
}

func (p *Parser) parseDbg() (ast.Stmt, bool) {
	tok := p.advance() // DBG
	p.expect(lexer.LPAREN, "'('")
	var args []ast.DbgArg
	if !p.check(lexer.RPAREN) {
		for {
			expr, ok := p.parseExpression()
			if !ok {
				return nil, false
			}
			args = append(args, ast.DbgArg{Label: exprLabel(expr), Value: expr})
			if _, ok := p.match(lexer.COMMA); !ok {
				break
			}
		}
	}
	p.expect(lexer.RPAREN, "')'")
	p.expect(lexer.SEMICOLON, "';'")
	return &ast.DbgStmt{Args: args, Location: tok.Location}, true
}

func (p *Parser) parseExprStatement() (ast.Stmt, bool) {
	expr, ok := p.parseExpression()
	if !ok {
		return nil, false
	}
	p.expect(lexer.SEMICOLON, "';'")
	return &ast.ExprStmt{X: expr, Location: expr.Loc()}, true
}

// exprLabel derives the source-like label text spec.md §4.2 requires
// for dbg arguments: names and literal text for leaves, a compact
// synthesized reconstruction for compound expressions.
func exprLabel(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.VarExpr:
		return n.Name
	case *ast.IntLiteral:
		return strconv.FormatInt(n.Value, 10)
	case *ast.BoolLiteral:
		if n.Value {
			return "true"
		}
		return "false"
	case *ast.CallExpr:
		return n.Callee + "()"
	case *ast.UnaryExpr:
		return n.Op.String() + exprLabel(n.Operand)
	case *ast.BinaryExpr:
		return exprLabel(n.Left) + " " + n.Op.String() + " " + exprLabel(n.Right)
	default:
		return "<expr>"
	}
}
